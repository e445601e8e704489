package internal

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
)

// MaxSuggestions caps how many follow-up questions are kept
const MaxSuggestions = 4

var fencedBlock = regexp.MustCompile("(?s)^```(\\w*)?\\s*\\n?(.*?)\\n?\\s*```$")

// SuggestQuestions asks the model for follow-up questions about the
// dataset. Datasets without a usable structure give an empty list and no
// model call. Analysis mode ga4 has no suggestions.
func (c *GeminiClient) SuggestQuestions(ctx context.Context, req SuggestionRequest) ([]string, error) {
	if req.Dataset == nil || req.Dataset.Mode == ModeGA4 || !req.Dataset.IsLoaded() {
		return nil, nil
	}
	sample, ok := SuggestionContext(req.Dataset)
	if !ok {
		return nil, nil
	}

	gen, err := c.generator(ctx)
	if err != nil {
		return nil, err
	}
	text, err := gen.Generate(ctx, c.model, BuildSuggestionPrompt(sample), GenerateOptions{
		Temperature:      SuggestionTemperature,
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		LogError("Error getting suggested questions from Gemini: %v", err)
		return nil, classifyModelError(err)
	}
	return ParseSuggestions(text), nil
}

// ParseSuggestions reads a JSON array of strings, optionally wrapped in a
// fenced code block. Anything else yields an empty list.
func ParseSuggestions(text string) []string {
	payload := strings.TrimSpace(text)
	if m := fencedBlock.FindStringSubmatch(payload); m != nil && m[2] != "" {
		payload = strings.TrimSpace(m[2])
	}

	var raw []any
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		LogWarn("Failed to parse suggested questions JSON: %v", err)
		return []string{}
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		s, ok := item.(string)
		if !ok {
			LogWarn("Suggested questions response is not a string array")
			return []string{}
		}
		out = append(out, s)
	}
	if len(out) > MaxSuggestions {
		out = out[:MaxSuggestions]
	}
	return out
}
