package internal

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"google.golang.org/genai"
)

// DefaultModel is the Gemini model used when none is configured
const DefaultModel = "gemini-2.5-flash-preview-04-17"

// Sampling temperatures for the two call kinds
const (
	AnalysisTemperature   float32 = 0.3
	SuggestionTemperature float32 = 0.5
)

// AnalysisRequest is one user question against a loaded dataset
type AnalysisRequest struct {
	Question string
	Dataset  *Dataset
}

// SuggestionRequest asks for follow-up questions about a dataset
type SuggestionRequest struct {
	Dataset *Dataset
}

// ModelClient is what the conversation needs from a model backend
type ModelClient interface {
	Analyze(ctx context.Context, req AnalysisRequest) (string, error)
	SuggestQuestions(ctx context.Context, req SuggestionRequest) ([]string, error)
	IsConfigured() bool
}

// GenerateOptions carries per-call sampling settings
type GenerateOptions struct {
	Temperature      float32
	ResponseMIMEType string
}

// Generator sends a single prompt to a model and returns its text
type Generator interface {
	Generate(ctx context.Context, model, prompt string, opts GenerateOptions) (string, error)
}

// GeminiClient talks to the Gemini API. The underlying SDK client is
// created on first use.
type GeminiClient struct {
	apiKey     string
	model      string
	httpClient *http.Client

	mu  sync.Mutex
	gen Generator
}

// NewGeminiClient creates a client for apiKey. An empty model selects
// DefaultModel.
func NewGeminiClient(apiKey, model string) *GeminiClient {
	if model == "" {
		model = DefaultModel
	}
	return &GeminiClient{apiKey: strings.TrimSpace(apiKey), model: model}
}

// WithGenerator replaces the SDK backed generator
func (c *GeminiClient) WithGenerator(gen Generator) *GeminiClient {
	c.mu.Lock()
	c.gen = gen
	c.mu.Unlock()
	return c
}

// WithHTTPClient sets the HTTP client handed to the SDK
func (c *GeminiClient) WithHTTPClient(client *http.Client) *GeminiClient {
	c.mu.Lock()
	c.httpClient = client
	c.gen = nil
	c.mu.Unlock()
	return c
}

// IsConfigured reports whether an API key is present
func (c *GeminiClient) IsConfigured() bool {
	return c.apiKey != ""
}

// Model returns the model name requests are sent to
func (c *GeminiClient) Model() string {
	return c.model
}

func (c *GeminiClient) generator(ctx context.Context) (Generator, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gen != nil {
		return c.gen, nil
	}
	if c.apiKey == "" {
		return nil, &ConfigError{Key: "api_key", Err: ErrNotConfigured}
	}

	cfg := &genai.ClientConfig{APIKey: c.apiKey}
	if c.httpClient != nil {
		cfg.HTTPClient = c.httpClient
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, classifyModelError(fmt.Errorf("failed to create Gemini client: %w", err))
	}
	LogDebug("Gemini client initialized for model %s", c.model)
	c.gen = &sdkGenerator{client: client}
	return c.gen, nil
}

// Analyze sends the question and dataset to the model and returns the raw
// reply text, which may contain chart or table markers
func (c *GeminiClient) Analyze(ctx context.Context, req AnalysisRequest) (string, error) {
	gen, err := c.generator(ctx)
	if err != nil {
		return "", err
	}
	prompt, err := BuildAnalysisPrompt(req)
	if err != nil {
		return "", err
	}

	LogDebug("Sending %s analysis prompt (%d chars)", req.Dataset.Mode, len(prompt))
	text, err := gen.Generate(ctx, c.model, prompt, GenerateOptions{Temperature: AnalysisTemperature})
	if err != nil {
		LogError("Gemini request failed: %v", err)
		return "", classifyModelError(err)
	}
	return text, nil
}

// classifyModelError maps an SDK or transport failure to a ModelError
func classifyModelError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*ModelError); ok {
		return err
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "API key not valid"):
		return &ModelError{Kind: ModelErrCredential, Err: err}
	case strings.Contains(msg, "permission"), strings.Contains(msg, "quota"):
		return &ModelError{Kind: ModelErrQuota, Err: err}
	default:
		return &ModelError{Kind: ModelErrTransport, Err: err}
	}
}

type sdkGenerator struct {
	client *genai.Client
}

func (g *sdkGenerator) Generate(ctx context.Context, model, prompt string, opts GenerateOptions) (string, error) {
	config := &genai.GenerateContentConfig{}
	temperature := opts.Temperature
	config.Temperature = &temperature
	if opts.ResponseMIMEType != "" {
		config.ResponseMIMEType = opts.ResponseMIMEType
	}

	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	result, err := g.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return "", err
	}
	return responseText(result), nil
}

// responseText joins the text parts of every candidate, skipping thought
// parts
func responseText(result *genai.GenerateContentResponse) string {
	if result == nil {
		return ""
	}
	var sb strings.Builder
	for _, candidate := range result.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || part.Text == "" || part.Thought {
				continue
			}
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}
