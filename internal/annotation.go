package internal

import (
	"encoding/json"
	"errors"
	"strings"
)

// Sentinel markers the model places around embedded payloads
const (
	ChartStartMarker = "// GEMINI_CHART_DATA_START"
	ChartEndMarker   = "// GEMINI_CHART_DATA_END"
	TableStartMarker = "// GEMINI_TABLE_DATA_START"
	TableEndMarker   = "// GEMINI_TABLE_DATA_END"
)

// Fallback texts used when a reply carries only payloads
const (
	FallbackBoth  = "Analysis complete. See details below."
	FallbackChart = "See chart below."
	FallbackTable = "See table below."
)

// AnnotatedReply is a bot reply split into prose and payloads
type AnnotatedReply struct {
	Text  string
	Chart *ChartSpec
	Table *TableSpec
}

// ParseReply decomposes a raw model reply. Chart extraction runs first
// and table extraction scans the text left by it. A marker span that is
// complete but holds malformed or wrongly shaped JSON is cut from the
// text and its payload dropped. A reply without any complete marker pair
// comes back unchanged.
func ParseReply(raw string) AnnotatedReply {
	text := raw
	touched := false

	var chart *ChartSpec
	if before, body, after, ok := cutSpan(text, ChartStartMarker, ChartEndMarker); ok {
		touched = true
		spec, err := decodeChart(body)
		if err != nil {
			LogWarn("Discarding chart payload: %v", err)
		} else {
			chart = spec
		}
		text = joinTrimmed(before, after)
	}

	var table *TableSpec
	if before, body, after, ok := cutSpan(text, TableStartMarker, TableEndMarker); ok {
		touched = true
		spec, err := decodeTable(body)
		if err != nil {
			LogWarn("Discarding table payload: %v", err)
		} else {
			table = spec
		}
		text = joinTrimmed(before, after)
	}

	if !touched {
		return AnnotatedReply{Text: raw}
	}

	text = strings.TrimSpace(text)
	if text == "" {
		switch {
		case chart != nil && table != nil:
			text = FallbackBoth
		case chart != nil:
			text = FallbackChart
		case table != nil:
			text = FallbackTable
		}
	}
	return AnnotatedReply{Text: text, Chart: chart, Table: table}
}

// cutSpan finds the first start marker and the first end marker after
// it. It returns the text on either side of the span and the trimmed
// body between the markers.
func cutSpan(s, start, end string) (before, body, after string, ok bool) {
	i := strings.Index(s, start)
	if i < 0 {
		return "", "", "", false
	}
	rest := s[i+len(start):]
	j := strings.Index(rest, end)
	if j < 0 {
		return "", "", "", false
	}
	return s[:i], strings.TrimSpace(rest[:j]), rest[j+len(end):], true
}

func joinTrimmed(before, after string) string {
	before = strings.TrimSpace(before)
	after = strings.TrimSpace(after)
	switch {
	case before != "" && after != "":
		return before + "\n" + after
	case before != "":
		return before
	default:
		return after
	}
}

func decodeChart(body string) (*ChartSpec, error) {
	var shape struct {
		Type string `json:"type"`
		Data *struct {
			Labels   json.RawMessage `json:"labels"`
			Datasets json.RawMessage `json:"datasets"`
		} `json:"data"`
	}
	if err := json.Unmarshal([]byte(body), &shape); err != nil {
		return nil, &ParseError{Source: "chart", Key: ChartStartMarker, Err: err}
	}
	if strings.TrimSpace(shape.Type) == "" {
		return nil, &ParseError{Source: "chart", Key: "type", Err: errors.New("missing chart type")}
	}
	if shape.Data == nil {
		return nil, &ParseError{Source: "chart", Key: "data", Err: errors.New("missing data object")}
	}
	if !isJSONArray(shape.Data.Labels) {
		return nil, &ParseError{Source: "chart", Key: "data.labels", Err: errors.New("labels is not an array")}
	}
	if !isJSONArray(shape.Data.Datasets) {
		return nil, &ParseError{Source: "chart", Key: "data.datasets", Err: errors.New("datasets is not an array")}
	}

	var spec ChartSpec
	if err := json.Unmarshal([]byte(body), &spec); err != nil {
		return nil, &ParseError{Source: "chart", Key: "data", Err: err}
	}
	return &spec, nil
}

func decodeTable(body string) (*TableSpec, error) {
	var shape struct {
		Headers json.RawMessage `json:"headers"`
		Rows    json.RawMessage `json:"rows"`
	}
	if err := json.Unmarshal([]byte(body), &shape); err != nil {
		return nil, &ParseError{Source: "table", Key: TableStartMarker, Err: err}
	}
	if !isJSONArray(shape.Headers) {
		return nil, &ParseError{Source: "table", Key: "headers", Err: errors.New("headers is not an array")}
	}
	if !isJSONArray(shape.Rows) {
		return nil, &ParseError{Source: "table", Key: "rows", Err: errors.New("rows is not an array")}
	}

	var spec TableSpec
	if err := json.Unmarshal([]byte(body), &spec); err != nil {
		return nil, &ParseError{Source: "table", Key: "rows", Err: err}
	}
	return &spec, nil
}

func isJSONArray(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return strings.HasPrefix(trimmed, "[")
}
