package internal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Sender identifies who authored a transcript message
type Sender string

const (
	SenderUser   Sender = "user"
	SenderBot    Sender = "bot"
	SenderSystem Sender = "system"
)

// ConnectionMode is the active data-source method
type ConnectionMode string

const (
	ModeNone        ConnectionMode = ""
	ModeJSON        ConnectionMode = "json"
	ModeGoogleSheet ConnectionMode = "googleSheet"
	ModeGoogleDoc   ConnectionMode = "googleDoc"
	ModeGA4         ConnectionMode = "ga4"
)

// ParseConnectionMode accepts the stored names plus a few CLI aliases
func ParseConnectionMode(s string) (ConnectionMode, error) {
	switch s {
	case "json", "inline", "inlineJson":
		return ModeJSON, nil
	case "sheet", "googleSheet":
		return ModeGoogleSheet, nil
	case "doc", "googleDoc":
		return ModeGoogleDoc, nil
	case "ga4", "analytics", "simulatedAnalytics":
		return ModeGA4, nil
	case "", "none":
		return ModeNone, nil
	default:
		return ModeNone, fmt.Errorf("unknown connection mode: %s (supported: json, sheet, doc, ga4)", s)
	}
}

// Label returns a human readable name for the mode
func (m ConnectionMode) Label() string {
	switch m {
	case ModeJSON:
		return "GA4 JSON"
	case ModeGoogleSheet:
		return "Google Sheet"
	case ModeGoogleDoc:
		return "Google Document"
	case ModeGA4:
		return "Google Analytics (Simulated)"
	default:
		return "none"
	}
}

// Message is one transcript entry. It is never mutated after it is appended.
type Message struct {
	ID        string     `json:"id" yaml:"id"`
	Text      string     `json:"text" yaml:"text"`
	Sender    Sender     `json:"sender" yaml:"sender"`
	Timestamp time.Time  `json:"timestamp" yaml:"timestamp"`
	ChartSpec *ChartSpec `json:"chartData,omitempty" yaml:"chart,omitempty"`
	TableSpec *TableSpec `json:"tableData,omitempty" yaml:"table,omitempty"`

	placeholder bool
}

// IsPlaceholder reports whether the message is the in-flight BOT marker
func (m Message) IsPlaceholder() bool {
	return m.placeholder
}

// ChartSpec is a chart payload extracted from a bot reply
type ChartSpec struct {
	Type    string         `json:"type" yaml:"type"`
	Data    ChartData      `json:"data" yaml:"data"`
	Options map[string]any `json:"options,omitempty" yaml:"options,omitempty"`
}

// ChartData holds labels and series for a chart
type ChartData struct {
	Labels   Labels         `json:"labels" yaml:"labels"`
	Datasets []ChartDataset `json:"datasets" yaml:"datasets"`
}

// Labels accepts strings or numbers and keeps them as strings
type Labels []string

func (l *Labels) UnmarshalJSON(data []byte) error {
	var raw []any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Labels, 0, len(raw))
	for _, v := range raw {
		out = append(out, cellString(v))
	}
	*l = out
	return nil
}

// Series is a numeric data array. Missing or non-numeric entries are
// gaps: they decode as NaN and encode back as null.
type Series []float64

func (s *Series) UnmarshalJSON(data []byte) error {
	var raw []any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Series, 0, len(raw))
	for _, v := range raw {
		switch n := v.(type) {
		case float64:
			out = append(out, n)
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
			if err != nil {
				f = math.NaN()
			}
			out = append(out, f)
		default:
			out = append(out, math.NaN())
		}
	}
	*s = out
	return nil
}

func (s Series) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, v := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		if IsGap(v) {
			buf.WriteString("null")
			continue
		}
		buf.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// IsGap reports whether a series value is a missing point
func IsGap(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}

// ChartDataset is one series. Style keeps any extra rendering fields
// (backgroundColor, borderColor, fill and so on) verbatim.
type ChartDataset struct {
	Label string         `yaml:"label"`
	Data  Series         `yaml:"data"`
	Style map[string]any `yaml:"style,omitempty"`
}

func (d *ChartDataset) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*d = ChartDataset{}
	for k, v := range raw {
		switch k {
		case "label":
			var label any
			if err := json.Unmarshal(v, &label); err != nil {
				return err
			}
			if label != nil {
				d.Label = cellString(label)
			}
		case "data":
			if err := json.Unmarshal(v, &d.Data); err != nil {
				return fmt.Errorf("dataset data: %w", err)
			}
		default:
			var val any
			if err := json.Unmarshal(v, &val); err != nil {
				return err
			}
			if d.Style == nil {
				d.Style = make(map[string]any)
			}
			d.Style[k] = val
		}
	}
	return nil
}

func (d ChartDataset) MarshalJSON() ([]byte, error) {
	keys := make([]string, 0, len(d.Style))
	for k := range d.Style {
		if k != "label" && k != "data" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteString(`{"label":`)
	label, err := json.Marshal(d.Label)
	if err != nil {
		return nil, err
	}
	buf.Write(label)
	buf.WriteString(`,"data":`)
	series := d.Data
	if series == nil {
		series = Series{}
	}
	data, err := json.Marshal(series)
	if err != nil {
		return nil, err
	}
	buf.Write(data)
	for _, k := range keys {
		name, _ := json.Marshal(k)
		val, err := json.Marshal(d.Style[k])
		if err != nil {
			return nil, fmt.Errorf("dataset style %s: %w", k, err)
		}
		buf.WriteByte(',')
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// TableSpec is a table payload extracted from a bot reply. Cells are
// strings or float64 values.
type TableSpec struct {
	Headers []string `json:"headers" yaml:"headers"`
	Rows    [][]any  `json:"rows" yaml:"rows"`
}

// UnmarshalJSON accepts numeric headers and keeps them as strings
func (t *TableSpec) UnmarshalJSON(data []byte) error {
	var raw struct {
		Headers Labels  `json:"headers"`
		Rows    [][]any `json:"rows"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	t.Headers = []string(raw.Headers)
	t.Rows = raw.Rows
	return nil
}

// SheetRow is one parsed spreadsheet row keyed by header
type SheetRow map[string]any

// SheetData is an ordered set of rows sharing one ordered header list
type SheetData struct {
	Headers []string   `json:"headers" yaml:"headers"`
	Rows    []SheetRow `json:"rows" yaml:"rows"`
}

// Len returns the number of data rows
func (s *SheetData) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Rows)
}

// OrderedRows renders rows as ordered key/value lists so prompts keep
// the sheet's column order.
func (s *SheetData) OrderedRows(limit int) []json.RawMessage {
	if s == nil {
		return nil
	}
	n := len(s.Rows)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]json.RawMessage, 0, n)
	for _, row := range s.Rows[:n] {
		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, h := range s.Headers {
			if i > 0 {
				buf.WriteByte(',')
			}
			k, _ := json.Marshal(h)
			v, err := json.Marshal(row[h])
			if err != nil {
				v = []byte(`null`)
			}
			buf.Write(k)
			buf.WriteByte(':')
			buf.Write(v)
		}
		buf.WriteByte('}')
		out = append(out, buf.Bytes())
	}
	return out
}

// DataSummary describes a loaded dataset without carrying it
type DataSummary struct {
	FileName  string   `json:"fileName,omitempty" yaml:"file_name,omitempty"`
	SourceURL string   `json:"sourceUrl,omitempty" yaml:"source_url,omitempty"`
	RowCount  int      `json:"rowCount,omitempty" yaml:"row_count,omitempty"`
	CharCount int      `json:"charCount,omitempty" yaml:"char_count,omitempty"`
	Headers   []string `json:"headers,omitempty" yaml:"headers,omitempty"`
}

// Dataset is the payload handed to the model for one mode
type Dataset struct {
	Mode     ConnectionMode
	JSON     json.RawMessage
	Sheet    *SheetData
	Doc      string
	FileName string
	User     string
}

// IsLoaded reports whether the dataset holds usable data for its mode
func (d *Dataset) IsLoaded() bool {
	if d == nil {
		return false
	}
	switch d.Mode {
	case ModeJSON:
		trimmed := bytes.TrimSpace(d.JSON)
		return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
	case ModeGoogleSheet:
		return d.Sheet != nil && len(d.Sheet.Headers) > 0 && len(d.Sheet.Rows) > 0
	case ModeGoogleDoc:
		return d.Doc != ""
	case ModeGA4:
		return true
	default:
		return false
	}
}

// JSONKeys returns top-level keys of an object, or keys of the first
// element when the value is an array of objects.
func JSONKeys(raw json.RawMessage) []string {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	if arr, ok := v.([]any); ok {
		if len(arr) == 0 {
			return nil
		}
		v = arr[0]
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// JSONRowCount returns the length of a top-level array, or zero
func JSONRowCount(raw json.RawMessage) int {
	var arr []json.RawMessage
	if err := json.Unmarshal(raw, &arr); err != nil {
		return 0
	}
	return len(arr)
}

func cellString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}

// CellString formats a table or sheet cell for display
func CellString(v any) string {
	return cellString(v)
}
