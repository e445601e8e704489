package internal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Prompt limits
const (
	MaxPromptDataChars = 150000
	SheetPromptRows    = 70
	DocSampleChars     = 500
)

const chartRequestInstructions = `
If the user's query implies a request for a visual representation of data (e.g., 'show me a chart of...', 'visualize...', 'graph of...') OR if the data being discussed is inherently suitable for a simple chart (like bar, line, pie), you MUST attempt to include a JSON object in your response formatted for Chart.js.
This JSON object MUST be the *only* content between the markers '` + ChartStartMarker + `' and '` + ChartEndMarker + `'. No other text, explanations, or markdown should be within these markers.
The JSON structure should be:
{
  "type": "bar", "data": { "labels": ["A", "B"], "datasets": [{ "label": "Data", "data": [10, 20] }] }, "options": { "plugins": { "title": { "display": true, "text": "Chart Title" } } }
}
Guidelines: Simplicity, Relevance, Concise Title. Use varied backgroundColors for pie/doughnut.
`

const tableRequestInstructions = `
If the answer to the user's query is best represented as tabular data (e.g., a list of items with multiple attributes, raw data snippets, or if the user asks "show data for X"), you MAY include a JSON object for rendering a table.
This JSON object MUST be the *only* content between the markers '` + TableStartMarker + `' and '` + TableEndMarker + `'. No other text or markdown within.
The JSON structure MUST be: { "headers": ["H1", "H2"], "rows": [["R1C1", "R1C2"], ["R2C1", "R2C2"]] }
Keep tables concise, ideally 5-10 rows if showing a sample.
`

const proactiveInsightInstructions = `
In addition to answering the user's direct question, if you identify any particularly interesting trends, anomalies, or actionable insights from the data that are relevant to the user's general context, please briefly mention 1-2 of these as "Proactive Insight:" or "Key Observation:". Keep this concise.
`

// BuildAnalysisPrompt renders the model prompt for one question against
// the dataset of the active mode
func BuildAnalysisPrompt(req AnalysisRequest) (string, error) {
	ds := req.Dataset
	if ds == nil {
		return "", fmt.Errorf("no dataset for analysis")
	}

	switch ds.Mode {
	case ModeJSON:
		var pretty bytes.Buffer
		if err := json.Indent(&pretty, ds.JSON, "", "  "); err != nil {
			return "", &ParseError{Source: "dataset", Err: err}
		}
		data := truncateChars(pretty.String(), MaxPromptDataChars, "\n... (Data truncated due to size limit)")
		return `
You are an expert AI assistant specializing in analyzing Google Analytics 4 (GA4) data.
The user provided GA4 data in JSON format.
Your task is to answer the user's question based *solely* on this data.
If the answer isn't in the data, state that. Be concise.

` + proactiveInsightInstructions + "\n" + chartRequestInstructions + "\n" + tableRequestInstructions + `

Provided GA4 Data:
` + "```json\n" + data + "\n```" + `
User's Question: "` + req.Question + `"

Based *only* on the provided GA4 Data, what is the answer? If relevant, provide Chart.js JSON and/or Table JSON according to the instructions.`, nil

	case ModeGoogleSheet:
		sample, err := json.MarshalIndent(ds.Sheet.OrderedRows(SheetPromptRows), "", "  ")
		if err != nil {
			return "", &ParseError{Source: "sheet", Err: err}
		}
		data := truncateChars(string(sample), MaxPromptDataChars, "\n... (Sample data truncated due to size limit)")
		return `
You are an expert AI assistant specializing in analyzing data from Google Sheets.
The user has provided data parsed from a Google Sheet` + namedSource("Google Sheet", ds.FileName) + `. The data is an array of JSON objects.
Your task is to answer the user's question based *solely* on this provided sheet data.
If the answer cannot be found, state that. When referring to columns, use their header names.

` + proactiveInsightInstructions + "\n" + chartRequestInstructions + "\n" + tableRequestInstructions + `

Provided Google Sheet Data (sample or full data if small enough):
` + "```json\n" + data + "\n```" + `
Number of rows in the full dataset: ` + fmt.Sprint(ds.Sheet.Len()) + `
User's Question: "` + req.Question + `"

Based *only* on the provided Google Sheet Data, what is the answer? If relevant, provide Chart.js JSON and/or Table JSON.
If the user asks to modify the sheet, acknowledge the request, state you cannot directly edit the sheet, but describe the changes you *would* make if you could.`, nil

	case ModeGoogleDoc:
		content := truncateChars(ds.Doc, MaxPromptDataChars, "\n... (Document content truncated due to size limit)")
		return `
You are an expert AI assistant specializing in analyzing textual content from Google Documents.
The user has provided text content from a Google Document` + namedSource("Google Document", ds.FileName) + `.
Your task is to answer the user's question based *solely* on this provided document content.
This could involve summarization, extracting key information, answering specific questions about the text, etc.
If the answer cannot be found in the document, state that.

` + proactiveInsightInstructions + "\n" + tableRequestInstructions + `
(Note: Chart.js visualization is less likely for pure text documents unless the text describes data suitable for charting.)

Provided Google Document Content:
` + "```text\n" + content + "\n```" + `
Length of full document content: ` + fmt.Sprint(len([]rune(ds.Doc))) + ` characters.
User's Question: "` + req.Question + `"

Based *only* on the provided Google Document Content, what is the answer? If relevant, provide Table JSON.`, nil

	case ModeGA4:
		user := ds.User
		if user == "" {
			user = "Unknown User"
		}
		return `
You are an expert AI assistant specializing in Google Analytics 4 (GA4).
The user is 'connected' to their GA4 account (simulated connection for user: ` + user + `).
They asked: "` + req.Question + `".

Acknowledge their question. Explain that in a real, fully integrated scenario, you would now formulate a query to the Google Analytics Data API, retrieve live data, and then provide an answer/visualization.
Since this is currently a *simulated connection phase*, you cannot fetch live data.
Briefly suggest 2-3 key metrics/dimensions you *would typically look for* in GA4 to answer their question.
If their question implies a visualization, describe the chart type and what data you'd plot.
` + chartRequestInstructions + `
(For simulated mode, if you generate chart JSON, base it on hypothetical data that answers the query, clearly indicating it's illustrative. Title it like "Illustrative Top Pages by Views".)
Keep this concise. Remind the user this is a simulated interaction.`, nil
	}

	return "", fmt.Errorf("invalid analysis mode %q", ds.Mode)
}

// SuggestionContext describes the dataset for a suggestion prompt. ok is
// false when a tabular dataset exposes no column names.
func SuggestionContext(ds *Dataset) (string, bool) {
	if ds == nil {
		return "", false
	}
	switch ds.Mode {
	case ModeJSON:
		headers := JSONKeys(ds.JSON)
		return fmt.Sprintf("The data is GA4 JSON. Available top-level keys or keys from first array element include: %s.",
			joinOr(headers, "unknown structure")), len(headers) > 0
	case ModeGoogleSheet:
		var headers []string
		if ds.Sheet != nil && len(ds.Sheet.Rows) > 0 {
			headers = ds.Sheet.Headers
		}
		return fmt.Sprintf("The data is from a Google Sheet with columns: %s.",
			joinOr(headers, "unknown columns")), len(headers) > 0
	case ModeGoogleDoc:
		sample := truncateChars(ds.Doc, DocSampleChars, "...")
		return fmt.Sprintf(`The data is text content from a Google Document. Here's a sample: "%s". Suggest questions about this document's content.`, sample), true
	}
	return "", false
}

// BuildSuggestionPrompt renders the follow-up question prompt
func BuildSuggestionPrompt(sample string) string {
	return `
Based on the following data structure or content sample, generate 3-4 concise and relevant questions a user might ask.
Return the questions as a JSON array of strings. Example: ["What are the top 5 items?", "Summarize this document."].
Do not include any other text or explanation outside the JSON array.

Data Context/Sample: ` + sample + `

JSON array of suggested questions:
`
}

func namedSource(kind, name string) string {
	if name == "" {
		return ""
	}
	return fmt.Sprintf(" from the %s named %q", kind, name)
}

func joinOr(items []string, fallback string) string {
	if len(items) == 0 {
		return fallback
	}
	return strings.Join(items, ", ")
}

// truncateChars cuts s to limit runes and appends suffix when it cut
func truncateChars(s string, limit int, suffix string) string {
	if len(s) <= limit {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + suffix
}
