package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/iksnae/ga4-analyst/internal"
)

// MarkdownExporter exports the transcript as a readable document. Charts
// become fenced text blocks and tables become markdown tables.
type MarkdownExporter struct{}

// Export exports a snapshot to Markdown format
func (e *MarkdownExporter) Export(snap *internal.SessionSnapshot, w io.Writer) error {
	snap = exportable(snap)

	_, _ = fmt.Fprintf(w, "# GA4 AI Analyst session\n\n")
	_, _ = fmt.Fprintf(w, "**Source:** %s  \n", snap.ConnectionMode.Label())
	if sum := activeSummary(snap); sum != nil {
		if sum.FileName != "" {
			_, _ = fmt.Fprintf(w, "**Dataset:** %s  \n", sum.FileName)
		}
		if sum.RowCount > 0 {
			_, _ = fmt.Fprintf(w, "**Rows:** %d  \n", sum.RowCount)
		}
		if sum.CharCount > 0 {
			_, _ = fmt.Fprintf(w, "**Characters:** %d  \n", sum.CharCount)
		}
	}
	if snap.IsGA4Connected && snap.GA4User != "" {
		_, _ = fmt.Fprintf(w, "**User:** %s  \n", snap.GA4User)
	}
	_, _ = fmt.Fprintf(w, "**Messages:** %d\n\n", len(snap.Messages))

	_, _ = fmt.Fprintf(w, "---\n\n")
	_, _ = fmt.Fprintf(w, "## Messages\n\n")

	for i, msg := range snap.Messages {
		timestamp := ""
		if !msg.Timestamp.IsZero() {
			timestamp = fmt.Sprintf(" (%s)", msg.Timestamp.UTC().Format(time.RFC3339))
		}

		_, _ = fmt.Fprintf(w, "**%s:**%s\n\n%s\n\n", senderLabel(msg.Sender), timestamp, msg.Text)

		if msg.ChartSpec != nil {
			_, _ = fmt.Fprintf(w, "```text\n%s```\n\n", internal.RenderChart(msg.ChartSpec, 80))
		}
		if msg.TableSpec != nil {
			_, _ = fmt.Fprintf(w, "%s\n", markdownTable(msg.TableSpec))
		}

		if i < len(snap.Messages)-1 {
			_, _ = fmt.Fprintf(w, "---\n\n")
		}
	}

	return nil
}

func activeSummary(snap *internal.SessionSnapshot) *internal.DataSummary {
	switch snap.ConnectionMode {
	case internal.ModeJSON:
		return snap.JSONSummary
	case internal.ModeGoogleSheet:
		return snap.SheetSummary
	case internal.ModeGoogleDoc:
		return snap.DocSummary
	}
	return nil
}

func senderLabel(s internal.Sender) string {
	switch s {
	case internal.SenderUser:
		return "User"
	case internal.SenderBot:
		return "Analyst"
	default:
		return "System"
	}
}

// markdownTable writes a pipe table, padding short rows
func markdownTable(t *internal.TableSpec) string {
	var sb strings.Builder
	row := func(cells []string) {
		sb.WriteString("|")
		for _, c := range cells {
			sb.WriteString(" ")
			sb.WriteString(escapeCell(c))
			sb.WriteString(" |")
		}
		sb.WriteString("\n")
	}

	row(t.Headers)
	sep := make([]string, len(t.Headers))
	for i := range sep {
		sep[i] = "---"
	}
	row(sep)
	for _, r := range t.Rows {
		cells := make([]string, len(t.Headers))
		for i := range cells {
			if i < len(r) {
				cells[i] = internal.CellString(r[i])
			}
		}
		row(cells)
	}
	return sb.String()
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
