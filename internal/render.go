package internal

import (
	"fmt"
	"io"
	"math"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

const (
	defaultRenderWidth = 80
	chartBarWidth      = 30
)

var (
	userLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33")).
			Bold(true)

	botLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	systemLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("244")).
				Italic(true)

	timeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	chartTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")).
			Bold(true)

	barStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62"))

	tableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("99")).
				Padding(0, 1)

	tableCellStyle = lipgloss.NewStyle().Padding(0, 1)

	bannerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	suggestionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))
)

// RenderOptions controls transcript output
type RenderOptions struct {
	// Plain disables colors and markdown rendering
	Plain bool
	Width int
	// ShowSystem includes SYSTEM messages
	ShowSystem bool
}

// TranscriptRenderer writes messages, charts, and tables to a terminal.
// It also works as an Observer for live output.
type TranscriptRenderer struct {
	mu       sync.Mutex
	w        io.Writer
	opts     RenderOptions
	markdown *glamour.TermRenderer
}

// NewTranscriptRenderer creates a renderer writing to w. When the
// markdown renderer cannot be created, bot text is written as is.
func NewTranscriptRenderer(w io.Writer, opts RenderOptions) *TranscriptRenderer {
	if opts.Width <= 0 {
		opts.Width = defaultRenderWidth
	}
	r := &TranscriptRenderer{w: w, opts: opts}
	if !opts.Plain {
		md, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(opts.Width),
		)
		if err != nil {
			LogDebug("Markdown renderer unavailable: %v", err)
		} else {
			r.markdown = md
		}
	}
	return r
}

// RenderTranscript writes every message in order
func (r *TranscriptRenderer) RenderTranscript(msgs []Message) {
	for _, m := range msgs {
		r.RenderMessage(m)
	}
}

// RenderMessage writes one message with its chart and table
func (r *TranscriptRenderer) RenderMessage(m Message) {
	if m.Sender == SenderSystem && !r.opts.ShowSystem {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var label string
	switch m.Sender {
	case SenderUser:
		label = r.style(userLabelStyle, "You")
	case SenderBot:
		label = r.style(botLabelStyle, "Analyst")
	default:
		label = r.style(systemLabelStyle, "System")
	}
	stamp := ""
	if !m.Timestamp.IsZero() {
		stamp = " " + r.style(timeStyle, m.Timestamp.Local().Format("15:04:05"))
	}
	fmt.Fprintf(r.w, "%s%s\n", label, stamp)

	text := m.Text
	if m.Sender == SenderBot && r.markdown != nil && !m.IsPlaceholder() {
		if rendered, err := r.markdown.Render(text); err == nil {
			text = strings.Trim(rendered, "\n")
		}
	} else if m.Sender == SenderSystem {
		text = r.style(systemLabelStyle, text)
	}
	fmt.Fprintln(r.w, text)

	if m.ChartSpec != nil {
		fmt.Fprintln(r.w)
		fmt.Fprint(r.w, r.chart(m.ChartSpec))
	}
	if m.TableSpec != nil {
		fmt.Fprintln(r.w)
		fmt.Fprintln(r.w, r.table(m.TableSpec))
	}
	fmt.Fprintln(r.w)
}

// RenderSuggestions writes a numbered suggestion list
func (r *TranscriptRenderer) RenderSuggestions(questions []string) {
	if len(questions) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.w, r.style(suggestionStyle, "Suggested questions:"))
	for i, q := range questions {
		fmt.Fprintf(r.w, "  /%d  %s\n", i+1, q)
	}
	fmt.Fprintln(r.w)
}

// RenderBanner writes the transient error banner
func (r *TranscriptRenderer) RenderBanner(banner string) {
	if banner == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.w, r.style(bannerStyle, "! "+banner))
}

// OnEvent renders conversation events as they happen
func (r *TranscriptRenderer) OnEvent(e Event) {
	switch e.Kind {
	case EventMessageAdded:
		if e.Message != nil && !e.Message.IsPlaceholder() {
			r.RenderMessage(*e.Message)
		}
	case EventSuggestions:
		r.RenderSuggestions(e.Suggestions)
	case EventBanner:
		r.RenderBanner(e.Banner)
	}
}

func (r *TranscriptRenderer) style(s lipgloss.Style, text string) string {
	if r.opts.Plain {
		return text
	}
	return s.Render(text)
}

func (r *TranscriptRenderer) chart(spec *ChartSpec) string {
	out := RenderChart(spec, r.opts.Width)
	if r.opts.Plain {
		return out
	}
	lines := strings.SplitAfterN(out, "\n", 2)
	if len(lines) == 2 {
		return chartTitleStyle.Render(strings.TrimSuffix(lines[0], "\n")) + "\n" + barStyle.Render(lines[1])
	}
	return out
}

func (r *TranscriptRenderer) table(spec *TableSpec) string {
	if r.opts.Plain {
		return RenderTablePlain(spec)
	}
	return RenderTable(spec)
}

// ChartTitle returns the title a chart will display after the options
// merge
func ChartTitle(spec *ChartSpec) string {
	return chartTitle(spec.EffectiveOptions())
}

func chartTitle(opts map[string]any) string {
	if v, ok := LookupOption(opts, "plugins", "title", "text"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return "Chart"
}

// RenderChart draws a chart as text. Proportion charts list each label's
// share; other types draw one bar per label. Labels and values are paired
// up to the shorter of the two. Dataset names are printed only while the
// merged options keep the legend visible, and gaps render as "-".
func RenderChart(spec *ChartSpec, width int) string {
	if width <= 0 {
		width = defaultRenderWidth
	}
	opts := spec.EffectiveOptions()
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%s)\n", chartTitle(opts), spec.Type)

	legend := true
	if v, ok := LookupOption(opts, "plugins", "legend", "display"); ok {
		if b, ok := v.(bool); ok {
			legend = b
		}
	}

	labelWidth := 0
	for _, l := range spec.Data.Labels {
		labelWidth = max(labelWidth, len([]rune(l)))
	}
	labelWidth = min(labelWidth, width/3)
	barWidth := min(chartBarWidth, max(width-labelWidth-16, 5))

	proportion := spec.Type == "pie" || spec.Type == "doughnut"
	for _, ds := range spec.Data.Datasets {
		if legend && (len(spec.Data.Datasets) > 1 || ds.Label != "") {
			fmt.Fprintf(&sb, "  %s\n", ds.Label)
		}
		n := min(len(spec.Data.Labels), len(ds.Data))
		if n == 0 {
			sb.WriteString("  (no data)\n")
			continue
		}

		peak, total := 0.0, 0.0
		for _, v := range ds.Data[:n] {
			if IsGap(v) {
				continue
			}
			peak = math.Max(peak, math.Abs(v))
			total += math.Abs(v)
		}
		for i := 0; i < n; i++ {
			label := padRight(truncateChars(spec.Data.Labels[i], labelWidth, ""), labelWidth)
			v := ds.Data[i]
			if IsGap(v) {
				fmt.Fprintf(&sb, "  %s -\n", label)
				continue
			}
			if proportion {
				share := 0.0
				if total > 0 {
					share = math.Abs(v) / total * 100
				}
				fmt.Fprintf(&sb, "  %s %5.1f%%  %s\n", label, share, formatNumber(v))
				continue
			}
			bar := 0
			if peak > 0 {
				bar = int(math.Round(math.Abs(v) / peak * float64(barWidth)))
			}
			fmt.Fprintf(&sb, "  %s %s %s\n", label, strings.Repeat("█", bar)+strings.Repeat(" ", barWidth-bar), formatNumber(v))
		}
	}
	return sb.String()
}

// RenderTable draws a bordered table. Short rows are padded.
func RenderTable(spec *TableSpec) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			return tableCellStyle
		}).
		Headers(spec.Headers...).
		Rows(tableRows(spec)...)
	return t.Render()
}

// RenderTablePlain draws a table with aligned columns and no styling
func RenderTablePlain(spec *TableSpec) string {
	rows := tableRows(spec)
	widths := make([]int, len(spec.Headers))
	for i, h := range spec.Headers {
		widths[i] = len([]rune(h))
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], len([]rune(cell)))
		}
	}

	var sb strings.Builder
	writeRow := func(cells []string) {
		for i, cell := range cells {
			if i > 0 {
				sb.WriteString("  ")
			}
			if i == len(cells)-1 {
				sb.WriteString(cell)
			} else {
				sb.WriteString(padRight(cell, widths[i]))
			}
		}
		sb.WriteString("\n")
	}
	writeRow(spec.Headers)
	sep := make([]string, len(widths))
	for i, w := range widths {
		sep[i] = strings.Repeat("-", w)
	}
	writeRow(sep)
	for _, row := range rows {
		writeRow(row)
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

func tableRows(spec *TableSpec) [][]string {
	rows := make([][]string, 0, len(spec.Rows))
	for _, r := range spec.Rows {
		cells := make([]string, len(spec.Headers))
		for i := range cells {
			if i < len(r) {
				cells[i] = CellString(r[i])
			}
		}
		rows = append(rows, cells)
	}
	return rows
}

func padRight(s string, width int) string {
	n := len([]rune(s))
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}

func formatNumber(v float64) string {
	return CellString(v)
}
