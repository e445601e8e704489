package internal

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderChart_Bar(t *testing.T) {
	spec := &ChartSpec{
		Type: "bar",
		Data: ChartData{
			Labels:   Labels{"/home", "/pricing", "/extra"},
			Datasets: []ChartDataset{{Label: "Views", Data: Series{120, 60}}},
		},
		Options: map[string]any{"plugins": map[string]any{"title": map[string]any{"text": "Top pages"}}},
	}
	out := RenderChart(spec, 80)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")

	require.Len(t, lines, 4, "label without a value is skipped")
	assert.Equal(t, "Top pages (bar)", lines[0])
	assert.Equal(t, "  Views", lines[1])
	assert.Equal(t, chartBarWidth, strings.Count(lines[2], "█"))
	assert.Equal(t, chartBarWidth/2, strings.Count(lines[3], "█"))
	assert.True(t, strings.HasSuffix(lines[2], " 120"))
}

func TestRenderChart_PieShares(t *testing.T) {
	spec := &ChartSpec{
		Type: "pie",
		Data: ChartData{
			Labels:   Labels{"US", "DE"},
			Datasets: []ChartDataset{{Data: Series{75, 25}}},
		},
	}
	out := RenderChart(spec, 80)
	assert.Contains(t, out, "Chart (pie)")
	assert.Contains(t, out, " 75.0%  75")
	assert.Contains(t, out, " 25.0%  25")
	assert.NotContains(t, out, "█")
}

func TestRenderChart_LegendHidden(t *testing.T) {
	spec := &ChartSpec{
		Type: "bar",
		Data: ChartData{
			Labels:   Labels{"/home", "/pricing"},
			Datasets: []ChartDataset{{Label: "Views", Data: Series{120, 60}}},
		},
		Options: map[string]any{"plugins": map[string]any{"legend": map[string]any{"display": false}}},
	}
	out := RenderChart(spec, 80)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")

	require.Len(t, lines, 3)
	assert.NotContains(t, out, "  Views\n")
	assert.True(t, strings.HasPrefix(lines[1], "  /home"))
}

func TestRenderChart_PieKeepsLegend(t *testing.T) {
	spec := &ChartSpec{
		Type: "doughnut",
		Data: ChartData{
			Labels:   Labels{"US", "DE"},
			Datasets: []ChartDataset{{Label: "Users", Data: Series{3, 1}}},
		},
	}
	assert.Contains(t, RenderChart(spec, 80), "  Users\n")
}

func TestRenderChart_Gaps(t *testing.T) {
	spec := &ChartSpec{
		Type: "line",
		Data: ChartData{
			Labels:   Labels{"Mon", "Tue", "Wed"},
			Datasets: []ChartDataset{{Label: "Sessions", Data: Series{40, math.NaN(), 20}}},
		},
	}
	out := RenderChart(spec, 80)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")

	require.Len(t, lines, 5)
	assert.Equal(t, chartBarWidth, strings.Count(lines[2], "█"))
	assert.Equal(t, "  Tue -", lines[3])
	assert.Equal(t, chartBarWidth/2, strings.Count(lines[4], "█"))
	assert.NotContains(t, out, "NaN")
}

func TestRenderChart_NoData(t *testing.T) {
	spec := &ChartSpec{Type: "line", Data: ChartData{Labels: Labels{"a"}, Datasets: []ChartDataset{{Label: "x"}}}}
	assert.Contains(t, RenderChart(spec, 0), "(no data)")
}

func TestRenderTablePlain(t *testing.T) {
	spec := &TableSpec{
		Headers: []string{"Page", "Views"},
		Rows:    [][]any{{"/home", 120.0}, {"/a"}},
	}
	want := "Page   Views\n" +
		"-----  -----\n" +
		"/home  120\n" +
		"/a     "
	assert.Equal(t, want, RenderTablePlain(spec))
}

func TestRenderTable(t *testing.T) {
	spec := &TableSpec{Headers: []string{"Page", "Views"}, Rows: [][]any{{"/home", 120.0}}}
	out := RenderTable(spec)
	assert.Contains(t, out, "Page")
	assert.Contains(t, out, "/home")
	assert.Contains(t, out, "120")
}

func TestTranscriptRenderer_Plain(t *testing.T) {
	var buf bytes.Buffer
	r := NewTranscriptRenderer(&buf, RenderOptions{Plain: true})
	ts := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

	r.RenderTranscript([]Message{
		{ID: "s", Sender: SenderSystem, Text: "hidden", Timestamp: ts},
		{ID: "u", Sender: SenderUser, Text: "top pages?", Timestamp: ts},
		{ID: "b", Sender: SenderBot, Text: "See table below.", Timestamp: ts,
			TableSpec: &TableSpec{Headers: []string{"Page"}, Rows: [][]any{{"/home"}}}},
	})

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "You ")
	assert.Contains(t, out, "top pages?")
	assert.Contains(t, out, "Analyst ")
	assert.Contains(t, out, "See table below.")
	assert.Contains(t, out, "Page\n----\n/home")
}

func TestTranscriptRenderer_OnEvent(t *testing.T) {
	var buf bytes.Buffer
	r := NewTranscriptRenderer(&buf, RenderOptions{Plain: true, ShowSystem: true})

	r.OnEvent(Event{Kind: EventMessageAdded, Message: &Message{Sender: SenderSystem, Text: "Loaded."}})
	r.OnEvent(Event{Kind: EventSuggestions, Suggestions: []string{"First?", "Second?"}})
	r.OnEvent(Event{Kind: EventBanner, Banner: "Failed to get response: boom"})
	r.OnEvent(Event{Kind: EventBusy, Busy: true})

	out := buf.String()
	assert.Contains(t, out, "System\nLoaded.")
	assert.Contains(t, out, "  /1  First?\n  /2  Second?")
	assert.Contains(t, out, "! Failed to get response: boom")
}

func TestChartTitle(t *testing.T) {
	assert.Equal(t, "Chart", ChartTitle(&ChartSpec{Type: "bar"}))
	assert.Equal(t, "Views", ChartTitle(&ChartSpec{Type: "bar", Options: map[string]any{
		"plugins": map[string]any{"title": map[string]any{"text": "Views"}},
	}}))
}
