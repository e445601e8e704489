package cmd

import (
	"errors"
	"fmt"
	"testing"

	"github.com/iksnae/ga4-analyst/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useScript(t *testing.T, lines ...string) *scriptedPrompt {
	t.Helper()
	prompt := &scriptedPrompt{lines: lines}
	newPrompt = func(string) promptCloser { return prompt }
	return prompt
}

func TestChatSession(t *testing.T) {
	model := newStubModel()
	dir := setupCLI(t, model)
	prompt := useScript(t,
		"/help",
		"/load json "+writeReport(t),
		"/suggest",
		"/1",
		"",
		"/7",
		"/bogus",
		"/mode",
		"/history",
		"/quit",
		"never read",
	)

	out, err := execute(t, dir, "chat")
	require.NoError(t, err)

	assert.True(t, prompt.closed)
	assert.Equal(t, []string{"never read"}, prompt.lines)
	assert.Equal(t, []string{"Which page leads?"}, model.asked())

	assert.Contains(t, out, "Type /help for commands")
	assert.Contains(t, out, "/mode <json|sheet|doc|ga4>")
	assert.Contains(t, out, "GA4 JSON data loaded successfully.")
	assert.Contains(t, out, "  /1  Which page leads?")
	assert.Contains(t, out, "Home leads with 120 views.")
	assert.Contains(t, out, "Error: no suggested question 7")
	assert.Contains(t, out, "Error: unknown command /bogus (type /help)")
	assert.Contains(t, out, "Error: usage: /mode <json|sheet|doc|ga4>")
}

func TestChatEndsOnEOF(t *testing.T) {
	dir := setupCLI(t, newStubModel())
	useScript(t, "/connect", "/disconnect")

	out, err := execute(t, dir, "chat")
	require.NoError(t, err)
	assert.Contains(t, out, "Successfully 'connected' to Google Analytics (Simulated).")
	assert.Contains(t, out, "Disconnected from Google Analytics (Simulated).")
}

func TestChatRejectsStdinJSON(t *testing.T) {
	model := newStubModel()
	dir := setupCLI(t, model)
	prompt := useScript(t, "/load json -", "/mode")

	out, err := execute(t, dir, "chat")
	require.NoError(t, err)
	assert.Contains(t, out, "Error: /load json needs a file path; stdin is not available inside chat")
	assert.NotContains(t, out, "GA4 JSON data loaded successfully.")
	assert.Empty(t, prompt.lines, "session keeps reading after the rejected load")
	assert.Contains(t, out, "Error: usage: /mode <json|sheet|doc|ga4>")
}

func TestChatRestoresSession(t *testing.T) {
	dir := setupCLI(t, newStubModel())
	_, err := execute(t, dir, "load", "json", writeReport(t), "--no-suggest")
	require.NoError(t, err)

	useScript(t)
	out, err := execute(t, dir, "chat")
	require.NoError(t, err)
	assert.Contains(t, out, "Session restored. Continue where you left off or change data source.")
	assert.Contains(t, out, "Suggested questions:")
}

func TestChatControllerErrorsNotRepeated(t *testing.T) {
	dir := setupCLI(t, newStubModel())
	useScript(t, "hello")

	out, err := execute(t, dir, "chat")
	require.NoError(t, err)
	assert.Contains(t, out, "Select a data connection mode first.")
	assert.NotContains(t, out, "Error: "+internal.ErrChatDisabled.Error())
}

func TestReportedByController(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "not configured", err: internal.ErrNotConfigured, want: true},
		{name: "chat disabled wrapped", err: fmt.Errorf("question is empty: %w", internal.ErrChatDisabled), want: true},
		{name: "load error", err: &internal.DataLoadError{Mode: internal.ModeJSON, Err: errors.New("bad")}, want: true},
		{name: "model error", err: &internal.ModelError{Err: errors.New("quota")}, want: true},
		{name: "busy", err: internal.ErrBusy, want: false},
		{name: "plain error", err: errors.New("unknown command"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, reportedByController(tt.err))
		})
	}
}
