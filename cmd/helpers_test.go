package cmd

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/iksnae/ga4-analyst/internal"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// stubModel answers every question with a fixed reply
type stubModel struct {
	mu          sync.Mutex
	configured  bool
	reply       string
	err         error
	suggestions []string
	questions   []string
}

func (m *stubModel) Analyze(_ context.Context, req internal.AnalysisRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.questions = append(m.questions, req.Question)
	return m.reply, m.err
}

func (m *stubModel) SuggestQuestions(context.Context, internal.SuggestionRequest) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.suggestions...), nil
}

func (m *stubModel) IsConfigured() bool {
	return m.configured
}

func (m *stubModel) asked() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.questions...)
}

func newStubModel() *stubModel {
	return &stubModel{
		configured:  true,
		reply:       "Home leads with 120 views.",
		suggestions: []string{"Which page leads?", "How many views in total?"},
	}
}

// setupCLI points the commands at a fresh data directory and replaces the
// network collaborators. It returns the data directory.
func setupCLI(t *testing.T, model *stubModel) string {
	t.Helper()

	prevModel, prevFetcher, prevAnalytics, prevPrompt := newModelClient, newFetcher, newAnalytics, newPrompt
	newModelClient = func(string, string) internal.ModelClient { return model }
	newAnalytics = func() *internal.SimulatedAnalytics {
		return &internal.SimulatedAnalytics{User: internal.SimulatedUser}
	}
	t.Cleanup(func() {
		newModelClient, newFetcher, newAnalytics, newPrompt = prevModel, prevFetcher, prevAnalytics, prevPrompt
	})
	return t.TempDir()
}

// execute runs the root command with args against dataDir and returns
// everything written to stdout and stderr
func execute(t *testing.T, dataDir string, args ...string) (string, error) {
	t.Helper()
	return executeWithInput(t, dataDir, "", args...)
}

func executeWithInput(t *testing.T, dataDir, input string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(input))
	rootCmd.SetArgs(append(append([]string{}, args...), "--data-dir", dataDir))
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

// resetFlags restores every flag to its default so values do not leak
// between runs
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.PersistentFlags().VisitAll(reset)
	c.Flags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// scriptedPrompt feeds fixed lines to the chat loop
type scriptedPrompt struct {
	lines  []string
	closed bool
}

func (p *scriptedPrompt) Prompt(string) (string, error) {
	if len(p.lines) == 0 {
		return "", io.EOF
	}
	line := p.lines[0]
	p.lines = p.lines[1:]
	return line, nil
}

func (p *scriptedPrompt) Close() {
	p.closed = true
}
