package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iksnae/ga4-analyst/internal"
	"github.com/iksnae/ga4-analyst/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const reportJSON = `[{"page":"/home","views":120}]`

func writeReport(t *testing.T) string {
	t.Helper()
	return testutil.WriteTempFile(t, "report.json", reportJSON)
}

func TestLoadAskShowExport(t *testing.T) {
	model := newStubModel()
	model.reply = testutil.TableReply
	dir := setupCLI(t, model)

	out, err := execute(t, dir, "load", "json", writeReport(t))
	require.NoError(t, err)
	assert.Contains(t, out, "Welcome! Please choose a data source method to begin.")
	assert.Contains(t, out, "GA4 JSON data loaded successfully.")
	assert.Contains(t, out, "Suggested questions:")
	assert.Contains(t, out, "  /1  Which page leads?")

	out, err = execute(t, dir, "ask", "Top", "pages?")
	require.NoError(t, err)
	assert.Equal(t, []string{"Top pages?"}, model.asked())
	assert.Contains(t, out, "Top pages?")
	assert.Contains(t, out, "Top pages:")
	assert.Contains(t, out, "/pricing  45")
	assert.NotContains(t, out, internal.ProcessingText)
	assert.NotContains(t, out, "GEMINI_TABLE_DATA_START")

	t.Run("show hides system notices", func(t *testing.T) {
		out, err := execute(t, dir, "show")
		require.NoError(t, err)
		assert.Contains(t, out, "Session default")
		assert.Contains(t, out, "Source: GA4 JSON | State: data loaded | Data: report.json (1 rows)")
		assert.Contains(t, out, "Top pages?")
		assert.NotContains(t, out, "loaded successfully")
	})

	t.Run("show with system notices and limit", func(t *testing.T) {
		out, err := execute(t, dir, "show", "--system")
		require.NoError(t, err)
		assert.Contains(t, out, "GA4 JSON data loaded successfully.")

		out, err = execute(t, dir, "show", "-n", "1")
		require.NoError(t, err)
		assert.Contains(t, out, "Top pages:")
		assert.NotContains(t, out, "Top pages?")
	})

	t.Run("show rejects bad since", func(t *testing.T) {
		_, err := execute(t, dir, "show", "--since", "yesterday")
		assert.Error(t, err)
	})

	t.Run("export jsonl to stdout", func(t *testing.T) {
		out, err := execute(t, dir, "export")
		require.NoError(t, err)

		records := testutil.DecodeJSONLines(t, []byte(out))
		require.NotEmpty(t, records)
		var withTable int
		for _, rec := range records {
			if rec["sender"] == "bot" {
				assert.Contains(t, rec, "table")
				withTable++
			}
		}
		assert.Equal(t, 1, withTable)
	})

	t.Run("export markdown to file", func(t *testing.T) {
		base := filepath.Join(t.TempDir(), "transcript")
		_, err := execute(t, dir, "export", "--format", "md", "--output", base)
		require.NoError(t, err)

		data, err := os.ReadFile(base + ".md")
		require.NoError(t, err)
		assert.Contains(t, string(data), "# GA4 AI Analyst session")
		assert.Contains(t, string(data), "| /pricing | 45 |")
	})

	t.Run("export rejects unknown format", func(t *testing.T) {
		_, err := execute(t, dir, "export", "-f", "xml")
		assert.Error(t, err)
	})
}

func TestLoadJSONFromStdin(t *testing.T) {
	dir := setupCLI(t, newStubModel())

	_, err := executeWithInput(t, dir, reportJSON, "load", "json", "-", "--no-suggest")
	require.NoError(t, err)

	out, err := execute(t, dir, "mode")
	require.NoError(t, err)
	assert.Contains(t, out, "Mode:  GA4 JSON")
	assert.Contains(t, out, "State: data loaded")
	assert.Contains(t, out, "Data:  stdin (1 rows)")
}

func TestLoadJSONInvalid(t *testing.T) {
	dir := setupCLI(t, newStubModel())
	path := testutil.WriteTempFile(t, "bad.json", "{bad")

	out, err := execute(t, dir, "load", "json", path)
	require.Error(t, err)
	var loadErr *internal.DataLoadError
	assert.ErrorAs(t, err, &loadErr)
	assert.Contains(t, out, "Invalid JSON format. Please check your data.")

	out, err = execute(t, dir, "mode")
	require.NoError(t, err)
	assert.Contains(t, out, "State: awaiting data")
}

func TestLoadJSONMissingFile(t *testing.T) {
	dir := setupCLI(t, newStubModel())

	_, err := execute(t, dir, "load", "json", filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestLoadFromGoogleExports(t *testing.T) {
	srv := testutil.ExportServer(t, map[string]string{
		"/spreadsheets/d/1AbCdEfGhIjKlMnOpQr/export": testutil.SampleCSV,
		"/document/d/1DocIdAbCdEfGhIj/export":        testutil.SampleDoc,
	})

	t.Run("sheet", func(t *testing.T) {
		dir := setupCLI(t, newStubModel())
		newFetcher = func() *internal.Fetcher {
			return internal.NewFetcher(srv.Client(), 0).WithOrigin(srv.URL)
		}

		out, err := execute(t, dir, "load", "sheet", internal.SheetURLPrefix+"1AbCdEfGhIjKlMnOpQr/edit#gid=0", "--no-suggest")
		require.NoError(t, err)
		assert.Contains(t, out, "loaded successfully (3 rows).")

		out, err = execute(t, dir, "mode")
		require.NoError(t, err)
		assert.Contains(t, out, "Mode:  Google Sheet")
		assert.Contains(t, out, "(3 rows)")
	})

	t.Run("doc", func(t *testing.T) {
		dir := setupCLI(t, newStubModel())
		newFetcher = func() *internal.Fetcher {
			return internal.NewFetcher(srv.Client(), 0).WithOrigin(srv.URL)
		}

		out, err := execute(t, dir, "load", "doc", internal.DocURLPrefix+"1DocIdAbCdEfGhIj/edit", "--no-suggest")
		require.NoError(t, err)
		assert.Contains(t, out, "loaded successfully (56 characters).")
	})

	t.Run("sheet not found", func(t *testing.T) {
		dir := setupCLI(t, newStubModel())
		newFetcher = func() *internal.Fetcher {
			return internal.NewFetcher(srv.Client(), 0).WithOrigin(srv.URL)
		}

		_, err := execute(t, dir, "load", "sheet", internal.SheetURLPrefix+"unknownSheet/edit")
		var loadErr *internal.DataLoadError
		assert.ErrorAs(t, err, &loadErr)
	})
}

func TestModeCommand(t *testing.T) {
	dir := setupCLI(t, newStubModel())

	out, err := execute(t, dir, "mode")
	require.NoError(t, err)
	assert.Contains(t, out, "Mode:  none")
	assert.Contains(t, out, "State: no mode selected")

	out, err = execute(t, dir, "mode", "sheet")
	require.NoError(t, err)
	assert.Contains(t, out, "Load a public Google Sheet with 'load sheet <url>'.")
	assert.Contains(t, out, "Mode:  Google Sheet")
	assert.Contains(t, out, "State: awaiting data")

	_, err = execute(t, dir, "mode", "bogus")
	assert.Error(t, err)
}

func TestConnectLifecycle(t *testing.T) {
	dir := setupCLI(t, newStubModel())

	out, err := execute(t, dir, "connect")
	require.NoError(t, err)
	assert.Contains(t, out, "Successfully 'connected' to Google Analytics (Simulated).")

	out, err = execute(t, dir, "mode")
	require.NoError(t, err)
	assert.Contains(t, out, "Mode:  Google Analytics (Simulated)")
	assert.Contains(t, out, "State: data loaded")

	out, err = execute(t, dir, "disconnect")
	require.NoError(t, err)
	assert.Contains(t, out, "Disconnected from Google Analytics (Simulated).")
}

func TestClearAndReset(t *testing.T) {
	dir := setupCLI(t, newStubModel())
	_, err := execute(t, dir, "load", "json", writeReport(t), "--no-suggest")
	require.NoError(t, err)

	out, err := execute(t, dir, "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "GA4 JSON data cleared.")

	out, err = execute(t, dir, "mode")
	require.NoError(t, err)
	assert.Contains(t, out, "State: awaiting data")

	out, err = execute(t, dir, "reset")
	require.NoError(t, err)
	assert.Contains(t, out, "Data connection reset. Please choose a new method.")

	out, err = execute(t, dir, "mode")
	require.NoError(t, err)
	assert.Contains(t, out, "State: no mode selected")
}

func TestAskGuards(t *testing.T) {
	t.Run("no data loaded", func(t *testing.T) {
		dir := setupCLI(t, newStubModel())

		out, err := execute(t, dir, "ask", "hello")
		assert.ErrorIs(t, err, internal.ErrChatDisabled)
		assert.Contains(t, out, "Select a data connection mode first.")
	})

	t.Run("api key missing", func(t *testing.T) {
		model := newStubModel()
		model.configured = false
		dir := setupCLI(t, model)

		out, err := execute(t, dir, "ask", "hello")
		assert.ErrorIs(t, err, internal.ErrNotConfigured)
		assert.Contains(t, out, "Cannot send: Gemini API Key is not configured.")
		assert.Empty(t, model.asked())
	})

	t.Run("model failure", func(t *testing.T) {
		model := newStubModel()
		model.err = assert.AnError
		dir := setupCLI(t, model)
		_, err := execute(t, dir, "load", "json", writeReport(t), "--no-suggest")
		require.NoError(t, err)

		out, err := execute(t, dir, "ask", "hello")
		assert.ErrorIs(t, err, assert.AnError)
		assert.Contains(t, out, "Try again or check console.")
		assert.Contains(t, out, "! Failed to get response:")
	})
}

func TestSuggestCommand(t *testing.T) {
	dir := setupCLI(t, newStubModel())

	_, err := execute(t, dir, "suggest")
	assert.ErrorIs(t, err, internal.ErrChatDisabled)

	_, err = execute(t, dir, "load", "json", writeReport(t), "--no-suggest")
	require.NoError(t, err)

	out, err := execute(t, dir, "suggest")
	require.NoError(t, err)
	assert.Contains(t, out, "  /1  Which page leads?")
	assert.Contains(t, out, "  /2  How many views in total?")
}

func TestSessionCommands(t *testing.T) {
	dir := setupCLI(t, newStubModel())

	out, err := execute(t, dir, "session", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No stored sessions")

	_, err = execute(t, dir, "load", "json", writeReport(t), "--no-suggest")
	require.NoError(t, err)
	_, err = execute(t, dir, "connect", "--session", "work")
	require.NoError(t, err)

	for _, args := range [][]string{{"session", "list"}, {"session", "ls"}, {"list"}} {
		out, err := execute(t, dir, args...)
		require.NoError(t, err)
		assert.Contains(t, out, "PROFILE")
		assert.Contains(t, out, "default")
		assert.Contains(t, out, "GA4 JSON")
		assert.Contains(t, out, "work")
		assert.Contains(t, out, "Google Analytics (Simulated)")
	}

	out, err = execute(t, dir, "session", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Session cleared.")

	out, err = execute(t, dir, "mode")
	require.NoError(t, err)
	assert.Contains(t, out, "State: no mode selected")

	out, err = execute(t, dir, "mode", "--session", "work")
	require.NoError(t, err)
	assert.Contains(t, out, "State: data loaded")
}

func TestFilterMessages(t *testing.T) {
	messages := []internal.Message{
		internal.CreateTestMessage(1, internal.SenderSystem, "Welcome"),
		internal.CreateTestMessage(2, internal.SenderUser, "Question"),
		internal.CreateTestMessage(3, internal.SenderBot, "Answer"),
		internal.CreateTestMessage(4, internal.SenderUser, "Follow-up"),
	}

	tests := []struct {
		name       string
		since      string
		limit      int
		withSystem bool
		want       []string
		wantErr    bool
	}{
		{name: "default hides system", want: []string{"Question", "Answer", "Follow-up"}},
		{name: "with system", withSystem: true, want: []string{"Welcome", "Question", "Answer", "Follow-up"}},
		{name: "limit keeps latest", limit: 2, want: []string{"Answer", "Follow-up"}},
		{name: "limit above length", limit: 10, want: []string{"Question", "Answer", "Follow-up"}},
		{name: "since", since: "2025-05-01T09:30:03Z", want: []string{"Answer", "Follow-up"}},
		{name: "invalid since", since: "not-a-time", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := filterMessages(messages, tt.since, tt.limit, tt.withSystem)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			texts := make([]string, 0, len(got))
			for _, m := range got {
				texts = append(texts, m.Text)
			}
			assert.Equal(t, tt.want, texts)
		})
	}
}

func TestDescribeSummary(t *testing.T) {
	assert.Equal(t, "report.json (3 rows)", describeSummary(&internal.DataSummary{FileName: "report.json", RowCount: 3}))
	assert.Equal(t, "Doc: abc (56 characters)", describeSummary(&internal.DataSummary{FileName: "Doc: abc", CharCount: 56}))
}

func TestReadJSONInput(t *testing.T) {
	raw, name, err := readJSONInput(strings.NewReader(reportJSON), "-")
	require.NoError(t, err)
	assert.Equal(t, "stdin", name)
	assert.Equal(t, reportJSON, string(raw))

	raw, name, err = readJSONInput(nil, writeReport(t))
	require.NoError(t, err)
	assert.Equal(t, "report.json", name)
	assert.Equal(t, reportJSON, string(raw))
}
