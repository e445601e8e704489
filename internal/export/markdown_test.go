package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/iksnae/ga4-analyst/internal"
)

func TestMarkdownExporter_Export(t *testing.T) {
	tests := []struct {
		name    string
		snap    *internal.SessionSnapshot
		want    []string
		notWant []string
	}{
		{
			name: "sheet session",
			snap: internal.CreateTestSnapshot(),
			want: []string{
				"# GA4 AI Analyst session",
				"**Source:** Google Sheet",
				"**Dataset:** Sheet: 1AbCdEfGhIjKlMn...",
				"**Rows:** 2",
				"**Messages:** 3",
				"## Messages",
				"**User:** (2025-05-01T09:30:01Z)",
				"Which page gets the most views?",
				"**Analyst:**",
				"```text\nChart (bar)\n",
				"| Page | Views |\n| --- | --- |\n| /home | 120 |\n| /pricing | 60 |\n",
			},
		},
		{
			name: "json session",
			snap: internal.CreateTestSnapshotWithMessages([]internal.Message{
				internal.CreateTestMessage(1, internal.SenderUser, "Hello"),
			}),
			want: []string{
				"**Source:** GA4 JSON",
				"**Dataset:** report.json",
				"**Messages:** 1",
				"**User:**",
			},
			notWant: []string{"```text"},
		},
		{
			name: "analytics user",
			snap: &internal.SessionSnapshot{
				ConnectionMode: internal.ModeGA4,
				IsGA4Connected: true,
				GA4User:        "simulated.user@example.com",
			},
			want: []string{
				"**Source:** Google Analytics (Simulated)",
				"**User:** simulated.user@example.com",
				"**Messages:** 0",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			exporter := &MarkdownExporter{}

			if err := exporter.Export(tt.snap, &buf); err != nil {
				t.Fatalf("MarkdownExporter.Export() error = %v", err)
			}

			output := buf.String()
			for _, want := range tt.want {
				if !strings.Contains(output, want) {
					t.Errorf("MarkdownExporter.Export() output missing %q\nGot:\n%s", want, output)
				}
			}
			for _, nw := range tt.notWant {
				if strings.Contains(output, nw) {
					t.Errorf("MarkdownExporter.Export() output should not contain %q", nw)
				}
			}
		})
	}
}

func TestMarkdownTable(t *testing.T) {
	tests := []struct {
		name  string
		table *internal.TableSpec
		want  string
	}{
		{
			name:  "short row padded",
			table: &internal.TableSpec{Headers: []string{"a", "b"}, Rows: [][]any{{"x"}}},
			want:  "| a | b |\n| --- | --- |\n| x |  |\n",
		},
		{
			name:  "pipes escaped",
			table: &internal.TableSpec{Headers: []string{"q"}, Rows: [][]any{{"a|b"}}},
			want:  "| q |\n| --- |\n| a\\|b |\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := markdownTable(tt.table); got != tt.want {
				t.Errorf("markdownTable() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMarkdownExporter_Extension(t *testing.T) {
	exporter := &MarkdownExporter{}
	if got := exporter.Extension(); got != "md" {
		t.Errorf("MarkdownExporter.Extension() = %v, want 'md'", got)
	}
}
