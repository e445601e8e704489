package export

import (
	"bufio"
	"bytes"
	"encoding/json"
	"testing"

	"github.com/iksnae/ga4-analyst/internal"
)

func TestJSONLExporter_Export(t *testing.T) {
	tests := []struct {
		name      string
		snap      *internal.SessionSnapshot
		wantLines int
	}{
		{
			name:      "sheet session",
			snap:      internal.CreateTestSnapshot(),
			wantLines: 3,
		},
		{
			name:      "empty session",
			snap:      internal.CreateTestSnapshotWithMessages(nil),
			wantLines: 0,
		},
		{
			name: "messages in order",
			snap: internal.CreateTestSnapshotWithMessages([]internal.Message{
				internal.CreateTestMessage(1, internal.SenderUser, "Top pages?"),
				internal.CreateTestMessage(2, internal.SenderBot, "Home leads."),
			}),
			wantLines: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			exporter := &JSONLExporter{}

			if err := exporter.Export(tt.snap, &buf); err != nil {
				t.Fatalf("JSONLExporter.Export() error = %v", err)
			}

			scanner := bufio.NewScanner(&buf)
			lines := 0
			for scanner.Scan() {
				var rec jsonlRecord
				if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
					t.Fatalf("line %d is not valid JSON: %v", lines+1, err)
				}
				want := tt.snap.Messages[lines]
				if rec.ID != want.ID || rec.Sender != want.Sender || rec.Text != want.Text {
					t.Errorf("line %d = %+v, want message %s", lines+1, rec, want.ID)
				}
				if rec.Mode != string(tt.snap.ConnectionMode) {
					t.Errorf("line %d mode = %q, want %q", lines+1, rec.Mode, tt.snap.ConnectionMode)
				}
				lines++
			}
			if lines != tt.wantLines {
				t.Errorf("JSONLExporter.Export() wrote %d lines, want %d", lines, tt.wantLines)
			}
		})
	}
}

func TestJSONLExporter_ChartAndTable(t *testing.T) {
	var buf bytes.Buffer
	if err := (&JSONLExporter{}).Export(internal.CreateTestSnapshot(), &buf); err != nil {
		t.Fatal(err)
	}

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	var rec jsonlRecord
	if err := json.Unmarshal(lines[len(lines)-1], &rec); err != nil {
		t.Fatal(err)
	}
	if rec.Chart == nil || rec.Chart.Type != "bar" {
		t.Errorf("chart = %+v, want a bar chart", rec.Chart)
	}
	if rec.Table == nil || len(rec.Table.Rows) != 2 {
		t.Errorf("table = %+v, want two rows", rec.Table)
	}
	if rec.Timestamp != "2025-05-01T09:30:02Z" {
		t.Errorf("timestamp = %q", rec.Timestamp)
	}
}

func TestJSONLExporter_Extension(t *testing.T) {
	exporter := &JSONLExporter{}
	if got := exporter.Extension(); got != "jsonl" {
		t.Errorf("JSONLExporter.Extension() = %v, want 'jsonl'", got)
	}
}
