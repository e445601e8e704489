package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/iksnae/ga4-analyst/internal"
)

// JSONLExporter exports one message per line
type JSONLExporter struct{}

type jsonlRecord struct {
	ID        string              `json:"id"`
	Sender    internal.Sender     `json:"sender"`
	Text      string              `json:"text"`
	Timestamp string              `json:"timestamp,omitempty"`
	Mode      string              `json:"mode,omitempty"`
	Chart     *internal.ChartSpec `json:"chart,omitempty"`
	Table     *internal.TableSpec `json:"table,omitempty"`
}

// Export exports a snapshot to JSONL format
func (e *JSONLExporter) Export(snap *internal.SessionSnapshot, w io.Writer) error {
	enc := json.NewEncoder(w)

	for _, msg := range exportable(snap).Messages {
		rec := jsonlRecord{
			ID:     msg.ID,
			Sender: msg.Sender,
			Text:   msg.Text,
			Mode:   string(snap.ConnectionMode),
			Chart:  msg.ChartSpec,
			Table:  msg.TableSpec,
		}
		if !msg.Timestamp.IsZero() {
			rec.Timestamp = msg.Timestamp.UTC().Format(time.RFC3339)
		}

		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("failed to encode message %s: %w", msg.ID, err)
		}
	}

	return nil
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}
