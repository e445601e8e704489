package export

import (
	"encoding/json"
	"io"

	"github.com/iksnae/ga4-analyst/internal"
)

// JSONExporter exports the snapshot as one pretty-printed document using
// the same field names as the session store
type JSONExporter struct{}

// Export exports a snapshot to JSON format
func (e *JSONExporter) Export(snap *internal.SessionSnapshot, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(exportable(snap))
}

// Extension returns the file extension for this format
func (e *JSONExporter) Extension() string {
	return "json"
}
