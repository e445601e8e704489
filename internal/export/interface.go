package export

import (
	"fmt"
	"io"

	"github.com/iksnae/ga4-analyst/internal"
)

// Exporter writes a conversation snapshot in one format
type Exporter interface {
	Export(snap *internal.SessionSnapshot, w io.Writer) error
	Extension() string
}

// NewExporter creates a new exporter based on format
func NewExporter(format string) (Exporter, error) {
	switch format {
	case "jsonl":
		return &JSONLExporter{}, nil
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	case "yaml", "yml":
		return &YAMLExporter{}, nil
	case "json":
		return &JSONExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: jsonl, md, yaml, json)", format)
	}
}

// exportable drops placeholders and dataset payloads. Exports carry the
// transcript and summaries only.
func exportable(snap *internal.SessionSnapshot) *internal.SessionSnapshot {
	out := snap.WithoutPayloads()
	msgs := make([]internal.Message, 0, len(snap.Messages))
	for _, m := range snap.Messages {
		if m.IsPlaceholder() {
			continue
		}
		msgs = append(msgs, m)
	}
	out.Messages = msgs
	return out
}
