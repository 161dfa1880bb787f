package format

import (
	"encoding/json"
	"io"

	"github.com/mithrel/muse/pkg/api"
)

// WriteNDJSONDocuments writes one JSON object per line.
func WriteNDJSONDocuments(w io.Writer, docs []api.DocumentSummary) error {
	enc := json.NewEncoder(w)
	for _, d := range docs {
		if err := enc.Encode(d); err != nil {
			return err
		}
	}
	return nil
}

// WriteNDJSONEvents writes one history event per line.
func WriteNDJSONEvents(w io.Writer, evs []api.Event) error {
	enc := json.NewEncoder(w)
	for _, ev := range evs {
		if err := enc.Encode(ev); err != nil {
			return err
		}
	}
	return nil
}
