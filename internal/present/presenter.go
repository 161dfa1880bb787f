// Package present picks an output format for CLI results.
package present

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/mithrel/muse/internal/present/format"
	"github.com/mithrel/muse/internal/present/tui"
	"github.com/mithrel/muse/pkg/api"
)

type Mode int

const (
	ModePlain Mode = iota
	ModePretty
	ModeJSON
	ModeNDJSON
	ModeTUI
)

func (m Mode) String() string {
	switch m {
	case ModePretty:
		return "pretty"
	case ModeJSON:
		return "json"
	case ModeNDJSON:
		return "ndjson"
	case ModeTUI:
		return "tui"
	}
	return "plain"
}

type Options struct {
	Mode       Mode
	JSONIndent bool
	Headers    bool
	Style      format.Style
	// Browse callbacks for ModeTUI lists.
	Actions tui.Actions
}

// ParseMode parses "plain", "pretty", "json", "ndjson" or "tui".
func ParseMode(s string) (Mode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "plain", "":
		return ModePlain, true
	case "pretty":
		return ModePretty, true
	case "json":
		return ModeJSON, true
	case "ndjson":
		return ModeNDJSON, true
	case "tui":
		return ModeTUI, true
	default:
		return ModePlain, false
	}
}

// RenderDocuments renders a list of documents according to options.
func RenderDocuments(ctx context.Context, w io.Writer, docs []api.DocumentSummary, opts Options) error {
	switch opts.Mode {
	case ModeJSON:
		if docs == nil {
			docs = []api.DocumentSummary{}
		}
		return format.WriteJSON(w, docs, opts.JSONIndent)
	case ModeNDJSON:
		return format.WriteNDJSONDocuments(w, docs)
	case ModePretty:
		return format.WritePrettyDocuments(w, docs, opts.Style)
	case ModeTUI:
		return tui.Browse(ctx, docs, opts.Headers, opts.Actions)
	default:
		return format.WritePlainDocuments(w, docs, opts.Headers)
	}
}

// RenderDocument renders a single document according to options.
func RenderDocument(ctx context.Context, w io.Writer, d api.Document, opts Options) error {
	switch opts.Mode {
	case ModeJSON, ModeNDJSON:
		return format.WriteJSON(w, d, opts.JSONIndent && opts.Mode == ModeJSON)
	case ModePretty:
		return format.WritePrettyDocument(w, d, opts.Style)
	case ModeTUI:
		var b strings.Builder
		if err := format.WritePrettyDocument(&b, d, opts.Style); err != nil {
			return err
		}
		return tui.RunPager(d.Title, b.String())
	default:
		return format.WritePlainDocument(w, d)
	}
}

// RenderEvents renders document history.
func RenderEvents(w io.Writer, evs []api.Event, opts Options) error {
	switch opts.Mode {
	case ModeJSON:
		if evs == nil {
			evs = []api.Event{}
		}
		return format.WriteJSON(w, evs, opts.JSONIndent)
	case ModeNDJSON:
		return format.WriteNDJSONEvents(w, evs)
	case ModePlain, ModePretty:
		return format.WritePlainEvents(w, evs, opts.Headers)
	}
	return fmt.Errorf("%s output is not available for history", opts.Mode)
}

// RenderCollaborators renders the grants on a document.
func RenderCollaborators(w io.Writer, cs []api.Collaborator, opts Options) error {
	switch opts.Mode {
	case ModeJSON, ModeNDJSON:
		if cs == nil {
			cs = []api.Collaborator{}
		}
		return format.WriteJSON(w, cs, opts.JSONIndent && opts.Mode == ModeJSON)
	case ModePlain, ModePretty:
		return format.WritePlainCollaborators(w, cs, opts.Headers)
	}
	return fmt.Errorf("%s output is not available for collaborators", opts.Mode)
}
