package format

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/mithrel/muse/pkg/api"
)

// TSV columns: id, title, permission, version, updated
var documentHeader = "id\ttitle\tpermission\tversion\tupdated\n"

func esc(field string) string {
	field = strings.ReplaceAll(field, "\t", "\\t")
	field = strings.ReplaceAll(field, "\n", "\\n")
	return field
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(time.RFC3339)
}

// PlainWriter writes document rows as aligned columns. It can be fed page by
// page; Close flushes.
type PlainWriter struct {
	tw          *tabwriter.Writer
	headers     bool
	wroteHeader bool
}

func NewPlainWriter(w io.Writer, headers bool) *PlainWriter {
	return &PlainWriter{tw: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0), headers: headers}
}

// WriteDocuments writes a batch of rows and flushes.
func (pw *PlainWriter) WriteDocuments(docs []api.DocumentSummary) error {
	if pw.headers && !pw.wroteHeader {
		_, _ = io.WriteString(pw.tw, documentHeader)
		pw.wroteHeader = true
	}
	for _, d := range docs {
		fmt.Fprintf(pw.tw, "%s\t%s\t%s\t%d\t%s\n", esc(d.ID), esc(d.Title), d.Permission, d.Version, stamp(d.UpdatedAt))
	}
	return pw.tw.Flush()
}

func (pw *PlainWriter) Close() error { return pw.tw.Flush() }

func WritePlainDocuments(w io.Writer, docs []api.DocumentSummary, headers bool) error {
	pw := NewPlainWriter(w, headers)
	if err := pw.WriteDocuments(docs); err != nil {
		return err
	}
	return pw.Close()
}

// WritePlainDocument writes the raw markdown of a document.
func WritePlainDocument(w io.Writer, d api.Document) error {
	content := d.Content
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	_, err := io.WriteString(w, content)
	return err
}

func WritePlainCollaborators(w io.Writer, cs []api.Collaborator, headers bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if headers {
		_, _ = io.WriteString(tw, "id\temail\tpermission\tadded\n")
	}
	for _, c := range cs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", esc(c.ID), esc(c.Email), c.Permission, stamp(c.CreatedAt))
	}
	return tw.Flush()
}

func WritePlainEvents(w io.Writer, evs []api.Event, headers bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if headers {
		_, _ = io.WriteString(tw, "time\ttype\tversion\tuser\tdetail\n")
	}
	for _, ev := range evs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", stamp(ev.Time), ev.Type, ev.Version, esc(ev.UserID), esc(ev.Detail))
	}
	return tw.Flush()
}
