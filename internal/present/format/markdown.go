package format

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mithrel/muse/internal/render"
	"github.com/mithrel/muse/pkg/api"
)

// Style selects the glamour theme and wrap width of pretty output.
type Style struct {
	Name  string
	Width int
}

// PrettyDocument is the markdown shown for a document in pretty mode.
func PrettyDocument(d api.Document) string {
	return fmt.Sprintf(`> **ID:** %s | **Version:** %d | **Updated:** %s

---

%s
`, d.ID, d.Version, d.UpdatedAt.Local().Format(time.RFC3339), strings.TrimSpace(d.Content))
}

// WritePrettyDocument renders a single document with glamour.
func WritePrettyDocument(w io.Writer, d api.Document, st Style) error {
	out, err := render.Terminal(PrettyDocument(d), st.Name, st.Width)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

func cell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.Join(strings.Fields(s), " ")
}

// WritePrettyDocuments renders the list as a glamour table.
func WritePrettyDocuments(w io.Writer, docs []api.DocumentSummary, st Style) error {
	if len(docs) == 0 {
		_, err := io.WriteString(w, "No documents yet.\n")
		return err
	}
	var b strings.Builder
	b.WriteString("| Title | Access | Version | Updated | ID |\n|---|---|---|---|---|\n")
	for _, d := range docs {
		fmt.Fprintf(&b, "| %s | %s | %d | %s | `%s` |\n", cell(d.Title), d.Permission, d.Version, d.UpdatedAt.Local().Format("2006-01-02 15:04"), d.ID)
	}
	out, err := render.Terminal(b.String(), st.Name, st.Width)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}
