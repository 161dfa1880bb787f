package format

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mithrel/muse/pkg/api"
)

func sampleDocs() []api.DocumentSummary {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return []api.DocumentSummary{
		{ID: "d1", Title: "First\tdoc", Permission: api.PermissionOwner, Version: 3, UpdatedAt: ts},
		{ID: "d2", Title: "Second", Permission: api.PermissionViewer, Version: 1, UpdatedAt: ts},
	}
}

func TestWritePlainDocuments(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePlainDocuments(&buf, sampleDocs(), true))
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "id"))
	assert.Contains(t, lines[1], `First\tdoc`)
	assert.Contains(t, lines[2], "viewer")
}

func TestPlainWriterHeaderOnce(t *testing.T) {
	var buf bytes.Buffer
	pw := NewPlainWriter(&buf, true)
	docs := sampleDocs()
	require.NoError(t, pw.WriteDocuments(docs[:1]))
	require.NoError(t, pw.WriteDocuments(docs[1:]))
	require.NoError(t, pw.Close())
	assert.Equal(t, 1, strings.Count(buf.String(), "permission"))
}

func TestWriteJSONAndNDJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleDocs(), false))
	var got []api.DocumentSummary
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Len(t, got, 2)

	buf.Reset()
	require.NoError(t, WriteNDJSONDocuments(&buf, sampleDocs()))
	assert.Equal(t, 2, strings.Count(buf.String(), "\n"))
}

func TestWritePlainDocument(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePlainDocument(&buf, api.Document{Content: "# T"}))
	assert.Equal(t, "# T\n", buf.String())
}

func TestWritePretty(t *testing.T) {
	var buf bytes.Buffer
	st := Style{Name: "notty", Width: 100}
	require.NoError(t, WritePrettyDocument(&buf, api.Document{ID: "d1", Version: 2, Content: "# Hello\n\n**world**"}, st))
	assert.Contains(t, buf.String(), "Hello")
	assert.Contains(t, buf.String(), "d1")

	buf.Reset()
	require.NoError(t, WritePrettyDocuments(&buf, sampleDocs(), st))
	assert.Contains(t, buf.String(), "Second")

	buf.Reset()
	require.NoError(t, WritePrettyDocuments(&buf, nil, st))
	assert.Equal(t, "No documents yet.\n", buf.String())
}

func TestWritePlainEventsAndCollaborators(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePlainEvents(&buf, []api.Event{{Type: api.EventSave, Version: 2, UserID: "u1"}}, true))
	assert.Contains(t, buf.String(), "save")

	buf.Reset()
	require.NoError(t, WritePlainCollaborators(&buf, []api.Collaborator{{ID: "c1", Email: "a@b.co", Permission: api.PermissionEditor}}, false))
	assert.Contains(t, buf.String(), "a@b.co")
}
