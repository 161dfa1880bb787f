package db

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mithrel/muse/pkg/api"
)

func seedDocuments(t *testing.T, ctx context.Context, store *Store, owner string, count int) {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < count; i++ {
		ts := now.Add(time.Duration(-i) * time.Minute)
		seedDoc(t, ctx, store, fmt.Sprintf("doc-%02d", i), owner, fmt.Sprintf("title-%02d", i), "body", ts)
	}
}

func TestListDocumentsPaging(t *testing.T) {
	backends(t, func(t *testing.T, store *Store, ctx context.Context) {
		seedUser(t, ctx, store, "u1", "owner@example.com")
		seedDocuments(t, ctx, store, "u1", 5)

		first, page, err := store.Documents.ListDocuments(ctx, api.ListQuery{UserID: "u1", Limit: 2})
		require.NoError(t, err)
		require.Len(t, first, 2)
		require.NotEmpty(t, page.Next)
		require.Equal(t, "doc-00", first[0].ID)
		require.Equal(t, "doc-01", first[1].ID)
		require.Equal(t, api.PermissionOwner, first[0].Permission)

		second, page2, err := store.Documents.ListDocuments(ctx, api.ListQuery{UserID: "u1", Limit: 2, Cursor: page.Next})
		require.NoError(t, err)
		require.Len(t, second, 2)
		require.NotEmpty(t, page2.Next)
		require.Equal(t, "doc-02", second[0].ID)
		require.Equal(t, "doc-03", second[1].ID)

		third, page3, err := store.Documents.ListDocuments(ctx, api.ListQuery{UserID: "u1", Limit: 2, Cursor: page2.Next})
		require.NoError(t, err)
		require.Len(t, third, 1)
		require.Empty(t, page3.Next)
		require.Equal(t, "doc-04", third[0].ID)
	})
}

func TestListDocumentsRejectsMalformedCursor(t *testing.T) {
	backends(t, func(t *testing.T, store *Store, ctx context.Context) {
		seedUser(t, ctx, store, "u1", "owner@example.com")
		seedDocuments(t, ctx, store, "u1", 3)

		for _, bad := range []string{"garbage", "2024-01-01T00:00:00Z|", "yesterday|doc-01"} {
			_, _, err := store.Documents.ListDocuments(ctx, api.ListQuery{UserID: "u1", Cursor: bad})
			require.ErrorIs(t, err, ErrInvalidCursor, bad)
		}

		docs, _, err := store.Documents.ListDocuments(ctx, api.ListQuery{UserID: "u1", Cursor: "  "})
		require.NoError(t, err)
		require.Len(t, docs, 3)
	})
}

func TestListDocumentsVisibility(t *testing.T) {
	backends(t, func(t *testing.T, store *Store, ctx context.Context) {
		seedUser(t, ctx, store, "u1", "owner@example.com")
		seedUser(t, ctx, store, "u2", "friend@example.com")
		now := time.Now().UTC().Truncate(time.Second)
		seedDoc(t, ctx, store, "mine", "u1", "Private plans", "secret", now)
		seedDoc(t, ctx, store, "shared", "u1", "Team notes", "weekly sync", now.Add(-time.Minute))
		_, err := store.Collaborators.AddCollaborator(ctx, api.Collaborator{ID: "c1", DocumentID: "shared", UserID: "u2", Permission: api.PermissionEditor, CreatedAt: now})
		require.NoError(t, err)

		docs, _, err := store.Documents.ListDocuments(ctx, api.ListQuery{UserID: "u2"})
		require.NoError(t, err)
		require.Len(t, docs, 1)
		require.Equal(t, "shared", docs[0].ID)
		require.Equal(t, api.PermissionEditor, docs[0].Permission)

		docs, _, err = store.Documents.ListDocuments(ctx, api.ListQuery{UserID: "u1", Query: "weekly"})
		require.NoError(t, err)
		require.Len(t, docs, 1)
		require.Equal(t, "shared", docs[0].ID)

		docs, _, err = store.Documents.ListDocuments(ctx, api.ListQuery{UserID: "u1", Query: "plans secret"})
		require.NoError(t, err)
		require.Len(t, docs, 1)
		require.Equal(t, "mine", docs[0].ID)

		docs, _, err = store.Documents.ListDocuments(ctx, api.ListQuery{UserID: "u1", Query: "nothing-like-this"})
		require.NoError(t, err)
		require.Empty(t, docs)
	})
}

func TestParseCursorToken(t *testing.T) {
	_, ok := parseCursorToken("garbage")
	require.False(t, ok)
	_, ok = parseCursorToken("2024-01-01T00:00:00Z|")
	require.False(t, ok)

	ts := time.Date(2024, 1, 2, 3, 4, 5, 6, time.UTC)
	tok := encodeCursorToken(api.DocumentSummary{ID: "abc", UpdatedAt: ts})
	c, ok := parseCursorToken(tok)
	require.True(t, ok)
	require.Equal(t, "abc", c.id)
	require.True(t, ts.Equal(c.ts))
}
