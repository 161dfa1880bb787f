package service

import (
	"context"
	"testing"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mithrel/muse/internal/db"
	"github.com/mithrel/muse/pkg/api"
	"github.com/mithrel/muse/pkg/markdown"
)

func newTestService(t *testing.T) (*Service, context.Context) {
	t.Helper()
	ctx := context.Background()
	store, err := db.Open(ctx, "mem://")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return New(store, nil), ctx
}

func signUp(t *testing.T, s *Service, ctx context.Context, email string) api.User {
	t.Helper()
	u, err := s.SignUp(ctx, email, "password123")
	require.NoError(t, err)
	return u
}

func TestSignUpAndSignIn(t *testing.T) {
	s, ctx := newTestService(t)

	u, err := s.SignUp(ctx, "  Ada@Example.com ", "password123")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", u.Email)

	got, err := s.SignIn(ctx, "ADA@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = s.SignIn(ctx, "ada@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = s.SignIn(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = s.SignUp(ctx, "ada@example.com", "password123")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestSignUpValidation(t *testing.T) {
	s, ctx := newTestService(t)

	_, err := s.SignUp(ctx, "not-an-email", "password123")
	require.ErrorIs(t, err, ErrInvalid)
	var verrs validation.Errors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs, "email")

	_, err = s.SignUp(ctx, "ada@example.com", "short")
	require.ErrorIs(t, err, ErrInvalid)
}

func TestDocumentLifecycle(t *testing.T) {
	s, ctx := newTestService(t)
	u := signUp(t, s, ctx, "owner@example.com")

	_, err := s.CreateDocument(ctx, u.ID, "   ")
	require.ErrorIs(t, err, ErrInvalid)

	d, err := s.CreateDocument(ctx, u.ID, "Plans")
	require.NoError(t, err)
	assert.Equal(t, "# Plans\n\nStart writing here...", d.Content)
	assert.Equal(t, int64(1), d.Version)

	saved, err := s.SaveDocument(ctx, u.ID, d.ID, SaveInput{Content: "# Plans\n\nship it", Version: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), saved.Version)
	assert.Equal(t, "Plans", saved.Title)

	t.Run("stale version conflicts", func(t *testing.T) {
		_, err := s.SaveDocument(ctx, u.ID, d.ID, SaveInput{Content: "older", Version: 1})
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("unchanged content is a no-op", func(t *testing.T) {
		again, err := s.SaveDocument(ctx, u.ID, d.ID, SaveInput{Content: saved.Content, Version: 2})
		require.NoError(t, err)
		assert.Equal(t, int64(2), again.Version)
	})

	t.Run("missing version is invalid", func(t *testing.T) {
		_, err := s.SaveDocument(ctx, u.ID, d.ID, SaveInput{Content: "x"})
		assert.ErrorIs(t, err, ErrInvalid)
	})

	docs, _, err := s.ListDocuments(ctx, u.ID, api.ListQuery{})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, api.PermissionOwner, docs[0].Permission)

	name, data, err := s.Export(ctx, u.ID, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "Plans.md", name)
	assert.Equal(t, "# Plans\n\nship it", string(data))

	page, err := s.Preview(ctx, u.ID, d.ID)
	require.NoError(t, err)
	assert.Contains(t, string(page), `<h1 id="plans">Plans</h1>`)

	evs, err := s.History(ctx, u.ID, d.ID, 0)
	require.NoError(t, err)
	require.Len(t, evs, 2)
	assert.Equal(t, api.EventSave, evs[0].Type)

	require.NoError(t, s.DeleteDocument(ctx, u.ID, d.ID))
	_, err = s.OpenDocument(ctx, u.ID, d.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFormatDocument(t *testing.T) {
	s, ctx := newTestService(t)
	u := signUp(t, s, ctx, "owner@example.com")
	d, err := s.ImportDocument(ctx, u.ID, "Greeting", "hello world")
	require.NoError(t, err)

	saved, res, err := s.FormatDocument(ctx, u.ID, d.ID, 0, 5, markdown.Bold)
	require.NoError(t, err)
	assert.Equal(t, "**hello** world", saved.Content)
	assert.Equal(t, int64(2), saved.Version)
	assert.Equal(t, 2, res.Caret)

	same, _, err := s.FormatDocument(ctx, u.ID, d.ID, 0, 5, markdown.Unknown)
	require.NoError(t, err)
	assert.Equal(t, int64(2), same.Version)
}

func TestSharingPermissions(t *testing.T) {
	s, ctx := newTestService(t)
	owner := signUp(t, s, ctx, "owner@example.com")
	viewer := signUp(t, s, ctx, "viewer@example.com")
	editor := signUp(t, s, ctx, "editor@example.com")
	stranger := signUp(t, s, ctx, "stranger@example.com")

	d, err := s.CreateDocument(ctx, owner.ID, "Shared")
	require.NoError(t, err)

	c, err := s.AddCollaborator(ctx, owner.ID, d.ID, "viewer@example.com", "")
	require.NoError(t, err)
	assert.Equal(t, api.PermissionViewer, c.Permission)
	_, err = s.AddCollaborator(ctx, owner.ID, d.ID, "EDITOR@example.com", "editor")
	require.NoError(t, err)

	t.Run("add errors", func(t *testing.T) {
		_, err := s.AddCollaborator(ctx, owner.ID, d.ID, "ghost@example.com", "viewer")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Contains(t, err.Error(), "user with that email not found")

		_, err = s.AddCollaborator(ctx, owner.ID, d.ID, "viewer@example.com", "editor")
		assert.ErrorIs(t, err, ErrConflict)

		_, err = s.AddCollaborator(ctx, owner.ID, d.ID, "stranger@example.com", "owner")
		assert.ErrorIs(t, err, ErrInvalid)

		_, err = s.AddCollaborator(ctx, owner.ID, d.ID, "owner@example.com", "editor")
		assert.ErrorIs(t, err, ErrInvalid)

		_, err = s.AddCollaborator(ctx, editor.ID, d.ID, "stranger@example.com", "viewer")
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("viewer reads but cannot write", func(t *testing.T) {
		_, err := s.OpenDocument(ctx, viewer.ID, d.ID)
		require.NoError(t, err)
		_, err = s.SaveDocument(ctx, viewer.ID, d.ID, SaveInput{Content: "x", Version: 1})
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("editor writes but cannot delete", func(t *testing.T) {
		saved, err := s.SaveDocument(ctx, editor.ID, d.ID, SaveInput{Content: "edited", Version: 1})
		require.NoError(t, err)
		assert.Equal(t, int64(2), saved.Version)
		assert.ErrorIs(t, s.DeleteDocument(ctx, editor.ID, d.ID), ErrForbidden)

		evs, err := s.History(ctx, owner.ID, d.ID, 1)
		require.NoError(t, err)
		require.Len(t, evs, 1)
		assert.Equal(t, editor.ID, evs[0].UserID)
	})

	t.Run("stranger sees nothing", func(t *testing.T) {
		_, err := s.OpenDocument(ctx, stranger.ID, d.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		docs, _, err := s.ListDocuments(ctx, stranger.ID, api.ListQuery{})
		require.NoError(t, err)
		assert.Empty(t, docs)
	})

	list, err := s.ListCollaborators(ctx, viewer.ID, d.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)

	require.NoError(t, s.RemoveCollaborator(ctx, owner.ID, d.ID, c.ID))
	_, err = s.OpenDocument(ctx, viewer.ID, d.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.RemoveCollaborator(ctx, owner.ID, d.ID, c.ID), ErrNotFound)
}

func TestSignUpSeedsWelcomeDocument(t *testing.T) {
	ctx := context.Background()
	store, err := db.Open(ctx, "mem://")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	s := New(store, nil, WithWelcomeDocument(true))
	u := signUp(t, s, ctx, "ada@example.com")
	docs, _, err := s.ListDocuments(ctx, u.ID, api.ListQuery{})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, markdown.WelcomeTitle, docs[0].Title)

	d, err := s.OpenDocument(ctx, u.ID, docs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, markdown.DefaultContent(), d.Content)

	plain, ctx := newTestService(t)
	v := signUp(t, plain, ctx, "bob@example.com")
	docs, _, err = plain.ListDocuments(ctx, v.ID, api.ListQuery{})
	require.NoError(t, err)
	assert.Empty(t, docs)
}
