package db

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mithrel/muse/pkg/api"
)

// Users stores accounts. Password hashes never leave this layer except
// through PasswordHash.
type Users interface {
	CreateUser(ctx context.Context, u api.User, passwordHash string) (api.User, error)
	GetUser(ctx context.Context, id string) (api.User, error)
	GetUserByEmail(ctx context.Context, email string) (api.User, error)
	PasswordHash(ctx context.Context, id string) (string, error)
}

// Documents stores document text with optimistic versioning.
type Documents interface {
	CreateDocument(ctx context.Context, d api.Document) (api.Document, error)
	GetDocument(ctx context.Context, id string) (api.Document, error)
	UpdateDocumentCAS(ctx context.Context, d api.Document, ifVersion int64) (api.Document, error)
	DeleteDocument(ctx context.Context, id string) error
	ListDocuments(ctx context.Context, q api.ListQuery) ([]api.DocumentSummary, api.Page, error)
}

// Collaborators stores per-document grants.
type Collaborators interface {
	AddCollaborator(ctx context.Context, c api.Collaborator) (api.Collaborator, error)
	ListCollaborators(ctx context.Context, documentID string) ([]api.Collaborator, error)
	RemoveCollaborator(ctx context.Context, documentID, id string) error
	PermissionFor(ctx context.Context, documentID, userID string) (api.Permission, error)
}

// Events is the document history log.
type Events interface {
	ListEvents(ctx context.Context, documentID string, limit int) ([]api.Event, error)
}

// Store groups the repositories behind one connection.
type Store struct {
	Users         Users
	Documents     Documents
	Collaborators Collaborators
	Events        Events

	closer io.Closer
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	if s == nil || s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
	// ErrInvalidCursor is returned for a paging cursor this store did not issue.
	ErrInvalidCursor = errors.New("invalid cursor")
)

// Open returns a Store for a URL: sqlite://path (or a bare path) or mem://.
func Open(ctx context.Context, url string) (*Store, error) {
	url = strings.TrimSpace(url)
	switch {
	case strings.HasPrefix(url, "mem://"):
		m := newMemStore()
		return &Store{Users: m, Documents: m, Collaborators: m, Events: m}, nil
	case strings.HasPrefix(url, "sqlite://"), url != "" && !strings.Contains(url, "://"):
		st, closer, err := openSQLite(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		st.closer = closer
		return st, nil
	}
	return nil, fmt.Errorf("unsupported database url %q", url)
}
