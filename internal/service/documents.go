package service

import (
	"context"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.uber.org/zap"

	"github.com/mithrel/muse/internal/db"
	"github.com/mithrel/muse/internal/render"
	"github.com/mithrel/muse/pkg/api"
	"github.com/mithrel/muse/pkg/markdown"
)

const maxTitle = 200

// SaveInput is a full-document write based on Version.
type SaveInput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Version int64  `json:"version"`
}

func (in SaveInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Length(0, maxTitle)),
		validation.Field(&in.Version, validation.Required, validation.Min(int64(1))),
	)
}

func validateTitle(title string) error {
	return validation.Validate(title, validation.Required.Error("title is required"), validation.Length(1, maxTitle))
}

// authorize returns the caller's permission on a document when allow accepts
// it. Callers with no access at all get ErrNotFound so existence is not leaked.
func (s *Service) authorize(ctx context.Context, userID, docID string, allow func(api.Permission) bool) (api.Permission, error) {
	perm, err := s.store.Collaborators.PermissionFor(ctx, docID, userID)
	if err != nil {
		return api.PermissionNone, storeErr(err, "document")
	}
	if !perm.CanRead() {
		return perm, fmt.Errorf("%w: document", ErrNotFound)
	}
	if !allow(perm) {
		return perm, fmt.Errorf("%w: %s access cannot do this", ErrForbidden, perm)
	}
	return perm, nil
}

// CreateDocument starts a new document with the standard placeholder body.
func (s *Service) CreateDocument(ctx context.Context, userID, title string) (api.Document, error) {
	title = strings.TrimSpace(title)
	if err := validateTitle(title); err != nil {
		return api.Document{}, invalid(err)
	}
	return s.createDocument(ctx, userID, title, markdown.NewDocumentContent(title))
}

// ImportDocument stores existing markdown as a new document.
func (s *Service) ImportDocument(ctx context.Context, userID, title, content string) (api.Document, error) {
	title = strings.TrimSpace(title)
	if err := validateTitle(title); err != nil {
		return api.Document{}, invalid(err)
	}
	return s.createDocument(ctx, userID, title, content)
}

func (s *Service) createDocument(ctx context.Context, userID, title, content string) (api.Document, error) {
	if _, err := s.store.Users.GetUser(ctx, userID); err != nil {
		return api.Document{}, storeErr(err, "user")
	}
	now := s.now()
	d := api.Document{
		ID:        api.NewID(),
		OwnerID:   userID,
		Title:     title,
		Content:   content,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	d, err := s.store.Documents.CreateDocument(db.WithActor(ctx, userID), d)
	if err != nil {
		return api.Document{}, storeErr(err, "document")
	}
	s.log.Debug("document created", zap.String("doc", d.ID), zap.String("user", userID))
	return d, nil
}

// ListDocuments pages through the documents the user owns or can access.
func (s *Service) ListDocuments(ctx context.Context, userID string, q api.ListQuery) ([]api.DocumentSummary, api.Page, error) {
	q.UserID = userID
	docs, page, err := s.store.Documents.ListDocuments(ctx, q)
	if err != nil {
		return nil, api.Page{}, storeErr(err, "documents")
	}
	return docs, page, nil
}

// OpenDocument returns a document the user can read.
func (s *Service) OpenDocument(ctx context.Context, userID, id string) (api.Document, error) {
	if _, err := s.authorize(ctx, userID, id, api.Permission.CanRead); err != nil {
		return api.Document{}, err
	}
	d, err := s.store.Documents.GetDocument(ctx, id)
	return d, storeErr(err, "document")
}

// Permission reports the user's access level on a document.
func (s *Service) Permission(ctx context.Context, userID, id string) (api.Permission, error) {
	return s.authorize(ctx, userID, id, api.Permission.CanRead)
}

// SaveDocument writes title and content if in.Version is still current. An
// empty title keeps the stored one. Saving identical text is a no-op.
func (s *Service) SaveDocument(ctx context.Context, userID, id string, in SaveInput) (api.Document, error) {
	if err := in.Validate(); err != nil {
		return api.Document{}, invalid(err)
	}
	if _, err := s.authorize(ctx, userID, id, api.Permission.CanWrite); err != nil {
		return api.Document{}, err
	}
	cur, err := s.store.Documents.GetDocument(ctx, id)
	if err != nil {
		return api.Document{}, storeErr(err, "document")
	}
	if cur.Version != in.Version {
		return api.Document{}, fmt.Errorf("%w: document is at version %d", ErrConflict, cur.Version)
	}
	next := cur
	if t := strings.TrimSpace(in.Title); t != "" {
		next.Title = t
	}
	next.Content = in.Content
	if next.Hash() == cur.Hash() {
		return cur, nil
	}
	return s.update(ctx, userID, cur, next)
}

func (s *Service) update(ctx context.Context, userID string, cur, next api.Document) (api.Document, error) {
	next.Version = cur.Version + 1
	next.UpdatedAt = s.now()
	saved, err := s.store.Documents.UpdateDocumentCAS(db.WithActor(ctx, userID), next, cur.Version)
	if err != nil {
		return api.Document{}, storeErr(err, "document was changed concurrently")
	}
	s.log.Debug("document saved", zap.String("doc", saved.ID), zap.Int64("version", saved.Version))
	return saved, nil
}

// FormatDocument applies a markdown operation to the stored content and saves
// the result.
func (s *Service) FormatDocument(ctx context.Context, userID, id string, start, end int, op markdown.Operation) (api.Document, markdown.Result, error) {
	if _, err := s.authorize(ctx, userID, id, api.Permission.CanWrite); err != nil {
		return api.Document{}, markdown.Result{}, err
	}
	cur, err := s.store.Documents.GetDocument(ctx, id)
	if err != nil {
		return api.Document{}, markdown.Result{}, storeErr(err, "document")
	}
	res := markdown.Apply(cur.Content, start, end, op)
	if res.Text == cur.Content {
		return cur, res, nil
	}
	next := cur
	next.Content = res.Text
	saved, err := s.update(ctx, userID, cur, next)
	if err != nil {
		return api.Document{}, markdown.Result{}, err
	}
	return saved, res, nil
}

// DeleteDocument removes a document. Owner only.
func (s *Service) DeleteDocument(ctx context.Context, userID, id string) error {
	if _, err := s.authorize(ctx, userID, id, api.Permission.CanManage); err != nil {
		return err
	}
	if err := s.store.Documents.DeleteDocument(db.WithActor(ctx, userID), id); err != nil {
		return storeErr(err, "document")
	}
	s.log.Info("document deleted", zap.String("doc", id), zap.String("user", userID))
	return nil
}

// Preview renders the document as a standalone HTML page.
func (s *Service) Preview(ctx context.Context, userID, id string) ([]byte, error) {
	d, err := s.OpenDocument(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	body, err := render.HTML(d.Content)
	if err != nil {
		return nil, err
	}
	return render.Page(d.Title, body)
}

// Export returns the download name and raw markdown of a document.
func (s *Service) Export(ctx context.Context, userID, id string) (string, []byte, error) {
	d, err := s.OpenDocument(ctx, userID, id)
	if err != nil {
		return "", nil, err
	}
	return markdown.ExportFilename(d.Title), []byte(d.Content), nil
}

// History lists recent events of a document, newest first.
func (s *Service) History(ctx context.Context, userID, id string, limit int) ([]api.Event, error) {
	if _, err := s.authorize(ctx, userID, id, api.Permission.CanRead); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return s.store.Events.ListEvents(ctx, id, limit)
}
