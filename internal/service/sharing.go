package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mithrel/muse/internal/db"
	"github.com/mithrel/muse/pkg/api"
)

// ListCollaborators lists the grants on a document the user can read.
func (s *Service) ListCollaborators(ctx context.Context, userID, docID string) ([]api.Collaborator, error) {
	if _, err := s.authorize(ctx, userID, docID, api.Permission.CanRead); err != nil {
		return nil, err
	}
	return s.store.Collaborators.ListCollaborators(ctx, docID)
}

// AddCollaborator grants the account with email access to a document. An
// empty permission means viewer. Owner only.
func (s *Service) AddCollaborator(ctx context.Context, userID, docID, email, permission string) (api.Collaborator, error) {
	if _, err := s.authorize(ctx, userID, docID, api.Permission.CanManage); err != nil {
		return api.Collaborator{}, err
	}
	perm := api.PermissionViewer
	if permission != "" {
		p, ok := api.ParsePermission(permission)
		if !ok {
			return api.Collaborator{}, fmt.Errorf("%w: permission must be viewer or editor", ErrInvalid)
		}
		perm = p
	}
	u, err := s.store.Users.GetUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return api.Collaborator{}, fmt.Errorf("%w: user with that email not found", ErrNotFound)
		}
		return api.Collaborator{}, err
	}
	if u.ID == userID {
		return api.Collaborator{}, fmt.Errorf("%w: the owner already has access", ErrInvalid)
	}
	c := api.Collaborator{
		ID:         api.NewID(),
		DocumentID: docID,
		UserID:     u.ID,
		Permission: perm,
		CreatedAt:  s.now(),
	}
	c, err = s.store.Collaborators.AddCollaborator(db.WithActor(ctx, userID), c)
	if err != nil {
		return api.Collaborator{}, storeErr(err, "user is already a collaborator")
	}
	s.log.Info("document shared", zap.String("doc", docID), zap.String("with", u.ID), zap.String("permission", string(perm)))
	return c, nil
}

// RemoveCollaborator revokes a grant. Owner only.
func (s *Service) RemoveCollaborator(ctx context.Context, userID, docID, collaboratorID string) error {
	if _, err := s.authorize(ctx, userID, docID, api.Permission.CanManage); err != nil {
		return err
	}
	return storeErr(s.store.Collaborators.RemoveCollaborator(db.WithActor(ctx, userID), docID, collaboratorID), "collaborator")
}
