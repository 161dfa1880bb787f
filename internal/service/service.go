// Package service holds the document, account and sharing operations. Every
// call names the acting user explicitly; there is no ambient session.
package service

import (
	"time"

	"go.uber.org/zap"

	"github.com/mithrel/muse/internal/db"
	"github.com/mithrel/muse/internal/logging"
)

const defaultHistoryLimit = 50

// Service is safe for concurrent use when its store is.
type Service struct {
	store *db.Store
	log   *zap.Logger
	now   func() time.Time

	welcome bool
}

// Option adjusts a Service at construction.
type Option func(*Service)

// WithWelcomeDocument seeds every new account with the welcome document.
func WithWelcomeDocument(on bool) Option {
	return func(s *Service) { s.welcome = on }
}

func New(store *db.Store, log *zap.Logger, opts ...Option) *Service {
	s := &Service{
		store: store,
		log:   logging.OrNop(log).Named("service"),
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}
