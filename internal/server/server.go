// Package server exposes documents, sharing and the formatting toolbar over a
// JSON HTTP API.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/mithrel/muse/internal/auth"
	"github.com/mithrel/muse/internal/logging"
	"github.com/mithrel/muse/internal/service"
)

const (
	defaultPageSize = 50
	maxBodyBytes    = 4 << 20
)

type Options struct {
	Service  *service.Service
	Tokens   *auth.TokenManager
	Logger   *zap.Logger
	PageSize int
}

// Server serves the HTTP API backed by a Service.
type Server struct {
	svc      *service.Service
	tokens   *auth.TokenManager
	log      *zap.Logger
	pageSize int
}

func New(opts Options) *Server {
	ps := opts.PageSize
	if ps <= 0 {
		ps = defaultPageSize
	}
	return &Server{
		svc:      opts.Service,
		tokens:   opts.Tokens,
		log:      logging.OrNop(opts.Logger).Named("server"),
		pageSize: ps,
	}
}

// Router returns an http.Handler with registered routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/auth/signup", s.handleSignUp)
		r.Post("/auth/signin", s.handleSignIn)
		r.Get("/operations", s.handleOperations)
		r.Post("/format", s.handleFormat)
		r.Post("/preview", s.handlePreview)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Post("/auth/signout", s.handleSignOut)
			r.Get("/me", s.handleMe)

			r.Route("/documents", func(r chi.Router) {
				r.Get("/", s.handleListDocuments)
				r.Post("/", s.handleCreateDocument)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetDocument)
					r.Put("/", s.handleSaveDocument)
					r.Delete("/", s.handleDeleteDocument)
					r.Post("/format", s.handleFormatDocument)
					r.Get("/preview", s.handleDocumentPreview)
					r.Get("/export", s.handleExport)
					r.Get("/history", s.handleHistory)
					r.Get("/collaborators", s.handleListCollaborators)
					r.Post("/collaborators", s.handleAddCollaborator)
					r.Delete("/collaborators/{cid}", s.handleRemoveCollaborator)
				})
			})
		})
	})
	return r
}
