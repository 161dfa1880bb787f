package server

import (
	"net/http"

	"github.com/mithrel/muse/internal/auth"
	"github.com/mithrel/muse/internal/service"
	"github.com/mithrel/muse/pkg/api"
)

type sessionResponse struct {
	User  api.User `json:"user"`
	Token string   `json:"token"`
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var in service.Credentials
	if err := decodeJSON(w, r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}
	u, err := s.svc.SignUp(r.Context(), in.Email, in.Password)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondSession(w, r, http.StatusCreated, u)
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var in service.Credentials
	if err := decodeJSON(w, r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}
	u, err := s.svc.SignIn(r.Context(), in.Email, in.Password)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondSession(w, r, http.StatusOK, u)
}

func (s *Server) respondSession(w http.ResponseWriter, r *http.Request, status int, u api.User) {
	tok, err := s.tokens.GenerateToken(u.ID, u.Email)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, status, sessionResponse{User: u, Token: tok})
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	tok, err := auth.BearerToken(r)
	if err == nil {
		err = s.tokens.RevokeToken(tok)
	}
	if err != nil {
		s.respondError(w, r, service.ErrUnauthorized)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u, err := s.svc.User(r.Context(), userID(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, u)
}
