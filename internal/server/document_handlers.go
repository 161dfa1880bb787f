package server

import (
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mithrel/muse/internal/service"
	"github.com/mithrel/muse/pkg/api"
	"github.com/mithrel/muse/pkg/markdown"
)

type listResponse struct {
	Documents []api.DocumentSummary `json:"documents"`
	Page      api.Page              `json:"page"`
}

type createRequest struct {
	Title string `json:"title"`
}

type formatDocumentRequest struct {
	Start     int                `json:"start"`
	End       int                `json:"end"`
	Operation markdown.Operation `json:"operation"`
}

type formatDocumentResponse struct {
	Document api.Document `json:"document"`
	Caret    int          `json:"caret"`
}

type shareRequest struct {
	Email      string `json:"email"`
	Permission string `json:"permission"`
}

func docID(r *http.Request) string { return chi.URLParam(r, "id") }

func etag(d api.Document) string { return `"` + d.Hash() + `"` }

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	docs, page, err := s.svc.ListDocuments(r.Context(), userID(r), api.ListQuery{
		Query:  strings.TrimSpace(q.Get("q")),
		Limit:  parseIntDefault(q.Get("limit"), s.pageSize),
		Cursor: q.Get("cursor"),
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if docs == nil {
		docs = []api.DocumentSummary{}
	}
	respondJSON(w, http.StatusOK, listResponse{Documents: docs, Page: page})
}

func (s *Server) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	var in createRequest
	if err := decodeJSON(w, r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}
	d, err := s.svc.CreateDocument(r.Context(), userID(r), in.Title)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	w.Header().Set("Location", "/v1/documents/"+d.ID)
	w.Header().Set("ETag", etag(d))
	respondJSON(w, http.StatusCreated, d)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	d, err := s.svc.OpenDocument(r.Context(), userID(r), docID(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	tag := etag(d)
	w.Header().Set("ETag", tag)
	if r.Header.Get("If-None-Match") == tag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	respondJSON(w, http.StatusOK, d)
}

func (s *Server) handleSaveDocument(w http.ResponseWriter, r *http.Request) {
	var in service.SaveInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}
	d, err := s.svc.SaveDocument(r.Context(), userID(r), docID(r), in)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	w.Header().Set("ETag", etag(d))
	respondJSON(w, http.StatusOK, d)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteDocument(r.Context(), userID(r), docID(r)); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleFormatDocument(w http.ResponseWriter, r *http.Request) {
	var in formatDocumentRequest
	if err := decodeJSON(w, r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}
	d, res, err := s.svc.FormatDocument(r.Context(), userID(r), docID(r), in.Start, in.End, in.Operation)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	w.Header().Set("ETag", etag(d))
	respondJSON(w, http.StatusOK, formatDocumentResponse{Document: d, Caret: res.Caret})
}

func (s *Server) handleDocumentPreview(w http.ResponseWriter, r *http.Request) {
	page, err := s.svc.Preview(r.Context(), userID(r), docID(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeHTML(w, page)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	name, body, err := s.svc.Export(r.Context(), userID(r), docID(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.Header().Set("Content-Length", fmt.Sprint(len(body)))
	_, _ = w.Write(body)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	evs, err := s.svc.History(r.Context(), userID(r), docID(r), parseIntDefault(r.URL.Query().Get("limit"), 0))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if evs == nil {
		evs = []api.Event{}
	}
	respondJSON(w, http.StatusOK, evs)
}

func (s *Server) handleListCollaborators(w http.ResponseWriter, r *http.Request) {
	cs, err := s.svc.ListCollaborators(r.Context(), userID(r), docID(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if cs == nil {
		cs = []api.Collaborator{}
	}
	respondJSON(w, http.StatusOK, cs)
}

func (s *Server) handleAddCollaborator(w http.ResponseWriter, r *http.Request) {
	var in shareRequest
	if err := decodeJSON(w, r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}
	c, err := s.svc.AddCollaborator(r.Context(), userID(r), docID(r), in.Email, in.Permission)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, c)
}

func (s *Server) handleRemoveCollaborator(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.RemoveCollaborator(r.Context(), userID(r), docID(r), chi.URLParam(r, "cid")); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
