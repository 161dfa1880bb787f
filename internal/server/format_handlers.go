package server

import (
	"net/http"

	"github.com/mithrel/muse/internal/render"
	"github.com/mithrel/muse/pkg/markdown"
)

type formatRequest struct {
	Text      string             `json:"text"`
	Start     int                `json:"start"`
	End       int                `json:"end"`
	Operation markdown.Operation `json:"operation"`
}

type previewRequest struct {
	Markdown string `json:"markdown"`
}

func (s *Server) handleOperations(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, markdown.Toolbar())
}

// handleFormat is the stateless transform; nothing is stored.
func (s *Server) handleFormat(w http.ResponseWriter, r *http.Request) {
	var in formatRequest
	if err := decodeJSON(w, r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, markdown.Apply(in.Text, in.Start, in.End, in.Operation))
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var in previewRequest
	if err := decodeJSON(w, r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}
	body, err := render.HTML(in.Markdown)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeHTML(w, body)
}

func writeHTML(w http.ResponseWriter, b []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}
