package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/sketchcanvas/pkg/canvas"
	sketcherrors "github.com/matzehuels/sketchcanvas/pkg/errors"
)

type canvasSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type canvasResponse struct {
	CanvasID   string            `json:"canvasId"`
	CanvasName string            `json:"canvasName"`
	Drawings   []json.RawMessage `json:"drawings"`
}

type canvasRequest struct {
	CanvasName string `json:"canvasName"`
	// Drawings is a JSON array, or a string holding one.
	Drawings json.RawMessage `json:"drawings"`
}

type createdResponse struct {
	CanvasID string `json:"canvasId"`
}

func (req canvasRequest) drawings() ([]json.RawMessage, error) {
	raw := bytes.TrimSpace(req.Drawings)
	if len(raw) == 0 {
		return []json.RawMessage{}, nil
	}
	if raw[0] == '"' {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil, canvas.ErrInvalidDrawings
		}
		return canvas.SplitDrawings(text)
	}
	return canvas.SplitDrawings(string(raw))
}

func (s *Server) handleListCanvases(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]canvasSummary, len(list))
	for i, c := range list {
		out[i] = canvasSummary{ID: c.ID, Name: c.Name, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetCanvas(w http.ResponseWriter, r *http.Request) {
	c, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	drawings := c.Drawings
	if drawings == nil {
		drawings = []json.RawMessage{}
	}
	writeJSON(w, http.StatusOK, canvasResponse{CanvasID: c.ID, CanvasName: c.Name, Drawings: drawings})
}

func (s *Server) handleCreateCanvas(w http.ResponseWriter, r *http.Request) {
	var req canvasRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	drawings, err := req.drawings()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	c, err := s.store.Create(r.Context(), req.CanvasName, drawings)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/canvas/"+c.ID)
	writeJSON(w, http.StatusCreated, createdResponse{CanvasID: c.ID})
}

func (s *Server) handleReplaceCanvas(w http.ResponseWriter, r *http.Request) {
	var req canvasRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(bytes.TrimSpace(req.Drawings)) == 0 {
		s.writeError(w, r, sketcherrors.New(sketcherrors.ErrCodeInvalidDrawings, "drawings are required"))
		return
	}
	drawings, err := req.drawings()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.store.Replace(r.Context(), chi.URLParam(r, "id"), req.CanvasName, drawings); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteCanvas(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
