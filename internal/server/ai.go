package server

import (
	"net/http"
)

type generateRequest struct {
	Prompt               string `json:"prompt"`
	ExistingDrawingsJSON string `json:"existingDrawingsJson"`
}

type generateResponse struct {
	DrawingJSON string `json:"drawingJson"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	out, err := s.gen.GenerateJSON(r.Context(), req.Prompt, req.ExistingDrawingsJSON)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, generateResponse{DrawingJSON: out})
}
