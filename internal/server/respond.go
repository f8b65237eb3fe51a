package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/matzehuels/sketchcanvas/pkg/canvas"
	sketcherrors "github.com/matzehuels/sketchcanvas/pkg/errors"
)

type errorResponse struct {
	Error string            `json:"error"`
	Code  sketcherrors.Code `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError maps err to a status and writes it. Internal details stay in
// the log.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	msg := sketcherrors.UserMessage(err)
	if status >= 500 && code == sketcherrors.ErrCodeInternal {
		s.logger.Error("request failed", "path", r.URL.Path, "err", err)
		msg = "internal error"
	}
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}

func classify(err error) (int, sketcherrors.Code) {
	switch {
	case errors.Is(err, canvas.ErrNotFound):
		return http.StatusNotFound, sketcherrors.ErrCodeNotFound
	case errors.Is(err, canvas.ErrInvalidDrawings):
		return http.StatusBadRequest, sketcherrors.ErrCodeInvalidDrawings
	}

	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return http.StatusRequestEntityTooLarge, sketcherrors.ErrCodeInvalidInput
	}

	code := sketcherrors.GetCode(err)
	switch code {
	case sketcherrors.ErrCodeInvalidInput, sketcherrors.ErrCodeInvalidPrompt,
		sketcherrors.ErrCodeInvalidCanvas, sketcherrors.ErrCodeInvalidDrawings:
		return http.StatusBadRequest, code
	case sketcherrors.ErrCodeNotFound:
		return http.StatusNotFound, code
	case sketcherrors.ErrCodeInvalidUpstreamFormat:
		return http.StatusBadGateway, code
	case "":
		return http.StatusInternalServerError, sketcherrors.ErrCodeInternal
	default:
		return http.StatusInternalServerError, code
	}
}

// decodeBody reads a size-limited JSON body into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return sketcherrors.Wrap(sketcherrors.ErrCodeInvalidInput, err, "invalid JSON body")
	}
	return nil
}
