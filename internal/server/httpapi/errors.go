package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"assignment_service/internal/errdefs"
	"assignment_service/pkg/logging"
)

var ErrBadRequest = errors.New("bad request")

type errorResponse struct {
	Error     string `json:"error"`
	Status    string `json:"status,omitempty"`
	Operation string `json:"operation,omitempty"`
}

func mapErr(err error) int {
	switch {
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, errdefs.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errdefs.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, errdefs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errdefs.ErrAlreadyExists), errors.Is(err, errdefs.ErrTransitionNotAllowed):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := mapErr(err)
	resp := errorResponse{Error: err.Error()}

	var tna *errdefs.TransitionNotAllowedError
	if errors.As(err, &tna) {
		resp.Status = string(tna.Status)
		resp.Operation = string(tna.Operation)
	}

	if code == http.StatusInternalServerError {
		if logger, ok := logging.GetFromContext(r.Context()); ok {
			logger.Error(r.Context(), "request failed", zap.String("path", r.URL.Path), zap.Error(err))
		}
		resp.Error = http.StatusText(code)
	}

	writeJSON(w, code, resp)
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
