package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"dsr-ledger/internal/app"
	"dsr-ledger/internal/core"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// writeServiceError maps an application error onto an HTTP status.
// Unknown errors are logged and reported as a generic 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *core.ValidationError
	switch {
	case errors.As(err, &vErr):
		writeError(w, r, vErr.Message, "VALIDATION_ERROR", http.StatusBadRequest)
	case errors.Is(err, core.ErrEmptyCredentials), errors.Is(err, core.ErrPasswordTooLong):
		writeError(w, r, err.Error(), "VALIDATION_ERROR", http.StatusBadRequest)
	case errors.Is(err, core.ErrInvalidCredentials):
		writeError(w, r, err.Error(), "UNAUTHORIZED", http.StatusUnauthorized)
	case errors.Is(err, core.ErrNotAdmin), errors.Is(err, core.ErrAdminLoginNotAllowed):
		writeError(w, r, err.Error(), "FORBIDDEN", http.StatusForbidden)
	case errors.Is(err, core.ErrEntryNotFound), errors.Is(err, core.ErrUserNotFound):
		writeError(w, r, err.Error(), "NOT_FOUND", http.StatusNotFound)
	case errors.Is(err, core.ErrUserExists), errors.Is(err, core.ErrReservedUsername):
		writeError(w, r, err.Error(), "CONFLICT", http.StatusConflict)
	case errors.Is(err, app.ErrAIDisabled):
		writeError(w, r, err.Error(), "AI_DISABLED", http.StatusServiceUnavailable)
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path,
			"request_id", requestIDFromContext(r.Context()), "error", err)
		writeError(w, r, "internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
	}
}
