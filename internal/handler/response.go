package handler

// RESPONSE HELPERS:
// Every editor endpoint answers with the same two shapes, so the frontend
// always knows what to parse:
//
//	success: {"status": "Bin saved", "view": {...}}
//	failure: {"error": "refused", "message": "At least one file is required", "view": {...}}
//
// The failure body still carries the (unchanged) view so the page can
// re-render and show the message in its status bar.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/sourcebin/internal/apperror"
	"github.com/sakif/sourcebin/internal/service"
)

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string        `json:"error"`           // machine-readable type, e.g. "not_found"
	Message string        `json:"message"`         // user-facing status message
	Field   string        `json:"field,omitempty"` // offending input, when known
	View    *service.View `json:"view,omitempty"`
}

// writeJSON sends a JSON response with the given status code. Headers must be
// set before WriteHeader; anything after is ignored.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// headers are already sent, all we can do is log
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// errorStatus maps a domain error to its HTTP status and machine-readable type.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, apperror.ErrRefused):
		return http.StatusConflict, "refused"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// writeError sends err in the standard error format. view may be nil.
//
// Only *apperror.AppError messages reach the client. Anything else may carry
// SQL, file paths or hostnames, so it is replaced by a generic message.
func writeError(w http.ResponseWriter, err error, view *service.View) {
	status, errorType := errorStatus(err)
	resp := ErrorResponse{
		Error:   errorType,
		Message: "An internal error occurred",
		View:    view,
	}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		resp.Message = appErr.Message
		resp.Field = appErr.Field
	}
	writeJSON(w, status, resp)
}

// writeResult sends the outcome of an editor operation.
func writeResult(w http.ResponseWriter, res service.Result, err error) {
	if err != nil {
		writeError(w, err, &res.View)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
