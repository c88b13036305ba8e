package handler

// RESPONSE HELPERS:
// Pages and JSON endpoints share one mapping from domain error kinds to
// HTTP status codes (statusFor). The HTML side then re-renders a form or
// shows the error page; the JSON side writes
//
//	{"error": "not_found", "message": "post not found with id 3"}

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/blog/internal/apperror"
)

// ErrorResponse is the error body of every JSON endpoint.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

const internalErrorMessage = "An internal error occurred"

// statusFor maps an error to its HTTP status, a machine-readable kind and
// the message that is safe to show. Anything that is not an *AppError is
// reported as a generic 500.
func statusFor(err error) (status int, kind, message string) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError, "internal_error", internalErrorMessage
	}

	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest, "validation_error", appErr.Message
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusBadRequest, "conflict", appErr.Message
	case errors.Is(err, apperror.ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthenticated", appErr.Message
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden, "forbidden", appErr.Message
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound, "not_found", appErr.Message
	}
	return http.StatusInternalServerError, "internal_error", internalErrorMessage
}

// writeJSON sends data as JSON. Headers and status go out before the body.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// headers are already sent; nothing left but to log
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError sends err as a JSON ErrorResponse.
func writeError(w http.ResponseWriter, err error) {
	status, kind, message := statusFor(err)
	writeJSON(w, status, ErrorResponse{Error: kind, Message: message})
}

// renderError shows the error page for err. Internal errors are logged
// with their detail; the page only ever shows the generic message.
func (p *Renderer) renderError(w http.ResponseWriter, r *http.Request, err error) {
	status, _, message := statusFor(err)
	if status == http.StatusInternalServerError {
		p.logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
	}
	p.render(w, r, status, "error", pageData{
		Title:   http.StatusText(status),
		Message: message,
	})
}

// isFormError reports whether err should re-render the submitted form
// rather than show the error page.
func isFormError(err error) bool {
	return errors.Is(err, apperror.ErrValidation) ||
		errors.Is(err, apperror.ErrConflict) ||
		errors.Is(err, apperror.ErrUnauthenticated)
}

// HandleNotFound renders the 404 page for unmatched routes.
func (p *Renderer) HandleNotFound(w http.ResponseWriter, r *http.Request) {
	p.renderError(w, r, &apperror.AppError{
		Err:     apperror.ErrNotFound,
		Code:    apperror.CodeNotFound,
		Message: "The requested page was not found.",
	})
}
