package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/taskforge/taskforge/internal/auth"
	"github.com/taskforge/taskforge/internal/service"
	"github.com/taskforge/taskforge/internal/store"
)

// ErrorResponse is the envelope returned for every failed request.
type ErrorResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Status    int       `json:"status"`
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Path      string    `json:"path"`
	Details   []string  `json:"details,omitempty"`
}

// PagedResponse wraps a page of results with pagination metadata.
type PagedResponse struct {
	Content       any   `json:"content"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"total_elements"`
	TotalPages    int   `json:"total_pages"`
}

func newPagedResponse(content any, page store.Page, total int64) PagedResponse {
	totalPages := 0
	if page.Size > 0 {
		totalPages = int((total + int64(page.Size) - 1) / int64(page.Size))
	}
	return PagedResponse{
		Content:       content,
		Page:          page.Number,
		Size:          page.Size,
		TotalElements: total,
		TotalPages:    totalPages,
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string, details ...string) {
	writeJSON(w, status, ErrorResponse{
		Timestamp: time.Now().UTC(),
		Status:    status,
		Error:     http.StatusText(status),
		Message:   message,
		Path:      r.URL.Path,
		Details:   details,
	})
}

// isGuardViolation reports whether the error is one of the role invariant
// rules firing.
func isGuardViolation(err error) bool {
	return errors.Is(err, service.ErrSelfRoleChange) ||
		errors.Is(err, service.ErrSelfDeletion) ||
		errors.Is(err, service.ErrLastAdminDemotion) ||
		errors.Is(err, service.ErrLastAdminDeletion)
}

// renderError maps a domain error to an HTTP status and writes the envelope.
// Unknown errors are logged and reported as a plain 500 without leaking the
// underlying message.
func renderError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrAuthenticationRequired),
		errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, r, http.StatusUnauthorized, err.Error())
	case errors.Is(err, auth.ErrAccessDenied),
		errors.Is(err, service.ErrSelfRoleChange),
		errors.Is(err, service.ErrSelfDeletion),
		errors.Is(err, service.ErrLastAdminDemotion),
		errors.Is(err, service.ErrLastAdminDeletion):
		writeError(w, r, http.StatusForbidden, err.Error())
	case errors.Is(err, store.ErrAccountNotFound),
		errors.Is(err, store.ErrTaskNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrAccountAlreadyExists):
		writeError(w, r, http.StatusConflict, "login is already taken")
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Request failed")
		writeError(w, r, http.StatusInternalServerError, "internal server error")
	}
}
