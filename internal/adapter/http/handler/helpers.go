package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/michaelwybraniec/bankly/internal/domain"
)

// ErrorResponse is the JSON error envelope. Error carries the taxonomy
// kind and Message a human-readable summary; store internals never
// leak into either field.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	var rejection *domain.Rejection
	switch {
	case errors.Is(err, domain.ErrAuditRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflictingAuditRecord):
		return http.StatusConflict
	case errors.Is(err, domain.ErrSameAccount):
		return http.StatusBadRequest
	case errors.As(err, &rejection):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
