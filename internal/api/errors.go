package api

import (
	"errors"
	"net/http"

	"github.com/vatline/vatline-api/internal/domain"
	"github.com/vatline/vatline-api/internal/queue"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, queue.ErrJobNotFound):
		return http.StatusNotFound

	// The queue no longer accepts work
	case errors.Is(err, queue.ErrQueueClosed):
		return http.StatusServiceUnavailable

	// Bad request errors
	case errors.Is(err, domain.ErrEmptyDocumentContent),
		errors.Is(err, domain.ErrEmptyDocumentMimeType),
		errors.Is(err, domain.ErrInvalidCategory):
		return http.StatusBadRequest

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, queue.ErrJobNotFound):
		return "Job not found"

	case errors.Is(err, queue.ErrQueueClosed):
		return "Processing queue is shutting down"

	case errors.Is(err, domain.ErrEmptyDocumentContent),
		errors.Is(err, domain.ErrEmptyDocumentMimeType),
		errors.Is(err, domain.ErrInvalidCategory):
		return "Invalid document data"

	default:
		return "An unexpected error occurred"
	}
}
