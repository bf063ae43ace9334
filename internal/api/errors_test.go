package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vatline/vatline-api/internal/domain"
	"github.com/vatline/vatline-api/internal/queue"
)

func TestMapErrorToStatusCode(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{
			name:           "nil error",
			err:            nil,
			expectedStatus: http.StatusInternalServerError, // Default to 500 for nil error
		},
		{
			name:           "job not found",
			err:            queue.ErrJobNotFound,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "wrapped job not found",
			err:            fmt.Errorf("lookup failed: %w", queue.ErrJobNotFound),
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "queue closed",
			err:            queue.ErrQueueClosed,
			expectedStatus: http.StatusServiceUnavailable,
		},
		{
			name:           "empty document content",
			err:            domain.ErrEmptyDocumentContent,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "empty document mime type",
			err:            domain.ErrEmptyDocumentMimeType,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid category",
			err:            domain.ErrInvalidCategory,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown error",
			err:            errors.New("unknown error"),
			expectedStatus: http.StatusInternalServerError,
		},
		{
			name: "deeply nested job not found",
			err: fmt.Errorf(
				"outer: %w",
				fmt.Errorf("middle: %w", queue.ErrJobNotFound),
			),
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := MapErrorToStatusCode(tt.err)
			assert.Equal(t, tt.expectedStatus, status)
		})
	}
}

func TestGetSafeErrorMessage(t *testing.T) {
	tests := []struct {
		name            string
		err             error
		expectedMessage string
	}{
		{
			name:            "nil error",
			err:             nil,
			expectedMessage: "An unexpected error occurred",
		},
		{
			name:            "job not found",
			err:             queue.ErrJobNotFound,
			expectedMessage: "Job not found",
		},
		{
			name:            "wrapped job not found",
			err:             fmt.Errorf("lookup failed: %w", queue.ErrJobNotFound),
			expectedMessage: "Job not found",
		},
		{
			name:            "queue closed",
			err:             queue.ErrQueueClosed,
			expectedMessage: "Processing queue is shutting down",
		},
		{
			name:            "invalid document",
			err:             domain.ErrEmptyDocumentContent,
			expectedMessage: "Invalid document data",
		},
		{
			name:            "unknown error",
			err:             errors.New("extraction failed: api key AIzaSyXXXX rejected"),
			expectedMessage: "An unexpected error occurred", // Internal details are hidden
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			message := GetSafeErrorMessage(tt.err)
			assert.Equal(t, tt.expectedMessage, message)

			// Verify no internal details leak through the generic message
			if tt.err != nil && tt.expectedMessage == "An unexpected error occurred" {
				assert.NotContains(
					t,
					message,
					tt.err.Error(),
					"Error message should not contain the actual error",
				)
			}
		})
	}
}
