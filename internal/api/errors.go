package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/inkgrove/inkgrove-api/internal/domain"
	"github.com/inkgrove/inkgrove-api/internal/generation"
	"github.com/inkgrove/inkgrove-api/internal/service"
	"github.com/inkgrove/inkgrove-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes without
// leaking internal error types or messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, store.ErrTaskNotFound),
		errors.Is(err, store.ErrRecordNotFound),
		errors.Is(err, store.ErrTemplateNotFound),
		errors.Is(err, store.ErrChallengeNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, service.ErrRecordCompleted),
		errors.Is(err, service.ErrSubmissionExists),
		errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrEmptyContent):
		return http.StatusBadRequest

	// Upstream/provider failures
	case errors.Is(err, generation.ErrGenerationFailed):
		return http.StatusBadGateway

	// Missing prerequisites
	case errors.Is(err, service.ErrNoTemplateAvailable):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-facing message for an error.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, store.ErrTaskNotFound):
		return "Task not found"

	case errors.Is(err, store.ErrRecordNotFound):
		return "Attempt record not found"

	case errors.Is(err, store.ErrChallengeNotFound):
		return "Challenge not found"

	case errors.Is(err, store.ErrTemplateNotFound):
		return "Template not found"

	case errors.Is(err, service.ErrRecordCompleted):
		return "This attempt has already been completed"

	case errors.Is(err, service.ErrSubmissionExists):
		return "This week's challenge already has a submission"

	case errors.Is(err, store.ErrDuplicate):
		return "Entity already exists"

	case errors.Is(err, service.ErrNoTemplateAvailable):
		return "No challenge template is available"

	case errors.Is(err, generation.ErrGenerationFailed):
		return "Generation is temporarily unavailable"

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrEmptyContent):
		return "Invalid request data"

	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError turns a validator error into a user-friendly
// message without echoing submitted values back.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	if strings.Contains(errMsg, "Field validation") {
		// Format: "Key: 'SubmitRequest.Content' Error:Field validation for 'Content' failed on the 'required' tag"
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}
				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, validationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

func validationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "gte":
		return "too small"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}
