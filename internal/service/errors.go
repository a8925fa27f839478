package service

import (
	"errors"
	"fmt"
)

// Common service errors. Callers check these with errors.Is; the API layer
// maps them to HTTP status codes.
var (
	// ErrRecordCompleted indicates a write against an attempt record that
	// has already been completed. Completed records are immutable.
	ErrRecordCompleted = errors.New("record already completed")

	// ErrSubmissionExists indicates a second submission against a weekly
	// challenge that already holds one.
	ErrSubmissionExists = errors.New("weekly challenge already has a submission")

	// ErrNoTemplateAvailable indicates the template bank had no candidate
	// for an operation that requires one (weekly challenge creation).
	ErrNoTemplateAvailable = errors.New("no template available")
)

// TaskServiceError is a custom error type for task service errors.
type TaskServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for TaskServiceError.
func (e *TaskServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("task service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("task service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *TaskServiceError) Unwrap() error {
	return e.Err
}

// NewTaskServiceError creates a new TaskServiceError.
func NewTaskServiceError(operation, message string, err error) *TaskServiceError {
	return &TaskServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
