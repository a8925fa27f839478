package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the
	// store. This is the generic version of the entity-specific not found
	// errors below.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate
	// of a unique entity.
	ErrDuplicate = errors.New("entity already exists")

	// ErrUpdateFailed is returned when an update operation fails, for
	// example because the entity does not exist or the update violates
	// constraints.
	ErrUpdateFailed = errors.New("update failed")

	// ErrTransactionFailed is returned when a database transaction fails
	// to commit or when an operation within a transaction fails.
	ErrTransactionFailed = errors.New("transaction failed")

	// Entity-specific "not found" errors

	// ErrTaskNotFound indicates that the requested daily task does not exist.
	ErrTaskNotFound = fmt.Errorf("%w: daily task", ErrNotFound)

	// ErrTemplateNotFound indicates that the requested task template does not exist.
	ErrTemplateNotFound = fmt.Errorf("%w: task template", ErrNotFound)

	// ErrRecordNotFound indicates that the requested attempt record does not exist.
	ErrRecordNotFound = fmt.Errorf("%w: task record", ErrNotFound)

	// ErrChallengeNotFound indicates that the requested challenge does not exist.
	ErrChallengeNotFound = fmt.Errorf("%w: challenge", ErrNotFound)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}
