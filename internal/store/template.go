package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/inkgrove/inkgrove-api/internal/domain"
)

// TemplateStore defines the interface for task template persistence.
// Templates are read-mostly: the engine only ever bumps use counters.
type TemplateStore interface {
	// RandomActive returns up to limit active templates of the given kind,
	// drawn uniformly at random without replacement.
	RandomActive(ctx context.Context, kind domain.TaskKind, limit int) ([]*domain.TaskTemplate, error)

	// IncrementUseCounts bumps the use counter of each given template.
	// Run within the same transaction as the task insert so a crash cannot
	// leave task rows without their counter bumps.
	IncrementUseCounts(ctx context.Context, ids []uuid.UUID) error

	// WithTx returns a new TemplateStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller.
	WithTx(tx *sql.Tx) TemplateStore
}
