package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/inkgrove/inkgrove-api/internal/domain"
)

// KindStats aggregates attempt records for one task kind.
type KindStats struct {
	Kind       domain.TaskKind
	Total      int
	Completed  int
	TotalWords int
	AvgScore   float64
	TotalXP    int
}

// CategoryStats aggregates completed attempt records for one skill category.
type CategoryStats struct {
	Category domain.SkillCategory
	Count    int
	AvgScore float64
}

// RecordStore defines the interface for task attempt record persistence.
type RecordStore interface {
	// Create saves a new attempt record.
	Create(ctx context.Context, record *domain.TaskRecord) error

	// GetByID retrieves a record by its unique ID.
	// Returns ErrRecordNotFound if the record does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.TaskRecord, error)

	// LatestByTask returns the most recently created record for a task.
	// Returns ErrRecordNotFound if the task has no records.
	LatestByTask(ctx context.Context, taskID uuid.UUID) (*domain.TaskRecord, error)

	// SaveDraft persists draft content, word count, and time spent without
	// a state transition.
	// Returns ErrRecordNotFound if the record does not exist.
	SaveDraft(ctx context.Context, id uuid.UUID, content string, wordCount, timeSpent int) error

	// MarkSubmitted transitions a record to submitted and persists the
	// final content, word count, time spent, and submission timestamp.
	// Returns ErrRecordNotFound if the record does not exist.
	MarkSubmitted(ctx context.Context, id uuid.UUID, content string, wordCount, timeSpent int, submittedAt time.Time) error

	// Complete transitions a record to completed with its score. Feedback
	// may be nil when evaluation failed and a fallback score was assigned.
	// Returns ErrRecordNotFound if the record does not exist.
	Complete(ctx context.Context, id uuid.UUID, score int, feedback json.RawMessage) error

	// SetReward persists the XP and attribute amounts earned by a
	// completed record.
	// Returns ErrRecordNotFound if the record does not exist.
	SetReward(ctx context.Context, id uuid.UUID, xpEarned, attrEarned int, category domain.SkillCategory) error

	// StatsByKindSince aggregates records created on or after the date,
	// grouped by kind. Pass an empty date for all-time aggregates.
	StatsByKindSince(ctx context.Context, sinceDate string) ([]KindStats, error)

	// StatsByCategory aggregates completed records grouped by skill
	// category.
	StatsByCategory(ctx context.Context) ([]CategoryStats, error)

	// DeleteStaleIncomplete removes non-completed records created before
	// the cutoff. Completed records are retained indefinitely.
	DeleteStaleIncomplete(ctx context.Context, cutoff time.Time) (int64, error)

	// WithTx returns a new RecordStore instance that uses the provided
	// transaction.
	WithTx(tx *sql.Tx) RecordStore
}
