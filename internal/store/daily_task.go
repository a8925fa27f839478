package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/inkgrove/inkgrove-api/internal/domain"
)

// SourceKindCount is one (source, kind) bucket of a day's pool, used by the
// scheduler status report.
type SourceKindCount struct {
	Source domain.TaskSource
	Kind   domain.TaskKind
	Count  int
}

// DailyTaskStore defines the interface for daily task persistence.
// Dates are calendar days formatted YYYY-MM-DD.
type DailyTaskStore interface {
	// GetByID retrieves a task by its unique ID.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.DailyTask, error)

	// ListByDate returns the tasks for a date ordered by sort position.
	// An empty kind returns all kinds.
	ListByDate(ctx context.Context, date string, kind domain.TaskKind) ([]*domain.DailyTask, error)

	// CountByDate returns the total number of tasks for a date.
	CountByDate(ctx context.Context, date string) (int, error)

	// CountByDateAndSource returns the number of tasks for a date from the
	// given source.
	CountByDateAndSource(ctx context.Context, date string, source domain.TaskSource) (int, error)

	// CategoryCounts returns the number of tasks per skill category for a
	// date. Categories with no tasks are absent from the map.
	CategoryCounts(ctx context.Context, date string) (map[domain.SkillCategory]int, error)

	// KindCounts returns the number of tasks per kind for a date.
	KindCounts(ctx context.Context, date string) (map[domain.TaskKind]int, error)

	// RecentFingerprints returns the set of content fingerprints of all
	// tasks dated on or after the given date. Used for the trailing-window
	// dedup check.
	RecentFingerprints(ctx context.Context, sinceDate string) (map[string]struct{}, error)

	// NextSortOrder returns the sort position the next inserted task for
	// the date should take (max existing position plus one, zero for an
	// empty day).
	NextSortOrder(ctx context.Context, date string) (int, error)

	// LatestCreatedAt returns the creation time of the newest task for the
	// date, or nil if the date has no tasks.
	LatestCreatedAt(ctx context.Context, date string) (*time.Time, error)

	// CreateMultiple saves a batch of tasks. Run within a transaction when
	// the batch must be atomic with other writes (template counter bumps).
	CreateMultiple(ctx context.Context, tasks []*domain.DailyTask) error

	// MarkClaimed sets the claimed flag. The flag is monotonic: it is set
	// exactly once and never cleared.
	// Returns ErrTaskNotFound if the task does not exist.
	MarkClaimed(ctx context.Context, id uuid.UUID) error

	// MarkCompleted sets the completed flag, monotonically.
	// Returns ErrTaskNotFound if the task does not exist.
	MarkCompleted(ctx context.Context, id uuid.UUID) error

	// SourceKindCounts returns the per-(source, kind) bucket sizes for a date.
	SourceKindCounts(ctx context.Context, date string) ([]SourceKindCount, error)

	// LastCreatedBySource returns the creation time of the newest task from
	// the given source across all dates, or nil if none exists.
	LastCreatedBySource(ctx context.Context, source domain.TaskSource) (*time.Time, error)

	// DeleteExpired removes tasks dated before the cutoff unless they are
	// linked to a completed attempt record. Returns the number of rows
	// removed.
	DeleteExpired(ctx context.Context, cutoffDate string) (int64, error)

	// WithTx returns a new DailyTaskStore instance that uses the provided
	// transaction.
	WithTx(tx *sql.Tx) DailyTaskStore
}
