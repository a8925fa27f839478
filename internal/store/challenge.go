package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/inkgrove/inkgrove-api/internal/domain"
)

// ChallengeStore defines the interface for daily and weekly challenge
// persistence.
type ChallengeStore interface {
	// GetDailyByDate retrieves the challenge for a date regardless of
	// completion state.
	// Returns ErrChallengeNotFound if no challenge exists for the date.
	GetDailyByDate(ctx context.Context, date string) (*domain.DailyChallenge, error)

	// GetActiveDaily retrieves the incomplete challenge for a date.
	// Returns ErrChallengeNotFound if none exists or the challenge is
	// already completed; completed challenges are never updated again.
	GetActiveDaily(ctx context.Context, date string) (*domain.DailyChallenge, error)

	// CreateDaily saves a new daily challenge.
	CreateDaily(ctx context.Context, challenge *domain.DailyChallenge) error

	// UpdateDailyProgress persists accumulated progress and, when crossed,
	// the completion flag and timestamp.
	// Returns ErrChallengeNotFound if the challenge does not exist.
	UpdateDailyProgress(ctx context.Context, id uuid.UUID, currentValue int, isCompleted bool, completedAt *time.Time) error

	// GetWeeklyByStart retrieves the active weekly challenge keyed by its
	// ISO-week Monday.
	// Returns ErrChallengeNotFound if none exists.
	GetWeeklyByStart(ctx context.Context, weekStart string) (*domain.WeeklyChallenge, error)

	// CreateWeekly saves a new weekly challenge.
	CreateWeekly(ctx context.Context, challenge *domain.WeeklyChallenge) error

	// LatestWeeklySubmission returns the most recent submission linked to a
	// weekly challenge.
	// Returns ErrRecordNotFound if the challenge has no submissions.
	LatestWeeklySubmission(ctx context.Context, challengeID uuid.UUID) (*domain.WeeklySubmission, error)

	// CreateWeeklySubmission saves a new submission against a weekly
	// challenge. A challenge holds at most one submission; a second insert
	// returns ErrDuplicate.
	CreateWeeklySubmission(ctx context.Context, submission *domain.WeeklySubmission) error

	// CompleteWeeklySubmission transitions a submission to completed with
	// its score and feedback.
	// Returns ErrRecordNotFound if the submission does not exist.
	CompleteWeeklySubmission(ctx context.Context, id uuid.UUID, score int, feedback []byte) error

	// WithTx returns a new ChallengeStore instance that uses the provided
	// transaction.
	WithTx(tx *sql.Tx) ChallengeStore
}

// ProviderStore reports on configured AI providers. Generation is skipped
// entirely when no provider is active.
type ProviderStore interface {
	// HasActiveProvider reports whether at least one provider row is
	// marked active or default.
	HasActiveProvider(ctx context.Context) (bool, error)
}
