package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/inkgrove/inkgrove-api/internal/domain"
	"github.com/inkgrove/inkgrove-api/internal/store"
)

// PostgresChallengeStore implements the store.ChallengeStore interface
// using a PostgreSQL database as the storage backend.
type PostgresChallengeStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresChallengeStore creates a new PostgreSQL implementation of the
// ChallengeStore interface. If logger is nil, a default logger is used.
func NewPostgresChallengeStore(db store.DBTX, logger *slog.Logger) *PostgresChallengeStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresChallengeStore{
		db:     db,
		logger: logger.With(slog.String("component", "challenge_store")),
	}
}

// Ensure PostgresChallengeStore implements store.ChallengeStore
var _ store.ChallengeStore = (*PostgresChallengeStore)(nil)

const dailyChallengeColumns = `id, challenge_date, type, title, description, target_value,
	current_value, xp_reward, is_completed, completed_at, created_at`

// GetDailyByDate implements store.ChallengeStore.GetDailyByDate.
func (s *PostgresChallengeStore) GetDailyByDate(ctx context.Context, date string) (*domain.DailyChallenge, error) {
	query := `SELECT ` + dailyChallengeColumns + ` FROM daily_challenges WHERE challenge_date = $1`

	challenge, err := scanDailyChallenge(s.db.QueryRowContext(ctx, query, date))
	if err != nil {
		return nil, fmt.Errorf("failed to get daily challenge: %w", mapError(err, store.ErrChallengeNotFound))
	}
	return challenge, nil
}

// GetActiveDaily implements store.ChallengeStore.GetActiveDaily.
func (s *PostgresChallengeStore) GetActiveDaily(ctx context.Context, date string) (*domain.DailyChallenge, error) {
	query := `
		SELECT ` + dailyChallengeColumns + `
		FROM daily_challenges
		WHERE challenge_date = $1 AND is_completed = FALSE
	`
	challenge, err := scanDailyChallenge(s.db.QueryRowContext(ctx, query, date))
	if err != nil {
		return nil, fmt.Errorf("failed to get active daily challenge: %w", mapError(err, store.ErrChallengeNotFound))
	}
	return challenge, nil
}

// CreateDaily implements store.ChallengeStore.CreateDaily.
func (s *PostgresChallengeStore) CreateDaily(ctx context.Context, challenge *domain.DailyChallenge) error {
	query := `
		INSERT INTO daily_challenges (` + dailyChallengeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.db.ExecContext(ctx, query,
		challenge.ID,
		challenge.ChallengeDate,
		challenge.Type,
		challenge.Title,
		challenge.Description,
		challenge.TargetValue,
		challenge.CurrentValue,
		challenge.XPReward,
		challenge.IsCompleted,
		challenge.CompletedAt,
		challenge.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert daily challenge: %w", mapError(err, store.ErrChallengeNotFound))
	}
	return nil
}

// UpdateDailyProgress implements store.ChallengeStore.UpdateDailyProgress.
func (s *PostgresChallengeStore) UpdateDailyProgress(ctx context.Context, id uuid.UUID, currentValue int, isCompleted bool, completedAt *time.Time) error {
	query := `
		UPDATE daily_challenges
		SET current_value = $1, is_completed = $2, completed_at = $3
		WHERE id = $4
	`
	result, err := s.db.ExecContext(ctx, query, currentValue, isCompleted, completedAt, id)
	if err != nil {
		return fmt.Errorf("failed to update challenge progress: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrChallengeNotFound
	}
	return nil
}

const weeklyChallengeColumns = `id, week_start, week_end, title, theme, description,
	requirements, word_limit_min, word_limit_max, xp_reward, is_active, created_at`

// GetWeeklyByStart implements store.ChallengeStore.GetWeeklyByStart.
func (s *PostgresChallengeStore) GetWeeklyByStart(ctx context.Context, weekStart string) (*domain.WeeklyChallenge, error) {
	query := `
		SELECT ` + weeklyChallengeColumns + `
		FROM weekly_challenges
		WHERE week_start = $1 AND is_active = TRUE
	`

	var challenge domain.WeeklyChallenge
	var start, end time.Time
	var theme, requirements sql.NullString
	err := s.db.QueryRowContext(ctx, query, weekStart).Scan(
		&challenge.ID,
		&start,
		&end,
		&challenge.Title,
		&theme,
		&challenge.Description,
		&requirements,
		&challenge.WordLimitMin,
		&challenge.WordLimitMax,
		&challenge.XPReward,
		&challenge.IsActive,
		&challenge.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get weekly challenge: %w", mapError(err, store.ErrChallengeNotFound))
	}
	challenge.WeekStart = start.Format("2006-01-02")
	challenge.WeekEnd = end.Format("2006-01-02")
	challenge.Theme = theme.String
	challenge.Requirements = requirements.String
	return &challenge, nil
}

// CreateWeekly implements store.ChallengeStore.CreateWeekly.
func (s *PostgresChallengeStore) CreateWeekly(ctx context.Context, challenge *domain.WeeklyChallenge) error {
	query := `
		INSERT INTO weekly_challenges (` + weeklyChallengeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := s.db.ExecContext(ctx, query,
		challenge.ID,
		challenge.WeekStart,
		challenge.WeekEnd,
		challenge.Title,
		nullString(challenge.Theme),
		challenge.Description,
		nullString(challenge.Requirements),
		challenge.WordLimitMin,
		challenge.WordLimitMax,
		challenge.XPReward,
		challenge.IsActive,
		challenge.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert weekly challenge: %w", mapError(err, store.ErrChallengeNotFound))
	}
	return nil
}

const weeklySubmissionColumns = `id, challenge_id, status, content, word_count, score,
	ai_feedback, created_at, updated_at`

// LatestWeeklySubmission implements store.ChallengeStore.LatestWeeklySubmission.
func (s *PostgresChallengeStore) LatestWeeklySubmission(ctx context.Context, challengeID uuid.UUID) (*domain.WeeklySubmission, error) {
	query := `
		SELECT ` + weeklySubmissionColumns + `
		FROM weekly_submissions
		WHERE challenge_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	var sub domain.WeeklySubmission
	var score sql.NullInt64
	err := s.db.QueryRowContext(ctx, query, challengeID).Scan(
		&sub.ID,
		&sub.ChallengeID,
		&sub.Status,
		&sub.Content,
		&sub.WordCount,
		&score,
		&sub.AIFeedback,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get weekly submission: %w", mapError(err, store.ErrRecordNotFound))
	}
	if score.Valid {
		v := int(score.Int64)
		sub.Score = &v
	}
	return &sub, nil
}

// CreateWeeklySubmission implements store.ChallengeStore.CreateWeeklySubmission.
func (s *PostgresChallengeStore) CreateWeeklySubmission(ctx context.Context, submission *domain.WeeklySubmission) error {
	query := `
		INSERT INTO weekly_submissions (` + weeklySubmissionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		submission.ID,
		submission.ChallengeID,
		submission.Status,
		submission.Content,
		submission.WordCount,
		submission.Score,
		submission.AIFeedback,
		submission.CreatedAt,
		submission.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert weekly submission: %w", mapError(err, store.ErrRecordNotFound))
	}
	return nil
}

// CompleteWeeklySubmission implements store.ChallengeStore.CompleteWeeklySubmission.
func (s *PostgresChallengeStore) CompleteWeeklySubmission(ctx context.Context, id uuid.UUID, score int, feedback []byte) error {
	query := `
		UPDATE weekly_submissions
		SET status = 'completed', score = $1, ai_feedback = $2, updated_at = $3
		WHERE id = $4
	`
	result, err := s.db.ExecContext(ctx, query, score, feedback, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to complete weekly submission: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrRecordNotFound
	}
	return nil
}

// WithTx implements store.ChallengeStore.WithTx.
func (s *PostgresChallengeStore) WithTx(tx *sql.Tx) store.ChallengeStore {
	return &PostgresChallengeStore{
		db:     tx,
		logger: s.logger,
	}
}

func scanDailyChallenge(row rowScanner) (*domain.DailyChallenge, error) {
	var challenge domain.DailyChallenge
	var date time.Time
	var completedAt sql.NullTime
	if err := row.Scan(
		&challenge.ID,
		&date,
		&challenge.Type,
		&challenge.Title,
		&challenge.Description,
		&challenge.TargetValue,
		&challenge.CurrentValue,
		&challenge.XPReward,
		&challenge.IsCompleted,
		&completedAt,
		&challenge.CreatedAt,
	); err != nil {
		return nil, err
	}
	challenge.ChallengeDate = date.Format("2006-01-02")
	if completedAt.Valid {
		t := completedAt.Time.UTC()
		challenge.CompletedAt = &t
	}
	return &challenge, nil
}
