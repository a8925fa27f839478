package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/inkgrove/inkgrove-api/internal/domain"
	"github.com/inkgrove/inkgrove-api/internal/store"
)

// PostgresRecordStore implements the store.RecordStore interface using a
// PostgreSQL database as the storage backend.
type PostgresRecordStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresRecordStore creates a new PostgreSQL implementation of the
// RecordStore interface. If logger is nil, a default logger is used.
func NewPostgresRecordStore(db store.DBTX, logger *slog.Logger) *PostgresRecordStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresRecordStore{
		db:     db,
		logger: logger.With(slog.String("component", "record_store")),
	}
}

// Ensure PostgresRecordStore implements store.RecordStore
var _ store.RecordStore = (*PostgresRecordStore)(nil)

const recordColumns = `id, task_id, kind, status, content, word_count, time_spent, score,
	ai_feedback, xp_earned, attr_earned, category, submitted_at, created_at, updated_at`

// Create implements store.RecordStore.Create.
func (s *PostgresRecordStore) Create(ctx context.Context, record *domain.TaskRecord) error {
	query := `
		INSERT INTO task_records (` + recordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := s.db.ExecContext(ctx, query,
		record.ID,
		record.TaskID,
		record.Kind,
		record.Status,
		record.Content,
		record.WordCount,
		record.TimeSpent,
		record.Score,
		[]byte(record.AIFeedback),
		record.XPEarned,
		record.AttrEarned,
		nullString(string(record.Category)),
		record.SubmittedAt,
		record.CreatedAt,
		record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert task record: %w", mapError(err, store.ErrRecordNotFound))
	}
	return nil
}

// GetByID implements store.RecordStore.GetByID.
func (s *PostgresRecordStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.TaskRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM task_records WHERE id = $1`

	record, err := scanRecord(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get record by ID: %w", mapError(err, store.ErrRecordNotFound))
	}
	return record, nil
}

// LatestByTask implements store.RecordStore.LatestByTask.
func (s *PostgresRecordStore) LatestByTask(ctx context.Context, taskID uuid.UUID) (*domain.TaskRecord, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM task_records
		WHERE task_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	record, err := scanRecord(s.db.QueryRowContext(ctx, query, taskID))
	if err != nil {
		return nil, fmt.Errorf("failed to get latest record for task: %w", mapError(err, store.ErrRecordNotFound))
	}
	return record, nil
}

// SaveDraft implements store.RecordStore.SaveDraft.
func (s *PostgresRecordStore) SaveDraft(ctx context.Context, id uuid.UUID, content string, wordCount, timeSpent int) error {
	query := `
		UPDATE task_records
		SET content = $1, word_count = $2, time_spent = $3, updated_at = $4
		WHERE id = $5
	`
	return s.execExpectingRow(ctx, query, content, wordCount, timeSpent, time.Now().UTC(), id)
}

// MarkSubmitted implements store.RecordStore.MarkSubmitted.
func (s *PostgresRecordStore) MarkSubmitted(ctx context.Context, id uuid.UUID, content string, wordCount, timeSpent int, submittedAt time.Time) error {
	query := `
		UPDATE task_records
		SET status = 'submitted', content = $1, word_count = $2, time_spent = $3,
		    submitted_at = $4, updated_at = $5
		WHERE id = $6
	`
	return s.execExpectingRow(ctx, query, content, wordCount, timeSpent, submittedAt, time.Now().UTC(), id)
}

// Complete implements store.RecordStore.Complete.
func (s *PostgresRecordStore) Complete(ctx context.Context, id uuid.UUID, score int, feedback json.RawMessage) error {
	query := `
		UPDATE task_records
		SET status = 'completed', score = $1, ai_feedback = $2, updated_at = $3
		WHERE id = $4
	`
	return s.execExpectingRow(ctx, query, score, []byte(feedback), time.Now().UTC(), id)
}

// SetReward implements store.RecordStore.SetReward.
func (s *PostgresRecordStore) SetReward(ctx context.Context, id uuid.UUID, xpEarned, attrEarned int, category domain.SkillCategory) error {
	query := `
		UPDATE task_records
		SET xp_earned = $1, attr_earned = $2, category = $3, updated_at = $4
		WHERE id = $5
	`
	return s.execExpectingRow(ctx, query, xpEarned, attrEarned, nullString(string(category)), time.Now().UTC(), id)
}

// StatsByKindSince implements store.RecordStore.StatsByKindSince.
func (s *PostgresRecordStore) StatsByKindSince(ctx context.Context, sinceDate string) ([]store.KindStats, error) {
	query := `
		SELECT kind,
		       COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'completed'),
		       COALESCE(SUM(word_count), 0),
		       COALESCE(AVG(score) FILTER (WHERE score IS NOT NULL), 0),
		       COALESCE(SUM(xp_earned), 0)
		FROM task_records
	`
	var args []any
	if sinceDate != "" {
		query += ` WHERE created_at >= $1`
		args = append(args, sinceDate)
	}
	query += ` GROUP BY kind ORDER BY kind`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query kind stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var stats []store.KindStats
	for rows.Next() {
		var st store.KindStats
		if err := rows.Scan(&st.Kind, &st.Total, &st.Completed, &st.TotalWords, &st.AvgScore, &st.TotalXP); err != nil {
			return nil, fmt.Errorf("failed to scan kind stats: %w", err)
		}
		stats = append(stats, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate kind stats: %w", err)
	}
	return stats, nil
}

// StatsByCategory implements store.RecordStore.StatsByCategory.
func (s *PostgresRecordStore) StatsByCategory(ctx context.Context) ([]store.CategoryStats, error) {
	query := `
		SELECT category,
		       COUNT(*),
		       COALESCE(AVG(score) FILTER (WHERE score IS NOT NULL), 0)
		FROM task_records
		WHERE status = 'completed' AND category IS NOT NULL
		GROUP BY category
		ORDER BY category
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query category stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var stats []store.CategoryStats
	for rows.Next() {
		var st store.CategoryStats
		if err := rows.Scan(&st.Category, &st.Count, &st.AvgScore); err != nil {
			return nil, fmt.Errorf("failed to scan category stats: %w", err)
		}
		stats = append(stats, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate category stats: %w", err)
	}
	return stats, nil
}

// DeleteStaleIncomplete implements store.RecordStore.DeleteStaleIncomplete.
func (s *PostgresRecordStore) DeleteStaleIncomplete(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM task_records WHERE status <> 'completed' AND created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale records: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return removed, nil
}

// WithTx implements store.RecordStore.WithTx.
func (s *PostgresRecordStore) WithTx(tx *sql.Tx) store.RecordStore {
	return &PostgresRecordStore{
		db:     tx,
		logger: s.logger,
	}
}

// execExpectingRow runs an update that must hit exactly one record.
func (s *PostgresRecordStore) execExpectingRow(ctx context.Context, query string, args ...any) error {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update task record: %w", mapError(err, store.ErrRecordNotFound))
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

func scanRecord(row rowScanner) (*domain.TaskRecord, error) {
	var record domain.TaskRecord
	var score sql.NullInt64
	var feedback []byte
	var category sql.NullString
	var submittedAt sql.NullTime
	if err := row.Scan(
		&record.ID,
		&record.TaskID,
		&record.Kind,
		&record.Status,
		&record.Content,
		&record.WordCount,
		&record.TimeSpent,
		&score,
		&feedback,
		&record.XPEarned,
		&record.AttrEarned,
		&category,
		&submittedAt,
		&record.CreatedAt,
		&record.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if score.Valid {
		v := int(score.Int64)
		record.Score = &v
	}
	if len(feedback) > 0 {
		record.AIFeedback = json.RawMessage(feedback)
	}
	record.Category = domain.SkillCategory(category.String)
	if submittedAt.Valid {
		t := submittedAt.Time.UTC()
		record.SubmittedAt = &t
	}
	return &record, nil
}
