package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/inkgrove/inkgrove-api/internal/domain"
	"github.com/inkgrove/inkgrove-api/internal/platform/logger"
	"github.com/inkgrove/inkgrove-api/internal/store"
)

// PostgresDailyTaskStore implements the store.DailyTaskStore interface
// using a PostgreSQL database as the storage backend.
type PostgresDailyTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresDailyTaskStore creates a new PostgreSQL implementation of the
// DailyTaskStore interface. If logger is nil, a default logger is used.
func NewPostgresDailyTaskStore(db store.DBTX, logger *slog.Logger) *PostgresDailyTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresDailyTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "daily_task_store")),
	}
}

// Ensure PostgresDailyTaskStore implements store.DailyTaskStore
var _ store.DailyTaskStore = (*PostgresDailyTaskStore)(nil)

const dailyTaskColumns = `id, task_date, template_id, kind, title, description, requirements,
	prompt_kind, time_limit, word_limit_min, word_limit_max, category, xp_reward, attr_reward,
	difficulty, source, fingerprint, sort_order, is_claimed, is_completed, created_at`

// GetByID implements store.DailyTaskStore.GetByID.
func (s *PostgresDailyTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.DailyTask, error) {
	query := `SELECT ` + dailyTaskColumns + ` FROM daily_tasks WHERE id = $1`

	task, err := scanDailyTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get task by ID: %w", mapError(err, store.ErrTaskNotFound))
	}
	return task, nil
}

// ListByDate implements store.DailyTaskStore.ListByDate.
func (s *PostgresDailyTaskStore) ListByDate(ctx context.Context, date string, kind domain.TaskKind) ([]*domain.DailyTask, error) {
	query := `SELECT ` + dailyTaskColumns + ` FROM daily_tasks WHERE task_date = $1`
	args := []any{date}
	if kind != "" {
		query += ` AND kind = $2`
		args = append(args, kind)
	}
	query += ` ORDER BY sort_order ASC, created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks by date: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []*domain.DailyTask
	for rows.Next() {
		task, err := scanDailyTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task row: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate task rows: %w", err)
	}
	return tasks, nil
}

// CountByDate implements store.DailyTaskStore.CountByDate.
func (s *PostgresDailyTaskStore) CountByDate(ctx context.Context, date string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM daily_tasks WHERE task_date = $1`, date).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count tasks by date: %w", err)
	}
	return count, nil
}

// CountByDateAndSource implements store.DailyTaskStore.CountByDateAndSource.
func (s *PostgresDailyTaskStore) CountByDateAndSource(ctx context.Context, date string, source domain.TaskSource) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM daily_tasks WHERE task_date = $1 AND source = $2`, date, source).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count tasks by source: %w", err)
	}
	return count, nil
}

// CategoryCounts implements store.DailyTaskStore.CategoryCounts.
func (s *PostgresDailyTaskStore) CategoryCounts(ctx context.Context, date string) (map[domain.SkillCategory]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT category, COUNT(*) FROM daily_tasks WHERE task_date = $1 GROUP BY category`, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query category counts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[domain.SkillCategory]int)
	for rows.Next() {
		var category domain.SkillCategory
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, fmt.Errorf("failed to scan category count: %w", err)
		}
		counts[category] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate category counts: %w", err)
	}
	return counts, nil
}

// KindCounts implements store.DailyTaskStore.KindCounts.
func (s *PostgresDailyTaskStore) KindCounts(ctx context.Context, date string) (map[domain.TaskKind]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, COUNT(*) FROM daily_tasks WHERE task_date = $1 GROUP BY kind`, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query kind counts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[domain.TaskKind]int)
	for rows.Next() {
		var kind domain.TaskKind
		var count int
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, fmt.Errorf("failed to scan kind count: %w", err)
		}
		counts[kind] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate kind counts: %w", err)
	}
	return counts, nil
}

// RecentFingerprints implements store.DailyTaskStore.RecentFingerprints.
func (s *PostgresDailyTaskStore) RecentFingerprints(ctx context.Context, sinceDate string) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT fingerprint FROM daily_tasks WHERE task_date >= $1`, sinceDate)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent fingerprints: %w", err)
	}
	defer func() { _ = rows.Close() }()

	fingerprints := make(map[string]struct{})
	for rows.Next() {
		var fp string
		if err := rows.Scan(&fp); err != nil {
			return nil, fmt.Errorf("failed to scan fingerprint: %w", err)
		}
		fingerprints[fp] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate fingerprints: %w", err)
	}
	return fingerprints, nil
}

// NextSortOrder implements store.DailyTaskStore.NextSortOrder.
func (s *PostgresDailyTaskStore) NextSortOrder(ctx context.Context, date string) (int, error) {
	var next int
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(sort_order) + 1, 0) FROM daily_tasks WHERE task_date = $1`, date).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("failed to query next sort order: %w", err)
	}
	return next, nil
}

// LatestCreatedAt implements store.DailyTaskStore.LatestCreatedAt.
func (s *PostgresDailyTaskStore) LatestCreatedAt(ctx context.Context, date string) (*time.Time, error) {
	var latest sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(created_at) FROM daily_tasks WHERE task_date = $1`, date).Scan(&latest)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest creation time: %w", err)
	}
	if !latest.Valid {
		return nil, nil
	}
	t := latest.Time.UTC()
	return &t, nil
}

// CreateMultiple implements store.DailyTaskStore.CreateMultiple.
func (s *PostgresDailyTaskStore) CreateMultiple(ctx context.Context, tasks []*domain.DailyTask) error {
	if len(tasks) == 0 {
		return nil
	}
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO daily_tasks (` + dailyTaskColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	`

	stmt, err := s.db.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare task insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, task := range tasks {
		if err := task.Validate(); err != nil {
			return err
		}
		_, err := stmt.ExecContext(ctx,
			task.ID,
			task.TaskDate,
			task.TemplateID,
			task.Kind,
			task.Title,
			task.Description,
			nullString(task.Requirements),
			task.PromptKind,
			task.TimeLimit,
			task.WordLimitMin,
			task.WordLimitMax,
			task.Category,
			task.XPReward,
			task.AttrReward,
			task.Difficulty,
			task.Source,
			task.Fingerprint,
			task.SortOrder,
			task.IsClaimed,
			task.IsCompleted,
			task.CreatedAt,
		)
		if err != nil {
			log.Error("failed to insert daily task",
				slog.String("task_id", task.ID.String()),
				slog.String("error", err.Error()))
			return fmt.Errorf("failed to insert daily task: %w", mapError(err, store.ErrTaskNotFound))
		}
	}
	return nil
}

// MarkClaimed implements store.DailyTaskStore.MarkClaimed.
func (s *PostgresDailyTaskStore) MarkClaimed(ctx context.Context, id uuid.UUID) error {
	return s.setFlag(ctx, id, "is_claimed")
}

// MarkCompleted implements store.DailyTaskStore.MarkCompleted.
func (s *PostgresDailyTaskStore) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	return s.setFlag(ctx, id, "is_completed")
}

// setFlag sets a boolean column to true, once. The column name comes from
// the two callers above, never from input.
func (s *PostgresDailyTaskStore) setFlag(ctx context.Context, id uuid.UUID, column string) error {
	query := fmt.Sprintf(`UPDATE daily_tasks SET %s = TRUE WHERE id = $1`, column)
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", column, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrTaskNotFound
	}
	return nil
}

// SourceKindCounts implements store.DailyTaskStore.SourceKindCounts.
func (s *PostgresDailyTaskStore) SourceKindCounts(ctx context.Context, date string) ([]store.SourceKindCount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source, kind, COUNT(*) FROM daily_tasks WHERE task_date = $1 GROUP BY source, kind`, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query source/kind counts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var counts []store.SourceKindCount
	for rows.Next() {
		var c store.SourceKindCount
		if err := rows.Scan(&c.Source, &c.Kind, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan source/kind count: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate source/kind counts: %w", err)
	}
	return counts, nil
}

// LastCreatedBySource implements store.DailyTaskStore.LastCreatedBySource.
func (s *PostgresDailyTaskStore) LastCreatedBySource(ctx context.Context, source domain.TaskSource) (*time.Time, error) {
	var latest sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(created_at) FROM daily_tasks WHERE source = $1`, source).Scan(&latest)
	if err != nil {
		return nil, fmt.Errorf("failed to query last creation by source: %w", err)
	}
	if !latest.Valid {
		return nil, nil
	}
	t := latest.Time.UTC()
	return &t, nil
}

// DeleteExpired implements store.DailyTaskStore.DeleteExpired. Tasks with
// a completed attempt record survive the purge regardless of age.
func (s *PostgresDailyTaskStore) DeleteExpired(ctx context.Context, cutoffDate string) (int64, error) {
	query := `
		DELETE FROM daily_tasks
		WHERE task_date < $1
		  AND id NOT IN (
			SELECT task_id FROM task_records WHERE status = 'completed'
		  )
	`
	result, err := s.db.ExecContext(ctx, query, cutoffDate)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired tasks: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return removed, nil
}

// WithTx implements store.DailyTaskStore.WithTx.
func (s *PostgresDailyTaskStore) WithTx(tx *sql.Tx) store.DailyTaskStore {
	return &PostgresDailyTaskStore{
		db:     tx,
		logger: s.logger,
	}
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDailyTask(row rowScanner) (*domain.DailyTask, error) {
	var task domain.DailyTask
	var taskDate time.Time
	var templateID uuid.NullUUID
	var requirements sql.NullString
	if err := row.Scan(
		&task.ID,
		&taskDate,
		&templateID,
		&task.Kind,
		&task.Title,
		&task.Description,
		&requirements,
		&task.PromptKind,
		&task.TimeLimit,
		&task.WordLimitMin,
		&task.WordLimitMax,
		&task.Category,
		&task.XPReward,
		&task.AttrReward,
		&task.Difficulty,
		&task.Source,
		&task.Fingerprint,
		&task.SortOrder,
		&task.IsClaimed,
		&task.IsCompleted,
		&task.CreatedAt,
	); err != nil {
		return nil, err
	}
	task.TaskDate = taskDate.Format("2006-01-02")
	if templateID.Valid {
		id := templateID.UUID
		task.TemplateID = &id
	}
	task.Requirements = requirements.String
	return &task, nil
}

// nullString maps the empty string onto SQL NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
