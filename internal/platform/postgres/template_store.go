package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/inkgrove/inkgrove-api/internal/domain"
	"github.com/inkgrove/inkgrove-api/internal/store"
)

// PostgresTemplateStore implements the store.TemplateStore interface using
// a PostgreSQL database as the storage backend.
type PostgresTemplateStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTemplateStore creates a new PostgreSQL implementation of the
// TemplateStore interface. If logger is nil, a default logger is used.
func NewPostgresTemplateStore(db store.DBTX, logger *slog.Logger) *PostgresTemplateStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresTemplateStore{
		db:     db,
		logger: logger.With(slog.String("component", "template_store")),
	}
}

// Ensure PostgresTemplateStore implements store.TemplateStore
var _ store.TemplateStore = (*PostgresTemplateStore)(nil)

const templateColumns = `id, code, kind, title, description, requirements, category,
	prompt_kind, time_limit, word_limit_min, word_limit_max, xp_reward, attr_reward,
	difficulty, tags, is_active, use_count, created_at`

// RandomActive implements store.TemplateStore.RandomActive. The draw uses
// ORDER BY random(); the template bank is small enough that this stays
// cheap.
func (s *PostgresTemplateStore) RandomActive(ctx context.Context, kind domain.TaskKind, limit int) ([]*domain.TaskTemplate, error) {
	if limit <= 0 {
		return nil, nil
	}

	query := `
		SELECT ` + templateColumns + `
		FROM task_templates
		WHERE kind = $1 AND is_active = TRUE
		ORDER BY random()
		LIMIT $2
	`

	rows, err := s.db.QueryContext(ctx, query, kind, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query random templates: %w", mapError(err, store.ErrTemplateNotFound))
	}
	defer func() { _ = rows.Close() }()

	var templates []*domain.TaskTemplate
	for rows.Next() {
		tmpl, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan template row: %w", err)
		}
		templates = append(templates, tmpl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate template rows: %w", err)
	}
	return templates, nil
}

// IncrementUseCounts implements store.TemplateStore.IncrementUseCounts.
func (s *PostgresTemplateStore) IncrementUseCounts(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	query := `
		UPDATE task_templates
		SET use_count = use_count + 1
		WHERE id = ANY($1)
	`

	if _, err := s.db.ExecContext(ctx, query, ids); err != nil {
		return fmt.Errorf("failed to increment template use counts: %w", mapError(err, store.ErrTemplateNotFound))
	}
	return nil
}

// WithTx implements store.TemplateStore.WithTx.
func (s *PostgresTemplateStore) WithTx(tx *sql.Tx) store.TemplateStore {
	return &PostgresTemplateStore{
		db:     tx,
		logger: s.logger,
	}
}

// scanTemplate reads one template row. Nullable text columns come back as
// sql.NullString and collapse to the zero value.
func scanTemplate(rows *sql.Rows) (*domain.TaskTemplate, error) {
	var tmpl domain.TaskTemplate
	var requirements, promptKind, tags sql.NullString
	if err := rows.Scan(
		&tmpl.ID,
		&tmpl.Code,
		&tmpl.Kind,
		&tmpl.Title,
		&tmpl.Description,
		&requirements,
		&tmpl.Category,
		&promptKind,
		&tmpl.TimeLimit,
		&tmpl.WordLimitMin,
		&tmpl.WordLimitMax,
		&tmpl.XPReward,
		&tmpl.AttrReward,
		&tmpl.Difficulty,
		&tags,
		&tmpl.IsActive,
		&tmpl.UseCount,
		&tmpl.CreatedAt,
	); err != nil {
		return nil, err
	}
	tmpl.Requirements = requirements.String
	tmpl.PromptKind = domain.PromptKind(promptKind.String)
	tmpl.Tags = tags.String
	return &tmpl, nil
}
