package postgres

import (
	"context"
	"fmt"

	"github.com/inkgrove/inkgrove-api/internal/store"
)

// PostgresProviderStore implements the store.ProviderStore interface. The
// ai_providers table is the operational switch for AI generation: flipping
// every row inactive turns the feature off without a redeploy.
type PostgresProviderStore struct {
	db store.DBTX
}

// NewPostgresProviderStore creates a new PostgreSQL implementation of the
// ProviderStore interface.
func NewPostgresProviderStore(db store.DBTX) *PostgresProviderStore {
	if db == nil {
		panic("db cannot be nil")
	}
	return &PostgresProviderStore{db: db}
}

// Ensure PostgresProviderStore implements store.ProviderStore
var _ store.ProviderStore = (*PostgresProviderStore)(nil)

// HasActiveProvider implements store.ProviderStore.HasActiveProvider.
func (s *PostgresProviderStore) HasActiveProvider(ctx context.Context) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM ai_providers WHERE is_active = TRUE OR is_default = TRUE)`).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check active providers: %w", err)
	}
	return exists, nil
}
