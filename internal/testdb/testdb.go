// Package testdb provides helpers for integration tests that need a real
// Postgres database. It depends only on the embedded migrations and the
// standard database packages, not on specific store implementations.
package testdb

import (
	"database/sql"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"

	"github.com/inkgrove/inkgrove-api/internal/platform/postgres"
)

// TestTimeout is the default timeout for test database operations.
const TestTimeout = 5 * time.Second

// URL returns the database URL for integration tests. It checks
// DATABASE_URL and INKGROVE_TEST_DB_URL in that order, returning the first
// non-empty value.
func URL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}
	return os.Getenv("INKGROVE_TEST_DB_URL")
}

// SkipIfNoDatabase skips the test when no test database URL is configured.
func SkipIfNoDatabase(t *testing.T) {
	t.Helper()
	if URL() == "" {
		t.Skip("skipping: DATABASE_URL or INKGROVE_TEST_DB_URL not set")
	}
}

// Open connects to the test database, applies the embedded migrations, and
// registers a cleanup that closes the connection.
func Open(t *testing.T) *sql.DB {
	t.Helper()
	SkipIfNoDatabase(t)

	db, err := sql.Open("pgx", URL())
	require.NoError(t, err, "failed to open test database")
	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})

	require.NoError(t, db.Ping(), "failed to ping test database")

	goose.SetLogger(&gooseLogger{t: t})
	goose.SetBaseFS(postgres.MigrationsFS())
	require.NoError(t, goose.SetDialect("postgres"))
	require.NoError(t, goose.Up(db, "migrations"), "failed to run migrations")

	return db
}

// Reset truncates all application tables so each test starts from an empty
// schema. Migration bookkeeping tables are left alone.
func Reset(t *testing.T, db *sql.DB) {
	t.Helper()

	tables := []string{
		"weekly_submissions",
		"weekly_challenges",
		"daily_challenges",
		"task_records",
		"daily_tasks",
		"task_templates",
		"ai_providers",
	}
	_, err := db.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", strings.Join(tables, ", ")))
	require.NoError(t, err, "failed to truncate test tables")
}

// gooseLogger routes goose output through the test log.
type gooseLogger struct {
	t *testing.T
}

func (l *gooseLogger) Printf(format string, v ...interface{}) {
	l.t.Logf("goose: %s", strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l *gooseLogger) Fatalf(format string, v ...interface{}) {
	l.t.Fatalf("goose: %s", strings.TrimSpace(fmt.Sprintf(format, v...)))
}
