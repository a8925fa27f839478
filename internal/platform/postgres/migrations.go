package postgres

import (
	"embed"
	"io/fs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrationsFS returns the embedded goose migrations. Callers pass it to
// goose with "migrations" as the directory.
func MigrationsFS() fs.FS {
	return migrationsFS
}
