package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"

	"tasker/internal/constants"
)

//go:embed migrations/sqlite3/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// Migrate applies all pending migrations for the driver and returns the
// number applied.
func Migrate(ctx context.Context, db *sql.DB, driver string) (int, error) {
	var (
		dialect goose.Dialect
		dir     string
	)
	switch driver {
	case constants.DriverSQLite:
		dialect, dir = goose.DialectSQLite3, "migrations/sqlite3"
	case constants.DriverPostgres:
		dialect, dir = goose.DialectPostgres, "migrations/postgres"
	default:
		return 0, fmt.Errorf("unsupported database driver %q", driver)
	}

	sub, err := fs.Sub(migrationsFS, dir)
	if err != nil {
		return 0, fmt.Errorf("failed to open migrations: %w", err)
	}
	provider, err := goose.NewProvider(dialect, db, sub)
	if err != nil {
		return 0, fmt.Errorf("failed to create migration provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to run migrations: %w", err)
	}
	return len(results), nil
}
