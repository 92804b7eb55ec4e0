package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"tasker/internal/constants"
)

// Options configures the connection pool.
type Options struct {
	MaxOpenConns int
	MaxIdleConns int
}

// Open opens a database for the given driver ("sqlite3" or "pgx") and checks
// that it is reachable.
//
// SQLite connections get foreign keys, WAL, a busy timeout and
// _txlock=immediate so every transaction takes the write lock up front; the
// token renewal transaction relies on that to serialize competing renewals.
func Open(ctx context.Context, driver, dsn string, opts Options) (*sql.DB, error) {
	switch driver {
	case constants.DriverSQLite:
		dsn = sqliteDSN(dsn)
	case constants.DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// sqliteDSN appends the connection parameters we depend on unless the caller
// already set them.
func sqliteDSN(dsn string) string {
	params := []struct{ key, value string }{
		{"_foreign_keys", "on"},
		{"_journal_mode", "WAL"},
		{"_busy_timeout", fmt.Sprint(constants.SQLiteBusyTimeoutMs)},
		{"_txlock", "immediate"},
	}
	base, query, _ := strings.Cut(dsn, "?")
	values, err := url.ParseQuery(query)
	if err != nil {
		values = url.Values{}
	}
	for _, p := range params {
		if values.Get(p.key) == "" {
			values.Set(p.key, p.value)
		}
	}
	return base + "?" + values.Encode()
}
