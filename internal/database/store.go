package database

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"tasker/internal/constants"
)

// nowEpoch is replaced in every query with the driver's expression for the
// current unix time, so timestamps come from the database clock.
const nowEpoch = "NOW_EPOCH"

const pubIDInsertAttempts = 2

// Store provides all persistence for tasker. A Store created by InTx runs
// every statement inside that transaction.
type Store struct {
	db      *sql.DB
	conn    DBTX
	driver  string
	ids     *IDGenerator
	inTx    bool
	nowExpr string
}

// NewStore creates a store for db opened with driver.
func NewStore(db *sql.DB, driver string) *Store {
	s := &Store{
		db:     db,
		conn:   db,
		driver: driver,
		ids:    NewIDGenerator(),
	}
	switch driver {
	case constants.DriverPostgres:
		s.nowExpr = "CAST(EXTRACT(EPOCH FROM now()) AS BIGINT)"
	default:
		s.nowExpr = "CAST(strftime('%s','now') AS INTEGER)"
	}
	return s
}

// DB returns the underlying database handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Driver returns the database/sql driver name.
func (s *Store) Driver() string {
	return s.driver
}

// InTx runs fn with a store bound to a single transaction. Nested calls reuse
// the outer transaction.
func (s *Store) InTx(ctx context.Context, fn func(tx *Store) error) error {
	if s.inTx {
		return fn(s)
	}
	return WithTx(ctx, s.db, nil, func(ctx context.Context, tx DBTX) error {
		txStore := *s
		txStore.conn = tx
		txStore.inTx = true
		return fn(&txStore)
	})
}

// q rewrites a query written with ? placeholders and NOW_EPOCH for the
// current driver.
func (s *Store) q(query string) string {
	query = strings.ReplaceAll(query, nowEpoch, s.nowExpr)
	if s.driver != constants.DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// insertWithPubID runs an INSERT ... ON CONFLICT DO NOTHING RETURNING
// statement whose first argument is a fresh public id. A collision on the
// public id returns no row and is retried with a new id.
func (s *Store) insertWithPubID(ctx context.Context, query string, args []any, dest ...any) (int64, error) {
	var lastErr error
	for attempt := 0; attempt < pubIDInsertAttempts; attempt++ {
		pubID := s.ids.Next()
		err := s.conn.QueryRowContext(ctx, s.q(query), append([]any{pubID}, args...)...).Scan(dest...)
		if err == nil {
			return pubID, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return 0, err
		}
		lastErr = err
	}
	return 0, lastErr
}

// rowsAffectedOrNotFound turns a zero-row update or delete into ErrNotFound.
func rowsAffectedOrNotFound(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func nullInt64(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func int64Ptr(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	v := ni.Int64
	return &v
}
