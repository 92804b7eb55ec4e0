package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// ============================================================================
// User Operations
// ============================================================================

// CreateUser inserts a user. A taken username returns ErrConflict.
func (s *Store) CreateUser(ctx context.Context, username, passwordHash string, displayName *string, roleGlobal int) (*User, error) {
	var id int64
	err := s.conn.QueryRowContext(ctx, s.q(`
		INSERT INTO users (username, password, role_global, display_name)
		VALUES (?, ?, ?, ?)
		RETURNING user_id
	`), username, passwordHash, roleGlobal, nullString(displayName)).Scan(&id)
	if err != nil {
		if IsUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &User{ID: id, Username: username, RoleGlobal: roleGlobal, DisplayName: displayName}, nil
}

// GetUserByUsername returns ErrNotFound for an unknown username.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	var (
		u           User
		displayName sql.NullString
	)
	err := s.conn.QueryRowContext(ctx, s.q(`
		SELECT user_id, username, role_global, display_name
		FROM users WHERE username = ?
	`), username).Scan(&u.ID, &u.Username, &u.RoleGlobal, &displayName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	u.DisplayName = stringPtr(displayName)
	return &u, nil
}

// FindUserPasswordHash returns the stored password hash for username.
func (s *Store) FindUserPasswordHash(ctx context.Context, username string) (string, error) {
	var hash string
	err := s.conn.QueryRowContext(ctx, s.q(`SELECT password FROM users WHERE username = ?`), username).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get password hash: %w", err)
	}
	return hash, nil
}

// DeleteUser removes a user; tokens and memberships go with it.
func (s *Store) DeleteUser(ctx context.Context, username string) error {
	res, err := s.conn.ExecContext(ctx, s.q(`DELETE FROM users WHERE username = ?`), username)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return rowsAffectedOrNotFound(res)
}

// UpdateUserProfile changes the display name and/or global role. Nil
// arguments are left unchanged; an empty display name clears it.
func (s *Store) UpdateUserProfile(ctx context.Context, username string, displayName *string, roleGlobal *int) error {
	var (
		sets []string
		args []any
	)
	if displayName != nil {
		sets = append(sets, "display_name = ?")
		if *displayName == "" {
			args = append(args, sql.NullString{})
		} else {
			args = append(args, *displayName)
		}
	}
	if roleGlobal != nil {
		sets = append(sets, "role_global = ?")
		args = append(args, *roleGlobal)
	}
	if len(sets) == 0 {
		_, err := s.GetUserByUsername(ctx, username)
		return err
	}
	args = append(args, username)

	res, err := s.conn.ExecContext(ctx, s.q(`UPDATE users SET `+strings.Join(sets, ", ")+` WHERE username = ?`), args...)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return rowsAffectedOrNotFound(res)
}

// UpdateUserPassword stores a new password hash.
func (s *Store) UpdateUserPassword(ctx context.Context, username, passwordHash string) error {
	res, err := s.conn.ExecContext(ctx, s.q(`UPDATE users SET password = ? WHERE username = ?`), passwordHash, username)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return rowsAffectedOrNotFound(res)
}
