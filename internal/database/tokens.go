package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tasker/internal/auth"
)

// ============================================================================
// Token Operations
// ============================================================================

// InsertTokenSet stores a token set for t.Username with expiry now+TTL taken
// from the database clock, and returns that expiry. An unknown username
// returns ErrNotFound.
func (s *Store) InsertTokenSet(ctx context.Context, t auth.NewTokenSet) (int64, error) {
	var expiresIn int64
	err := s.conn.QueryRowContext(ctx, s.q(`
		INSERT INTO tokens (token_select, token_verify, token_renew, expires_in, user_id)
		SELECT ?, ?, ?, NOW_EPOCH + ?, user_id
		FROM users WHERE username = ?
		RETURNING expires_in
	`), t.Select, t.VerifyHash, t.Renew, t.TTL, t.Username).Scan(&expiresIn)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert token set: %w", err)
	}
	return expiresIn, nil
}

// FindTokenBySelect returns the live token set for tokenSelect. Expired rows
// are filtered by the query and reported as ErrNotFound.
func (s *Store) FindTokenBySelect(ctx context.Context, tokenSelect string) (*auth.StoredToken, error) {
	var t auth.StoredToken
	err := s.conn.QueryRowContext(ctx, s.q(`
		SELECT t.token_id, u.user_id, u.username, t.token_verify
		FROM tokens t INNER JOIN users u ON t.user_id = u.user_id
		WHERE t.token_select = ? AND t.expires_in > NOW_EPOCH
	`), tokenSelect).Scan(&t.ID, &t.UserID, &t.Username, &t.VerifyHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find token: %w", err)
	}
	return &t, nil
}

// FindTokenBySelectAndRenew looks a token set up by its select and renew
// tokens. Sets that expired less than windowSecs ago are still returned:
// renewing is how a client recovers from expiry.
func (s *Store) FindTokenBySelectAndRenew(ctx context.Context, tokenSelect, tokenRenew string, windowSecs int64) (*auth.StoredToken, error) {
	var t auth.StoredToken
	err := s.conn.QueryRowContext(ctx, s.q(`
		SELECT t.token_id, u.user_id, u.username, t.token_verify
		FROM tokens t INNER JOIN users u ON t.user_id = u.user_id
		WHERE t.token_select = ? AND t.token_renew = ? AND t.expires_in + ? > NOW_EPOCH
	`), tokenSelect, tokenRenew, windowSecs).Scan(&t.ID, &t.UserID, &t.Username, &t.VerifyHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find token for renewal: %w", err)
	}
	return &t, nil
}

// ReplaceTokenSet deletes the old set and inserts next in one transaction.
// The delete is conditional on the row still carrying oldRenew; when a
// concurrent renewal already consumed it nothing is inserted and ErrNotFound
// is returned.
func (s *Store) ReplaceTokenSet(ctx context.Context, oldID int64, oldRenew string, next auth.NewTokenSet) (int64, error) {
	var expiresIn int64
	err := s.InTx(ctx, func(tx *Store) error {
		res, err := tx.conn.ExecContext(ctx, tx.q(`DELETE FROM tokens WHERE token_id = ? AND token_renew = ?`), oldID, oldRenew)
		if err != nil {
			return fmt.Errorf("failed to delete renewed token set: %w", err)
		}
		if err := rowsAffectedOrNotFound(res); err != nil {
			return err
		}
		expiresIn, err = tx.InsertTokenSet(ctx, next)
		return err
	})
	if err != nil {
		return 0, err
	}
	return expiresIn, nil
}

// DeleteTokenSet removes a token set by id.
func (s *Store) DeleteTokenSet(ctx context.Context, tokenID int64) error {
	res, err := s.conn.ExecContext(ctx, s.q(`DELETE FROM tokens WHERE token_id = ?`), tokenID)
	if err != nil {
		return fmt.Errorf("failed to delete token set: %w", err)
	}
	return rowsAffectedOrNotFound(res)
}

// DeleteUserTokens removes every token set of a user and returns the count.
func (s *Store) DeleteUserTokens(ctx context.Context, username string) (int64, error) {
	res, err := s.conn.ExecContext(ctx, s.q(`
		DELETE FROM tokens
		WHERE user_id IN (SELECT user_id FROM users WHERE username = ?)
	`), username)
	if err != nil {
		return 0, fmt.Errorf("failed to delete user tokens: %w", err)
	}
	return res.RowsAffected()
}

// DeleteExpiredTokens removes token sets that expired more than graceSecs
// ago and returns the count.
func (s *Store) DeleteExpiredTokens(ctx context.Context, graceSecs int64) (int64, error) {
	res, err := s.conn.ExecContext(ctx, s.q(`DELETE FROM tokens WHERE expires_in + ? <= NOW_EPOCH`), graceSecs)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired tokens: %w", err)
	}
	return res.RowsAffected()
}
