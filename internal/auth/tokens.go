package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tasker/internal/constants"
	"tasker/internal/logger"
	"tasker/internal/metrics"
	"tasker/internal/workerpool"
)

// ManagerOptions wires a Manager. Users, Tokens and Hasher are required.
type ManagerOptions struct {
	Users   UserStore
	Tokens  TokenStore
	Hasher  *PasswordHasher
	Key     MACKey
	Pool    *workerpool.Pool
	TTL     int64 // seconds; zero means AuthDefaultTokenTTL

	// RenewWindow is how long an expired set stays renewable; zero means
	// AuthDefaultRenewWindowHours.
	RenewWindow time.Duration
	Logger  *logger.Logger
	Metrics *metrics.Metrics
}

// Manager issues, validates, renews and revokes token sets.
//
// A set is ISSUED by Authenticate or Renew. Renewing replaces it exactly
// once; otherwise it expires. There are no other transitions.
type Manager struct {
	users   UserStore
	tokens  TokenStore
	hasher  *PasswordHasher
	key     MACKey
	pool    *workerpool.Pool
	ttl     int64
	window  int64 // renew window in seconds
	logger  *logger.Logger
	metrics *metrics.Metrics

	// dummyHash is verified against when the username is unknown so both
	// rejection paths cost one password verification.
	dummyHash string
}

// NewManager builds a Manager. It hashes one random password up front for
// the unknown-user path.
func NewManager(ctx context.Context, opts ManagerOptions) (*Manager, error) {
	if opts.Users == nil || opts.Tokens == nil || opts.Hasher == nil {
		return nil, errors.New("auth manager requires user store, token store and hasher")
	}
	if opts.Key.Size() < constants.AuthMACKeyMinBytes {
		return nil, fmt.Errorf("auth manager requires a mac key of at least %d bytes", constants.AuthMACKeyMinBytes)
	}
	if opts.TTL <= 0 {
		opts.TTL = constants.AuthDefaultTokenTTL
	}
	if opts.RenewWindow <= 0 {
		opts.RenewWindow = constants.AuthDefaultRenewWindowHours * time.Hour
	}
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}

	seed, err := GenerateToken()
	if err != nil {
		return nil, err
	}
	dummy, err := opts.Hasher.Hash(ctx, seed)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare dummy hash: %w", err)
	}

	return &Manager{
		users:     opts.Users,
		tokens:    opts.Tokens,
		hasher:    opts.Hasher,
		key:       opts.Key,
		pool:      opts.Pool,
		ttl:       opts.TTL,
		window:    int64(opts.RenewWindow / time.Second),
		logger:    opts.Logger,
		metrics:   opts.Metrics,
		dummyHash: dummy,
	}, nil
}

// TTL returns the lifetime of new token sets in seconds.
func (m *Manager) TTL() int64 {
	return m.ttl
}

// Authenticate checks a username and password and issues a token set.
// Unknown users and wrong passwords both return ErrUnauthenticated.
func (m *Manager) Authenticate(ctx context.Context, username, password string) (*TokenSet, error) {
	encoded, err := m.users.FindUserPasswordHash(ctx, username)
	switch {
	case errors.Is(err, ErrNotFound):
		if _, verr := m.hasher.Verify(ctx, password, m.dummyHash); verr != nil {
			return nil, verr
		}
		m.logger.Debug("Auth: login rejected for user=%s", username)
		m.metrics.AuthFailure(metrics.OpLogin)
		return nil, ErrUnauthenticated
	case err != nil:
		return nil, err
	}

	ok, err := m.hasher.Verify(ctx, password, encoded)
	if err != nil {
		return nil, err
	}
	if !ok {
		m.logger.Debug("Auth: login rejected for user=%s", username)
		m.metrics.AuthFailure(metrics.OpLogin)
		return nil, ErrUnauthenticated
	}

	set, err := m.Issue(ctx, username)
	if err != nil {
		return nil, err
	}
	m.logger.Info("Auth: user=%s logged in", username)
	return set, nil
}

// Issue creates and stores a fresh token set for username without checking
// a password. A username that no longer exists returns ErrUnauthenticated.
func (m *Manager) Issue(ctx context.Context, username string) (*TokenSet, error) {
	set, row, err := m.newTokenSet(ctx, username)
	if err != nil {
		return nil, err
	}

	set.ExpiresIn, err = m.tokens.InsertTokenSet(ctx, row)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}
	m.metrics.TokenSetIssued(metrics.OpLogin)
	return set, nil
}

// Validate resolves a select/verify pair to the owning user. Unknown,
// expired and mismatched pairs all return ErrUnauthenticated.
func (m *Manager) Validate(ctx context.Context, tokenSelect, tokenVerify string) (*Identity, error) {
	stored, err := m.lookup(ctx, tokenSelect, tokenVerify)
	if err != nil {
		if errors.Is(err, ErrUnauthenticated) {
			m.metrics.AuthFailure(metrics.OpValidate)
		}
		return nil, err
	}
	return &Identity{UserID: stored.UserID, Username: stored.Username, TokenSelect: tokenSelect}, nil
}

// Renew replaces a set with a new one. The old set must still exist with
// the given renew token, must not have expired longer than the renew window
// ago, and its verify token must match. Of several concurrent renewals of one set at most one succeeds.
func (m *Manager) Renew(ctx context.Context, tokenSelect, tokenVerify, tokenRenew string) (*TokenSet, error) {
	if tokenSelect == "" || tokenVerify == "" || tokenRenew == "" {
		m.metrics.AuthFailure(metrics.OpRenew)
		return nil, ErrUnauthenticated
	}

	stored, err := m.tokens.FindTokenBySelectAndRenew(ctx, tokenSelect, tokenRenew, m.window)
	if errors.Is(err, ErrNotFound) {
		m.metrics.AuthFailure(metrics.OpRenew)
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}
	if err := m.checkVerify(ctx, tokenVerify, stored.VerifyHash); err != nil {
		if errors.Is(err, ErrUnauthenticated) {
			m.metrics.AuthFailure(metrics.OpRenew)
		}
		return nil, err
	}

	set, row, err := m.newTokenSet(ctx, stored.Username)
	if err != nil {
		return nil, err
	}
	set.ExpiresIn, err = m.tokens.ReplaceTokenSet(ctx, stored.ID, tokenRenew, row)
	if errors.Is(err, ErrNotFound) {
		m.logger.Debug("Auth: renewal lost a race for user=%s", stored.Username)
		m.metrics.AuthFailure(metrics.OpRenew)
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}

	m.logger.Debug("Auth: token set renewed for user=%s", stored.Username)
	m.metrics.TokenSetIssued(metrics.OpRenew)
	return set, nil
}

// Revoke deletes the set identified by a valid select/verify pair.
func (m *Manager) Revoke(ctx context.Context, tokenSelect, tokenVerify string) error {
	stored, err := m.lookup(ctx, tokenSelect, tokenVerify)
	if err != nil {
		return err
	}
	err = m.tokens.DeleteTokenSet(ctx, stored.ID)
	if errors.Is(err, ErrNotFound) {
		// Renewed or revoked concurrently.
		return ErrUnauthenticated
	}
	if err != nil {
		return err
	}
	m.logger.Info("Auth: token set revoked for user=%s", stored.Username)
	return nil
}

func (m *Manager) lookup(ctx context.Context, tokenSelect, tokenVerify string) (*StoredToken, error) {
	if tokenSelect == "" || tokenVerify == "" {
		return nil, ErrUnauthenticated
	}
	stored, err := m.tokens.FindTokenBySelect(ctx, tokenSelect)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}
	if err := m.checkVerify(ctx, tokenVerify, stored.VerifyHash); err != nil {
		return nil, err
	}
	return stored, nil
}

func (m *Manager) checkVerify(ctx context.Context, tokenVerify, storedHash string) error {
	hash, err := m.hashToken(ctx, tokenVerify)
	if err != nil {
		return err
	}
	if !ConstantTimeEqual([]byte(hash), []byte(storedHash)) {
		return ErrUnauthenticated
	}
	return nil
}

func (m *Manager) hashToken(ctx context.Context, token string) (string, error) {
	return runOn(ctx, m.pool, func() string {
		return HashToken(m.key, token)
	})
}

// newTokenSet generates the three plaintext tokens and the row to store.
func (m *Manager) newTokenSet(ctx context.Context, username string) (*TokenSet, NewTokenSet, error) {
	var tokens [3]string
	for i := range tokens {
		tok, err := GenerateToken()
		if err != nil {
			return nil, NewTokenSet{}, err
		}
		tokens[i] = tok
	}
	set := &TokenSet{Select: tokens[0], Verify: tokens[1], Renew: tokens[2]}

	verifyHash, err := m.hashToken(ctx, set.Verify)
	if err != nil {
		return nil, NewTokenSet{}, err
	}
	return set, NewTokenSet{
		Select:     set.Select,
		VerifyHash: verifyHash,
		Renew:      set.Renew,
		Username:   username,
		TTL:        m.ttl,
	}, nil
}
