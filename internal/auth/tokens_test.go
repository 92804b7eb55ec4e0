package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasker/internal/constants"
	"tasker/internal/workerpool"
)

const testPassword = "correct horse battery"

func newTestManager(t *testing.T) (*Manager, *memStore) {
	t.Helper()
	store := newMemStore()
	pool := workerpool.New(4)
	t.Cleanup(pool.Close)
	hasher := NewPasswordHasher(cheapParams, pool)

	hash, err := hasher.Hash(context.Background(), testPassword)
	require.NoError(t, err)
	store.addUser("alice", hash)

	m, err := NewManager(context.Background(), ManagerOptions{
		Users:  store,
		Tokens: store,
		Hasher: hasher,
		Key:    testMACKey(t),
		Pool:   pool,
		TTL:    7200,
	})
	require.NoError(t, err)
	return m, store
}

func TestNewManagerRequiresKey(t *testing.T) {
	store := newMemStore()
	_, err := NewManager(context.Background(), ManagerOptions{
		Users:  store,
		Tokens: store,
		Hasher: NewPasswordHasher(cheapParams, nil),
	})
	assert.Error(t, err)
}

func TestAuthenticateIssuesTokenSet(t *testing.T) {
	m, store := newTestManager(t)

	set, err := m.Authenticate(context.Background(), "alice", testPassword)
	require.NoError(t, err)
	assert.NotEmpty(t, set.Select)
	assert.NotEmpty(t, set.Verify)
	assert.NotEmpty(t, set.Renew)
	assert.Equal(t, store.now+7200, set.ExpiresIn)

	for _, tok := range store.tokens {
		assert.NotEqual(t, set.Verify, tok.verifyHash, "verify token must not be stored in plaintext")
	}
}

func TestAuthenticateRejectionsAreIdentical(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	_, errUnknown := m.Authenticate(ctx, "mallory", testPassword)
	_, errWrong := m.Authenticate(ctx, "alice", "wrong password")

	assert.Same(t, ErrUnauthenticated, errUnknown)
	assert.Same(t, ErrUnauthenticated, errWrong)
}

func TestIssueUnknownUser(t *testing.T) {
	m, _ := newTestManager(t)
	_, err := m.Issue(context.Background(), "deleted")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestSelectTokensAreUnique(t *testing.T) {
	m, _ := newTestManager(t)
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		set, err := m.Issue(context.Background(), "alice")
		require.NoError(t, err)
		require.False(t, seen[set.Select], "duplicate select token")
		seen[set.Select] = true
	}
}

func TestValidateRoundTrip(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()
	set, err := m.Issue(ctx, "alice")
	require.NoError(t, err)

	id, err := m.Validate(ctx, set.Select, set.Verify)
	require.NoError(t, err)
	assert.Equal(t, "alice", id.Username)
	assert.Equal(t, store.users["alice"].id, id.UserID)
	assert.Equal(t, set.Select, id.TokenSelect)
}

func TestValidateRejectsAlteredVerify(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	set, err := m.Issue(ctx, "alice")
	require.NoError(t, err)

	flipped := []byte(set.Verify)
	flipped[0] ^= 0x01
	_, err = m.Validate(ctx, set.Select, string(flipped))
	assert.Same(t, ErrUnauthenticated, err)

	_, err = m.Validate(ctx, "unknown", set.Verify)
	assert.Same(t, ErrUnauthenticated, err)

	_, err = m.Validate(ctx, set.Select, "")
	assert.Same(t, ErrUnauthenticated, err)
}

func TestValidateRejectsExpired(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()
	set, err := m.Issue(ctx, "alice")
	require.NoError(t, err)

	store.advance(7199)
	_, err = m.Validate(ctx, set.Select, set.Verify)
	require.NoError(t, err)

	store.advance(1)
	_, err = m.Validate(ctx, set.Select, set.Verify)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestRenewIsSingleUse(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()
	set, err := m.Issue(ctx, "alice")
	require.NoError(t, err)

	next, err := m.Renew(ctx, set.Select, set.Verify, set.Renew)
	require.NoError(t, err)
	assert.NotEqual(t, set.Select, next.Select)

	_, err = m.Validate(ctx, set.Select, set.Verify)
	assert.ErrorIs(t, err, ErrUnauthenticated, "old set must be gone")
	_, err = m.Validate(ctx, next.Select, next.Verify)
	assert.NoError(t, err)

	_, err = m.Renew(ctx, set.Select, set.Verify, set.Renew)
	assert.ErrorIs(t, err, ErrUnauthenticated, "replaying a renewal must fail")
	assert.Equal(t, 1, store.liveTokens())
}

func TestRenewAfterExpiry(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()
	set, err := m.Issue(ctx, "alice")
	require.NoError(t, err)

	store.advance(10_000)
	next, err := m.Renew(ctx, set.Select, set.Verify, set.Renew)
	require.NoError(t, err)
	assert.Equal(t, store.now+7200, next.ExpiresIn)
}

func TestRenewPastWindowRejected(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()
	set, err := m.Issue(ctx, "alice")
	require.NoError(t, err)

	// 7200s ttl plus the default 720h window, then one second more.
	store.advance(7200 + constants.AuthDefaultRenewWindowHours*3600 + 1)
	_, err = m.Renew(ctx, set.Select, set.Verify, set.Renew)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestRenewWindowFromOptions(t *testing.T) {
	store := newMemStore()
	hasher := NewPasswordHasher(cheapParams, nil)
	hash, err := hasher.Hash(context.Background(), testPassword)
	require.NoError(t, err)
	store.addUser("alice", hash)

	m, err := NewManager(context.Background(), ManagerOptions{
		Users:       store,
		Tokens:      store,
		Hasher:      hasher,
		Key:         testMACKey(t),
		TTL:         60,
		RenewWindow: time.Hour,
	})
	require.NoError(t, err)
	ctx := context.Background()

	inside, err := m.Issue(ctx, "alice")
	require.NoError(t, err)
	outside, err := m.Issue(ctx, "alice")
	require.NoError(t, err)

	store.advance(60 + 3599)
	_, err = m.Renew(ctx, inside.Select, inside.Verify, inside.Renew)
	assert.NoError(t, err, "one second before the window closes")

	store.advance(1)
	_, err = m.Renew(ctx, outside.Select, outside.Verify, outside.Renew)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestRenewRejectsBadTokens(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()
	set, err := m.Issue(ctx, "alice")
	require.NoError(t, err)

	_, err = m.Renew(ctx, set.Select, "wrong", set.Renew)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = m.Renew(ctx, set.Select, set.Verify, "wrong")
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = m.Renew(ctx, "", set.Verify, set.Renew)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	// Failed attempts leave the set usable.
	_, err = m.Validate(ctx, set.Select, set.Verify)
	assert.NoError(t, err)
	assert.Equal(t, 1, store.liveTokens())
}

func TestConcurrentRenewalsHaveOneWinner(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()
	set, err := m.Issue(ctx, "alice")
	require.NoError(t, err)

	const racers = 16
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Renew(ctx, set.Select, set.Verify, set.Renew)
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, ErrUnauthenticated)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, store.liveTokens())
}

func TestRevoke(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()
	set, err := m.Issue(ctx, "alice")
	require.NoError(t, err)

	require.Error(t, m.Revoke(ctx, set.Select, "wrong"))
	require.NoError(t, m.Revoke(ctx, set.Select, set.Verify))
	assert.Equal(t, 0, store.liveTokens())

	err = m.Revoke(ctx, set.Select, set.Verify)
	assert.True(t, errors.Is(err, ErrUnauthenticated))
}
