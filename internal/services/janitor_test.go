package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasker/internal/auth"
	"tasker/internal/logger"
	"tasker/internal/metrics"
)

type countingStore struct {
	calls atomic.Int64
	grace atomic.Int64
	err   error
}

func (c *countingStore) DeleteExpiredTokens(_ context.Context, graceSecs int64) (int64, error) {
	c.calls.Add(1)
	c.grace.Store(graceSecs)
	return 2, c.err
}

func TestJanitorRunsOnTicker(t *testing.T) {
	store := &countingStore{}
	j := NewTokenJanitor(store, 10*time.Millisecond, time.Hour, logger.Discard(), metrics.New())
	j.Start()

	require.Eventually(t, func() bool { return store.calls.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	j.Stop()
	j.Stop()

	assert.Equal(t, int64(3600), store.grace.Load())
	after := store.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, store.calls.Load(), "no runs after Stop")
}

func TestJanitorStopWithoutStart(t *testing.T) {
	j := NewTokenJanitor(&countingStore{}, time.Minute, time.Hour, nil, nil)
	done := make(chan struct{})
	go func() {
		j.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked without Start")
	}
}

func TestJanitorRunOnceError(t *testing.T) {
	j := NewTokenJanitor(&countingStore{err: errors.New("db gone")}, time.Minute, time.Hour, nil, nil)
	_, err := j.RunOnce(context.Background())
	assert.Error(t, err)
}

func TestJanitorKeepsRenewableSets(t *testing.T) {
	svc, store := setupTestServices(t)
	ctx := context.Background()
	addTestUser(t, svc, "kim")

	_, err := store.InsertTokenSet(ctx, auth.NewTokenSet{Select: "recent", VerifyHash: "h", Renew: "r1", Username: "kim", TTL: -60})
	require.NoError(t, err)
	_, err = store.InsertTokenSet(ctx, auth.NewTokenSet{Select: "old", VerifyHash: "h", Renew: "r2", Username: "kim", TTL: -7200})
	require.NoError(t, err)

	j := NewTokenJanitor(store, time.Minute, time.Hour, nil, nil)
	removed, err := j.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, err = store.FindTokenBySelectAndRenew(ctx, "recent", "r1", 3600)
	assert.NoError(t, err)
}
