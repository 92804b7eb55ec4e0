package services

import (
	"context"
	"sync"
	"time"

	"tasker/internal/constants"
	"tasker/internal/logger"
	"tasker/internal/metrics"
)

// ExpiredTokenStore is the storage the janitor needs.
type ExpiredTokenStore interface {
	DeleteExpiredTokens(ctx context.Context, graceSecs int64) (int64, error)
}

// TokenJanitor periodically purges token sets that expired longer ago than
// the renew window. Sets inside the window are kept because an expired set
// can still be renewed.
type TokenJanitor struct {
	store       ExpiredTokenStore
	interval    time.Duration
	renewWindow time.Duration
	logger      *logger.Logger
	metrics     *metrics.Metrics

	mu      sync.Mutex
	started bool
	stopped bool
	stop    chan struct{}
	done    chan struct{}
}

func NewTokenJanitor(store ExpiredTokenStore, interval, renewWindow time.Duration, log *logger.Logger, m *metrics.Metrics) *TokenJanitor {
	if interval <= 0 {
		interval = constants.AuthJanitorInterval
	}
	if log == nil {
		log = logger.Discard()
	}
	return &TokenJanitor{
		store:       store,
		interval:    interval,
		renewWindow: renewWindow,
		logger:      log,
		metrics:     m,
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// Start launches the cleanup goroutine. Calls after the first are ignored.
func (j *TokenJanitor) Start() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.started || j.stopped {
		return
	}
	j.started = true
	go j.loop()
}

// Stop stops the cleanup goroutine and waits for it (call during graceful
// shutdown). Safe to call more than once, or without Start.
func (j *TokenJanitor) Stop() {
	j.mu.Lock()
	if j.stopped {
		j.mu.Unlock()
		return
	}
	j.stopped = true
	started := j.started
	close(j.stop)
	j.mu.Unlock()

	if started {
		<-j.done
	}
}

// RunOnce purges once and returns the number of removed sets.
func (j *TokenJanitor) RunOnce(ctx context.Context) (int64, error) {
	removed, err := j.store.DeleteExpiredTokens(ctx, int64(j.renewWindow/time.Second))
	if err != nil {
		return 0, err
	}
	j.metrics.TokenSetsPurged(removed)
	return removed, nil
}

func (j *TokenJanitor) loop() {
	defer close(j.done)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.logger.Info("Auth: token janitor started (interval=%s, renew window=%s)", j.interval, j.renewWindow)

	for {
		select {
		case <-j.stop:
			j.logger.Info("Auth: token janitor stopped")
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), j.interval)
			removed, err := j.RunOnce(ctx)
			cancel()
			if err != nil {
				j.logger.Error("Auth: token cleanup failed: %v", err)
				continue
			}
			if removed > 0 {
				j.logger.Info("Auth: token cleanup removed %d expired token sets", removed)
			} else {
				j.logger.Debug("Auth: token cleanup found no expired token sets")
			}
		}
	}
}
