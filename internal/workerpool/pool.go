// Package workerpool runs CPU-heavy work on a fixed number of goroutines so
// that a burst of expensive hashes queues instead of fanning out.
package workerpool

import (
	"context"
	"errors"
	"runtime"
	"sync"
)

// ErrClosed is returned by Do after Close.
var ErrClosed = errors.New("worker pool closed")

type job struct {
	fn   func()
	done chan struct{}
}

// Pool is a bounded set of workers fed by an unbuffered queue.
// Submitters block while every worker is busy.
type Pool struct {
	jobs     chan job
	quit     chan struct{}
	wg       sync.WaitGroup
	size     int
	closeOne sync.Once
}

// New starts size workers. size <= 0 means runtime.NumCPU().
func New(size int) *Pool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	p := &Pool{
		jobs: make(chan job),
		quit: make(chan struct{}),
		size: size,
	}
	p.wg.Add(size)
	for i := 0; i < size; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.quit:
			return
		case j := <-p.jobs:
			j.fn()
			close(j.done)
		}
	}
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return p.size
}

// Do runs fn on a worker and waits for it to finish. It returns ctx.Err()
// if the context ends while waiting for a free worker; once fn has started
// Do waits for it to complete.
func (p *Pool) Do(ctx context.Context, fn func()) error {
	j := job{fn: fn, done: make(chan struct{})}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.quit:
		return ErrClosed
	case p.jobs <- j:
	}
	<-j.done
	return nil
}

// Close stops the workers after in-flight jobs finish.
func (p *Pool) Close() {
	p.closeOne.Do(func() {
		close(p.quit)
		p.wg.Wait()
	})
}

// Run executes fn on the pool and returns its result.
func Run[T any](ctx context.Context, p *Pool, fn func() T) (T, error) {
	var out T
	err := p.Do(ctx, func() { out = fn() })
	return out, err
}
