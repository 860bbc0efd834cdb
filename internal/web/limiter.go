package web

// limiter.go caps how many uploads are validated at once. Each validation
// holds three whole tables in memory, so requests beyond the cap wait up to
// maxWait for a slot and are then rejected with errBusy.

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// errBusy is returned when no validation slot frees up in time.
var errBusy = errors.New("too many concurrent validations, please try again later")

const (
	defaultMaxConcurrent = 2
	defaultMaxWait       = 30 * time.Second
)

type runLimiter struct {
	sem     *semaphore.Weighted
	maxWait time.Duration
	active  atomic.Int64
}

func newRunLimiter(maxConcurrent int, maxWait time.Duration) *runLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrent
	}
	if maxWait <= 0 {
		maxWait = defaultMaxWait
	}
	return &runLimiter{
		sem:     semaphore.NewWeighted(int64(maxConcurrent)),
		maxWait: maxWait,
	}
}

// acquire waits for a slot. The caller must call release exactly once
// after a nil return.
func (l *runLimiter) acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	if err := l.sem.Acquire(waitCtx, 1); err != nil {
		// Distinguish client cancellation from our own timeout.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errBusy
	}
	l.active.Add(1)
	return nil
}

func (l *runLimiter) release() {
	l.active.Add(-1)
	l.sem.Release(1)
}

func (l *runLimiter) activeCount() int { return int(l.active.Load()) }
