// Package throttle bounds how many calls to an external service run at once
// and how fast new ones may start.
package throttle

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Throttle combines a weighted semaphore (in-flight bound) with a token
// bucket (start rate). The zero value is not usable; call New.
type Throttle struct {
	sem     *semaphore.Weighted
	limiter *rate.Limiter
}

// New returns a throttle allowing batchSize concurrent calls and refilling
// batchSize tokens every interval. interval <= 0 disables the rate limit.
func New(batchSize int, interval time.Duration) *Throttle {
	if batchSize <= 0 {
		batchSize = 1
	}
	lim := rate.NewLimiter(rate.Inf, batchSize)
	if interval > 0 {
		lim = rate.NewLimiter(rate.Every(interval/time.Duration(batchSize)), batchSize)
	}
	return &Throttle{
		sem:     semaphore.NewWeighted(int64(batchSize)),
		limiter: lim,
	}
}

// Do waits for a slot and a token, then runs fn. It returns ctx.Err() without
// calling fn when the context ends first.
func (t *Throttle) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := t.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer t.sem.Release(1)

	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}
	return fn(ctx)
}
