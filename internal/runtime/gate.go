package runtime

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"
)

// gate bounds concurrent adapter calls across all sessions and applies a
// per-call timeout. Acquisition blocks (respecting ctx), which is the
// backpressure: fan-out never exceeds the configured limit.
type gate struct {
	sem     *semaphore.Weighted
	timeout time.Duration
}

func newGate(limit int, timeout time.Duration) *gate {
	if limit <= 0 {
		limit = 1
	}
	return &gate{
		sem:     semaphore.NewWeighted(int64(limit)),
		timeout: timeout,
	}
}

// Do runs fn under the concurrency limit with the gate's timeout. No
// lock is held while fn runs; only a semaphore slot.
func (g *gate) Do(ctx context.Context, fn func(context.Context) error) error {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer g.sem.Release(1)

	callCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	return fn(callCtx)
}
