package queue

import (
	"context"
	"time"
)

// BackoffPolicy maps a retry attempt number to a delay. Delays grow
// exponentially from Base and are capped at Max.
type BackoffPolicy struct {
	Base time.Duration
	Max  time.Duration

	// sleep is swapped out in tests so retries do not spend real time.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewBackoffPolicy creates a policy with the given base and cap.
func NewBackoffPolicy(base, max time.Duration) *BackoffPolicy {
	return &BackoffPolicy{
		Base:  base,
		Max:   max,
		sleep: sleepContext,
	}
}

// Delay returns the delay before the given attempt (1-based).
func (p *BackoffPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	delay := p.Base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= p.Max {
			return p.Max
		}
	}

	if delay > p.Max {
		return p.Max
	}
	return delay
}

// Wait sleeps for the attempt's delay, returning early with the context
// error if ctx is canceled.
func (p *BackoffPolicy) Wait(ctx context.Context, attempt int) error {
	return p.sleep(ctx, p.Delay(attempt))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
