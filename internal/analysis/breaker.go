package analysis

import (
	"sync"
	"time"
)

// CircuitBreaker guards the primary scoring tier. After threshold
// consecutive failures it opens for the cooldown window, during which
// Allow returns false and calls route straight to the secondary tier.
// The first success after cooldown expiry closes it again.
type CircuitBreaker struct {
	mu        sync.Mutex
	threshold int
	cooldown  time.Duration

	consecutive int
	openUntil   time.Time

	// now is swapped out in tests.
	now func() time.Time
}

// NewCircuitBreaker creates a closed breaker.
func NewCircuitBreaker(threshold int, cooldown time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		threshold: threshold,
		cooldown:  cooldown,
		now:       time.Now,
	}
}

// Allow reports whether the guarded tier may be called. Once the
// cooldown window has expired the next call is allowed through as a
// probe even though the failure streak is still at threshold.
func (b *CircuitBreaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.openUntil.IsZero() {
		return true
	}
	return !b.now().Before(b.openUntil)
}

// RecordFailure counts a consecutive failure and opens the breaker when
// the streak reaches the threshold. A failed post-cooldown probe opens
// a fresh cooldown window.
func (b *CircuitBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.consecutive++
	if b.consecutive >= b.threshold {
		b.openUntil = b.now().Add(b.cooldown)
	}
}

// RecordSuccess resets the failure streak and closes the breaker.
func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.consecutive = 0
	b.openUntil = time.Time{}
}

// ConsecutiveFailures returns the current failure streak.
func (b *CircuitBreaker) ConsecutiveFailures() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.consecutive
}

// Open reports whether the breaker is currently rejecting calls.
func (b *CircuitBreaker) Open() bool {
	return !b.Allow()
}
