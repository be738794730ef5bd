// Package circuitbreaker implements a simple failure-count breaker per
// backend (IPFS, Mintlayer), grounded on the original Rust
// circuit_breaker.rs: a failure counter that opens the breaker once a
// threshold is crossed and closes it again once a cooldown window has passed
// without a new failure. The counter itself is never reset.
package circuitbreaker

import (
	"sync"
	"time"
)

// Breaker counts recorded failures for a single backend. All methods are
// safe for concurrent use; the mutex is never held across network I/O, only
// around the counter/timestamp bookkeeping.
type Breaker struct {
	mu sync.Mutex

	failureThreshold uint32
	resetTimeout     time.Duration

	failures    uint32
	lastFailure time.Time

	now func() time.Time
}

// New builds a Breaker that opens once failureThreshold failures have been
// recorded, and considers itself eligible to close again
// resetTimeout after the last recorded failure.
func New(failureThreshold uint32, resetTimeout time.Duration) *Breaker {
	return &Breaker{
		failureThreshold: failureThreshold,
		resetTimeout:     resetTimeout,
		now:              time.Now,
	}
}

// IsOpen reports whether the breaker currently blocks calls. A breaker that
// crossed the threshold self-heals (half-opens) once resetTimeout has
// elapsed since the last failure, at which point IsOpen returns false again
// and the next failure restarts the window.
func (b *Breaker) IsOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failures < b.failureThreshold {
		return false
	}
	return b.now().Sub(b.lastFailure) < b.resetTimeout
}

// RecordFailure increments the failure counter and returns true if this call
// just tripped the breaker open (failures == threshold).
func (b *Breaker) RecordFailure() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures++
	b.lastFailure = b.now()
	return b.failures == b.failureThreshold
}

// Failures returns the number of failures recorded so far, for metrics.
func (b *Breaker) Failures() uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}
