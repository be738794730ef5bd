// Package retry implements the exponential backoff and attempt-ceiling
// policy shared by the IPFS and Mintlayer worker loops, grounded on the
// teacher's common/backoff.Exponential contract (NewExponential/NextDuration)
// but extended with a persisted attempt counter: each pending row already
// carries its own attempts field in Postgres, so the stateful in-memory
// counter backoff.Exponential keeps is reseeded from that column on every
// poll instead of living for the process lifetime.
package retry

import (
	"math/rand"
	"time"
)

// Exponential computes the delay before the next retry, doubling from Min
// up to Max and adding up to Jitter of uniform random slack.
type Exponential struct {
	Min    time.Duration
	Max    time.Duration
	Jitter time.Duration

	attempt int
}

// NewExponential builds an Exponential backoff. If min > max, every call to
// NextDuration returns max.
func NewExponential(min, max, jitter time.Duration) *Exponential {
	return &Exponential{Min: min, Max: max, Jitter: jitter}
}

// NextDuration returns the delay for the next attempt and advances internal
// state; the first call returns Min (or Max, if Min > Max).
func (e *Exponential) NextDuration() time.Duration {
	if e.Min > e.Max {
		return e.Max
	}
	d := e.Min << e.attempt
	if d <= 0 || d > e.Max {
		d = e.Max
	}
	e.attempt++
	if e.Jitter > 0 {
		d += time.Duration(rand.Int63n(int64(e.Jitter)))
	}
	return d
}

// ForAttempt returns the delay for the given zero-based attempt number (the
// value a jitter-free Exponential's NextDuration returns on call attempt+1),
// computed without any state, for use against a persisted attempts column
// rather than in-process state.
func ForAttempt(min, max time.Duration, attempt uint32) time.Duration {
	if min > max {
		return max
	}
	if attempt > 32 {
		return max
	}
	d := min << attempt
	if d <= 0 || d > max {
		return max
	}
	return d
}
