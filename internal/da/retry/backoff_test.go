package retry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestExponentialBackoff(t *testing.T) {
	t.Run("multiple attempts", func(t *testing.T) {
		e := NewExponential(100*time.Millisecond, 10*time.Second, 0)
		expected := []time.Duration{
			100 * time.Millisecond,
			200 * time.Millisecond,
			400 * time.Millisecond,
			800 * time.Millisecond,
			1600 * time.Millisecond,
			3200 * time.Millisecond,
			6400 * time.Millisecond,
			10 * time.Second,
		}
		for i, want := range expected {
			require.Equal(t, want, e.NextDuration(), "attempt %d", i)
		}
	})

	t.Run("jitter added", func(t *testing.T) {
		e := NewExponential(1*time.Second, 10*time.Second, 1*time.Second)
		d := e.NextDuration()
		require.GreaterOrEqual(t, d, 1*time.Second)
		require.Less(t, d, 2*time.Second)
	})

	t.Run("min greater than max", func(t *testing.T) {
		e := NewExponential(10*time.Second, 5*time.Second, 0)
		require.Equal(t, 5*time.Second, e.NextDuration())
	})
}

func TestForAttemptMatchesStatefulSequence(t *testing.T) {
	min, max := 500*time.Millisecond, 30*time.Second
	e := NewExponential(min, max, 0)
	for attempt := uint32(0); attempt < 10; attempt++ {
		require.Equal(t, e.NextDuration(), ForAttempt(min, max, attempt))
	}
}
