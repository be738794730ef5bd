package circuitbreaker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClosedUntilThreshold(t *testing.T) {
	b := New(3, time.Minute)
	require.False(t, b.IsOpen())
	b.RecordFailure()
	require.False(t, b.IsOpen())
	b.RecordFailure()
	require.False(t, b.IsOpen())
	tripped := b.RecordFailure()
	require.True(t, tripped)
	require.True(t, b.IsOpen())
}

func TestOnlyTimeClosesAnOpenBreaker(t *testing.T) {
	b := New(2, time.Minute)
	b.RecordFailure()
	b.RecordFailure()
	require.True(t, b.IsOpen())

	frozen := b.lastFailure
	b.now = func() time.Time { return frozen.Add(30 * time.Second) }
	require.True(t, b.IsOpen(), "breaker must stay open until resetTimeout elapses, there is no success-based reset")
	require.Equal(t, uint32(2), b.Failures())
}

func TestSelfHealsAfterResetTimeout(t *testing.T) {
	b := New(1, 10*time.Millisecond)
	b.RecordFailure()
	require.True(t, b.IsOpen())

	frozen := b.lastFailure
	b.now = func() time.Time { return frozen.Add(11 * time.Millisecond) }
	require.False(t, b.IsOpen())
}
