package metrics

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCounterIsIdempotentByName(t *testing.T) {
	r := NewRegistry()
	a := r.Counter("ipfs_errors")
	b := r.Counter("ipfs_errors")
	a.Inc()
	b.Add(2)
	require.Equal(t, int64(3), a.Value())
	require.Same(t, a, b)
}

func TestGaugeSet(t *testing.T) {
	r := NewRegistry()
	g := r.Gauge("ipfs_queue_size")
	g.SetInt(7)
	require.Equal(t, float64(7), g.Value())
	g.SetInt(0)
	require.Equal(t, float64(0), g.Value())
}

func TestHistogramBucketing(t *testing.T) {
	r := NewRegistry()
	h := r.Histogram("ipfs_operation_duration", []float64{0.1, 1, 10})
	h.Observe(0.05)
	h.Observe(0.5)
	h.Observe(5)
	h.Observe(50)

	buckets, counts, sum, total := h.Snapshot()
	require.Equal(t, []float64{0.1, 1, 10}, buckets)
	require.Equal(t, uint64(4), total)
	require.InDelta(t, 55.55, sum, 0.001)
	// cumulative: <=0.1 -> 1, <=1 -> 2, <=10 -> 3, +Inf -> 4
	require.Equal(t, []uint64{1, 2, 3, 4}, counts)
}

func TestEachVisitsEveryRegisteredMetric(t *testing.T) {
	r := NewRegistry()
	r.Counter("c")
	r.Gauge("g")
	r.Histogram("h", LatencyBuckets)

	seen := map[string]bool{}
	r.Each(func(name string, m any) { seen[name] = true })
	require.True(t, seen["c"])
	require.True(t, seen["g"])
	require.True(t, seen["h"])
}
