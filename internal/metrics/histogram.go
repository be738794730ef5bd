package metrics

import (
	"sync"
	"time"
)

// Histogram accumulates observations into fixed buckets, matching the
// cumulative-bucket semantics Prometheus expects so the bridge in
// metrics/prometheus can hand the counts straight to a prometheus.Histogram
// without resampling.
type Histogram struct {
	name    string
	buckets []float64 // ascending, exclusive of +Inf

	mu     sync.Mutex
	counts []uint64 // len(buckets)+1, counts[i] = observations <= buckets[i]
	sum    float64
	total  uint64
}

func newHistogram(name string, buckets []float64) *Histogram {
	return &Histogram{
		name:    name,
		buckets: buckets,
		counts:  make([]uint64, len(buckets)+1),
	}
}

// Observe records v (a duration in seconds, for the two latency histograms
// this pipeline defines).
func (h *Histogram) Observe(v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sum += v
	h.total++
	for i, b := range h.buckets {
		if v <= b {
			h.counts[i]++
		}
	}
	h.counts[len(h.counts)-1]++
}

// ObserveDuration records the time elapsed since start; the worker loops
// call it with the time an operation began.
func (h *Histogram) ObserveDuration(start time.Time) {
	h.Observe(time.Since(start).Seconds())
}

// Snapshot returns cumulative bucket counts, the running sum, and the total
// observation count, for the Prometheus bridge and for tests.
func (h *Histogram) Snapshot() (buckets []float64, counts []uint64, sum float64, total uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	b := make([]float64, len(h.buckets))
	copy(b, h.buckets)
	c := make([]uint64, len(h.counts))
	copy(c, h.counts)
	return b, c, h.sum, h.total
}

// Name returns the metric name this histogram was registered under.
func (h *Histogram) Name() string { return h.name }
