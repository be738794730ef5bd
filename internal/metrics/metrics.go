// Package metrics is a small metrics registry in the style of go-ethereum's
// own metrics package (lock-free Counter/Gauge types backed by atomics and a
// mutex-guarded Histogram, registered by name into a Registry). Unlike the teacher's
// package, which ships its own wire formats (InfluxDB, OpenTSDB, a bespoke
// HTTP exporter), this one is exported exclusively through the
// metrics/prometheus bridge onto github.com/prometheus/client_golang, the
// real dependency already present in the teacher's go.mod.
package metrics

import "sync"

// Registry holds every metric registered for a process. There is one
// package-level DefaultRegistry; tests construct their own to avoid name
// collisions across parallel runs.
type Registry struct {
	mu      sync.Mutex
	counter map[string]*Counter
	gauge   map[string]*Gauge
	hist    map[string]*Histogram
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		counter: make(map[string]*Counter),
		gauge:   make(map[string]*Gauge),
		hist:    make(map[string]*Histogram),
	}
}

// DefaultRegistry is a package-global Registry for callers that do not
// construct their own, matching the package-global convenience the teacher's
// own metrics package offers.
var DefaultRegistry = NewRegistry()

// Counter is a monotonically increasing value (ipfs_errors, ipfs_success, …).
func (r *Registry) Counter(name string) *Counter {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.counter[name]; ok {
		return c
	}
	c := &Counter{name: name}
	r.counter[name] = c
	return c
}

// Gauge is a value that can move in either direction (ipfs_queue_size, …).
func (r *Registry) Gauge(name string) *Gauge {
	r.mu.Lock()
	defer r.mu.Unlock()
	if g, ok := r.gauge[name]; ok {
		return g
	}
	g := &Gauge{name: name}
	r.gauge[name] = g
	return g
}

// Histogram observes a latency/size distribution (ipfs_operation_duration, …).
func (r *Registry) Histogram(name string, buckets []float64) *Histogram {
	r.mu.Lock()
	defer r.mu.Unlock()
	if h, ok := r.hist[name]; ok {
		return h
	}
	h := newHistogram(name, buckets)
	r.hist[name] = h
	return h
}

// Each calls fn once per registered metric, used by the Prometheus bridge to
// build its Collector.Describe/Collect implementation.
func (r *Registry) Each(fn func(name string, m any)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, c := range r.counter {
		fn(name, c)
	}
	for name, g := range r.gauge {
		fn(name, g)
	}
	for name, h := range r.hist {
		fn(name, h)
	}
}

// LatencyBuckets mirrors the "Buckets::LATENCIES" preset the original Rust
// metrics definitions used for ipfs_operation_duration/mintlayer_operation_duration.
var LatencyBuckets = []float64{
	0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300,
}
