package metrics

import "sync/atomic"

// Counter is a lock-free monotonic counter.
type Counter struct {
	name  string
	count int64
}

// Inc increments the counter by 1.
func (c *Counter) Inc() { atomic.AddInt64(&c.count, 1) }

// Add increments the counter by delta (must be >= 0).
func (c *Counter) Add(delta int64) { atomic.AddInt64(&c.count, delta) }

// Value returns the current count.
func (c *Counter) Value() int64 { return atomic.LoadInt64(&c.count) }

// Name returns the metric name this counter was registered under.
func (c *Counter) Name() string { return c.name }
