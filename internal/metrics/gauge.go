package metrics

import (
	"math"
	"sync/atomic"
)

// Gauge is a lock-free value that can move in either direction, stored as
// bits of a float64 so fractional gauges (not needed today, but cheap to
// keep) are representable without a second type.
type Gauge struct {
	name string
	bits uint64
}

// Set replaces the gauge's value.
func (g *Gauge) Set(v float64) { atomic.StoreUint64(&g.bits, math.Float64bits(v)) }

// SetInt is a convenience for the common case (queue sizes are counts).
func (g *Gauge) SetInt(v int) { g.Set(float64(v)) }

// Value returns the current value.
func (g *Gauge) Value() float64 { return math.Float64frombits(atomic.LoadUint64(&g.bits)) }

// Name returns the metric name this gauge was registered under.
func (g *Gauge) Name() string { return g.name }
