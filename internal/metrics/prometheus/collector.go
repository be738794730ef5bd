// Package prometheus bridges an internal/metrics.Registry onto
// github.com/prometheus/client_golang, the real exporter dependency the
// teacher repo already carries. It exists so internal/metrics stays free of
// any particular wire format, the same separation go-ethereum draws between
// its metrics registry and its metrics/prometheus exporter subpackage.
package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/zk-thunder/da-pipeline/internal/metrics"
)

const namespace = "data_availability"

// Collector adapts a *metrics.Registry to prometheus.Collector so it can be
// registered once with prometheus.DefaultRegisterer (or a dedicated
// registry) and scraped over /metrics.
type Collector struct {
	reg *metrics.Registry
}

// NewCollector wraps reg.
func NewCollector(reg *metrics.Registry) *Collector { return &Collector{reg: reg} }

// Describe intentionally sends no descriptors: this collector is "unchecked"
// the way dynamically-named go-ethereum/VictoriaMetrics collectors are,
// since the metric set is fixed at startup but not statically enumerable
// without duplicating internal/metrics' bookkeeping.
func (c *Collector) Describe(chan<- *prometheus.Desc) {}

// Collect snapshots every registered metric into its Prometheus equivalent.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.reg.Each(func(name string, m any) {
		fq := prometheus.BuildFQName(namespace, "", name)
		switch v := m.(type) {
		case *metrics.Counter:
			desc := prometheus.NewDesc(fq, name, nil, nil)
			ch <- prometheus.MustNewConstMetric(desc, prometheus.CounterValue, float64(v.Value()))
		case *metrics.Gauge:
			desc := prometheus.NewDesc(fq, name, nil, nil)
			ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, v.Value())
		case *metrics.Histogram:
			desc := prometheus.NewDesc(fq, name, nil, nil)
			buckets, counts, sum, total := v.Snapshot()
			bm := make(map[float64]uint64, len(buckets))
			for i, b := range buckets {
				bm[b] = counts[i]
			}
			ch <- prometheus.MustNewConstHistogram(desc, total, sum, bm)
		}
	})
}
