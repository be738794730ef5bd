package worker

import "github.com/zk-thunder/da-pipeline/internal/metrics"

// Metrics is the fixed set of gauges/counters/histograms the three loops
// publish, named per the data_availability_ namespace the Prometheus bridge
// applies.
type Metrics struct {
	IPFSQueueSize      *metrics.Gauge
	MintlayerQueueSize *metrics.Gauge

	IPFSOperationDuration      *metrics.Histogram
	MintlayerOperationDuration *metrics.Histogram

	IPFSRetryCount      *metrics.Counter
	MintlayerRetryCount *metrics.Counter

	IPFSErrors      *metrics.Counter
	MintlayerErrors *metrics.Counter

	IPFSSuccess      *metrics.Counter
	MintlayerSuccess *metrics.Counter

	CircuitBreakerTrips *metrics.Counter

	CleanupRuns        *metrics.Counter
	CleanupRowsDeleted *metrics.Counter
}

// NewMetrics registers every pipeline metric on reg.
func NewMetrics(reg *metrics.Registry) *Metrics {
	return &Metrics{
		IPFSQueueSize:      reg.Gauge("ipfs_queue_size"),
		MintlayerQueueSize: reg.Gauge("mintlayer_queue_size"),

		IPFSOperationDuration:      reg.Histogram("ipfs_operation_duration", metrics.LatencyBuckets),
		MintlayerOperationDuration: reg.Histogram("mintlayer_operation_duration", metrics.LatencyBuckets),

		IPFSRetryCount:      reg.Counter("ipfs_retry_count"),
		MintlayerRetryCount: reg.Counter("mintlayer_retry_count"),

		IPFSErrors:      reg.Counter("ipfs_errors"),
		MintlayerErrors: reg.Counter("mintlayer_errors"),

		IPFSSuccess:      reg.Counter("ipfs_success"),
		MintlayerSuccess: reg.Counter("mintlayer_success"),

		CircuitBreakerTrips: reg.Counter("circuit_breaker_trips"),

		CleanupRuns:        reg.Counter("cleanup_runs"),
		CleanupRowsDeleted: reg.Counter("cleanup_rows_deleted"),
	}
}
