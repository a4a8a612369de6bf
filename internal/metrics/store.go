package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(storeOperationsTotal, storeOperationDuration) }

var (
	storeOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "job_store_operations_total",
			Help: "Job store operations by operation and result.",
		},
		[]string{"operation", "result"},
	)

	storeOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "job_store_operation_duration_seconds",
			Help:    "Latency of job store operations, spreadsheet round trips included.",
			Buckets: []float64{.05, .1, .25, .5, 1, 2, 4, 8},
		},
		[]string{"operation"},
	)
)

func ObserveStoreOperation(operation string, latency time.Duration, ok bool) {
	storeOperationsTotal.WithLabelValues(operation, result(ok)).Inc()
	storeOperationDuration.WithLabelValues(operation).Observe(latency.Seconds())
}
