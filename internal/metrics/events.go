package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(eventsPublishedTotal, eventsProcessedTotal) }

var (
	eventsPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "job_events_published_total",
			Help: "Job events published to the broker, by event type and result.",
		},
		[]string{"type", "result"},
	)

	eventsProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "job_events_processed_total",
			Help: "Job events handled by the history worker, labeled by outcome.",
		},
		[]string{"result"}, // 'recorded', 'duplicate', 'invalid', 'failed'
	)
)

func IncEventPublished(eventType string, ok bool) {
	eventsPublishedTotal.WithLabelValues(eventType, result(ok)).Inc()
}

func IncEventProcessed(outcome string) {
	eventsProcessedTotal.WithLabelValues(outcome).Inc()
}
