package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for business operations. HTTP
// metrics live in the transport middleware; these cover what happens
// behind the handlers.
type Metrics struct {
	// Coordinator metrics
	OperationsRun      *prometheus.CounterVec
	OperationFailures  *prometheus.CounterVec
	OperationDuration  *prometheus.HistogramVec
	StepsCompensated   prometheus.Counter
	CompensationErrors prometheus.Counter
	FlagsRaised        prometheus.Counter

	// Outbox metrics
	EventsPublished     prometheus.Counter
	EventPublishErrors  prometheus.Counter
	OutboxBacklogEvents prometheus.Gauge
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		OperationsRun: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "backoffice_operations_total",
			Help: "Coordinator operations completed, by operation name",
		}, []string{"operation"}),

		OperationFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "backoffice_operation_failures_total",
			Help: "Coordinator operations that failed, by operation name",
		}, []string{"operation"}),

		OperationDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "backoffice_operation_duration_seconds",
			Help:    "Coordinator operation duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"operation"}),

		StepsCompensated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "backoffice_steps_compensated_total",
			Help: "Saga steps rolled back after a downstream failure",
		}),

		CompensationErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "backoffice_compensation_errors_total",
			Help: "Saga compensations that themselves failed",
		}),

		FlagsRaised: promauto.NewCounter(prometheus.CounterOpts{
			Name: "backoffice_reconciliation_flags_total",
			Help: "Reconciliation flags raised for manual follow-up",
		}),

		EventsPublished: promauto.NewCounter(prometheus.CounterOpts{
			Name: "backoffice_outbox_events_published_total",
			Help: "Outbox events handed to the publisher",
		}),

		EventPublishErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "backoffice_outbox_publish_errors_total",
			Help: "Outbox events that failed to publish",
		}),

		OutboxBacklogEvents: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "backoffice_outbox_backlog_events",
			Help: "Unpublished events seen in the last poll",
		}),
	}
}
