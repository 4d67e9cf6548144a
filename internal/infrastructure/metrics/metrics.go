package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the audit pipeline.
type Metrics struct {
	// Pipeline counters
	EventsAudited    prometheus.Counter
	AuditErrors      prometheus.Counter
	MessagesConsumed prometheus.Counter

	// Store outcomes by kind (inserted, duplicate, conflict)
	StoreWrites *prometheus.CounterVec

	// Consumer internals
	ProcessingDuration prometheus.Histogram
	ConsumerState      prometheus.Gauge
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		EventsAudited: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bankly_audit_events_total",
			Help: "Total number of audit events processed",
		}),
		AuditErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bankly_audit_errors_total",
			Help: "Total number of errors in the audit pipeline",
		}),
		MessagesConsumed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bankly_messages_consumed_total",
			Help: "Total number of messages read from the broker",
		}),
		StoreWrites: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bankly_audit_store_writes_total",
				Help: "Audit store write outcomes by kind",
			},
			[]string{"outcome"},
		),
		ProcessingDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "bankly_message_processing_duration_seconds",
			Help:    "Duration of per-message processing",
			Buckets: prometheus.DefBuckets,
		}),
		ConsumerState: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "bankly_consumer_state",
			Help: "Current consumer state (0=stopped 1=connecting 2=subscribed 3=running 4=draining)",
		}),
	}
}

// IncAudited increments the processed-events counter.
func (m *Metrics) IncAudited() {
	m.EventsAudited.Inc()
}

// IncErrors increments the pipeline error counter.
func (m *Metrics) IncErrors() {
	m.AuditErrors.Inc()
}
