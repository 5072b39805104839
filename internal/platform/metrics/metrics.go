package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	ValidationsTotal   *prometheus.CounterVec
	DenialsTotal       *prometheus.CounterVec
	EntriesTotal       *prometheus.CounterVec
	ExitsTotal         prometheus.Counter
	CurrentOccupancy   *prometheus.GaugeVec
	ValidationLatency  prometheus.Histogram
	RecognitionLatency prometheus.Histogram
	RecognitionMatches *prometheus.CounterVec
	AuditDropped       prometheus.Counter
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		ValidationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "parking_validations_total",
			Help: "Total number of access validations, labeled by user type and outcome",
		}, []string{"user_type", "outcome"}),
		DenialsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "parking_denials_total",
			Help: "Total number of denied validations, labeled by reason",
		}, []string{"reason"}),
		EntriesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "parking_entries_total",
			Help: "Total number of registered entries, labeled by user type and detection method",
		}, []string{"user_type", "detection_method"}),
		ExitsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "parking_exits_total",
			Help: "Total number of registered exits",
		}),
		CurrentOccupancy: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "parking_current_occupancy",
			Help: "Current number of vehicles inside, labeled by user type",
		}, []string{"user_type"}),
		ValidationLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "parking_validation_latency_seconds",
			Help:    "Latency of access validations in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		RecognitionLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "parking_recognition_latency_seconds",
			Help:    "Latency of plate recognition in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		RecognitionMatches: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "parking_recognition_results_total",
			Help: "Plate recognition results, labeled by match kind",
		}, []string{"match"}),
		AuditDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "parking_audit_events_dropped_total",
			Help: "Denial audit events dropped because the async buffer was full",
		}),
	}
}

// IncrementValidations increments the validations counter for the given outcome.
func (m *Metrics) IncrementValidations(userType, outcome string) {
	m.ValidationsTotal.WithLabelValues(userType, outcome).Inc()
}

// IncrementDenials increments the denial counter for the given reason.
func (m *Metrics) IncrementDenials(reason string) {
	m.DenialsTotal.WithLabelValues(reason).Inc()
}

// IncrementEntries increments the entries counter.
func (m *Metrics) IncrementEntries(userType, detectionMethod string) {
	m.EntriesTotal.WithLabelValues(userType, detectionMethod).Inc()
	m.CurrentOccupancy.WithLabelValues(userType).Inc()
}

// IncrementExits increments the exit counter and drops the occupancy gauge.
func (m *Metrics) IncrementExits(userType string) {
	m.ExitsTotal.Inc()
	m.CurrentOccupancy.WithLabelValues(userType).Dec()
}

// ObserveValidationLatency records the latency for a validation call.
func (m *Metrics) ObserveValidationLatency(durationSeconds float64) {
	m.ValidationLatency.Observe(durationSeconds)
}

// ObserveRecognitionLatency records the latency for a recognition call.
func (m *Metrics) ObserveRecognitionLatency(durationSeconds float64) {
	m.RecognitionLatency.Observe(durationSeconds)
}

// IncrementRecognitionResult counts a recognition outcome: pattern, fallback, or none.
func (m *Metrics) IncrementRecognitionResult(match string) {
	m.RecognitionMatches.WithLabelValues(match).Inc()
}

// IncrementAuditDropped counts a dropped audit event.
func (m *Metrics) IncrementAuditDropped() {
	m.AuditDropped.Inc()
}
