package triage

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds Prometheus metrics for the triage subsystem.
type Metrics struct {
	DecisionsTotal           *prometheus.CounterVec
	InterventionsTotal       *prometheus.CounterVec
	ClassifierFallbacksTotal *prometheus.CounterVec
	DecisionDuration         prometheus.Histogram
	BatchRowsTotal           *prometheus.CounterVec
	NotificationsTotal       *prometheus.CounterVec
}

// NewMetrics registers and returns triage metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		DecisionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "acuity_decisions_total",
			Help: "Total triage decisions by risk tier and source.",
		}, []string{"risk", "source"}),
		InterventionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "acuity_interventions_total",
			Help: "Total recommended interventions by type.",
		}, []string{"intervention"}),
		ClassifierFallbacksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "acuity_classifier_fallbacks_total",
			Help: "Total rule-engine fallbacks by reason.",
		}, []string{"reason"}),
		DecisionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "acuity_decision_duration_seconds",
			Help:    "Duration of single triage decisions in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8), // 100us .. ~1.6s
		}),
		BatchRowsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "acuity_batch_rows_total",
			Help: "Total batch rows processed by outcome.",
		}, []string{"outcome"}),
		NotificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "acuity_notifications_total",
			Help: "Total escalation notifications by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(
		m.DecisionsTotal,
		m.InterventionsTotal,
		m.ClassifierFallbacksTotal,
		m.DecisionDuration,
		m.BatchRowsTotal,
		m.NotificationsTotal,
	)

	return m
}
