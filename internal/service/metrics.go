package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the business counters exported on /metrics.
type Metrics struct {
	authAttempts      *prometheus.CounterVec
	reviewsSubmitted  prometheus.Counter
	reviewsModerated  *prometheus.CounterVec
	ratingRecomputes  prometheus.Counter
	ratingRecomputeMs prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		authAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_attempts_total",
			Help:      "Register and login attempts by operation and outcome.",
		}, []string{"operation", "outcome"}),
		reviewsSubmitted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reviews_submitted_total",
			Help:      "Reviews accepted into the moderation queue.",
		}),
		reviewsModerated: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reviews_moderated_total",
			Help:      "Moderation decisions by resulting status.",
		}, []string{"status"}),
		ratingRecomputes: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rating_recomputes_total",
			Help:      "Tool rating aggregates written.",
		}),
		ratingRecomputeMs: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rating_recompute_duration_milliseconds",
			Help:      "Time spent recomputing a tool aggregate under its lock.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500},
		}),
	}
}

func (m *Metrics) authAttempt(operation, outcome string) {
	if m == nil {
		return
	}
	m.authAttempts.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) reviewSubmitted() {
	if m == nil {
		return
	}
	m.reviewsSubmitted.Inc()
}

func (m *Metrics) reviewModerated(status string) {
	if m == nil {
		return
	}
	m.reviewsModerated.WithLabelValues(status).Inc()
}

func (m *Metrics) ratingRecomputed(ms float64) {
	if m == nil {
		return
	}
	m.ratingRecomputes.Inc()
	m.ratingRecomputeMs.Observe(ms)
}
