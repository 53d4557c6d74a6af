package limits

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains Prometheus metrics for limit decisions.
type Metrics struct {
	checks     *prometheus.CounterVec
	rejections *prometheus.CounterVec
	retryAfter prometheus.Histogram
}

// NewMetrics creates metrics registered with the default registerer.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith creates metrics registered with reg.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		checks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "callisto_limits_checks_total",
				Help: "Total number of limit checks performed",
			},
			[]string{"identifier", "result"},
		),

		rejections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "callisto_limits_rejections_total",
				Help: "Total number of rejected limit checks",
			},
			[]string{"identifier", "algorithm", "reason"},
		),

		retryAfter: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "callisto_limits_retry_after_seconds",
				Help:    "Advisory backoff hints attached to transient rejections",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 16), // 1ms to ~32s
			},
		),
	}
}

// RecordCheck records one limit decision.
func (m *Metrics) RecordCheck(identifier string, decision Decision) {
	result := "allowed"
	if !decision.Allowed {
		result = "rejected"
	}
	m.checks.WithLabelValues(identifier, result).Inc()

	if !decision.Allowed {
		m.rejections.WithLabelValues(identifier, decision.Algorithm.String(), decision.Reason).Inc()
		if decision.RetryAfter > 0 {
			m.retryAfter.Observe(decision.RetryAfter.Seconds())
		}
	}
}
