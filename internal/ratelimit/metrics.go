package ratelimit

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Guard names used as metric labels
const (
	GuardExecution = "execution"
	GuardDiscovery = "discovery"
)

// Decision outcomes used as metric labels
const (
	OutcomeAllowed    = "allowed"
	OutcomeRejected   = "rejected"
	OutcomeStoreError = "store_error"
)

// Metrics records guard decisions and store latency. A nil *Metrics is a no-op.
type Metrics struct {
	decisions     *prometheus.CounterVec
	storeDuration *prometheus.HistogramVec
}

// NewMetrics registers the rate limit collectors with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		decisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "toolgate",
				Subsystem: "ratelimit",
				Name:      "decisions_total",
				Help:      "Admission decisions by guard and outcome",
			},
			[]string{"guard", "outcome"},
		),
		storeDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "toolgate",
				Subsystem: "ratelimit",
				Name:      "store_duration_seconds",
				Help:      "Counter store round-trip duration",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
			},
			[]string{"operation"},
		),
	}
}

func (m *Metrics) decision(guard, outcome string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(guard, outcome).Inc()
}

func (m *Metrics) observeStore(operation string, start time.Time) {
	if m == nil {
		return
	}
	m.storeDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
