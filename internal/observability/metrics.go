package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "soup"

// Metrics holds the session metrics. A nil *Metrics records nothing.
type Metrics struct {
	OracleAttempts  *prometheus.CounterVec
	OracleLatency   *prometheus.HistogramVec
	Submissions     *prometheus.CounterVec
	Regenerations   *prometheus.CounterVec
	LockContentions prometheus.Counter

	gatherer prometheus.Gatherer
}

// NewMetrics registers the session metrics on reg.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		OracleAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "oracle",
			Name:      "attempts_total",
			Help:      "Oracle attempts by operation and outcome (ok, invalid, error, cancelled).",
		}, []string{"op", "outcome"}),
		OracleLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "oracle",
			Name:      "race_seconds",
			Help:      "Time until the first valid oracle response, or until every attempt failed.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
		}, []string{"op", "result"}),
		Submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "submissions_total",
			Help:      "Submissions by mode and final state.",
		}, []string{"mode", "state"}),
		Regenerations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "regenerations_total",
			Help:      "Regeneration attempts by outcome.",
		}, []string{"outcome"}),
		LockContentions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "lock_contentions_total",
			Help:      "Regenerations refused because another client held the generation lock.",
		}),
		gatherer: reg,
	}
}

// Handler serves the registered metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ObserveOracleAttempt counts one oracle attempt.
func (m *Metrics) ObserveOracleAttempt(op, outcome string) {
	if m == nil {
		return
	}
	m.OracleAttempts.WithLabelValues(op, outcome).Inc()
}

// ObserveOracleRace records how long a race took.
func (m *Metrics) ObserveOracleRace(op, result string, d time.Duration) {
	if m == nil {
		return
	}
	m.OracleLatency.WithLabelValues(op, result).Observe(d.Seconds())
}

// ObserveSubmission counts a submission that reached a final state.
func (m *Metrics) ObserveSubmission(mode, state string) {
	if m == nil {
		return
	}
	m.Submissions.WithLabelValues(mode, state).Inc()
}

// ObserveRegeneration counts a regeneration outcome.
func (m *Metrics) ObserveRegeneration(outcome string) {
	if m == nil {
		return
	}
	m.Regenerations.WithLabelValues(outcome).Inc()
}

// ObserveLockContention counts a refusal caused by the generation lock.
func (m *Metrics) ObserveLockContention() {
	if m == nil {
		return
	}
	m.LockContentions.Inc()
}
