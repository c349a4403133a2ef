// Package metrics exposes Prometheus collectors for the assistant.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "inventory_assistant"

// Recorder holds the collectors. A nil *Recorder is valid and records nothing.
type Recorder struct {
	turns          *prometheus.CounterVec
	rateLimited    prometheus.Counter
	input          *prometheus.CounterVec
	oracleFailures *prometheus.CounterVec
	oracleLatency  *prometheus.HistogramVec
	resolutions    *prometheus.CounterVec
	sessions       prometheus.Gauge
}

// MustNew registers the collectors with reg, or with the default registerer
// when reg is nil. Registration errors panic, like promauto.
func MustNew(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	r := &Recorder{
		turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dialogue",
			Name:      "turns_total",
			Help:      "Turns processed, by outcome.",
		}, []string{"outcome"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dialogue",
			Name:      "rate_limited_total",
			Help:      "Turns refused by the oracle budget.",
		}),
		input: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "guard",
			Name:      "flagged_input_total",
			Help:      "Inputs flagged by the input guard, by verdict and reason.",
		}, []string{"verdict", "reason"}),
		oracleFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "oracle",
			Name:      "failures_total",
			Help:      "Oracle calls that degraded to the retry prompt, by reason.",
		}, []string{"reason"}),
		oracleLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "oracle",
			Name:      "request_duration_seconds",
			Help:      "Oracle call latency.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16},
		}, []string{"status"}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resolver",
			Name:      "resolutions_total",
			Help:      "Entity resolutions, by entity kind and result.",
		}, []string{"kind", "result"}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "sessions_active",
			Help:      "Conversations held in the session store.",
		}),
	}
	reg.MustRegister(r.turns, r.rateLimited, r.input, r.oracleFailures, r.oracleLatency, r.resolutions, r.sessions)
	return r
}

func (r *Recorder) Turn(outcome string) {
	if r == nil {
		return
	}
	r.turns.WithLabelValues(outcome).Inc()
}

func (r *Recorder) RateLimited() {
	if r == nil {
		return
	}
	r.rateLimited.Inc()
}

// FlaggedInput counts a suspicious or rejected input.
func (r *Recorder) FlaggedInput(verdict, reason string) {
	if r == nil {
		return
	}
	r.input.WithLabelValues(verdict, reason).Inc()
}

func (r *Recorder) OracleFailure(reason string) {
	if r == nil {
		return
	}
	r.oracleFailures.WithLabelValues(reason).Inc()
}

func (r *Recorder) ObserveOracle(status string, d time.Duration) {
	if r == nil {
		return
	}
	r.oracleLatency.WithLabelValues(status).Observe(d.Seconds())
}

func (r *Recorder) Resolution(kind, result string) {
	if r == nil {
		return
	}
	r.resolutions.WithLabelValues(kind, result).Inc()
}

func (r *Recorder) SetSessions(n int) {
	if r == nil {
		return
	}
	r.sessions.Set(float64(n))
}
