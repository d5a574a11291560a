package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"time"
)

// Metrics holds the widget's prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	FetchesTotal         *prometheus.CounterVec
	FetchDuration        prometheus.Histogram
	StaleResponsesTotal  prometheus.Counter
	ConversionsTotal     *prometheus.CounterVec
	ActiveSessions       prometheus.Gauge
	SessionsExpiredTotal prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		FetchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "converter",
				Name:      "rate_fetches_total",
				Help:      "Rate table fetches by outcome",
			},
			[]string{"outcome"},
		),
		FetchDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "converter",
				Name:      "rate_fetch_duration_seconds",
				Help:      "Duration of rate table fetches",
				Buckets:   prometheus.DefBuckets,
			},
		),
		StaleResponsesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "converter",
				Name:      "stale_responses_total",
				Help:      "Fetch results discarded because a newer fetch was started",
			},
		),
		ConversionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "converter",
				Name:      "conversions_total",
				Help:      "Conversions by outcome",
			},
			[]string{"outcome"},
		),
		ActiveSessions: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "converter",
				Name:      "active_sessions",
				Help:      "Mounted widget sessions",
			},
		),
		SessionsExpiredTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "converter",
				Name:      "sessions_expired_total",
				Help:      "Sessions unmounted after being idle",
			},
		),
	}
}

func (m *Metrics) ObserveFetch(outcome string, started time.Time) {
	if m == nil {
		return
	}
	m.FetchesTotal.WithLabelValues(outcome).Inc()
	m.FetchDuration.Observe(time.Since(started).Seconds())
}

func (m *Metrics) StaleResponse() {
	if m == nil {
		return
	}
	m.StaleResponsesTotal.Inc()
}

func (m *Metrics) Conversion(outcome string) {
	if m == nil {
		return
	}
	m.ConversionsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SessionMounted() {
	if m == nil {
		return
	}
	m.ActiveSessions.Inc()
}

func (m *Metrics) SessionUnmounted(expired bool) {
	if m == nil {
		return
	}
	m.ActiveSessions.Dec()
	if expired {
		m.SessionsExpiredTotal.Inc()
	}
}
