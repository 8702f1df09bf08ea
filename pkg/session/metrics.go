package session

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/alicesring/snapdemo/pkg/ringsig"
)

// Metrics holds the Prometheus collectors shared by all sessions.
type Metrics struct {
	SessionsTotal prometheus.Counter
	SessionState  prometheus.Gauge

	ProviderCalls *prometheus.CounterVec
	CallDuration  *prometheus.HistogramVec
	CallsInFlight *prometheus.GaugeVec
}

// NewMetrics registers the collectors with the default registerer.
func NewMetrics() *Metrics {
	return NewMetricsWithRegistry(nil)
}

// NewMetricsWithRegistry registers the collectors with registry.
func NewMetricsWithRegistry(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &Metrics{
		SessionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "snapdemo_sessions_total",
			Help: "The total number of sessions started",
		}),
		SessionState: factory.NewGauge(prometheus.GaugeOpts{
			Name: "snapdemo_session_state",
			Help: "Workflow state of the most recently updated session",
		}),
		ProviderCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "snapdemo_provider_calls_total",
				Help: "The total number of provider calls by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		CallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "snapdemo_provider_call_duration_seconds",
				Help:    "Duration of provider calls, including time spent waiting for the user",
				Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 15, 30, 60, 120},
			},
			[]string{"operation"},
		),
		CallsInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "snapdemo_operations_in_flight",
				Help: "Session operations currently running, by operation class",
			},
			[]string{"operation"},
		),
	}
}

func (m *Metrics) observeCall(op string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = ringsig.KindOf(err).String()
	}
	m.ProviderCalls.WithLabelValues(op, outcome).Inc()
	m.CallDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

func (m *Metrics) sessionStarted() {
	if m == nil {
		return
	}
	m.SessionsTotal.Inc()
	m.SessionState.Set(float64(StateIdle))
}

func (m *Metrics) setState(s State) {
	if m == nil {
		return
	}
	m.SessionState.Set(float64(s))
}

func (m *Metrics) inFlight(op string, delta float64) {
	if m == nil {
		return
	}
	m.CallsInFlight.WithLabelValues(op).Add(delta)
}
