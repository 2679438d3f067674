package bridge

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "hybridhttp"

// metrics holds plugin call instrumentation on a registry owned by one
// server, so several servers in one process do not collide.
type metrics struct {
	registry *prometheus.Registry

	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inFlight prometheus.Gauge
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "plugin_calls_total",
				Help:      "Plugin calls by method and outcome.",
			},
			[]string{"method", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "plugin_call_duration_seconds",
				Help:      "Plugin call latency.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "plugin_calls_in_flight",
			Help:      "Plugin calls currently running.",
		}),
	}
	m.registry.MustRegister(m.calls, m.duration, m.inFlight)
	return m
}

// observe records one finished call. Unknown method names collapse into a
// single label value.
func (m *metrics) observe(method string, err error, elapsed time.Duration) {
	if errors.Is(err, ErrUnknownMethod) {
		method = "unknown"
	}
	m.calls.WithLabelValues(method, callStatus(err)).Inc()
	m.duration.WithLabelValues(method).Observe(elapsed.Seconds())
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func callStatus(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrUnknownMethod):
		return "unknown_method"
	case errors.Is(err, ErrInvalidOptions):
		return "invalid_options"
	default:
		return "error"
	}
}
