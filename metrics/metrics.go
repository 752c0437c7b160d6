// Package metrics exposes Prometheus collectors for the server engine.
package metrics

import (
	nethttp "net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ServerMetrics implements the engine's Collector interface on top of a
// private Prometheus registry.
type ServerMetrics struct {
	reg *prometheus.Registry

	connsAccepted prometheus.Counter
	connsActive   prometheus.Gauge
	requests      *prometheus.CounterVec
	duration      prometheus.Histogram
	parseErrors   prometheus.Counter
	panics        prometheus.Counter
}

// New creates the collectors on a fresh registry.
func New() *ServerMetrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &ServerMetrics{
		reg: reg,
		connsAccepted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "karics",
			Name:      "connections_accepted_total",
			Help:      "Connections accepted since start.",
		}),
		connsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "karics",
			Name:      "connections_active",
			Help:      "Currently open connections.",
		}),
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "karics",
			Name:      "requests_total",
			Help:      "Requests served, by status class.",
		}, []string{"class"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "karics",
			Name:      "request_duration_seconds",
			Help:      "Time from complete parse to encoded response.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		parseErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "karics",
			Name:      "parse_errors_total",
			Help:      "Malformed requests answered with 400.",
		}),
		panics: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "karics",
			Name:      "handler_panics_total",
			Help:      "Handler panics recovered by the connection driver.",
		}),
	}
}

func (m *ServerMetrics) ConnOpened() {
	m.connsAccepted.Inc()
	m.connsActive.Inc()
}

func (m *ServerMetrics) ConnClosed() {
	m.connsActive.Dec()
}

func (m *ServerMetrics) Request(status int, d time.Duration) {
	m.requests.WithLabelValues(statusClass(status)).Inc()
	m.duration.Observe(d.Seconds())
}

func (m *ServerMetrics) ParseError() {
	m.parseErrors.Inc()
}

func (m *ServerMetrics) PanicRecovered() {
	m.panics.Inc()
}

// Registry exposes the backing registry for extra application collectors.
func (m *ServerMetrics) Registry() *prometheus.Registry {
	return m.reg
}

// Handler returns the /metrics handler for the admin mux.
func (m *ServerMetrics) Handler() nethttp.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

func statusClass(status int) string {
	if status < 100 || status > 599 {
		return "other"
	}
	return strconv.Itoa(status/100) + "xx"
}
