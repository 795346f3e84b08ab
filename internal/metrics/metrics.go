// Package metrics exposes calculation counters and latencies to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a registry so tests and multiple servers do not collide on
// the global one.
type Metrics struct {
	registry       *prometheus.Registry
	calculations   *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	sampleFailures *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		calculations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "integral_calculations_total",
			Help: "Calculations by integral type and outcome",
		}, []string{"type", "success"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "integral_calculation_duration_seconds",
			Help:    "Calculation latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"type"}),
		sampleFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "integral_sample_failures_total",
			Help: "Plot points with no finite real value, by curve",
		}, []string{"curve"}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "integral_http_requests_total",
			Help: "HTTP requests by route and status code",
		}, []string{"route", "code"}),
	}
}

func (m *Metrics) ObserveCalculation(kind string, success bool, elapsed time.Duration) {
	m.calculations.WithLabelValues(kind, strconv.FormatBool(success)).Inc()
	m.duration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveSampleFailures(curve string, n int) {
	if n > 0 {
		m.sampleFailures.WithLabelValues(curve).Add(float64(n))
	}
}

func (m *Metrics) ObserveHTTP(route string, code int) {
	m.httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
