package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus collectors for the ABR decision service.
type Metrics struct {
	registry             *prometheus.Registry
	requestsTotal        *prometheus.CounterVec
	errorsTotal          prometheus.Counter
	sessionsCreatedTotal *prometheus.CounterVec
	sessionsEndedTotal   prometheus.Counter
	activeSessions       prometheus.Gauge

	decisionsTotal *prometheus.CounterVec
	qualityIndex   *prometheus.HistogramVec
	throughput     *prometheus.HistogramVec
	reservoirLow   *prometheus.GaugeVec
	anomaliesTotal *prometheus.CounterVec
}

// New creates and registers Prometheus metrics on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "abr_http_requests_total",
		Help: "Total number of HTTP requests received",
	}, []string{"method", "code"})
	errorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "abr_http_errors_total",
		Help: "Total number of HTTP responses with error status (4xx or 5xx)",
	})
	sessionsCreatedTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "abr_sessions_created_total",
		Help: "Total number of playback sessions created",
	}, []string{"variant"})
	sessionsEndedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "abr_sessions_ended_total",
		Help: "Total number of playback sessions ended",
	})
	activeSessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "abr_active_sessions",
		Help: "Number of sessions that are not ended",
	})
	decisionsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "abr_decisions_total",
		Help: "Total number of rate decisions returned",
	}, []string{"variant"})
	qualityIndex := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "abr_selected_quality_index",
		Help:    "Quality index chosen per decision",
		Buckets: prometheus.LinearBuckets(0, 1, 10),
	}, []string{"variant"})
	throughput := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "abr_throughput_bps",
		Help:    "Throughput of accepted segment downloads in bits per second",
		Buckets: prometheus.ExponentialBuckets(100_000, 2, 12),
	}, []string{"variant"})
	reservoirLow := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "abr_reservoir_low_seconds",
		Help: "Most recent low reservoir after a resize",
	}, []string{"variant"})
	anomaliesTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "abr_anomalies_total",
		Help: "Measurement anomalies absorbed by sessions",
	}, []string{"variant", "kind"})

	registry.MustRegister(
		requestsTotal,
		errorsTotal,
		sessionsCreatedTotal,
		sessionsEndedTotal,
		activeSessions,
		decisionsTotal,
		qualityIndex,
		throughput,
		reservoirLow,
		anomaliesTotal,
	)

	return &Metrics{
		registry:             registry,
		requestsTotal:        requestsTotal,
		errorsTotal:          errorsTotal,
		sessionsCreatedTotal: sessionsCreatedTotal,
		sessionsEndedTotal:   sessionsEndedTotal,
		activeSessions:       activeSessions,
		decisionsTotal:       decisionsTotal,
		qualityIndex:         qualityIndex,
		throughput:           throughput,
		reservoirLow:         reservoirLow,
		anomaliesTotal:       anomaliesTotal,
	}
}

// IncRequests counts one served request.
func (m *Metrics) IncRequests(method string, status int) {
	m.requestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

// IncErrors increments the errors counter.
func (m *Metrics) IncErrors() {
	m.errorsTotal.Inc()
}

// IncSessionsCreated counts a new session of the given variant.
func (m *Metrics) IncSessionsCreated(variant string) {
	m.sessionsCreatedTotal.WithLabelValues(variant).Inc()
}

// IncSessionsEnded increments the sessions ended counter.
func (m *Metrics) IncSessionsEnded() {
	m.sessionsEndedTotal.Inc()
}

// SetActiveSessions sets the active sessions gauge.
func (m *Metrics) SetActiveSessions(n int) {
	m.activeSessions.Set(float64(n))
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an http.Handler that serves Prometheus metrics.
// updateGauges is called before each scrape to refresh gauge values (e.g. active sessions).
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		h.ServeHTTP(w, r)
	})
}
