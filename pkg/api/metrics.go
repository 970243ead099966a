package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ssargent/lwes/pkg/event"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// Metrics holds the Prometheus metrics for a listener
type Metrics struct {
	registry *prometheus.Registry

	// HTTP request metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight *prometheus.GaugeVec

	// Datagram and event metrics
	datagramsTotal      prometheus.Counter
	bytesTotal          prometheus.Counter
	eventsTotal         *prometheus.CounterVec
	decodeFailuresTotal *prometheus.CounterVec

	// Sink metrics
	sinkWritesTotal *prometheus.CounterVec
}

// NewMetrics creates the metrics on a registry of their own, so several
// listeners (or tests) can coexist in one process.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	m := &Metrics{
		registry: registry,

		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lwes_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lwes_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		httpRequestsInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "lwes_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
			[]string{"method", "endpoint"},
		),

		datagramsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "lwes_datagrams_received_total",
				Help: "Total number of datagrams received",
			},
		),

		bytesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "lwes_bytes_received_total",
				Help: "Total event bytes received, excluding receipt headers",
			},
		),

		eventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lwes_events_decoded_total",
				Help: "Total number of events decoded, by event name",
			},
			[]string{"event"},
		),

		decodeFailuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lwes_decode_failures_total",
				Help: "Total number of datagrams that failed to decode, by failure site",
			},
			[]string{"reason"},
		),

		sinkWritesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lwes_sink_writes_total",
				Help: "Total number of journal and archive writes",
			},
			[]string{"sink", "status"},
		),
	}

	return m
}

// Registry returns the registry the metrics are registered on
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	statusCodeStr := strconv.Itoa(statusCode)

	m.httpRequestsTotal.WithLabelValues(method, endpoint, statusCodeStr).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordDatagram records a received datagram of n bytes
func (m *Metrics) RecordDatagram(n int) {
	m.datagramsTotal.Inc()
	m.bytesTotal.Add(float64(n))
}

// RecordEvent records a decoded event
func (m *Metrics) RecordEvent(name string) {
	m.eventsTotal.WithLabelValues(name).Inc()
}

// RecordDecodeFailure records a datagram that could not be decoded,
// labelled with the failure site
func (m *Metrics) RecordDecodeFailure(err error) {
	reason := "other"
	if code := event.CodeOf(err); code != 0 {
		reason = code.String()
	}
	m.decodeFailuresTotal.WithLabelValues(reason).Inc()
}

// RecordSinkWrite records a write to the journal or archive
func (m *Metrics) RecordSinkWrite(sink string, success bool) {
	status := statusSuccess
	if !success {
		status = statusError
	}
	m.sinkWritesTotal.WithLabelValues(sink, status).Inc()
}

// InstrumentHandler instruments an HTTP handler with metrics
func (m *Metrics) InstrumentHandler(method, endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		gauge := m.httpRequestsInFlight.WithLabelValues(method, endpoint)
		gauge.Inc()
		defer gauge.Dec()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		handler(rw, r)

		m.RecordHTTPRequest(method, endpoint, rw.statusCode, time.Since(start))
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
