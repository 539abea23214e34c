// Package metrics exposes Prometheus metrics for HTTP traffic, entity services and capture sessions
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rpupo63/fieldlens-backend/errs"
)

const namespace = "fieldlens"

// Metrics contains every collector the server registers
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	serviceCallsTotal   *prometheus.CounterVec
	serviceCallDuration *prometheus.HistogramVec

	captureOperationsTotal *prometheus.CounterVec
	captureSessionsActive  prometheus.Gauge
	annotationDraftsActive prometheus.Gauge
	reportsGenerated       *prometheus.CounterVec
}

// New creates and registers metrics on registry. Go runtime and process collectors are
// registered as well.
func New(registry *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{registry: registry}
	m.initMetrics()

	for _, c := range append(m.getCollectors(),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	) {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) initMetrics() {
	m.httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status_code"},
	)

	m.httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Time taken for HTTP requests",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	m.serviceCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "service_calls_total",
			Help:      "Total number of entity service calls",
		},
		[]string{"entity", "operation", "result"}, // result: success, not_found, validation, cancelled, error
	)

	m.serviceCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "service_call_duration_seconds",
			Help:      "Time taken for entity service calls including simulated latency",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"entity", "operation"},
	)

	m.captureOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capture_operations_total",
			Help:      "Total number of camera operations",
		},
		[]string{"operation", "result"},
	)

	m.captureSessionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "capture_sessions_active",
		Help:      "Number of open capture sessions",
	})

	m.annotationDraftsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "annotation_drafts_active",
		Help:      "Number of unsaved annotation drafts",
	})

	m.reportsGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_generated_total",
			Help:      "Total number of generated reports",
		},
		[]string{"type", "format"},
	)
}

func (m *Metrics) getCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.serviceCallsTotal,
		m.serviceCallDuration,
		m.captureOperationsTotal,
		m.captureSessionsActive,
		m.annotationDraftsActive,
		m.reportsGenerated,
	}
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordHTTPRequest records one request. route should be the route pattern, not the raw path.
func (m *Metrics) RecordHTTPRequest(method, route string, statusCode int, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveCall records an entity service call
func (m *Metrics) ObserveCall(entity, operation string, duration time.Duration, err error) {
	m.serviceCallsTotal.WithLabelValues(entity, operation, Result(err)).Inc()
	m.serviceCallDuration.WithLabelValues(entity, operation).Observe(duration.Seconds())
}

// RecordCapture records a camera operation such as open, capture or close
func (m *Metrics) RecordCapture(operation string, err error) {
	m.captureOperationsTotal.WithLabelValues(operation, Result(err)).Inc()
}

func (m *Metrics) SetCaptureSessions(n int) {
	m.captureSessionsActive.Set(float64(n))
}

func (m *Metrics) SetAnnotationDrafts(n int) {
	m.annotationDraftsActive.Set(float64(n))
}

func (m *Metrics) RecordReport(reportType, format string) {
	m.reportsGenerated.WithLabelValues(reportType, format).Inc()
}

// Result classifies err into a low-cardinality label value
func Result(err error) string {
	switch {
	case err == nil:
		return "success"
	case errs.IsNotFound(err):
		return "not_found"
	case errs.IsValidationFailure(err):
		return "validation"
	case errs.IsCancelled(err):
		return "cancelled"
	case errs.IsDeviceUnavailable(err):
		return "device_unavailable"
	case errors.Is(err, errs.ErrServiceUnreachable):
		return "unreachable"
	default:
		return "error"
	}
}
