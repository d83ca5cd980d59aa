// Package metrics exposes Prometheus collectors for the deal assistant.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "deal_assistant"

// Metrics groups every collector the server records. All methods are safe
// on a nil receiver so services can run without instrumentation in tests.
type Metrics struct {
	registry prometheus.Gatherer

	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	uploadsTotal       *prometheus.CounterVec
	uploadedRows       prometheus.Histogram
	matchesTotal       *prometheus.CounterVec
	generationsTotal   *prometheus.CounterVec
	generationAttempts *prometheus.HistogramVec
	generationSeconds  *prometheus.HistogramVec
	activeSessions     prometheus.Gauge
}

// New registers the collectors on a fresh registry that also carries the
// Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(reg, reg)
}

// NewWithRegistry registers the collectors on reg and serves them from g.
func NewWithRegistry(reg prometheus.Registerer, g prometheus.Gatherer) *Metrics {
	m := &Metrics{
		registry: g,
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency by route.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		uploadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "deal_uploads_total",
				Help:      "Deal database uploads by result.",
			},
			[]string{"result"},
		),
		uploadedRows: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "deal_upload_rows",
				Help:      "Rows per accepted deal database.",
				Buckets:   []float64{10, 50, 100, 500, 1000, 5000, 10000, 50000},
			},
		),
		matchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "context_selections_total",
				Help:      "Reference row selections by mode (historic or generic).",
			},
			[]string{"mode"},
		),
		generationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "generations_total",
				Help:      "Proposal generations by provider and outcome.",
			},
			[]string{"provider", "outcome"},
		),
		generationAttempts: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "generation_attempts",
				Help:      "Provider attempts per proposal generation.",
				Buckets:   []float64{1, 2, 3, 4, 5},
			},
			[]string{"provider"},
		),
		generationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "generation_duration_seconds",
				Help:      "Wall time per proposal generation including retry waits.",
				Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
			},
			[]string{"provider"},
		),
		activeSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_sessions",
				Help:      "Analyst sessions currently held in memory.",
			},
		),
	}

	reg.MustRegister(
		m.httpRequestsTotal,
		m.httpRequestDurationSeconds,
		m.uploadsTotal,
		m.uploadedRows,
		m.matchesTotal,
		m.generationsTotal,
		m.generationAttempts,
		m.generationSeconds,
		m.activeSessions,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveHTTPRequest(method, path, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.httpRequestDurationSeconds.WithLabelValues(method, path, status).Observe(elapsed.Seconds())
}

// ObserveUpload records an upload; rows is ignored unless result is "accepted".
func (m *Metrics) ObserveUpload(result string, rows int) {
	if m == nil {
		return
	}
	m.uploadsTotal.WithLabelValues(result).Inc()
	if result == UploadAccepted {
		m.uploadedRows.Observe(float64(rows))
	}
}

func (m *Metrics) ObserveContextSelection(mode string) {
	if m == nil {
		return
	}
	m.matchesTotal.WithLabelValues(mode).Inc()
}

func (m *Metrics) ObserveGeneration(provider, outcome string, attempts int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.generationsTotal.WithLabelValues(provider, outcome).Inc()
	if attempts > 0 {
		m.generationAttempts.WithLabelValues(provider).Observe(float64(attempts))
	}
	m.generationSeconds.WithLabelValues(provider).Observe(elapsed.Seconds())
}

func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	if n < 0 {
		n = 0
	}
	m.activeSessions.Set(float64(n))
}

// Upload results.
const (
	UploadAccepted = "accepted"
	UploadRejected = "rejected"
)
