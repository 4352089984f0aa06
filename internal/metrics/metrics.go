// Package metrics exposes Prometheus collectors for HTTP traffic and imports.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/telepoint/emi-portal/internal/core"
)

// Metrics holds the portal's collectors. It implements core.ImportObserver.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	ImportsTotal        prometheus.Counter
	ImportRowsTotal     *prometheus.CounterVec
	ImportDuration      prometheus.Histogram
}

var _ core.ImportObserver = (*Metrics)(nil)

// New registers all collectors, plus Go runtime and process collectors,
// on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "emi_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "emi_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		ImportsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "emi_imports_total",
			Help: "Completed customer imports.",
		}),
		ImportRowsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "emi_import_rows_total",
			Help: "Imported rows by outcome.",
		}, []string{"outcome"}),
		ImportDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "emi_import_duration_seconds",
			Help:    "Wall time of one reconciliation pass.",
			Buckets: []float64{0.5, 1, 5, 15, 30, 60, 120, 240},
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.ImportsTotal,
		m.ImportRowsTotal,
		m.ImportDuration,
	)
	return m
}

// ObserveImport records a finished import.
func (m *Metrics) ObserveImport(report core.ImportReport, elapsed time.Duration) {
	m.ImportsTotal.Inc()
	m.ImportRowsTotal.WithLabelValues(core.OutcomeInserted.String()).Add(float64(report.Inserted))
	m.ImportRowsTotal.WithLabelValues(core.OutcomeSkipped.String()).Add(float64(report.Skipped))
	m.ImportRowsTotal.WithLabelValues(core.OutcomeFailed.String()).Add(float64(report.Failed))
	m.ImportDuration.Observe(elapsed.Seconds())
}

// ObserveRequest records one HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
