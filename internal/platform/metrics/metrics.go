package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
// Every method is nil-safe so components can run without metrics.
type Metrics struct {
	// Report runs by kind and outcome (ok, no_data, error)
	ReportRuns *prometheus.CounterVec

	ReportDuration *prometheus.HistogramVec

	RecordsNormalized prometheus.Counter
	RecordsSkipped    prometheus.Counter

	// Per-record extraction failures by extractor
	ExtractionErrors *prometheus.CounterVec

	CacheResults *prometheus.CounterVec

	HTTPLatency *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics on the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the metrics on reg. Tests pass a fresh registry.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ReportRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pricetrends_report_runs_total",
			Help: "Report computations by kind and outcome",
		}, []string{"kind", "outcome"}),

		ReportDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pricetrends_report_duration_seconds",
			Help:    "Duration of report computation including load",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"kind"}),

		RecordsNormalized: factory.NewCounter(prometheus.CounterOpts{
			Name: "pricetrends_records_normalized_total",
			Help: "Pricing documents normalized into records",
		}),

		RecordsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "pricetrends_records_skipped_total",
			Help: "Pricing documents skipped for lacking a timestamp",
		}),

		ExtractionErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pricetrends_extraction_errors_total",
			Help: "Per-record extraction failures by extractor",
		}, []string{"extractor"}),

		CacheResults: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pricetrends_dashboard_cache_total",
			Help: "Dashboard cache lookups by result (hit, miss, error, bypass)",
		}, []string{"result"}),

		HTTPLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pricetrends_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}

// IncrementReportRun records one report computation outcome.
func (m *Metrics) IncrementReportRun(kind, outcome string) {
	if m != nil {
		m.ReportRuns.WithLabelValues(kind, outcome).Inc()
	}
}

func (m *Metrics) ObserveReportDuration(kind string, d time.Duration) {
	if m != nil {
		m.ReportDuration.WithLabelValues(kind).Observe(d.Seconds())
	}
}

// AddRecords records the outcome of one normalization pass.
func (m *Metrics) AddRecords(normalized, skipped int) {
	if m != nil {
		m.RecordsNormalized.Add(float64(normalized))
		m.RecordsSkipped.Add(float64(skipped))
	}
}

func (m *Metrics) AddExtractionErrors(extractor string, n int) {
	if m != nil && n > 0 {
		m.ExtractionErrors.WithLabelValues(extractor).Add(float64(n))
	}
}

func (m *Metrics) IncrementCache(result string) {
	if m != nil {
		m.CacheResults.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) ObserveHTTPLatency(route, status string, d time.Duration) {
	if m != nil {
		m.HTTPLatency.WithLabelValues(route, status).Observe(d.Seconds())
	}
}
