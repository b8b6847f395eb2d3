// Package monitoring exposes Prometheus metrics for the pipeline.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the monitor.
type Metrics struct {
	ChecksTotal      *prometheus.CounterVec
	EntriesFound     prometheus.Counter
	EntriesProcessed *prometheus.CounterVec
	ExtractionTotal  *prometheus.CounterVec
	OCRFallbacks     prometheus.Counter
	CheckDuration    prometheus.Histogram
}

// NewMetrics registers on the default registerer.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith registers the metric set on reg; tests pass a fresh
// registry to avoid duplicate-registration panics.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ChecksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "monitor_checks_total",
			Help: "Monitoring check runs by final status",
		}, []string{"status"}),
		EntriesFound: factory.NewCounter(prometheus.CounterOpts{
			Name: "monitor_entries_found_total",
			Help: "New enforcement entries discovered on the page",
		}),
		EntriesProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "monitor_entries_processed_total",
			Help: "Entries processed by outcome",
		}, []string{"outcome"}), // 'ok', 'failed'
		ExtractionTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "monitor_extraction_total",
			Help: "Text extractions by winning method",
		}, []string{"method"}),
		OCRFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "monitor_ocr_fallbacks_total",
			Help: "Documents where direct extraction fell short and OCR ran",
		}),
		CheckDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "monitor_check_duration_seconds",
			Help:    "Wall-clock duration of a full check run",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
	}
}

func (m *Metrics) IncCheck(status string) {
	m.ChecksTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) IncProcessed(outcome string) {
	m.EntriesProcessed.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncExtraction(method string) {
	if method == "" {
		method = "none"
	}
	m.ExtractionTotal.WithLabelValues(method).Inc()
}
