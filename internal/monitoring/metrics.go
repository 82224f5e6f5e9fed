// internal/monitoring/metrics.go

// Package monitoring exposes Prometheus metrics and health endpoints for
// long-running scans.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "promptharvest"

// Metrics holds the scan-level Prometheus instruments.
type Metrics struct {
	itemsScanned      prometheus.Counter
	extractionSuccess *prometheus.CounterVec
	extractionFailed  *prometheus.CounterVec
	duplicatesFound   *prometheus.CounterVec
	qualityScore      prometheus.Histogram
	logLoadSeconds    prometheus.Gauge
	logRecords        prometheus.Gauge
	boundaryScans     prometheus.Counter
	itemDuration      prometheus.Histogram
}

// NewMetrics registers the instruments on the given registerer. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in
// tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		itemsScanned: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_scanned_total",
			Help:      "Total number of gallery items processed",
		}),
		extractionSuccess: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extraction_success_total",
			Help:      "Successful field extractions by strategy",
		}, []string{"field", "method"}),
		extractionFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extraction_failed_total",
			Help:      "Field extractions that fell back to sentinel values",
		}, []string{"field", "method"}),
		duplicatesFound: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicates_found_total",
			Help:      "Duplicate detections by configured mode",
		}, []string{"mode"}),
		qualityScore: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "quality_score",
			Help:      "Quality score distribution of extracted metadata",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		}),
		logLoadSeconds: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "log_load_duration_seconds",
			Help:      "Time spent loading the download log at startup",
		}),
		logRecords: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "log_records",
			Help:      "Number of records loaded from the download log",
		}),
		boundaryScans: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "boundary_scans_total",
			Help:      "Checkpoint boundary scans triggered by duplicate runs",
		}),
		itemDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "item_duration_seconds",
			Help:      "Per-item processing duration",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// RecordItemScanned counts one processed gallery item.
func (m *Metrics) RecordItemScanned() {
	if m == nil {
		return
	}
	m.itemsScanned.Inc()
}

// RecordExtraction counts one field extraction outcome by method.
func (m *Metrics) RecordExtraction(field, method string, success bool) {
	if m == nil {
		return
	}
	if success {
		m.extractionSuccess.WithLabelValues(field, method).Inc()
	} else {
		m.extractionFailed.WithLabelValues(field, method).Inc()
	}
}

// RecordDuplicate counts one duplicate detection under the given mode.
func (m *Metrics) RecordDuplicate(mode string) {
	if m == nil {
		return
	}
	m.duplicatesFound.WithLabelValues(mode).Inc()
}

// RecordQuality observes one quality score.
func (m *Metrics) RecordQuality(score float64) {
	if m == nil {
		return
	}
	m.qualityScore.Observe(score)
}

// RecordLogLoad records the startup log load.
func (m *Metrics) RecordLogLoad(seconds float64, records int) {
	if m == nil {
		return
	}
	m.logLoadSeconds.Set(seconds)
	m.logRecords.Set(float64(records))
}

// RecordBoundaryScan counts one checkpoint recovery procedure.
func (m *Metrics) RecordBoundaryScan() {
	if m == nil {
		return
	}
	m.boundaryScans.Inc()
}

// ObserveItemDuration records one item's processing time.
func (m *Metrics) ObserveItemDuration(seconds float64) {
	if m == nil {
		return
	}
	m.itemDuration.Observe(seconds)
}
