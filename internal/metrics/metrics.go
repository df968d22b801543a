package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricNamespace = "yoloexport"

	metricNameExportsTotal   = "exports_total"
	metricNameExportDuration = "export_duration_seconds"
	metricNameArtifactBytes  = "artifact_bytes"

	metricLabelFormat = "format"
	metricLabelResult = "result"

	resultSuccess = "success"
	resultFailure = "failure"
)

// exportBuckets are the buckets for export durations from 1 second to 1 hour.
var exportBuckets = []float64{
	1, 2, 5, 10, 30, 60, 120, 300, 600, 1200, 1800, 3600,
}

// ExportMonitor holds and updates Prometheus metrics for exports.
type ExportMonitor struct {
	registry *prometheus.Registry

	exportsTotal   *prometheus.CounterVec
	exportDuration *prometheus.HistogramVec
	artifactBytes  *prometheus.GaugeVec
}

// NewExportMonitor returns a new ExportMonitor backed by its own registry.
func NewExportMonitor() *ExportMonitor {
	m := &ExportMonitor{
		registry: prometheus.NewRegistry(),
		exportsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricNamespace,
				Name:      metricNameExportsTotal,
				Help:      "Number of toolkit export invocations.",
			},
			[]string{metricLabelFormat, metricLabelResult},
		),
		exportDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricNamespace,
				Name:      metricNameExportDuration,
				Help:      "Wall time of toolkit export invocations.",
				Buckets:   exportBuckets,
			},
			[]string{metricLabelFormat},
		),
		artifactBytes: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: metricNamespace,
				Name:      metricNameArtifactBytes,
				Help:      "Size of the last exported artifact.",
			},
			[]string{metricLabelFormat},
		),
	}

	m.registry.MustRegister(
		m.exportsTotal,
		m.exportDuration,
		m.artifactBytes,
	)

	return m
}

// Registry returns the underlying registry.
func (m *ExportMonitor) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveExport records the outcome of one export.
func (m *ExportMonitor) ObserveExport(format string, elapsed time.Duration, artifactBytes int64, err error) {
	result := resultSuccess
	if err != nil {
		result = resultFailure
	}

	m.exportsTotal.WithLabelValues(format, result).Inc()
	m.exportDuration.WithLabelValues(format).Observe(elapsed.Seconds())
	if err == nil {
		m.artifactBytes.WithLabelValues(format).Set(float64(artifactBytes))
	}
}

// WriteTextfile writes the registry in the text exposition format for node_exporter's
// textfile collector. The file is replaced atomically.
func (m *ExportMonitor) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("metrics: write textfile %s: %w", path, err)
	}
	return nil
}
