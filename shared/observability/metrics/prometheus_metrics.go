// Package metrics provides Prometheus-compatible metrics collection for the
// retriever. A single run is a short-lived batch job, so besides the usual
// collectors the package can dump the registry to a node-exporter textfile.
package metrics

import (
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetrics implements the Metrics interface using the Prometheus
// client library. All metric names are prefixed with the component name.
type PrometheusMetrics struct {
	// serviceName is used as a prefix for all metric names
	serviceName string

	// processedTotal tracks the total number of processed items by status and type
	processedTotal *prometheus.CounterVec
	// errorsTotal tracks the total number of errors by error type and operation
	errorsTotal *prometheus.CounterVec
	// durationSeconds tracks operation duration. Downloads take far longer
	// than the default buckets, so the upper end reaches one hour.
	durationSeconds *prometheus.HistogramVec
	// fileSizeBytes tracks artifact sizes using exponential buckets
	fileSizeBytes *prometheus.HistogramVec
	// inProgress tracks the number of operations currently in progress
	inProgress *prometheus.GaugeVec
}

// New creates a new PrometheusMetrics instance registered with the default
// Prometheus registerer.
//
// Pre-configured metrics:
//   - {name}_processed_total: Counter for successful and failed operations
//   - {name}_errors_total: Counter for errors by type and operation
//   - {name}_duration_seconds: Histogram for operation durations
//   - {name}_file_size_bytes: Histogram for artifact sizes
//   - {name}_in_progress: Gauge for concurrent operations
//
// Panics:
//   - If metrics registration fails (e.g., duplicate metric names)
func New(serviceName string) *PrometheusMetrics {
	name := SanitizeName(serviceName)
	m := &PrometheusMetrics{
		serviceName: serviceName,
	}

	m.processedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_processed_total", name),
			Help: fmt.Sprintf("Total processed items by %s", serviceName),
		},
		[]string{"status", "type"},
	)

	m.errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_errors_total", name),
			Help: fmt.Sprintf("Total errors in %s", serviceName),
		},
		[]string{"error_type", "operation"},
	)

	m.durationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    fmt.Sprintf("%s_duration_seconds", name),
			Help:    fmt.Sprintf("Operation duration in %s", serviceName),
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900, 3600},
		},
		[]string{"operation"},
	)

	// Buckets: 1KB .. 10GB. Manifests sit at the low end, products at the high end.
	m.fileSizeBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    fmt.Sprintf("%s_file_size_bytes", name),
			Help:    fmt.Sprintf("Artifact sizes transferred by %s", serviceName),
			Buckets: prometheus.ExponentialBuckets(1024, 10, 8),
		},
		[]string{"file_type"},
	)

	m.inProgress = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: fmt.Sprintf("%s_in_progress", name),
			Help: fmt.Sprintf("Operations in progress in %s", serviceName),
		},
		[]string{"operation"},
	)

	prometheus.MustRegister(
		m.processedTotal,
		m.errorsTotal,
		m.durationSeconds,
		m.fileSizeBytes,
		m.inProgress,
	)

	return m
}

// SanitizeName turns a component name such as "usecase.download" into a
// valid Prometheus metric prefix ("usecase_download").
func SanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == ':':
			return r
		default:
			return '_'
		}
	}, name)
}

// RecordSuccess increments the success counter for a specific operation type.
func (m *PrometheusMetrics) RecordSuccess(operationType string) {
	m.processedTotal.WithLabelValues("success", operationType).Inc()
}

// RecordError increments both the processed counter (with status="error") and
// the detailed error counter.
func (m *PrometheusMetrics) RecordError(operationType string, errorType string) {
	m.processedTotal.WithLabelValues("error", operationType).Inc()
	m.errorsTotal.WithLabelValues(errorType, operationType).Inc()
}

// RecordDuration records the duration of an operation in seconds.
func (m *PrometheusMetrics) RecordDuration(operation string, duration float64) {
	m.durationSeconds.WithLabelValues(operation).Observe(duration)
}

// RecordFileSize records the size of a transferred artifact in bytes.
func (m *PrometheusMetrics) RecordFileSize(fileType string, bytes int64) {
	m.fileSizeBytes.WithLabelValues(fileType).Observe(float64(bytes))
}

// StartOperation increments the in-progress gauge for an operation.
//
//	metrics.StartOperation("download")
//	defer metrics.EndOperation("download")
func (m *PrometheusMetrics) StartOperation(operation string) {
	m.inProgress.WithLabelValues(operation).Inc()
}

// EndOperation decrements the in-progress gauge for an operation.
func (m *PrometheusMetrics) EndOperation(operation string) {
	m.inProgress.WithLabelValues(operation).Dec()
}

// WriteTextfile writes every metric known to the gatherer to path in the
// Prometheus text format, for the node-exporter textfile collector.
func WriteTextfile(path string, gatherer prometheus.Gatherer) error {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	if err := prometheus.WriteToTextfile(path, gatherer); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
