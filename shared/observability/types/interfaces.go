// Package types holds the observability contracts shared by every component
// of the retriever. Implementations live in the sibling logger and metrics
// packages; consumers depend only on these interfaces.
package types

import (
	"context"
	"io"
)

// Logger defines the contract for structured logging.
// All methods are context-aware so run and trace identifiers stored in the
// context end up on every entry.
type Logger interface {
	// Info logs an informational message.
	Info(ctx context.Context, msg string, fields Fields)

	// Error logs an error message with the associated error.
	Error(ctx context.Context, msg string, err error, fields Fields)

	// Warn logs a warning message.
	// Use for per-item failures that do not stop the batch.
	Warn(ctx context.Context, msg string, fields Fields)

	// Debug logs a debug message.
	Debug(ctx context.Context, msg string, fields Fields)

	// WithFields returns a new Logger that includes the fields on every entry.
	WithFields(fields Fields) Logger
}

// Metrics defines the contract for metrics collection.
// Implementations should provide Prometheus-compatible metrics.
type Metrics interface {
	// RecordSuccess increments the success counter for an operation type
	// (e.g. "search", "product").
	RecordSuccess(operationType string)

	// RecordError increments the error counter for an operation and error type
	// (e.g. "checksum_mismatch", "catalog_unavailable").
	RecordError(operationType string, errorType string)

	// RecordDuration records the duration of an operation in seconds.
	RecordDuration(operation string, duration float64)

	// RecordFileSize records the size of a transferred artifact in bytes.
	RecordFileSize(fileType string, bytes int64)

	// StartOperation increments the in-progress gauge for an operation.
	// Must be paired with EndOperation.
	StartOperation(operation string)

	// EndOperation decrements the in-progress gauge for an operation.
	EndOperation(operation string)
}

// Fields represents structured logging fields as key-value pairs.
//
// Example:
//
//	fields := Fields{
//		"title": "S1A_IW_GRDH_1SDV_20240101T000000",
//		"tile":  3,
//	}
type Fields map[string]interface{}

// Config holds observability configuration for the provider.
type Config struct {
	// ServiceName identifies the service in logs and prefixes metric names.
	ServiceName string

	// Environment specifies the deployment environment.
	Environment string

	// LogLevel sets the minimum log level to output.
	// Valid values: "debug", "info", "warn", "error".
	LogLevel string

	// LogFormat selects "json" or "console" output.
	LogFormat string

	// LogOutput specifies where logs should be written.
	// If nil, defaults to os.Stderr so stdout stays free for the run summary.
	LogOutput io.Writer

	// AdditionalFields are fields included in every log entry.
	AdditionalFields Fields

	// TracingEnabled installs an OpenTelemetry tracer provider that exports
	// spans to TraceOutput when the provider is created.
	TracingEnabled bool

	// TraceOutput receives exported spans. If nil, defaults to os.Stderr.
	TraceOutput io.Writer
}

// Provider manages the lifecycle of observability components.
// Each component gets its own Logger and Metrics instances.
type Provider interface {
	// Logger returns the Logger for a component. Multiple calls with the same
	// component name return the same instance.
	Logger(component string) Logger

	// Metrics returns the Metrics for a component. Multiple calls with the
	// same component name return the same instance.
	Metrics(component string) Metrics

	// Close releases the provider's resources.
	Close() error
}
