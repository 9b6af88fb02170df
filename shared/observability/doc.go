/*
Package observability provides structured logging, metrics collection and
tracing for the product retriever.

# Architecture

	Provider (manages instances)
	    ├── Logger  (zerolog, JSON or console)
	    ├── Metrics (Prometheus compatible)
	    └── tracing (OpenTelemetry, installed globally)

Provider Pattern: one Logger and one Metrics instance per component
(catalog, download, search). Metric names are prefixed with the service and
component so registrations never collide.

Dependency Inversion: components depend on the interfaces in the types
package. Tests use the testify mocks in the mocks package.

# Package Structure

	observability/
	├── types/       # Core contracts and types
	├── provider.go  # Provider implementation
	├── logger/      # zerolog-backed Logger
	├── metrics/     # Prometheus metrics and textfile export
	├── tracing/     # OpenTelemetry tracer provider setup
	└── mocks/       # testify mocks

# Usage

	provider, err := observability.NewProvider(&observability.Config{
	    ServiceName: "dhusget",
	    Environment: "production",
	    LogLevel:    "info",
	    LogFormat:   "json",
	    AdditionalFields: observability.Fields{
	        "version": "0.2.0",
	    },
	})
	if err != nil {
	    return err
	}
	defer provider.Close()

	log := provider.Logger("download")
	m := provider.Metrics("download")

	ctx = logger.WithRunID(ctx, runID)
	log.Info(ctx, "product downloaded", observability.Fields{
	    "title": title,
	    "size_bytes": n,
	})
	m.RecordSuccess("product")
	m.RecordFileSize("product", n)

# Context Integration

Every entry picks up the run identifier stored with logger.WithRunID and the
trace identifier of the active OpenTelemetry span, if any.

# Metrics Details

  - {service}_{component}_processed_total: Counter with labels [status, type]
  - {service}_{component}_errors_total: Counter with labels [error_type, operation]
  - {service}_{component}_duration_seconds: Histogram with label [operation]
  - {service}_{component}_file_size_bytes: Histogram with label [file_type]
  - {service}_{component}_in_progress: Gauge with label [operation]

The retriever runs as a batch job, so instead of serving /metrics it can
write the registry to a textfile with metrics.WriteTextfile at exit.

# Thread Safety

All components are safe for concurrent use.
*/
package observability
