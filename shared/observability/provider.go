// Package observability provides a centralized provider for the logging,
// metrics and tracing components used by the retriever.
package observability

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/UofM-CEOS/remote-sensing/shared/observability/logger"
	"github.com/UofM-CEOS/remote-sensing/shared/observability/metrics"
	"github.com/UofM-CEOS/remote-sensing/shared/observability/tracing"
	"github.com/UofM-CEOS/remote-sensing/shared/observability/types"
)

// Logger is a type alias for the Logger interface from the types package.
type Logger = types.Logger

// Metrics is a type alias for the Metrics interface from the types package.
type Metrics = types.Metrics

// Fields is a type alias for structured logging fields.
type Fields = types.Fields

// Config is a type alias for the observability configuration.
type Config = types.Config

// Provider is a type alias for the Provider interface from the types package.
type Provider = types.Provider

// DefaultProvider implements the Provider interface.
// It manages Logger and Metrics instances for different components,
// creating them lazily on first access.
type DefaultProvider struct {
	// config holds the observability configuration
	config *Config
	// loggers stores Logger instances indexed by component name
	loggers map[string]Logger
	// metrics stores Metrics instances indexed by component name
	metrics map[string]Metrics
	// shutdownTracing flushes spans on Close
	shutdownTracing tracing.ShutdownFunc
	// mu provides thread-safe access to the maps
	mu sync.RWMutex
}

// NewProvider creates a new observability provider with the given configuration.
// If LogOutput is not specified in the config, it defaults to os.Stderr.
// When TracingEnabled is set the global OpenTelemetry tracer provider is
// replaced; Close flushes it.
//
// Example:
//
//	provider, err := NewProvider(&Config{
//		ServiceName: "dhusget",
//		Environment: "production",
//		LogLevel:    "info",
//		LogFormat:   "json",
//	})
//	logger := provider.Logger("catalog")
func NewProvider(config *Config) (*DefaultProvider, error) {
	if config.LogOutput == nil {
		config.LogOutput = os.Stderr
	}

	version, _ := config.AdditionalFields["version"].(string)
	shutdown, err := tracing.Init(context.Background(), tracing.Config{
		Enabled:     config.TracingEnabled,
		ServiceName: config.ServiceName,
		Version:     version,
		Output:      config.TraceOutput,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	return &DefaultProvider{
		config:          config,
		loggers:         make(map[string]Logger),
		metrics:         make(map[string]Metrics),
		shutdownTracing: shutdown,
	}, nil
}

// Logger returns a Logger instance for the specified component.
// Each component gets the same Logger instance across calls; every entry it
// writes carries a "component" field.
func (p *DefaultProvider) Logger(component string) Logger {
	p.mu.RLock()
	if l, exists := p.loggers[component]; exists {
		p.mu.RUnlock()
		return l
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()

	// Double-check
	if l, exists := p.loggers[component]; exists {
		return l
	}

	fields := make(Fields)
	for k, v := range p.config.AdditionalFields {
		fields[k] = v
	}
	fields["component"] = component

	l := logger.New(
		p.config.ServiceName,
		p.config.Environment,
		p.config.LogLevel,
		p.config.LogFormat,
		p.config.LogOutput,
		fields,
	)
	p.loggers[component] = l

	return l
}

// Metrics returns a Metrics instance for the specified component.
// Metric names are prefixed with "{service}_{component}".
func (p *DefaultProvider) Metrics(component string) Metrics {
	p.mu.RLock()
	if m, exists := p.metrics[component]; exists {
		p.mu.RUnlock()
		return m
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()

	// Double-check
	if m, exists := p.metrics[component]; exists {
		return m
	}

	m := metrics.New(fmt.Sprintf("%s_%s", p.config.ServiceName, component))
	p.metrics[component] = m

	return m
}

// Close flushes tracing and closes the LogOutput if it implements io.Closer,
// except for os.Stdout and os.Stderr.
func (p *DefaultProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := tracing.ShutdownWithTimeout(context.Background(), p.shutdownTracing); err != nil {
		return fmt.Errorf("failed to shut down tracing: %w", err)
	}

	if closer, ok := p.config.LogOutput.(io.Closer); ok {
		if closer != os.Stdout && closer != os.Stderr {
			return closer.Close()
		}
	}

	return nil
}
