// Package logger provides the structured logger used by every component.
// Entries are written with zerolog, either as JSON lines (for log shippers)
// or as human-readable console output.
package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/UofM-CEOS/remote-sensing/shared/observability/types"
)

type contextKey string

const runIDKey contextKey = "run_id"

// WithRunID stores the run identifier in the context; every entry logged
// with that context carries it as run_id.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// RunIDFromContext returns the run identifier stored by WithRunID.
func RunIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(runIDKey).(string)
	return id, ok
}

// ParseLevel converts a string representation to a zerolog level.
// Unrecognized levels default to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// ZerologLogger implements types.Logger on top of zerolog.
type ZerologLogger struct {
	zl zerolog.Logger
}

// New creates a logger for a service.
//
// Parameters:
//   - serviceName: Name of the service for identification in logs
//   - environment: Deployment environment
//   - logLevel: Minimum log level to output ("debug", "info", "warn", "error")
//   - format: "json" or "console"
//   - output: Where to write log entries (defaults to os.Stderr if nil)
//   - additionalFields: Fields to include in every log entry
func New(serviceName, environment, logLevel, format string, output io.Writer, additionalFields types.Fields) *ZerologLogger {
	if output == nil {
		output = os.Stderr
	}

	if format == "console" {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: time.RFC3339}
	}

	zctx := zerolog.New(output).
		Level(ParseLevel(logLevel)).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("env", environment)

	if len(additionalFields) > 0 {
		zctx = zctx.Fields(map[string]interface{}(additionalFields))
	}

	return &ZerologLogger{zl: zctx.Logger()}
}

// NewNop returns a logger that discards every entry.
func NewNop() *ZerologLogger {
	return &ZerologLogger{zl: zerolog.Nop()}
}

// Info logs an informational message.
func (l *ZerologLogger) Info(ctx context.Context, msg string, fields types.Fields) {
	l.write(ctx, l.zl.Info(), msg, fields)
}

// Error logs an error together with its message.
func (l *ZerologLogger) Error(ctx context.Context, msg string, err error, fields types.Fields) {
	l.write(ctx, l.zl.Error().Err(err), msg, fields)
}

// Warn logs a warning message.
func (l *ZerologLogger) Warn(ctx context.Context, msg string, fields types.Fields) {
	l.write(ctx, l.zl.Warn(), msg, fields)
}

// Debug logs a debug message.
func (l *ZerologLogger) Debug(ctx context.Context, msg string, fields types.Fields) {
	l.write(ctx, l.zl.Debug(), msg, fields)
}

// WithFields returns a child logger with persistent fields.
func (l *ZerologLogger) WithFields(fields types.Fields) types.Logger {
	return &ZerologLogger{
		zl: l.zl.With().Fields(map[string]interface{}(fields)).Logger(),
	}
}

// write decorates the event with context values and emits it.
// Disabled levels return a nil event, which zerolog treats as a no-op.
func (l *ZerologLogger) write(ctx context.Context, ev *zerolog.Event, msg string, fields types.Fields) {
	if ev == nil {
		return
	}

	if ctx != nil {
		if runID, ok := RunIDFromContext(ctx); ok {
			ev = ev.Str("run_id", runID)
		}
		if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
			ev = ev.Str("trace_id", sc.TraceID().String())
		}
	}

	if len(fields) > 0 {
		ev = ev.Fields(map[string]interface{}(fields))
	}

	ev.Msg(msg)
}
