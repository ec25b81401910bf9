package oteladapters

import (
	"log/slog"

	"go.opentelemetry.io/contrib/bridges/otelslog"

	"github.com/deblockt/r2dbc-proxy/support"
)

// SlogBridgeLogger implements support.Logger using the OpenTelemetry slog
// bridge, so lines emitted by the logging listener also reach an
// OpenTelemetry log pipeline with trace correlation.
type SlogBridgeLogger struct {
	logger *slog.Logger
}

// NewSlogBridgeLogger creates a logger emitting through the OpenTelemetry
// slog bridge. The logger uses the global OpenTelemetry LoggerProvider.
func NewSlogBridgeLogger(name string) *SlogBridgeLogger {
	return &SlogBridgeLogger{logger: otelslog.NewLogger(name)}
}

// NewSlogBridgeLoggerWithHandler creates a logger on the provided
// slog.Handler as-is, without OpenTelemetry integration. Useful in tests
// and for plain structured output.
func NewSlogBridgeLoggerWithHandler(handler slog.Handler) *SlogBridgeLogger {
	return &SlogBridgeLogger{logger: slog.New(handler)}
}

// Debug logs a debug message.
func (l *SlogBridgeLogger) Debug(msg string, args ...any) {
	l.logger.Debug(msg, args...)
}

// Info logs an info message.
func (l *SlogBridgeLogger) Info(msg string, args ...any) {
	l.logger.Info(msg, args...)
}

// Warn logs a warning message.
func (l *SlogBridgeLogger) Warn(msg string, args ...any) {
	l.logger.Warn(msg, args...)
}

// Error logs an error message.
func (l *SlogBridgeLogger) Error(msg string, args ...any) {
	l.logger.Error(msg, args...)
}

// Ensure SlogBridgeLogger implements support.Logger.
var _ support.Logger = (*SlogBridgeLogger)(nil)
