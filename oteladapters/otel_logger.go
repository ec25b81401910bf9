package oteladapters

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/log"

	"github.com/deblockt/r2dbc-proxy/support"
)

// OTelLogger implements support.Logger using the OpenTelemetry logging API
// directly. This provides more control over log record creation than the
// slog bridge but requires manual setup of the logger.
type OTelLogger struct {
	logger log.Logger
}

// NewOTelLogger creates a logger emitting through the OpenTelemetry
// logging API.
func NewOTelLogger(logger log.Logger) *OTelLogger {
	return &OTelLogger{logger: logger}
}

// Debug logs a debug message.
func (l *OTelLogger) Debug(msg string, args ...any) {
	l.emit(log.SeverityDebug, msg, args...)
}

// Info logs an info message.
func (l *OTelLogger) Info(msg string, args ...any) {
	l.emit(log.SeverityInfo, msg, args...)
}

// Warn logs a warning message.
func (l *OTelLogger) Warn(msg string, args ...any) {
	l.emit(log.SeverityWarn, msg, args...)
}

// Error logs an error message.
func (l *OTelLogger) Error(msg string, args ...any) {
	l.emit(log.SeverityError, msg, args...)
}

// emit creates and emits an OpenTelemetry log record with the given
// severity. Args are interpreted as slog-style key-value pairs.
func (l *OTelLogger) emit(severity log.Severity, msg string, args ...any) {
	record := log.Record{}
	record.SetSeverity(severity)
	record.SetBody(log.StringValue(msg))

	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		record.AddAttributes(log.String(key, stringValue(args[i+1])))
	}

	l.logger.Emit(context.Background(), record)
}

// stringValue converts any value to string for OpenTelemetry attributes.
func stringValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}

	return slog.AnyValue(v).String()
}

// Ensure OTelLogger implements support.Logger.
var _ support.Logger = (*OTelLogger)(nil)
