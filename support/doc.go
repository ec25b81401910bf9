// Package support provides ready-made listeners and formatters on top of
// the proxy package: human-readable one-line formatting of execution
// records, JSON formatting, and a logging listener that ties a formatter to
// a structured logger.
//
// The Logger interface is dependency-free so any logging backend can be
// plugged in; the oteladapters package provides an OpenTelemetry-bridged
// implementation.
package support
