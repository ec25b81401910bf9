// Package oteladapters provides OpenTelemetry-backed listeners and logger
// bridges for the proxy observability hooks. These adapters enable
// plug-and-play observability for users who do not want to implement the
// listener interface themselves.
package oteladapters

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/deblockt/r2dbc-proxy/proxy"
)

const (
	querySpanName = "rdbc.query"

	attrConnectionID = "db.connection.id"
	attrQueryType    = "db.query.type"
	attrQueryText    = "db.query.text"
	attrResultCount  = "db.query.results"
)

// spanKey addresses the open span inside a record's value store between
// the before and after phases.
type spanKey struct{}

// TracingListener implements proxy.Listener using the OpenTelemetry tracing
// API. It opens one span per query execution when the query stream is
// subscribed and ends it when the stream terminates, carrying the span
// across phases in the record's value store. Failed executions are marked
// with an error status.
type TracingListener struct {
	tracer trace.Tracer
}

// NewTracingListener creates a tracing listener on the given tracer. The
// tracer should be created from your OpenTelemetry TracerProvider.
func NewTracingListener(tracer trace.Tracer) *TracingListener {
	return &TracingListener{tracer: tracer}
}

func (l *TracingListener) BeforeMethod(*proxy.MethodExecution) {}

func (l *TracingListener) AfterMethod(*proxy.MethodExecution) {}

// BeforeQuery opens the query span and parks it in the record.
func (l *TracingListener) BeforeQuery(exec *proxy.QueryExecution) {
	attrs := []attribute.KeyValue{
		attribute.String(attrQueryType, exec.Type.String()),
	}

	if exec.ConnectionInfo != nil {
		attrs = append(attrs, attribute.String(attrConnectionID, exec.ConnectionInfo.ConnectionID))
	}

	for _, q := range exec.Queries {
		attrs = append(attrs, attribute.String(attrQueryText, q.Query))
	}

	// Streams may be subscribed far from where the statement was built, so
	// the span starts from the background context rather than a caller one.
	_, span := l.tracer.Start(context.Background(), querySpanName, trace.WithAttributes(attrs...))

	exec.Values.Put(spanKey{}, span)
}

// AfterQuery finalizes and ends the span opened by BeforeQuery.
func (l *TracingListener) AfterQuery(exec *proxy.QueryExecution) {
	span, ok := exec.Values.Get(spanKey{}).(trace.Span)
	if !ok {
		return
	}
	exec.Values.Delete(spanKey{})

	span.SetAttributes(attribute.Int(attrResultCount, exec.CurrentResultIndex))

	switch {
	case exec.Err != nil:
		span.RecordError(exec.Err)
		span.SetStatus(codes.Error, exec.Err.Error())
	case exec.Success:
		span.SetStatus(codes.Ok, "")
	default:
		span.SetStatus(codes.Ok, "no results")
	}

	span.End()
}

func (l *TracingListener) EachQueryResult(*proxy.QueryExecution) {}

// Ensure TracingListener implements proxy.Listener.
var _ proxy.Listener = (*TracingListener)(nil)
