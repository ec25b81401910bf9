package oteladapters

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/deblockt/r2dbc-proxy/proxy"
)

const (
	metricMethodDuration = "rdbc.method.duration"
	metricQueryDuration  = "rdbc.query.duration"
	metricQueryErrors    = "rdbc.query.errors"

	labelMethod = "method"
	labelType   = "type"
)

// MetricsListener implements proxy.Listener using the OpenTelemetry metrics
// API. It maps the listener hooks to OpenTelemetry instruments:
//   - AfterMethod -> Histogram rdbc.method.duration (seconds, per method)
//   - AfterQuery  -> Histogram rdbc.query.duration (seconds, per type)
//   - AfterQuery with a failure -> Counter rdbc.query.errors
//
// Instruments are created on demand and cached; the listener is safe for
// concurrent use.
type MetricsListener struct {
	meter metric.Meter

	mu         sync.Mutex
	histograms map[string]metric.Float64Histogram
	counters   map[string]metric.Int64Counter
}

// NewMetricsListener creates a metrics listener on the given meter. The
// meter should be created from your OpenTelemetry MeterProvider.
func NewMetricsListener(meter metric.Meter) *MetricsListener {
	return &MetricsListener{
		meter:      meter,
		histograms: make(map[string]metric.Float64Histogram),
		counters:   make(map[string]metric.Int64Counter),
	}
}

func (l *MetricsListener) BeforeMethod(*proxy.MethodExecution) {}

func (l *MetricsListener) AfterMethod(exec *proxy.MethodExecution) {
	histogram := l.getOrCreateHistogram(metricMethodDuration)
	if histogram == nil {
		return
	}

	histogram.Record(context.Background(), exec.Elapsed.Seconds(), metric.WithAttributes(
		attribute.String(labelMethod, exec.Method.DeclaringType+"#"+exec.Method.Name),
	))
}

func (l *MetricsListener) BeforeQuery(*proxy.QueryExecution) {}

func (l *MetricsListener) AfterQuery(exec *proxy.QueryExecution) {
	attrs := metric.WithAttributes(attribute.String(labelType, exec.Type.String()))

	if histogram := l.getOrCreateHistogram(metricQueryDuration); histogram != nil {
		histogram.Record(context.Background(), exec.Elapsed.Seconds(), attrs)
	}

	if exec.Err != nil {
		if counter := l.getOrCreateCounter(metricQueryErrors); counter != nil {
			counter.Add(context.Background(), 1, attrs)
		}
	}
}

func (l *MetricsListener) EachQueryResult(*proxy.QueryExecution) {}

// getOrCreateHistogram gets an existing histogram or creates a new one for
// the given metric name.
func (l *MetricsListener) getOrCreateHistogram(name string) metric.Float64Histogram {
	l.mu.Lock()
	defer l.mu.Unlock()

	if histogram, exists := l.histograms[name]; exists {
		return histogram
	}

	histogram, err := l.meter.Float64Histogram(
		name,
		metric.WithDescription("Instrumented call duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil
	}

	l.histograms[name] = histogram
	return histogram
}

// getOrCreateCounter gets an existing counter or creates a new one for the
// given metric name.
func (l *MetricsListener) getOrCreateCounter(name string) metric.Int64Counter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if counter, exists := l.counters[name]; exists {
		return counter
	}

	counter, err := l.meter.Int64Counter(
		name,
		metric.WithDescription("Instrumented call error count"),
	)
	if err != nil {
		return nil
	}

	l.counters[name] = counter
	return counter
}

// Ensure MetricsListener implements proxy.Listener.
var _ proxy.Listener = (*MetricsListener)(nil)
