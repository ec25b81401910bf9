package support

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/deblockt/r2dbc-proxy/proxy"
)

// connectionPlaceholder is rendered when a record carries no connection
// correlation, such as ConnectionFactory.Create itself.
const connectionPlaceholder = "n/a"

// MethodConsumer appends one fragment of a formatted method record.
type MethodConsumer func(exec *proxy.MethodExecution, b *strings.Builder)

// MethodExecutionFormatter renders method execution records as single log
// lines. Each formatted record is prefixed with a sequence number unique to
// this formatter instance:
//
//	  1: Goroutine:5 Connection:ABC Time:23  Connection#Close()
//
// The fragment consumers can be replaced or extended; the sequence prefix
// is always present. Format is safe for concurrent use as long as the
// configured consumers are.
type MethodExecutionFormatter struct {
	seq       atomic.Uint64
	consumers []MethodConsumer
}

// NewMethodExecutionFormatter creates a formatter with the default
// fragment consumers.
func NewMethodExecutionFormatter() *MethodExecutionFormatter {
	return &MethodExecutionFormatter{
		consumers: []MethodConsumer{
			MethodGoroutine,
			MethodConnection,
			MethodTime,
			MethodSignature,
		},
	}
}

// NewMethodExecutionFormatterWith creates a formatter from the given
// fragment consumers only.
func NewMethodExecutionFormatterWith(consumers ...MethodConsumer) *MethodExecutionFormatter {
	return &MethodExecutionFormatter{consumers: consumers}
}

// AddConsumer appends a fragment consumer and returns the formatter for
// chaining.
func (f *MethodExecutionFormatter) AddConsumer(consumer MethodConsumer) *MethodExecutionFormatter {
	f.consumers = append(f.consumers, consumer)
	return f
}

// Format renders one record as a single line.
func (f *MethodExecutionFormatter) Format(exec *proxy.MethodExecution) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%3d: ", f.seq.Add(1))

	for i, consumer := range f.consumers {
		if i > 0 {
			b.WriteByte(' ')
		}
		consumer(exec, &b)
	}

	return b.String()
}

// MethodGoroutine renders the goroutine the record's current phase ran on.
func MethodGoroutine(exec *proxy.MethodExecution, b *strings.Builder) {
	fmt.Fprintf(b, "Goroutine:%d", exec.GoroutineID)
}

// MethodConnection renders the connection correlation id.
func MethodConnection(exec *proxy.MethodExecution, b *strings.Builder) {
	b.WriteString("Connection:")
	b.WriteString(connectionID(exec.ConnectionInfo))
}

// MethodTime renders the execution duration in milliseconds.
func MethodTime(exec *proxy.MethodExecution, b *strings.Builder) {
	fmt.Fprintf(b, "Time:%d", exec.Elapsed.Milliseconds())
}

// MethodSignature renders the invoked operation as Type#Method(), set off
// by an extra space.
func MethodSignature(exec *proxy.MethodExecution, b *strings.Builder) {
	fmt.Fprintf(b, " %s#%s()", exec.Method.DeclaringType, exec.Method.Name)
}

func connectionID(info *proxy.ConnectionInfo) string {
	if info == nil || info.ConnectionID == "" {
		return connectionPlaceholder
	}

	return info.ConnectionID
}
