package support

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/deblockt/r2dbc-proxy/proxy"
)

// QueryConsumer appends one fragment of a formatted query record.
type QueryConsumer func(exec *proxy.QueryExecution, b *strings.Builder)

// QueryExecutionFormatter renders query execution records as single log
// lines:
//
//	  1: Goroutine:5 Connection:ABC Success:true Time:34 Type:statement Results:2 Query:["SELECT 1"] Bindings:[(17)]
//
// Like MethodExecutionFormatter it carries its own sequence counter and
// customizable fragment consumers.
type QueryExecutionFormatter struct {
	seq       atomic.Uint64
	consumers []QueryConsumer
}

// NewQueryExecutionFormatter creates a formatter with the default fragment
// consumers.
func NewQueryExecutionFormatter() *QueryExecutionFormatter {
	return &QueryExecutionFormatter{
		consumers: []QueryConsumer{
			QueryGoroutine,
			QueryConnection,
			QuerySuccess,
			QueryTime,
			QueryType,
			QueryResultCount,
			QueryTexts,
			QueryBindings,
		},
	}
}

// NewQueryExecutionFormatterWith creates a formatter from the given
// fragment consumers only.
func NewQueryExecutionFormatterWith(consumers ...QueryConsumer) *QueryExecutionFormatter {
	return &QueryExecutionFormatter{consumers: consumers}
}

// AddConsumer appends a fragment consumer and returns the formatter for
// chaining.
func (f *QueryExecutionFormatter) AddConsumer(consumer QueryConsumer) *QueryExecutionFormatter {
	f.consumers = append(f.consumers, consumer)
	return f
}

// Format renders one record as a single line.
func (f *QueryExecutionFormatter) Format(exec *proxy.QueryExecution) string {
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

// QueryGoroutine renders the goroutine the record's current phase ran on.
func QueryGoroutine(exec *proxy.QueryExecution, b *strings.Builder) {
	fmt.Fprintf(b, "Goroutine:%d", exec.GoroutineID)
}

// QueryConnection renders the connection correlation id.
func QueryConnection(exec *proxy.QueryExecution, b *strings.Builder) {
	b.WriteString("Connection:")
	b.WriteString(connectionID(exec.ConnectionInfo))
}

// QuerySuccess renders whether at least one result element was observed.
func QuerySuccess(exec *proxy.QueryExecution, b *strings.Builder) {
	fmt.Fprintf(b, "Success:%t", exec.Success)
}

// QueryTime renders the execution duration in milliseconds.
func QueryTime(exec *proxy.QueryExecution, b *strings.Builder) {
	fmt.Fprintf(b, "Time:%d", exec.Elapsed.Milliseconds())
}

// QueryType renders statement or batch.
func QueryType(exec *proxy.QueryExecution, b *strings.Builder) {
	fmt.Fprintf(b, "Type:%s", exec.Type)
}

// QueryResultCount renders the number of result elements observed so far.
func QueryResultCount(exec *proxy.QueryExecution, b *strings.Builder) {
	fmt.Fprintf(b, "Results:%d", exec.CurrentResultIndex)
}

// QueryTexts renders the query texts as a quoted list.
func QueryTexts(exec *proxy.QueryExecution, b *strings.Builder) {
	b.WriteString("Query:[")
	for i, q := range exec.Queries {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(b, "%q", q.Query)
	}
	b.WriteByte(']')
}

// QueryBindings renders one parenthesized group of bound values per query
// entry. Positional bindings render the value, named bindings name=value.
func QueryBindings(exec *proxy.QueryExecution, b *strings.Builder) {
	b.WriteString("Bindings:[")
	groups := 0
	for _, q := range exec.Queries {
		if len(q.Bindings) == 0 {
			continue
		}
		if groups > 0 {
			b.WriteByte(',')
		}
		groups++
		b.WriteByte('(')
		for j, binding := range q.Bindings {
			if j > 0 {
				b.WriteByte(',')
			}
			if binding.Name != "" {
				fmt.Fprintf(b, "%s=%v", binding.Name, binding.Value)
			} else {
				fmt.Fprintf(b, "%v", binding.Value)
			}
		}
		b.WriteByte(')')
	}
	b.WriteByte(']')
}
