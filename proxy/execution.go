package proxy

import (
	"bytes"
	"runtime"
	"strconv"
	"time"
)

// EventPhase discriminates the two notification points of an instrumented
// call. A record transitions PhaseBefore -> PhaseAfter exactly once.
type EventPhase int

const (
	PhaseBefore EventPhase = iota + 1
	PhaseAfter
)

// String returns the phase name for log output.
func (p EventPhase) String() string {
	switch p {
	case PhaseBefore:
		return "before"
	case PhaseAfter:
		return "after"
	default:
		return "unknown"
	}
}

// ExecutionType distinguishes statement from batch query executions.
type ExecutionType int

const (
	ExecutionTypeStatement ExecutionType = iota + 1
	ExecutionTypeBatch
)

// String returns the execution type name for log output.
func (t ExecutionType) String() string {
	switch t {
	case ExecutionTypeStatement:
		return "statement"
	case ExecutionTypeBatch:
		return "batch"
	default:
		return "unknown"
	}
}

// MethodInfo identifies an invoked SPI operation: its name, the capability
// it is declared on, its parameter types, and whether its declared return
// shape is an element stream.
type MethodInfo struct {
	Name           string
	DeclaringType  string
	ParameterTypes []string
	ReturnsStream  bool
}

// ConnectionInfo correlates all calls made against one logical connection.
// It is nil on records of calls that precede connection establishment,
// such as ConnectionFactory.Create itself.
type ConnectionInfo struct {
	ConnectionID string
}

// ValueStore is per-call scratch space shared between the before and after
// hooks of the same record. Listeners use it to carry state (a span, a
// start marker) across phases. Like the record itself it is owned by one
// logical call and is not safe for concurrent use.
type ValueStore struct {
	values map[any]any
}

// Put stores value under key.
func (vs *ValueStore) Put(key, value any) {
	if vs.values == nil {
		vs.values = make(map[any]any)
	}
	vs.values[key] = value
}

// Get returns the value stored under key, or nil.
func (vs *ValueStore) Get(key any) any {
	return vs.values[key]
}

// Delete removes the value stored under key.
func (vs *ValueStore) Delete(key any) {
	delete(vs.values, key)
}

// MethodExecution is the mutable per-call record handed to listeners at
// each phase. One record is owned by exactly one logical call; phases may
// run on different goroutines, sequentially, but never concurrently.
//
// Result holds the produced value for plain calls and the last-seen element
// for stream calls; it is not an accumulator. Err holds the captured
// failure, if any. Elapsed is only meaningful once Phase is PhaseAfter.
type MethodExecution struct {
	Method         MethodInfo
	Arguments      []any
	Target         any
	ConnectionInfo *ConnectionInfo
	GoroutineID    uint64
	Result         any
	Err            error
	Elapsed        time.Duration
	Phase          EventPhase
	Values         *ValueStore
}

func newMethodExecution(method MethodInfo, target any, args []any, connInfo *ConnectionInfo) *MethodExecution {
	return &MethodExecution{
		Method:         method,
		Arguments:      args,
		Target:         target,
		ConnectionInfo: connInfo,
		Values:         &ValueStore{},
	}
}

// Binding is one bound parameter of a query. Positional bindings carry
// Index; named bindings carry Name and an Index of -1.
type Binding struct {
	Index int
	Name  string
	Value any
}

// QueryInfo is the text of one query together with its parameter bindings,
// in bind order.
type QueryInfo struct {
	Query    string
	Bindings []Binding
}

// QueryExecution is the specialization of the per-call record for query
// executions. It is created when Execute begins, mutated as result elements
// arrive, finalized at stream termination, handed to listeners, and then
// discarded.
//
// CurrentResultIndex counts the result elements observed so far. Success is
// true only if at least one result element was observed before completion;
// a query stream completing with zero elements is unsuccessful but not an
// error.
type QueryExecution struct {
	ConnectionInfo     *ConnectionInfo
	Type               ExecutionType
	Queries            []QueryInfo
	CurrentResultIndex int
	Success            bool
	GoroutineID        uint64
	Err                error
	Elapsed            time.Duration
	Phase              EventPhase
	Values             *ValueStore
}

func newQueryExecution(execType ExecutionType, connInfo *ConnectionInfo, queries []QueryInfo) *QueryExecution {
	return &QueryExecution{
		ConnectionInfo: connInfo,
		Type:           execType,
		Queries:        queries,
		Values:         &ValueStore{},
	}
}

// currentGoroutineID parses the goroutine id from the runtime stack header
// ("goroutine 123 [running]:"). Captured per phase for diagnostics only;
// phases of one call may legitimately run on different goroutines.
func currentGoroutineID() uint64 {
	buf := make([]byte, 64)
	n := runtime.Stack(buf, false)

	fields := bytes.Fields(buf[:n])
	if len(fields) < 2 {
		return 0
	}

	id, err := strconv.ParseUint(string(fields[1]), 10, 64)
	if err != nil {
		return 0
	}

	return id
}
