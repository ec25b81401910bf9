package proxy

import (
	"context"
	"sync"
	"time"

	"github.com/deblockt/r2dbc-proxy/rdbc"
)

// tickingClock advances by a fixed step on every reading, so every measured
// window has a deterministic, non-zero duration.
type tickingClock struct {
	now  time.Time
	step time.Duration
}

func newTickingClock(step time.Duration) *tickingClock {
	return &tickingClock{now: time.Unix(1000, 0), step: step}
}

func (c *tickingClock) Now() time.Time {
	current := c.now
	c.now = c.now.Add(c.step)

	return current
}

// recordingListener captures every hook invocation together with the record
// fields that matter for assertions, snapshotted at hook time.
type recordingListener struct {
	mu sync.Mutex

	name   string
	events []string

	beforeMethodCount int
	afterMethodCount  int
	beforeQueryCount  int
	afterQueryCount   int
	eachResultCount   int

	lastMethodResult  any
	lastMethodErr     error
	lastMethodElapsed time.Duration
	lastMethodPhase   EventPhase

	lastQueryErr     error
	lastQueryElapsed time.Duration
	lastQuerySuccess bool
	lastQueryIndex   int

	eachIndexes   []int
	eachSuccesses []bool

	journal *[]string // optional shared journal for ordering assertions
}

func (r *recordingListener) record(event string) {
	r.events = append(r.events, event)
	if r.journal != nil {
		*r.journal = append(*r.journal, r.name+":"+event)
	}
}

func (r *recordingListener) BeforeMethod(exec *MethodExecution) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.beforeMethodCount++
	r.record("beforeMethod:" + exec.Method.DeclaringType + "#" + exec.Method.Name)
}

func (r *recordingListener) AfterMethod(exec *MethodExecution) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.afterMethodCount++
	r.lastMethodResult = exec.Result
	r.lastMethodErr = exec.Err
	r.lastMethodElapsed = exec.Elapsed
	r.lastMethodPhase = exec.Phase
	r.record("afterMethod:" + exec.Method.DeclaringType + "#" + exec.Method.Name)
}

func (r *recordingListener) BeforeQuery(exec *QueryExecution) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.beforeQueryCount++
	r.record("beforeQuery")
}

func (r *recordingListener) AfterQuery(exec *QueryExecution) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.afterQueryCount++
	r.lastQueryErr = exec.Err
	r.lastQueryElapsed = exec.Elapsed
	r.lastQuerySuccess = exec.Success
	r.lastQueryIndex = exec.CurrentResultIndex
	r.record("afterQuery")
}

func (r *recordingListener) EachQueryResult(exec *QueryExecution) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.eachResultCount++
	r.eachIndexes = append(r.eachIndexes, exec.CurrentResultIndex)
	r.eachSuccesses = append(r.eachSuccesses, exec.Success)
	r.record("eachQueryResult")
}

var _ Listener = (*recordingListener)(nil)

// --- fake SPI implementations ---

type fakeRow struct {
	byIndex []any
	byName  map[string]any
}

func (r *fakeRow) Get(index int) (any, error) {
	return r.byIndex[index], nil
}

func (r *fakeRow) GetByName(name string) (any, error) {
	return r.byName[name], nil
}

type fakeResult struct {
	rows        []rdbc.Row
	rowsUpdated int64
}

func (f *fakeResult) RowsUpdated() rdbc.Publisher[int64] {
	return rdbc.Just(f.rowsUpdated)
}

func (f *fakeResult) Map(fn func(rdbc.Row) (any, error)) rdbc.Publisher[any] {
	rows := f.rows
	return rdbc.FromFunc(func() (any, bool, error) {
		if len(rows) == 0 {
			return nil, false, nil
		}
		row := rows[0]
		rows = rows[1:]
		value, err := fn(row)
		if err != nil {
			return nil, false, err
		}
		return value, true, nil
	}, nil)
}

type fakeStatement struct {
	bindLog []string
	results []rdbc.Result
	failure error
}

func (f *fakeStatement) Bind(index int, _ any) rdbc.Statement {
	f.bindLog = append(f.bindLog, "bind")
	return f
}

func (f *fakeStatement) BindName(name string, _ any) rdbc.Statement {
	f.bindLog = append(f.bindLog, "bindName:"+name)
	return f
}

func (f *fakeStatement) Add() rdbc.Statement {
	f.bindLog = append(f.bindLog, "add")
	return f
}

func (f *fakeStatement) Execute() rdbc.Publisher[rdbc.Result] {
	if f.failure != nil {
		return rdbc.ErrorPublisher[rdbc.Result](f.failure)
	}
	return rdbc.Just(f.results...)
}

type fakeBatch struct {
	queries []string
	results []rdbc.Result
}

func (f *fakeBatch) Add(query string) rdbc.Batch {
	f.queries = append(f.queries, query)
	return f
}

func (f *fakeBatch) Execute() rdbc.Publisher[rdbc.Result] {
	return rdbc.Just(f.results...)
}

type fakeConnection struct {
	statement *fakeStatement
	batch     *fakeBatch

	began      bool
	committed  bool
	rolledBack bool
	closed     bool

	closeErr error
}

func (f *fakeConnection) CreateStatement(string) (rdbc.Statement, error) {
	if f.statement == nil {
		f.statement = &fakeStatement{}
	}
	return f.statement, nil
}

func (f *fakeConnection) CreateBatch() rdbc.Batch {
	if f.batch == nil {
		f.batch = &fakeBatch{}
	}
	return f.batch
}

func (f *fakeConnection) BeginTransaction(context.Context) error    { f.began = true; return nil }
func (f *fakeConnection) CommitTransaction(context.Context) error   { f.committed = true; return nil }
func (f *fakeConnection) RollbackTransaction(context.Context) error { f.rolledBack = true; return nil }

func (f *fakeConnection) Close(context.Context) error {
	f.closed = true
	return f.closeErr
}

type fakeFactory struct {
	conn      *fakeConnection
	createErr error
}

func (f *fakeFactory) Create(context.Context) (rdbc.Connection, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.conn == nil {
		f.conn = &fakeConnection{}
	}
	return f.conn, nil
}

func (f *fakeFactory) Metadata() rdbc.FactoryMetadata {
	return rdbc.FactoryMetadata{Name: "fake"}
}

func (f *fakeFactory) String() string {
	return "fakeFactory"
}
