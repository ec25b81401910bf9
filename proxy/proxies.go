package proxy

import (
	"context"

	"github.com/deblockt/r2dbc-proxy/rdbc"
)

const (
	typeConnectionFactory = "ConnectionFactory"
	typeConnection        = "Connection"
	typeStatement         = "Statement"
	typeBatch             = "Batch"
	typeResult            = "Result"
)

// Wrap creates an instrumented rdbc.ConnectionFactory with the given
// options applied. Everything produced through the returned factory
// (connections, statements, batches, results) is wrapped recursively.
func Wrap(factory rdbc.ConnectionFactory, options ...Option) (rdbc.ConnectionFactory, error) {
	if factory == nil {
		return nil, ErrNilConnectionFactory
	}

	cfg, err := NewConfig(options...)
	if err != nil {
		return nil, err
	}

	return WrapWithConfig(factory, cfg), nil
}

// WrapWithConfig creates an instrumented rdbc.ConnectionFactory sharing an
// existing Config, for callers that proxy several factories with one
// listener chain.
func WrapWithConfig(factory rdbc.ConnectionFactory, cfg *Config) rdbc.ConnectionFactory {
	return &connectionFactoryProxy{
		target:      factory,
		cfg:         cfg,
		interceptor: NewInterceptor(cfg, nil), // no connection yet at factory level
	}
}

// asType narrows an invocation result; a custom invocation strategy that
// substitutes an incompatible value surfaces as an error, not a panic.
func asType[T any](value any) (T, error) {
	typed, ok := value.(T)
	if !ok {
		var zero T
		return zero, ErrInvalidInvocationResult
	}

	return typed, nil
}

// --- ConnectionFactory ---

type connectionFactoryProxy struct {
	target      rdbc.ConnectionFactory
	cfg         *Config
	interceptor *Interceptor
}

func (p *connectionFactoryProxy) Create(ctx context.Context) (rdbc.Connection, error) {
	method := MethodInfo{Name: "Create", DeclaringType: typeConnectionFactory, ParameterTypes: []string{"context.Context"}}

	result, err := p.interceptor.Proceed(method, p.target, []any{ctx}, func() (any, error) {
		return p.target.Create(ctx)
	})
	if err != nil {
		return nil, err
	}

	conn, err := asType[rdbc.Connection](result)
	if err != nil {
		return nil, err
	}

	connInfo := &ConnectionInfo{ConnectionID: p.cfg.generateID()}

	return newConnectionProxy(conn, p.cfg, connInfo), nil
}

func (p *connectionFactoryProxy) Metadata() rdbc.FactoryMetadata {
	method := MethodInfo{Name: "Metadata", DeclaringType: typeConnectionFactory}

	result, _ := p.interceptor.Proceed(method, p.target, nil, func() (any, error) {
		return p.target.Metadata(), nil
	})

	metadata, _ := result.(rdbc.FactoryMetadata)

	return metadata
}

func (p *connectionFactoryProxy) String() string {
	return proxyLabel(typeConnectionFactory, p.target)
}

// Unwrap returns the raw, uninstrumented factory.
func (p *connectionFactoryProxy) Unwrap() any {
	return p.target
}

// ProxyConfig returns the active configuration of this proxy tree.
func (p *connectionFactoryProxy) ProxyConfig() *Config {
	return p.cfg
}

// --- Connection ---

type connectionProxy struct {
	target      rdbc.Connection
	cfg         *Config
	connInfo    *ConnectionInfo
	interceptor *Interceptor
}

func newConnectionProxy(target rdbc.Connection, cfg *Config, connInfo *ConnectionInfo) *connectionProxy {
	return &connectionProxy{
		target:      target,
		cfg:         cfg,
		connInfo:    connInfo,
		interceptor: NewInterceptor(cfg, connInfo),
	}
}

func (p *connectionProxy) CreateStatement(query string) (rdbc.Statement, error) {
	method := MethodInfo{Name: "CreateStatement", DeclaringType: typeConnection, ParameterTypes: []string{"string"}}

	result, err := p.interceptor.Proceed(method, p.target, []any{query}, func() (any, error) {
		return p.target.CreateStatement(query)
	})
	if err != nil {
		return nil, err
	}

	stmt, err := asType[rdbc.Statement](result)
	if err != nil {
		return nil, err
	}

	return newStatementProxy(stmt, p.cfg, p.connInfo, query), nil
}

func (p *connectionProxy) CreateBatch() rdbc.Batch {
	method := MethodInfo{Name: "CreateBatch", DeclaringType: typeConnection}

	result, _ := p.interceptor.Proceed(method, p.target, nil, func() (any, error) {
		return p.target.CreateBatch(), nil
	})

	batch, err := asType[rdbc.Batch](result)
	if err != nil {
		return nil
	}

	return newBatchProxy(batch, p.cfg, p.connInfo)
}

func (p *connectionProxy) BeginTransaction(ctx context.Context) error {
	return p.proceedLifecycle(ctx, "BeginTransaction", p.target.BeginTransaction)
}

func (p *connectionProxy) CommitTransaction(ctx context.Context) error {
	return p.proceedLifecycle(ctx, "CommitTransaction", p.target.CommitTransaction)
}

func (p *connectionProxy) RollbackTransaction(ctx context.Context) error {
	return p.proceedLifecycle(ctx, "RollbackTransaction", p.target.RollbackTransaction)
}

func (p *connectionProxy) Close(ctx context.Context) error {
	return p.proceedLifecycle(ctx, "Close", p.target.Close)
}

// proceedLifecycle routes the value-less connection lifecycle calls
// through the sync path.
func (p *connectionProxy) proceedLifecycle(ctx context.Context, name string, call func(context.Context) error) error {
	method := MethodInfo{Name: name, DeclaringType: typeConnection, ParameterTypes: []string{"context.Context"}}

	_, err := p.interceptor.Proceed(method, p.target, []any{ctx}, func() (any, error) {
		return nil, call(ctx)
	})

	return err
}

func (p *connectionProxy) String() string {
	return proxyLabel(typeConnection, p.target)
}

// Unwrap returns the raw, uninstrumented connection.
func (p *connectionProxy) Unwrap() any {
	return p.target
}

// ProxyConfig returns the active configuration of this proxy tree.
func (p *connectionProxy) ProxyConfig() *Config {
	return p.cfg
}

// --- Statement ---

type statementProxy struct {
	target      rdbc.Statement
	cfg         *Config
	connInfo    *ConnectionInfo
	interceptor *Interceptor
	query       string
	groups      [][]Binding
	current     []Binding
}

func newStatementProxy(target rdbc.Statement, cfg *Config, connInfo *ConnectionInfo, query string) *statementProxy {
	return &statementProxy{
		target:      target,
		cfg:         cfg,
		connInfo:    connInfo,
		interceptor: NewInterceptor(cfg, connInfo),
		query:       query,
	}
}

func (p *statementProxy) Bind(index int, value any) rdbc.Statement {
	method := MethodInfo{Name: "Bind", DeclaringType: typeStatement, ParameterTypes: []string{"int", "any"}}

	_, _ = p.interceptor.Proceed(method, p.target, []any{index, value}, func() (any, error) {
		return p.target.Bind(index, value), nil
	})

	p.current = append(p.current, Binding{Index: index, Value: value})

	return p // keep the chain on the proxy
}

func (p *statementProxy) BindName(name string, value any) rdbc.Statement {
	method := MethodInfo{Name: "BindName", DeclaringType: typeStatement, ParameterTypes: []string{"string", "any"}}

	_, _ = p.interceptor.Proceed(method, p.target, []any{name, value}, func() (any, error) {
		return p.target.BindName(name, value), nil
	})

	p.current = append(p.current, Binding{Index: -1, Name: name, Value: value})

	return p
}

func (p *statementProxy) Add() rdbc.Statement {
	method := MethodInfo{Name: "Add", DeclaringType: typeStatement}

	_, _ = p.interceptor.Proceed(method, p.target, nil, func() (any, error) {
		return p.target.Add(), nil
	})

	p.groups = append(p.groups, p.current)
	p.current = nil

	return p
}

func (p *statementProxy) Execute() rdbc.Publisher[rdbc.Result] {
	method := MethodInfo{Name: "Execute", DeclaringType: typeStatement, ReturnsStream: true}

	queryExec := newQueryExecution(ExecutionTypeStatement, p.connInfo, p.queryInfos())

	call := func() (rdbc.Publisher[rdbc.Result], error) {
		return instrumentQueryExecution(p.cfg, queryExec, p.target.Execute()), nil
	}

	onComplete := func(_ *MethodExecution) {
		// finalize: a stream completing with zero elements stays unsuccessful
		queryExec.Success = queryExec.CurrentResultIndex > 0
	}

	return instrumentStream(p.interceptor, method, p.target, nil, call, onComplete)
}

// queryInfos snapshots the statement's bind groups at execution time, one
// entry per group.
func (p *statementProxy) queryInfos() []QueryInfo {
	groups := p.groups
	if len(p.current) > 0 || len(groups) == 0 {
		groups = append(groups[:len(groups):len(groups)], p.current)
	}

	infos := make([]QueryInfo, 0, len(groups))
	for _, group := range groups {
		bindings := make([]Binding, len(group))
		copy(bindings, group)
		infos = append(infos, QueryInfo{Query: p.query, Bindings: bindings})
	}

	return infos
}

func (p *statementProxy) String() string {
	return proxyLabel(typeStatement, p.target)
}

// Unwrap returns the raw, uninstrumented statement.
func (p *statementProxy) Unwrap() any {
	return p.target
}

// ProxyConfig returns the active configuration of this proxy tree.
func (p *statementProxy) ProxyConfig() *Config {
	return p.cfg
}

// --- Batch ---

type batchProxy struct {
	target      rdbc.Batch
	cfg         *Config
	connInfo    *ConnectionInfo
	interceptor *Interceptor
	queries     []string
}

func newBatchProxy(target rdbc.Batch, cfg *Config, connInfo *ConnectionInfo) *batchProxy {
	return &batchProxy{
		target:      target,
		cfg:         cfg,
		connInfo:    connInfo,
		interceptor: NewInterceptor(cfg, connInfo),
	}
}

func (p *batchProxy) Add(query string) rdbc.Batch {
	method := MethodInfo{Name: "Add", DeclaringType: typeBatch, ParameterTypes: []string{"string"}}

	_, _ = p.interceptor.Proceed(method, p.target, []any{query}, func() (any, error) {
		return p.target.Add(query), nil
	})

	p.queries = append(p.queries, query)

	return p
}

func (p *batchProxy) Execute() rdbc.Publisher[rdbc.Result] {
	method := MethodInfo{Name: "Execute", DeclaringType: typeBatch, ReturnsStream: true}

	infos := make([]QueryInfo, 0, len(p.queries))
	for _, query := range p.queries {
		infos = append(infos, QueryInfo{Query: query})
	}

	queryExec := newQueryExecution(ExecutionTypeBatch, p.connInfo, infos)

	call := func() (rdbc.Publisher[rdbc.Result], error) {
		return instrumentQueryExecution(p.cfg, queryExec, p.target.Execute()), nil
	}

	onComplete := func(_ *MethodExecution) {
		queryExec.Success = queryExec.CurrentResultIndex > 0
	}

	return instrumentStream(p.interceptor, method, p.target, nil, call, onComplete)
}

func (p *batchProxy) String() string {
	return proxyLabel(typeBatch, p.target)
}

// Unwrap returns the raw, uninstrumented batch.
func (p *batchProxy) Unwrap() any {
	return p.target
}

// ProxyConfig returns the active configuration of this proxy tree.
func (p *batchProxy) ProxyConfig() *Config {
	return p.cfg
}

// --- Result ---

// wrapResult applies the proxy mechanism to a result handle produced by a
// query stream, so further operations on it are instrumented against the
// same query execution record.
func wrapResult(cfg *Config, target rdbc.Result, queryExec *QueryExecution) rdbc.Result {
	return &resultProxy{
		target:      target,
		cfg:         cfg,
		queryExec:   queryExec,
		interceptor: NewInterceptor(cfg, queryExec.ConnectionInfo),
	}
}

type resultProxy struct {
	target      rdbc.Result
	cfg         *Config
	queryExec   *QueryExecution
	interceptor *Interceptor
}

func (p *resultProxy) RowsUpdated() rdbc.Publisher[int64] {
	method := MethodInfo{Name: "RowsUpdated", DeclaringType: typeResult, ReturnsStream: true}

	return InstrumentStream(p.interceptor, method, p.target, nil, func() (rdbc.Publisher[int64], error) {
		return p.target.RowsUpdated(), nil
	})
}

func (p *resultProxy) Map(fn func(rdbc.Row) (any, error)) rdbc.Publisher[any] {
	method := MethodInfo{Name: "Map", DeclaringType: typeResult, ParameterTypes: []string{"func(rdbc.Row) (any, error)"}, ReturnsStream: true}

	return InstrumentStream(p.interceptor, method, p.target, nil, func() (rdbc.Publisher[any], error) {
		return p.target.Map(fn), nil
	})
}

func (p *resultProxy) String() string {
	return proxyLabel(typeResult, p.target)
}

// Unwrap returns the raw, uninstrumented result.
func (p *resultProxy) Unwrap() any {
	return p.target
}

// ProxyConfig returns the active configuration of this proxy tree.
func (p *resultProxy) ProxyConfig() *Config {
	return p.cfg
}
