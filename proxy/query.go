package proxy

import (
	"context"
	"sync/atomic"

	"github.com/deblockt/r2dbc-proxy/rdbc"
)

// instrumentQueryExecution wraps the Result stream of one query execution.
// It fires the query-level listener hooks around the stream lifecycle and
// passes every produced Result back through the proxy mechanism, so that
// operations on a result handle are themselves instrumented.
func instrumentQueryExecution(cfg *Config, exec *QueryExecution, upstream rdbc.Publisher[rdbc.Result]) rdbc.Publisher[rdbc.Result] {
	return &queryInvocationPublisher{cfg: cfg, exec: exec, upstream: upstream}
}

type queryInvocationPublisher struct {
	cfg      *Config
	exec     *QueryExecution
	upstream rdbc.Publisher[rdbc.Result]
}

func (p *queryInvocationPublisher) Subscribe(ctx context.Context, sub rdbc.Subscriber[rdbc.Result]) {
	forwarder := &queryInvocationSubscriber{
		cfg:       p.cfg,
		delegate:  sub,
		exec:      p.exec,
		stopWatch: NewStopWatch(p.cfg.clock),
	}

	forwarder.beforeQuery()

	p.upstream.Subscribe(ctx, forwarder)
}

// queryInvocationSubscriber mirrors the method-level forwarder for the
// query-specific record: success and result counting happen here, and the
// after-query event is guarded to fire once across complete/error/cancel.
type queryInvocationSubscriber struct {
	cfg       *Config
	delegate  rdbc.Subscriber[rdbc.Result]
	exec      *QueryExecution
	stopWatch *StopWatch

	subscription rdbc.Subscription
	terminated   atomic.Bool
}

func (s *queryInvocationSubscriber) OnSubscribe(sub rdbc.Subscription) {
	s.subscription = sub
	s.delegate.OnSubscribe(s)
}

func (s *queryInvocationSubscriber) OnNext(result rdbc.Result) {
	// success is fixed the moment at least one result element is observed
	s.exec.Success = true

	s.cfg.listeners.EachQueryResult(s.exec)

	s.delegate.OnNext(wrapResult(s.cfg, result, s.exec))

	s.exec.CurrentResultIndex++
}

func (s *queryInvocationSubscriber) OnError(err error) {
	s.exec.Err = err
	s.afterQuery()
	s.delegate.OnError(err)
}

func (s *queryInvocationSubscriber) OnComplete() {
	s.afterQuery()
	s.delegate.OnComplete()
}

func (s *queryInvocationSubscriber) Request(n int64) {
	s.subscription.Request(n)
}

func (s *queryInvocationSubscriber) Cancel() {
	s.afterQuery()
	s.subscription.Cancel()
}

func (s *queryInvocationSubscriber) beforeQuery() {
	s.exec.GoroutineID = currentGoroutineID()
	s.exec.Phase = PhaseBefore

	s.cfg.listeners.BeforeQuery(s.exec)

	s.stopWatch.Start()
}

func (s *queryInvocationSubscriber) afterQuery() {
	if !s.terminated.CompareAndSwap(false, true) {
		return
	}

	s.exec.Elapsed = s.stopWatch.Elapsed()
	s.exec.GoroutineID = currentGoroutineID()
	s.exec.Phase = PhaseAfter

	s.cfg.listeners.AfterQuery(s.exec)
}
