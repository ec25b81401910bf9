package proxy

import (
	"context"
	"sync/atomic"

	"github.com/deblockt/r2dbc-proxy/rdbc"
)

// InstrumentStream applies the stream path to a call whose declared return
// shape is an element stream. The underlying call is not performed here:
// invocation is deferred until the returned stream is subscribed to, so the
// before event and the timer reflect the real execution window.
//
// onComplete, when non-nil, runs on normal completion before the generic
// after event; the query-execution layer uses it to finalize its record.
func InstrumentStream[T any](i *Interceptor, method MethodInfo, target any, args []any, call func() (rdbc.Publisher[T], error)) rdbc.Publisher[T] {
	return instrumentStream(i, method, target, args, call, nil)
}

func instrumentStream[T any](
	i *Interceptor,
	method MethodInfo,
	target any,
	args []any,
	call func() (rdbc.Publisher[T], error),
	onComplete func(exec *MethodExecution),
) rdbc.Publisher[T] {

	return &instrumentedPublisher[T]{
		interceptor: i,
		method:      method,
		target:      target,
		args:        args,
		call:        call,
		onComplete:  onComplete,
	}
}

// instrumentedPublisher defers the underlying call to subscription time and
// splices a forwarding subscriber between the produced stream and the
// caller's subscriber.
type instrumentedPublisher[T any] struct {
	interceptor *Interceptor
	method      MethodInfo
	target      any
	args        []any
	call        func() (rdbc.Publisher[T], error)
	onComplete  func(exec *MethodExecution)
}

func (p *instrumentedPublisher[T]) Subscribe(ctx context.Context, sub rdbc.Subscriber[T]) {
	i := p.interceptor

	if err := i.validate(p.method, p.target); err != nil {
		sub.OnSubscribe(rdbc.NoopSubscription{})
		sub.OnError(err)
		return
	}

	exec := newMethodExecution(p.method, p.target, p.args, i.connInfo)
	forwarder := &methodInvocationSubscriber[T]{
		delegate:   sub,
		exec:       exec,
		listeners:  i.cfg.listeners,
		stopWatch:  NewStopWatch(i.cfg.clock),
		onComplete: p.onComplete,
	}

	forwarder.beforeMethod()

	upstream, err := i.cfg.invokeStrat(p.method, p.target, p.args, func() (any, error) {
		return p.call()
	})
	if err != nil {
		sub.OnSubscribe(rdbc.NoopSubscription{})
		forwarder.OnError(err)
		return
	}

	publisher, ok := upstream.(rdbc.Publisher[T])
	if !ok {
		// an invocation strategy substituted an incompatible result
		sub.OnSubscribe(rdbc.NoopSubscription{})
		forwarder.OnError(ErrInvalidInvocationResult)
		return
	}

	publisher.Subscribe(ctx, forwarder)
}

// methodInvocationSubscriber forwards element values and demand untouched
// while intercepting the lifecycle signals. The transition to the
// terminated state is guarded so that only the first of completion,
// failure, or cancellation performs the after event.
type methodInvocationSubscriber[T any] struct {
	delegate   rdbc.Subscriber[T]
	exec       *MethodExecution
	listeners  *CompositeListener
	stopWatch  *StopWatch
	onComplete func(exec *MethodExecution)

	subscription rdbc.Subscription
	terminated   atomic.Bool
}

func (s *methodInvocationSubscriber[T]) OnSubscribe(sub rdbc.Subscription) {
	s.subscription = sub
	s.delegate.OnSubscribe(s)
}

func (s *methodInvocationSubscriber[T]) OnNext(value T) {
	s.exec.Result = value // last-seen element, not an accumulator
	s.delegate.OnNext(value)
}

func (s *methodInvocationSubscriber[T]) OnError(err error) {
	s.exec.Err = err
	s.afterMethod()
	s.delegate.OnError(err)
}

func (s *methodInvocationSubscriber[T]) OnComplete() {
	if s.onComplete != nil {
		s.onComplete(s.exec)
	}
	s.afterMethod()
	s.delegate.OnComplete()
}

// Request passes demand through to the upstream producer untouched.
func (s *methodInvocationSubscriber[T]) Request(n int64) {
	s.subscription.Request(n)
}

// Cancel performs the after event and forwards the cancellation upstream so
// the underlying resource is released.
func (s *methodInvocationSubscriber[T]) Cancel() {
	s.afterMethod()
	s.subscription.Cancel()
}

func (s *methodInvocationSubscriber[T]) beforeMethod() {
	s.exec.GoroutineID = currentGoroutineID()
	s.exec.Phase = PhaseBefore

	s.listeners.BeforeMethod(s.exec)

	s.stopWatch.Start()
}

func (s *methodInvocationSubscriber[T]) afterMethod() {
	if !s.terminated.CompareAndSwap(false, true) {
		return
	}

	s.exec.Elapsed = s.stopWatch.Elapsed()
	s.exec.GoroutineID = currentGoroutineID()
	s.exec.Phase = PhaseAfter

	s.listeners.AfterMethod(s.exec)
}
