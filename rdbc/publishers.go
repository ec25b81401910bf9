package rdbc

import (
	"context"
	"errors"
	"math"
	"sync"
)

// Unbounded is the demand to request when the consumer wants the whole
// stream without flow control.
const Unbounded = int64(math.MaxInt64)

var (
	// ErrEmptyStream is returned by First when the stream completes without
	// producing an element.
	ErrEmptyStream = errors.New("stream completed without producing an element")
)

// Just returns a Publisher that emits the given values and completes.
func Just[T any](values ...T) Publisher[T] {
	return FromFunc(func() (T, bool, error) {
		var zero T
		if len(values) == 0 {
			return zero, false, nil
		}
		next := values[0]
		values = values[1:]
		return next, true, nil
	}, nil)
}

// ErrorPublisher returns a Publisher that terminates with err immediately
// after subscription.
func ErrorPublisher[T any](err error) Publisher[T] {
	return publisherFunc[T](func(_ context.Context, sub Subscriber[T]) {
		sub.OnSubscribe(NoopSubscription{})
		sub.OnError(err)
	})
}

// FromFunc returns a pull-based Publisher. next is called once per
// requested element and reports (value, ok, err); ok=false completes the
// stream, a non-nil err fails it. closeFn, when non-nil, runs exactly once
// on completion, failure, or cancellation.
func FromFunc[T any](next func() (T, bool, error), closeFn func()) Publisher[T] {
	return publisherFunc[T](func(_ context.Context, sub Subscriber[T]) {
		sub.OnSubscribe(&pullSubscription[T]{sub: sub, next: next, closeFn: closeFn})
	})
}

// Deferred returns a Publisher whose upstream is produced by supply at
// subscription time. A supply failure terminates the subscriber with that
// error. This is the building block for calls whose execution must not
// start before consumption begins.
func Deferred[T any](supply func(ctx context.Context) (Publisher[T], error)) Publisher[T] {
	return publisherFunc[T](func(ctx context.Context, sub Subscriber[T]) {
		upstream, err := supply(ctx)
		if err != nil {
			sub.OnSubscribe(NoopSubscription{})
			sub.OnError(err)
			return
		}
		upstream.Subscribe(ctx, sub)
	})
}

// Each subscribes to p and invokes fn for every element, requesting one
// element at a time. It returns the stream's terminal error, fn's error
// (after cancelling upstream), or the context error if ctx ends first.
func Each[T any](ctx context.Context, p Publisher[T], fn func(T) error) error {
	done := make(chan error, 1)
	consumer := &eachSubscriber[T]{fn: fn, done: done}
	p.Subscribe(ctx, consumer)

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		consumer.cancel()
		return ctx.Err()
	}
}

// Collect drains p into a slice.
func Collect[T any](ctx context.Context, p Publisher[T]) ([]T, error) {
	var collected []T
	err := Each(ctx, p, func(value T) error {
		collected = append(collected, value)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return collected, nil
}

// First returns the first element of p, cancelling the rest of the stream.
// It returns ErrEmptyStream if p completes without an element.
func First[T any](ctx context.Context, p Publisher[T]) (T, error) {
	var first T
	found := false

	err := Each(ctx, p, func(value T) error {
		first = value
		found = true
		return errStopIteration
	})

	switch {
	case err != nil && !errors.Is(err, errStopIteration):
		return first, err
	case !found:
		return first, ErrEmptyStream
	default:
		return first, nil
	}
}

// NoopSubscription is a Subscription without an upstream. It is handed to
// subscribers whose stream terminates before any element can be produced.
type NoopSubscription struct{}

func (NoopSubscription) Request(int64) {}
func (NoopSubscription) Cancel()       {}

var errStopIteration = errors.New("stop iteration")

// publisherFunc adapts a function to the Publisher interface.
type publisherFunc[T any] func(ctx context.Context, sub Subscriber[T])

func (f publisherFunc[T]) Subscribe(ctx context.Context, sub Subscriber[T]) {
	f(ctx, sub)
}

// pullSubscription drives a pull-based producer. Demand accounting uses a
// trampoline so that reentrant Request calls from OnNext only bump the
// counter instead of recursing.
type pullSubscription[T any] struct {
	sub     Subscriber[T]
	next    func() (T, bool, error)
	closeFn func()

	mu       sync.Mutex
	demand   int64
	emitting bool
	done     bool
}

func (s *pullSubscription[T]) Request(n int64) {
	if n <= 0 {
		return
	}

	s.mu.Lock()
	s.demand += n
	if s.demand < 0 { // overflow clamps to unbounded
		s.demand = Unbounded
	}
	if s.emitting || s.done {
		s.mu.Unlock()
		return
	}
	s.emitting = true

	for s.demand > 0 && !s.done {
		s.demand--
		s.mu.Unlock()

		value, ok, err := s.next()
		if err != nil {
			s.terminate()
			s.sub.OnError(err)
			return
		}
		if !ok {
			s.terminate()
			s.sub.OnComplete()
			return
		}
		s.sub.OnNext(value)

		s.mu.Lock()
	}

	s.emitting = false
	s.mu.Unlock()
}

func (s *pullSubscription[T]) Cancel() {
	s.terminate()
}

// terminate flips the subscription to done and releases the producer; only
// the first caller runs closeFn.
func (s *pullSubscription[T]) terminate() {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return
	}
	s.done = true
	s.mu.Unlock()

	if s.closeFn != nil {
		s.closeFn()
	}
}

// eachSubscriber bridges the push contract to the blocking Each helper.
type eachSubscriber[T any] struct {
	fn   func(T) error
	done chan error

	mu       sync.Mutex
	sub      Subscription
	finished bool
}

func (e *eachSubscriber[T]) OnSubscribe(sub Subscription) {
	e.mu.Lock()
	e.sub = sub
	e.mu.Unlock()

	sub.Request(1)
}

func (e *eachSubscriber[T]) OnNext(value T) {
	if err := e.fn(value); err != nil {
		e.cancel()
		e.finish(err)
		return
	}

	e.mu.Lock()
	sub := e.sub
	e.mu.Unlock()
	sub.Request(1)
}

func (e *eachSubscriber[T]) OnError(err error) {
	e.finish(err)
}

func (e *eachSubscriber[T]) OnComplete() {
	e.finish(nil)
}

func (e *eachSubscriber[T]) cancel() {
	e.mu.Lock()
	sub := e.sub
	e.mu.Unlock()

	if sub != nil {
		sub.Cancel()
	}
}

// finish delivers the terminal outcome exactly once.
func (e *eachSubscriber[T]) finish(err error) {
	e.mu.Lock()
	if e.finished {
		e.mu.Unlock()
		return
	}
	e.finished = true
	e.mu.Unlock()

	e.done <- err
}
