// Package proxy implements the call-interception core: it wraps an
// rdbc.ConnectionFactory so that a configurable chain of listeners observes
// a before and an after event for every SPI call, without altering the
// call's result, error, element count, ordering, or cancellation behavior.
//
// Plain calls are timed and notified around their invocation. Stream-shaped
// calls are instrumented at the subscription, where execution really
// begins: the before event fires when the returned stream is subscribed to,
// and the after event fires exactly once on the first terminal signal,
// whether that is completion, failure, or cancellation by the consumer.
//
// Values produced by an instrumented call are wrapped recursively, so a
// Connection created through a proxied factory yields proxied Statements,
// and query execution yields proxied Results.
//
// Common usage pattern:
//
//	listener, _ := support.NewLoggingListener(logger)
//	factory, err := proxy.Wrap(base, proxy.WithListeners(listener))
//	if err != nil {
//		// handle error
//	}
//	conn, _ := factory.Create(ctx) // instrumented from here on
package proxy
