package rdbc

import "context"

// Publisher produces zero or more elements of T followed by exactly one
// terminal signal. No work happens before Subscribe is called; the passed
// context is the execution context of the underlying call and flows down to
// the producing driver.
type Publisher[T any] interface {
	Subscribe(ctx context.Context, sub Subscriber[T])
}

// Subscriber receives the signals of one subscription.
//
// Signal contract: OnSubscribe first, then zero or more OnNext, then at most
// one of OnError or OnComplete. After a terminal signal, or after the
// subscriber cancelled its Subscription, no further signals arrive.
type Subscriber[T any] interface {
	OnSubscribe(sub Subscription)
	OnNext(value T)
	OnError(err error)
	OnComplete()
}

// Subscription controls demand and lifetime of one subscription.
type Subscription interface {
	// Request adds n to the outstanding demand. The publisher delivers at
	// most the requested number of elements.
	Request(n int64)

	// Cancel stops the stream. No terminal signal follows a cancellation;
	// upstream resources are released.
	Cancel()
}
