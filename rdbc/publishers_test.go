package rdbc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Just_EmitsAllValuesAndCompletes(t *testing.T) {
	values, err := Collect(context.Background(), Just(1, 2, 3))

	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, values)
}

func Test_Just_EmptyCompletesWithoutElements(t *testing.T) {
	values, err := Collect(context.Background(), Just[int]())

	require.NoError(t, err)
	assert.Empty(t, values)
}

func Test_ErrorPublisher_TerminatesImmediately(t *testing.T) {
	failure := errors.New("boom")

	values, err := Collect(context.Background(), ErrorPublisher[string](failure))

	require.ErrorIs(t, err, failure)
	assert.Nil(t, values)
}

func Test_FromFunc_ProducesOnDemandOnly(t *testing.T) {
	produced := 0
	stream := FromFunc(func() (int, bool, error) {
		produced++
		return produced, true, nil
	}, nil)

	var sub Subscription
	received := make([]int, 0, 2)
	stream.Subscribe(context.Background(), &callbackSubscriber[int]{
		onSubscribe: func(s Subscription) { sub = s },
		onNext:      func(v int) { received = append(received, v) },
	})

	require.NotNil(t, sub)
	assert.Zero(t, produced, "nothing runs before demand is signalled")

	sub.Request(2)

	assert.Equal(t, 2, produced)
	assert.Equal(t, []int{1, 2}, received)

	sub.Cancel()
	sub.Request(1)
	assert.Equal(t, 2, produced, "no production after cancellation")
}

func Test_FromFunc_CloseRunsExactlyOnce(t *testing.T) {
	closed := 0
	stream := FromFunc(func() (int, bool, error) {
		return 0, false, nil
	}, func() {
		closed++
	})

	values, err := Collect(context.Background(), stream)

	require.NoError(t, err)
	assert.Empty(t, values)
	assert.Equal(t, 1, closed)
}

func Test_FromFunc_CloseRunsOnCancellation(t *testing.T) {
	closed := 0
	stream := FromFunc(func() (int, bool, error) {
		return 7, true, nil
	}, func() {
		closed++
	})

	first, err := First(context.Background(), stream)

	require.NoError(t, err)
	assert.Equal(t, 7, first)
	assert.Equal(t, 1, closed)
}

func Test_FromFunc_ProducerErrorFailsStream(t *testing.T) {
	failure := errors.New("read failed")
	closed := 0
	stream := FromFunc(func() (int, bool, error) {
		return 0, false, failure
	}, func() {
		closed++
	})

	_, err := Collect(context.Background(), stream)

	require.ErrorIs(t, err, failure)
	assert.Equal(t, 1, closed)
}

func Test_Deferred_SuppliesUpstreamAtSubscriptionTime(t *testing.T) {
	supplied := false
	stream := Deferred(func(context.Context) (Publisher[string], error) {
		supplied = true
		return Just("a"), nil
	})

	assert.False(t, supplied)

	values, err := Collect(context.Background(), stream)

	require.NoError(t, err)
	assert.True(t, supplied)
	assert.Equal(t, []string{"a"}, values)
}

func Test_Deferred_SupplyFailureTerminatesSubscriber(t *testing.T) {
	failure := errors.New("cannot acquire connection")
	stream := Deferred(func(context.Context) (Publisher[string], error) {
		return nil, failure
	})

	_, err := Collect(context.Background(), stream)

	assert.ErrorIs(t, err, failure)
}

func Test_Each_ConsumerErrorCancelsUpstream(t *testing.T) {
	cancelled := false
	stream := FromFunc(func() (int, bool, error) {
		return 1, true, nil
	}, func() {
		cancelled = true
	})

	consumerErr := errors.New("enough")
	err := Each(context.Background(), stream, func(int) error {
		return consumerErr
	})

	assert.ErrorIs(t, err, consumerErr)
	assert.True(t, cancelled)
}

func Test_Each_ContextCancellationStopsConsumption(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	blocking := publisherFunc[int](func(_ context.Context, sub Subscriber[int]) {
		// never signals demand fulfilment; the consumer must give up via ctx
		sub.OnSubscribe(NoopSubscription{})
	})

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := Each(ctx, blocking, func(int) error { return nil })

	assert.ErrorIs(t, err, context.Canceled)
}

func Test_First_ReturnsErrEmptyStreamOnEmptyStream(t *testing.T) {
	_, err := First(context.Background(), Just[int]())

	assert.ErrorIs(t, err, ErrEmptyStream)
}

func Test_First_PropagatesUpstreamError(t *testing.T) {
	failure := errors.New("boom")

	_, err := First(context.Background(), ErrorPublisher[int](failure))

	assert.ErrorIs(t, err, failure)
}

// callbackSubscriber adapts test callbacks to the Subscriber contract.
type callbackSubscriber[T any] struct {
	onSubscribe func(Subscription)
	onNext      func(T)
	onError     func(error)
	onComplete  func()
}

func (c *callbackSubscriber[T]) OnSubscribe(sub Subscription) {
	if c.onSubscribe != nil {
		c.onSubscribe(sub)
	}
}

func (c *callbackSubscriber[T]) OnNext(value T) {
	if c.onNext != nil {
		c.onNext(value)
	}
}

func (c *callbackSubscriber[T]) OnError(err error) {
	if c.onError != nil {
		c.onError(err)
	}
}

func (c *callbackSubscriber[T]) OnComplete() {
	if c.onComplete != nil {
		c.onComplete()
	}
}
