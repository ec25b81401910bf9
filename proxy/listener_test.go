package proxy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deblockt/r2dbc-proxy/rdbc"
)

func Test_CompositeListener_BroadcastsInConfiguredOrderForBothPhases(t *testing.T) {
	var journal []string
	first := &recordingListener{name: "first", journal: &journal}
	second := &recordingListener{name: "second", journal: &journal}

	cfg, err := NewConfig(WithListeners(first, second))
	require.NoError(t, err)

	interceptor := NewInterceptor(cfg, nil)
	method := MethodInfo{Name: "Close", DeclaringType: typeConnection}

	_, err = interceptor.Proceed(method, "target", nil, func() (any, error) {
		return nil, nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"first:beforeMethod:Connection#Close",
		"second:beforeMethod:Connection#Close",
		"first:afterMethod:Connection#Close",
		"second:afterMethod:Connection#Close",
	}, journal)
}

func Test_CompositeListener_AddAppends(t *testing.T) {
	composite := NewCompositeListener()
	assert.Empty(t, composite.Listeners())

	first := &recordingListener{}
	second := &recordingListener{}
	composite.Add(first).Add(second)

	require.Len(t, composite.Listeners(), 2)
	assert.Same(t, Listener(first), composite.Listeners()[0])
	assert.Same(t, Listener(second), composite.Listeners()[1])
}

func Test_ListenerFuncs_NilHooksAreNoOps(t *testing.T) {
	funcs := &ListenerFuncs{}

	assert.NotPanics(t, func() {
		funcs.BeforeMethod(&MethodExecution{})
		funcs.AfterMethod(&MethodExecution{})
		funcs.BeforeQuery(&QueryExecution{})
		funcs.AfterQuery(&QueryExecution{})
		funcs.EachQueryResult(&QueryExecution{})
	})
}

func Test_ListenerFuncs_SingleHookListener(t *testing.T) {
	var afterCount int
	funcs := &ListenerFuncs{
		AfterQueryFunc: func(*QueryExecution) { afterCount++ },
	}

	cfg, err := NewConfig(WithListeners(funcs))
	require.NoError(t, err)

	exec := newQueryExecution(ExecutionTypeStatement, nil, []QueryInfo{{Query: "SELECT 1"}})
	stream := instrumentQueryExecution(cfg, exec, rdbc.Just[rdbc.Result](&fakeResult{}))

	_, err = rdbc.Collect(context.Background(), stream)
	require.NoError(t, err)

	assert.Equal(t, 1, afterCount)
}

func Test_ValueStore_CarriesStateBetweenPhases(t *testing.T) {
	type spanKey struct{}

	var captured any
	listener := &ListenerFuncs{
		BeforeMethodFunc: func(exec *MethodExecution) {
			exec.Values.Put(spanKey{}, "span-1")
		},
		AfterMethodFunc: func(exec *MethodExecution) {
			captured = exec.Values.Get(spanKey{})
			exec.Values.Delete(spanKey{})
			assert.Nil(t, exec.Values.Get(spanKey{}))
		},
	}

	cfg, err := NewConfig(WithListeners(listener))
	require.NoError(t, err)

	interceptor := NewInterceptor(cfg, nil)
	_, err = interceptor.Proceed(MethodInfo{Name: "Close", DeclaringType: typeConnection}, "target", nil, func() (any, error) {
		return nil, nil
	})

	require.NoError(t, err)
	assert.Equal(t, "span-1", captured)
}
