package proxy

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Interceptor_Proceed_ReturnsTargetResult(t *testing.T) {
	listener := &recordingListener{}
	cfg, err := NewConfig(WithListeners(listener))
	require.NoError(t, err)

	interceptor := NewInterceptor(cfg, nil)
	method := MethodInfo{Name: "IndexOf", DeclaringType: "Long"}

	result, err := interceptor.Proceed(method, "target", []any{"a"}, func() (any, error) {
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, result)
	assert.Equal(t, 1, listener.beforeMethodCount)
	assert.Equal(t, 1, listener.afterMethodCount)
	assert.Equal(t, 42, listener.lastMethodResult)
	assert.Equal(t, PhaseAfter, listener.lastMethodPhase)
}

func Test_Interceptor_Proceed_FailureStillFiresAfterHookOnce(t *testing.T) {
	listener := &recordingListener{}
	cfg, err := NewConfig(WithListeners(listener))
	require.NoError(t, err)

	interceptor := NewInterceptor(cfg, nil)
	method := MethodInfo{Name: "Close", DeclaringType: typeConnection}
	failure := errors.New("connection lost")

	result, err := interceptor.Proceed(method, "target", nil, func() (any, error) {
		return nil, failure
	})

	require.ErrorIs(t, err, failure)
	assert.Nil(t, result)
	assert.Equal(t, 1, listener.beforeMethodCount)
	assert.Equal(t, 1, listener.afterMethodCount)
	assert.ErrorIs(t, listener.lastMethodErr, failure)
}

func Test_Interceptor_Proceed_MeasuresElapsedWithConfiguredClock(t *testing.T) {
	listener := &recordingListener{}
	clock := newTickingClock(25 * time.Millisecond)
	cfg, err := NewConfig(WithListeners(listener), WithClock(clock))
	require.NoError(t, err)

	interceptor := NewInterceptor(cfg, nil)
	method := MethodInfo{Name: "Create", DeclaringType: typeConnectionFactory}

	_, err = interceptor.Proceed(method, "target", nil, func() (any, error) {
		return nil, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 25*time.Millisecond, listener.lastMethodElapsed)
}

func Test_Interceptor_Proceed_PassThroughSkipsListeners(t *testing.T) {
	listener := &recordingListener{}
	cfg, err := NewConfig(WithListeners(listener))
	require.NoError(t, err)

	interceptor := NewInterceptor(cfg, nil)
	method := MethodInfo{Name: "Unwrap", DeclaringType: typeConnection}

	result, err := interceptor.Proceed(method, "target", nil, func() (any, error) {
		return "raw", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "raw", result)
	assert.Zero(t, listener.beforeMethodCount)
	assert.Zero(t, listener.afterMethodCount)
}

func Test_Interceptor_Proceed_StringSynthesizesProxyLabel(t *testing.T) {
	cfg, err := NewConfig()
	require.NoError(t, err)

	interceptor := NewInterceptor(cfg, nil)
	method := MethodInfo{Name: "String", DeclaringType: typeConnection}

	result, err := interceptor.Proceed(method, "raw-conn", nil, func() (any, error) {
		t.Fatal("String must not reach the target")
		return nil, nil
	})

	require.NoError(t, err)
	assert.Equal(t, "Connection-proxy [raw-conn]", result)
}

func Test_Interceptor_Proceed_ProxyConfigReturnsActiveConfig(t *testing.T) {
	cfg, err := NewConfig()
	require.NoError(t, err)

	interceptor := NewInterceptor(cfg, nil)
	method := MethodInfo{Name: "ProxyConfig", DeclaringType: typeConnection}

	result, err := interceptor.Proceed(method, "target", nil, func() (any, error) {
		t.Fatal("ProxyConfig must not reach the target")
		return nil, nil
	})

	require.NoError(t, err)
	assert.Same(t, cfg, result)
}

func Test_Interceptor_Proceed_ValidationErrors(t *testing.T) {
	cfg, err := NewConfig()
	require.NoError(t, err)

	interceptor := NewInterceptor(cfg, nil)

	invoke := func() (any, error) { return nil, nil }

	_, err = interceptor.Proceed(MethodInfo{Name: ""}, "target", nil, invoke)
	assert.ErrorIs(t, err, ErrEmptyMethodName)

	_, err = interceptor.Proceed(MethodInfo{Name: "Close"}, nil, nil, invoke)
	assert.ErrorIs(t, err, ErrNilTarget)
}

func Test_Interceptor_Proceed_CustomInvocationStrategySubstitutesResult(t *testing.T) {
	listener := &recordingListener{}
	cfg, err := NewConfig(
		WithListeners(listener),
		WithInvocationStrategy(func(_ MethodInfo, _ any, _ []any, _ Invocation) (any, error) {
			return "substituted", nil
		}),
	)
	require.NoError(t, err)

	interceptor := NewInterceptor(cfg, nil)
	method := MethodInfo{Name: "IndexOf", DeclaringType: "Long"}

	invoked := false
	result, err := interceptor.Proceed(method, "target", nil, func() (any, error) {
		invoked = true
		return "real", nil
	})

	require.NoError(t, err)
	assert.False(t, invoked)
	assert.Equal(t, "substituted", result)
	assert.Equal(t, "substituted", listener.lastMethodResult)
}

func Test_Config_OptionValidation(t *testing.T) {
	_, err := NewConfig(WithListeners(nil))
	assert.ErrorIs(t, err, ErrNilListener)

	_, err = NewConfig(WithClock(nil))
	assert.ErrorIs(t, err, ErrNilClock)

	_, err = NewConfig(WithConnectionIDGenerator(nil))
	assert.ErrorIs(t, err, ErrNilConnectionIDGenerator)

	_, err = NewConfig(WithInvocationStrategy(nil))
	assert.ErrorIs(t, err, ErrNilInvocationStrategy)
}

func Test_Config_DefaultsAreUsable(t *testing.T) {
	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.NotNil(t, cfg.Listeners())
	assert.Empty(t, cfg.Listeners().Listeners())
	assert.NotNil(t, cfg.Clock())
	assert.NotEmpty(t, cfg.generateID())
}
