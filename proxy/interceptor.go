package proxy

import "fmt"

const (
	methodNameString      = "String"
	methodNameUnwrap      = "Unwrap"
	methodNameProxyConfig = "ProxyConfig"
)

// passThroughMethod reports whether the operation is exempt from
// instrumentation and listener dispatch. The set is compile-time: Unwrap
// hands out the raw target and must not be observed.
func passThroughMethod(method MethodInfo) bool {
	return method.Name == methodNameUnwrap
}

// proxyLabel synthesizes the self-description of a proxy, identifying the
// wrapped capability and the target's own description.
func proxyLabel(declaringType string, target any) string {
	return fmt.Sprintf("%s-proxy [%v]", declaringType, target)
}

// Interceptor routes intercepted calls for one proxy instance: it holds the
// shared Config and the connection correlation of the target, builds the
// per-call record, and dispatches the listener chain around the execution
// window.
//
// Stream-shaped methods are classified at wrapper build time and go through
// InstrumentStream; Proceed serves the plain-call shape and the open-ended
// (method-id, args) dispatch of custom capabilities.
type Interceptor struct {
	cfg      *Config
	connInfo *ConnectionInfo
}

// NewInterceptor creates an Interceptor for a target bound to connInfo.
// connInfo is nil for targets that precede connection establishment.
func NewInterceptor(cfg *Config, connInfo *ConnectionInfo) *Interceptor {
	return &Interceptor{cfg: cfg, connInfo: connInfo}
}

// Proceed executes one plain call, producing the same value or error the
// target would have produced. Classification, in order: pass-through
// methods forward directly without instrumentation; String synthesizes the
// proxy label; ProxyConfig returns the active configuration; everything
// else runs the instrumented sync path.
func (i *Interceptor) Proceed(method MethodInfo, target any, args []any, invoke Invocation) (any, error) {
	if err := i.validate(method, target); err != nil {
		return nil, err
	}

	switch {
	case passThroughMethod(method):
		return invoke()

	case method.Name == methodNameString:
		return proxyLabel(method.DeclaringType, target), nil

	case method.Name == methodNameProxyConfig:
		return i.cfg, nil
	}

	return i.executeSync(method, target, args, invoke)
}

// validate fails fast on invalid interceptor usage; these errors never
// reach a listener.
func (i *Interceptor) validate(method MethodInfo, target any) error {
	if method.Name == "" {
		return ErrEmptyMethodName
	}

	if target == nil {
		return ErrNilTarget
	}

	if i.cfg == nil || i.cfg.listeners == nil {
		return ErrNilListener
	}

	return nil
}

// executeSync is the instrumented path for calls that produce their result
// immediately. The after-hook fires exactly once via a single deferred exit
// covering both normal return and failure.
func (i *Interceptor) executeSync(method MethodInfo, target any, args []any, invoke Invocation) (result any, err error) {
	exec := newMethodExecution(method, target, args, i.connInfo)

	exec.GoroutineID = currentGoroutineID()
	exec.Phase = PhaseBefore
	i.cfg.listeners.BeforeMethod(exec)

	stopWatch := NewStopWatch(i.cfg.clock).Start()

	defer func() {
		exec.Result = result
		exec.Err = err
		exec.Elapsed = stopWatch.Elapsed()
		exec.GoroutineID = currentGoroutineID()
		exec.Phase = PhaseAfter
		i.cfg.listeners.AfterMethod(exec)
	}()

	result, err = i.cfg.invokeStrat(method, target, args, invoke)

	return result, err
}
