package proxy

import "errors"

var ErrNilConnectionFactory = errors.New("nil rdbc.ConnectionFactory supplied")
var ErrNilTarget = errors.New("nil invocation target supplied")
var ErrEmptyMethodName = errors.New("empty method name supplied")
var ErrNilListener = errors.New("nil listener supplied")
var ErrNilClock = errors.New("nil clock supplied")
var ErrNilConnectionIDGenerator = errors.New("nil connection id generator supplied")
var ErrNilInvocationStrategy = errors.New("nil invocation strategy supplied")
var ErrInvalidInvocationResult = errors.New("invocation strategy produced a result of the wrong stream type")
