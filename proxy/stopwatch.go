package proxy

import "time"

// Clock is the time source used to measure execution durations. Supplying
// a fixed clock makes timing deterministic in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock is the default Clock, reading the wall clock.
type SystemClock struct{}

// Now returns the current wall-clock time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// StopWatch measures the elapsed duration of one execution window. It is
// started at a well-defined moment (subscription for streams, right before
// invocation for plain calls) and read on demand.
type StopWatch struct {
	clock   Clock
	start   time.Time
	started bool
}

// NewStopWatch creates a stopped StopWatch on the given clock.
func NewStopWatch(clock Clock) *StopWatch {
	return &StopWatch{clock: clock}
}

// Start records the start instant and returns the StopWatch for chaining.
func (s *StopWatch) Start() *StopWatch {
	s.start = s.clock.Now()
	s.started = true

	return s
}

// Elapsed returns the duration since Start, or zero when never started.
func (s *StopWatch) Elapsed() time.Duration {
	if !s.started {
		return 0
	}

	return s.clock.Now().Sub(s.start)
}
