package proxy

import "github.com/google/uuid"

// Invocation is the forwarding closure a proxy wrapper builds for one call
// against its unwrapped target.
type Invocation func() (any, error)

// InvocationStrategy decides how the underlying call is performed. The
// default strategy simply runs the forwarding closure; a custom strategy
// can decorate or replace the invocation (for example in tests) while the
// interception machinery around it stays unchanged.
type InvocationStrategy func(method MethodInfo, target any, args []any, invoke Invocation) (any, error)

// DefaultInvocationStrategy performs the forwarding call as built by the
// wrapper and surfaces its real error unwrapped.
func DefaultInvocationStrategy(_ MethodInfo, _ any, _ []any, invoke Invocation) (any, error) {
	return invoke()
}

// Config carries the shared collaborators of one proxied factory tree:
// the listener chain, the clock for stopwatches, the connection id
// generator, and the invocation strategy.
type Config struct {
	listeners   *CompositeListener
	clock       Clock
	generateID  func() string
	invokeStrat InvocationStrategy
}

// Option defines a functional option for configuring a proxy.
type Option func(*Config) error

// WithListeners appends listeners to the chain. Listeners are invoked in
// the order they were configured, for both phases.
func WithListeners(listeners ...Listener) Option {
	return func(cfg *Config) error {
		for _, l := range listeners {
			if l == nil {
				return ErrNilListener
			}
			cfg.listeners.Add(l)
		}

		return nil
	}
}

// WithClock sets the time source used for duration measurement.
func WithClock(clock Clock) Option {
	return func(cfg *Config) error {
		if clock == nil {
			return ErrNilClock
		}

		cfg.clock = clock

		return nil
	}
}

// WithConnectionIDGenerator sets the generator for connection correlation
// ids. The default generates UUIDs.
func WithConnectionIDGenerator(generate func() string) Option {
	return func(cfg *Config) error {
		if generate == nil {
			return ErrNilConnectionIDGenerator
		}

		cfg.generateID = generate

		return nil
	}
}

// WithInvocationStrategy replaces how underlying calls are performed.
func WithInvocationStrategy(strategy InvocationStrategy) Option {
	return func(cfg *Config) error {
		if strategy == nil {
			return ErrNilInvocationStrategy
		}

		cfg.invokeStrat = strategy

		return nil
	}
}

// NewConfig creates a Config with the given options applied over the
// defaults: empty listener chain, system clock, UUID connection ids, and
// the default invocation strategy.
func NewConfig(options ...Option) (*Config, error) {
	cfg := &Config{
		listeners:   NewCompositeListener(),
		clock:       SystemClock{},
		generateID:  uuid.NewString,
		invokeStrat: DefaultInvocationStrategy,
	}

	for _, option := range options {
		if err := option(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Listeners returns the configured listener chain.
func (cfg *Config) Listeners() *CompositeListener {
	return cfg.listeners
}

// Clock returns the configured time source.
func (cfg *Config) Clock() Clock {
	return cfg.clock
}
