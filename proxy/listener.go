package proxy

// Listener observes instrumented calls. BeforeMethod/AfterMethod fire for
// every instrumented call; BeforeQuery, AfterQuery and EachQueryResult
// additionally fire for query executions.
//
// Hooks have no return value and are not isolated: a panicking listener
// aborts the intercepted call and is visible to the caller. Keeping
// misbehavior loud is deliberate; silently swallowing it would hide bugs.
type Listener interface {
	// BeforeMethod fires once per call before the execution window opens.
	BeforeMethod(exec *MethodExecution)

	// AfterMethod fires exactly once per call after the execution window
	// closes, on every terminal path: return, failure, or cancellation.
	AfterMethod(exec *MethodExecution)

	// BeforeQuery fires once when a query execution stream is subscribed.
	BeforeQuery(exec *QueryExecution)

	// AfterQuery fires exactly once when the query stream terminates.
	AfterQuery(exec *QueryExecution)

	// EachQueryResult fires for every result element the query stream
	// produces, with CurrentResultIndex set to that element's 0-based index.
	EachQueryResult(exec *QueryExecution)
}

// ListenerFuncs adapts individual funcs to the Listener interface. Nil
// funcs are no-ops, so a listener interested in a single phase stays short.
type ListenerFuncs struct {
	BeforeMethodFunc    func(exec *MethodExecution)
	AfterMethodFunc     func(exec *MethodExecution)
	BeforeQueryFunc     func(exec *QueryExecution)
	AfterQueryFunc      func(exec *QueryExecution)
	EachQueryResultFunc func(exec *QueryExecution)
}

func (l *ListenerFuncs) BeforeMethod(exec *MethodExecution) {
	if l.BeforeMethodFunc != nil {
		l.BeforeMethodFunc(exec)
	}
}

func (l *ListenerFuncs) AfterMethod(exec *MethodExecution) {
	if l.AfterMethodFunc != nil {
		l.AfterMethodFunc(exec)
	}
}

func (l *ListenerFuncs) BeforeQuery(exec *QueryExecution) {
	if l.BeforeQueryFunc != nil {
		l.BeforeQueryFunc(exec)
	}
}

func (l *ListenerFuncs) AfterQuery(exec *QueryExecution) {
	if l.AfterQueryFunc != nil {
		l.AfterQueryFunc(exec)
	}
}

func (l *ListenerFuncs) EachQueryResult(exec *QueryExecution) {
	if l.EachQueryResultFunc != nil {
		l.EachQueryResultFunc(exec)
	}
}

// Ensure ListenerFuncs implements Listener.
var _ Listener = (*ListenerFuncs)(nil)

// CompositeListener broadcasts each hook to its entries in configured
// order. The order is identical for the before and the after phase. An
// empty composite is a no-op.
type CompositeListener struct {
	listeners []Listener
}

// NewCompositeListener creates a composite over the given listeners.
func NewCompositeListener(listeners ...Listener) *CompositeListener {
	return &CompositeListener{listeners: listeners}
}

// Add appends a listener to the chain.
func (c *CompositeListener) Add(listener Listener) *CompositeListener {
	c.listeners = append(c.listeners, listener)
	return c
}

// Listeners returns the chain entries in configured order.
func (c *CompositeListener) Listeners() []Listener {
	return c.listeners
}

func (c *CompositeListener) BeforeMethod(exec *MethodExecution) {
	for _, l := range c.listeners {
		l.BeforeMethod(exec)
	}
}

func (c *CompositeListener) AfterMethod(exec *MethodExecution) {
	for _, l := range c.listeners {
		l.AfterMethod(exec)
	}
}

func (c *CompositeListener) BeforeQuery(exec *QueryExecution) {
	for _, l := range c.listeners {
		l.BeforeQuery(exec)
	}
}

func (c *CompositeListener) AfterQuery(exec *QueryExecution) {
	for _, l := range c.listeners {
		l.AfterQuery(exec)
	}
}

func (c *CompositeListener) EachQueryResult(exec *QueryExecution) {
	for _, l := range c.listeners {
		l.EachQueryResult(exec)
	}
}

// Ensure CompositeListener implements Listener.
var _ Listener = (*CompositeListener)(nil)
