package support

import (
	"errors"

	"github.com/deblockt/r2dbc-proxy/proxy"
)

// ErrNilLogger is returned when a LoggingListener is created without a
// logger.
var ErrNilLogger = errors.New("nil logger supplied")

// Logger is the dependency-free logging interface the listener writes to.
// It matches the log/slog call shape, so *slog.Logger satisfies it
// directly; the oteladapters package provides a bridge that also emits log
// records to an OpenTelemetry pipeline.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

const (
	logMsgMethodExecuted = "method executed"
	logMsgMethodFailed   = "method failed"
	logMsgQueryExecuted  = "query executed"
	logMsgQueryFailed    = "query failed"

	logAttrRecord = "record"
	logAttrError  = "error"
)

// LoggingListener logs every finished query execution, and optionally
// every finished method call, as a single formatted line. Failures are
// logged at error level, everything else at debug level.
type LoggingListener struct {
	logger     Logger
	methods    *MethodExecutionFormatter
	queries    *QueryExecutionFormatter
	logMethods bool
}

// LoggingOption configures a LoggingListener.
type LoggingOption func(*LoggingListener)

// WithMethodLogging also logs every instrumented method call, not just
// query executions. Noisy; meant for debugging the integration itself.
func WithMethodLogging() LoggingOption {
	return func(l *LoggingListener) {
		l.logMethods = true
	}
}

// WithMethodFormatter replaces the method record formatter.
func WithMethodFormatter(formatter *MethodExecutionFormatter) LoggingOption {
	return func(l *LoggingListener) {
		l.methods = formatter
	}
}

// WithQueryFormatter replaces the query record formatter.
func WithQueryFormatter(formatter *QueryExecutionFormatter) LoggingOption {
	return func(l *LoggingListener) {
		l.queries = formatter
	}
}

// NewLoggingListener creates a LoggingListener writing to logger.
func NewLoggingListener(logger Logger, options ...LoggingOption) (*LoggingListener, error) {
	if logger == nil {
		return nil, ErrNilLogger
	}

	listener := &LoggingListener{
		logger:  logger,
		methods: NewMethodExecutionFormatter(),
		queries: NewQueryExecutionFormatter(),
	}

	for _, option := range options {
		option(listener)
	}

	return listener, nil
}

func (l *LoggingListener) BeforeMethod(*proxy.MethodExecution) {}

func (l *LoggingListener) AfterMethod(exec *proxy.MethodExecution) {
	if !l.logMethods {
		return
	}

	line := l.methods.Format(exec)

	if exec.Err != nil {
		l.logger.Error(logMsgMethodFailed, logAttrRecord, line, logAttrError, exec.Err)
		return
	}

	l.logger.Debug(logMsgMethodExecuted, logAttrRecord, line)
}

func (l *LoggingListener) BeforeQuery(*proxy.QueryExecution) {}

func (l *LoggingListener) AfterQuery(exec *proxy.QueryExecution) {
	line := l.queries.Format(exec)

	if exec.Err != nil {
		l.logger.Error(logMsgQueryFailed, logAttrRecord, line, logAttrError, exec.Err)
		return
	}

	l.logger.Debug(logMsgQueryExecuted, logAttrRecord, line)
}

func (l *LoggingListener) EachQueryResult(*proxy.QueryExecution) {}

var _ proxy.Listener = (*LoggingListener)(nil)
