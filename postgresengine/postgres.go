package postgresengine

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/deblockt/r2dbc-proxy/postgresengine/internal/adapters"
	"github.com/deblockt/r2dbc-proxy/rdbc"
)

const defaultFactoryName = "PostgreSQL"

var (
	// ErrNilDatabaseHandle is returned when a factory is created without a
	// database handle.
	ErrNilDatabaseHandle = errors.New("nil database handle supplied")

	// ErrNilLogger is returned when WithLogger is given a nil logger.
	ErrNilLogger = errors.New("nil logger supplied")

	// ErrEmptyFactoryName is returned when WithFactoryName is given an
	// empty name.
	ErrEmptyFactoryName = errors.New("empty factory name supplied")

	// ErrEmptyQuery is returned by CreateStatement for an empty query
	// string and by Batch.Execute when nothing was added.
	ErrEmptyQuery = errors.New("empty query supplied")

	// ErrMixedBindings is returned when one bind group mixes positional and
	// named parameters.
	ErrMixedBindings = errors.New("bind group mixes positional and named parameters")

	// ErrNonContiguousBindings is returned when positional bind indexes do
	// not form the range 0..n-1.
	ErrNonContiguousBindings = errors.New("positional bind indexes must be contiguous from 0")
)

// Logger is the interface for SQL debug logging and error reporting.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is the default logger; it drops everything.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Option defines a functional option for configuring a ConnectionFactory.
type Option func(*ConnectionFactory) error

// WithLogger sets the logger for SQL debug output.
func WithLogger(logger Logger) Option {
	return func(f *ConnectionFactory) error {
		if logger == nil {
			return ErrNilLogger
		}

		f.logger = logger
		return nil
	}
}

// WithFactoryName overrides the name reported by Metadata.
func WithFactoryName(name string) Option {
	return func(f *ConnectionFactory) error {
		if name == "" {
			return ErrEmptyFactoryName
		}

		f.name = name
		return nil
	}
}

// ConnectionFactory implements rdbc.ConnectionFactory on PostgreSQL.
type ConnectionFactory struct {
	adapter adapters.DBAdapter
	name    string
	logger  Logger
}

// NewConnectionFactoryFromPGXPool creates a ConnectionFactory on a
// pgxpool.Pool.
func NewConnectionFactoryFromPGXPool(pool *pgxpool.Pool, options ...Option) (*ConnectionFactory, error) {
	if pool == nil {
		return nil, ErrNilDatabaseHandle
	}

	return newConnectionFactory(adapters.NewPGXAdapter(pool), options...)
}

// NewConnectionFactoryFromSQLDB creates a ConnectionFactory on a
// database/sql DB, for example one opened with the lib/pq driver.
func NewConnectionFactoryFromSQLDB(db *sql.DB, options ...Option) (*ConnectionFactory, error) {
	if db == nil {
		return nil, ErrNilDatabaseHandle
	}

	return newConnectionFactory(adapters.NewSQLAdapter(db), options...)
}

// NewConnectionFactoryFromSQLX creates a ConnectionFactory on a sqlx.DB.
func NewConnectionFactoryFromSQLX(db *sqlx.DB, options ...Option) (*ConnectionFactory, error) {
	if db == nil {
		return nil, ErrNilDatabaseHandle
	}

	return newConnectionFactory(adapters.NewSQLXAdapter(db), options...)
}

func newConnectionFactory(adapter adapters.DBAdapter, options ...Option) (*ConnectionFactory, error) {
	factory := &ConnectionFactory{
		adapter: adapter,
		name:    defaultFactoryName,
		logger:  noopLogger{},
	}

	for _, option := range options {
		if err := option(factory); err != nil {
			return nil, err
		}
	}

	return factory, nil
}

// Create acquires a dedicated connection from the underlying pool.
func (f *ConnectionFactory) Create(ctx context.Context) (rdbc.Connection, error) {
	conn, err := f.adapter.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	f.logger.Debug(logMsgConnectionAcquired)

	return &connection{conn: conn, logger: f.logger}, nil
}

// Metadata describes this factory.
func (f *ConnectionFactory) Metadata() rdbc.FactoryMetadata {
	return rdbc.FactoryMetadata{Name: f.name}
}

// Ensure ConnectionFactory implements rdbc.ConnectionFactory.
var _ rdbc.ConnectionFactory = (*ConnectionFactory)(nil)
