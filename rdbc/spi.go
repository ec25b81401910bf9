package rdbc

import "context"

// FactoryMetadata describes a ConnectionFactory implementation.
type FactoryMetadata struct {
	Name string
}

// ConnectionFactory is the entry point of the SPI. Create is a plain call;
// the connection it returns is ready for use.
type ConnectionFactory interface {
	Create(ctx context.Context) (Connection, error)
	Metadata() FactoryMetadata
}

// Connection represents a single logical database connection.
//
// Lifecycle calls (BeginTransaction, CommitTransaction, RollbackTransaction,
// Close) are plain calls; statement execution is stream-shaped.
type Connection interface {
	CreateStatement(query string) (Statement, error)
	CreateBatch() Batch
	BeginTransaction(ctx context.Context) error
	CommitTransaction(ctx context.Context) error
	RollbackTransaction(ctx context.Context) error
	Close(ctx context.Context) error
}

// Statement is a parameterized query. Bind and BindName attach parameter
// values to the current bind group; Add seals the current group and starts
// a new one, so a single Execute can run the query once per group.
//
// Bind calls return the Statement to allow chaining. Execute returns one
// Result per bind group; the underlying query does not run until the
// streams of each Result are subscribed to.
type Statement interface {
	Bind(index int, value any) Statement
	BindName(name string, value any) Statement
	Add() Statement
	Execute() Publisher[Result]
}

// Batch collects independent query strings to run in one round trip.
type Batch interface {
	Add(query string) Batch
	Execute() Publisher[Result]
}

// Result is one result of executing a statement or batch entry. Exactly one
// of its streams should be consumed: RowsUpdated for write statements, Map
// for row-producing statements.
type Result interface {
	RowsUpdated() Publisher[int64]
	Map(fn func(Row) (any, error)) Publisher[any]
}

// Row is a single row of a result set, valid only for the duration of the
// Map callback it is passed to.
type Row interface {
	Get(index int) (any, error)
	GetByName(name string) (any, error)
}
