package adapters

import "context"

// DBAdapter acquires dedicated connections from an underlying pool or
// handle.
type DBAdapter interface {
	Acquire(ctx context.Context) (DBConn, error)
}

// DBConn is one dedicated database connection. Begin/Commit/Rollback
// manage at most one transaction at a time; while a transaction is open,
// Query and Exec run inside it. Release returns the connection to its
// pool, rolling back a still-open transaction.
type DBConn interface {
	Query(ctx context.Context, query string, args ...any) (DBRows, error)
	Exec(ctx context.Context, query string, args ...any) (int64, error)
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	Release(ctx context.Context) error
}

// DBRows is the iterator over one query's result set.
type DBRows interface {
	Next() bool
	Columns() ([]string, error)
	Values() ([]any, error)
	Err() error
	Close() error
}
