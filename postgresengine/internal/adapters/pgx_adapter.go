package adapters

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGXAdapter implements DBAdapter for pgxpool.Pool.
type PGXAdapter struct {
	pool *pgxpool.Pool
}

// NewPGXAdapter creates a new PGX adapter on the given pool.
func NewPGXAdapter(pool *pgxpool.Pool) *PGXAdapter {
	return &PGXAdapter{pool: pool}
}

// Acquire checks out a dedicated connection from the pool.
func (a *PGXAdapter) Acquire(ctx context.Context) (DBConn, error) {
	conn, err := a.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	return &pgxConn{conn: conn}, nil
}

// pgxConn wraps one pooled pgx connection, tracking at most one open
// transaction.
type pgxConn struct {
	conn *pgxpool.Conn
	tx   pgx.Tx
}

func (c *pgxConn) Query(ctx context.Context, query string, args ...any) (DBRows, error) {
	var (
		rows pgx.Rows
		err  error
	)

	if c.tx != nil {
		rows, err = c.tx.Query(ctx, query, args...)
	} else {
		rows, err = c.conn.Query(ctx, query, args...)
	}
	if err != nil {
		return nil, err
	}

	return &pgxRows{rows: rows}, nil
}

func (c *pgxConn) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	if c.tx != nil {
		tag, err := c.tx.Exec(ctx, query, args...)
		if err != nil {
			return 0, err
		}
		return tag.RowsAffected(), nil
	}

	tag, err := c.conn.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}

	return tag.RowsAffected(), nil
}

func (c *pgxConn) Begin(ctx context.Context) error {
	if c.tx != nil {
		return ErrTransactionAlreadyOpen
	}

	tx, err := c.conn.Begin(ctx)
	if err != nil {
		return err
	}

	c.tx = tx
	return nil
}

func (c *pgxConn) Commit(ctx context.Context) error {
	if c.tx == nil {
		return ErrNoActiveTransaction
	}

	err := c.tx.Commit(ctx)
	c.tx = nil

	return err
}

func (c *pgxConn) Rollback(ctx context.Context) error {
	if c.tx == nil {
		return ErrNoActiveTransaction
	}

	err := c.tx.Rollback(ctx)
	c.tx = nil

	return err
}

func (c *pgxConn) Release(ctx context.Context) error {
	if c.tx != nil {
		_ = c.tx.Rollback(ctx)
		c.tx = nil
	}

	c.conn.Release()
	return nil
}

// pgxRows wraps pgx.Rows to implement the DBRows interface.
type pgxRows struct {
	rows pgx.Rows
}

func (r *pgxRows) Next() bool {
	return r.rows.Next()
}

func (r *pgxRows) Columns() ([]string, error) {
	fields := r.rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, field := range fields {
		columns[i] = field.Name
	}

	return columns, nil
}

func (r *pgxRows) Values() ([]any, error) {
	return r.rows.Values()
}

func (r *pgxRows) Err() error {
	return r.rows.Err()
}

func (r *pgxRows) Close() error {
	r.rows.Close()
	return nil
}
