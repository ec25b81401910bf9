package adapters

import (
	"context"
	"database/sql"
)

// SQLAdapter implements DBAdapter for sql.DB.
type SQLAdapter struct {
	db *sql.DB
}

// NewSQLAdapter creates a new SQL adapter.
func NewSQLAdapter(db *sql.DB) *SQLAdapter {
	return &SQLAdapter{db: db}
}

// Acquire checks out a dedicated connection from the pool.
func (a *SQLAdapter) Acquire(ctx context.Context) (DBConn, error) {
	conn, err := a.db.Conn(ctx)
	if err != nil {
		return nil, err
	}

	return &sqlConn{conn: conn}, nil
}

type sqlConn struct {
	conn *sql.Conn
	tx   *sql.Tx
}

func (c *sqlConn) Query(ctx context.Context, query string, args ...any) (DBRows, error) {
	var (
		rows *sql.Rows
		err  error
	)

	if c.tx != nil {
		rows, err = c.tx.QueryContext(ctx, query, args...)
	} else {
		rows, err = c.conn.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, err
	}

	return &stdRows{rows: rows}, nil
}

func (c *sqlConn) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	var (
		result sql.Result
		err    error
	)

	if c.tx != nil {
		result, err = c.tx.ExecContext(ctx, query, args...)
	} else {
		result, err = c.conn.ExecContext(ctx, query, args...)
	}
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

func (c *sqlConn) Begin(ctx context.Context) error {
	if c.tx != nil {
		return ErrTransactionAlreadyOpen
	}

	tx, err := c.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	c.tx = tx
	return nil
}

func (c *sqlConn) Commit(context.Context) error {
	if c.tx == nil {
		return ErrNoActiveTransaction
	}

	err := c.tx.Commit()
	c.tx = nil

	return err
}

func (c *sqlConn) Rollback(context.Context) error {
	if c.tx == nil {
		return ErrNoActiveTransaction
	}

	err := c.tx.Rollback()
	c.tx = nil

	return err
}

func (c *sqlConn) Release(context.Context) error {
	if c.tx != nil {
		_ = c.tx.Rollback()
		c.tx = nil
	}

	return c.conn.Close()
}
