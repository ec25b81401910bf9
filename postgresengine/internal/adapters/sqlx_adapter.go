package adapters

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

// SQLXAdapter implements DBAdapter for sqlx.DB.
type SQLXAdapter struct {
	db *sqlx.DB
}

// NewSQLXAdapter creates a new SQLX adapter.
func NewSQLXAdapter(db *sqlx.DB) *SQLXAdapter {
	return &SQLXAdapter{db: db}
}

// Acquire checks out a dedicated connection from the pool.
func (a *SQLXAdapter) Acquire(ctx context.Context) (DBConn, error) {
	conn, err := a.db.Connx(ctx)
	if err != nil {
		return nil, err
	}

	return &sqlxConn{conn: conn}, nil
}

type sqlxConn struct {
	conn *sqlx.Conn
	tx   *sqlx.Tx
}

func (c *sqlxConn) Query(ctx context.Context, query string, args ...any) (DBRows, error) {
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

func (c *sqlxConn) Exec(ctx context.Context, query string, args ...any) (int64, error) {
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

func (c *sqlxConn) Begin(ctx context.Context) error {
	if c.tx != nil {
		return ErrTransactionAlreadyOpen
	}

	tx, err := c.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	c.tx = tx
	return nil
}

func (c *sqlxConn) Commit(context.Context) error {
	if c.tx == nil {
		return ErrNoActiveTransaction
	}

	err := c.tx.Commit()
	c.tx = nil

	return err
}

func (c *sqlxConn) Rollback(context.Context) error {
	if c.tx == nil {
		return ErrNoActiveTransaction
	}

	err := c.tx.Rollback()
	c.tx = nil

	return err
}

func (c *sqlxConn) Release(context.Context) error {
	if c.tx != nil {
		_ = c.tx.Rollback()
		c.tx = nil
	}

	return c.conn.Close()
}
