package postgresengine

import (
	"context"

	"github.com/deblockt/r2dbc-proxy/postgresengine/internal/adapters"
	"github.com/deblockt/r2dbc-proxy/rdbc"
)

const (
	logMsgConnectionAcquired = "connection acquired"
	logMsgConnectionReleased = "connection released"
	logMsgTransaction        = "transaction "
	logMsgSQLQueried         = "sql query executed"
	logMsgSQLExecuted        = "sql command executed"

	logAttrQuery        = "query"
	logAttrRowsAffected = "rowsAffected"
)

// connection implements rdbc.Connection on one dedicated adapter
// connection.
type connection struct {
	conn   adapters.DBConn
	logger Logger
}

func (c *connection) CreateStatement(query string) (rdbc.Statement, error) {
	if query == "" {
		return nil, ErrEmptyQuery
	}

	return &statement{conn: c.conn, logger: c.logger, query: query}, nil
}

func (c *connection) CreateBatch() rdbc.Batch {
	return &batch{conn: c.conn, logger: c.logger}
}

func (c *connection) BeginTransaction(ctx context.Context) error {
	if err := c.conn.Begin(ctx); err != nil {
		return err
	}

	c.logger.Debug(logMsgTransaction + "begun")
	return nil
}

func (c *connection) CommitTransaction(ctx context.Context) error {
	if err := c.conn.Commit(ctx); err != nil {
		return err
	}

	c.logger.Debug(logMsgTransaction + "committed")
	return nil
}

func (c *connection) RollbackTransaction(ctx context.Context) error {
	if err := c.conn.Rollback(ctx); err != nil {
		return err
	}

	c.logger.Debug(logMsgTransaction + "rolled back")
	return nil
}

func (c *connection) Close(ctx context.Context) error {
	if err := c.conn.Release(ctx); err != nil {
		return err
	}

	c.logger.Debug(logMsgConnectionReleased)
	return nil
}

// Ensure connection implements rdbc.Connection.
var _ rdbc.Connection = (*connection)(nil)
