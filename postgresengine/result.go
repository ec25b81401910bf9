package postgresengine

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/deblockt/r2dbc-proxy/postgresengine/internal/adapters"
	"github.com/deblockt/r2dbc-proxy/rdbc"
)

// result implements rdbc.Result for one bind group of one query. The
// driver call runs when one of its streams is subscribed to, not before.
type result struct {
	conn   adapters.DBConn
	logger Logger

	query string
	args  []any
	err   error // bind resolution failure, surfaced on consumption
}

// newResult resolves the bind group against the query text eagerly; a
// resolution failure is carried inside the result and surfaces when it is
// consumed, keeping Execute itself signal-free.
func newResult(conn adapters.DBConn, logger Logger, query string, group bindGroup) *result {
	resolved, args, err := resolveBindings(query, group)

	return &result{
		conn:   conn,
		logger: logger,
		query:  resolved,
		args:   args,
		err:    err,
	}
}

// resolveBindings produces the final query text and argument list for one
// bind group. Named groups are expanded via sqlx into $n placeholders;
// positional groups must cover indexes 0..n-1.
func resolveBindings(query string, group bindGroup) (string, []any, error) {
	switch {
	case len(group.positional) > 0 && len(group.named) > 0:
		return "", nil, ErrMixedBindings

	case len(group.named) > 0:
		expanded, args, err := sqlx.Named(query, group.named)
		if err != nil {
			return "", nil, err
		}
		return sqlx.Rebind(sqlx.DOLLAR, expanded), args, nil

	case len(group.positional) > 0:
		args := make([]any, len(group.positional))
		for index, value := range group.positional {
			if index < 0 || index >= len(args) {
				return "", nil, fmt.Errorf("%w: index %d of %d bound values", ErrNonContiguousBindings, index, len(args))
			}
			args[index] = value
		}
		return query, args, nil

	default:
		return query, nil, nil
	}
}

// RowsUpdated runs the query as a command and emits the affected row
// count.
func (r *result) RowsUpdated() rdbc.Publisher[int64] {
	return rdbc.Deferred(func(ctx context.Context) (rdbc.Publisher[int64], error) {
		if r.err != nil {
			return nil, r.err
		}

		affected, err := r.conn.Exec(ctx, r.query, r.args...)
		if err != nil {
			return nil, err
		}

		r.logger.Debug(logMsgSQLExecuted, logAttrQuery, r.query, logAttrRowsAffected, affected)

		return rdbc.Just(affected), nil
	})
}

// Map runs the query and emits fn's mapping of every row.
func (r *result) Map(fn func(rdbc.Row) (any, error)) rdbc.Publisher[any] {
	return rdbc.Deferred(func(ctx context.Context) (rdbc.Publisher[any], error) {
		if r.err != nil {
			return nil, r.err
		}

		rows, err := r.conn.Query(ctx, r.query, r.args...)
		if err != nil {
			return nil, err
		}

		r.logger.Debug(logMsgSQLQueried, logAttrQuery, r.query)

		columns, err := rows.Columns()
		if err != nil {
			_ = rows.Close()
			return nil, err
		}

		names := make(map[string]int, len(columns))
		for i, column := range columns {
			names[column] = i
		}

		return rdbc.FromFunc(func() (any, bool, error) {
			if !rows.Next() {
				return nil, false, rows.Err()
			}

			values, err := rows.Values()
			if err != nil {
				return nil, false, err
			}

			mapped, err := fn(&row{values: values, names: names})
			if err != nil {
				return nil, false, err
			}

			return mapped, true, nil
		}, func() {
			_ = rows.Close()
		}), nil
	})
}

// Ensure result implements rdbc.Result.
var _ rdbc.Result = (*result)(nil)

// row implements rdbc.Row over the scanned values of the current row. It
// is only valid inside the Map callback it is passed to.
type row struct {
	values []any
	names  map[string]int
}

func (r *row) Get(index int) (any, error) {
	if index < 0 || index >= len(r.values) {
		return nil, fmt.Errorf("column index %d out of range (%d columns)", index, len(r.values))
	}

	return r.values[index], nil
}

func (r *row) GetByName(name string) (any, error) {
	index, ok := r.names[name]
	if !ok {
		return nil, fmt.Errorf("unknown column %q", name)
	}

	return r.values[index], nil
}

// Ensure row implements rdbc.Row.
var _ rdbc.Row = (*row)(nil)
