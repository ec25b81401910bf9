package adapters

import "database/sql"

// stdRows wraps standard library sql.Rows to implement the DBRows
// interface. Values scans the current row into generic destinations, so
// callers never deal with Scan targets themselves.
type stdRows struct {
	rows *sql.Rows
}

func (r *stdRows) Next() bool {
	return r.rows.Next()
}

func (r *stdRows) Columns() ([]string, error) {
	return r.rows.Columns()
}

func (r *stdRows) Values() ([]any, error) {
	columns, err := r.rows.Columns()
	if err != nil {
		return nil, err
	}

	values := make([]any, len(columns))
	targets := make([]any, len(columns))
	for i := range values {
		targets[i] = &values[i]
	}

	if err := r.rows.Scan(targets...); err != nil {
		return nil, err
	}

	// database/sql hands text columns back as []byte; normalize to string
	for i, value := range values {
		if raw, ok := value.([]byte); ok {
			values[i] = string(raw)
		}
	}

	return values, nil
}

func (r *stdRows) Err() error {
	return r.rows.Err()
}

func (r *stdRows) Close() error {
	return r.rows.Close()
}
