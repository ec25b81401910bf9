package postgresengine

import (
	"github.com/deblockt/r2dbc-proxy/postgresengine/internal/adapters"
	"github.com/deblockt/r2dbc-proxy/rdbc"
)

// bindGroup collects the parameters of one execution of a statement. A
// group is either positional or named; mixing both is rejected at
// execution time.
type bindGroup struct {
	positional map[int]any
	named      map[string]any
}

func (g bindGroup) empty() bool {
	return len(g.positional) == 0 && len(g.named) == 0
}

// statement implements rdbc.Statement. Bind calls accumulate into the
// current group, Add seals it; Execute emits one Result per group and
// defers all driver calls to the consumption of each Result.
type statement struct {
	conn   adapters.DBConn
	logger Logger
	query  string

	groups  []bindGroup
	current bindGroup
}

func (s *statement) Bind(index int, value any) rdbc.Statement {
	if s.current.positional == nil {
		s.current.positional = make(map[int]any)
	}
	s.current.positional[index] = value

	return s
}

func (s *statement) BindName(name string, value any) rdbc.Statement {
	if s.current.named == nil {
		s.current.named = make(map[string]any)
	}
	s.current.named[name] = value

	return s
}

func (s *statement) Add() rdbc.Statement {
	s.groups = append(s.groups, s.current)
	s.current = bindGroup{}

	return s
}

func (s *statement) Execute() rdbc.Publisher[rdbc.Result] {
	groups := s.groups
	if !s.current.empty() || len(groups) == 0 {
		groups = append(groups[:len(groups):len(groups)], s.current)
	}

	results := make([]rdbc.Result, 0, len(groups))
	for _, group := range groups {
		results = append(results, newResult(s.conn, s.logger, s.query, group))
	}

	return rdbc.Just(results...)
}

// Ensure statement implements rdbc.Statement.
var _ rdbc.Statement = (*statement)(nil)

// batch implements rdbc.Batch; each added query becomes one Result with no
// parameters.
type batch struct {
	conn    adapters.DBConn
	logger  Logger
	queries []string
}

func (b *batch) Add(query string) rdbc.Batch {
	b.queries = append(b.queries, query)

	return b
}

func (b *batch) Execute() rdbc.Publisher[rdbc.Result] {
	if len(b.queries) == 0 {
		return rdbc.ErrorPublisher[rdbc.Result](ErrEmptyQuery)
	}

	results := make([]rdbc.Result, 0, len(b.queries))
	for _, query := range b.queries {
		results = append(results, newResult(b.conn, b.logger, query, bindGroup{}))
	}

	return rdbc.Just(results...)
}

// Ensure batch implements rdbc.Batch.
var _ rdbc.Batch = (*batch)(nil)
