// Command querylog demonstrates instrumenting a PostgreSQL connection
// factory: every method call and query execution is logged, traced, and
// measured while the calling code only talks to the plain SPI.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect import
	"go.opentelemetry.io/otel"

	"github.com/deblockt/r2dbc-proxy/example/config"
	"github.com/deblockt/r2dbc-proxy/oteladapters"
	"github.com/deblockt/r2dbc-proxy/postgresengine"
	"github.com/deblockt/r2dbc-proxy/proxy"
	"github.com/deblockt/r2dbc-proxy/rdbc"
	"github.com/deblockt/r2dbc-proxy/support"
)

const dialectPostgres = "postgres"

func main() {
	ctx := context.Background()

	pool := config.PostgresPGXPool(ctx)
	defer pool.Close()

	logger := oteladapters.NewSlogBridgeLoggerWithHandler(
		slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)

	engine, err := postgresengine.NewConnectionFactoryFromPGXPool(pool, postgresengine.WithLogger(logger))
	if err != nil {
		log.Fatal("Failed to create connection factory, error: ", err)
	}

	loggingListener, err := support.NewLoggingListener(logger, support.WithMethodLogging())
	if err != nil {
		log.Fatal("Failed to create logging listener, error: ", err)
	}

	factory, err := proxy.Wrap(engine,
		proxy.WithListeners(
			loggingListener,
			oteladapters.NewTracingListener(otel.Tracer("querylog")),
			oteladapters.NewMetricsListener(otel.Meter("querylog")),
		),
	)
	if err != nil {
		log.Fatal("Failed to wrap connection factory, error: ", err)
	}

	if err := printBorrowedBooks(ctx, factory); err != nil {
		log.Fatal("Query failed, error: ", err)
	}
}

func printBorrowedBooks(ctx context.Context, factory rdbc.ConnectionFactory) error {
	query, args, err := goqu.Dialect(dialectPostgres).
		From("books").
		Select("id", "title").
		Where(goqu.C("borrowed").Eq(true)).
		Order(goqu.I("id").Asc()).
		Limit(10).
		Prepared(true).
		ToSQL()
	if err != nil {
		return err
	}

	conn, err := factory.Create(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close(ctx) }()

	stmt, err := conn.CreateStatement(query)
	if err != nil {
		return err
	}

	for i, arg := range args {
		stmt = stmt.Bind(i, arg)
	}

	return rdbc.Each(ctx, stmt.Execute(), func(result rdbc.Result) error {
		lines := result.Map(func(row rdbc.Row) (any, error) {
			id, err := row.GetByName("id")
			if err != nil {
				return nil, err
			}

			title, err := row.GetByName("title")
			if err != nil {
				return nil, err
			}

			return fmt.Sprintf("%v: %v", id, title), nil
		})

		return rdbc.Each(ctx, lines, func(line any) error {
			fmt.Println(line)
			return nil
		})
	})
}
