// Package rdbc defines the reactive database-access SPI that the proxy
// instruments.
//
// The surface is deliberately narrow: a ConnectionFactory produces
// Connections, Connections produce Statements and Batches, and executing
// those yields Results whose rows are consumed as element streams.
//
// Two call shapes exist side by side:
//   - plain calls returning (value, error), which execute when invoked
//   - stream-shaped calls returning a Publisher, which execute only when
//     the returned stream is subscribed to
//
// The stream contract (Publisher, Subscriber, Subscription) delivers zero
// or more elements followed by exactly one terminal signal (complete or
// error), with demand controlled by the consumer via Subscription.Request
// and early termination via Subscription.Cancel.
//
// Common usage pattern:
//
//	conn, _ := factory.Create(ctx)
//	stmt, _ := conn.CreateStatement("SELECT name FROM books WHERE id = $1")
//	results, _ := rdbc.Collect(ctx, stmt.Bind(0, bookID).Execute())
//	for _, result := range results {
//		names, _ := rdbc.Collect(ctx, result.Map(func(row rdbc.Row) (any, error) {
//			return row.Get(0)
//		}))
//		// ...
//	}
package rdbc
