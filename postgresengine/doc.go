// Package postgresengine implements the rdbc SPI on PostgreSQL.
//
// A ConnectionFactory is created from one of three database handles, all
// presenting identical behavior through an internal adapter layer:
//
//	factory, err := postgresengine.NewConnectionFactoryFromPGXPool(pool)
//	factory, err := postgresengine.NewConnectionFactoryFromSQLDB(db)
//	factory, err := postgresengine.NewConnectionFactoryFromSQLX(db)
//
// Statements support positional binds referencing $1..$n placeholders and
// named binds referencing :name placeholders; named queries are expanded
// through sqlx. Execute emits one Result per bind group, and the driver
// call runs only when a Result's row or update-count stream is consumed.
//
// The package is a complete standalone SPI backend; wrap the factory with
// the proxy package to observe its executions.
package postgresengine
