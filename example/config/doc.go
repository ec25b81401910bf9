// Package config provides database configuration helpers for the example:
// factory functions for opening the demo database with the three supported
// drivers (pgxpool.Pool, sql.DB, sqlx.DB) against a pre-configured DSN.
package config
