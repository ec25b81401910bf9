package adapters

import "errors"

var (
	// ErrNoActiveTransaction is returned by Commit or Rollback when no
	// transaction is open on the connection.
	ErrNoActiveTransaction = errors.New("no active transaction on this connection")

	// ErrTransactionAlreadyOpen is returned by Begin when the connection
	// already has an open transaction.
	ErrTransactionAlreadyOpen = errors.New("transaction already open on this connection")
)
