package xrel

import (
	"context"
	"database/sql"
)

// Querier is implemented by *sql.DB, *sql.Tx, *sql.Conn, and any wrapper
// that can execute a query returning rows.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Preparer is implemented by *sql.DB, *sql.Tx, *sql.Conn, and any wrapper
// that can prepare a statement for repeated execution.
type Preparer interface {
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}
