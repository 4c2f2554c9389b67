package sqlite

import (
	"context"
	"database/sql"

	"github.com/joshjon/kit/tx"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DB is the interface required by the sqlite package for database access.
// It is satisfied by *sql.DB.
type DB interface {
	DBTX
	tx.SQLiteTxer
}
