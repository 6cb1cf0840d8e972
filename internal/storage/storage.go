// Package storage holds the connection plumbing shared by the counter,
// completion, tier and client stores, and the classification of storage
// failures.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrUnavailable marks a failure to reach or write the backing store.
// Callers match it with errors.Is to tell infrastructure failures apart
// from policy outcomes.
var ErrUnavailable = errors.New("storage unavailable")

// Error wraps a driver error with the store operation that failed.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

// Unwrap exposes both ErrUnavailable and the driver error.
func (e *Error) Unwrap() []error {
	return []error{ErrUnavailable, e.Err}
}

// Unavailable wraps err as a storage failure of op. A nil err stays nil.
func Unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// DBTX is the subset of *pgxpool.Pool used by the PostgreSQL stores.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
