// Package tx defines the transaction boundary used by domain services.
// The Postgres implementation lives in infrastructure/storage/postgres.
package tx

import (
	"context"
)

// Manager runs a unit of work atomically.
//
// Nested calls reuse the transaction already carried by ctx, so a document
// submission and the stock movements it produces commit or roll back together.
type Manager interface {
	// RunInTransaction executes fn within a database transaction.
	// The transaction is rolled back if fn returns an error or panics.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager adds read-only transactions for consistent multi-query reads
// (document header plus its lines).
type ReadOnlyManager interface {
	Manager

	// ReadOnly executes fn in a read-only transaction.
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}

// Func adapts an ordinary function to Manager. Useful for in-memory stores and tests.
type Func func(ctx context.Context, fn func(ctx context.Context) error) error

// RunInTransaction implements Manager.
func (f Func) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return f(ctx, fn)
}

// Immediate runs fn directly without a transaction.
var Immediate Manager = Func(func(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
})
