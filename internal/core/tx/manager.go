// Package tx decouples domain services from the database transaction implementation.
package tx

import (
	"context"
)

// Manager runs a function inside a transaction.
//
// The transaction travels in ctx; repositories called with that ctx join it.
// If fn returns an error the transaction is rolled back, otherwise committed.
// Nested calls reuse the outer transaction.
type Manager interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Passthrough runs fn directly. It is used by in-memory stores and tests.
type Passthrough struct{}

func (Passthrough) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
