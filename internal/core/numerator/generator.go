package numerator

import (
	"context"
	"time"
)

// Generator hands out strictly increasing numbers.
//
// Implementations must be safe under concurrent callers: two calls never
// return the same number for the same series. When called inside a
// transaction the allocation commits or rolls back with it.
type Generator interface {
	GetNextNumber(ctx context.Context, cfg Config, period time.Time) (string, error)

	// SetNextNumber moves the counter so that the next number is value.
	SetNextNumber(ctx context.Context, cfg Config, period time.Time, value int64) error
}
