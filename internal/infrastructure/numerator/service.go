// Package numerator implements invoice numbering on a PostgreSQL counter table.
package numerator

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	corenumerator "shopledger/internal/core/numerator"
)

// Querier is the subset of pgx used by the counter.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// QuerierFunc resolves the querier for a call. Passing the transaction
// manager's GetQuerier makes allocation part of the caller's transaction,
// so a rolled back sale gives its number back.
type QuerierFunc func(ctx context.Context) Querier

// Service allocates numbers with a single atomic UPSERT per call.
type Service struct {
	querier QuerierFunc
}

var _ corenumerator.Generator = (*Service)(nil)

// New creates a Service bound to a fixed querier.
func New(q Querier) *Service {
	return &Service{querier: func(context.Context) Querier { return q }}
}

// NewWithQuerierFunc creates a Service that picks its querier per call.
func NewWithQuerierFunc(fn QuerierFunc) *Service {
	return &Service{querier: fn}
}

// GetNextNumber increments the series counter and formats the result.
// Concurrent callers are serialized by the row lock taken by ON CONFLICT DO UPDATE.
func (s *Service) GetNextNumber(ctx context.Context, cfg corenumerator.Config, period time.Time) (string, error) {
	if s == nil || s.querier == nil {
		return "", fmt.Errorf("numerator service is not initialized")
	}

	key := corenumerator.SequenceKey(cfg, period)

	var num int64
	err := s.querier(ctx).QueryRow(ctx, `
		INSERT INTO sys_sequences (key, current_val)
		VALUES ($1, 1)
		ON CONFLICT (key) DO UPDATE SET current_val = sys_sequences.current_val + 1
		RETURNING current_val
	`, key).Scan(&num)
	if err != nil {
		return "", fmt.Errorf("next number for %s: %w", key, err)
	}

	return corenumerator.Format(cfg, period, num), nil
}

// SetNextNumber moves the counter forward so the next allocation returns value.
// The counter never moves backward; doing so would reissue invoice numbers.
func (s *Service) SetNextNumber(ctx context.Context, cfg corenumerator.Config, period time.Time, value int64) error {
	if value < 1 {
		return fmt.Errorf("next number must be positive, got %d", value)
	}

	key := corenumerator.SequenceKey(cfg, period)

	var current int64
	err := s.querier(ctx).QueryRow(ctx, `
		INSERT INTO sys_sequences (key, current_val)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET current_val = GREATEST(sys_sequences.current_val, $2)
		RETURNING current_val
	`, key, value-1).Scan(&current)
	if err != nil {
		return fmt.Errorf("set next number for %s: %w", key, err)
	}
	return nil
}

// ParseNumber extracts the counter from a formatted number, or -1.
func ParseNumber(formatted string) int64 {
	idx := strings.LastIndex(formatted, "-")
	if idx < 0 || idx == len(formatted)-1 {
		return -1
	}
	n, err := strconv.ParseInt(formatted[idx+1:], 10, 64)
	if err != nil {
		return -1
	}
	return n
}
