package numerator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	corenumerator "shopledger/internal/core/numerator"
)

type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = m.val
		}
	}
	return nil
}

// mockQuerier simulates the sys_sequences row for a single key.
type mockQuerier struct {
	mu      sync.Mutex
	current int64
	lastSQL string
	err     error
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastSQL = sql
	if m.err != nil {
		return &mockRow{err: m.err}
	}
	if strings.Contains(sql, "GREATEST") {
		if v, ok := args[1].(int64); ok && v > m.current {
			m.current = v
		}
		return &mockRow{val: m.current}
	}
	m.current++
	return &mockRow{val: m.current}
}

func TestGetNextNumber_Sequential(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := corenumerator.InvoiceConfig("INV", 4)

	for i, want := range []string{"INV-0001", "INV-0002", "INV-0003", "INV-0004", "INV-0005"} {
		num, err := svc.GetNextNumber(ctx, cfg, time.Now())
		if err != nil {
			t.Fatalf("call %d: unexpected error: %v", i, err)
		}
		if num != want {
			t.Errorf("call %d: expected %s, got %s", i, want, num)
		}
	}
	if !strings.Contains(q.lastSQL, "ON CONFLICT (key) DO UPDATE") {
		t.Errorf("expected atomic upsert, got %s", q.lastSQL)
	}
}

func TestGetNextNumber_Concurrent(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	cfg := corenumerator.InvoiceConfig("INV", 4)

	var wg sync.WaitGroup
	results := make(chan string, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			num, err := svc.GetNextNumber(context.Background(), cfg, time.Now())
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			results <- num
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[string]bool)
	for num := range results {
		if seen[num] {
			t.Errorf("duplicate number %s", num)
		}
		seen[num] = true
	}
	if len(seen) != 100 {
		t.Errorf("expected 100 numbers, got %d", len(seen))
	}
}

func TestGetNextNumber_Error(t *testing.T) {
	svc := New(&mockQuerier{err: errors.New("connection reset")})
	_, err := svc.GetNextNumber(context.Background(), corenumerator.InvoiceConfig("INV", 4), time.Now())
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestSetNextNumber_ForwardOnly(t *testing.T) {
	q := &mockQuerier{current: 10}
	svc := New(q)
	ctx := context.Background()
	cfg := corenumerator.InvoiceConfig("INV", 4)

	if err := svc.SetNextNumber(ctx, cfg, time.Now(), 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	num, _ := svc.GetNextNumber(ctx, cfg, time.Now())
	if num != "INV-0011" {
		t.Errorf("counter moved backward: got %s", num)
	}

	if err := svc.SetNextNumber(ctx, cfg, time.Now(), 50); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	num, _ = svc.GetNextNumber(ctx, cfg, time.Now())
	if num != "INV-0050" {
		t.Errorf("expected INV-0050, got %s", num)
	}

	if err := svc.SetNextNumber(ctx, cfg, time.Now(), 0); err == nil {
		t.Error("expected error for non-positive value")
	}
}

func TestParseNumber(t *testing.T) {
	tests := map[string]int64{
		"INV-0007":      7,
		"INV-2026-0042": 42,
		"INV-":          -1,
		"garbage":       -1,
	}
	for in, want := range tests {
		if got := ParseNumber(in); got != want {
			t.Errorf("ParseNumber(%q) = %d, want %d", in, got, want)
		}
	}
}
