package numerator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	period := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		cfg   Config
		value int64
		want  string
	}{
		{"invoice", InvoiceConfig("", 0), 7, "INV-0007"},
		{"wider than pad", InvoiceConfig("INV", 4), 12345, "INV-12345"},
		{"with year", Config{Prefix: "EXP", IncludeYear: true, PadWidth: 3}, 5, "EXP-2026-005"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.cfg, period, tt.value))
		})
	}
}

func TestSequenceKey(t *testing.T) {
	period := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "INV", SequenceKey(InvoiceConfig("INV", 4), period))
	assert.Equal(t, "INV_2026", SequenceKey(Config{Prefix: "INV", ResetPeriod: ResetYear}, period))
	assert.Equal(t, "INV_2026_03", SequenceKey(Config{Prefix: "INV", ResetPeriod: ResetMonth}, period))
}

func TestMemoryGenerator_Sequential(t *testing.T) {
	g := NewMemoryGenerator()
	cfg := InvoiceConfig("INV", 4)
	ctx := context.Background()

	for _, want := range []string{"INV-0001", "INV-0002", "INV-0003"} {
		got, err := g.GetNextNumber(ctx, cfg, time.Now())
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	require.NoError(t, g.SetNextNumber(ctx, cfg, time.Now(), 100))
	got, err := g.GetNextNumber(ctx, cfg, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "INV-0100", got)
}

func TestMemoryGenerator_ConcurrentUnique(t *testing.T) {
	g := NewMemoryGenerator()
	cfg := InvoiceConfig("INV", 4)

	var (
		mu   sync.Mutex
		seen = make(map[string]bool)
		wg   sync.WaitGroup
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := g.GetNextNumber(context.Background(), cfg, time.Now())
			assert.NoError(t, err)
			mu.Lock()
			seen[n] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 50)
}
