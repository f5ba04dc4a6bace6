package numerator

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryGenerator keeps counters in process memory.
// It backs tests and the database-less development mode.
type MemoryGenerator struct {
	mu       sync.Mutex
	counters map[string]int64
}

func NewMemoryGenerator() *MemoryGenerator {
	return &MemoryGenerator{counters: make(map[string]int64)}
}

func (g *MemoryGenerator) GetNextNumber(_ context.Context, cfg Config, period time.Time) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	key := SequenceKey(cfg, period)
	g.counters[key]++
	return Format(cfg, period, g.counters[key]), nil
}

func (g *MemoryGenerator) SetNextNumber(_ context.Context, cfg Config, period time.Time, value int64) error {
	if value < 1 {
		return fmt.Errorf("next number must be positive, got %d", value)
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	g.counters[SequenceKey(cfg, period)] = value - 1
	return nil
}

// Snapshot copies the counters so a failed transaction can put them back.
func (g *MemoryGenerator) Snapshot() map[string]int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make(map[string]int64, len(g.counters))
	for k, v := range g.counters {
		out[k] = v
	}
	return out
}

// Restore replaces the counters with a Snapshot result.
func (g *MemoryGenerator) Restore(counters map[string]int64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.counters = counters
}

var _ Generator = (*MemoryGenerator)(nil)
