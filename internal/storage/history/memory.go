package history

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/quantlab/signalcore/internal/core"
)

// MemoryStore is an in-memory history store.
type MemoryStore struct {
	mu   sync.RWMutex
	bars map[string]map[time.Time]core.DailyBar // symbol -> date -> bar
}

// NewMemoryStore creates an empty in-memory history store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{bars: make(map[string]map[time.Time]core.DailyBar)}
}

// Upsert inserts or refreshes bars.
func (m *MemoryStore) Upsert(ctx context.Context, bars []core.DailyBar) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, bar := range bars {
		day := bar.Date.UTC().Truncate(24 * time.Hour)
		if m.bars[bar.Symbol] == nil {
			m.bars[bar.Symbol] = make(map[time.Time]core.DailyBar)
		}
		bar.Date = day
		m.bars[bar.Symbol][day] = bar
	}
	return nil
}

// Load returns bars within [from, to], ascending.
func (m *MemoryStore) Load(ctx context.Context, symbol string, from, to time.Time) ([]core.DailyBar, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []core.DailyBar
	for _, bar := range m.bars[symbol] {
		if bar.Date.Before(from) || bar.Date.After(to) {
			continue
		}
		out = append(out, bar)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// Count returns the number of rows for the symbol.
func (m *MemoryStore) Count(ctx context.Context, symbol string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.bars[symbol]), nil
}

// DeleteAll removes every row for the symbol.
func (m *MemoryStore) DeleteAll(ctx context.Context, symbol string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := int64(len(m.bars[symbol]))
	delete(m.bars, symbol)
	return n, nil
}

// DeleteBefore removes rows strictly older than cutoff.
func (m *MemoryStore) DeleteBefore(ctx context.Context, symbol string, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for day := range m.bars[symbol] {
		if day.Before(cutoff) {
			delete(m.bars[symbol], day)
			n++
		}
	}
	return n, nil
}

// Reclaim is a no-op for the in-memory store.
func (m *MemoryStore) Reclaim(ctx context.Context) error {
	return nil
}
