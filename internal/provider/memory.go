package provider

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/quantlab/signalcore/internal/core"
)

// Memory is an in-memory price provider seeded with fixed bars. Used in
// tests and offline runs.
type Memory struct {
	mu   sync.RWMutex
	bars map[string][]core.DailyBar // keyed by symbol, kept sorted by date
}

// NewMemory creates an empty in-memory provider.
func NewMemory() *Memory {
	return &Memory{bars: make(map[string][]core.DailyBar)}
}

// Seed adds bars for a symbol, keeping the series date-ordered.
func (m *Memory) Seed(symbol string, bars ...core.DailyBar) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.bars[symbol] = append(m.bars[symbol], bars...)
	sort.Slice(m.bars[symbol], func(i, j int) bool {
		return m.bars[symbol][i].Date.Before(m.bars[symbol][j].Date)
	})
}

// GetClose returns the close on the given date.
func (m *Memory) GetClose(ctx context.Context, symbol string, date time.Time) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, bar := range m.bars[symbol] {
		if sameDay(bar.Date, date) {
			return bar.Close, nil
		}
	}
	return 0, core.WrapError(core.ErrDataUnavailable,
		fmt.Errorf("no close for %s on %s", symbol, date.Format("2006-01-02")))
}

// GetOHLCV returns bars within [start, end], ascending.
func (m *Memory) GetOHLCV(ctx context.Context, symbol string, start, end time.Time) ([]core.DailyBar, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	series, ok := m.bars[symbol]
	if !ok {
		return nil, core.WrapError(core.ErrDataUnavailable,
			fmt.Errorf("no data for symbol: %s", symbol))
	}

	var out []core.DailyBar
	for _, bar := range series {
		if bar.Date.Before(start) || bar.Date.After(end) {
			continue
		}
		out = append(out, bar)
	}
	return out, nil
}
