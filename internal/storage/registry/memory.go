package registry

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/quantlab/signalcore/internal/core"
)

// MemoryStore is an in-memory registry.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]core.ModelMetadata // keyed by ticker|mode|hash
}

// NewMemoryStore creates an in-memory registry.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]core.ModelMetadata)}
}

func key(ticker string, mode core.TrainingMode, hash string) string {
	return strings.ToUpper(ticker) + "|" + string(mode) + "|" + hash
}

// Add persists an entry, overwriting a previous run of the same configuration.
func (m *MemoryStore) Add(ctx context.Context, md core.ModelMetadata) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key(md.Ticker, md.Mode, md.ConfigHash)] = md
	return nil
}

// Get returns the newest entry for (ticker, mode).
func (m *MemoryStore) Get(ctx context.Context, ticker string, mode core.TrainingMode) (*core.ModelMetadata, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var (
		found bool
		best  core.ModelMetadata
	)
	for _, md := range m.entries {
		if !strings.EqualFold(md.Ticker, ticker) || md.Mode != mode {
			continue
		}
		if !found || md.TrainedAt.After(best.TrainedAt) {
			best = md
			found = true
		}
	}
	if !found {
		return nil, core.ErrNotFound
	}
	return &best, nil
}

// GetByHash returns the entry for an exact configuration.
func (m *MemoryStore) GetByHash(ctx context.Context, ticker string, mode core.TrainingMode, configHash string) (*core.ModelMetadata, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	md, ok := m.entries[key(ticker, mode, configHash)]
	if !ok {
		return nil, core.ErrNotFound
	}
	return &md, nil
}

// List returns all entries, newest first.
func (m *MemoryStore) List(ctx context.Context) ([]core.ModelMetadata, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]core.ModelMetadata, 0, len(m.entries))
	for _, md := range m.entries {
		out = append(out, md)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].TrainedAt.After(out[j].TrainedAt)
	})
	return out, nil
}
