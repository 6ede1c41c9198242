package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/quantlab/signalcore/internal/core"
)

type entry struct {
	pred      core.BatchPrediction
	expiresAt time.Time
}

// Memory is an in-process Cache with lazy expiry.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry

	// now is swappable for tests.
	now func() time.Time
}

// NewMemory creates an in-memory cache.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

func (m *Memory) Get(ctx context.Context, key string) (*core.BatchPrediction, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok || m.now().After(e.expiresAt) {
		if ok {
			m.mu.Lock()
			delete(m.entries, key)
			m.mu.Unlock()
		}
		return nil, core.WrapError(core.ErrNotFound, fmt.Errorf("cache miss: %s", key))
	}
	pred := e.pred
	return &pred, nil
}

func (m *Memory) Set(ctx context.Context, key string, pred core.BatchPrediction, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = entry{pred: pred, expiresAt: m.now().Add(ttl)}
	return nil
}

func (m *Memory) Invalidate(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}
