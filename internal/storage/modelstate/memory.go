package modelstate

import (
	"context"
	"fmt"
	"sync"

	"github.com/quantlab/signalcore/internal/core"
)

// MemoryStore is an in-memory model state store. A FailNext hook lets tests
// simulate persistence failures for crash-safety checks.
type MemoryStore struct {
	mu      sync.Mutex
	state   []byte
	version int64

	// FailNext makes the next Save fail, without mutating stored state.
	FailNext bool
}

// NewMemoryStore creates an empty in-memory state store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Save persists the blob if the version advances.
func (m *MemoryStore) Save(ctx context.Context, state []byte, version int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailNext {
		m.FailNext = false
		return core.WrapError(core.ErrPersistence, fmt.Errorf("simulated save failure"))
	}
	if version <= m.version {
		return core.WrapError(core.ErrPersistence,
			fmt.Errorf("version %d not greater than stored %d", version, m.version))
	}

	m.state = append([]byte(nil), state...)
	m.version = version
	return nil
}

// Load returns the latest blob and version.
func (m *MemoryStore) Load(ctx context.Context) ([]byte, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == nil {
		return nil, 0, core.ErrNotFound
	}
	return append([]byte(nil), m.state...), m.version, nil
}

// Reset removes the stored state.
func (m *MemoryStore) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = nil
	m.version = 0
	return nil
}
