package label

import (
	"context"
	"fmt"
	"sync"

	"github.com/quantlab/signalcore/internal/core"
)

// MemoryStore is an in-memory label store.
type MemoryStore struct {
	mu     sync.RWMutex
	labels map[string]core.Label
}

// NewMemoryStore creates an in-memory label store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{labels: make(map[string]core.Label)}
}

// Create persists a label exactly once per article.
func (m *MemoryStore) Create(ctx context.Context, label core.Label) error {
	if label.ArticleID == "" {
		return core.WrapError(core.ErrValidation, fmt.Errorf("empty article id"))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.labels[label.ArticleID]; ok {
		return core.WrapError(core.ErrIntegrity,
			fmt.Errorf("article %s already labeled", label.ArticleID))
	}
	m.labels[label.ArticleID] = label
	return nil
}

// Exists reports whether an article has a label.
func (m *MemoryStore) Exists(ctx context.Context, articleID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.labels[articleID]
	return ok, nil
}

// Get retrieves a label by article ID.
func (m *MemoryStore) Get(ctx context.Context, articleID string) (*core.Label, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	label, ok := m.labels[articleID]
	if !ok {
		return nil, core.ErrNotFound
	}
	return &label, nil
}

// Count returns the number of labels.
func (m *MemoryStore) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.labels), nil
}
