package snapshot

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/quantlab/signalcore/internal/core"
)

// LabelChecker reports whether an article already has a label. The label
// store satisfies this.
type LabelChecker interface {
	Exists(ctx context.Context, articleID string) (bool, error)
}

// MemoryStore is an in-memory snapshot store.
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string]core.FeatureSnapshot
	labels    LabelChecker
}

// NewMemoryStore creates an in-memory store. The label checker is consulted
// by ListUnlabeled; nil means no article is considered labeled.
func NewMemoryStore(labels LabelChecker) *MemoryStore {
	return &MemoryStore{
		snapshots: make(map[string]core.FeatureSnapshot),
		labels:    labels,
	}
}

// Store persists a snapshot, enforcing the frozen-at-publish-time invariant.
func (m *MemoryStore) Store(ctx context.Context, snap core.FeatureSnapshot) error {
	if snap.ArticleID == "" {
		return core.WrapError(core.ErrValidation, fmt.Errorf("empty article id"))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.snapshots[snap.ArticleID]; ok {
		if !existing.PublishedAt.Equal(snap.PublishedAt) {
			return core.WrapError(core.ErrIntegrity,
				fmt.Errorf("article %s already snapshotted at %s", snap.ArticleID,
					existing.PublishedAt.Format(time.RFC3339)))
		}
		return nil // Idempotent re-store
	}

	snap.Features = snap.Features.Clone()
	m.snapshots[snap.ArticleID] = snap
	return nil
}

// Get retrieves a snapshot by article ID.
func (m *MemoryStore) Get(ctx context.Context, articleID string) (*core.FeatureSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap, ok := m.snapshots[articleID]
	if !ok {
		return nil, core.ErrNotFound
	}
	snap.Features = snap.Features.Clone()
	return &snap, nil
}

// ListUnlabeled returns unlabeled snapshots older than the given time.
func (m *MemoryStore) ListUnlabeled(ctx context.Context, olderThan time.Time, limit int, afterID string) ([]core.FeatureSnapshot, error) {
	m.mu.RLock()
	candidates := make([]core.FeatureSnapshot, 0, len(m.snapshots))
	for _, snap := range m.snapshots {
		if snap.PublishedAt.Before(olderThan) && snap.ArticleID > afterID {
			candidates = append(candidates, snap)
		}
	}
	m.mu.RUnlock()

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].ArticleID < candidates[j].ArticleID
	})

	var out []core.FeatureSnapshot
	for _, snap := range candidates {
		if m.labels != nil {
			labeled, err := m.labels.Exists(ctx, snap.ArticleID)
			if err != nil {
				return nil, err
			}
			if labeled {
				continue
			}
		}
		snap.Features = snap.Features.Clone()
		out = append(out, snap)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}
