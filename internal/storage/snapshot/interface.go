// Package snapshot persists one frozen feature record per article, keyed by
// article identity. Snapshots are written once at publish time and never
// mutated; the labeling job and prediction calls read them back.
package snapshot

import (
	"context"
	"time"

	"github.com/quantlab/signalcore/internal/core"
)

// Store defines the interface for feature snapshot persistence.
type Store interface {
	// Store persists a snapshot. Re-storing the same article with an
	// identical published_at is a no-op; a differing published_at is an
	// INTEGRITY error and the stored record is left untouched.
	Store(ctx context.Context, snap core.FeatureSnapshot) error

	// Get retrieves a snapshot by article ID.
	Get(ctx context.Context, articleID string) (*core.FeatureSnapshot, error)

	// ListUnlabeled returns snapshots published before olderThan that have
	// no label yet, ordered by article ID and starting strictly after
	// afterID. Paging by afterID makes the scan restartable.
	ListUnlabeled(ctx context.Context, olderThan time.Time, limit int, afterID string) ([]core.FeatureSnapshot, error)
}
