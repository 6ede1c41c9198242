// Package label stores realized article outcomes. A label is written exactly
// once per article; existence checks back the labeling job's idempotency.
package label

import (
	"context"

	"github.com/quantlab/signalcore/internal/core"
)

// Store defines the interface for label persistence.
type Store interface {
	// Create persists a label. A second create for the same article is an
	// INTEGRITY error; labels are immutable once written.
	Create(ctx context.Context, label core.Label) error

	// Exists reports whether an article already has a label.
	Exists(ctx context.Context, articleID string) (bool, error)

	// Get retrieves a label by article ID.
	Get(ctx context.Context, articleID string) (*core.Label, error)

	// Count returns the total number of labels.
	Count(ctx context.Context) (int, error)
}
