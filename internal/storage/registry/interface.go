// Package registry stores metadata for versioned batch-trained models:
// configuration hash, trained-on range, evaluation metrics, artifact location
// and runtime fingerprint. Multiple entries may exist per ticker; activation
// for serving is outside this core.
package registry

import (
	"context"

	"github.com/quantlab/signalcore/internal/core"
)

// Store defines the interface for model registry persistence.
type Store interface {
	// Add persists a registry entry keyed by (ticker, mode, config hash).
	Add(ctx context.Context, md core.ModelMetadata) error

	// Get returns the most recently trained entry for (ticker, mode).
	Get(ctx context.Context, ticker string, mode core.TrainingMode) (*core.ModelMetadata, error)

	// GetByHash returns the entry for an exact configuration, enabling
	// no-op retraining detection.
	GetByHash(ctx context.Context, ticker string, mode core.TrainingMode, configHash string) (*core.ModelMetadata, error)

	// List returns all registry entries, newest first.
	List(ctx context.Context) ([]core.ModelMetadata, error)
}
