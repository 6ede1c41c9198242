// Package cache holds short-lived batch prediction results so repeated
// serving calls skip artifact loading and feature recomputation.
package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/quantlab/signalcore/internal/config"
	"github.com/quantlab/signalcore/internal/core"
)

// Cache stores batch predictions with a TTL.
type Cache interface {
	// Get returns a cached prediction, or NOT_FOUND on miss or expiry.
	Get(ctx context.Context, key string) (*core.BatchPrediction, error)

	// Set stores a prediction for ttl.
	Set(ctx context.Context, key string, pred core.BatchPrediction, ttl time.Duration) error

	// Invalidate drops a key. Missing keys are not an error.
	Invalidate(ctx context.Context, key string) error
}

// Key builds the cache key for a (ticker, mode) prediction.
func Key(ticker string, mode core.TrainingMode) string {
	return fmt.Sprintf("prediction:%s:%s", strings.ToUpper(ticker), mode)
}

// FromConfig builds the configured cache backend.
func FromConfig(cfg config.CacheConfig) (Cache, error) {
	switch cfg.Type {
	case "memory":
		return NewMemory(), nil
	case "redis":
		return NewRedis(cfg.Addr, cfg.DB), nil
	default:
		return nil, core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown cache type: %q", cfg.Type))
	}
}
