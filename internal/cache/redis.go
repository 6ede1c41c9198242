package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/quantlab/signalcore/internal/core"
)

// Redis is a Cache backed by a Redis instance, for deployments where several
// processes serve predictions against the same registry.
type Redis struct {
	client *redis.Client
}

// NewRedis creates a Redis-backed cache.
func NewRedis(addr string, db int) *Redis {
	return &Redis{
		client: redis.NewClient(&redis.Options{
			Addr: addr,
			DB:   db,
		}),
	}
}

func (r *Redis) Get(ctx context.Context, key string) (*core.BatchPrediction, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, core.WrapError(core.ErrNotFound, fmt.Errorf("cache miss: %s", key))
		}
		return nil, core.WrapError(core.ErrPersistence, err)
	}

	var pred core.BatchPrediction
	if err := json.Unmarshal(data, &pred); err != nil {
		return nil, core.WrapError(core.ErrIntegrity, err)
	}
	return &pred, nil
}

func (r *Redis) Set(ctx context.Context, key string, pred core.BatchPrediction, ttl time.Duration) error {
	data, err := json.Marshal(pred)
	if err != nil {
		return core.WrapError(core.ErrPersistence, err)
	}
	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return core.WrapError(core.ErrPersistence, err)
	}
	return nil
}

func (r *Redis) Invalidate(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return core.WrapError(core.ErrPersistence, err)
	}
	return nil
}

// Close releases the underlying client.
func (r *Redis) Close() error {
	return r.client.Close()
}
