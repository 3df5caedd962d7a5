package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"pricing-service/internal/core/domain"
)

// OptimizationCacheAdapter stores optimization results in Redis as JSON with a
// per-entry TTL. Keys carry the snapshot version, so new accepted uploads make
// old entries unreachable and the TTL cleans them up.
type OptimizationCacheAdapter struct {
	client *redis.Client
}

// NewOptimizationCacheAdapter connects to Redis and verifies the connection.
func NewOptimizationCacheAdapter(ctx context.Context, addr, password string, db int) (*OptimizationCacheAdapter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}

	return &OptimizationCacheAdapter{client: client}, nil
}

// NewOptimizationCacheAdapterWithClient wraps an existing client. Used by
// tests.
func NewOptimizationCacheAdapterWithClient(client *redis.Client) *OptimizationCacheAdapter {
	return &OptimizationCacheAdapter{client: client}
}

// Get returns the cached result for a key, or (nil, nil) on a miss.
func (a *OptimizationCacheAdapter) Get(ctx context.Context, key domain.OptimizationCacheKey) (*domain.OptimizationResult, error) {
	data, err := a.client.Get(ctx, key.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached optimization result: %w", err)
	}

	var result domain.OptimizationResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached optimization result: %w", err)
	}
	return &result, nil
}

// Set stores a result under its key for the given TTL.
func (a *OptimizationCacheAdapter) Set(ctx context.Context, key domain.OptimizationCacheKey, result domain.OptimizationResult, ttl time.Duration) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal optimization result: %w", err)
	}

	if err := a.client.Set(ctx, key.String(), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache optimization result: %w", err)
	}
	return nil
}

// Close releases the Redis client.
func (a *OptimizationCacheAdapter) Close() error {
	return a.client.Close()
}
