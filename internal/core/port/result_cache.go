package port

import (
	"context"
	"time"

	"pricing-service/internal/core/domain"
)

// OptimizationCachePort caches computed recommendations keyed by unit,
// strategy and data snapshot. A cache miss is (nil, nil).
type OptimizationCachePort interface {
	Get(ctx context.Context, key domain.OptimizationCacheKey) (*domain.OptimizationResult, error)

	Set(ctx context.Context, key domain.OptimizationCacheKey, result domain.OptimizationResult, ttl time.Duration) error
}
