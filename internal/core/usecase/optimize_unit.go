package usecase

import (
	"context"
	"fmt"
	"time"

	"pricing-service/internal/contextkeys"
	"pricing-service/internal/core/domain"
	"pricing-service/internal/core/port"
	"pricing-service/internal/core/pricing"
)

// OptimizeUnitUseCase prices one unit under a requested strategy. Results are
// cached per data snapshot; the cache is best-effort and never fails a
// request.
type OptimizeUnitUseCase struct {
	storage   port.UnitStoragePort
	cache     port.OptimizationCachePort
	matcher   *pricing.ComparableMatcher
	optimizer *pricing.PricingOptimizer
	cacheTTL  time.Duration
}

func NewOptimizeUnitUseCase(
	storage port.UnitStoragePort,
	cache port.OptimizationCachePort,
	matcher *pricing.ComparableMatcher,
	optimizer *pricing.PricingOptimizer,
	cacheTTL time.Duration,
) *OptimizeUnitUseCase {
	return &OptimizeUnitUseCase{
		storage:   storage,
		cache:     cache,
		matcher:   matcher,
		optimizer: optimizer,
		cacheTTL:  cacheTTL,
	}
}

func (uc *OptimizeUnitUseCase) Execute(ctx context.Context, unitID string, req domain.StrategyRequest) (domain.OptimizationResult, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case": "OptimizeUnit",
		"unit_id":  unitID,
		"strategy": req.Strategy.String(),
	})

	if err := req.Validate(); err != nil {
		return domain.OptimizationResult{}, err
	}

	unit, err := uc.storage.GetUnit(ctx, unitID)
	if err != nil {
		return domain.OptimizationResult{}, fmt.Errorf("could not load unit %s: %w", unitID, err)
	}

	snapshot, err := uc.storage.SnapshotVersion(ctx, unit.Property)
	if err != nil {
		logger.Warn("Failed to resolve data snapshot version, skipping cache", port.Fields{"error": err.Error()})
		snapshot = ""
	}

	key := domain.OptimizationCacheKey{
		UnitID:          unitID,
		Strategy:        req.Strategy,
		Weight:          req.Weight,
		SnapshotVersion: snapshot,
	}

	if snapshot != "" {
		cached, err := uc.cache.Get(ctx, key)
		if err != nil {
			logger.Warn("Optimization cache read failed", port.Fields{"error": err.Error()})
		} else if cached != nil {
			logger.Debug("Optimization cache hit", nil)
			return *cached, nil
		}
	}

	pool, err := uc.storage.GetCandidatePool(ctx, *unit)
	if err != nil {
		logger.Error("Failed to load candidate pool", err, nil)
		return domain.OptimizationResult{}, fmt.Errorf("could not load candidate pool for unit %s: %w", unitID, err)
	}

	comps := uc.matcher.Match(*unit, pool)
	result, err := uc.optimizer.Optimize(*unit, comps, req)
	if err != nil {
		return domain.OptimizationResult{}, err
	}

	switch result.Reason {
	case domain.ReasonNone:
		logger.Info("Optimization finished", port.Fields{
			"recommended_rent": result.RecommendedRent,
			"rent_change_pct":  result.RentChangePct,
			"confidence":       result.Confidence,
			"comparable_count": result.ComparableCount,
		})
	default:
		logger.Warn("Optimization fell back to current rent", port.Fields{
			"reason":           string(result.Reason),
			"comparable_count": result.ComparableCount,
		})
	}

	if snapshot != "" {
		if err := uc.cache.Set(ctx, key, result, uc.cacheTTL); err != nil {
			logger.Warn("Optimization cache write failed", port.Fields{"error": err.Error()})
		}
	}

	return result, nil
}
