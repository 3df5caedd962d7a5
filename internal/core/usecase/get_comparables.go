package usecase

import (
	"context"
	"fmt"

	"pricing-service/internal/contextkeys"
	"pricing-service/internal/core/domain"
	"pricing-service/internal/core/port"
	"pricing-service/internal/core/pricing"
)

// GetComparablesUseCase finds the ranked comparable set for one unit.
type GetComparablesUseCase struct {
	storage port.UnitStoragePort
	matcher *pricing.ComparableMatcher
}

func NewGetComparablesUseCase(storage port.UnitStoragePort, matcher *pricing.ComparableMatcher) *GetComparablesUseCase {
	return &GetComparablesUseCase{storage: storage, matcher: matcher}
}

func (uc *GetComparablesUseCase) Execute(ctx context.Context, unitID string) (*domain.Unit, []domain.RankedComparable, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case": "GetComparables",
		"unit_id":  unitID,
	})

	unit, err := uc.storage.GetUnit(ctx, unitID)
	if err != nil {
		return nil, nil, fmt.Errorf("could not load unit %s: %w", unitID, err)
	}

	pool, err := uc.storage.GetCandidatePool(ctx, *unit)
	if err != nil {
		logger.Error("Failed to load candidate pool", err, nil)
		return nil, nil, fmt.Errorf("could not load candidate pool for unit %s: %w", unitID, err)
	}

	ranked := uc.matcher.Match(*unit, pool)
	logger.Debug("Comparable matching finished", port.Fields{
		"pool_size":     len(pool),
		"matched_count": len(ranked),
	})

	return unit, ranked, nil
}
