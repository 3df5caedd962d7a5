package port

import (
	"context"

	"pricing-service/internal/core/domain"
)

// UnitStoragePort reads the latest accepted rent roll and competition data
// for pricing.
type UnitStoragePort interface {
	// GetUnit loads one unit from the latest rent roll snapshot. Returns
	// domain.ErrUnitNotFound when the id is unknown.
	GetUnit(ctx context.Context, unitID string) (*domain.Unit, error)

	// GetCandidatePool returns the comparable candidates relevant to a unit:
	// available competition listings plus the unit's own property peers.
	GetCandidatePool(ctx context.Context, unit domain.Unit) ([]domain.ComparableCandidate, error)

	// SnapshotVersion identifies the accepted upload generation backing a
	// property's data. Used to scope cached optimization results.
	SnapshotVersion(ctx context.Context, propertyID string) (string, error)
}
