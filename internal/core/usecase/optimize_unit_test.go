package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricing-service/internal/core/domain"
	"pricing-service/internal/core/pricing"
)

type fakeUnitStorage struct {
	unit     *domain.Unit
	pool     []domain.ComparableCandidate
	snapshot string

	unitErr     error
	poolErr     error
	snapshotErr error
}

func (f *fakeUnitStorage) GetUnit(ctx context.Context, unitID string) (*domain.Unit, error) {
	if f.unitErr != nil {
		return nil, f.unitErr
	}
	return f.unit, nil
}

func (f *fakeUnitStorage) GetCandidatePool(ctx context.Context, unit domain.Unit) ([]domain.ComparableCandidate, error) {
	if f.poolErr != nil {
		return nil, f.poolErr
	}
	return f.pool, nil
}

func (f *fakeUnitStorage) SnapshotVersion(ctx context.Context, propertyID string) (string, error) {
	if f.snapshotErr != nil {
		return "", f.snapshotErr
	}
	return f.snapshot, nil
}

type fakeCache struct {
	entries map[string]domain.OptimizationResult
	getErr  error
	setErr  error
	sets    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]domain.OptimizationResult)}
}

func (f *fakeCache) Get(ctx context.Context, key domain.OptimizationCacheKey) (*domain.OptimizationResult, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if res, ok := f.entries[key.String()]; ok {
		return &res, nil
	}
	return nil, nil
}

func (f *fakeCache) Set(ctx context.Context, key domain.OptimizationCacheKey, result domain.OptimizationResult, ttl time.Duration) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.entries[key.String()] = result
	f.sets++
	return nil
}

func optimizeFixture() (*fakeUnitStorage, *fakeCache, *OptimizeUnitUseCase) {
	cfg := pricing.DefaultConfig()
	demand := pricing.NewDemandCurve(cfg)

	storage := &fakeUnitStorage{
		unit: &domain.Unit{
			ID:             "oakwood_A101",
			Property:       "oakwood",
			Bedrooms:       2,
			Bathrooms:      2,
			Sqft:           1000,
			AdvertisedRent: 1200,
			Status:         domain.StatusVacant,
		},
		snapshot: "2026-08",
	}
	for _, price := range []float64{1150, 1190, 1220, 1250, 1300} {
		storage.pool = append(storage.pool, domain.ComparableCandidate{
			ID:          "comp",
			Property:    "rivergate",
			Bedrooms:    2,
			Bathrooms:   2,
			Sqft:        1000,
			Price:       price,
			IsAvailable: true,
		})
	}

	cache := newFakeCache()
	uc := NewOptimizeUnitUseCase(storage, cache,
		pricing.NewComparableMatcher(cfg),
		pricing.NewPricingOptimizer(cfg, demand),
		time.Hour)
	return storage, cache, uc
}

func TestOptimizeUnit_ComputesAndCaches(t *testing.T) {
	_, cache, uc := optimizeFixture()

	res, err := uc.Execute(context.Background(), "oakwood_A101", domain.StrategyRequest{Strategy: domain.StrategyRevenueMax})
	require.NoError(t, err)

	assert.Equal(t, domain.ReasonNone, res.Reason)
	assert.Equal(t, 5, res.ComparableCount)
	assert.Equal(t, 1, cache.sets)

	// Second call is served from the cache.
	again, err := uc.Execute(context.Background(), "oakwood_A101", domain.StrategyRequest{Strategy: domain.StrategyRevenueMax})
	require.NoError(t, err)
	assert.Equal(t, res.RecommendedRent, again.RecommendedRent)
	assert.Equal(t, 1, cache.sets)
}

func TestOptimizeUnit_UnknownUnit(t *testing.T) {
	storage, _, uc := optimizeFixture()
	storage.unitErr = domain.ErrUnitNotFound

	_, err := uc.Execute(context.Background(), "nope", domain.StrategyRequest{Strategy: domain.StrategyRevenueMax})
	assert.ErrorIs(t, err, domain.ErrUnitNotFound)
}

func TestOptimizeUnit_InvalidRequestRejectedBeforeStorage(t *testing.T) {
	storage, _, uc := optimizeFixture()
	storage.unitErr = errors.New("storage must not be touched")

	_, err := uc.Execute(context.Background(), "oakwood_A101", domain.StrategyRequest{Strategy: domain.StrategyBalanced})
	assert.ErrorIs(t, err, domain.ErrWeightRequired)
}

func TestOptimizeUnit_CacheFailuresAreNotFatal(t *testing.T) {
	_, cache, uc := optimizeFixture()
	cache.getErr = errors.New("redis down")
	cache.setErr = errors.New("redis down")

	res, err := uc.Execute(context.Background(), "oakwood_A101", domain.StrategyRequest{Strategy: domain.StrategyRevenueMax})
	require.NoError(t, err)
	assert.Equal(t, domain.ReasonNone, res.Reason)
}

func TestOptimizeUnit_SnapshotFailureSkipsCache(t *testing.T) {
	storage, cache, uc := optimizeFixture()
	storage.snapshotErr = errors.New("no snapshot")

	res, err := uc.Execute(context.Background(), "oakwood_A101", domain.StrategyRequest{Strategy: domain.StrategyRevenueMax})
	require.NoError(t, err)
	assert.Equal(t, domain.ReasonNone, res.Reason)
	assert.Zero(t, cache.sets)
}

func TestOptimizeUnit_EmptyPoolFallsBack(t *testing.T) {
	storage, _, uc := optimizeFixture()
	storage.pool = nil

	res, err := uc.Execute(context.Background(), "oakwood_A101", domain.StrategyRequest{Strategy: domain.StrategyRevenueMax})
	require.NoError(t, err)
	assert.Equal(t, domain.ReasonNoComparables, res.Reason)
	assert.Equal(t, 1200.0, res.RecommendedRent)
}
