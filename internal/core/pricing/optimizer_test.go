package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricing-service/internal/core/domain"
)

func newTestOptimizer(cfg Config) *PricingOptimizer {
	return NewPricingOptimizer(cfg, NewDemandCurve(cfg))
}

func rankedComps(similarity float64, prices ...float64) []domain.RankedComparable {
	comps := make([]domain.RankedComparable, len(prices))
	for i, p := range prices {
		comps[i] = domain.RankedComparable{
			ComparableCandidate: domain.ComparableCandidate{
				ID:    "comp",
				Sqft:  1000,
				Price: p,
			},
			SimilarityScore: similarity,
			Rank:            i + 1,
		}
	}
	return comps
}

func weightOf(w float64) *float64 { return &w }

func TestOptimize_RevenueMax(t *testing.T) {
	opt := newTestOptimizer(DefaultConfig())
	unit := testUnit()
	unit.AdvertisedRent = 1200

	// Median 1220; the demand cap turns revenue into 0.95*price below
	// 1.025*median, so the optimum sits at that kink, about 1250.
	comps := rankedComps(0.9, 1150, 1190, 1220, 1250, 1300)

	res, err := opt.Optimize(unit, comps, domain.StrategyRequest{Strategy: domain.StrategyRevenueMax})
	require.NoError(t, err)

	assert.Equal(t, domain.ReasonNone, res.Reason)
	assert.Equal(t, domain.StrategyRevenueMax, res.StrategyUsed)
	assert.InDelta(t, 1250.5, res.RecommendedRent, 2.0)

	// Interval bounds: max(976, 960) .. min(1464, 1560).
	assert.GreaterOrEqual(t, res.RecommendedRent, 976.0)
	assert.LessOrEqual(t, res.RecommendedRent, 1464.0)

	assert.InDelta(t, res.RecommendedRent-1200, res.RentChange, 1e-9)
	assert.InDelta(t, res.RentChange/1200*100, res.RentChangePct, 1e-9)
	assert.InDelta(t, res.RentChange*12, res.AnnualRevenueImpact, 1e-9)

	require.NotNil(t, res.DemandProbability)
	assert.Greater(t, *res.DemandProbability, 0.0)
	require.NotNil(t, res.ExpectedDaysToLease)
	assert.Greater(t, *res.ExpectedDaysToLease, 0)

	// Five comparables at similarity 0.9: confidence 0.9 * 0.9.
	assert.InDelta(t, 0.81, res.Confidence, 1e-9)
	assert.Equal(t, 5, res.ComparableCount)
}

func TestOptimize_LeaseSpeedPrefersIntervalFloor(t *testing.T) {
	opt := newTestOptimizer(DefaultConfig())
	unit := testUnit()
	unit.AdvertisedRent = 1400

	// Median 1000. The whole interval [1120, 1200] is above the demand cap
	// region, so probability strictly falls with price and the floor wins.
	comps := rankedComps(0.85, 980, 1000, 1020)

	res, err := opt.Optimize(unit, comps, domain.StrategyRequest{Strategy: domain.StrategyLeaseSpeed})
	require.NoError(t, err)

	assert.Equal(t, domain.ReasonNone, res.Reason)
	assert.InDelta(t, 1120.5, res.RecommendedRent, 1.5)
	assert.Less(t, res.RentChange, 0.0)
	assert.InDelta(t, 0.7*0.85, res.Confidence, 1e-9)
}

func TestOptimize_BalancedWeightBoundaries(t *testing.T) {
	opt := newTestOptimizer(DefaultConfig())
	unit := testUnit()
	unit.AdvertisedRent = 1200
	comps := rankedComps(0.9, 1150, 1190, 1220, 1250, 1300)

	revenue, err := opt.Optimize(unit, comps, domain.StrategyRequest{Strategy: domain.StrategyRevenueMax})
	require.NoError(t, err)
	speed, err := opt.Optimize(unit, comps, domain.StrategyRequest{Strategy: domain.StrategyLeaseSpeed})
	require.NoError(t, err)

	allRevenue, err := opt.Optimize(unit, comps, domain.StrategyRequest{Strategy: domain.StrategyBalanced, Weight: weightOf(1)})
	require.NoError(t, err)
	allSpeed, err := opt.Optimize(unit, comps, domain.StrategyRequest{Strategy: domain.StrategyBalanced, Weight: weightOf(0)})
	require.NoError(t, err)

	assert.InDelta(t, revenue.RecommendedRent, allRevenue.RecommendedRent, 1.0)
	assert.InDelta(t, speed.RecommendedRent, allSpeed.RecommendedRent, 1.0)
	assert.Equal(t, domain.StrategyBalanced, allRevenue.StrategyUsed)
}

func TestOptimize_BalancedMidWeight(t *testing.T) {
	opt := newTestOptimizer(DefaultConfig())
	unit := testUnit()
	unit.AdvertisedRent = 1200
	comps := rankedComps(0.9, 1150, 1190, 1220, 1250, 1300)

	res, err := opt.Optimize(unit, comps, domain.StrategyRequest{Strategy: domain.StrategyBalanced, Weight: weightOf(0.5)})
	require.NoError(t, err)

	assert.Equal(t, domain.ReasonNone, res.Reason)
	assert.GreaterOrEqual(t, res.RecommendedRent, 976.0)
	assert.LessOrEqual(t, res.RecommendedRent, 1464.0)
}

func TestOptimize_RequestValidation(t *testing.T) {
	opt := newTestOptimizer(DefaultConfig())
	unit := testUnit()
	comps := rankedComps(0.9, 1450, 1500, 1550)

	tests := []struct {
		name    string
		req     domain.StrategyRequest
		wantErr error
	}{
		{name: "missing balanced weight", req: domain.StrategyRequest{Strategy: domain.StrategyBalanced}, wantErr: domain.ErrWeightRequired},
		{name: "weight above one", req: domain.StrategyRequest{Strategy: domain.StrategyBalanced, Weight: weightOf(1.5)}, wantErr: domain.ErrWeightOutOfRange},
		{name: "negative weight", req: domain.StrategyRequest{Strategy: domain.StrategyBalanced, Weight: weightOf(-0.1)}, wantErr: domain.ErrWeightOutOfRange},
		{name: "zero strategy", req: domain.StrategyRequest{}, wantErr: domain.ErrUnknownStrategy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := opt.Optimize(unit, comps, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestOptimize_InvalidUnit(t *testing.T) {
	opt := newTestOptimizer(DefaultConfig())
	unit := testUnit()
	unit.AdvertisedRent = 0

	_, err := opt.Optimize(unit, rankedComps(0.9, 1500), domain.StrategyRequest{Strategy: domain.StrategyRevenueMax})
	assert.Error(t, err)
}

func TestOptimize_NoComparablesFallback(t *testing.T) {
	opt := newTestOptimizer(DefaultConfig())
	unit := testUnit()

	res, err := opt.Optimize(unit, nil, domain.StrategyRequest{Strategy: domain.StrategyRevenueMax})
	require.NoError(t, err)

	assert.Equal(t, domain.ReasonNoComparables, res.Reason)
	assert.Equal(t, unit.AdvertisedRent, res.RecommendedRent)
	assert.Zero(t, res.RentChange)
	assert.Zero(t, res.Confidence)
	assert.Zero(t, res.ComparableCount)
	assert.Nil(t, res.DemandProbability)
	assert.Nil(t, res.ExpectedDaysToLease)
}

func TestOptimize_CollapsedBoundsKeepCurrentRent(t *testing.T) {
	opt := newTestOptimizer(DefaultConfig())
	unit := testUnit()
	unit.AdvertisedRent = 2000

	// Median 1000: the floor from current rent (1600) exceeds the ceiling
	// from the market baseline (1200), so no search interval exists.
	comps := rankedComps(0.9, 950, 1000, 1050)

	res, err := opt.Optimize(unit, comps, domain.StrategyRequest{Strategy: domain.StrategyRevenueMax})
	require.NoError(t, err)

	assert.Equal(t, domain.ReasonBoundsCollapsed, res.Reason)
	assert.Equal(t, 2000.0, res.RecommendedRent)
	assert.Zero(t, res.RentChange)
	require.NotNil(t, res.DemandProbability)
	assert.InDelta(t, 0.05, *res.DemandProbability, 1e-9)
	require.NotNil(t, res.ExpectedDaysToLease)
	assert.Equal(t, 600, *res.ExpectedDaysToLease)
	assert.InDelta(t, 0.7*0.9, res.Confidence, 1e-9)
	assert.Equal(t, 3, res.ComparableCount)
}

func TestOptimize_IterationBudgetExhausted(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxIterations = 1
	opt := newTestOptimizer(cfg)
	unit := testUnit()
	unit.AdvertisedRent = 1200

	res, err := opt.Optimize(unit, rankedComps(0.9, 1150, 1220, 1300), domain.StrategyRequest{Strategy: domain.StrategyRevenueMax})
	require.NoError(t, err)

	assert.Equal(t, domain.ReasonNoConvergence, res.Reason)
	assert.Equal(t, 1200.0, res.RecommendedRent)
	assert.Equal(t, 3, res.ComparableCount)
	assert.Greater(t, res.Confidence, 0.0)
}

func TestMedianPrice(t *testing.T) {
	assert.InDelta(t, 1220.0, medianPrice(rankedComps(1, 1300, 1150, 1220)), 1e-9)
	assert.InDelta(t, 1205.0, medianPrice(rankedComps(1, 1300, 1150, 1220, 1190)), 1e-9)
	assert.InDelta(t, 1500.0, medianPrice(rankedComps(1, 1500)), 1e-9)
}

func TestConfidenceTiers(t *testing.T) {
	assert.Zero(t, confidence(nil))
	assert.InDelta(t, 0.5*1.0, confidence(rankedComps(1.0, 1500)), 1e-9)
	assert.InDelta(t, 0.5*1.0, confidence(rankedComps(1.0, 1500, 1520)), 1e-9)
	assert.InDelta(t, 0.7*0.8, confidence(rankedComps(0.8, 1500, 1520, 1540)), 1e-9)
	assert.InDelta(t, 0.7*0.8, confidence(rankedComps(0.8, 1500, 1520, 1540, 1560)), 1e-9)
	assert.InDelta(t, 0.9*0.8, confidence(rankedComps(0.8, 1500, 1520, 1540, 1560, 1580)), 1e-9)
}

func TestGoldenSectionMax(t *testing.T) {
	parabola := func(x float64) float64 { return -(x - 42) * (x - 42) }

	x, ok := goldenSectionMax(parabola, 0, 100, 1e-6, 200)
	require.True(t, ok)
	assert.InDelta(t, 42.0, x, 1e-5)

	_, ok = goldenSectionMax(parabola, 0, 100, 1e-6, 3)
	assert.False(t, ok)
}
