package pricing

import (
	"math"
	"sort"

	"pricing-service/internal/core/domain"
)

// annualizationFactor converts a monthly rent delta into yearly revenue.
const annualizationFactor = 12

// PricingOptimizer selects a recommended price for a unit under one of the
// objective strategies. Stateless; safe for concurrent use.
type PricingOptimizer struct {
	cfg    Config
	demand *DemandCurve
}

// NewPricingOptimizer builds an optimizer sharing the demand curve with the
// rest of the core.
func NewPricingOptimizer(cfg Config, demand *DemandCurve) *PricingOptimizer {
	return &PricingOptimizer{cfg: cfg, demand: demand}
}

// Optimize prices one unit given its ranked comparable set. It returns an
// error only for invalid strategy requests and invalid units; every
// data-insufficiency or search failure yields a deterministic fallback result
// keeping the current rent.
func (o *PricingOptimizer) Optimize(unit domain.Unit, comps []domain.RankedComparable, req domain.StrategyRequest) (domain.OptimizationResult, error) {
	if err := req.Validate(); err != nil {
		return domain.OptimizationResult{}, err
	}
	if err := unit.Validate(); err != nil {
		return domain.OptimizationResult{}, err
	}

	if len(comps) == 0 {
		return o.fallback(unit, req.Strategy, domain.ReasonNoComparables), nil
	}

	basePrice := medianPrice(comps)
	current := unit.AdvertisedRent

	adj := o.cfg.MaxAdjustmentPct
	minPrice := math.Max(basePrice*(1-adj), current*(1-adj))
	maxPrice := math.Min(basePrice*(1+adj), current*(1+adj*1.5))

	if minPrice > maxPrice {
		// Baseline and current rent disagree too much for any interval to
		// exist; keep the advertised price.
		return o.resultAt(unit, comps, req.Strategy, current, basePrice, domain.ReasonBoundsCollapsed), nil
	}

	objective := o.objectiveFor(req, basePrice, minPrice, maxPrice)
	optimum, converged := goldenSectionMax(objective, minPrice, maxPrice, o.cfg.PriceTolerance, o.cfg.MaxIterations)
	if !converged {
		fb := o.fallback(unit, req.Strategy, domain.ReasonNoConvergence)
		fb.Confidence = confidence(comps)
		fb.ComparableCount = len(comps)
		return fb, nil
	}

	recommended := math.Round(optimum)
	if recommended < math.Ceil(minPrice) {
		recommended = math.Ceil(minPrice)
	}
	if recommended > math.Floor(maxPrice) {
		recommended = math.Floor(maxPrice)
	}

	return o.resultAt(unit, comps, req.Strategy, recommended, basePrice, domain.ReasonNone), nil
}

// objectiveFor builds the function maximized over the price interval.
func (o *PricingOptimizer) objectiveFor(req domain.StrategyRequest, basePrice, minPrice, maxPrice float64) func(float64) float64 {
	revenue := func(price float64) float64 {
		return price * o.demand.Probability(price, basePrice) * annualizationFactor
	}
	speed := func(price float64) float64 {
		// Minimizing expected days-to-lease is maximizing probability; the
		// interval floor already prevents price collapse.
		return o.demand.Probability(price, basePrice)
	}

	switch req.Strategy {
	case domain.StrategyRevenueMax:
		return revenue
	case domain.StrategyLeaseSpeed:
		return speed
	default: // StrategyBalanced, already validated
		w := *req.Weight
		// Each sub-objective is normalized by its own bounded optimum so the
		// two terms are comparable in magnitude.
		revPeak, _ := goldenSectionMax(revenue, minPrice, maxPrice, o.cfg.PriceTolerance, o.cfg.MaxIterations)
		speedPeak, _ := goldenSectionMax(speed, minPrice, maxPrice, o.cfg.PriceTolerance, o.cfg.MaxIterations)
		revOpt := revenue(revPeak)
		speedOpt := speed(speedPeak)
		return func(price float64) float64 {
			blended := 0.0
			if revOpt > 0 {
				blended += w * revenue(price) / revOpt
			}
			if speedOpt > 0 {
				blended += (1 - w) * speed(price) / speedOpt
			}
			return blended
		}
	}
}

// resultAt materializes a full result for an already-chosen price.
func (o *PricingOptimizer) resultAt(unit domain.Unit, comps []domain.RankedComparable, strategy domain.Strategy, price, basePrice float64, reason domain.FallbackReason) domain.OptimizationResult {
	current := unit.AdvertisedRent
	prob := o.demand.Probability(price, basePrice)
	days := int(math.Round(leaseHorizonDays / prob))
	change := price - current

	return domain.OptimizationResult{
		UnitID:              unit.ID,
		CurrentRent:         current,
		RecommendedRent:     price,
		RentChange:          change,
		RentChangePct:       change / current * 100,
		DemandProbability:   &prob,
		ExpectedDaysToLease: &days,
		AnnualRevenueImpact: change * annualizationFactor,
		Confidence:          confidence(comps),
		StrategyUsed:        strategy,
		ComparableCount:     len(comps),
		Reason:              reason,
	}
}

// fallback is the safe no-op result: keep the advertised rent, report no
// demand estimate and zero confidence.
func (o *PricingOptimizer) fallback(unit domain.Unit, strategy domain.Strategy, reason domain.FallbackReason) domain.OptimizationResult {
	return domain.OptimizationResult{
		UnitID:          unit.ID,
		CurrentRent:     unit.AdvertisedRent,
		RecommendedRent: unit.AdvertisedRent,
		StrategyUsed:    strategy,
		Reason:          reason,
	}
}

// medianPrice is the market baseline: the median listed price of the ranked
// comparables.
func medianPrice(comps []domain.RankedComparable) float64 {
	prices := make([]float64, len(comps))
	for i, c := range comps {
		prices[i] = c.Price
	}
	sort.Float64s(prices)
	mid := len(prices) / 2
	if len(prices)%2 == 0 {
		return (prices[mid-1] + prices[mid]) / 2
	}
	return prices[mid]
}

// confidence grows with both comparable count and average similarity and is
// bounded to [0, 1]. Zero comparables always mean zero confidence.
func confidence(comps []domain.RankedComparable) float64 {
	if len(comps) == 0 {
		return 0
	}
	var countFactor float64
	switch {
	case len(comps) >= 5:
		countFactor = 0.9
	case len(comps) >= 3:
		countFactor = 0.7
	default:
		countFactor = 0.5
	}
	var sum float64
	for _, c := range comps {
		sum += c.SimilarityScore
	}
	return countFactor * (sum / float64(len(comps)))
}

const invPhi = 0.6180339887498949

// goldenSectionMax maximizes f over [lo, hi] to within tol, spending at most
// maxIter shrink steps. The second return value reports convergence; callers
// treat a false as non-convergence and fall back.
func goldenSectionMax(f func(float64) float64, lo, hi, tol float64, maxIter int) (float64, bool) {
	a, b := lo, hi
	c := b - (b-a)*invPhi
	d := a + (b-a)*invPhi
	fc, fd := f(c), f(d)

	for i := 0; i < maxIter; i++ {
		if b-a <= tol {
			return (a + b) / 2, true
		}
		if fc > fd {
			b, d, fd = d, c, fc
			c = b - (b-a)*invPhi
			fc = f(c)
		} else {
			a, c, fc = c, d, fd
			d = a + (b-a)*invPhi
			fd = f(d)
		}
	}
	return (a + b) / 2, b-a <= tol
}
