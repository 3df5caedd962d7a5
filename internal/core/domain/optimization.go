package domain

import (
	"errors"
	"fmt"
)

// Strategy selects the objective the optimizer maximizes. It is a closed,
// typed enum: request strings are parsed once at the API boundary and the
// rest of the core dispatches on the type.
type Strategy int

const (
	StrategyRevenueMax Strategy = iota + 1
	StrategyLeaseSpeed
	StrategyBalanced
)

// Validation errors for strategy requests. Surfaced to callers as rejected
// requests (400), never silently corrected.
var (
	ErrUnknownStrategy  = errors.New("unknown optimization strategy")
	ErrWeightRequired   = errors.New("balanced strategy requires a weight")
	ErrWeightOutOfRange = errors.New("balanced weight must be within [0, 1]")
)

// ParseStrategy maps an API-level strategy string onto the enum.
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "revenue_max":
		return StrategyRevenueMax, nil
	case "lease_speed":
		return StrategyLeaseSpeed, nil
	case "balanced":
		return StrategyBalanced, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
	}
}

func (s Strategy) String() string {
	switch s {
	case StrategyRevenueMax:
		return "revenue_max"
	case StrategyLeaseSpeed:
		return "lease_speed"
	case StrategyBalanced:
		return "balanced"
	default:
		return "unknown"
	}
}

// StrategyRequest is a validated (strategy, weight) pair. Weight is only
// meaningful for StrategyBalanced: 0 = pure lease-speed, 1 = pure revenue.
type StrategyRequest struct {
	Strategy Strategy
	Weight   *float64
}

// Validate rejects unknown strategies and malformed balanced weights.
func (r StrategyRequest) Validate() error {
	switch r.Strategy {
	case StrategyRevenueMax, StrategyLeaseSpeed:
		return nil
	case StrategyBalanced:
		if r.Weight == nil {
			return ErrWeightRequired
		}
		if *r.Weight < 0 || *r.Weight > 1 {
			return fmt.Errorf("%w: got %.3f", ErrWeightOutOfRange, *r.Weight)
		}
		return nil
	default:
		return ErrUnknownStrategy
	}
}

// FallbackReason records why an optimization returned its safe default instead
// of a searched optimum. It is internal observability data, not an API error.
type FallbackReason string

const (
	ReasonNone            FallbackReason = ""
	ReasonNoComparables   FallbackReason = "no_comparables"
	ReasonBoundsCollapsed FallbackReason = "bounds_collapsed"
	ReasonNoConvergence   FallbackReason = "no_convergence"
)

// OptimizationResult is the outcome of pricing one unit under one strategy.
// Every failure mode folds into a valid result: an empty comparable set or a
// failed search produces the current rent with low confidence, never an error.
type OptimizationResult struct {
	UnitID          string
	CurrentRent     float64
	RecommendedRent float64
	RentChange      float64
	RentChangePct   float64

	// DemandProbability is nil when no market baseline was available.
	DemandProbability   *float64
	ExpectedDaysToLease *int

	AnnualRevenueImpact float64
	Confidence          float64
	StrategyUsed        Strategy
	ComparableCount     int

	Reason FallbackReason
}

// OptimizationCacheKey identifies one cached optimization result. The snapshot
// version ties cache entries to the accepted upload month, so new data
// naturally invalidates stale recommendations.
type OptimizationCacheKey struct {
	UnitID          string
	Strategy        Strategy
	Weight          *float64
	SnapshotVersion string
}

func (k OptimizationCacheKey) String() string {
	weight := "-"
	if k.Weight != nil {
		weight = fmt.Sprintf("%.2f", *k.Weight)
	}
	return fmt.Sprintf("pricing:opt:%s:%s:%s:%s", k.UnitID, k.Strategy, weight, k.SnapshotVersion)
}
