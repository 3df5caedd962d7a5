package pricing

// Config carries every tunable of the pricing core. It is built once from the
// environment and threaded explicitly into the components, so tests can vary
// any knob without global state.
type Config struct {
	// Elasticity is the demand sensitivity: probability change per 1% of
	// relative price change (default -0.02 == minus two points per percent).
	Elasticity float64

	// MaxAdjustmentPct bounds the search interval around the market baseline
	// and the current rent (0.2 == the 0.8x..1.2x band; the upper bound
	// relative to current rent stretches to 1 + 1.5*pct).
	MaxAdjustmentPct float64

	// SimilarityThreshold discards comparables scoring below it (0..1).
	SimilarityThreshold float64

	// ComparableSetSize caps the ranked comparable set.
	ComparableSetSize int

	// PriceTolerance is the search convergence width in currency units.
	PriceTolerance float64

	// MaxIterations is the search iteration budget; exhausting it yields the
	// fallback result.
	MaxIterations int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		Elasticity:          -0.02,
		MaxAdjustmentPct:    0.20,
		SimilarityThreshold: 0.80,
		ComparableSetSize:   5,
		PriceTolerance:      1.0,
		MaxIterations:       200,
	}
}
