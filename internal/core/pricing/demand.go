package pricing

const (
	// The linear demand model is only locally valid, so probability is hard
	// clamped away from certainty and impossibility.
	minProbability = 0.05
	maxProbability = 0.95

	// defaultProbability is used when no market baseline exists; a missing
	// baseline is common in sparse markets and must not abort optimization.
	defaultProbability = 0.5

	// leaseHorizonDays is the horizon the probability is defined over.
	leaseHorizonDays = 30.0
)

// DemandCurve estimates the probability of leasing a unit within 30 days at a
// given price relative to a market baseline. Pure and safe for concurrent use.
type DemandCurve struct {
	elasticity float64
}

// NewDemandCurve builds a demand curve with the configured elasticity.
func NewDemandCurve(cfg Config) *DemandCurve {
	return &DemandCurve{elasticity: cfg.Elasticity}
}

// Probability returns the leasing probability at price given basePrice,
// clamped to [0.05, 0.95]. A non-positive basePrice yields 0.5.
func (d *DemandCurve) Probability(price, basePrice float64) float64 {
	if basePrice <= 0 {
		return defaultProbability
	}
	priceRatio := (price - basePrice) / basePrice
	prob := 1 + d.elasticity*priceRatio*100
	if prob < minProbability {
		return minProbability
	}
	if prob > maxProbability {
		return maxProbability
	}
	return prob
}

// ExpectedDaysToLease converts the probability at price into an expected
// leasing time in days.
func (d *DemandCurve) ExpectedDaysToLease(price, basePrice float64) float64 {
	return leaseHorizonDays / d.Probability(price, basePrice)
}
