package domain

// ComparableCandidate is one market listing from the competition snapshot,
// before any similarity filtering.
type ComparableCandidate struct {
	ID          string
	Property    string
	Bedrooms    int
	Bathrooms   float64
	Sqft        float64
	Price       float64
	IsAvailable bool
}

// RankedComparable is a candidate that passed all similarity filters, together
// with its derived deltas, score and position. Ranked sets are computed per
// request and never persisted; ranks are 1-based and unique within a set.
type RankedComparable struct {
	ComparableCandidate

	// SqftDeltaPct and PriceDeltaPct are absolute relative deltas from the
	// target unit (0.05 == 5%).
	SqftDeltaPct  float64
	PriceDeltaPct float64

	SimilarityScore float64
	Rank            int
}
