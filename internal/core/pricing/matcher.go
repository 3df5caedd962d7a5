package pricing

import (
	"math"
	"sort"

	"pricing-service/internal/core/domain"
)

const (
	sqftFilterPct    = 0.20
	priceFilterPct   = 0.30
	sqftScoreWeight  = 0.40
	priceScoreWeight = 0.60
)

// ComparableMatcher filters a candidate pool down to the units that are
// actually similar to a target unit and ranks them by similarity. It is a
// pure transformation over its two inputs.
type ComparableMatcher struct {
	cfg Config
}

// NewComparableMatcher builds a matcher with the configured threshold and
// set size.
func NewComparableMatcher(cfg Config) *ComparableMatcher {
	return &ComparableMatcher{cfg: cfg}
}

// Match returns the top-K most similar candidates, ranked 1-based by
// descending similarity. An empty result is a valid, common state (the caller
// falls back to a no-change recommendation), not an error.
func (m *ComparableMatcher) Match(unit domain.Unit, candidates []domain.ComparableCandidate) []domain.RankedComparable {
	unitPsf := unit.RentPerSqft()

	matched := make([]domain.RankedComparable, 0, len(candidates))
	for _, cand := range candidates {
		if cand.Sqft <= 0 || cand.Price <= 0 {
			continue
		}
		if cand.Bedrooms != unit.Bedrooms || cand.Bathrooms != unit.Bathrooms {
			continue
		}

		sqftDelta := math.Abs(cand.Sqft-unit.Sqft) / unit.Sqft
		if sqftDelta > sqftFilterPct {
			continue
		}

		// The price filter compares rent per square foot; it is skipped when
		// the unit's own rate is undefined.
		var priceDelta float64
		if unitPsf > 0 {
			priceDelta = math.Abs(cand.Price/cand.Sqft-unitPsf) / unitPsf
			if priceDelta > priceFilterPct {
				continue
			}
		}

		score := sqftScoreWeight*(1-sqftDelta) + priceScoreWeight*(1-priceDelta)
		if score < m.cfg.SimilarityThreshold {
			continue
		}

		matched = append(matched, domain.RankedComparable{
			ComparableCandidate: cand,
			SqftDeltaPct:        sqftDelta,
			PriceDeltaPct:       priceDelta,
			SimilarityScore:     score,
		})
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].SimilarityScore != matched[j].SimilarityScore {
			return matched[i].SimilarityScore > matched[j].SimilarityScore
		}
		if matched[i].SqftDeltaPct != matched[j].SqftDeltaPct {
			return matched[i].SqftDeltaPct < matched[j].SqftDeltaPct
		}
		return matched[i].PriceDeltaPct < matched[j].PriceDeltaPct
	})

	if len(matched) > m.cfg.ComparableSetSize {
		matched = matched[:m.cfg.ComparableSetSize]
	}
	for i := range matched {
		matched[i].Rank = i + 1
	}
	return matched
}
