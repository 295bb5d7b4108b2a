package ranking

import (
	"sort"

	"charabase/internal/catalog"
)

// Percentile cutoffs, exclusive: a character must rank strictly above a
// cutoff to enter the tier. The top 5% of scores are legendary, the next
// 15% epic, then 25% rare, 25% uncommon, and the bottom 30% common.
const (
	legendaryCutoff = 0.95
	epicCutoff      = 0.80
	rareCutoff      = 0.55
	uncommonCutoff  = 0.30
)

// tierFor maps a percentile to its rarity tier.
func tierFor(percentile float64) catalog.Tier {
	switch {
	case percentile > legendaryCutoff:
		return catalog.TierLegendary
	case percentile > epicCutoff:
		return catalog.TierEpic
	case percentile > rareCutoff:
		return catalog.TierRare
	case percentile > uncommonCutoff:
		return catalog.TierUncommon
	default:
		return catalog.TierCommon
	}
}

// percentiles computes, for each score, the fraction of all scores less
// than or equal to it. A sole character sits at percentile 1.0.
func percentiles(scores []float64) []float64 {
	sorted := append([]float64(nil), scores...)
	sort.Float64s(sorted)

	out := make([]float64, len(scores))
	total := float64(len(scores))
	for i, score := range scores {
		// Upper bound: index of the first score strictly greater.
		countLE := sort.SearchFloat64s(sorted, score)
		for countLE < len(sorted) && sorted[countLE] == score {
			countLE++
		}
		out[i] = float64(countLE) / total
	}
	return out
}
