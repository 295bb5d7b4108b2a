package ranking

import (
	"math"

	"charabase/internal/catalog"
)

// Scoring weights and breakpoints. Changing any of these reshuffles every
// stored score and tier, so treat them as part of the snapshot format.
const (
	popularityWeight = 0.4
	avgScoreWeight   = 0.3
	roleWeight       = 0.3

	// Size-ratio composition: how far a work sits from the catalog mean,
	// log-weighted between episode count and character count.
	episodeRatioWeight   = 0.3
	characterRatioWeight = 0.7

	// Piecewise gradient over the size ratio. Works close to the mean move
	// at most a few percent either way; oversized works are damped harder.
	nearMeanBand      = 2.0
	nearMeanMaxSwing  = 0.08
	midBandCeiling    = 20.0
	midBandMaxPenalty = 0.15
	farBandCeiling    = 100.0
	farBandMaxPenalty = 0.22

	// Role adjustment applied after the gradient. Lead roles get a flat
	// bonus; everyone else is penalized in proportion to how oversized the
	// work is, capped.
	oversizePenaltyRate = 0.05
	oversizePenaltyCap  = 0.35

	scaleFloor = 0.55
	scaleCeil  = 1.15
)

// roleMultipliers feed the base score's role component.
var roleMultipliers = map[catalog.Role]float64{
	catalog.RoleProtagonist:   1.0,
	catalog.RoleDeuteragonist: 0.85,
	catalog.RoleAntagonist:    0.9,
	catalog.RoleSupporting:    0.5,
	catalog.RoleMinor:         0.2,
	catalog.RoleOther:         0.1,
}

// roleScaleBonuses are the flat scale-factor bonuses for lead roles. The
// legacy "main" role is kept for records ingested before roles were split
// into protagonist/deuteragonist.
var roleScaleBonuses = map[catalog.Role]float64{
	catalog.RoleProtagonist:   0.22,
	catalog.RoleDeuteragonist: 0.17,
	catalog.Role("main"):      0.10,
}

// roleMultiplier looks up the base-score weight of a role, falling back to
// the "other" weight for unknown strings.
func roleMultiplier(role catalog.Role) float64 {
	if m, ok := roleMultipliers[role]; ok {
		return m
	}
	return roleMultipliers[catalog.RoleOther]
}

// normalize maps x into [0,1] over the observed range, degenerating to the
// midpoint when the range is empty.
func normalize(x, min, max float64) float64 {
	if max == min {
		return 0.5
	}
	return (x - min) / (max - min)
}

// baseScore combines normalized popularity, normalized average score, and
// the role multiplier.
func baseScore(work catalog.Work, role catalog.Role, stats GlobalStats) float64 {
	popularity := normalize(float64(work.Metadata.Popularity), stats.PopularityMin, stats.PopularityMax)
	avgScore := normalize(work.Metadata.Score, stats.AvgScoreMin, stats.AvgScoreMax)
	return popularityWeight*popularity + avgScoreWeight*avgScore + roleWeight*roleMultiplier(role)
}

// sizeRatio measures how large a work is relative to the catalog mean,
// combining episode and character ratios on a log scale. Works or catalogs
// with no usable counts sit at ratio 1.
func sizeRatio(work catalog.Work, characterCount int, stats GlobalStats) float64 {
	epRatio := 1.0
	if units := float64(unitCount(work)); units > 0 && stats.MeanEpisodes > 0 {
		epRatio = units / stats.MeanEpisodes
	}
	chRatio := 1.0
	if characterCount > 0 && stats.MeanCharacters > 0 {
		chRatio = float64(characterCount) / stats.MeanCharacters
	}
	return math.Exp(episodeRatioWeight*math.Log(epRatio) + characterRatioWeight*math.Log(chRatio))
}

// unitCount is the work's episode count, or chapter count for works that
// have no episodes.
func unitCount(work catalog.Work) int {
	if work.Metadata.Episodes > 0 {
		return work.Metadata.Episodes
	}
	return work.Metadata.Chapters
}

// sizeGradient maps a size ratio through the piecewise damping curve:
// a swing of at most 8% either way near the mean, an 8% to 15% penalty out
// to 20x the mean, and up to a 22% penalty beyond that, capped.
func sizeGradient(ratio float64) float64 {
	switch {
	case ratio <= 0:
		return 1.0
	case ratio <= nearMeanBand:
		return 1.0 + nearMeanMaxSwing*(1.0-ratio)
	case ratio <= midBandCeiling:
		span := (ratio - nearMeanBand) / (midBandCeiling - nearMeanBand)
		return (1.0 - nearMeanMaxSwing) - (midBandMaxPenalty-nearMeanMaxSwing)*span
	default:
		span := (ratio - midBandCeiling) / (farBandCeiling - midBandCeiling)
		if span > 1 {
			span = 1
		}
		return (1.0 - midBandMaxPenalty) - (farBandMaxPenalty-midBandMaxPenalty)*span
	}
}

// scaleFactor damps or boosts a character's score based on how oversized
// its work is and how central the role: lead roles get a flat bonus, other
// roles a penalty proportional to the overshoot. The result is clamped to
// [scaleFloor, scaleCeil].
func scaleFactor(work catalog.Work, role catalog.Role, characterCount int, stats GlobalStats) float64 {
	ratio := sizeRatio(work, characterCount, stats)
	factor := sizeGradient(ratio)

	if bonus, ok := roleScaleBonuses[role]; ok {
		factor += bonus
	} else {
		overshoot := ratio - 1.0
		if overshoot < 0 {
			overshoot = 0
		}
		penalty := oversizePenaltyRate * overshoot
		if penalty > oversizePenaltyCap {
			penalty = oversizePenaltyCap
		}
		factor -= penalty
	}

	if factor < scaleFloor {
		return scaleFloor
	}
	if factor > scaleCeil {
		return scaleCeil
	}
	return factor
}

// characterScore is the final per-character score.
func characterScore(work catalog.Work, role catalog.Role, characterCount int, stats GlobalStats) float64 {
	return baseScore(work, role, stats) * scaleFactor(work, role, characterCount, stats)
}
