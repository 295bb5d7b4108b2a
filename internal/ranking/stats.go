package ranking

import "charabase/internal/catalog"

// GlobalStats holds the catalog-wide aggregates every score is normalized
// against. Zero or missing values never contribute to ranges or means.
type GlobalStats struct {
	PopularityMin float64
	PopularityMax float64
	AvgScoreMin   float64
	AvgScoreMax   float64

	MeanEpisodes   float64
	MeanCharacters float64
}

// computeGlobalStats makes the first pass over the loaded catalog. A work
// with popularity 0 is treated as unreported, not as the least popular work.
func computeGlobalStats(records []workRecord) GlobalStats {
	var stats GlobalStats
	var popSeen, scoreSeen bool
	var episodeSum, charSum float64
	var episodeN, charN int

	for _, record := range records {
		if pop := float64(record.work.Metadata.Popularity); pop > 0 {
			if !popSeen || pop < stats.PopularityMin {
				stats.PopularityMin = pop
			}
			if !popSeen || pop > stats.PopularityMax {
				stats.PopularityMax = pop
			}
			popSeen = true
		}
		if score := record.work.Metadata.Score; score > 0 {
			if !scoreSeen || score < stats.AvgScoreMin {
				stats.AvgScoreMin = score
			}
			if !scoreSeen || score > stats.AvgScoreMax {
				stats.AvgScoreMax = score
			}
			scoreSeen = true
		}
		if units := unitCount(record.work); units > 0 {
			episodeSum += float64(units)
			episodeN++
		}
		if n := len(record.characters); n > 0 {
			charSum += float64(n)
			charN++
		}
	}

	if episodeN > 0 {
		stats.MeanEpisodes = episodeSum / float64(episodeN)
	}
	if charN > 0 {
		stats.MeanCharacters = charSum / float64(charN)
	}
	return stats
}

type workRecord struct {
	work       catalog.Work
	characters []catalog.Character
}
