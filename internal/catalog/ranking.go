package catalog

import "time"

// Tier is the percentile-bucket rarity label assigned to a character.
type Tier string

// Rarity tiers, rarest first.
const (
	TierLegendary Tier = "legendary"
	TierEpic      Tier = "epic"
	TierRare      Tier = "rare"
	TierUncommon  Tier = "uncommon"
	TierCommon    Tier = "common"
)

// RankedCharacter is one entry of the global ranking snapshot.
type RankedCharacter struct {
	ID       string   `json:"id"`
	WorkID   string   `json:"workId"`
	WorkType WorkType `json:"workType"`
	Role     Role     `json:"role"`
	Score    float64  `json:"score"`
	Rarity   Tier     `json:"rarity"`
	Rank     int      `json:"rank"`
}

// RankingSnapshot is the artifact emitted by a ranking run, fully
// regenerated every time, ordered by score descending with dense 1-based
// ranks.
type RankingSnapshot struct {
	GeneratedAt     time.Time         `json:"generated_at"`
	TotalCharacters int               `json:"total_characters"`
	Distribution    map[Tier]int      `json:"distribution"`
	Characters      []RankedCharacter `json:"characters"`
}
