package store

import (
	"charabase/internal/catalog"
)

// CharacterRank is the per-character outcome of a ranking run written back
// onto stored records.
type CharacterRank struct {
	Score float64
	Tier  catalog.Tier
}

// ApplyCharacterRanks stamps ranking results onto a work's stored character
// collection. Characters absent from ranks are left untouched.
func (s *Store) ApplyCharacterRanks(
	workType catalog.WorkType,
	workID string,
	ranks map[string]CharacterRank,
) error {
	if len(ranks) == 0 {
		return nil
	}
	collection, err := s.Characters(workType, workID)
	if err != nil {
		return err
	}

	changed := false
	for i := range collection.Characters {
		rank, ok := ranks[collection.Characters[i].ID]
		if !ok {
			continue
		}
		collection.Characters[i].Score = rank.Score
		collection.Characters[i].Rarity = string(rank.Tier)
		changed = true
	}
	if !changed {
		return nil
	}

	collection.UpdatedAt = s.now()
	return writeJSON(s.charactersPath(workType, workID), collection)
}
