package store

import (
	"errors"
	"path/filepath"
	"time"

	"charabase/internal/catalog"
)

// DatabaseStats aggregates catalog-wide counts for the browse layer.
type DatabaseStats struct {
	TotalWorks      int            `json:"total_works"`
	TotalCharacters int            `json:"total_characters"`
	WorksByType     map[string]int `json:"works_by_type"`
	GeneratedAt     time.Time      `json:"generated_at"`
}

// Stats walks the catalog and computes aggregate counts.
func (s *Store) Stats() (DatabaseStats, error) {
	stats := DatabaseStats{
		WorksByType: make(map[string]int, len(catalog.WorkTypes())),
		GeneratedAt: s.now(),
	}
	for _, workType := range catalog.WorkTypes() {
		ids, err := s.ListWorkIDs(workType)
		if err != nil {
			return DatabaseStats{}, err
		}
		stats.WorksByType[string(workType)] = len(ids)
		stats.TotalWorks += len(ids)
		for _, id := range ids {
			collection, err := s.Characters(workType, id)
			if err != nil {
				if errors.Is(err, ErrNotFound) {
					continue
				}
				return DatabaseStats{}, err
			}
			stats.TotalCharacters += collection.Count
		}
	}
	return stats, nil
}

// WriteStats recomputes and persists database-stats.json.
func (s *Store) WriteStats() (DatabaseStats, error) {
	stats, err := s.Stats()
	if err != nil {
		return DatabaseStats{}, err
	}
	if err := writeJSON(filepath.Join(s.dataDir, "database-stats.json"), stats); err != nil {
		return DatabaseStats{}, err
	}
	return stats, nil
}

// WriteRankingSnapshot persists the global character ranking artifact.
func (s *Store) WriteRankingSnapshot(snapshot catalog.RankingSnapshot) error {
	return writeJSON(filepath.Join(s.dataDir, "character-ranking.json"), snapshot)
}

// RankingSnapshot loads the last persisted ranking artifact.
func (s *Store) RankingSnapshot() (catalog.RankingSnapshot, error) {
	var snapshot catalog.RankingSnapshot
	if err := readJSON(filepath.Join(s.dataDir, "character-ranking.json"), &snapshot); err != nil {
		return catalog.RankingSnapshot{}, err
	}
	return snapshot, nil
}
