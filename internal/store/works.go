package store

import (
	"errors"
	"sort"

	"go.uber.org/zap"

	"charabase/internal/catalog"
)

// UpsertWork inserts or updates a work record keyed by (type, id). Incoming
// fields win over stored ones, created_at is preserved on update, and
// updated_at is always refreshed. The per-type index is kept in sync.
func (s *Store) UpsertWork(workType catalog.WorkType, workID string, data catalog.Work) (catalog.Work, error) {
	now := s.now()

	existing, err := s.Work(workType, workID)
	switch {
	case err == nil:
		data = mergeWork(existing, data)
		data.CreatedAt = existing.CreatedAt
	case errors.Is(err, ErrNotFound):
		data.CreatedAt = now
	default:
		return catalog.Work{}, err
	}

	data.ID = workID
	data.Type = workType
	data.UpdatedAt = now

	if err := writeJSON(s.infoPath(workType, workID), data); err != nil {
		return catalog.Work{}, err
	}
	if err := s.updateIndex(workType, data); err != nil {
		return catalog.Work{}, err
	}

	s.logger.Debug("work upserted",
		zap.String("type", string(workType)),
		zap.String("work_id", workID),
		zap.String("source", data.Source),
	)
	return data, nil
}

// mergeWork overlays incoming onto existing. A zero-valued incoming field
// behaves like an absent key and keeps the stored value.
func mergeWork(existing, incoming catalog.Work) catalog.Work {
	out := incoming
	if out.Title == "" {
		out.Title = existing.Title
	}
	if len(out.AltTitles) == 0 {
		out.AltTitles = existing.AltTitles
	}
	if out.Source == "" {
		out.Source = existing.Source
	}
	if out.SourceID == "" {
		out.SourceID = existing.SourceID
	}
	if out.Description == "" {
		out.Description = existing.Description
	}
	if isZeroMetadata(out.Metadata) {
		out.Metadata = existing.Metadata
	}
	if len(out.Images) == 0 {
		out.Images = existing.Images
	}
	if len(out.ExternalIDs) == 0 {
		out.ExternalIDs = existing.ExternalIDs
	}
	if len(out.Tags) == 0 {
		out.Tags = existing.Tags
	}
	return out
}

func isZeroMetadata(m catalog.WorkMetadata) bool {
	return m.Format == "" && m.Status == "" && len(m.Genres) == 0 &&
		m.Score == 0 && m.Popularity == 0 && m.Episodes == 0 && m.Chapters == 0
}

// updateIndex rewrites the per-type index with the work's current entry.
func (s *Store) updateIndex(workType catalog.WorkType, work catalog.Work) error {
	index, err := s.Index(workType)
	if err != nil {
		return err
	}

	entry := catalog.IndexEntry{
		ID:         work.ID,
		Title:      work.Title,
		Source:     work.Source,
		Popularity: work.Metadata.Popularity,
		Score:      work.Metadata.Score,
		Genres:     work.Metadata.Genres,
	}

	replaced := false
	for i := range index {
		if index[i].ID == work.ID {
			index[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		index = append(index, entry)
	}
	sort.Slice(index, func(i, j int) bool { return index[i].ID < index[j].ID })

	return writeJSON(s.indexPath(workType), index)
}
