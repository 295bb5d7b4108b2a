package store

import (
	"errors"
	"strings"

	"go.uber.org/zap"

	"charabase/internal/catalog"
)

// UpsertResult reports the outcome of a character batch upsert.
type UpsertResult struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
	Total   int `json:"total"`
}

// UpsertCharacters merges a collected batch into a work's character
// collection. New ids are inserted as-is; existing ids are merged
// field-by-field. Applying the same batch twice yields the same final state
// as applying it once, with the second call reporting Added == 0.
func (s *Store) UpsertCharacters(
	workType catalog.WorkType,
	workID string,
	incoming []catalog.Character,
) (UpsertResult, error) {
	collection, err := s.Characters(workType, workID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return UpsertResult{}, err
	}
	collection.WorkID = workID

	byID := make(map[string]int, len(collection.Characters))
	for i, existing := range collection.Characters {
		byID[existing.ID] = i
	}

	var result UpsertResult
	for _, character := range incoming {
		if character.ID == "" {
			character.ID = catalog.Slugify(character.Name)
		}
		if character.ID == "" {
			continue
		}
		if i, ok := byID[character.ID]; ok {
			collection.Characters[i] = mergeCharacter(collection.Characters[i], character)
			result.Updated++
			continue
		}
		byID[character.ID] = len(collection.Characters)
		collection.Characters = append(collection.Characters, character)
		result.Added++
	}

	collection.Count = len(collection.Characters)
	collection.UpdatedAt = s.now()
	result.Total = collection.Count

	if err := writeJSON(s.charactersPath(workType, workID), collection); err != nil {
		return UpsertResult{}, err
	}

	s.logger.Debug("characters upserted",
		zap.String("type", string(workType)),
		zap.String("work_id", workID),
		zap.Int("added", result.Added),
		zap.Int("updated", result.Updated),
		zap.Int("total", result.Total),
	)
	return result, nil
}

// mergeCharacter overlays incoming onto existing: scalar fields overwrite
// when set, alt_names and tags take the set union, images union by url
// with existing entries untouched, external_ids union key-wise with
// incoming keys winning.
func mergeCharacter(existing, incoming catalog.Character) catalog.Character {
	out := existing

	if incoming.Name != "" {
		out.Name = incoming.Name
	}
	if incoming.Role != "" {
		out.Role = incoming.Role
	}
	if incoming.Description != "" {
		out.Description = incoming.Description
	}
	if incoming.Rarity != "" {
		out.Rarity = incoming.Rarity
	}
	if incoming.Score != 0 {
		out.Score = incoming.Score
	}

	out.AltNames = unionStrings(existing.AltNames, incoming.AltNames)
	out.Tags = unionStrings(existing.Tags, incoming.Tags)
	out.Images = unionImages(existing.Images, incoming.Images)

	if len(incoming.ExternalIDs) > 0 {
		if out.ExternalIDs == nil {
			out.ExternalIDs = make(map[string]string, len(incoming.ExternalIDs))
		}
		for k, v := range incoming.ExternalIDs {
			out.ExternalIDs[k] = v
		}
	}
	if len(incoming.Metadata) > 0 {
		if out.Metadata == nil {
			out.Metadata = make(map[string]any, len(incoming.Metadata))
		}
		for k, v := range incoming.Metadata {
			out.Metadata[k] = v
		}
	}

	return out
}

func unionStrings(existing, incoming []string) []string {
	if len(incoming) == 0 {
		return existing
	}
	seen := make(map[string]struct{}, len(existing)+len(incoming))
	out := make([]string, 0, len(existing)+len(incoming))
	for _, s := range existing {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	for _, s := range incoming {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}

// unionImages appends images with unseen urls; metadata of already stored
// urls is left untouched.
func unionImages(existing, incoming []catalog.Image) []catalog.Image {
	if len(incoming) == 0 {
		return existing
	}
	seen := make(map[string]struct{}, len(existing))
	for _, img := range existing {
		seen[img.URL] = struct{}{}
	}
	out := existing
	for _, img := range incoming {
		if _, ok := seen[img.URL]; ok {
			continue
		}
		seen[img.URL] = struct{}{}
		out = append(out, img)
	}
	return out
}

// Characters loads a work's character collection.
func (s *Store) Characters(workType catalog.WorkType, workID string) (catalog.CharacterCollection, error) {
	var collection catalog.CharacterCollection
	if err := readJSON(s.charactersPath(workType, workID), &collection); err != nil {
		return catalog.CharacterCollection{}, err
	}
	return collection, nil
}

// CharacterFilter selects characters within a collection. All set filters
// are ANDed together.
type CharacterFilter struct {
	// Name matches case-insensitively as a substring of name or alt names.
	Name string
	// Role requires an exact role match.
	Role catalog.Role
	// Tag requires the tag to be present.
	Tag string
}

// FindCharacters returns the characters of a work matching the filter.
func (s *Store) FindCharacters(
	workType catalog.WorkType,
	workID string,
	filter CharacterFilter,
) ([]catalog.Character, error) {
	collection, err := s.Characters(workType, workID)
	if err != nil {
		return nil, err
	}

	var matches []catalog.Character
	for _, character := range collection.Characters {
		if filter.Name != "" && !matchesName(character, filter.Name) {
			continue
		}
		if filter.Role != "" && character.Role != filter.Role {
			continue
		}
		if filter.Tag != "" && !containsString(character.Tags, filter.Tag) {
			continue
		}
		matches = append(matches, character)
	}
	return matches, nil
}

func matchesName(character catalog.Character, query string) bool {
	query = strings.ToLower(query)
	if strings.Contains(strings.ToLower(character.Name), query) {
		return true
	}
	for _, alt := range character.AltNames {
		if strings.Contains(strings.ToLower(alt), query) {
			return true
		}
	}
	return false
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
