// Package catalog defines the record types shared across the ingestion,
// storage, and ranking subsystems.
package catalog

import "time"

// WorkType identifies the kind of cataloged work.
type WorkType string

// Work types known to the catalog.
const (
	TypeAnime WorkType = "anime"
	TypeManga WorkType = "manga"
	TypeGame  WorkType = "game"
)

// WorkTypes lists every supported work type in a stable order.
func WorkTypes() []WorkType {
	return []WorkType{TypeAnime, TypeManga, TypeGame}
}

// ParseWorkType validates a user-supplied type string.
func ParseWorkType(s string) (WorkType, bool) {
	switch WorkType(s) {
	case TypeAnime, TypeManga, TypeGame:
		return WorkType(s), true
	}
	return "", false
}

// Role classifies a character's narrative importance within its work.
type Role string

// Character roles, from most to least central.
const (
	RoleProtagonist  Role = "protagonist"
	RoleDeuteragonist Role = "deuteragonist"
	RoleAntagonist   Role = "antagonist"
	RoleSupporting   Role = "supporting"
	RoleMinor        Role = "minor"
	RoleOther        Role = "other"
)

// Image is a single artwork reference attached to a work or character.
type Image struct {
	URL    string `json:"url"`
	Kind   string `json:"kind,omitempty"`
	Source string `json:"source,omitempty"`
}

// WorkMetadata carries the source-reported descriptive fields of a work.
type WorkMetadata struct {
	Format     string   `json:"format,omitempty"`
	Status     string   `json:"status,omitempty"`
	Genres     []string `json:"genres,omitempty"`
	Score      float64  `json:"score,omitempty"`
	Popularity int      `json:"popularity,omitempty"`
	Episodes   int      `json:"episodes,omitempty"`
	Chapters   int      `json:"chapters,omitempty"`
}

// Work is a cataloged anime, manga, or game entry. Identity is (Type, ID).
type Work struct {
	ID          string            `json:"id"`
	Type        WorkType          `json:"type"`
	Title       string            `json:"title"`
	AltTitles   []string          `json:"alt_titles,omitempty"`
	Source      string            `json:"source"`
	SourceID    string            `json:"source_id"`
	Description string            `json:"description,omitempty"`
	Metadata    WorkMetadata      `json:"metadata"`
	Images      []Image           `json:"images,omitempty"`
	ExternalIDs map[string]string `json:"external_ids,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// Character is a person or entity belonging to a Work. Identity is
// (Work.ID, Character.ID). Rarity and Score are populated only by ranking
// runs, never by ingestion.
type Character struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	AltNames    []string          `json:"alt_names,omitempty"`
	Role        Role              `json:"role"`
	Description string            `json:"description,omitempty"`
	Metadata    map[string]any    `json:"metadata,omitempty"`
	Images      []Image           `json:"images,omitempty"`
	ExternalIDs map[string]string `json:"external_ids,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
	Rarity      string            `json:"rarity,omitempty"`
	Score       float64           `json:"score,omitempty"`
}

// CharacterCollection is the on-disk shape of a work's characters.json.
type CharacterCollection struct {
	WorkID     string      `json:"work_id"`
	Count      int         `json:"count"`
	Characters []Character `json:"characters"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// IndexEntry is the flattened per-type listing consumed by the browse layer.
type IndexEntry struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Source     string   `json:"source"`
	Popularity int      `json:"popularity,omitempty"`
	Score      float64  `json:"score,omitempty"`
	Genres     []string `json:"genres,omitempty"`
}

// Candidate is a work discovered on a source but not yet imported.
type Candidate struct {
	SourceID   string         `json:"sourceId"`
	Title      string         `json:"title"`
	Popularity int            `json:"popularity,omitempty"`
	Metadata   map[string]any `json:"discoveredMetadata,omitempty"`
}

// SearchCriteria selects a single work on a source, by source id or title.
type SearchCriteria struct {
	SourceID string
	Title    string
	Type     WorkType
}
