package jikan

import (
	"strconv"
	"strings"

	"charabase/internal/catalog"
)

// Raw Jikan v4 payload shapes, limited to the fields the normalizers read.

type entryResponse struct {
	Data *rawEntry `json:"data"`
}

type listResponse struct {
	Data []rawEntry `json:"data"`
}

type rawEntry struct {
	MalID         int      `json:"mal_id"`
	Title         string   `json:"title"`
	TitleEnglish  string   `json:"title_english"`
	TitleJapanese string   `json:"title_japanese"`
	TitleSynonyms []string `json:"title_synonyms"`
	Synopsis      string   `json:"synopsis"`
	Type          string   `json:"type"`
	Status        string   `json:"status"`
	Episodes      int      `json:"episodes"`
	Chapters      int      `json:"chapters"`
	Score         float64  `json:"score"`
	Members       int      `json:"members"`
	Genres        []named  `json:"genres"`
	Themes        []named  `json:"themes"`
	Images        struct {
		JPG struct {
			ImageURL string `json:"image_url"`
		} `json:"jpg"`
	} `json:"images"`
}

type named struct {
	Name string `json:"name"`
}

type charactersResponse struct {
	Data []rawCharacterEntry `json:"data"`
}

type rawCharacterEntry struct {
	Character struct {
		MalID  int    `json:"mal_id"`
		Name   string `json:"name"`
		Images struct {
			JPG struct {
				ImageURL string `json:"image_url"`
			} `json:"jpg"`
		} `json:"images"`
	} `json:"character"`
	Role      string `json:"role"`
	Favorites int    `json:"favorites"`
}

// NormalizeWork maps a raw Jikan entry onto the common Work shape. Jikan
// scores are on a 10-point scale and are rescaled to match AniList's
// 100-point averageScore.
func NormalizeWork(raw rawEntry, workType catalog.WorkType) catalog.Work {
	var altTitles []string
	for _, alt := range append([]string{raw.TitleEnglish, raw.TitleJapanese}, raw.TitleSynonyms...) {
		if alt != "" && alt != raw.Title {
			altTitles = append(altTitles, alt)
		}
	}

	genres := make([]string, 0, len(raw.Genres))
	for _, genre := range raw.Genres {
		genres = append(genres, genre.Name)
	}
	tags := make([]string, 0, len(raw.Themes))
	for _, theme := range raw.Themes {
		tags = append(tags, theme.Name)
	}

	var images []catalog.Image
	if raw.Images.JPG.ImageURL != "" {
		images = append(images, catalog.Image{URL: raw.Images.JPG.ImageURL, Kind: "cover", Source: SourceName})
	}

	return catalog.Work{
		ID:          catalog.Slugify(raw.Title),
		Type:        workType,
		Title:       raw.Title,
		AltTitles:   altTitles,
		Source:      SourceName,
		SourceID:    strconv.Itoa(raw.MalID),
		Description: strings.TrimSpace(raw.Synopsis),
		Metadata: catalog.WorkMetadata{
			Format:     raw.Type,
			Status:     raw.Status,
			Genres:     genres,
			Score:      raw.Score * 10,
			Popularity: raw.Members,
			Episodes:   raw.Episodes,
			Chapters:   raw.Chapters,
		},
		Images:      images,
		ExternalIDs: map[string]string{"mal": strconv.Itoa(raw.MalID)},
		Tags:        tags,
	}
}

// NormalizeCharacters maps Jikan character entries onto the common shape.
// Jikan only distinguishes Main and Supporting; the first Main entry becomes
// the protagonist, later Main entries deuteragonists.
func NormalizeCharacters(entries []rawCharacterEntry, workID string) []catalog.Character {
	characters := make([]catalog.Character, 0, len(entries))
	seenMain := false
	for _, entry := range entries {
		name := entry.Character.Name
		if name == "" {
			continue
		}

		role := catalog.RoleOther
		switch strings.ToLower(entry.Role) {
		case "main":
			if seenMain {
				role = catalog.RoleDeuteragonist
			} else {
				role = catalog.RoleProtagonist
				seenMain = true
			}
		case "supporting":
			role = catalog.RoleSupporting
		}

		var images []catalog.Image
		if entry.Character.Images.JPG.ImageURL != "" {
			images = append(images, catalog.Image{
				URL:    entry.Character.Images.JPG.ImageURL,
				Kind:   "portrait",
				Source: SourceName,
			})
		}

		characters = append(characters, catalog.Character{
			ID:       catalog.Slugify(name),
			Name:     name,
			Role:     role,
			Metadata: map[string]any{"favorites": entry.Favorites},
			Images:   images,
			ExternalIDs: map[string]string{
				"mal":  strconv.Itoa(entry.Character.MalID),
				"work": workID,
			},
		})
	}
	return characters
}
