package rawg

import (
	"strconv"
	"strings"

	"charabase/internal/catalog"
)

// Raw RAWG payload shapes, limited to the fields the normalizers read.

type gameListResponse struct {
	Results []rawGame `json:"results"`
}

type rawGame struct {
	ID               int      `json:"id"`
	Slug             string   `json:"slug"`
	Name             string   `json:"name"`
	AlternativeNames []string `json:"alternative_names"`
	DescriptionRaw   string   `json:"description_raw"`
	Released         string   `json:"released"`
	Rating           float64  `json:"rating"`
	Added            int      `json:"added"`
	BackgroundImage  string   `json:"background_image"`
	Genres           []named  `json:"genres"`
	Tags             []named  `json:"tags"`
}

type named struct {
	Name string `json:"name"`
}

type characterListResponse struct {
	Results []rawCharacter `json:"results"`
}

type rawCharacter struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	Aliases     []string `json:"aliases"`
	Role        string   `json:"role"`
	Description string   `json:"description"`
	Image       string   `json:"image"`
}

// NormalizeWork maps a raw RAWG game onto the common Work shape. RAWG
// ratings are on a 5-point scale and are rescaled to 100; library adds
// stand in for popularity.
func NormalizeWork(raw rawGame) catalog.Work {
	genres := make([]string, 0, len(raw.Genres))
	for _, genre := range raw.Genres {
		genres = append(genres, genre.Name)
	}
	tags := make([]string, 0, len(raw.Tags))
	for _, tag := range raw.Tags {
		tags = append(tags, tag.Name)
	}

	var images []catalog.Image
	if raw.BackgroundImage != "" {
		images = append(images, catalog.Image{URL: raw.BackgroundImage, Kind: "background", Source: SourceName})
	}

	id := raw.Slug
	if id == "" {
		id = catalog.Slugify(raw.Name)
	}

	status := ""
	if raw.Released != "" {
		status = "released"
	}

	return catalog.Work{
		ID:          id,
		Type:        catalog.TypeGame,
		Title:       raw.Name,
		AltTitles:   raw.AlternativeNames,
		Source:      SourceName,
		SourceID:    strconv.Itoa(raw.ID),
		Description: strings.TrimSpace(raw.DescriptionRaw),
		Metadata: catalog.WorkMetadata{
			Format:     "game",
			Status:     status,
			Genres:     genres,
			Score:      raw.Rating * 20,
			Popularity: raw.Added,
		},
		Images:      images,
		ExternalIDs: map[string]string{SourceName: strconv.Itoa(raw.ID)},
		Tags:        tags,
	}
}

// NormalizeCharacters maps RAWG character entries onto the common shape.
// Role strings are taken verbatim when they match a known role.
func NormalizeCharacters(entries []rawCharacter, workID string) []catalog.Character {
	characters := make([]catalog.Character, 0, len(entries))
	for _, entry := range entries {
		if entry.Name == "" {
			continue
		}

		role := catalog.RoleOther
		switch catalog.Role(strings.ToLower(entry.Role)) {
		case catalog.RoleProtagonist, catalog.RoleDeuteragonist, catalog.RoleAntagonist,
			catalog.RoleSupporting, catalog.RoleMinor:
			role = catalog.Role(strings.ToLower(entry.Role))
		}

		var images []catalog.Image
		if entry.Image != "" {
			images = append(images, catalog.Image{URL: entry.Image, Kind: "portrait", Source: SourceName})
		}

		characters = append(characters, catalog.Character{
			ID:          catalog.Slugify(entry.Name),
			Name:        entry.Name,
			AltNames:    entry.Aliases,
			Role:        role,
			Description: strings.TrimSpace(entry.Description),
			Images:      images,
			ExternalIDs: map[string]string{
				SourceName: strconv.Itoa(entry.ID),
				"work":     workID,
			},
		})
	}
	return characters
}
