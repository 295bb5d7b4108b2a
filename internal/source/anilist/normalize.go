package anilist

import (
	"regexp"
	"strconv"
	"strings"

	"charabase/internal/catalog"
)

// Raw GraphQL payload shapes. Only the fields the normalizers read are
// declared.

type mediaResponse struct {
	Data struct {
		Media *rawMedia `json:"Media"`
	} `json:"data"`
}

type rawMedia struct {
	ID           int       `json:"id"`
	IDMal        int       `json:"idMal"`
	Title        rawTitle  `json:"title"`
	Synonyms     []string  `json:"synonyms"`
	Description  string    `json:"description"`
	Format       string    `json:"format"`
	Status       string    `json:"status"`
	Genres       []string  `json:"genres"`
	AverageScore float64   `json:"averageScore"`
	Popularity   int       `json:"popularity"`
	Episodes     int       `json:"episodes"`
	Chapters     int       `json:"chapters"`
	CoverImage   rawImage  `json:"coverImage"`
	BannerImage  string    `json:"bannerImage"`
	Tags         []rawTag  `json:"tags"`
}

type rawTitle struct {
	Romaji  string `json:"romaji"`
	English string `json:"english"`
	Native  string `json:"native"`
}

type rawImage struct {
	Large string `json:"large"`
}

type rawTag struct {
	Name string `json:"name"`
}

type charactersResponse struct {
	Data struct {
		Media *struct {
			Characters struct {
				PageInfo struct {
					HasNextPage bool `json:"hasNextPage"`
				} `json:"pageInfo"`
				Edges []characterEdge `json:"edges"`
			} `json:"characters"`
		} `json:"Media"`
	} `json:"data"`
}

type characterEdge struct {
	Role string `json:"role"`
	Node struct {
		ID   int `json:"id"`
		Name struct {
			Full        string   `json:"full"`
			Alternative []string `json:"alternative"`
		} `json:"name"`
		Description string   `json:"description"`
		Image       rawImage `json:"image"`
	} `json:"node"`
}

type discoveryResponse struct {
	Data struct {
		Page struct {
			Media []struct {
				ID         int      `json:"id"`
				Title      rawTitle `json:"title"`
				Popularity int      `json:"popularity"`
				Format     string   `json:"format"`
			} `json:"media"`
		} `json:"Page"`
	} `json:"data"`
}

var htmlTagPattern = regexp.MustCompile(`<[^>]+>`)

// stripMarkup drops the HTML tags AniList embeds in descriptions.
func stripMarkup(s string) string {
	return strings.TrimSpace(htmlTagPattern.ReplaceAllString(s, ""))
}

// NormalizeWork maps a raw AniList media record onto the common Work shape.
// Pure and deterministic; no I/O.
func NormalizeWork(raw rawMedia, workType catalog.WorkType) catalog.Work {
	title := raw.Title.Romaji
	if title == "" {
		title = raw.Title.English
	}

	var altTitles []string
	for _, alt := range append([]string{raw.Title.English, raw.Title.Native}, raw.Synonyms...) {
		if alt != "" && alt != title {
			altTitles = append(altTitles, alt)
		}
	}

	var images []catalog.Image
	if raw.CoverImage.Large != "" {
		images = append(images, catalog.Image{URL: raw.CoverImage.Large, Kind: "cover", Source: SourceName})
	}
	if raw.BannerImage != "" {
		images = append(images, catalog.Image{URL: raw.BannerImage, Kind: "banner", Source: SourceName})
	}

	tags := make([]string, 0, len(raw.Tags))
	for _, tag := range raw.Tags {
		tags = append(tags, tag.Name)
	}

	externalIDs := map[string]string{SourceName: strconv.Itoa(raw.ID)}
	if raw.IDMal != 0 {
		externalIDs["mal"] = strconv.Itoa(raw.IDMal)
	}

	return catalog.Work{
		ID:          catalog.Slugify(title),
		Type:        workType,
		Title:       title,
		AltTitles:   altTitles,
		Source:      SourceName,
		SourceID:    strconv.Itoa(raw.ID),
		Description: stripMarkup(raw.Description),
		Metadata: catalog.WorkMetadata{
			Format:     raw.Format,
			Status:     raw.Status,
			Genres:     raw.Genres,
			Score:      raw.AverageScore,
			Popularity: raw.Popularity,
			Episodes:   raw.Episodes,
			Chapters:   raw.Chapters,
		},
		Images:      images,
		ExternalIDs: externalIDs,
		Tags:        tags,
	}
}

// NormalizeCharacters maps AniList character edges onto the common shape.
// AniList only distinguishes MAIN, SUPPORTING, and BACKGROUND; the first
// MAIN edge becomes the protagonist and later MAIN edges deuteragonists.
func NormalizeCharacters(edges []characterEdge, workID string) []catalog.Character {
	characters := make([]catalog.Character, 0, len(edges))
	seenMain := false
	for _, edge := range edges {
		name := edge.Node.Name.Full
		if name == "" {
			continue
		}

		role := catalog.RoleOther
		switch edge.Role {
		case "MAIN":
			if seenMain {
				role = catalog.RoleDeuteragonist
			} else {
				role = catalog.RoleProtagonist
				seenMain = true
			}
		case "SUPPORTING":
			role = catalog.RoleSupporting
		case "BACKGROUND":
			role = catalog.RoleMinor
		}

		var images []catalog.Image
		if edge.Node.Image.Large != "" {
			images = append(images, catalog.Image{URL: edge.Node.Image.Large, Kind: "portrait", Source: SourceName})
		}

		characters = append(characters, catalog.Character{
			ID:          catalog.Slugify(name),
			Name:        name,
			AltNames:    edge.Node.Name.Alternative,
			Role:        role,
			Description: stripMarkup(edge.Node.Description),
			Images:      images,
			ExternalIDs: map[string]string{
				SourceName: strconv.Itoa(edge.Node.ID),
				"work":     workID,
			},
		})
	}
	return characters
}
