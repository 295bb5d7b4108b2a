package anilist

import (
	"testing"

	"github.com/stretchr/testify/require"

	"charabase/internal/catalog"
)

func TestNormalizeWork(t *testing.T) {
	t.Parallel()
	raw := rawMedia{
		ID:           20,
		IDMal:        20,
		Title:        rawTitle{Romaji: "Naruto", English: "Naruto", Native: "ナルト"},
		Synonyms:     []string{"NARUTO"},
		Description:  "<p>A young ninja.</p>",
		Format:       "TV",
		Status:       "FINISHED",
		Genres:       []string{"Action"},
		AverageScore: 79,
		Popularity:   250000,
		Episodes:     220,
		CoverImage:   rawImage{Large: "https://img/cover.png"},
		BannerImage:  "https://img/banner.png",
		Tags:         []rawTag{{Name: "Shounen"}},
	}

	work := NormalizeWork(raw, catalog.TypeAnime)

	require.Equal(t, "naruto", work.ID)
	require.Equal(t, catalog.TypeAnime, work.Type)
	require.Equal(t, "Naruto", work.Title)
	require.ElementsMatch(t, []string{"ナルト", "NARUTO"}, work.AltTitles, "title itself excluded from alts")
	require.Equal(t, SourceName, work.Source)
	require.Equal(t, "20", work.SourceID)
	require.Equal(t, "A young ninja.", work.Description, "markup stripped")
	require.Equal(t, 220, work.Metadata.Episodes)
	require.Equal(t, 250000, work.Metadata.Popularity)
	require.Len(t, work.Images, 2)
	require.Equal(t, "20", work.ExternalIDs["mal"])
	require.Equal(t, []string{"Shounen"}, work.Tags)
}

func TestNormalizeCharacters_RoleMapping(t *testing.T) {
	t.Parallel()
	mkEdge := func(name, role string) characterEdge {
		var edge characterEdge
		edge.Role = role
		edge.Node.ID = len(name)
		edge.Node.Name.Full = name
		return edge
	}

	characters := NormalizeCharacters([]characterEdge{
		mkEdge("Hero", "MAIN"),
		mkEdge("Partner", "MAIN"),
		mkEdge("Friend", "SUPPORTING"),
		mkEdge("Villager", "BACKGROUND"),
		mkEdge("Unknown", "CAMEO"),
	}, "show")

	require.Len(t, characters, 5)
	require.Equal(t, catalog.RoleProtagonist, characters[0].Role, "first MAIN is protagonist")
	require.Equal(t, catalog.RoleDeuteragonist, characters[1].Role, "later MAIN is deuteragonist")
	require.Equal(t, catalog.RoleSupporting, characters[2].Role)
	require.Equal(t, catalog.RoleMinor, characters[3].Role)
	require.Equal(t, catalog.RoleOther, characters[4].Role)

	require.Equal(t, "hero", characters[0].ID)
	require.Equal(t, "show", characters[0].ExternalIDs["work"])
}

func TestNormalizeCharacters_SkipsNameless(t *testing.T) {
	t.Parallel()
	var edge characterEdge
	edge.Role = "MAIN"
	characters := NormalizeCharacters([]characterEdge{edge}, "show")
	require.Empty(t, characters)
}

func TestNew_RejectsUnservedType(t *testing.T) {
	t.Parallel()
	_, err := New(Config{BaseURL: "https://graphql.anilist.co", WorkType: catalog.TypeGame}, nil)
	require.Error(t, err)
}
