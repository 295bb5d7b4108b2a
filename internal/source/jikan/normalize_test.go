package jikan

import (
	"testing"

	"github.com/stretchr/testify/require"

	"charabase/internal/catalog"
)

func TestNormalizeWork_RescalesScore(t *testing.T) {
	t.Parallel()
	raw := rawEntry{
		MalID:        21,
		Title:        "One Piece",
		TitleEnglish: "One Piece",
		Synopsis:     "  Pirates.  ",
		Type:         "TV",
		Status:       "Currently Airing",
		Episodes:     1100,
		Score:        8.7,
		Members:      2400000,
		Genres:       []named{{Name: "Adventure"}},
		Themes:       []named{{Name: "Pirates"}},
	}

	work := NormalizeWork(raw, catalog.TypeAnime)

	require.Equal(t, "one-piece", work.ID)
	require.Equal(t, SourceName, work.Source)
	require.Equal(t, "21", work.SourceID)
	require.Equal(t, "Pirates.", work.Description)
	require.InDelta(t, 87.0, work.Metadata.Score, 1e-9, "10-point score rescaled to 100")
	require.Equal(t, 2400000, work.Metadata.Popularity)
	require.Equal(t, []string{"Adventure"}, work.Metadata.Genres)
	require.Equal(t, []string{"Pirates"}, work.Tags)
}

func TestNormalizeCharacters_RoleMapping(t *testing.T) {
	t.Parallel()
	mk := func(name, role string, favorites int) rawCharacterEntry {
		var entry rawCharacterEntry
		entry.Character.MalID = len(name)
		entry.Character.Name = name
		entry.Role = role
		entry.Favorites = favorites
		return entry
	}

	characters := NormalizeCharacters([]rawCharacterEntry{
		mk("Luffy", "Main", 90000),
		mk("Zoro", "Main", 70000),
		mk("Coby", "Supporting", 900),
		mk("Extra", "Cameo", 1),
	}, "one-piece")

	require.Len(t, characters, 4)
	require.Equal(t, catalog.RoleProtagonist, characters[0].Role)
	require.Equal(t, catalog.RoleDeuteragonist, characters[1].Role)
	require.Equal(t, catalog.RoleSupporting, characters[2].Role)
	require.Equal(t, catalog.RoleOther, characters[3].Role)
	require.Equal(t, "one-piece", characters[0].ExternalIDs["work"])
	require.Equal(t, 90000, characters[0].Metadata["favorites"])
}

func TestNew_RejectsUnservedType(t *testing.T) {
	t.Parallel()
	_, err := New(Config{BaseURL: "https://api.jikan.moe/v4", WorkType: catalog.TypeGame}, nil)
	require.Error(t, err)
}
