package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"charabase/internal/catalog"
	"charabase/internal/store"
)

func newTestServer(t *testing.T) (*httptest.Server, *store.Store) {
	t.Helper()
	s, err := store.New(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	srv := httptest.NewServer(NewServer(s, zap.NewNop()).Handler())
	t.Cleanup(srv.Close)
	return srv, s
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func seedNaruto(t *testing.T, s *store.Store) {
	t.Helper()
	_, err := s.UpsertWork(catalog.TypeAnime, "naruto", catalog.Work{
		ID:       "naruto",
		Type:     catalog.TypeAnime,
		Title:    "Naruto",
		Source:   "anilist",
		Metadata: catalog.WorkMetadata{Popularity: 900, Score: 79},
	})
	require.NoError(t, err)
	_, err = s.UpsertCharacters(catalog.TypeAnime, "naruto", []catalog.Character{
		{ID: "naruto-uzumaki", Name: "Naruto Uzumaki", Role: catalog.RoleProtagonist},
		{ID: "kakashi", Name: "Kakashi Hatake", Role: catalog.RoleSupporting, Tags: []string{"sensei"}},
	})
	require.NoError(t, err)
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(t)

	var body map[string]string
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/healthz", &body))
	require.Equal(t, "ok", body["status"])
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/readyz", nil))
}

func TestRequestIDHeader(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestListWorks(t *testing.T) {
	t.Parallel()
	srv, s := newTestServer(t)
	seedNaruto(t, s)

	var body struct {
		Works []catalog.IndexEntry `json:"works"`
		Count int                  `json:"count"`
	}
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/v1/works/anime", &body))
	require.Equal(t, 1, body.Count)
	require.Equal(t, "naruto", body.Works[0].ID)

	// Empty types return an empty list, not null or 404.
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/v1/works/game", &body))
	require.Zero(t, body.Count)

	require.Equal(t, http.StatusBadRequest, getJSON(t, srv.URL+"/v1/works/podcast", nil))
}

func TestGetWork(t *testing.T) {
	t.Parallel()
	srv, s := newTestServer(t)
	seedNaruto(t, s)

	var work catalog.Work
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/v1/works/anime/naruto", &work))
	require.Equal(t, "Naruto", work.Title)

	require.Equal(t, http.StatusNotFound, getJSON(t, srv.URL+"/v1/works/anime/missing", nil))
}

func TestListCharactersWithFilters(t *testing.T) {
	t.Parallel()
	srv, s := newTestServer(t)
	seedNaruto(t, s)

	var body struct {
		Characters []catalog.Character `json:"characters"`
		Count      int                 `json:"count"`
	}
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/v1/works/anime/naruto/characters", &body))
	require.Equal(t, 2, body.Count)

	require.Equal(t, http.StatusOK,
		getJSON(t, srv.URL+"/v1/works/anime/naruto/characters?role=supporting&tag=sensei", &body))
	require.Equal(t, 1, body.Count)
	require.Equal(t, "kakashi", body.Characters[0].ID)

	require.Equal(t, http.StatusOK,
		getJSON(t, srv.URL+"/v1/works/anime/naruto/characters?name=uzumaki", &body))
	require.Equal(t, 1, body.Count)

	require.Equal(t, http.StatusNotFound,
		getJSON(t, srv.URL+"/v1/works/anime/missing/characters", nil))
}

func TestGetRanking(t *testing.T) {
	t.Parallel()
	srv, s := newTestServer(t)

	require.Equal(t, http.StatusNotFound, getJSON(t, srv.URL+"/v1/ranking", nil),
		"no snapshot exists before the first ranking run")

	require.NoError(t, s.WriteRankingSnapshot(catalog.RankingSnapshot{
		GeneratedAt:     time.Now().UTC(),
		TotalCharacters: 3,
		Distribution:    map[catalog.Tier]int{catalog.TierLegendary: 1, catalog.TierCommon: 2},
		Characters: []catalog.RankedCharacter{
			{ID: "a", WorkID: "w", WorkType: catalog.TypeAnime, Score: 0.9, Rarity: catalog.TierLegendary, Rank: 1},
			{ID: "b", WorkID: "w", WorkType: catalog.TypeAnime, Score: 0.2, Rarity: catalog.TierCommon, Rank: 2},
			{ID: "c", WorkID: "w", WorkType: catalog.TypeAnime, Score: 0.1, Rarity: catalog.TierCommon, Rank: 3},
		},
	}))

	var snapshot catalog.RankingSnapshot
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/v1/ranking", &snapshot))
	require.Len(t, snapshot.Characters, 3)

	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/v1/ranking?tier=common&limit=1", &snapshot))
	require.Len(t, snapshot.Characters, 1)
	require.Equal(t, "b", snapshot.Characters[0].ID)

	require.Equal(t, http.StatusBadRequest, getJSON(t, srv.URL+"/v1/ranking?limit=zero", nil))
}

func TestGetStats(t *testing.T) {
	t.Parallel()
	srv, s := newTestServer(t)
	seedNaruto(t, s)

	var stats store.DatabaseStats
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/v1/stats", &stats))
	require.Equal(t, 1, stats.TotalWorks)
	require.Equal(t, 2, stats.TotalCharacters)
	require.Equal(t, 1, stats.WorksByType["anime"])
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
