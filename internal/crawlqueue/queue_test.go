package crawlqueue

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"charabase/internal/cache"
	"charabase/internal/catalog"
	"charabase/internal/source"
	"charabase/internal/store"
)

type fakeClient struct {
	pages       map[int][]catalog.Candidate
	works       map[string]catalog.Work
	characters  map[string][]catalog.Character
	failSearch  map[string]error
	searchCalls []string
}

func (f *fakeClient) Name() string { return "fake" }

func (f *fakeClient) SearchMedia(_ context.Context, criteria catalog.SearchCriteria) (catalog.Work, error) {
	f.searchCalls = append(f.searchCalls, criteria.SourceID)
	if err, ok := f.failSearch[criteria.SourceID]; ok {
		return catalog.Work{}, err
	}
	work, ok := f.works[criteria.SourceID]
	if !ok {
		return catalog.Work{}, source.ErrWorkNotFound
	}
	return work, nil
}

func (f *fakeClient) CollectCharacters(_ context.Context, sourceID string, _ source.CollectOptions) ([]catalog.Character, error) {
	return f.characters[sourceID], nil
}

func (f *fakeClient) DiscoverPopular(_ context.Context, page int) ([]catalog.Candidate, error) {
	return f.pages[page], nil
}

func testWork(id string) catalog.Work {
	return catalog.Work{ID: id, Title: id, Source: "fake", SourceID: id}
}

func newTestQueue(t *testing.T, client source.Client, dataDir string) (*Queue, *cache.WorkCache) {
	t.Helper()
	s, err := store.New(dataDir, zap.NewNop())
	require.NoError(t, err)
	workCache, err := cache.Open(filepath.Join(dataDir, "work-cache.json"))
	require.NoError(t, err)
	q, err := New(catalog.TypeAnime, client, s, workCache, Options{DiscoveryMaxPages: 2}, zap.NewNop())
	require.NoError(t, err)
	return q, workCache
}

func TestDiscover_DeduplicatesCandidates(t *testing.T) {
	t.Parallel()
	dataDir := t.TempDir()
	client := &fakeClient{
		pages: map[int][]catalog.Candidate{
			1: {
				{SourceID: "1", Title: "One"},
				{SourceID: "2", Title: "Two"},
				{SourceID: "3", Title: "Three"},
			},
			2: {
				{SourceID: "2", Title: "Two again"},
				{SourceID: "4", Title: "Four"},
			},
		},
	}
	q, workCache := newTestQueue(t, client, dataDir)

	// "1" was processed in an earlier run, "3" is known to the cache.
	q.markProcessed("1")
	require.NoError(t, workCache.MarkProcessed("3", cache.Entry{}))

	added, err := q.Discover(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, added)
	require.Equal(t, 2, q.QueueLen())
	require.Equal(t, "2", q.state.Queue[0].SourceID)
	require.Equal(t, "4", q.state.Queue[1].SourceID)
}

func TestDiscover_NeverQueuesProcessedWork(t *testing.T) {
	t.Parallel()
	client := &fakeClient{
		pages: map[int][]catalog.Candidate{1: {{SourceID: "77", Title: "Known"}}},
	}
	q, _ := newTestQueue(t, client, t.TempDir())
	q.markProcessed("77")

	added, err := q.Discover(context.Background())
	require.NoError(t, err)
	require.Zero(t, added)
	require.Zero(t, q.QueueLen())
}

func TestCrawl_ImportsAndRecordsState(t *testing.T) {
	t.Parallel()
	dataDir := t.TempDir()
	client := &fakeClient{
		works: map[string]catalog.Work{"1": testWork("one"), "2": testWork("two")},
		characters: map[string][]catalog.Character{
			"1": {{ID: "a", Name: "A"}, {ID: "b", Name: "B"}},
			"2": {{ID: "c", Name: "C"}},
		},
	}
	q, workCache := newTestQueue(t, client, dataDir)
	q.state.Queue = []catalog.Candidate{
		{SourceID: "1", Title: "One"},
		{SourceID: "2", Title: "Two"},
	}

	report, err := q.Crawl(context.Background(), 10)
	require.NoError(t, err)
	require.Equal(t, 2, report.Succeeded)
	require.Zero(t, report.Failed)
	require.NotEmpty(t, report.RunID)

	require.Zero(t, q.QueueLen())
	require.Equal(t, 2, q.Stats().TotalProcessed)
	require.Equal(t, 3, q.Stats().TotalCharacters)
	require.False(t, q.Stats().LastRun.IsZero())
	require.True(t, workCache.Has("1"))

	// State survives a reload.
	reloaded, err := New(catalog.TypeAnime, client, mustStore(t, dataDir), workCache, Options{}, zap.NewNop())
	require.NoError(t, err)
	require.Contains(t, reloaded.processed, "1")
	require.Contains(t, reloaded.processed, "2")
}

func mustStore(t *testing.T, dataDir string) *store.Store {
	t.Helper()
	s, err := store.New(dataDir, zap.NewNop())
	require.NoError(t, err)
	return s
}

func TestCrawl_FailureIsIsolatedAndNotRequeued(t *testing.T) {
	t.Parallel()
	client := &fakeClient{
		works:      map[string]catalog.Work{"2": testWork("two")},
		characters: map[string][]catalog.Character{"2": {{ID: "c", Name: "C"}}},
		failSearch: map[string]error{"1": errors.New("schema mismatch")},
	}
	q, _ := newTestQueue(t, client, t.TempDir())
	q.state.Queue = []catalog.Candidate{
		{SourceID: "1", Title: "Broken"},
		{SourceID: "2", Title: "Fine"},
	}

	report, err := q.Crawl(context.Background(), 10)
	require.NoError(t, err, "a failed item must not abort the drain")
	require.Equal(t, 1, report.Succeeded)
	require.Equal(t, 1, report.Failed)
	require.Len(t, report.Failures, 1)
	require.Equal(t, "1", report.Failures[0].SourceID)

	require.Zero(t, q.QueueLen(), "failed entries are dropped, not requeued")
	require.NotContains(t, q.processed, "1", "failed entries stay unprocessed for re-discovery")
}

func TestCrawl_SkipsEntriesProcessedElsewhere(t *testing.T) {
	t.Parallel()
	client := &fakeClient{
		works:      map[string]catalog.Work{"2": testWork("two")},
		characters: map[string][]catalog.Character{"2": nil},
	}
	q, workCache := newTestQueue(t, client, t.TempDir())
	q.state.Queue = []catalog.Candidate{
		{SourceID: "1", Title: "Done elsewhere"},
		{SourceID: "2", Title: "Fresh"},
	}
	// Another process finished "1" after it was queued here.
	require.NoError(t, workCache.MarkProcessed("1", cache.Entry{}))

	report, err := q.Crawl(context.Background(), 10)
	require.NoError(t, err)
	require.Equal(t, 1, report.Skipped)
	require.Equal(t, 1, report.Succeeded)
	require.Equal(t, []string{"2"}, client.searchCalls, "no API call spent on the skipped entry")
}

func TestCrawl_RespectsMaxWorks(t *testing.T) {
	t.Parallel()
	client := &fakeClient{
		works:      map[string]catalog.Work{"1": testWork("one"), "2": testWork("two")},
		characters: map[string][]catalog.Character{},
	}
	q, _ := newTestQueue(t, client, t.TempDir())
	q.state.Queue = []catalog.Candidate{
		{SourceID: "1"}, {SourceID: "2"},
	}

	report, err := q.Crawl(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 1, report.Succeeded)
	require.Equal(t, 1, q.QueueLen())
}

func TestCrawl_CanceledContextKeepsTail(t *testing.T) {
	t.Parallel()
	client := &fakeClient{
		works:      map[string]catalog.Work{"1": testWork("one")},
		characters: map[string][]catalog.Character{},
	}
	q, _ := newTestQueue(t, client, t.TempDir())
	q.state.Queue = []catalog.Candidate{{SourceID: "1"}, {SourceID: "2"}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := q.Crawl(ctx, 10)
	require.NoError(t, err)
	require.Zero(t, report.Succeeded)
	require.Equal(t, 2, q.QueueLen(), "unattempted entries stay queued on shutdown")
}

func TestSaveGlobal_MergesAcrossTypes(t *testing.T) {
	t.Parallel()
	dataDir := t.TempDir()
	globalPath := filepath.Join(dataDir, "crawl-state.json")

	animeState := State{
		ProcessedWorks: []string{"a1", "a2"},
		Stats:          Stats{TotalProcessed: 2, TotalCharacters: 30},
	}
	mangaState := State{
		ProcessedWorks: []string{"m1", "a1"},
		Stats:          Stats{TotalProcessed: 1, TotalCharacters: 50},
	}

	require.NoError(t, saveGlobal(globalPath, animeState))
	require.NoError(t, saveGlobal(globalPath, mangaState))

	global, err := loadState(globalPath)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"a1", "a2", "m1"}, global.ProcessedWorks,
		"global processed set is the union of all types")
	require.Equal(t, 2, global.Stats.TotalProcessed, "numeric stats take the max")
	require.Equal(t, 50, global.Stats.TotalCharacters)
}

func TestClearQueue_KeepsProcessedSet(t *testing.T) {
	t.Parallel()
	client := &fakeClient{}
	q, _ := newTestQueue(t, client, t.TempDir())
	q.markProcessed("1")
	q.state.Queue = []catalog.Candidate{{SourceID: "9"}}

	require.NoError(t, q.ClearQueue())
	require.Zero(t, q.QueueLen())
	require.Contains(t, q.processed, "1")

	state, err := loadState(q.statePath)
	require.NoError(t, err)
	require.Empty(t, state.Queue)
	require.Equal(t, []string{"1"}, state.ProcessedWorks)
}
