package crawlqueue

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"charabase/internal/cache"
	"charabase/internal/catalog"
	"charabase/internal/metrics"
	"charabase/internal/source"
	"charabase/internal/store"
)

// Options bound discovery and drain behavior.
type Options struct {
	// DiscoveryMaxPages caps how many listing pages one Discover call pulls.
	DiscoveryMaxPages int
	// DelayBetweenImports is slept between drained items, not after the last.
	DelayBetweenImports time.Duration
	// CharacterPageLimit caps character pagination per work.
	CharacterPageLimit int
}

// Queue drives one work type through discovery, import, and state
// persistence. It is not safe for concurrent use; run one Queue per type,
// each in its own process if desired.
type Queue struct {
	workType  catalog.WorkType
	client    source.Client
	catalog   *store.Store
	workCache *cache.WorkCache
	opts      Options
	logger    *zap.Logger
	now       func() time.Time

	statePath  string
	globalPath string

	state     State
	processed map[string]struct{}
}

// New loads the per-type state file and builds a Queue.
func New(
	workType catalog.WorkType,
	client source.Client,
	catalogStore *store.Store,
	workCache *cache.WorkCache,
	opts Options,
	logger *zap.Logger,
) (*Queue, error) {
	if client == nil || catalogStore == nil || workCache == nil {
		return nil, fmt.Errorf("queue requires a source client, store, and work cache")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.DiscoveryMaxPages <= 0 {
		opts.DiscoveryMaxPages = 1
	}

	dataDir := catalogStore.DataDir()
	q := &Queue{
		workType:   workType,
		client:     client,
		catalog:    catalogStore,
		workCache:  workCache,
		opts:       opts,
		logger:     logger.With(zap.String("type", string(workType))),
		now:        func() time.Time { return time.Now().UTC() },
		statePath:  filepath.Join(dataDir, fmt.Sprintf("crawl-state-%s.json", workType)),
		globalPath: filepath.Join(dataDir, "crawl-state.json"),
	}

	state, err := loadState(q.statePath)
	if err != nil {
		return nil, err
	}
	q.state = state
	q.processed = make(map[string]struct{}, len(state.ProcessedWorks))
	for _, id := range state.ProcessedWorks {
		q.processed[id] = struct{}{}
	}
	return q, nil
}

// QueueLen returns the number of pending entries.
func (q *Queue) QueueLen() int {
	return len(q.state.Queue)
}

// Stats returns a copy of the current crawl stats.
func (q *Queue) Stats() Stats {
	return q.state.Stats
}

// ClearQueue drops all pending entries and persists the state. The
// processed set is untouched; it only ever grows.
func (q *Queue) ClearQueue() error {
	q.state.Queue = nil
	return q.saveState()
}

// Discover pulls popular listings from the source, drops every candidate
// already processed, queued, or cached, and appends the survivors.
func (q *Queue) Discover(ctx context.Context) (int, error) {
	queued := make(map[string]struct{}, len(q.state.Queue))
	for _, entry := range q.state.Queue {
		queued[entry.SourceID] = struct{}{}
	}

	added := 0
	for page := 1; page <= q.opts.DiscoveryMaxPages; page++ {
		if err := ctx.Err(); err != nil {
			break
		}
		candidates, err := q.client.DiscoverPopular(ctx, page)
		if err != nil {
			return added, fmt.Errorf("discover page %d: %w", page, err)
		}
		for _, candidate := range candidates {
			if candidate.SourceID == "" {
				continue
			}
			if _, ok := q.processed[candidate.SourceID]; ok {
				continue
			}
			if _, ok := queued[candidate.SourceID]; ok {
				continue
			}
			if q.workCache.Has(candidate.SourceID) {
				continue
			}
			queued[candidate.SourceID] = struct{}{}
			q.state.Queue = append(q.state.Queue, candidate)
			added++
		}
	}

	q.logger.Info("discovery finished",
		zap.Int("added", added),
		zap.Int("queue_depth", len(q.state.Queue)),
	)
	if err := q.saveState(); err != nil {
		return added, err
	}
	return added, nil
}

// ImportFailure records one failed drain item.
type ImportFailure struct {
	SourceID string
	Title    string
	Err      error
}

// DrainReport summarizes one Crawl call.
type DrainReport struct {
	RunID     string
	Succeeded int
	Failed    int
	Skipped   int
	Failures  []ImportFailure
}

// Crawl drains up to maxWorks queue entries front to back. Each entry gets
// at most one attempt per call: failures are recorded and the entry is
// dropped, so a later discovery pass can resurface it. A failure never
// aborts the loop. The configured delay is slept between items, not after
// the last one.
func (q *Queue) Crawl(ctx context.Context, maxWorks int) (DrainReport, error) {
	report := DrainReport{RunID: uuid.NewString()}
	if maxWorks <= 0 || len(q.state.Queue) == 0 {
		return report, nil
	}

	logger := q.logger.With(zap.String("run_id", report.RunID))
	logger.Info("drain started",
		zap.Int("max_works", maxWorks),
		zap.Int("queue_depth", len(q.state.Queue)),
	)

	count := maxWorks
	if count > len(q.state.Queue) {
		count = len(q.state.Queue)
	}

	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			// Graceful shutdown: keep the unattempted tail queued.
			break
		}
		if i > 0 && q.opts.DelayBetweenImports > 0 {
			if err := sleep(ctx, q.opts.DelayBetweenImports); err != nil {
				break
			}
		}

		entry := q.state.Queue[0]
		q.state.Queue = q.state.Queue[1:]

		// The cache may have been advanced by another process since this
		// entry was queued; re-check before spending API budget.
		if _, ok := q.processed[entry.SourceID]; ok || q.workCache.Has(entry.SourceID) {
			report.Skipped++
			continue
		}

		if err := q.importWork(ctx, entry); err != nil {
			report.Failed++
			report.Failures = append(report.Failures, ImportFailure{
				SourceID: entry.SourceID,
				Title:    entry.Title,
				Err:      err,
			})
			metrics.ObserveImportFailure(string(q.workType), q.client.Name())
			logger.Warn("import failed",
				zap.String("source_id", entry.SourceID),
				zap.String("title", entry.Title),
				zap.Error(err),
			)
		} else {
			report.Succeeded++
		}

		if err := q.saveState(); err != nil {
			return report, err
		}
	}

	q.state.Stats.LastRun = q.now()
	if err := q.saveState(); err != nil {
		return report, err
	}

	logger.Info("drain finished",
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
		zap.Int("skipped", report.Skipped),
	)
	return report, nil
}

// importWork runs the full pipeline for one queue entry: fetch, normalize,
// upsert work and characters, then mark the id processed.
func (q *Queue) importWork(ctx context.Context, entry catalog.Candidate) error {
	work, err := q.client.SearchMedia(ctx, catalog.SearchCriteria{
		SourceID: entry.SourceID,
		Type:     q.workType,
	})
	if err != nil {
		return fmt.Errorf("fetch work %s: %w", entry.SourceID, err)
	}

	stored, err := q.catalog.UpsertWork(q.workType, work.ID, work)
	if err != nil {
		return fmt.Errorf("upsert work %s: %w", work.ID, err)
	}

	characters, err := q.client.CollectCharacters(ctx, entry.SourceID, source.CollectOptions{
		WorkID:   stored.ID,
		MaxPages: q.opts.CharacterPageLimit,
	})
	if err != nil {
		return fmt.Errorf("collect characters for %s: %w", stored.ID, err)
	}

	result, err := q.catalog.UpsertCharacters(q.workType, stored.ID, characters)
	if err != nil {
		return fmt.Errorf("upsert characters for %s: %w", stored.ID, err)
	}

	q.markProcessed(entry.SourceID)
	q.state.Stats.TotalProcessed++
	q.state.Stats.TotalCharacters += result.Total

	if err := q.workCache.MarkProcessed(entry.SourceID, cache.Entry{
		WorkType: string(q.workType),
		Title:    stored.Title,
	}); err != nil {
		return fmt.Errorf("mark cache for %s: %w", entry.SourceID, err)
	}

	metrics.ObserveWorkImported(string(q.workType), q.client.Name())
	metrics.ObserveCharactersCollected(string(q.workType), result.Added)
	q.logger.Info("work imported",
		zap.String("work_id", stored.ID),
		zap.String("source_id", entry.SourceID),
		zap.Int("characters", result.Total),
	)
	return nil
}

func (q *Queue) markProcessed(sourceID string) {
	if _, ok := q.processed[sourceID]; ok {
		return
	}
	q.processed[sourceID] = struct{}{}
	q.state.ProcessedWorks = append(q.state.ProcessedWorks, sourceID)
}

// saveState writes the per-type file, then folds it into the global file.
func (q *Queue) saveState() error {
	metrics.SetCrawlQueueDepth(string(q.workType), len(q.state.Queue))
	if err := writeState(q.statePath, q.state); err != nil {
		return err
	}
	return saveGlobal(q.globalPath, q.state)
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
