// Package ranking scores every cataloged character against the whole
// catalog and buckets the scores into rarity tiers.
//
// A run is a full regeneration: global stats, franchise consolidation,
// per-character scoring, percentile tiering, then write-back and a fresh
// snapshot artifact. Runs are deterministic for a given catalog, so
// re-running over unchanged data reproduces the same scores and tiers.
package ranking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"charabase/internal/catalog"
	"charabase/internal/store"
)

// Engine runs ranking passes over a catalog store.
type Engine struct {
	catalog *store.Store
	matcher TitleMatcher
	logger  *zap.Logger
	now     func() time.Time
}

// New builds an Engine. A nil matcher falls back to the default
// PatternMatcher.
func New(catalogStore *store.Store, matcher TitleMatcher, logger *zap.Logger) (*Engine, error) {
	if catalogStore == nil {
		return nil, fmt.Errorf("ranking engine requires a store")
	}
	if matcher == nil {
		matcher = PatternMatcher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		catalog: catalogStore,
		matcher: matcher,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

type scoredCharacter struct {
	workType catalog.WorkType
	workID   string
	id       string
	role     catalog.Role
	score    float64
}

// Run regenerates the global ranking: it scores every character of every
// retained work, stamps scores and tiers back onto the stored collections,
// and persists the snapshot artifact. Works whose records cannot be read
// are skipped with a warning rather than failing the run.
func (e *Engine) Run(ctx context.Context) (catalog.RankingSnapshot, error) {
	records, err := e.loadCatalog(ctx)
	if err != nil {
		return catalog.RankingSnapshot{}, err
	}

	stats := computeGlobalStats(records)
	kept := consolidate(records, e.matcher)
	e.logger.Info("ranking pass started",
		zap.Int("works", len(records)),
		zap.Int("after_consolidation", len(kept)),
	)

	scored := make([]scoredCharacter, 0, len(kept)*8)
	for _, record := range kept {
		for _, character := range record.characters {
			scored = append(scored, scoredCharacter{
				workType: record.work.Type,
				workID:   record.work.ID,
				id:       character.ID,
				role:     character.Role,
				score:    characterScore(record.work, character.Role, len(record.characters), stats),
			})
		}
	}

	snapshot := e.buildSnapshot(scored)
	if err := e.writeBack(ctx, snapshot); err != nil {
		return catalog.RankingSnapshot{}, err
	}
	if err := e.catalog.WriteRankingSnapshot(snapshot); err != nil {
		return catalog.RankingSnapshot{}, err
	}

	e.logger.Info("ranking pass finished",
		zap.Int("characters", snapshot.TotalCharacters),
		zap.Int("legendary", snapshot.Distribution[catalog.TierLegendary]),
	)
	return snapshot, nil
}

// loadCatalog reads every work and its characters. Unreadable records are
// logged and skipped; one corrupt file must not block the whole pass.
func (e *Engine) loadCatalog(ctx context.Context) ([]workRecord, error) {
	var records []workRecord
	for _, workType := range catalog.WorkTypes() {
		ids, err := e.catalog.ListWorkIDs(workType)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			work, err := e.catalog.Work(workType, id)
			if err != nil {
				e.logger.Warn("skipping unreadable work",
					zap.String("type", string(workType)),
					zap.String("work_id", id),
					zap.Error(err),
				)
				continue
			}
			collection, err := e.catalog.Characters(workType, id)
			if err != nil && !errors.Is(err, store.ErrNotFound) {
				e.logger.Warn("skipping unreadable characters",
					zap.String("type", string(workType)),
					zap.String("work_id", id),
					zap.Error(err),
				)
				continue
			}
			records = append(records, workRecord{work: work, characters: collection.Characters})
		}
	}
	return records, nil
}

// buildSnapshot tiers the scored characters and orders them by score
// descending with dense 1-based ranks.
func (e *Engine) buildSnapshot(scored []scoredCharacter) catalog.RankingSnapshot {
	snapshot := catalog.RankingSnapshot{
		GeneratedAt:     e.now(),
		TotalCharacters: len(scored),
		Distribution:    make(map[catalog.Tier]int, 5),
		Characters:      make([]catalog.RankedCharacter, 0, len(scored)),
	}
	if len(scored) == 0 {
		return snapshot
	}

	scores := make([]float64, len(scored))
	for i, sc := range scored {
		scores[i] = sc.score
	}
	pct := percentiles(scores)

	for i, sc := range scored {
		tier := tierFor(pct[i])
		snapshot.Distribution[tier]++
		snapshot.Characters = append(snapshot.Characters, catalog.RankedCharacter{
			ID:       sc.id,
			WorkID:   sc.workID,
			WorkType: sc.workType,
			Role:     sc.role,
			Score:    sc.score,
			Rarity:   tier,
		})
	}

	sort.SliceStable(snapshot.Characters, func(i, j int) bool {
		a, b := snapshot.Characters[i], snapshot.Characters[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.WorkID != b.WorkID {
			return a.WorkID < b.WorkID
		}
		return a.ID < b.ID
	})

	rank := 0
	prev := 0.0
	for i := range snapshot.Characters {
		if i == 0 || snapshot.Characters[i].Score != prev {
			rank++
			prev = snapshot.Characters[i].Score
		}
		snapshot.Characters[i].Rank = rank
	}
	return snapshot
}

// writeBack stamps each retained character's score and tier onto its stored
// collection. Characters of consolidated-away editions keep whatever was on
// disk from earlier runs.
func (e *Engine) writeBack(ctx context.Context, snapshot catalog.RankingSnapshot) error {
	type workKey struct {
		workType catalog.WorkType
		workID   string
	}
	byWork := make(map[workKey]map[string]store.CharacterRank)
	for _, rc := range snapshot.Characters {
		key := workKey{workType: rc.WorkType, workID: rc.WorkID}
		if byWork[key] == nil {
			byWork[key] = make(map[string]store.CharacterRank)
		}
		byWork[key][rc.ID] = store.CharacterRank{Score: rc.Score, Tier: rc.Rarity}
	}

	for key, ranks := range byWork {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.catalog.ApplyCharacterRanks(key.workType, key.workID, ranks); err != nil {
			return fmt.Errorf("apply ranks to %s/%s: %w", key.workType, key.workID, err)
		}
	}
	return nil
}
