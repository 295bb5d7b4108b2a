// Package app initializes and holds long-lived application services, acting
// as the dependency container for the CLI commands.
package app

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"charabase/internal/cache"
	"charabase/internal/catalog"
	"charabase/internal/config"
	"charabase/internal/logging"
	"charabase/internal/metrics"
	"charabase/internal/source"
	"charabase/internal/source/anilist"
	"charabase/internal/source/jikan"
	"charabase/internal/source/rawg"
	"charabase/internal/store"
)

// App holds the shared, long-lived services: logger, catalog store, work
// cache, and the source client registry. It is built once at startup and
// handed to the commands that need it.
type App struct {
	cfg       config.Config
	logger    *zap.Logger
	catalog   *store.Store
	workCache *cache.WorkCache
	registry  *source.Registry
	fallbacks map[catalog.WorkType]source.Client
}

// New wires every service from the loaded configuration, failing fast if
// any of them cannot be initialized.
func New(cfg config.Config) (*App, error) {
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	zap.ReplaceGlobals(logger)
	metrics.Init()

	catalogStore, err := store.New(cfg.DataDir, logger.Named("store"))
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	workCache, err := cache.Open(filepath.Join(cfg.DataDir, "work-cache.json"))
	if err != nil {
		return nil, fmt.Errorf("open work cache: %w", err)
	}

	registry, fallbacks, err := buildClients(cfg, logger)
	if err != nil {
		return nil, err
	}

	return &App{
		cfg:       cfg,
		logger:    logger,
		catalog:   catalogStore,
		workCache: workCache,
		registry:  registry,
		fallbacks: fallbacks,
	}, nil
}

// buildClients binds AniList to anime and manga, RAWG to games, and keeps
// Jikan available as the alternate anime/manga source.
func buildClients(
	cfg config.Config,
	logger *zap.Logger,
) (*source.Registry, map[catalog.WorkType]source.Client, error) {
	anilistAnime, err := anilist.New(anilistConfig(cfg.Sources.AniList, catalog.TypeAnime), logger.Named("anilist"))
	if err != nil {
		return nil, nil, fmt.Errorf("init anilist anime client: %w", err)
	}
	anilistManga, err := anilist.New(anilistConfig(cfg.Sources.AniList, catalog.TypeManga), logger.Named("anilist"))
	if err != nil {
		return nil, nil, fmt.Errorf("init anilist manga client: %w", err)
	}
	rawgClient, err := rawg.New(rawg.Config{
		BaseURL:   cfg.Sources.RAWG.BaseURL,
		APIKey:    cfg.Sources.RAWG.APIKey,
		Timeout:   cfg.Sources.RAWG.Timeout(),
		RateLimit: cfg.Sources.RAWG.RateLimit(),
		Retry:     cfg.Sources.RAWG.Retry(),
	}, logger.Named("rawg"))
	if err != nil {
		return nil, nil, fmt.Errorf("init rawg client: %w", err)
	}

	registry := source.NewRegistry(map[catalog.WorkType]source.Client{
		catalog.TypeAnime: anilistAnime,
		catalog.TypeManga: anilistManga,
		catalog.TypeGame:  rawgClient,
	})

	fallbacks := make(map[catalog.WorkType]source.Client, 2)
	for _, workType := range []catalog.WorkType{catalog.TypeAnime, catalog.TypeManga} {
		jikanClient, err := jikan.New(jikan.Config{
			BaseURL:   cfg.Sources.Jikan.BaseURL,
			WorkType:  workType,
			Timeout:   cfg.Sources.Jikan.Timeout(),
			RateLimit: cfg.Sources.Jikan.RateLimit(),
			Retry:     cfg.Sources.Jikan.Retry(),
		}, logger.Named("jikan"))
		if err != nil {
			return nil, nil, fmt.Errorf("init jikan %s client: %w", workType, err)
		}
		fallbacks[workType] = jikanClient
	}
	return registry, fallbacks, nil
}

func anilistConfig(src config.SourceConfig, workType catalog.WorkType) anilist.Config {
	return anilist.Config{
		BaseURL:   src.BaseURL,
		WorkType:  workType,
		Timeout:   src.Timeout(),
		RateLimit: src.RateLimit(),
		Retry:     src.Retry(),
	}
}

// Config returns the loaded configuration.
func (a *App) Config() config.Config {
	return a.cfg
}

// Logger returns the shared zap logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Store returns the catalog store.
func (a *App) Store() *store.Store {
	return a.catalog
}

// WorkCache returns the cross-type processed-work cache.
func (a *App) WorkCache() *cache.WorkCache {
	return a.workCache
}

// Client returns the primary source client for a work type.
func (a *App) Client(workType catalog.WorkType) (source.Client, error) {
	return a.registry.ForType(workType)
}

// ClientNamed returns the client for a work type from a specific source,
// so imports can be pointed at the alternate catalog.
func (a *App) ClientNamed(name string, workType catalog.WorkType) (source.Client, error) {
	if name == "" {
		return a.Client(workType)
	}
	primary, err := a.Client(workType)
	if err != nil {
		return nil, err
	}
	if primary.Name() == name {
		return primary, nil
	}
	if fallback, ok := a.fallbacks[workType]; ok && fallback.Name() == name {
		return fallback, nil
	}
	return nil, fmt.Errorf("no %q client available for type %q", name, workType)
}

// Close flushes the logger. Safe to call once at shutdown.
func (a *App) Close() {
	_ = a.logger.Sync()
}
