// Package jikan implements the Jikan (MyAnimeList) REST source client. It
// serves as the enrichment fallback for anime and manga when AniList is
// rate limited.
package jikan

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"charabase/internal/catalog"
	"charabase/internal/ratelimit"
	"charabase/internal/retry"
	"charabase/internal/source"
)

// SourceName is the identifier recorded on normalized records.
const SourceName = "jikan"

// Config controls the Jikan client.
type Config struct {
	BaseURL   string
	WorkType  catalog.WorkType
	Timeout   time.Duration
	RateLimit ratelimit.Config
	Retry     retry.Policy
}

// Client talks to the Jikan v4 REST API.
type Client struct {
	baseURL   string
	workType  catalog.WorkType
	kind      string // "anime" or "manga" path segment
	transport *source.Transport
	logger    *zap.Logger
}

// New builds a Client for the configured work type.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("jikan base url is required")
	}
	var kind string
	switch cfg.WorkType {
	case catalog.TypeAnime:
		kind = "anime"
	case catalog.TypeManga:
		kind = "manga"
	default:
		return nil, fmt.Errorf("jikan does not serve work type %q", cfg.WorkType)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:   cfg.BaseURL,
		workType:  cfg.WorkType,
		kind:      kind,
		transport: source.NewTransport(SourceName, cfg.Timeout, cfg.RateLimit, cfg.Retry, logger),
		logger:    logger,
	}, nil
}

// Name implements source.Client.
func (c *Client) Name() string {
	return SourceName
}

// SearchMedia implements source.Client.
func (c *Client) SearchMedia(ctx context.Context, criteria catalog.SearchCriteria) (catalog.Work, error) {
	switch {
	case criteria.SourceID != "":
		var resp entryResponse
		endpoint := fmt.Sprintf("%s/%s/%s", c.baseURL, c.kind, criteria.SourceID)
		if err := c.transport.GetJSON(ctx, endpoint, &resp); err != nil {
			return catalog.Work{}, mapNotFound(err)
		}
		if resp.Data == nil {
			return catalog.Work{}, source.ErrWorkNotFound
		}
		return NormalizeWork(*resp.Data, c.workType), nil

	case criteria.Title != "":
		endpoint := fmt.Sprintf("%s/%s?q=%s&limit=1", c.baseURL, c.kind, url.QueryEscape(criteria.Title))
		var resp listResponse
		if err := c.transport.GetJSON(ctx, endpoint, &resp); err != nil {
			return catalog.Work{}, mapNotFound(err)
		}
		if len(resp.Data) == 0 {
			return catalog.Work{}, source.ErrWorkNotFound
		}
		return NormalizeWork(resp.Data[0], c.workType), nil

	default:
		return catalog.Work{}, fmt.Errorf("search criteria needs a source id or title")
	}
}

// CollectCharacters implements source.Client. Jikan returns the full
// character list in one call; MaxPages is ignored.
func (c *Client) CollectCharacters(ctx context.Context, sourceID string, opts source.CollectOptions) ([]catalog.Character, error) {
	endpoint := fmt.Sprintf("%s/%s/%s/characters", c.baseURL, c.kind, sourceID)
	var resp charactersResponse
	if err := c.transport.GetJSON(ctx, endpoint, &resp); err != nil {
		return nil, mapNotFound(err)
	}

	c.logger.Debug("collected jikan characters",
		zap.String("source_id", sourceID),
		zap.Int("count", len(resp.Data)),
	)
	return NormalizeCharacters(resp.Data, opts.WorkID), nil
}

// DiscoverPopular implements source.Client using the top listings.
func (c *Client) DiscoverPopular(ctx context.Context, page int) ([]catalog.Candidate, error) {
	if page <= 0 {
		page = 1
	}
	endpoint := fmt.Sprintf("%s/top/%s?page=%d", c.baseURL, c.kind, page)
	var resp listResponse
	if err := c.transport.GetJSON(ctx, endpoint, &resp); err != nil {
		return nil, mapNotFound(err)
	}

	candidates := make([]catalog.Candidate, 0, len(resp.Data))
	for _, entry := range resp.Data {
		candidates = append(candidates, catalog.Candidate{
			SourceID:   fmt.Sprintf("%d", entry.MalID),
			Title:      entry.Title,
			Popularity: entry.Members,
			Metadata:   map[string]any{"type": entry.Type},
		})
	}
	return candidates, nil
}

func mapNotFound(err error) error {
	var statusErr *retry.StatusError
	if errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound {
		return fmt.Errorf("%w: %s", source.ErrWorkNotFound, statusErr.URL)
	}
	return err
}
