// Package rawg implements the RAWG REST source client for games.
package rawg

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
const SourceName = "rawg"

const discoveryPageSize = 40

// Config controls the RAWG client.
type Config struct {
	BaseURL   string
	APIKey    string
	Timeout   time.Duration
	RateLimit ratelimit.Config
	Retry     retry.Policy
}

// Client talks to the RAWG games API.
type Client struct {
	baseURL   string
	apiKey    string
	transport *source.Transport
	logger    *zap.Logger
}

// New builds a Client.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("rawg base url is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:   cfg.BaseURL,
		apiKey:    cfg.APIKey,
		transport: source.NewTransport(SourceName, cfg.Timeout, cfg.RateLimit, cfg.Retry, logger),
		logger:    logger,
	}, nil
}

// Name implements source.Client.
func (c *Client) Name() string {
	return SourceName
}

func (c *Client) endpoint(path string, params url.Values) string {
	if params == nil {
		params = url.Values{}
	}
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}
	if len(params) == 0 {
		return c.baseURL + path
	}
	return c.baseURL + path + "?" + params.Encode()
}

// SearchMedia implements source.Client.
func (c *Client) SearchMedia(ctx context.Context, criteria catalog.SearchCriteria) (catalog.Work, error) {
	switch {
	case criteria.SourceID != "":
		var raw rawGame
		if err := c.transport.GetJSON(ctx, c.endpoint("/games/"+criteria.SourceID, nil), &raw); err != nil {
			return catalog.Work{}, mapNotFound(err)
		}
		if raw.ID == 0 {
			return catalog.Work{}, source.ErrWorkNotFound
		}
		return NormalizeWork(raw), nil

	case criteria.Title != "":
		params := url.Values{}
		params.Set("search", criteria.Title)
		params.Set("page_size", "1")
		var resp gameListResponse
		if err := c.transport.GetJSON(ctx, c.endpoint("/games", params), &resp); err != nil {
			return catalog.Work{}, mapNotFound(err)
		}
		if len(resp.Results) == 0 {
			return catalog.Work{}, source.ErrWorkNotFound
		}
		// The search listing is shallow; refetch the full record.
		return c.SearchMedia(ctx, catalog.SearchCriteria{
			SourceID: fmt.Sprintf("%d", resp.Results[0].ID),
			Type:     catalog.TypeGame,
		})

	default:
		return catalog.Work{}, fmt.Errorf("search criteria needs a source id or title")
	}
}

// CollectCharacters implements source.Client. Character data is sparse on
// RAWG; a missing characters listing yields an empty batch, not an error.
func (c *Client) CollectCharacters(ctx context.Context, sourceID string, opts source.CollectOptions) ([]catalog.Character, error) {
	var resp characterListResponse
	err := c.transport.GetJSON(ctx, c.endpoint("/games/"+sourceID+"/characters", nil), &resp)
	if err != nil {
		var statusErr *retry.StatusError
		if errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound {
			c.logger.Debug("no character listing for game", zap.String("source_id", sourceID))
			return nil, nil
		}
		return nil, err
	}

	return NormalizeCharacters(resp.Results, opts.WorkID), nil
}

// DiscoverPopular implements source.Client, ordering by library adds.
func (c *Client) DiscoverPopular(ctx context.Context, page int) ([]catalog.Candidate, error) {
	if page <= 0 {
		page = 1
	}
	params := url.Values{}
	params.Set("ordering", "-added")
	params.Set("page", fmt.Sprintf("%d", page))
	params.Set("page_size", fmt.Sprintf("%d", discoveryPageSize))

	var resp gameListResponse
	if err := c.transport.GetJSON(ctx, c.endpoint("/games", params), &resp); err != nil {
		return nil, mapNotFound(err)
	}

	candidates := make([]catalog.Candidate, 0, len(resp.Results))
	for _, game := range resp.Results {
		candidates = append(candidates, catalog.Candidate{
			SourceID:   fmt.Sprintf("%d", game.ID),
			Title:      game.Name,
			Popularity: game.Added,
			Metadata:   map[string]any{"slug": game.Slug},
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
