// Package anilist implements the AniList GraphQL source client for anime
// and manga.
package anilist

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"charabase/internal/catalog"
	"charabase/internal/ratelimit"
	"charabase/internal/retry"
	"charabase/internal/source"
)

// SourceName is the identifier recorded on normalized records.
const SourceName = "anilist"

const (
	charactersPerPage = 25
	discoveryPerPage  = 50
)

// Config controls the AniList client.
type Config struct {
	BaseURL   string
	WorkType  catalog.WorkType
	Timeout   time.Duration
	RateLimit ratelimit.Config
	Retry     retry.Policy
}

// Client talks to the AniList GraphQL API.
type Client struct {
	baseURL   string
	workType  catalog.WorkType
	mediaType string
	transport *source.Transport
	logger    *zap.Logger
}

// New builds a Client for the configured work type (anime or manga).
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("anilist base url is required")
	}
	var mediaType string
	switch cfg.WorkType {
	case catalog.TypeAnime:
		mediaType = "ANIME"
	case catalog.TypeManga:
		mediaType = "MANGA"
	default:
		return nil, fmt.Errorf("anilist does not serve work type %q", cfg.WorkType)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:   cfg.BaseURL,
		workType:  cfg.WorkType,
		mediaType: mediaType,
		transport: source.NewTransport(SourceName, cfg.Timeout, cfg.RateLimit, cfg.Retry, logger),
		logger:    logger,
	}, nil
}

// Name implements source.Client.
func (c *Client) Name() string {
	return SourceName
}

const mediaQuery = `
query ($id: Int, $search: String, $type: MediaType) {
  Media(id: $id, search: $search, type: $type) {
    id
    idMal
    title { romaji english native }
    synonyms
    description
    format
    status
    genres
    averageScore
    popularity
    episodes
    chapters
    coverImage { large }
    bannerImage
    tags { name }
  }
}`

const charactersQuery = `
query ($id: Int, $page: Int, $perPage: Int) {
  Media(id: $id) {
    characters(page: $page, perPage: $perPage, sort: [ROLE, RELEVANCE]) {
      pageInfo { hasNextPage }
      edges {
        role
        node {
          id
          name { full alternative }
          description
          image { large }
        }
      }
    }
  }
}`

const discoveryQuery = `
query ($page: Int, $perPage: Int, $type: MediaType) {
  Page(page: $page, perPage: $perPage) {
    media(type: $type, sort: POPULARITY_DESC) {
      id
      title { romaji }
      popularity
      format
    }
  }
}`

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

// SearchMedia implements source.Client.
func (c *Client) SearchMedia(ctx context.Context, criteria catalog.SearchCriteria) (catalog.Work, error) {
	variables := map[string]any{"type": c.mediaType}
	switch {
	case criteria.SourceID != "":
		id, err := strconv.Atoi(criteria.SourceID)
		if err != nil {
			return catalog.Work{}, fmt.Errorf("anilist source id %q is not numeric", criteria.SourceID)
		}
		variables["id"] = id
	case criteria.Title != "":
		variables["search"] = criteria.Title
	default:
		return catalog.Work{}, fmt.Errorf("search criteria needs a source id or title")
	}

	var resp mediaResponse
	err := c.transport.PostJSON(ctx, c.baseURL, graphQLRequest{Query: mediaQuery, Variables: variables}, &resp)
	if err != nil {
		return catalog.Work{}, c.mapError(err)
	}
	if resp.Data.Media == nil {
		return catalog.Work{}, source.ErrWorkNotFound
	}
	return NormalizeWork(*resp.Data.Media, c.workType), nil
}

// CollectCharacters implements source.Client, paginating up to
// opts.MaxPages pages of the media's character connection.
func (c *Client) CollectCharacters(ctx context.Context, sourceID string, opts source.CollectOptions) ([]catalog.Character, error) {
	id, err := strconv.Atoi(sourceID)
	if err != nil {
		return nil, fmt.Errorf("anilist source id %q is not numeric", sourceID)
	}
	maxPages := opts.MaxPages
	if maxPages <= 0 {
		maxPages = 1
	}

	var edges []characterEdge
	for page := 1; page <= maxPages; page++ {
		variables := map[string]any{"id": id, "page": page, "perPage": charactersPerPage}
		var resp charactersResponse
		err := c.transport.PostJSON(ctx, c.baseURL, graphQLRequest{Query: charactersQuery, Variables: variables}, &resp)
		if err != nil {
			return nil, c.mapError(err)
		}
		if resp.Data.Media == nil {
			return nil, source.ErrWorkNotFound
		}
		edges = append(edges, resp.Data.Media.Characters.Edges...)
		if !resp.Data.Media.Characters.PageInfo.HasNextPage {
			break
		}
	}

	c.logger.Debug("collected anilist characters",
		zap.String("source_id", sourceID),
		zap.Int("count", len(edges)),
	)
	return NormalizeCharacters(edges, opts.WorkID), nil
}

// DiscoverPopular implements source.Client.
func (c *Client) DiscoverPopular(ctx context.Context, page int) ([]catalog.Candidate, error) {
	if page <= 0 {
		page = 1
	}
	variables := map[string]any{"page": page, "perPage": discoveryPerPage, "type": c.mediaType}
	var resp discoveryResponse
	err := c.transport.PostJSON(ctx, c.baseURL, graphQLRequest{Query: discoveryQuery, Variables: variables}, &resp)
	if err != nil {
		return nil, c.mapError(err)
	}

	candidates := make([]catalog.Candidate, 0, len(resp.Data.Page.Media))
	for _, media := range resp.Data.Page.Media {
		candidates = append(candidates, catalog.Candidate{
			SourceID:   strconv.Itoa(media.ID),
			Title:      media.Title.Romaji,
			Popularity: media.Popularity,
			Metadata:   map[string]any{"format": media.Format},
		})
	}
	return candidates, nil
}

// mapError converts a transport 404 into the not-found sentinel.
func (c *Client) mapError(err error) error {
	var statusErr *retry.StatusError
	if errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound {
		return fmt.Errorf("%w: %s", source.ErrWorkNotFound, statusErr.URL)
	}
	return err
}
