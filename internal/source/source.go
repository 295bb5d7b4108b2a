// Package source defines the capability interface implemented by each
// external catalog client and the typed registry that selects one per work
// type.
package source

import (
	"context"
	"errors"
	"fmt"

	"charabase/internal/catalog"
)

// ErrWorkNotFound indicates the source has no record matching the criteria.
// It is never retried.
var ErrWorkNotFound = errors.New("work not found on source")

// CollectOptions bounds a character collection pass.
type CollectOptions struct {
	// WorkID is the catalog id the characters will belong to.
	WorkID string
	// MaxPages caps pagination against the source API.
	MaxPages int
}

// Client fetches and normalizes records from one external catalog. Each
// implementation applies its own pagination and rate limit.
type Client interface {
	// Name identifies the source in records, logs, and metrics.
	Name() string
	// SearchMedia fetches a single work by source id or title and returns
	// it normalized.
	SearchMedia(ctx context.Context, criteria catalog.SearchCriteria) (catalog.Work, error)
	// CollectCharacters fetches and normalizes the work's characters.
	CollectCharacters(ctx context.Context, sourceID string, opts CollectOptions) ([]catalog.Character, error)
	// DiscoverPopular returns one page of popular candidates.
	DiscoverPopular(ctx context.Context, page int) ([]catalog.Candidate, error)
}

// Registry dispatches work types to their catalog client.
type Registry struct {
	clients map[catalog.WorkType]Client
}

// NewRegistry builds a registry from explicit type bindings.
func NewRegistry(bindings map[catalog.WorkType]Client) *Registry {
	clients := make(map[catalog.WorkType]Client, len(bindings))
	for workType, client := range bindings {
		clients[workType] = client
	}
	return &Registry{clients: clients}
}

// ForType returns the client serving the given work type.
func (r *Registry) ForType(workType catalog.WorkType) (Client, error) {
	client, ok := r.clients[workType]
	if !ok {
		return nil, fmt.Errorf("no source client registered for type %q", workType)
	}
	return client, nil
}
