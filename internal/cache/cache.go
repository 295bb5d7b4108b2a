// Package cache persists the set of already-processed source identifiers so
// discovery can short-circuit re-imports across runs.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Entry records when and how a work was processed.
type Entry struct {
	ProcessedAt time.Time      `json:"processedAt"`
	WorkType    string         `json:"workType,omitempty"`
	Title       string         `json:"title,omitempty"`
	Extra       map[string]any `json:"extra,omitempty"`
}

// WorkCache is a small persistent map of source id to processing record,
// stored as a single JSON file.
type WorkCache struct {
	path    string
	entries map[string]Entry
	now     func() time.Time
}

// Open loads the cache file, creating an empty cache when absent.
func Open(path string) (*WorkCache, error) {
	c := &WorkCache{
		path:    path,
		entries: make(map[string]Entry),
		now:     func() time.Time { return time.Now().UTC() },
	}
	payload, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return c, nil
		}
		return nil, fmt.Errorf("read work cache %s: %w", path, err)
	}
	if err := json.Unmarshal(payload, &c.entries); err != nil {
		return nil, fmt.Errorf("decode work cache %s: %w", path, err)
	}
	return c, nil
}

// Has reports whether the source id was already processed.
func (c *WorkCache) Has(sourceID string) bool {
	_, ok := c.entries[sourceID]
	return ok
}

// Len returns the number of cached ids.
func (c *WorkCache) Len() int {
	return len(c.entries)
}

// MarkProcessed records the source id and persists the cache.
func (c *WorkCache) MarkProcessed(sourceID string, entry Entry) error {
	if sourceID == "" {
		return fmt.Errorf("source id is required")
	}
	if entry.ProcessedAt.IsZero() {
		entry.ProcessedAt = c.now()
	}
	c.entries[sourceID] = entry
	return c.save()
}

func (c *WorkCache) save() error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o750); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}
	payload, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal work cache: %w", err)
	}
	if err := os.WriteFile(c.path, payload, 0o600); err != nil {
		return fmt.Errorf("write work cache %s: %w (check disk space and permissions)", c.path, err)
	}
	return nil
}
