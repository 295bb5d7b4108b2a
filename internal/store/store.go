// Package store owns the on-disk catalog layout and implements the
// idempotent merge-writer for works and character collections.
//
// Layout under the data directory:
//
//	<type>/<workId>/info.json        one Work
//	<type>/<workId>/characters.json  CharacterCollection
//	<type>/index.json                flattened browse listing
//	character-ranking.json           ranking snapshot
//	database-stats.json              aggregate counts
//
// All writes are whole-file rewrites; a failed write never leaves a
// partially updated record behind an already persisted one.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"

	"charabase/internal/catalog"
)

// ErrNotFound is returned when a requested work or collection is absent.
var ErrNotFound = errors.New("record not found")

// Store reads and writes catalog records rooted at a data directory.
type Store struct {
	dataDir string
	logger  *zap.Logger
	now     func() time.Time
}

// New creates a Store rooted at dataDir, creating the directory if needed.
func New(dataDir string, logger *zap.Logger) (*Store, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("data directory is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return nil, fmt.Errorf("create data directory %s: %w (check path and permissions)", dataDir, err)
	}
	return &Store{
		dataDir: dataDir,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

// DataDir returns the root directory of the catalog.
func (s *Store) DataDir() string {
	return s.dataDir
}

func (s *Store) workDir(workType catalog.WorkType, workID string) string {
	return filepath.Join(s.dataDir, string(workType), workID)
}

func (s *Store) infoPath(workType catalog.WorkType, workID string) string {
	return filepath.Join(s.workDir(workType, workID), "info.json")
}

func (s *Store) charactersPath(workType catalog.WorkType, workID string) string {
	return filepath.Join(s.workDir(workType, workID), "characters.json")
}

func (s *Store) indexPath(workType catalog.WorkType) string {
	return filepath.Join(s.dataDir, string(workType), "index.json")
}

// readJSON loads path into v, mapping a missing file to ErrNotFound.
func readJSON(path string, v any) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// writeJSON rewrites path in full with indented JSON.
func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, payload, 0o600); err != nil {
		return fmt.Errorf("write %s: %w (check disk space and permissions)", path, err)
	}
	return nil
}

// Work loads a single work record.
func (s *Store) Work(workType catalog.WorkType, workID string) (catalog.Work, error) {
	var work catalog.Work
	if err := readJSON(s.infoPath(workType, workID), &work); err != nil {
		return catalog.Work{}, err
	}
	return work, nil
}

// ListWorkIDs returns the ids of every stored work of the given type.
func (s *Store) ListWorkIDs(workType catalog.WorkType) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.dataDir, string(workType)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list %s works: %w", workType, err)
	}
	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			ids = append(ids, entry.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Index loads the flattened browse listing for a type.
func (s *Store) Index(workType catalog.WorkType) ([]catalog.IndexEntry, error) {
	var index []catalog.IndexEntry
	if err := readJSON(s.indexPath(workType), &index); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return index, nil
}
