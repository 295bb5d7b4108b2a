// Package crawlqueue implements the resumable discovery and drain state
// machine that feeds the import pipeline.
package crawlqueue

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gofrs/flock"

	"charabase/internal/catalog"
)

// Stats accumulates crawl progress counters.
type Stats struct {
	TotalProcessed  int       `json:"totalProcessed"`
	TotalCharacters int       `json:"totalCharacters"`
	LastRun         time.Time `json:"lastRun"`
}

// State is the persisted shape of a crawl queue: the monotonically growing
// processed set, the pending queue, and progress stats.
type State struct {
	ProcessedWorks []string            `json:"processedWorks"`
	Queue          []catalog.Candidate `json:"queue"`
	Stats          Stats               `json:"stats"`
}

// loadState reads a state file, returning an empty state when absent.
func loadState(path string) (State, error) {
	var state State
	payload, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return state, nil
		}
		return State{}, fmt.Errorf("read crawl state %s: %w", path, err)
	}
	if err := json.Unmarshal(payload, &state); err != nil {
		return State{}, fmt.Errorf("decode crawl state %s: %w", path, err)
	}
	return state, nil
}

func writeState(path string, state State) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	sort.Strings(state.ProcessedWorks)
	payload, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal crawl state: %w", err)
	}
	if err := os.WriteFile(path, payload, 0o600); err != nil {
		return fmt.Errorf("write crawl state %s: %w (check disk space and permissions)", path, err)
	}
	return nil
}

// mergeIntoGlobal folds a per-type state into the loaded global state:
// processed sets union, numeric stats take the max, and the later LastRun
// wins. The global queue is never touched; it belongs to no single type.
func mergeIntoGlobal(global, local State) State {
	seen := make(map[string]struct{}, len(global.ProcessedWorks)+len(local.ProcessedWorks))
	merged := make([]string, 0, len(global.ProcessedWorks)+len(local.ProcessedWorks))
	for _, id := range append(append([]string{}, global.ProcessedWorks...), local.ProcessedWorks...) {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		merged = append(merged, id)
	}
	global.ProcessedWorks = merged

	if local.Stats.TotalProcessed > global.Stats.TotalProcessed {
		global.Stats.TotalProcessed = local.Stats.TotalProcessed
	}
	if local.Stats.TotalCharacters > global.Stats.TotalCharacters {
		global.Stats.TotalCharacters = local.Stats.TotalCharacters
	}
	if local.Stats.LastRun.After(global.Stats.LastRun) {
		global.Stats.LastRun = local.Stats.LastRun
	}
	return global
}

// saveGlobal merges the per-type state into the global file under a file
// lock. The global file is always read back before writing so a concurrent
// run of another type cannot be clobbered.
func saveGlobal(globalPath string, local State) error {
	lock := flock.New(globalPath + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock global crawl state: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	global, err := loadState(globalPath)
	if err != nil {
		return err
	}
	return writeState(globalPath, mergeIntoGlobal(global, local))
}
