package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"charabase/internal/catalog"
	"charabase/internal/store"
)

const (
	defaultRankingLimit = 100
	maxRankingLimit     = 1000
)

// listWorks handles GET /v1/works/{type}. It returns the flattened browse
// index for the type: {"works": [...], "count": N}.
func (s *Server) listWorks(w http.ResponseWriter, r *http.Request) {
	workType, ok := parseType(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown work type")
		return
	}
	index, err := s.catalog.Index(workType)
	if err != nil {
		s.logger.Error("list works failed", zap.String("type", string(workType)), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list works")
		return
	}
	if index == nil {
		index = []catalog.IndexEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"works": index, "count": len(index)})
}

// getWork handles GET /v1/works/{type}/{id}.
func (s *Server) getWork(w http.ResponseWriter, r *http.Request) {
	workType, ok := parseType(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown work type")
		return
	}
	work, err := s.catalog.Work(workType, chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "work not found")
			return
		}
		s.logger.Error("get work failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load work")
		return
	}
	writeJSON(w, http.StatusOK, work)
}

// listCharacters handles GET /v1/works/{type}/{id}/characters with optional
// name, role, and tag query filters, ANDed together.
func (s *Server) listCharacters(w http.ResponseWriter, r *http.Request) {
	workType, ok := parseType(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown work type")
		return
	}
	q := r.URL.Query()
	filter := store.CharacterFilter{
		Name: q.Get("name"),
		Role: catalog.Role(q.Get("role")),
		Tag:  q.Get("tag"),
	}
	characters, err := s.catalog.FindCharacters(workType, chi.URLParam(r, "id"), filter)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "work not found")
			return
		}
		s.logger.Error("list characters failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list characters")
		return
	}
	if characters == nil {
		characters = []catalog.Character{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"characters": characters, "count": len(characters)})
}

// getRanking handles GET /v1/ranking?tier=&limit=. It serves the last
// persisted ranking snapshot, optionally filtered to one tier and truncated.
func (s *Server) getRanking(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.catalog.RankingSnapshot()
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no ranking has been generated yet")
			return
		}
		s.logger.Error("load ranking failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load ranking")
		return
	}

	q := r.URL.Query()
	if tier := q.Get("tier"); tier != "" {
		filtered := snapshot.Characters[:0:0]
		for _, rc := range snapshot.Characters {
			if string(rc.Rarity) == tier {
				filtered = append(filtered, rc)
			}
		}
		snapshot.Characters = filtered
	}

	limit := defaultRankingLimit
	if limStr := q.Get("limit"); limStr != "" {
		val, err := strconv.Atoi(limStr)
		if err != nil || val <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		if val > maxRankingLimit {
			val = maxRankingLimit
		}
		limit = val
	}
	if len(snapshot.Characters) > limit {
		snapshot.Characters = snapshot.Characters[:limit]
	}
	writeJSON(w, http.StatusOK, snapshot)
}

// getStats handles GET /v1/stats, computing fresh aggregate counts.
func (s *Server) getStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.catalog.Stats()
	if err != nil {
		s.logger.Error("compute stats failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func parseType(r *http.Request) (catalog.WorkType, bool) {
	return catalog.ParseWorkType(chi.URLParam(r, "type"))
}
