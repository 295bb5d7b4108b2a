// Package api exposes the read-only HTTP interface over the catalog.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"charabase/internal/metrics"
	"charabase/internal/store"
)

const requestTimeout = 30 * time.Second

// Server wires HTTP handlers to the catalog store.
type Server struct {
	router  chi.Router
	catalog *store.Store
	logger  *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(catalogStore *store.Store, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{catalog: catalogStore, logger: logger}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(metricsMiddleware)
	r.Use(timeoutMiddleware(requestTimeout))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Route("/works/{type}", func(r chi.Router) {
			r.Get("/", s.listWorks)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.getWork)
				r.Get("/characters", s.listCharacters)
			})
		})
		r.Get("/ranking", s.getRanking)
		r.Get("/stats", s.getStats)
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	// The store is file-backed; if the process is up it can serve.
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
