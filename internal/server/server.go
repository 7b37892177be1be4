// Package server provides the HTTP API for Annai.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/annai/internal/chat"
	"github.com/hyperjump/annai/internal/config"
	"github.com/hyperjump/annai/internal/embedding"
	"github.com/hyperjump/annai/internal/history"
	"github.com/hyperjump/annai/internal/ingest"
	"github.com/hyperjump/annai/internal/profile"
	"github.com/hyperjump/annai/internal/retrieval"
)

// Server is the HTTP server for the Annai API.
type Server struct {
	orchestrator *chat.Orchestrator
	history      *history.Store
	profiles     *profile.Store
	builder      *ingest.Builder
	embedder     embedding.Embedder
	config       *config.Config
	logger       *zap.Logger
	server       *http.Server

	mu    sync.Mutex
	index *ingest.KnowledgeIndex
}

// NewServer creates a server with the given dependencies. index is the
// knowledge index built at startup; rebuilds replace it.
func NewServer(
	orchestrator *chat.Orchestrator,
	hist *history.Store,
	profiles *profile.Store,
	builder *ingest.Builder,
	embedder embedding.Embedder,
	index *ingest.KnowledgeIndex,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		orchestrator: orchestrator,
		history:      hist,
		profiles:     profiles,
		builder:      builder,
		embedder:     embedder,
		index:        index,
		config:       cfg,
		logger:       logger,
	}
}

// Router builds the chi router with all routes and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/chat", s.handleChat)
	r.Get("/api/v1/sessions", s.handleListSessions)
	r.Post("/api/v1/sessions", s.handleNewSession)
	r.Put("/api/v1/sessions/{id}/activate", s.handleActivateSession)
	r.Get("/api/v1/profile", s.handleGetProfile)
	r.Put("/api/v1/profile", s.handleReplaceProfile)
	r.Delete("/api/v1/profile", s.handleResetProfile)
	r.Put("/api/v1/apikey", s.handleSetAPIKey)
	r.Post("/api/v1/index/rebuild", s.handleRebuildIndex)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)

	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// indexSize returns the chunk count of the current knowledge index.
func (s *Server) indexSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index == nil {
		return 0
	}
	return s.index.Size()
}

// swapIndex replaces the current index and re-points the orchestrator's
// retriever at it.
func (s *Server) swapIndex(idx *ingest.KnowledgeIndex) {
	s.mu.Lock()
	s.index = idx
	s.mu.Unlock()
	s.orchestrator.SetIndex(retrieval.NewRetriever(idx, s.embedder))
}
