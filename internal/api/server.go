// Package api exposes the analyze/validate/merge pipeline as a JSON
// HTTP service.
package api

import (
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"seamerge/internal/ingest"
	"seamerge/internal/merge"
	"seamerge/internal/storage"
	"seamerge/ports"
)

// Server is the HTTP application
type Server struct {
	router       *chi.Mux
	service      *merge.Service
	analyzer     *ingest.DateAnalyzer
	storage      storage.FileStorage
	repo         ports.MergedFileRepository
	analyzeLimit int
}

// Config holds server configuration
type Config struct {
	Port string
}

// NewServer wires the HTTP surface over the merge pipeline
func NewServer(analyzer *ingest.DateAnalyzer, fs storage.FileStorage, repo ports.MergedFileRepository) *Server {
	s := &Server{
		router:       chi.NewRouter(),
		service:      merge.NewService(analyzer, fs, repo),
		analyzer:     analyzer,
		storage:      fs,
		repo:         repo,
		analyzeLimit: 4,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
}

func (s *Server) setupRoutes() {
	s.router.Post("/api/files/analyze", s.handleAnalyzeFiles)
	s.router.Post("/api/files/analyze-stored", s.handleAnalyzeStored)
	s.router.Post("/api/files/{id}/invalidate", s.handleInvalidate)
	s.router.Post("/api/merge/validate", s.handleValidateMerge)
	s.router.Post("/api/merge", s.handleCreateMerge)

	s.router.Get("/api/merged-files", s.handleListMergedFiles)
	s.router.Get("/api/merged-files/{id}/download", s.handleDownloadMergedFile)
	s.router.Delete("/api/merged-files/{id}", s.handleDeleteMergedFile)

	s.router.Get("/health", s.handleHealth)
}

// Router returns the underlying handler, mainly for tests
func (s *Server) Router() http.Handler { return s.router }

// SetAnalyzeConcurrency bounds the fan-out of stored-file analysis.
// A value of 1 forces strictly sequential, in-order processing.
func (s *Server) SetAnalyzeConcurrency(n int) {
	if n > 0 {
		s.analyzeLimit = n
	}
}

// Start runs the HTTP server on the configured port
func (s *Server) Start(config Config) error {
	addr := ":" + config.Port
	log.Printf("[Server] listening on %s", addr)
	if err := http.ListenAndServe(addr, s.router); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}
