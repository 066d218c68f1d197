package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/raggest/internal/config"
	"github.com/dgallion1/raggest/internal/engine"
	"github.com/dgallion1/raggest/internal/finetune"
	"github.com/dgallion1/raggest/internal/llm"
	"github.com/dgallion1/raggest/internal/pipeline"
	"github.com/dgallion1/raggest/internal/wiki"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API server for raggest.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	engine       *engine.Engine
	generator    *finetune.Generator
	wikiClient   *wiki.Client
	llmStats     *llm.Stats
	llmModel     string
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, eng *engine.Engine, gen *finetune.Generator, wikiClient *wiki.Client, llmStats *llm.Stats, llmModel string, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		engine:       eng,
		generator:    gen,
		wikiClient:   wikiClient,
		llmStats:     llmStats,
		llmModel:     llmModel,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.RaggestAPIKey, s.log))

		r.Post("/api/ingest", s.handleIngest)
		r.Post("/api/ingest/directory", s.handleIngestDir)
		r.Post("/api/ingest/wiki", s.handleIngestWiki)
		r.Get("/api/ingest/{jobID}/status", s.handleIngestStatus)

		r.Post("/api/query", s.handleQuery)
		r.Post("/api/finetune/dataset", s.handleFinetuneDataset)
		r.Get("/api/stats/llm", s.handleLLMStats)

		r.Get("/api/documents", s.handleListDocuments)
		r.Delete("/api/documents/{docID}", s.handleDeleteDocument)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
