package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/raggest/internal/api"
	"github.com/dgallion1/raggest/internal/config"
	"github.com/dgallion1/raggest/internal/docstore"
	"github.com/dgallion1/raggest/internal/embed"
	"github.com/dgallion1/raggest/internal/engine"
	"github.com/dgallion1/raggest/internal/enrich"
	"github.com/dgallion1/raggest/internal/finetune"
	"github.com/dgallion1/raggest/internal/llm"
	"github.com/dgallion1/raggest/internal/pipeline"
	"github.com/dgallion1/raggest/internal/retrieve"
	"github.com/dgallion1/raggest/internal/vecstore"
	"github.com/dgallion1/raggest/internal/wiki"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Model clients.
	var llmClient llm.Client
	var llmStats *llm.Stats
	switch cfg.LLMProvider {
	case "anthropic":
		c := llm.NewAnthropicClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
		llmClient, llmStats = c, c.Stats
	default:
		c := llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIChatModel)
		llmClient, llmStats = c, c.Stats
	}
	embedder := embed.NewOpenAIEmbedder(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.EmbedModel, cfg.EmbedDimension, cfg.EmbedBatchSize)

	// Stores.
	docs, err := docstore.Open(cfg.DocstorePath)
	if err != nil {
		log.Error("failed to open docstore", "error", err)
		os.Exit(1)
	}
	var vectors vecstore.Store
	if cfg.VectorBackend == "milvus" {
		connectCtx, connectCancel := context.WithTimeout(ctx, 30*time.Second)
		vectors, err = vecstore.OpenMilvusStore(connectCtx, vecstore.MilvusConfig{
			Address:    cfg.MilvusAddress,
			Username:   cfg.MilvusUsername,
			Password:   cfg.MilvusPassword,
			Database:   cfg.MilvusDatabase,
			Collection: cfg.MilvusCollection,
			Dimension:  cfg.EmbedDimension,
		})
		connectCancel()
	} else {
		vectors, err = vecstore.OpenMemoryStore(cfg.VectorSnapshot)
	}
	if err != nil {
		log.Error("failed to open vector store", "backend", cfg.VectorBackend, "error", err)
		os.Exit(1)
	}

	// Pipeline.
	enricher := enrich.New(llmClient, cfg.MaxQuestions)
	orch := pipeline.NewOrchestrator(cfg, docs, vectors, embedder, enricher, log)
	orch.Start(ctx)

	// Query engine and dataset generator.
	retriever := retrieve.New(embedder, vectors, docs)
	eng := engine.New(retriever, llmClient, cfg.DefaultTopK)
	gen := finetune.NewGenerator(llmClient, finetune.Config{QuestionsPerChunk: cfg.QuestionsPerChunk})
	wikiClient := wiki.NewClient(cfg.WikiBaseURL)

	// HTTP server.
	srv := api.NewServer(orch, eng, gen, wikiClient, llmStats, llmClient.Model(), log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		// Stop accepting requests before draining the pipeline, so no
		// in-flight handler submits to a stopped queue.
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		orch.Stop()

		if err := docs.Save(); err != nil {
			log.Error("docstore save on shutdown failed", "error", err)
		}
		if err := vectors.Close(shutdownCtx); err != nil {
			log.Error("vector store close failed", "error", err)
		}
	}()

	log.Info("starting raggest", "port", cfg.Port, "vector_backend", cfg.VectorBackend, "llm_provider", cfg.LLMProvider)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
