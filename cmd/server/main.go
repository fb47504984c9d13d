package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/careerflow-ai/news-rag/internal/adapter/ai"
	"github.com/careerflow-ai/news-rag/internal/adapter/store"
	"github.com/careerflow-ai/news-rag/internal/handler"
	"github.com/careerflow-ai/news-rag/internal/port"
	"github.com/careerflow-ai/news-rag/internal/service"
	"github.com/careerflow-ai/news-rag/pkg/config"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/joho/godotenv"

	_ "github.com/lib/pq"
)

func main() {
	// ── Load .env file ───────────────────────────────────────────────────
	_ = godotenv.Load() // silently ignore if .env doesn't exist

	// ── Configuration ────────────────────────────────────────────────────
	cfg := config.Load()

	slog.Info("🚀 Starting CareerFlow RAG",
		"port", cfg.Port,
		"store", cfg.StoreBackend,
		"ollama_embed", cfg.OllamaEmbedURL,
	)

	// ── Corpus store ─────────────────────────────────────────────────────
	backend, closer, err := newBackend(cfg)
	if err != nil {
		slog.Error("failed to open corpus store", "error", err)
		os.Exit(1)
	}
	if closer != nil {
		defer closer()
	}

	// The corpus is loaded once and shared read-only across requests;
	// the indexer is a separate process, so a stale snapshot until
	// restart is acceptable. A misaligned store is refused outright.
	corpus, err := backend.Load(context.Background())
	if err != nil {
		slog.Error("failed to load corpus", "error", err)
		os.Exit(1)
	}
	if corpus.Empty() {
		slog.Warn("no embeddings indexed yet, retrieval will report the index as unavailable")
	} else {
		slog.Info("corpus loaded", "chunks", len(corpus.Chunks), "rows", len(corpus.IDs), "dimension", corpus.Dimension())
	}

	// ── Adapters ─────────────────────────────────────────────────────────
	embedder := ai.NewOllamaEmbedder(ai.OllamaConfig{
		BaseURL: cfg.OllamaEmbedURL,
		Model:   cfg.OllamaEmbedModel,
		Token:   cfg.OllamaEmbedToken,
	})

	var providers []port.AnswerProvider
	if cfg.BytezAPIKey != "" {
		providers = append(providers, ai.NewBytezProvider(cfg.BytezAPIKey, cfg.BytezModel))
	}
	if cfg.GoogleAPIKey != "" {
		providers = append(providers, ai.NewGeminiProvider(cfg.GoogleAPIKey, cfg.GeminiModel))
	}
	if cfg.HFAPIKey != "" {
		providers = append(providers, ai.NewHuggingFaceProvider(cfg.HFAPIKey, cfg.HFModel))
	}
	chain := ai.NewChain(providers...)
	if len(providers) == 0 {
		slog.Warn("no answer providers configured, /ask will return the fallback message")
	} else {
		slog.Info("answer providers", "chain", chain.Name())
	}

	// ── Services ─────────────────────────────────────────────────────────
	retrievalService := service.NewRetrievalService(embedder, corpus, chain, cfg.DefaultTopK)

	// ── Fiber App ────────────────────────────────────────────────────────
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: []string{cfg.FrontendURL},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
	}))

	// Health check
	app.Get("/api/v1/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"app":     cfg.AppName,
			"indexed": len(corpus.IDs),
		})
	})

	api := app.Group("/api/v1")

	ragHandler := handler.NewRAGHandler(retrievalService)
	ragHandler.Register(api)

	// ── Start ────────────────────────────────────────────────────────────
	slog.Info("🌐 Fiber listening", "port", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

// newBackend selects the corpus store implementation from config.
func newBackend(cfg *config.Config) (store.Backend, func() error, error) {
	if cfg.StoreBackend == "postgres" {
		pg, err := store.NewPostgresStore(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return pg, pg.Close, nil
	}
	fs, err := store.NewFileStore(cfg.DataDir)
	if err != nil {
		return nil, nil, err
	}
	return fs, nil, nil
}
