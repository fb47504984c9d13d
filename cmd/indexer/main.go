package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/careerflow-ai/news-rag/internal/adapter/ai"
	"github.com/careerflow-ai/news-rag/internal/adapter/dataset"
	"github.com/careerflow-ai/news-rag/internal/adapter/store"
	"github.com/careerflow-ai/news-rag/internal/chunker"
	"github.com/careerflow-ai/news-rag/internal/port"
	"github.com/careerflow-ai/news-rag/internal/service"
	"github.com/careerflow-ai/news-rag/pkg/config"
	"github.com/joho/godotenv"

	_ "github.com/lib/pq"
)

// The indexer is the sole writer of the corpus store. It runs as a
// batch job: rebuild chunks from the filtered feed, embed what is new,
// persist, then merge and push the instruction dataset.
func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	slog.Info("🔨 Starting indexer",
		"feed", cfg.FilteredFeedPath,
		"store", cfg.StoreBackend,
		"chunk_size", cfg.ChunkSize,
		"chunk_overlap", cfg.ChunkOverlap,
	)

	backend, closer, err := newBackend(cfg)
	if err != nil {
		slog.Error("failed to open corpus store", "error", err)
		os.Exit(1)
	}
	if closer != nil {
		defer closer()
	}

	chk, err := chunker.New(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		slog.Error("invalid chunking settings", "error", err)
		os.Exit(1)
	}

	embedder := ai.NewOllamaEmbedder(ai.OllamaConfig{
		BaseURL: cfg.OllamaEmbedURL,
		Model:   cfg.OllamaEmbedModel,
		Token:   cfg.OllamaEmbedToken,
	})

	docs, err := service.ReadSourceDocuments(cfg.FilteredFeedPath)
	if err != nil {
		slog.Error("failed to read feed", "error", err)
		os.Exit(1)
	}
	if len(docs) == 0 {
		slog.Warn("feed is empty, nothing to index", "path", cfg.FilteredFeedPath)
	}

	ctx := context.Background()

	indexService := service.NewIndexService(embedder, backend, chk)
	added, err := indexService.Run(ctx, docs)
	if err != nil {
		slog.Error("indexing failed", "error", err)
		os.Exit(1)
	}
	slog.Info("indexing done", "chunks_added", added)

	// ── Instruction dataset maintenance ──────────────────────────────────
	var hub port.DatasetHub
	if cfg.DatasetRepo != "" && cfg.DatasetToken != "" {
		hub = dataset.NewHubClient(cfg.DatasetRepo, cfg.DatasetToken)
	}
	datasetService := service.NewDatasetService(hub)

	if _, err := datasetService.Merge(cfg.DatasetBasePath, cfg.DatasetNewPath); err != nil {
		slog.Error("dataset merge failed", "error", err)
		os.Exit(1)
	}

	artifacts := map[string]string{
		cfg.DatasetBasePath: filepath.Base(cfg.DatasetBasePath),
		filepath.Join(cfg.DataDir, "rag_docs.jsonl"): "rag_storage/rag_docs.jsonl",
		filepath.Join(cfg.DataDir, "embeddings.bin"): "rag_storage/embeddings.bin",
		filepath.Join(cfg.DataDir, "emb_ids.jsonl"):  "rag_storage/emb_ids.jsonl",
	}
	if err := datasetService.Push(ctx, artifacts); err != nil {
		slog.Error("dataset push failed", "error", err)
		os.Exit(1)
	}

	slog.Info("✅ Pipeline run complete")
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
