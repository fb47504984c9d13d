package service

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/careerflow-ai/news-rag/internal/adapter/store"
	"github.com/careerflow-ai/news-rag/internal/chunker"
	"github.com/careerflow-ai/news-rag/internal/domain"
	"github.com/careerflow-ai/news-rag/internal/port"
)

// MinDocumentChars is the minimum article length kept by the filter.
const MinDocumentChars = 300

// urlBlocklist drops articles from hosts that are known placeholders.
var urlBlocklist = []string{"example.com"}

// IndexService rebuilds the chunk set from the source feed and extends
// the corpus with embeddings for chunks not yet indexed. It is the sole
// writer of the corpus store and is meant to run as a batch job, never
// concurrently with another writer.
type IndexService struct {
	embedder port.Embedder
	backend  store.Backend
	chunker  *chunker.Chunker
}

// NewIndexService creates an index service.
func NewIndexService(embedder port.Embedder, backend store.Backend, c *chunker.Chunker) *IndexService {
	return &IndexService{embedder: embedder, backend: backend, chunker: c}
}

// Run executes one indexing pass: filter the feed, rebuild the chunk
// set, embed chunks the corpus has not seen, and persist. When nothing
// new appeared the store is left untouched. Returns the number of
// chunks added.
func (s *IndexService) Run(ctx context.Context, docs []domain.SourceDocument) (int, error) {
	corpus, err := s.backend.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load corpus: %w", err)
	}

	kept := Filter(docs)
	chunks := s.BuildChunks(kept)
	slog.Info("rebuilt chunk set", "documents", len(kept), "chunks", len(chunks))

	updated, added, err := s.extend(ctx, corpus, chunks)
	if err != nil {
		return 0, err
	}
	if added == 0 {
		slog.Info("no new chunks, store left unchanged")
		return 0, nil
	}

	if err := s.backend.Save(ctx, updated); err != nil {
		return 0, fmt.Errorf("save corpus: %w", err)
	}
	slog.Info("corpus extended", "added", added, "total_rows", len(updated.IDs))
	return added, nil
}

// extend selects chunks whose ids are not yet embedded, embeds them in
// one batch, and appends vectors and ids in chunk order. A failed batch
// leaves the corpus untouched: either every new row is appended or none.
func (s *IndexService) extend(ctx context.Context, corpus *store.Corpus, chunks []domain.Chunk) (*store.Corpus, int, error) {
	existing := make(map[string]struct{}, len(corpus.IDs))
	for _, id := range corpus.IDs {
		existing[id] = struct{}{}
	}

	var newChunks []domain.Chunk
	for _, c := range chunks {
		if _, ok := existing[c.ChunkID]; !ok {
			newChunks = append(newChunks, c)
		}
	}
	if len(newChunks) == 0 {
		return corpus, 0, nil
	}

	texts := make([]string, len(newChunks))
	for i, c := range newChunks {
		texts[i] = c.Text
	}
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, 0, fmt.Errorf("embed batch of %d chunks: %w", len(newChunks), err)
	}
	if len(vectors) != len(newChunks) {
		return nil, 0, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(newChunks))
	}
	if dim := corpus.Dimension(); dim > 0 {
		for i, v := range vectors {
			if len(v) != dim {
				return nil, 0, fmt.Errorf("chunk %s: embedding dimension %d, corpus has %d", newChunks[i].ChunkID, len(v), dim)
			}
		}
	}

	updated := &store.Corpus{
		// The chunk record store is rewritten wholesale from the fresh
		// chunk set; ids and matrix rows are append-only.
		Chunks: chunks,
		IDs:    append(append([]string{}, corpus.IDs...), idsOf(newChunks)...),
		Matrix: append(append([][]float32{}, corpus.Matrix...), vectors...),
	}
	if err := updated.Validate(); err != nil {
		return nil, 0, err
	}
	return updated, len(newChunks), nil
}

// BuildChunks splits every document into chunk records, preserving
// document order and per-document chunk order.
func (s *IndexService) BuildChunks(docs []domain.SourceDocument) []domain.Chunk {
	var chunks []domain.Chunk
	for _, doc := range docs {
		chunks = append(chunks, s.chunker.ChunkDocument(doc)...)
	}
	return chunks
}

// Filter applies the retention rules of the upstream pipeline: drop
// records missing id, url, or text, articles shorter than
// MinDocumentChars, blocklisted hosts, and duplicate ids. Rejects are
// logged and skipped, never fatal.
func Filter(docs []domain.SourceDocument) []domain.SourceDocument {
	seen := make(map[string]struct{}, len(docs))
	kept := make([]domain.SourceDocument, 0, len(docs))
	for _, d := range docs {
		switch {
		case d.ID == "" || d.URL == "" || d.Text == "":
			slog.Warn("skipping malformed source record", "id", d.ID, "url", d.URL)
			continue
		case len(strings.TrimSpace(d.Text)) < MinDocumentChars:
			continue
		case blocklisted(d.URL):
			continue
		}
		if _, dup := seen[d.ID]; dup {
			continue
		}
		seen[d.ID] = struct{}{}
		kept = append(kept, d)
	}
	return kept
}

func blocklisted(url string) bool {
	for _, host := range urlBlocklist {
		if strings.Contains(url, host) {
			return true
		}
	}
	return false
}

func idsOf(chunks []domain.Chunk) []string {
	ids := make([]string, len(chunks))
	for i, c := range chunks {
		ids[i] = c.ChunkID
	}
	return ids
}

// ReadSourceDocuments loads the filtered feed file (one JSON record per
// line) produced by the scraping collaborator. Invalid lines are
// skipped with a warning; a missing file yields an empty feed.
func ReadSourceDocuments(path string) ([]domain.SourceDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open feed: %w", err)
	}
	defer f.Close()

	var docs []domain.SourceDocument
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		if len(strings.TrimSpace(sc.Text())) == 0 {
			continue
		}
		var doc domain.SourceDocument
		if err := json.Unmarshal(sc.Bytes(), &doc); err != nil {
			slog.Warn("skipping invalid feed line", "line", line, "error", err)
			continue
		}
		docs = append(docs, doc)
	}
	return docs, sc.Err()
}
