package chunker

import (
	"fmt"
	"strings"

	"github.com/careerflow-ai/news-rag/internal/domain"
)

// Default window settings in characters, tuned for news articles.
const (
	DefaultSize    = 2500
	DefaultOverlap = 300
)

// Chunker splits document text into overlapping fixed-size character
// windows. Splitting is deterministic: the same text and settings
// always produce the same chunk sequence, which keeps chunk IDs stable
// across rebuilds.
type Chunker struct {
	size    int
	overlap int
}

// New creates a chunker with the given window size and overlap, both in
// characters. Overlap must be smaller than size and non-negative.
func New(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap <= 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap must be in (0, %d), got %d", size, overlap)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Split cuts text into windows of at most c.size characters, each
// window starting c.size-c.overlap after the previous one. Windows are
// trimmed of surrounding whitespace and all-whitespace windows are
// dropped. Text that fits in a single window yields one chunk.
func (c *Chunker) Split(text string) []string {
	runes := []rune(text)
	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + c.size
		if end > len(runes) {
			end = len(runes)
		}
		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(runes) {
			break
		}
		start = end - c.overlap
	}
	return chunks
}

// ChunkDocument splits one source document and wraps the windows into
// chunk records. Chunk IDs are "<source_id>_c<index>" with a zero-based
// contiguous index, so a rebuild from unchanged text reproduces the
// exact same IDs.
func (c *Chunker) ChunkDocument(doc domain.SourceDocument) []domain.Chunk {
	parts := c.Split(doc.Text)
	chunks := make([]domain.Chunk, 0, len(parts))
	for i, text := range parts {
		chunks = append(chunks, domain.Chunk{
			ChunkID:    fmt.Sprintf("%s_c%d", doc.ID, i),
			SourceID:   doc.ID,
			ChunkIndex: i,
			Title:      doc.Title,
			Text:       text,
			URL:        doc.URL,
			Published:  doc.Published,
			Feed:       doc.Feed,
		})
	}
	return chunks
}
