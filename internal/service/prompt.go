package service

import (
	"fmt"
	"strings"

	"github.com/careerflow-ai/news-rag/internal/domain"
)

// chunkDelimiter separates context blocks inside the grounding prompt.
const chunkDelimiter = "\n\n---\n\n"

// BuildGroundingPrompt formats retrieval hits into a prompt that
// constrains the LLM to the supplied news context and asks it to cite
// its sources. Pure formatting; hit order is preserved.
func BuildGroundingPrompt(query string, hits []domain.RetrievedChunk) string {
	blocks := make([]string, len(hits))
	for i, h := range hits {
		blocks[i] = fmt.Sprintf("Title: %s\n%s", h.Title, h.Text)
	}

	prompt := fmt.Sprintf(`You are a factual AI assistant. Use ONLY the following news documents as context:

%s

User question: %s

Give a correct, grounded answer with citations (URLs) at the end.`,
		strings.Join(blocks, chunkDelimiter), query)

	return strings.TrimSpace(prompt)
}
