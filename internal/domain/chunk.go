package domain

// Chunk is a contiguous slice of one source document's text, the atomic
// unit of retrieval. JSON field names match the rag_docs.jsonl artifact.
type Chunk struct {
	ChunkID    string `json:"doc_id"`
	SourceID   string `json:"source_id"`
	ChunkIndex int    `json:"chunk_index"`
	Title      string `json:"title,omitempty"`
	Text       string `json:"text"`
	URL        string `json:"url,omitempty"`
	Published  string `json:"published,omitempty"`
	Feed       string `json:"feed,omitempty"`
}

// RetrievedChunk is a single retrieval hit: a chunk hydrated with its
// source metadata plus the cosine similarity score against the query.
type RetrievedChunk struct {
	ChunkID   string  `json:"chunk_id"`
	Score     float64 `json:"score"`
	Title     string  `json:"title,omitempty"`
	Text      string  `json:"text,omitempty"`
	URL       string  `json:"url,omitempty"`
	Published string  `json:"published,omitempty"`
}
