package domain

// SourceDocument is one retained article from the upstream scraping and
// filtering pipeline. Field names match the filtered_news.jsonl feed.
type SourceDocument struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	Title     string `json:"title,omitempty"`
	Published string `json:"published,omitempty"`
	Feed      string `json:"feed,omitempty"`
	ScrapedAt string `json:"scraped_at,omitempty"`
	Text      string `json:"text"`
}

// Answer is the full response of the ask endpoint: the original query,
// the grounding prompt that was sent to the LLM, the retrieval hits the
// prompt was built from, and the generated answer.
type Answer struct {
	Query         string           `json:"query"`
	PromptUsed    string           `json:"prompt_used"`
	RetrievedDocs []RetrievedChunk `json:"retrieved_docs"`
	Answer        string           `json:"answer"`
}
