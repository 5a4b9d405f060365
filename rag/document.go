package rag

// Document is the unit of content every VectorStore, chunker, and
// retriever in this package operates on: an opaque id, its text content,
// an optional embedding vector, and free-form metadata.
type Document struct {
	ID        string                 `json:"id"`
	Content   string                 `json:"content"`
	Embedding []float64              `json:"embedding,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// RetrievalResult is one scored Document returned by a retriever. Score
// fields are populated selectively depending on which retrieval path
// produced the result (vector-only, hybrid, reranked, graph-augmented);
// FinalScore is always set and is what callers sort/filter on.
type RetrievalResult struct {
	Document    Document `json:"document"`
	FinalScore  float64  `json:"final_score"`
	HybridScore float64  `json:"hybrid_score,omitempty"`
	RerankScore float64  `json:"rerank_score,omitempty"`
}
