package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/Trafexofive/DeepSearchStack/config"
	"github.com/Trafexofive/DeepSearchStack/types"
)

// Retriever queries a VectorStore for the top-k chunks relevant to a
// query. A disabled or erroring store degrades to an empty result, per
// spec: the orchestrator then falls back to the raw search+scrape context.
type Retriever struct {
	store  VectorStore
	cfg    config.RAGConfig
	logger *zap.Logger
}

// NewRetriever builds a Retriever over store.
func NewRetriever(store VectorStore, cfg config.RAGConfig, logger *zap.Logger) *Retriever {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retriever{store: store, cfg: cfg, logger: logger}
}

// Retrieve returns up to cfg.TopK VectorChunks for query, or an empty
// slice (never an error) if RAG is disabled, the store is nil, or the
// store errors.
func (r *Retriever) Retrieve(ctx context.Context, query string) []types.VectorChunk {
	if !r.cfg.Enabled || r.store == nil {
		return nil
	}

	topK := r.cfg.TopK
	if topK <= 0 {
		topK = 6
	}

	chunks, err := r.store.Query(ctx, query, topK)
	if err != nil {
		r.logger.Warn("vector store query failed, falling back to search context", zap.Error(err))
		return nil
	}
	return chunks
}
