package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"go.uber.org/zap"

	"github.com/Trafexofive/DeepSearchStack/config"
	"github.com/Trafexofive/DeepSearchStack/rag"
	"github.com/Trafexofive/DeepSearchStack/types"
)

// ChunkID is a pure function of its inputs, grounded on rag/contextual_retrieval.go's
// sha256-of-content chunk-key idiom: re-embedding the same URL reproduces
// the same chunk-ids.
func ChunkID(url string, index int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s#%d", url, index)))
	return hex.EncodeToString(sum[:])[:32]
}

// Chunker splits scraped content into fixed-size overlapping windows and
// bulk-ingests them into a VectorStore.
type Chunker struct {
	store     VectorStore
	chunker   *rag.DocumentChunker
	cfg       config.RAGConfig
	logger    *zap.Logger
}

// plainTokenizer is a length/4 token-count estimate used only when no
// tiktoken model is configured; NewTiktokenAdapter (rag/tokenizer_adapter.go)
// is preferred whenever a model name is available.
type plainTokenizer struct{}

func (plainTokenizer) CountTokens(text string) int { return len(text) / 4 }
func (plainTokenizer) Encode(text string) []int    { return make([]int, len(text)/4) }

// NewChunker builds a Chunker over store using cfg's chunk size/overlap. If
// tiktokenModel is non-empty, token counts are exact (pkoukk/tiktoken-go);
// otherwise a cheap length/4 estimate is used.
func NewChunker(store VectorStore, cfg config.RAGConfig, tiktokenModel string, logger *zap.Logger) *Chunker {
	if logger == nil {
		logger = zap.NewNop()
	}

	var tokenizer rag.Tokenizer = plainTokenizer{}
	if tiktokenModel != "" {
		if adapter, err := rag.NewTiktokenAdapter(tiktokenModel, logger); err == nil {
			tokenizer = adapter
		} else {
			logger.Warn("tiktoken adapter unavailable, falling back to estimate", zap.Error(err))
		}
	}

	chunkingCfg := rag.ChunkingConfig{
		Strategy:     rag.ChunkingFixed,
		ChunkSize:    cfg.ChunkSize,
		ChunkOverlap: cfg.ChunkOverlap,
	}
	return &Chunker{
		store:   store,
		chunker: rag.NewDocumentChunker(chunkingCfg, tokenizer, logger),
		cfg:     cfg,
		logger:  logger,
	}
}

// Run chunks every scraped page and bulk-ingests the resulting documents.
// All pages' chunks go to the store in one Embed call. An ingest failure is
// logged but non-fatal: the pipeline proceeds without any of this run's
// chunks.
func (c *Chunker) Run(ctx context.Context, query string, pages []types.ScrapedContent) {
	if !c.cfg.Enabled || len(pages) == 0 {
		return
	}

	var docs []EmbedDocument
	for _, page := range pages {
		chunks := c.chunker.ChunkDocument(rag.Document{ID: page.URL, Content: page.Content})
		for i, chunk := range chunks {
			docs = append(docs, EmbedDocument{
				ID:   ChunkID(page.URL, i),
				Text: chunk.Content,
				Metadata: map[string]string{
					"url":         page.URL,
					"title":       page.Title,
					"chunk_index": fmt.Sprintf("%d", i),
					"query":       query,
				},
			})
		}
	}

	if len(docs) == 0 {
		return
	}
	if err := c.store.Embed(ctx, docs); err != nil {
		c.logger.Warn("chunk ingest failed, proceeding without these chunks",
			zap.Int("chunk_count", len(docs)), zap.Error(err))
	}
}
