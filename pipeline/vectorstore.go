package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/Trafexofive/DeepSearchStack/rag"
	"github.com/Trafexofive/DeepSearchStack/types"
)

// EmbedDocument is one unit handed to the vector store for embedding and
// storage.
type EmbedDocument struct {
	ID       string
	Text     string
	Metadata map[string]string
}

// VectorStore is the opaque embedding/retrieval collaborator: embedding
// happens upstream, inside the store, not in this process. Treated per
// spec as a thin client over the store's own POST /embed, POST /query
// contract.
type VectorStore interface {
	Embed(ctx context.Context, documents []EmbedDocument) error
	Query(ctx context.Context, queryText string, nResults int) ([]types.VectorChunk, error)
}

// HTTPVectorStore speaks the documented /embed, /query contract.
type HTTPVectorStore struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewHTTPVectorStore builds a client against baseURL.
func NewHTTPVectorStore(baseURL string, logger *zap.Logger) *HTTPVectorStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPVectorStore{baseURL: baseURL, client: &http.Client{}, logger: logger}
}

type embedRequestDoc struct {
	ID       string            `json:"id"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type embedRequest struct {
	Documents []embedRequestDoc `json:"documents"`
}

func (s *HTTPVectorStore) Embed(ctx context.Context, documents []EmbedDocument) error {
	if len(documents) == 0 {
		return nil
	}
	payload := embedRequest{Documents: make([]embedRequestDoc, len(documents))}
	for i, d := range documents {
		payload.Documents[i] = embedRequestDoc{ID: d.ID, Text: d.Text, Metadata: d.Metadata}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/embed", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("embed request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("embed request: unexpected status %d", resp.StatusCode)
	}
	return nil
}

type queryRequest struct {
	QueryText string `json:"query_text"`
	NResults  int    `json:"n_results"`
}

type queryResponse struct {
	Documents [][]string              `json:"documents"`
	Metadatas [][]map[string]string   `json:"metadatas"`
	Distances [][]float64             `json:"distances"`
	IDs       [][]string              `json:"ids"`
}

func (s *HTTPVectorStore) Query(ctx context.Context, queryText string, nResults int) ([]types.VectorChunk, error) {
	body, err := json.Marshal(queryRequest{QueryText: queryText, NResults: nResults})
	if err != nil {
		return nil, fmt.Errorf("marshal query request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/query", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build query request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("read query response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("query request: unexpected status %d", resp.StatusCode)
	}

	var decoded queryResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("decode query response: %w", err)
	}
	if len(decoded.IDs) == 0 {
		return nil, nil
	}

	ids := decoded.IDs[0]
	docs := firstOr(decoded.Documents)
	metas := firstOrMeta(decoded.Metadatas)
	dists := firstOrFloat(decoded.Distances)

	out := make([]types.VectorChunk, 0, len(ids))
	for i, id := range ids {
		chunk := types.VectorChunk{ChunkID: id}
		if i < len(docs) {
			chunk.Text = docs[i]
		}
		if i < len(dists) {
			chunk.SimilarityScore = clamp01(1 - dists[i])
		}
		if i < len(metas) {
			chunk.Metadata = metas[i]
			chunk.URL = metas[i]["url"]
			chunk.Title = metas[i]["title"]
		}
		out = append(out, chunk)
	}
	return out, nil
}

func firstOr(rows [][]string) []string {
	if len(rows) == 0 {
		return nil
	}
	return rows[0]
}

func firstOrFloat(rows [][]float64) []float64 {
	if len(rows) == 0 {
		return nil
	}
	return rows[0]
}

func firstOrMeta(rows [][]map[string]string) []map[string]string {
	if len(rows) == 0 {
		return nil
	}
	return rows[0]
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// LocalVectorStore is a deterministic in-memory VectorStore used when no
// external vector-store service is configured (tests, local dev), per
// spec's design note that a test double is "a deterministic in-memory
// cosine-similarity store keyed by chunk-id." It wraps rag.InMemoryVectorStore
// (the teacher's cosine-similarity implementation) with a cheap, local,
// deterministic bag-of-words hashing embedder, rather than calling out to a
// real embedding model.
type LocalVectorStore struct {
	store *rag.InMemoryVectorStore
}

// NewLocalVectorStore builds a LocalVectorStore.
func NewLocalVectorStore(logger *zap.Logger) *LocalVectorStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocalVectorStore{store: rag.NewInMemoryVectorStore(logger)}
}

const localEmbeddingDim = 256

// hashEmbed produces a deterministic, fixed-dimension bag-of-words vector:
// every token increments the bucket its hash falls into. Good enough for
// exercising cosine similarity end-to-end without a real embedding model.
func hashEmbed(text string) []float64 {
	vec := make([]float64, localEmbeddingDim)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		h := fnv32(tok)
		vec[h%localEmbeddingDim]++
	}
	return vec
}

func fnv32(s string) uint32 {
	const offset32 = 2166136261
	const prime32 = 16777619
	hash := uint32(offset32)
	for i := 0; i < len(s); i++ {
		hash ^= uint32(s[i])
		hash *= prime32
	}
	return hash
}

func (l *LocalVectorStore) Embed(ctx context.Context, documents []EmbedDocument) error {
	docs := make([]rag.Document, len(documents))
	for i, d := range documents {
		meta := make(map[string]interface{}, len(d.Metadata))
		for k, v := range d.Metadata {
			meta[k] = v
		}
		docs[i] = rag.Document{ID: d.ID, Content: d.Text, Embedding: hashEmbed(d.Text), Metadata: meta}
	}
	return l.store.AddDocuments(ctx, docs)
}

func (l *LocalVectorStore) Query(ctx context.Context, queryText string, nResults int) ([]types.VectorChunk, error) {
	results, err := l.store.Search(ctx, hashEmbed(queryText), nResults)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })

	out := make([]types.VectorChunk, 0, len(results))
	for _, r := range results {
		meta := make(map[string]string, len(r.Document.Metadata))
		for k, v := range r.Document.Metadata {
			if s, ok := v.(string); ok {
				meta[k] = s
			}
		}
		out = append(out, types.VectorChunk{
			ChunkID:         r.Document.ID,
			Text:            r.Document.Content,
			URL:             meta["url"],
			Title:           meta["title"],
			SimilarityScore: clamp01(r.Score),
			Metadata:        meta,
		})
	}
	return out, nil
}
