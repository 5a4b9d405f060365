package pipeline

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Trafexofive/DeepSearchStack/config"
	"github.com/Trafexofive/DeepSearchStack/llmgateway"
	"github.com/Trafexofive/DeepSearchStack/types"
)

// sourceContentBudget bounds how many characters of scraped content a
// single source contributes to the synthesis prompt, keeping the prompt
// bounded regardless of page size.
const sourceContentBudget = 1500

// Synthesizer builds the synthesis prompt and streams the answer through
// the LLM router.
type Synthesizer struct {
	router *llmgateway.Router
	cfg    config.SynthesisConfig
	logger *zap.Logger
}

// NewSynthesizer builds a Synthesizer over router.
func NewSynthesizer(router *llmgateway.Router, cfg config.SynthesisConfig, logger *zap.Logger) *Synthesizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synthesizer{router: router, cfg: cfg, logger: logger}
}

// BuildContext assembles the enumerated "Source [i]" block. If chunks is
// non-empty (retrieval succeeded), it takes precedence over the raw ranked
// results + scraped content; otherwise results are enriched with any
// matching scraped page, truncated to sourceContentBudget.
func BuildContext(results []types.SearchResult, scraped []types.ScrapedContent, chunks []types.VectorChunk) string {
	if len(chunks) > 0 {
		var b strings.Builder
		for i, c := range chunks {
			title := c.Title
			if title == "" {
				title = c.URL
			}
			fmt.Fprintf(&b, "Source [%d]: %s\nURL: %s\nContent: %s\n", i+1, title, c.URL, truncate(c.Text, sourceContentBudget))
		}
		return b.String()
	}

	byURL := make(map[string]types.ScrapedContent, len(scraped))
	for _, s := range scraped {
		byURL[s.URL] = s
	}

	var b strings.Builder
	for i, r := range results {
		content := r.Description
		if page, ok := byURL[r.URL]; ok && page.Success {
			content = page.Content
		}
		fmt.Fprintf(&b, "Source [%d]: %s\nURL: %s\nContent: %s\n", i+1, r.Title, r.URL, truncate(content, sourceContentBudget))
	}
	return b.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

// BuildPrompt assembles the synthesis message list: a system message
// carrying the configured synthesis instructions, and a user message
// pairing the query with the enumerated source context.
func (s *Synthesizer) BuildPrompt(query, context string) []llmgateway.Message {
	return []llmgateway.Message{
		{Role: types.RoleSystem, Content: s.cfg.SystemPrompt},
		{Role: types.RoleUser, Content: fmt.Sprintf("User Query: %s\n\nSearch Context:\n%s", query, context)},
	}
}

// Stream invokes the router in streaming mode and returns the upstream
// chunk channel for the orchestrator to relay as "content" events.
func (s *Synthesizer) Stream(ctx context.Context, query, context string, routeReq llmgateway.Request) (<-chan llmgateway.StreamChunk, error) {
	messages := s.BuildPrompt(query, context)
	req := &llmgateway.ChatRequest{
		Messages:    messages,
		Temperature: float32(s.cfg.Temperature),
	}
	return s.router.Stream(ctx, routeReq, req)
}
