package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Trafexofive/DeepSearchStack/config"
	"github.com/Trafexofive/DeepSearchStack/llmgateway"
	"github.com/Trafexofive/DeepSearchStack/search"
	"github.com/Trafexofive/DeepSearchStack/types"
)

// Orchestrator composes the search, scrape, embed, retrieve and synthesis
// stages into one staged, streaming, cancellable producer. One Orchestrator
// instance is shared across requests; Run spins up a fresh goroutine and
// event channel per request.
type Orchestrator struct {
	fanout      *search.Fanout
	ranker      *search.Ranker
	scraper     *Scraper
	chunker     *Chunker
	retriever   *Retriever
	synthesizer *Synthesizer

	scrapingCfg   config.ScrapingConfig
	ragCfg        config.RAGConfig
	synthesisCfg  config.SynthesisConfig

	logger *zap.Logger
}

// NewOrchestrator wires the per-stage collaborators together.
func NewOrchestrator(
	fanout *search.Fanout,
	ranker *search.Ranker,
	scraper *Scraper,
	chunker *Chunker,
	retriever *Retriever,
	synthesizer *Synthesizer,
	scrapingCfg config.ScrapingConfig,
	ragCfg config.RAGConfig,
	synthesisCfg config.SynthesisConfig,
	logger *zap.Logger,
) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		fanout:       fanout,
		ranker:       ranker,
		scraper:      scraper,
		chunker:      chunker,
		retriever:    retriever,
		synthesizer:  synthesizer,
		scrapingCfg:  scrapingCfg,
		ragCfg:       ragCfg,
		synthesisCfg: synthesisCfg,
		logger:       logger,
	}
}

const defaultMaxResults = 10

// routingRequest derives the C8 routing request from the boundary request:
// an explicit strategy wins, otherwise a preferred provider implies
// preferred-strategy routing, otherwise round-robin spreads load evenly.
func routingRequest(req types.DeepSearchRequest) llmgateway.Request {
	strategy := llmgateway.Strategy(req.RoutingStrategy)
	if strategy == "" {
		if req.PreferredProvider != "" {
			strategy = llmgateway.StrategyPreferred
		} else {
			strategy = llmgateway.StrategyRoundRobin
		}
	}
	return llmgateway.Request{
		Strategy:          strategy,
		PreferredProvider: req.PreferredProvider,
		Fallback:          req.Fallback,
	}
}

// Run drives the stage sequence in the order and with the event types
// enumerated below, returning a channel the caller (C14) relays as SSE
// frames. The channel is always closed when the run ends, whether by
// completion, error, or cancellation.
//
//  1. progress{searching} -> C5 (search fan-out + ranking). Zero results
//     terminates with error{No search results}.
//  2. progress{scraping} -> C9, if scraping is enabled.
//  3. progress{embedding} -> C10, if RAG is enabled and scraping produced
//     content.
//  4. progress{retrieving} -> C11, if RAG is enabled.
//  5. progress{synthesizing} -> C12, streaming content events, if
//     synthesis is enabled.
//  6. sources{ranked results}.
//  7. complete{...}.
func (o *Orchestrator) Run(ctx context.Context, req types.DeepSearchRequest) <-chan types.PipelineEvent {
	out := make(chan types.PipelineEvent)

	go func() {
		defer close(out)
		start := time.Now()

		emit := func(ev types.PipelineEvent) bool {
			ev.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
			select {
			case out <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}
		progress := func(stage, message string, pct float64) bool {
			return emit(types.PipelineEvent{
				Type:     types.EventProgress,
				Progress: &types.ProgressPayload{Stage: stage, Message: message, Progress: pct},
			})
		}
		fail := func(message string) {
			emit(types.PipelineEvent{Type: types.EventError, Error: &types.ErrorPayload{Message: message}})
		}
		cancelled := func() bool {
			if ctx.Err() == nil {
				return false
			}
			// ctx is already done here, so emit's select could take ctx.Done()
			// and drop the event; give a reader a short window to receive it.
			ev := types.PipelineEvent{
				Type:      types.EventError,
				Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
				Error:     &types.ErrorPayload{Message: "cancelled", Cancelled: true},
			}
			select {
			case out <- ev:
			case <-time.After(100 * time.Millisecond):
			}
			return true
		}

		if cancelled() {
			return
		}

		// 1. search
		if !progress("searching", "querying search providers", 0.1) {
			return
		}
		fanoutResult, err := o.fanout.Run(ctx, search.Query{
			Text:       req.Query,
			Providers:  req.Providers,
			MaxResults: req.MaxResults,
			Sort:       req.Sort,
		})
		if err != nil {
			fail(fmt.Sprintf("search failed: %v", err))
			return
		}

		ranked := fanoutResult.Results
		if o.ranker != nil {
			ranked = o.ranker.Rank(req.Query, fanoutResult.Results, req.Sort)
		}
		maxResults := req.MaxResults
		if maxResults <= 0 {
			maxResults = defaultMaxResults
		}
		if len(ranked) > maxResults {
			ranked = ranked[:maxResults]
		}
		if len(ranked) == 0 {
			fail("No search results")
			return
		}

		if cancelled() {
			return
		}

		// 2. scrape
		var scraped []types.ScrapedContent
		scrapeEnabled := o.scrapingCfg.Enabled
		if req.ScrapeEnabled != nil {
			scrapeEnabled = *req.ScrapeEnabled
		}
		if scrapeEnabled && o.scraper != nil {
			if !progress("scraping", "fetching page content", 0.3) {
				return
			}
			scraped = o.scraper.Run(ctx, ranked)
		}

		if cancelled() {
			return
		}

		ragEnabled := o.ragCfg.Enabled
		if req.RAGEnabled != nil {
			ragEnabled = *req.RAGEnabled
		}

		// 3. embed
		if ragEnabled && len(scraped) > 0 && o.chunker != nil {
			if !progress("embedding", "chunking and embedding scraped content", 0.5) {
				return
			}
			o.chunker.Run(ctx, req.Query, scraped)
		}

		if cancelled() {
			return
		}

		// 4. retrieve
		var chunks []types.VectorChunk
		if ragEnabled && o.retriever != nil {
			if !progress("retrieving", "querying vector store", 0.6) {
				return
			}
			chunks = o.retriever.Retrieve(ctx, req.Query)
		}

		if cancelled() {
			return
		}

		// 5. synthesize
		synthesisEnabled := true
		if req.SynthesisEnabled != nil {
			synthesisEnabled = *req.SynthesisEnabled
		}

		var answer strings.Builder
		providerUsed := ""
		modelUsed := ""

		if synthesisEnabled && o.synthesizer != nil {
			if !progress("synthesizing", "generating answer", 0.7) {
				return
			}
			contextBlock := BuildContext(ranked, scraped, chunks)
			stream, err := o.synthesizer.Stream(ctx, req.Query, contextBlock, routingRequest(req))
			if err != nil {
				fail(fmt.Sprintf("synthesis failed: %v", err))
				return
			}
			for chunk := range stream {
				if chunk.Err != nil {
					fail(chunk.Err.Error())
					return
				}
				if chunk.Provider != "" {
					providerUsed = chunk.Provider
				}
				if chunk.Model != "" {
					modelUsed = chunk.Model
				}
				if chunk.Delta.Content == "" {
					continue
				}
				answer.WriteString(chunk.Delta.Content)
				if !emit(types.PipelineEvent{Type: types.EventContent, Content: &types.ContentPayload{Content: chunk.Delta.Content}}) {
					return
				}
			}
		}

		// 6. sources
		if !emit(types.PipelineEvent{Type: types.EventSources, Sources: &types.SourcesPayload{Sources: ranked}}) {
			return
		}

		// 7. complete
		emit(types.PipelineEvent{
			Type: types.EventComplete,
			Complete: &types.DeepSearchResponse{
				Query:           req.Query,
				Answer:          answer.String(),
				Sources:         ranked,
				ScrapedContent:  scraped,
				RAGChunks:       chunks,
				ChunksRetrieved: len(chunks),
				ResultsScraped:  len(scraped),
				TotalResults:    len(ranked),
				ExecutionTime:   time.Since(start).Seconds(),
				SessionID:       req.SessionID,
				Provider:        providerUsed,
				Model:           modelUsed,
			},
		})
	}()

	return out
}
