// Package llmgateway wraps the llm provider abstraction with the static
// cost/quality metadata and cached availability probe the routing layer
// (C8) selects on, without duplicating llm.Provider's request/response
// shapes or its adapters' transport logic.
package llmgateway

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Trafexofive/DeepSearchStack/llm"
)

// Re-export the request/response types so callers of this package never
// need to import llm directly, mirroring llm/provider.go's own re-export
// of types from the types package.
type (
	ChatRequest  = llm.ChatRequest
	ChatResponse = llm.ChatResponse
	StreamChunk  = llm.StreamChunk
	Message      = llm.Message
)

// CostOrdinal is a static, coarse cost ranking used by lowest-cost routing.
type CostOrdinal int

const (
	CostLow CostOrdinal = iota
	CostMedium
	CostHigh
)

// QualityOrdinal is a static, coarse quality ranking used by highest-quality
// routing.
type QualityOrdinal int

const (
	QualityLow QualityOrdinal = iota
	QualityMedium
	QualityHigh
)

// Provider is the uniform contract the router (C8) selects over: complete,
// stream, and a cheap availability probe, plus the static ordinals used by
// cost/quality-based strategies.
type Provider interface {
	Complete(ctx context.Context, req *ChatRequest) (*ChatResponse, error)
	Stream(ctx context.Context, req *ChatRequest) (<-chan StreamChunk, error)

	// Available reports whether the provider is currently usable. Results
	// MAY be cached briefly rather than probing on every call.
	Available(ctx context.Context) bool

	Name() string
	Cost() CostOrdinal
	Quality() QualityOrdinal
}

// Adapter wraps an llm.Provider with static ordinals and a short-TTL
// availability cache, so every C7 backend gets the same Provider contract
// regardless of how it talks to its upstream.
type Adapter struct {
	inner   llm.Provider
	cost    CostOrdinal
	quality QualityOrdinal
	cacheTTL time.Duration
	logger  *zap.Logger

	mu        sync.Mutex
	cached    bool
	cachedAt  time.Time
}

// NewAdapter wraps inner with the given static cost/quality ordinals. A
// zero cacheTTL defaults to 10s.
func NewAdapter(inner llm.Provider, cost CostOrdinal, quality QualityOrdinal, cacheTTL time.Duration, logger *zap.Logger) *Adapter {
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{inner: inner, cost: cost, quality: quality, cacheTTL: cacheTTL, logger: logger}
}

func (a *Adapter) Complete(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	return a.inner.Completion(ctx, req)
}

func (a *Adapter) Stream(ctx context.Context, req *ChatRequest) (<-chan StreamChunk, error) {
	return a.inner.Stream(ctx, req)
}

// Available probes inner.HealthCheck at most once per cacheTTL.
func (a *Adapter) Available(ctx context.Context) bool {
	a.mu.Lock()
	if time.Since(a.cachedAt) < a.cacheTTL {
		cached := a.cached
		a.mu.Unlock()
		return cached
	}
	a.mu.Unlock()

	status, err := a.inner.HealthCheck(ctx)
	healthy := err == nil && status != nil && status.Healthy
	if err != nil {
		a.logger.Warn("provider health check failed", zap.String("provider", a.inner.Name()), zap.Error(err))
	}

	a.mu.Lock()
	a.cached = healthy
	a.cachedAt = time.Now()
	a.mu.Unlock()
	return healthy
}

func (a *Adapter) Name() string            { return a.inner.Name() }
func (a *Adapter) Cost() CostOrdinal       { return a.cost }
func (a *Adapter) Quality() QualityOrdinal { return a.quality }

// Unwrap returns the underlying llm.Provider, for callers (e.g. the
// retrieve/synthesis stages) that need the richer llm.Provider surface
// (ListModels, SupportsNativeFunctionCalling) the slim Provider interface
// doesn't expose.
func (a *Adapter) Unwrap() llm.Provider { return a.inner }
