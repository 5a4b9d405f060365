package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Trafexofive/DeepSearchStack/llmgateway"
	"github.com/Trafexofive/DeepSearchStack/search"
)

// ProvidersHandler reports the search and LLM backends currently
// registered, grounded on agent.go's registry-introspection handlers
// (HandleListAgents) but over the two C4/C7 fan-out registries instead of
// an agent registry.
type ProvidersHandler struct {
	searchRegistry *search.Registry
	llmRegistry    *llmgateway.Registry
	logger         *zap.Logger
}

// NewProvidersHandler builds a handler over both registries.
func NewProvidersHandler(searchRegistry *search.Registry, llmRegistry *llmgateway.Registry, logger *zap.Logger) *ProvidersHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProvidersHandler{searchRegistry: searchRegistry, llmRegistry: llmRegistry, logger: logger}
}

type providerInfo struct {
	Name      string `json:"name"`
	Available bool   `json:"available,omitempty"`
	Cost      int    `json:"cost,omitempty"`
	Quality   int    `json:"quality,omitempty"`
}

type providersResponse struct {
	SearchProviders []providerInfo `json:"search_providers"`
	LLMProviders    []providerInfo `json:"llm_providers"`
}

// HandleList serves GET /providers.
// @Summary List registered search and LLM providers
// @Tags providers
// @Produce json
// @Success 200 {object} Response{data=providersResponse} "Registered providers"
// @Router /providers [get]
func (h *ProvidersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	resp := providersResponse{}

	if h.searchRegistry != nil {
		for _, name := range h.searchRegistry.List() {
			resp.SearchProviders = append(resp.SearchProviders, providerInfo{Name: name})
		}
	}

	if h.llmRegistry != nil {
		for _, p := range h.llmRegistry.All() {
			resp.LLMProviders = append(resp.LLMProviders, providerInfo{
				Name:      p.Name(),
				Available: p.Available(ctx),
				Cost:      int(p.Cost()),
				Quality:   int(p.Quality()),
			})
		}
	}

	WriteSuccess(w, resp)
}
