package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/Trafexofive/DeepSearchStack/api"
	"github.com/Trafexofive/DeepSearchStack/llm"
	"github.com/Trafexofive/DeepSearchStack/llmgateway"
	"github.com/Trafexofive/DeepSearchStack/types"
)

// CompletionHandler exposes a direct, single-call chat completion over the
// C7 routing layer, for callers that want one LLM call without running the
// full search pipeline. Grounded on ChatHandler's validate/decode/convert
// sequencing, routed through llmgateway.Router instead of a bare
// llm.Provider so it benefits from the same fallback/circuit-breaking
// every pipeline synthesis call gets.
type CompletionHandler struct {
	router *llmgateway.Router
	logger *zap.Logger
}

// NewCompletionHandler builds a handler backed by router.
func NewCompletionHandler(router *llmgateway.Router, logger *zap.Logger) *CompletionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CompletionHandler{router: router, logger: logger}
}

type completionRequest struct {
	Model             string         `json:"model"`
	Messages          []api.Message  `json:"messages"`
	Temperature       float32        `json:"temperature,omitempty"`
	MaxTokens         int            `json:"max_tokens,omitempty"`
	RoutingStrategy   string         `json:"routing_strategy,omitempty"`
	PreferredProvider string         `json:"preferred_provider,omitempty"`
}

// HandleCompletion serves POST /completion.
// @Summary Single-call chat completion
// @Tags completion
// @Accept json
// @Produce json
// @Param request body completionRequest true "Completion request"
// @Success 200 {object} Response{data=api.ChatResponse} "Completion result"
// @Failure 400 {object} Response "Invalid request"
// @Failure 500 {object} Response "Routing or provider error"
// @Router /completion [post]
func (h *CompletionHandler) HandleCompletion(w http.ResponseWriter, r *http.Request) {
	if !ValidateContentType(w, r, h.logger) {
		return
	}

	var req completionRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	if len(req.Messages) == 0 {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest, "messages cannot be empty", h.logger)
		return
	}

	messages := make([]llm.Message, len(req.Messages))
	for i, m := range req.Messages {
		messages[i] = llm.Message{Role: types.Role(m.Role), Content: m.Content, Name: m.Name}
	}

	chatReq := &llm.ChatRequest{
		Model:       req.Model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}

	strategy := llmgateway.Strategy(req.RoutingStrategy)
	if strategy == "" {
		if req.PreferredProvider != "" {
			strategy = llmgateway.StrategyPreferred
		} else {
			strategy = llmgateway.StrategyRoundRobin
		}
	}

	resp, err := h.router.Complete(r.Context(), llmgateway.Request{Strategy: strategy, PreferredProvider: req.PreferredProvider}, chatReq)
	if err != nil {
		if typedErr, ok := err.(*types.Error); ok {
			WriteError(w, typedErr, h.logger)
			return
		}
		WriteErrorMessage(w, http.StatusBadGateway, types.ErrUpstreamError, err.Error(), h.logger)
		return
	}

	WriteSuccess(w, resp)
}
