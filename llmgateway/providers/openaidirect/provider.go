// Package openaidirect adapts the official OpenAI SDK as C7's low-latency
// hosted provider — OpenAI's chat-completions endpoints are tuned for
// interactive latency over the other hosted backends in this registry.
package openaidirect

import (
	"context"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"

	"github.com/Trafexofive/DeepSearchStack/llm"
	"github.com/Trafexofive/DeepSearchStack/llmgateway"
	"github.com/Trafexofive/DeepSearchStack/types"
)

// Config configures the OpenAI client.
type Config struct {
	APIKey       string
	BaseURL      string // override for Azure/proxy deployments; empty uses the SDK default
	DefaultModel string
	Timeout      time.Duration
}

// Provider talks to OpenAI through the official openai-go/v3 client rather
// than the teacher's hand-rolled openaicompat transport, giving this
// backend SDK-maintained request/response types and retry/backoff.
type Provider struct {
	client       openai.Client
	defaultModel string
	logger       *zap.Logger
}

// NewLLMProvider builds the raw llm.Provider (useful where callers need the
// full llm.Provider surface, e.g. ListModels).
func NewLLMProvider(cfg Config, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	model := cfg.DefaultModel
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &Provider{client: openai.NewClient(opts...), defaultModel: model, logger: logger}
}

// New wraps NewLLMProvider as a llmgateway.Provider: medium cost, medium
// quality, optimized for turnaround rather than peak reasoning depth.
func New(cfg Config, logger *zap.Logger) llmgateway.Provider {
	return llmgateway.NewAdapter(NewLLMProvider(cfg, logger), llmgateway.CostMedium, llmgateway.QualityMedium, 10*time.Second, logger)
}

func (p *Provider) Name() string                         { return "openai" }
func (p *Provider) SupportsNativeFunctionCalling() bool   { return true }

func (p *Provider) model(req *llm.ChatRequest) string {
	if req.Model != "" {
		return req.Model
	}
	return p.defaultModel
}

func toOpenAIMessages(messages []types.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case types.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case types.RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		case types.RoleTool:
			out = append(out, openai.ToolMessage(m.Content, m.ToolCallID))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

func (p *Provider) Completion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	params := openai.ChatCompletionNewParams{
		Model:    p.model(req),
		Messages: toOpenAIMessages(req.Messages),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(float64(req.Temperature))
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, types.NewError(types.ErrUpstreamError, "openai: completion failed").WithCause(err).WithProvider("openai")
	}
	if len(resp.Choices) == 0 {
		return nil, types.NewError(types.ErrUpstreamError, "openai: empty choices").WithProvider("openai")
	}

	choices := make([]llm.ChatChoice, len(resp.Choices))
	for i, c := range resp.Choices {
		choices[i] = llm.ChatChoice{
			Index:        int(c.Index),
			FinishReason: string(c.FinishReason),
			Message:      types.NewAssistantMessage(c.Message.Content),
		}
	}

	return &llm.ChatResponse{
		ID:       resp.ID,
		Provider: p.Name(),
		Model:    resp.Model,
		Choices:  choices,
		Usage: llm.ChatUsage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
		CreatedAt: time.Unix(resp.Created, 0),
	}, nil
}

func (p *Provider) Stream(ctx context.Context, req *llm.ChatRequest) (<-chan llm.StreamChunk, error) {
	params := openai.ChatCompletionNewParams{
		Model:    p.model(req),
		Messages: toOpenAIMessages(req.Messages),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(float64(req.Temperature))
	}

	stream := p.client.Chat.Completions.NewStreaming(ctx, params)
	out := make(chan llm.StreamChunk)

	go func() {
		defer close(out)
		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 {
				continue
			}
			c := chunk.Choices[0]
			select {
			case out <- llm.StreamChunk{
				ID:           chunk.ID,
				Provider:     p.Name(),
				Model:        chunk.Model,
				Delta:        types.NewAssistantMessage(c.Delta.Content),
				FinishReason: string(c.FinishReason),
			}:
			case <-ctx.Done():
				return
			}
		}
		if err := stream.Err(); err != nil {
			apiErr := types.NewError(types.ErrUpstreamError, "openai: stream failed").WithCause(err).WithProvider("openai")
			select {
			case out <- llm.StreamChunk{Provider: p.Name(), Err: apiErr}:
			case <-ctx.Done():
			}
		}
	}()

	return out, nil
}

func (p *Provider) HealthCheck(ctx context.Context) (*llm.HealthStatus, error) {
	start := time.Now()
	_, err := p.client.Models.List(ctx)
	latency := time.Since(start)
	if err != nil {
		return &llm.HealthStatus{Healthy: false, Latency: latency}, err
	}
	return &llm.HealthStatus{Healthy: true, Latency: latency}, nil
}

func (p *Provider) ListModels(ctx context.Context) ([]llm.Model, error) {
	page, err := p.client.Models.List(ctx)
	if err != nil {
		return nil, types.NewError(types.ErrUpstreamError, "openai: list models failed").WithCause(err).WithProvider("openai")
	}
	out := make([]llm.Model, 0, len(page.Data))
	for _, m := range page.Data {
		out = append(out, llm.Model{ID: m.ID, Object: m.Object, Created: m.Created, OwnedBy: m.OwnedBy})
	}
	return out, nil
}
