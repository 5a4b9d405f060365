// Package anthropicdirect adapts the official Anthropic SDK as C7's
// high-quality hosted provider — Claude's frontier models are this
// registry's top-quality-ordinal backend, reserved for highest-quality
// routing and failover's last resort.
package anthropicdirect

import (
	"context"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/Trafexofive/DeepSearchStack/llm"
	"github.com/Trafexofive/DeepSearchStack/llmgateway"
	"github.com/Trafexofive/DeepSearchStack/types"
)

// Config configures the Anthropic client.
type Config struct {
	APIKey       string
	DefaultModel string
	Timeout      time.Duration
}

// Provider talks to Anthropic through the official anthropic-sdk-go
// client.
type Provider struct {
	client       anthropic.Client
	defaultModel anthropic.Model
	logger       *zap.Logger
}

// NewLLMProvider builds the raw llm.Provider.
func NewLLMProvider(cfg Config, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	model := anthropic.Model(cfg.DefaultModel)
	if model == "" {
		model = anthropic.ModelClaudeSonnet4_5
	}
	return &Provider{
		client:       anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		defaultModel: model,
		logger:       logger,
	}
}

// New wraps NewLLMProvider as a llmgateway.Provider: highest cost, highest
// quality ordinal.
func New(cfg Config, logger *zap.Logger) llmgateway.Provider {
	return llmgateway.NewAdapter(NewLLMProvider(cfg, logger), llmgateway.CostHigh, llmgateway.QualityHigh, 10*time.Second, logger)
}

func (p *Provider) Name() string                       { return "anthropic" }
func (p *Provider) SupportsNativeFunctionCalling() bool { return true }

func (p *Provider) model(req *llm.ChatRequest) anthropic.Model {
	if req.Model != "" {
		return anthropic.Model(req.Model)
	}
	return p.defaultModel
}

// split pulls out a leading system message (Anthropic takes system prompt
// as a dedicated top-level param, not a message with role "system") and
// converts the remainder to Anthropic message params.
func split(messages []types.Message) (system string, rest []anthropic.MessageParam) {
	for _, m := range messages {
		switch m.Role {
		case types.RoleSystem:
			if system != "" {
				system += "\n"
			}
			system += m.Content
		case types.RoleAssistant:
			rest = append(rest, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			rest = append(rest, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	return system, rest
}

func maxTokens(req *llm.ChatRequest) int64 {
	if req.MaxTokens > 0 {
		return int64(req.MaxTokens)
	}
	return 4096
}

func (p *Provider) Completion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	system, messages := split(req.Messages)
	params := anthropic.MessageNewParams{
		Model:     p.model(req),
		MaxTokens: maxTokens(req),
		Messages:  messages,
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(float64(req.Temperature))
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, types.NewError(types.ErrUpstreamError, "anthropic: completion failed").WithCause(err).WithProvider("anthropic")
	}

	var content string
	for _, block := range resp.Content {
		if text := block.AsAny(); text != nil {
			if tb, ok := text.(anthropic.TextBlock); ok {
				content += tb.Text
			}
		}
	}

	return &llm.ChatResponse{
		ID:       resp.ID,
		Provider: p.Name(),
		Model:    string(resp.Model),
		Choices: []llm.ChatChoice{{
			Index:        0,
			FinishReason: string(resp.StopReason),
			Message:      types.NewAssistantMessage(content),
		}},
		Usage: llm.ChatUsage{
			PromptTokens:     int(resp.Usage.InputTokens),
			CompletionTokens: int(resp.Usage.OutputTokens),
			TotalTokens:      int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
		},
		CreatedAt: time.Now(),
	}, nil
}

func (p *Provider) Stream(ctx context.Context, req *llm.ChatRequest) (<-chan llm.StreamChunk, error) {
	system, messages := split(req.Messages)
	params := anthropic.MessageNewParams{
		Model:     p.model(req),
		MaxTokens: maxTokens(req),
		Messages:  messages,
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	stream := p.client.Messages.NewStreaming(ctx, params)
	out := make(chan llm.StreamChunk)

	go func() {
		defer close(out)
		for stream.Next() {
			event := stream.Current()
			delta, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent)
			if !ok {
				continue
			}
			text, ok := delta.Delta.AsAny().(anthropic.TextDelta)
			if !ok {
				continue
			}
			select {
			case out <- llm.StreamChunk{
				Provider: p.Name(),
				Model:    string(p.defaultModel),
				Delta:    types.NewAssistantMessage(text.Text),
			}:
			case <-ctx.Done():
				return
			}
		}
		if err := stream.Err(); err != nil {
			apiErr := types.NewError(types.ErrUpstreamError, "anthropic: stream failed").WithCause(err).WithProvider("anthropic")
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
	_, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     p.defaultModel,
		MaxTokens: 1,
		Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock("ping"))},
	})
	latency := time.Since(start)
	if err != nil {
		return &llm.HealthStatus{Healthy: false, Latency: latency}, err
	}
	return &llm.HealthStatus{Healthy: true, Latency: latency}, nil
}

// ListModels: Anthropic's catalogue is small and not exposed via a list
// endpoint the SDK surfaces here; callers should consult static
// documentation instead.
func (p *Provider) ListModels(ctx context.Context) ([]llm.Model, error) {
	return nil, nil
}
