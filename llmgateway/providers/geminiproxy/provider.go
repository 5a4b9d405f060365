// Package geminiproxy adapts the official google.golang.org/genai SDK as
// C7's hosted proxy-style provider: the same client can target either the
// direct Gemini API or a Vertex AI-fronted deployment depending on
// Config.Backend, making it this registry's one backend whose requests may
// be relayed through an intermediate hosted proxy rather than hitting the
// vendor's API directly.
package geminiproxy

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/Trafexofive/DeepSearchStack/llm"
	"github.com/Trafexofive/DeepSearchStack/llmgateway"
	"github.com/Trafexofive/DeepSearchStack/types"
)

// Config configures the genai client.
type Config struct {
	APIKey       string
	Project      string // required when UseVertexAI is true
	Location     string // required when UseVertexAI is true
	UseVertexAI  bool
	DefaultModel string
}

// Provider talks to Gemini through the official google.golang.org/genai
// client.
type Provider struct {
	client       *genai.Client
	defaultModel string
	logger       *zap.Logger
}

// NewLLMProvider builds the raw llm.Provider.
func NewLLMProvider(ctx context.Context, cfg Config, logger *zap.Logger) (*Provider, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	backend := genai.BackendGeminiAPI
	if cfg.UseVertexAI {
		backend = genai.BackendVertexAI
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:   cfg.APIKey,
		Project:  cfg.Project,
		Location: cfg.Location,
		Backend:  backend,
	})
	if err != nil {
		return nil, types.NewError(types.ErrProviderUnavailable, "gemini: client init failed").WithCause(err).WithProvider("gemini")
	}

	model := cfg.DefaultModel
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &Provider{client: client, defaultModel: model, logger: logger}, nil
}

// New wraps NewLLMProvider as a llmgateway.Provider: medium cost, high
// quality ordinal.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (llmgateway.Provider, error) {
	inner, err := NewLLMProvider(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return llmgateway.NewAdapter(inner, llmgateway.CostMedium, llmgateway.QualityHigh, 10*time.Second, logger), nil
}

func (p *Provider) Name() string                       { return "gemini" }
func (p *Provider) SupportsNativeFunctionCalling() bool { return true }

func (p *Provider) model(req *llm.ChatRequest) string {
	if req.Model != "" {
		return req.Model
	}
	return p.defaultModel
}

func toContents(messages []types.Message) (system string, contents []*genai.Content) {
	for _, m := range messages {
		switch m.Role {
		case types.RoleSystem:
			if system != "" {
				system += "\n"
			}
			system += m.Content
		case types.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	return system, contents
}

func genConfig(req *llm.ChatRequest, system string) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.Temperature > 0 {
		t := req.Temperature
		cfg.Temperature = &t
	}
	return cfg
}

func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		text += part.Text
	}
	return text
}

func (p *Provider) Completion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	system, contents := toContents(req.Messages)
	resp, err := p.client.Models.GenerateContent(ctx, p.model(req), contents, genConfig(req, system))
	if err != nil {
		return nil, types.NewError(types.ErrUpstreamError, "gemini: completion failed").WithCause(err).WithProvider("gemini")
	}

	finishReason := ""
	if len(resp.Candidates) > 0 {
		finishReason = string(resp.Candidates[0].FinishReason)
	}

	usage := llm.ChatUsage{}
	if resp.UsageMetadata != nil {
		usage = llm.ChatUsage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}

	return &llm.ChatResponse{
		Provider: p.Name(),
		Model:    p.model(req),
		Choices: []llm.ChatChoice{{
			Index:        0,
			FinishReason: finishReason,
			Message:      types.NewAssistantMessage(extractText(resp)),
		}},
		Usage:     usage,
		CreatedAt: time.Now(),
	}, nil
}

func (p *Provider) Stream(ctx context.Context, req *llm.ChatRequest) (<-chan llm.StreamChunk, error) {
	system, contents := toContents(req.Messages)
	out := make(chan llm.StreamChunk)

	go func() {
		defer close(out)
		for resp, err := range p.client.Models.GenerateContentStream(ctx, p.model(req), contents, genConfig(req, system)) {
			if err != nil {
				apiErr := types.NewError(types.ErrUpstreamError, "gemini: stream failed").WithCause(err).WithProvider("gemini")
				select {
				case out <- llm.StreamChunk{Provider: p.Name(), Err: apiErr}:
				case <-ctx.Done():
				}
				return
			}
			text := extractText(resp)
			if text == "" {
				continue
			}
			select {
			case out <- llm.StreamChunk{Provider: p.Name(), Model: p.model(req), Delta: types.NewAssistantMessage(text)}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

func (p *Provider) HealthCheck(ctx context.Context) (*llm.HealthStatus, error) {
	start := time.Now()
	_, err := p.client.Models.GenerateContent(ctx, p.defaultModel,
		[]*genai.Content{genai.NewContentFromText("ping", genai.RoleUser)},
		&genai.GenerateContentConfig{MaxOutputTokens: 1})
	latency := time.Since(start)
	if err != nil {
		return &llm.HealthStatus{Healthy: false, Latency: latency}, err
	}
	return &llm.HealthStatus{Healthy: true, Latency: latency}, nil
}

// ListModels: genai exposes a model-listing API on some backends, but it is
// not needed by this pipeline (model choice is static per config), so it is
// left unimplemented here rather than guessed at.
func (p *Provider) ListModels(ctx context.Context) ([]llm.Model, error) {
	return nil, nil
}
