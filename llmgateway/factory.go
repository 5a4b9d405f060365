package llmgateway

import (
	"context"

	"go.uber.org/zap"

	"github.com/Trafexofive/DeepSearchStack/config"
	"github.com/Trafexofive/DeepSearchStack/llmgateway/providers/anthropicdirect"
	"github.com/Trafexofive/DeepSearchStack/llmgateway/providers/geminiproxy"
	"github.com/Trafexofive/DeepSearchStack/llmgateway/providers/localpool"
	"github.com/Trafexofive/DeepSearchStack/llmgateway/providers/openaidirect"
)

// NewRegistryFromConfig builds a Registry from config.LLMConfig, registering
// only the backends marked Enabled — mirrors search.NewRegistryFromConfig's
// name-to-constructor wiring for this domain's four adapters.
func NewRegistryFromConfig(ctx context.Context, cfg config.LLMConfig, logger *zap.Logger) (*Registry, error) {
	reg := NewRegistry()

	get := func(name string) (config.LLMProviderConfig, bool) {
		pc, ok := cfg.Providers[name]
		return pc, ok && pc.Enabled
	}

	if pc, ok := get("local-pool"); ok {
		reg.Register(localpool.New(localpool.Config{
			BaseURL:      pc.BaseURL,
			DefaultModel: pc.DefaultModel,
			Timeout:      cfg.Timeout,
		}, logger))
	}

	if pc, ok := get("openai"); ok {
		reg.Register(openaidirect.New(openaidirect.Config{
			APIKey:       pc.APIKey,
			BaseURL:      pc.BaseURL,
			DefaultModel: pc.DefaultModel,
			Timeout:      cfg.Timeout,
		}, logger))
	}

	if pc, ok := get("anthropic"); ok {
		reg.Register(anthropicdirect.New(anthropicdirect.Config{
			APIKey:       pc.APIKey,
			DefaultModel: pc.DefaultModel,
			Timeout:      cfg.Timeout,
		}, logger))
	}

	if pc, ok := get("gemini"); ok {
		p, err := geminiproxy.New(ctx, geminiproxy.Config{
			APIKey:       pc.APIKey,
			Project:      pc.Project,
			Location:     pc.Location,
			UseVertexAI:  pc.UseVertexAI,
			DefaultModel: pc.DefaultModel,
		}, logger)
		if err != nil {
			return nil, err
		}
		reg.Register(p)
	}

	if cfg.DefaultProvider != "" {
		_ = reg.SetDefault(cfg.DefaultProvider)
	}

	return reg, nil
}
