// Package localpool adapts a locally hosted, OpenAI-compatible model pool
// (e.g. Ollama, vLLM, llama.cpp's server) for C7. It is treated as opaque
// HTTP: the pool's internal model-selection/queueing is none of this
// module's concern, only that it speaks the OpenAI chat-completions wire
// format.
package localpool

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Trafexofive/DeepSearchStack/llm/providers/openaicompat"
	"github.com/Trafexofive/DeepSearchStack/llmgateway"
)

// Config configures the local pool's endpoint.
type Config struct {
	BaseURL      string
	DefaultModel string
	Timeout      time.Duration
}

// New builds a llmgateway.Provider for a local model pool: lowest cost
// ordinal (no metered API spend) and medium quality (local models trail
// frontier hosted models but are perfectly serviceable for many queries).
func New(cfg Config, logger *zap.Logger) llmgateway.Provider {
	base := cfg.BaseURL
	if base == "" {
		base = "http://localhost:11434"
	}
	inner := openaicompat.New(openaicompat.Config{
		ProviderName:  "local-pool",
		BaseURL:       base,
		DefaultModel:  cfg.DefaultModel,
		FallbackModel: "llama3",
		Timeout:       cfg.Timeout,
		// Local pools are typically unauthenticated; omit the Authorization
		// header entirely rather than send a meaningless bearer token.
		BuildHeaders: func(req *http.Request, apiKey string) {},
	}, logger)

	return llmgateway.NewAdapter(inner, llmgateway.CostLow, llmgateway.QualityMedium, 10*time.Second, logger)
}
