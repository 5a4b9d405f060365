package search

import (
	"github.com/Trafexofive/DeepSearchStack/config"
	"github.com/Trafexofive/DeepSearchStack/search/adapters"
	"go.uber.org/zap"
)

// NewRegistryFromConfig builds a Registry populated with every provider
// enabled in cfg. Disabled or missing providers are simply not registered,
// not errored over — the fan-out layer's Resolve only fails on a request
// naming a provider that was never configured at all.
func NewRegistryFromConfig(cfg config.SearchConfig, logger *zap.Logger) *Registry {
	reg := NewRegistry()

	get := func(name string) (config.SearchProviderConfig, bool) {
		pc, ok := cfg.Providers[name]
		return pc, ok && pc.Enabled
	}

	if pc, ok := get("whoogle"); ok {
		reg.Register(adapters.NewWhoogle(pc.BaseURL, pc.Weight, logger))
	}
	if pc, ok := get("searxng"); ok {
		reg.Register(adapters.NewSearXNG(pc.BaseURL, pc.Weight, logger))
	}
	if pc, ok := get("yacy"); ok {
		reg.Register(adapters.NewYaCy(pc.BaseURL, pc.Weight, logger))
	}
	if pc, ok := get("wikipedia"); ok {
		reg.Register(adapters.NewWikipedia(pc.BaseURL, pc.Weight, logger))
	}
	if pc, ok := get("duckduckgo"); ok {
		reg.Register(adapters.NewDuckDuckGo(pc.BaseURL, pc.Weight, logger))
	}
	if pc, ok := get("stackexchange"); ok {
		reg.Register(adapters.NewStackExchange(pc.BaseURL, "", pc.Weight, logger))
	}
	if pc, ok := get("arxiv"); ok {
		reg.Register(adapters.NewArXiv(pc.BaseURL, pc.Weight, logger))
	}
	if pc, ok := get("brave"); ok {
		reg.Register(adapters.NewBrave(pc.BaseURL, pc.APIKey, pc.Weight, logger))
	}
	if pc, ok := get("qwant"); ok {
		reg.Register(adapters.NewQwant(pc.BaseURL, pc.APIKey, pc.Weight, logger))
	}
	if pc, ok := get("googlecse"); ok {
		reg.Register(adapters.NewGoogleCSE(pc.BaseURL, pc.APIKey, pc.CSEID, pc.Weight, logger))
	}

	return reg
}
