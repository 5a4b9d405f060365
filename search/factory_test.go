package search

import (
	"testing"

	"github.com/Trafexofive/DeepSearchStack/config"
	"github.com/stretchr/testify/assert"
)

func TestNewRegistryFromConfig_RegistersOnlyEnabled(t *testing.T) {
	cfg := config.SearchConfig{
		Providers: map[string]config.SearchProviderConfig{
			"whoogle":   {Enabled: true, BaseURL: "http://localhost:5000", Weight: 0.8},
			"searxng":   {Enabled: false, BaseURL: "http://localhost:8888", Weight: 0.8},
			"brave":     {Enabled: false, APIKey: ""},
			"googlecse": {Enabled: true, BaseURL: "https://www.googleapis.com/customsearch/v1", APIKey: "k", CSEID: "cx", Weight: 0.85},
		},
	}

	reg := NewRegistryFromConfig(cfg, nil)

	_, ok := reg.Get("whoogle")
	assert.True(t, ok)
	_, ok = reg.Get("searxng")
	assert.False(t, ok)
	_, ok = reg.Get("brave")
	assert.False(t, ok)
	_, ok = reg.Get("googlecse")
	assert.True(t, ok)
}

func TestNewRegistryFromConfig_DefaultConfigRegistersDefaultOnly(t *testing.T) {
	cfg := config.DefaultSearchConfig()
	reg := NewRegistryFromConfig(cfg, nil)

	assert.Equal(t, 7, reg.Len(), "the 7 enabled-by-default backends, not the 3 optional key-gated ones")
	for _, name := range []string{"whoogle", "searxng", "yacy", "wikipedia", "duckduckgo", "stackexchange", "arxiv"} {
		_, ok := reg.Get(name)
		assert.True(t, ok, "%s should be registered", name)
	}
	for _, name := range []string{"brave", "qwant", "googlecse"} {
		_, ok := reg.Get(name)
		assert.False(t, ok, "%s is disabled by default", name)
	}
}
