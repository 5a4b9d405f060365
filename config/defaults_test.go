package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- DefaultConfig aggregate ---

func TestDefaultConfig_ContainsAllSubConfigs(t *testing.T) {
	cfg := DefaultConfig()
	require.NotNil(t, cfg)

	// Each sub-config should be non-zero
	assert.NotEqual(t, ServerConfig{}, cfg.Server)
	assert.NotEqual(t, RateLimitConfig{}, cfg.RateLimit)
	assert.NotEqual(t, SearchConfig{}, cfg.Search)
	assert.NotEqual(t, ScrapingConfig{}, cfg.Scraping)
	assert.NotEqual(t, RAGConfig{}, cfg.RAG)
	assert.NotEqual(t, SynthesisConfig{}, cfg.Synthesis)
	assert.NotEqual(t, CacheConfig{}, cfg.Cache)
	assert.NotEqual(t, SessionsConfig{}, cfg.Sessions)
	assert.NotEqual(t, ServiceConfig{}, cfg.Service)
	assert.NotEqual(t, ServicesConfig{}, cfg.Services)
	assert.NotEqual(t, RedisConfig{}, cfg.Redis)
	assert.NotEqual(t, DatabaseConfig{}, cfg.Database)
	assert.NotEqual(t, LLMConfig{}, cfg.LLM)
	assert.NotEqual(t, JWTConfig{}, cfg.JWT)
	assert.NotEqual(t, LogConfig{}, cfg.Log)
	assert.NotEqual(t, TelemetryConfig{}, cfg.Telemetry)
}

// --- Individual Default*Config functions ---

func TestDefaultServerConfig(t *testing.T) {
	cfg := DefaultServerConfig()
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, 9091, cfg.MetricsPort)
	assert.Equal(t, 30*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.WriteTimeout)
	assert.Equal(t, 15*time.Second, cfg.ShutdownTimeout)
	assert.False(t, cfg.AllowQueryAPIKey)
	assert.Equal(t, 100, cfg.RateLimitRPS)
	assert.Equal(t, 200, cfg.RateLimitBurst)
	assert.Empty(t, cfg.CORSAllowedOrigins)
	assert.Empty(t, cfg.APIKeys)
}

func TestDefaultRateLimitConfig(t *testing.T) {
	cfg := DefaultRateLimitConfig()
	assert.Equal(t, 200, cfg.GlobalPerSecond)
	assert.Equal(t, 5000, cfg.GlobalPerMinute)
	assert.Equal(t, 20, cfg.ProviderPerSecond)
	assert.InDelta(t, 10, cfg.DefaultTier.Capacity, 0.001)
	assert.InDelta(t, 50, cfg.PremiumTier.Capacity, 0.001)
	assert.InDelta(t, 200, cfg.EnterpriseTier.Capacity, 0.001)
	assert.Equal(t, 10*time.Minute, cfg.IdleReapAfter)
}

func TestDefaultSearchConfig(t *testing.T) {
	cfg := DefaultSearchConfig()
	assert.NotEmpty(t, cfg.DefaultProviders)
	assert.Equal(t, 10, cfg.MaxResults)
	assert.Equal(t, 8*time.Second, cfg.Timeout)
}

func TestDefaultScrapingConfig(t *testing.T) {
	cfg := DefaultScrapingConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 5, cfg.MaxScrapeURLs)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, "readability", cfg.ExtractionStrategy)
	assert.Equal(t, 200, cfg.MinContentLength)
}

func TestDefaultRAGConfig(t *testing.T) {
	cfg := DefaultRAGConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 512, cfg.ChunkSize)
	assert.Equal(t, 64, cfg.ChunkOverlap)
	assert.Equal(t, 6, cfg.TopK)
	assert.False(t, cfg.StoreScrapedContent)
}

func TestDefaultSynthesisConfig(t *testing.T) {
	cfg := DefaultSynthesisConfig()
	assert.Equal(t, "anthropic", cfg.DefaultProvider)
	assert.NotEmpty(t, cfg.SystemPrompt)
	assert.InDelta(t, 0.3, cfg.Temperature, 0.001)
	assert.True(t, cfg.Streaming)
	assert.Equal(t, 60*time.Second, cfg.Timeout)
}

func TestDefaultCacheConfig(t *testing.T) {
	cfg := DefaultCacheConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 15*time.Minute, cfg.TTL)
}

func TestDefaultSessionsConfig(t *testing.T) {
	cfg := DefaultSessionsConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, "memory", cfg.Storage)
	assert.Equal(t, 30*time.Minute, cfg.TTL)
}

func TestDefaultServiceConfig(t *testing.T) {
	cfg := DefaultServiceConfig()
	assert.Equal(t, "deepsearch", cfg.Name)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestDefaultServicesConfig(t *testing.T) {
	cfg := DefaultServicesConfig()
	assert.Equal(t, "http://localhost:6333", cfg.VectorStore)
	assert.Equal(t, "localhost:6379", cfg.Redis)
}

func TestDefaultRedisConfig(t *testing.T) {
	cfg := DefaultRedisConfig()
	assert.Equal(t, "localhost:6379", cfg.Addr)
	assert.Empty(t, cfg.Password)
	assert.Equal(t, 0, cfg.DB)
	assert.Equal(t, 10, cfg.PoolSize)
	assert.Equal(t, 2, cfg.MinIdleConns)
}

func TestDefaultDatabaseConfig(t *testing.T) {
	cfg := DefaultDatabaseConfig()
	assert.Equal(t, "postgres", cfg.Driver)
	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 5432, cfg.Port)
	assert.Equal(t, "deepsearch", cfg.User)
	assert.Empty(t, cfg.Password)
	assert.Equal(t, "deepsearch", cfg.Name)
	assert.Equal(t, "disable", cfg.SSLMode)
	assert.Equal(t, 25, cfg.MaxOpenConns)
	assert.Equal(t, 5, cfg.MaxIdleConns)
	assert.Equal(t, 5*time.Minute, cfg.ConnMaxLifetime)
}

func TestDefaultLLMConfig(t *testing.T) {
	cfg := DefaultLLMConfig()
	assert.Equal(t, "anthropic", cfg.DefaultProvider)
	assert.Empty(t, cfg.APIKey)
	assert.Empty(t, cfg.BaseURL)
	assert.Equal(t, 2*time.Minute, cfg.Timeout)
	assert.Equal(t, 1, cfg.MaxRetries)
}

func TestDefaultJWTConfig(t *testing.T) {
	cfg := DefaultJWTConfig()
	assert.Empty(t, cfg.Secret)
	assert.Equal(t, "deepsearch", cfg.Issuer)
	assert.Equal(t, "deepsearch-clients", cfg.Audience)
}

func TestDefaultLogConfig(t *testing.T) {
	cfg := DefaultLogConfig()
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, []string{"stdout"}, cfg.OutputPaths)
	assert.True(t, cfg.EnableCaller)
	assert.False(t, cfg.EnableStacktrace)
}

func TestDefaultTelemetryConfig(t *testing.T) {
	cfg := DefaultTelemetryConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, "localhost:4317", cfg.OTLPEndpoint)
	assert.Equal(t, "deepsearch", cfg.ServiceName)
	assert.InDelta(t, 0.1, cfg.SampleRate, 0.001)
}
