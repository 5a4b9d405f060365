// =============================================================================
// DeepSearchStack default configuration
// =============================================================================
// Reasonable defaults for every configuration section.
// =============================================================================
package config

import "time"

// DefaultConfig returns the fully-populated default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server:    DefaultServerConfig(),
		RateLimit: DefaultRateLimitConfig(),
		Search:    DefaultSearchConfig(),
		Scraping:  DefaultScrapingConfig(),
		RAG:       DefaultRAGConfig(),
		Synthesis: DefaultSynthesisConfig(),
		Cache:     DefaultCacheConfig(),
		Sessions:  DefaultSessionsConfig(),
		Service:   DefaultServiceConfig(),
		Services:  DefaultServicesConfig(),
		Redis:     DefaultRedisConfig(),
		Database:  DefaultDatabaseConfig(),
		LLM:       DefaultLLMConfig(),
		JWT:       DefaultJWTConfig(),
		Log:       DefaultLogConfig(),
		Telemetry: DefaultTelemetryConfig(),
	}
}

// DefaultServerConfig returns the default boundary API server configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTPPort:           8080,
		MetricsPort:        9091,
		ReadTimeout:        30 * time.Second,
		WriteTimeout:       30 * time.Second,
		ShutdownTimeout:    15 * time.Second,
		RateLimitRPS:       100,
		RateLimitBurst:     200,
		CORSAllowedOrigins: nil,
		APIKeys:            nil,
		AllowQueryAPIKey:   false,
	}
}

// DefaultRateLimitConfig returns the default tiered rate-limit configuration.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		GlobalPerSecond:   200,
		GlobalPerMinute:   5000,
		ProviderPerSecond: 20,
		DefaultTier:       TierConfig{Capacity: 10, RefillRate: 1},
		PremiumTier:       TierConfig{Capacity: 50, RefillRate: 5},
		EnterpriseTier:    TierConfig{Capacity: 200, RefillRate: 20},
		IdleReapAfter:     10 * time.Minute,
	}
}

// DefaultSearchConfig returns the default search fan-out configuration.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		DefaultProviders: []string{"whoogle", "searxng", "wikipedia", "duckduckgo"},
		MaxResults:       10,
		Timeout:          8 * time.Second,
		Providers: map[string]SearchProviderConfig{
			"whoogle":       {Enabled: true, BaseURL: "http://localhost:5000", Weight: 0.8},
			"searxng":       {Enabled: true, BaseURL: "http://localhost:8888", Weight: 0.8},
			"yacy":          {Enabled: true, BaseURL: "http://localhost:8090", Weight: 0.6},
			"wikipedia":     {Enabled: true, BaseURL: "https://en.wikipedia.org", Weight: 0.9},
			"duckduckgo":    {Enabled: true, BaseURL: "https://api.duckduckgo.com", Weight: 0.7},
			"stackexchange": {Enabled: true, BaseURL: "https://api.stackexchange.com/2.3", Weight: 0.75},
			"arxiv":         {Enabled: true, BaseURL: "http://export.arxiv.org", Weight: 0.85},
			"brave":         {Enabled: false, BaseURL: "https://api.search.brave.com", Weight: 0.8},
			"qwant":         {Enabled: false, BaseURL: "https://api.qwant.com", Weight: 0.7},
			"googlecse":     {Enabled: false, BaseURL: "https://www.googleapis.com/customsearch/v1", Weight: 0.85},
		},
	}
}

// DefaultScrapingConfig returns the default scrape-stage configuration.
func DefaultScrapingConfig() ScrapingConfig {
	return ScrapingConfig{
		Enabled:            true,
		MaxScrapeURLs:      5,
		Concurrency:        4,
		Timeout:            10 * time.Second,
		ExtractionStrategy: "readability",
		MinContentLength:   200,
	}
}

// DefaultRAGConfig returns the default chunk/retrieve configuration.
func DefaultRAGConfig() RAGConfig {
	return RAGConfig{
		Enabled:             true,
		ChunkSize:           512,
		ChunkOverlap:        64,
		TopK:                6,
		StoreScrapedContent: false,
	}
}

// DefaultSynthesisConfig returns the default answer-synthesis configuration.
func DefaultSynthesisConfig() SynthesisConfig {
	return SynthesisConfig{
		DefaultProvider: "anthropic",
		SystemPrompt:    "You are a careful research assistant. Answer using only the supplied sources and cite them.",
		Temperature:     0.3,
		Streaming:       true,
		Timeout:         60 * time.Second,
	}
}

// DefaultCacheConfig returns the default response-cache configuration.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled: true,
		TTL:     15 * time.Minute,
	}
}

// DefaultSessionsConfig returns the default session-store configuration.
func DefaultSessionsConfig() SessionsConfig {
	return SessionsConfig{
		Enabled: true,
		Storage: "memory",
		TTL:     30 * time.Minute,
	}
}

// DefaultServiceConfig returns the default process-identity configuration.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		Name:     "deepsearch",
		Host:     "0.0.0.0",
		Port:     8080,
		LogLevel: "info",
		Version:  "dev",
	}
}

// DefaultServicesConfig returns the default opaque-collaborator addresses.
func DefaultServicesConfig() ServicesConfig {
	return ServicesConfig{
		SearchGateway: "",
		LLMGateway:    "",
		VectorStore:   "http://localhost:6333",
		Crawler:       "",
		Redis:         "localhost:6379",
		Postgres:      "",
	}
}

// DefaultRedisConfig returns the default Redis client configuration.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:         "localhost:6379",
		Password:     "",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
	}
}

// DefaultDatabaseConfig returns the default relational store configuration.
func DefaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Driver:          "postgres",
		Host:            "localhost",
		Port:            5432,
		User:            "deepsearch",
		Password:        "",
		Name:            "deepsearch",
		SSLMode:         "disable",
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

// DefaultLLMConfig returns the default shared LLM gateway configuration.
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		DefaultProvider: "anthropic",
		APIKey:          "",
		BaseURL:         "",
		Timeout:         2 * time.Minute,
		MaxRetries:      1,
		Providers: map[string]LLMProviderConfig{
			"local-pool": {Enabled: true, BaseURL: "http://localhost:11434", DefaultModel: "llama3"},
			"openai":     {Enabled: false, DefaultModel: "gpt-4o-mini"},
			"anthropic":  {Enabled: false, DefaultModel: "claude-sonnet-4-5"},
			"gemini":     {Enabled: false, DefaultModel: "gemini-2.0-flash"},
		},
	}
}

// DefaultJWTConfig returns the default bearer-token auth configuration.
func DefaultJWTConfig() JWTConfig {
	return JWTConfig{
		Secret:    "",
		PublicKey: "",
		Issuer:    "deepsearch",
		Audience:  "deepsearch-clients",
	}
}

// DefaultLogConfig returns the default zap logging configuration.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "json",
		OutputPaths:      []string{"stdout"},
		EnableCaller:     true,
		EnableStacktrace: false,
	}
}

// DefaultTelemetryConfig returns the default OpenTelemetry configuration.
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "deepsearch",
		SampleRate:   0.1,
	}
}
