// =============================================================================
// DeepSearchStack configuration loader
// =============================================================================
// Unified config loading: YAML file + environment variable overrides.
//
// Usage:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("config.yaml").
//	    WithEnvPrefix("DEEPSEARCH").
//	    Load()
//
// Priority: defaults -> YAML file -> environment
// =============================================================================
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// Core configuration structure
// =============================================================================

// Config is the complete DeepSearchStack configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" env:"SERVER"`
	RateLimit RateLimitConfig `yaml:"rate_limit" env:"RATE_LIMIT"`
	Search    SearchConfig    `yaml:"search" env:"SEARCH"`
	Scraping  ScrapingConfig  `yaml:"scraping" env:"SCRAPING"`
	RAG       RAGConfig       `yaml:"rag" env:"RAG"`
	Synthesis SynthesisConfig `yaml:"synthesis" env:"SYNTHESIS"`
	Cache     CacheConfig     `yaml:"cache" env:"CACHE"`
	Sessions  SessionsConfig  `yaml:"sessions" env:"SESSIONS"`
	Service   ServiceConfig   `yaml:"service" env:"SERVICE"`
	Services  ServicesConfig  `yaml:"services" env:"SERVICES"`
	Redis     RedisConfig     `yaml:"redis" env:"REDIS"`
	Database  DatabaseConfig  `yaml:"database" env:"DATABASE"`
	LLM       LLMConfig       `yaml:"llm" env:"LLM"`
	JWT       JWTConfig       `yaml:"jwt" env:"JWT"`
	Log       LogConfig       `yaml:"log" env:"LOG"`
	Telemetry TelemetryConfig `yaml:"telemetry" env:"TELEMETRY"`
}

// ServerConfig configures the boundary API's HTTP surface.
type ServerConfig struct {
	// HTTP port the boundary API listens on.
	HTTPPort int `yaml:"http_port" env:"HTTP_PORT"`
	// MetricsPort is the dedicated Prometheus exposition port.
	MetricsPort int `yaml:"metrics_port" env:"METRICS_PORT"`
	// ReadTimeout/WriteTimeout bound the underlying http.Server.
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	// RateLimitRPS/RateLimitBurst govern the ambient per-IP limiter, distinct
	// from RateLimitConfig's tiered domain limiter.
	RateLimitRPS   int `yaml:"rate_limit_rps" env:"RATE_LIMIT_RPS"`
	RateLimitBurst int `yaml:"rate_limit_burst" env:"RATE_LIMIT_BURST"`
	// CORSAllowedOrigins empty means no CORS headers are set at all.
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins" env:"CORS_ALLOWED_ORIGINS"`
	// APIKeys is the accepted set for the optional X-API-Key auth path.
	APIKeys          []string `yaml:"api_keys" env:"API_KEYS"`
	AllowQueryAPIKey bool     `yaml:"allow_query_api_key" env:"ALLOW_QUERY_API_KEY"`
}

// TierConfig is a (capacity, refill-rate) pair backing one user tier's token bucket.
type TierConfig struct {
	Capacity   float64 `yaml:"capacity" env:"CAPACITY"`
	RefillRate float64 `yaml:"refill_rate" env:"REFILL_RATE"`
}

// RateLimitConfig configures the domain rate limiter's two admission layers:
// a global sliding window and per-user-tier token buckets.
type RateLimitConfig struct {
	GlobalPerSecond   int           `yaml:"global_per_second" env:"GLOBAL_PER_SECOND"`
	GlobalPerMinute   int           `yaml:"global_per_minute" env:"GLOBAL_PER_MINUTE"`
	ProviderPerSecond int           `yaml:"provider_per_second" env:"PROVIDER_PER_SECOND"`
	DefaultTier       TierConfig    `yaml:"default_tier" env:"DEFAULT_TIER"`
	PremiumTier       TierConfig    `yaml:"premium_tier" env:"PREMIUM_TIER"`
	EnterpriseTier    TierConfig    `yaml:"enterprise_tier" env:"ENTERPRISE_TIER"`
	IdleReapAfter     time.Duration `yaml:"idle_reap_after" env:"IDLE_REAP_AFTER"`
}

// SearchConfig configures provider fan-out defaults.
type SearchConfig struct {
	DefaultProviders []string      `yaml:"default_providers" env:"DEFAULT_PROVIDERS"`
	MaxResults       int           `yaml:"max_results" env:"MAX_RESULTS"`
	Timeout          time.Duration `yaml:"timeout" env:"TIMEOUT"`
	// Providers holds per-backend settings keyed by provider name (e.g.
	// "whoogle", "searxng", "brave"). YAML-only: the env-var walker does not
	// descend into maps, so per-provider overrides belong in the config file.
	Providers map[string]SearchProviderConfig `yaml:"providers" env:"-"`
}

// SearchProviderConfig configures one search backend adapter.
type SearchProviderConfig struct {
	Enabled bool `yaml:"enabled"`
	// BaseURL is the backend's root endpoint (self-hosted instance or vendor API).
	BaseURL string `yaml:"base_url"`
	// APIKey gates the key-required backends (Brave, Qwant, Google CSE); a
	// key-gated adapter with an empty APIKey returns no results rather than erroring.
	APIKey string `yaml:"api_key"`
	// CSEID is the Google Programmable Search Engine ID (Google CSE only).
	CSEID string `yaml:"cse_id"`
	// Weight is the static per-provider confidence weight attached to every
	// result this adapter returns, ahead of C6's tfidf/domain-authority blend.
	Weight float64 `yaml:"weight"`
}

// ScrapingConfig configures the bounded-concurrency scrape stage.
type ScrapingConfig struct {
	Enabled            bool          `yaml:"enabled" env:"ENABLED"`
	MaxScrapeURLs      int           `yaml:"max_scrape_urls" env:"MAX_SCRAPE_URLS"`
	Concurrency        int           `yaml:"concurrency" env:"CONCURRENCY"`
	Timeout            time.Duration `yaml:"timeout" env:"TIMEOUT"`
	ExtractionStrategy string        `yaml:"extraction_strategy" env:"EXTRACTION_STRATEGY"`
	MinContentLength   int           `yaml:"min_content_length" env:"MIN_CONTENT_LENGTH"`
}

// RAGConfig configures chunking and retrieval.
type RAGConfig struct {
	Enabled             bool `yaml:"enabled" env:"ENABLED"`
	ChunkSize           int  `yaml:"chunk_size" env:"CHUNK_SIZE"`
	ChunkOverlap        int  `yaml:"chunk_overlap" env:"CHUNK_OVERLAP"`
	TopK                int  `yaml:"top_k" env:"TOP_K"`
	StoreScrapedContent bool `yaml:"store_scraped_content" env:"STORE_SCRAPED_CONTENT"`
}

// SynthesisConfig configures the answer-synthesis stage.
type SynthesisConfig struct {
	DefaultProvider string        `yaml:"default_provider" env:"DEFAULT_PROVIDER"`
	SystemPrompt    string        `yaml:"system_prompt" env:"SYSTEM_PROMPT"`
	Temperature     float64       `yaml:"temperature" env:"TEMPERATURE"`
	Streaming       bool          `yaml:"streaming" env:"STREAMING"`
	Timeout         time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// CacheConfig configures the optional response cache.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" env:"ENABLED"`
	TTL     time.Duration `yaml:"ttl" env:"TTL"`
}

// SessionsConfig configures the pluggable session store.
type SessionsConfig struct {
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// Storage selects the backend: "memory" or "sql".
	Storage string        `yaml:"storage" env:"STORAGE"`
	TTL     time.Duration `yaml:"ttl" env:"TTL"`
}

// ServiceConfig identifies this process for logging, telemetry, and health checks.
type ServiceConfig struct {
	Name     string `yaml:"name" env:"NAME"`
	Host     string `yaml:"host" env:"HOST"`
	Port     int    `yaml:"port" env:"PORT"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL"`
	Version  string `yaml:"version" env:"VERSION"`
}

// ServicesConfig addresses the opaque upstream collaborators this process
// consumes through thin client contracts rather than re-implementing.
type ServicesConfig struct {
	SearchGateway string `yaml:"search_gateway" env:"SEARCH_GATEWAY"`
	LLMGateway    string `yaml:"llm_gateway" env:"LLM_GATEWAY"`
	VectorStore   string `yaml:"vector_store" env:"VECTOR_STORE"`
	Crawler       string `yaml:"crawler" env:"CRAWLER"`
	Redis         string `yaml:"redis" env:"REDIS"`
	Postgres      string `yaml:"postgres" env:"POSTGRES"`
}

// RedisConfig configures the ephemeral session-store backend and the
// distributed rate-limit state when run multi-instance.
type RedisConfig struct {
	Addr         string `yaml:"addr" env:"ADDR"`
	Password     string `yaml:"password" env:"PASSWORD"`
	DB           int    `yaml:"db" env:"DB"`
	PoolSize     int    `yaml:"pool_size" env:"POOL_SIZE"`
	MinIdleConns int    `yaml:"min_idle_conns" env:"MIN_IDLE_CONNS"`
}

// DatabaseConfig configures the relational session-store backend.
type DatabaseConfig struct {
	// Driver selects postgres, mysql, or sqlite.
	Driver          string        `yaml:"driver" env:"DRIVER"`
	Host            string        `yaml:"host" env:"HOST"`
	Port            int           `yaml:"port" env:"PORT"`
	User            string        `yaml:"user" env:"USER"`
	Password        string        `yaml:"password" env:"PASSWORD"`
	Name            string        `yaml:"name" env:"NAME"`
	SSLMode         string        `yaml:"ssl_mode" env:"SSL_MODE"`
	MaxOpenConns    int           `yaml:"max_open_conns" env:"MAX_OPEN_CONNS"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env:"MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"CONN_MAX_LIFETIME"`
}

// LLMConfig configures defaults shared across LLM gateway adapters.
type LLMConfig struct {
	DefaultProvider string        `yaml:"default_provider" env:"DEFAULT_PROVIDER"`
	APIKey          string        `yaml:"api_key" env:"API_KEY"`
	BaseURL         string        `yaml:"base_url" env:"BASE_URL"`
	Timeout         time.Duration `yaml:"timeout" env:"TIMEOUT"`
	MaxRetries      int           `yaml:"max_retries" env:"MAX_RETRIES"`
	// Providers holds per-backend settings keyed by registry name ("local-
	// pool", "openai", "anthropic", "gemini"). YAML-only, same rationale as
	// SearchConfig.Providers: the env-var walker doesn't descend into maps.
	Providers map[string]LLMProviderConfig `yaml:"providers" env:"-"`
}

// LLMProviderConfig configures one C7 gateway backend.
type LLMProviderConfig struct {
	Enabled      bool   `yaml:"enabled"`
	APIKey       string `yaml:"api_key"`
	BaseURL      string `yaml:"base_url"`
	DefaultModel string `yaml:"default_model"`
	// UseVertexAI selects the Vertex AI-proxied backend for the gemini
	// adapter; Project/Location are required when it's set.
	UseVertexAI bool   `yaml:"use_vertex_ai"`
	Project     string `yaml:"project"`
	Location    string `yaml:"location"`
}

// JWTConfig configures the boundary API's bearer-token auth middleware.
type JWTConfig struct {
	// Secret is used for HS256 verification.
	Secret string `yaml:"secret" env:"SECRET"`
	// PublicKey is a PEM-encoded RSA public key used for RS256 verification.
	PublicKey string `yaml:"public_key" env:"PUBLIC_KEY"`
	Issuer    string `yaml:"issuer" env:"ISSUER"`
	Audience  string `yaml:"audience" env:"AUDIENCE"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level            string   `yaml:"level" env:"LEVEL"`
	Format           string   `yaml:"format" env:"FORMAT"`
	OutputPaths      []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
	EnableCaller     bool     `yaml:"enable_caller" env:"ENABLE_CALLER"`
	EnableStacktrace bool     `yaml:"enable_stacktrace" env:"ENABLE_STACKTRACE"`
}

// TelemetryConfig configures the OpenTelemetry exporters.
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled" env:"ENABLED"`
	OTLPEndpoint string  `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	ServiceName  string  `yaml:"service_name" env:"SERVICE_NAME"`
	SampleRate   float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
}

// =============================================================================
// Loader
// =============================================================================

// Loader is a builder-pattern configuration loader.
type Loader struct {
	configPath string
	envPrefix  string
	validators []func(*Config) error
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{
		envPrefix:  "DEEPSEARCH",
		validators: make([]func(*Config) error, 0),
	}
}

// WithConfigPath sets the YAML config file path.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix sets the environment variable prefix.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithValidator adds a config validator.
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load loads configuration. Priority: defaults -> YAML file -> environment.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := l.loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}

	return cfg, nil
}

// loadFromFile loads config from a YAML file. A missing file is not an error.
func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// loadFromEnv applies environment variable overrides.
func (l *Loader) loadFromEnv(cfg *Config) error {
	return l.setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix)
}

// setFieldsFromEnv recursively walks struct fields, applying
// DEEPSEARCH_<PATH>-shaped environment overrides.
func (l *Loader) setFieldsFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		envTag := fieldType.Tag.Get("env")
		if envTag == "" || envTag == "-" {
			continue
		}

		envKey := prefix + "_" + envTag

		if field.Kind() == reflect.Struct {
			if err := l.setFieldsFromEnv(field, envKey); err != nil {
				return err
			}
			continue
		}

		envValue, ok := os.LookupEnv(envKey)
		if !ok || envValue == "" {
			continue
		}

		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("failed to set %s: %w", envKey, err)
		}
	}

	return nil
}

// setFieldValue coerces a string environment value into the target reflect.Value.
func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return err
			}
			field.SetInt(i)
		}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetUint(u)

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := parseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			field.Set(reflect.ValueOf(parts))
		}
	}

	return nil
}

// parseBool extends strconv.ParseBool with the yes/no/on/off spellings.
func parseBool(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "yes", "on":
		return true, nil
	case "no", "off":
		return false, nil
	default:
		return strconv.ParseBool(value)
	}
}

// =============================================================================
// Helpers
// =============================================================================

// MustLoad loads configuration, panicking on failure.
func MustLoad(path string) *Config {
	cfg, err := NewLoader().WithConfigPath(path).Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// LoadFromEnv loads configuration from environment variables only.
func LoadFromEnv() (*Config, error) {
	return NewLoader().Load()
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		errs = append(errs, "invalid HTTP port")
	}
	if c.Search.MaxResults <= 0 {
		errs = append(errs, "search.max_results must be positive")
	}
	if c.Scraping.Enabled && c.Scraping.Concurrency <= 0 {
		errs = append(errs, "scraping.concurrency must be positive when scraping is enabled")
	}
	if c.RAG.Enabled && c.RAG.ChunkSize <= 0 {
		errs = append(errs, "rag.chunk_size must be positive when rag is enabled")
	}
	if c.RAG.Enabled && c.RAG.ChunkOverlap >= c.RAG.ChunkSize {
		errs = append(errs, "rag.chunk_overlap must be smaller than rag.chunk_size")
	}
	if c.Synthesis.Temperature < 0 || c.Synthesis.Temperature > 2 {
		errs = append(errs, "synthesis.temperature must be between 0 and 2")
	}
	if c.Sessions.Storage != "" && c.Sessions.Storage != "memory" && c.Sessions.Storage != "sql" {
		errs = append(errs, "sessions.storage must be \"memory\" or \"sql\"")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// DSN returns the database connection string for the configured driver.
func (d *DatabaseConfig) DSN() string {
	switch d.Driver {
	case "postgres":
		return fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
		)
	case "mysql":
		return fmt.Sprintf(
			"%s:%s@tcp(%s:%d)/%s?parseTime=true",
			d.User, d.Password, d.Host, d.Port, d.Name,
		)
	case "sqlite":
		return d.Name
	default:
		return ""
	}
}
