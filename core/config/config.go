package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	OTel      OTelConfig
	OpenAI    OpenAIConfig
	AgentLLM  LLMConfig
	Typesense TypesenseConfig
	Catalog   CatalogConfig
	Cache     CacheConfig
	Pipeline  PipelineConfig
	Env       string
	LogLevel  string
}

type OTelConfig struct {
	Endpoint       string
	Headers        string
	ServiceName    string
	ServiceVersion string
}

// OpenAIConfig backs the structured client used to match catalog hits.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// LLMConfig backs the conversational participants (collector, composer).
type LLMConfig struct {
	Provider  string // "openai" or "anthropic"
	APIKey    string
	BaseURL   string // Optional: for custom endpoints
	Model     string
	MaxTokens int
}

type TypesenseConfig struct {
	URL        string
	APIKey     string
	Collection string
}

type CatalogConfig struct {
	Path        string
	Overwrite   bool
	SearchLimit int
}

type CacheConfig struct {
	RedisURL string
	TTL      time.Duration
}

type PipelineConfig struct {
	MaxRounds int
}

// Load loads configuration from environment variables.
// In development it also reads a .env file from the working directory.
func Load() (Config, error) {
	if getEnv("RECOMMENDER_ENV", "development") == "development" {
		_ = godotenv.Load(".env")
	}

	openAIKey := getEnv("OPENAI_API_KEY", "")
	if openAIKey == "" {
		return Config{}, fmt.Errorf("OpenAI API key not found: set the OPENAI_API_KEY environment variable")
	}

	cfg := Config{
		Env:      getEnv("RECOMMENDER_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "warn"),
		OTel: OTelConfig{
			Endpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:        getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "recommender"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "dev"),
		},
		OpenAI: OpenAIConfig{
			APIKey:  openAIKey,
			BaseURL: getEnv("OPENAI_BASE_URL", ""),
			Model:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		},
		AgentLLM: LLMConfig{
			Provider:  getEnv("LLM_PROVIDER", "openai"),
			APIKey:    getEnv("LLM_API_KEY", openAIKey),
			BaseURL:   getEnv("LLM_BASE_URL", ""),
			Model:     getEnv("LLM_MODEL", "gpt-4"),
			MaxTokens: getEnvInt("LLM_MAX_TOKENS", 2048),
		},
		Typesense: TypesenseConfig{
			URL:        getEnv("TYPESENSE_URL", "http://localhost:8108"),
			APIKey:     getEnv("TYPESENSE_API_KEY", "xyz"),
			Collection: getEnv("TYPESENSE_COLLECTION", "product-catalog"),
		},
		Catalog: CatalogConfig{
			Path:        getEnv("CATALOG_PATH", "products.csv"),
			Overwrite:   getEnvBool("CATALOG_OVERWRITE", false),
			SearchLimit: getEnvInt("CATALOG_SEARCH_LIMIT", 5),
		},
		Cache: CacheConfig{
			RedisURL: getEnv("REDIS_URL", ""),
			TTL:      getEnvDuration("RETRIEVAL_CACHE_TTL", 10*time.Minute),
		},
		Pipeline: PipelineConfig{
			MaxRounds: getEnvInt("COLLECTOR_MAX_ROUNDS", 12),
		},
	}

	if !cfg.AgentLLM.Enabled() {
		return Config{}, fmt.Errorf("LLM_PROVIDER must be openai or anthropic with a non-empty LLM_API_KEY, got provider %q", cfg.AgentLLM.Provider)
	}

	if cfg.Pipeline.MaxRounds < 2 {
		return Config{}, fmt.Errorf("COLLECTOR_MAX_ROUNDS must be at least 2, got %d", cfg.Pipeline.MaxRounds)
	}

	if cfg.Catalog.SearchLimit <= 0 {
		return Config{}, fmt.Errorf("CATALOG_SEARCH_LIMIT must be positive, got %d", cfg.Catalog.SearchLimit)
	}

	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func (c OTelConfig) Enabled() bool {
	return c.Endpoint != ""
}

func (c CacheConfig) Enabled() bool {
	return c.RedisURL != ""
}

func (c LLMConfig) Enabled() bool {
	return c.APIKey != "" && (c.Provider == "openai" || c.Provider == "anthropic")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
