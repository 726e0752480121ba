// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// LLM providers understood by the agent.
const (
	ProviderGroq       = "groq"
	ProviderOpenRouter = "openrouter"
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
)

// Config holds all application configuration.
type Config struct {
	Port           string
	FrontendURL    string
	DBPath         string
	GRPCHealthAddr string // empty disables the gRPC health probe
	LLM            LLMConfig
	Search         SearchConfig
	RateLimit      RateLimitConfig
	Research       ResearchConfig
}

// LLMConfig selects the hosted model the agent talks to.
type LLMConfig struct {
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float32
	MaxTokens   int
}

// SearchConfig controls the web search tool and its result cache.
type SearchConfig struct {
	MaxResults    int
	UserAgent     string
	CacheEnabled  bool
	CacheTTL      time.Duration
	SweepInterval time.Duration
}

// RateLimitConfig controls per-client throttling of research requests.
type RateLimitConfig struct {
	RequestsPerWindow int
	WindowDuration    time.Duration
}

// ResearchConfig bounds a single research request.
type ResearchConfig struct {
	Timeout            time.Duration
	MaxIterations      int
	MaxRequestBodySize int64
}

var providerDefaults = map[string]struct {
	model   string
	baseURL string
	keyEnv  string
}{
	ProviderGroq:       {model: "llama3-8b-8192", baseURL: "https://api.groq.com/openai/v1", keyEnv: "GROQ_API_KEY"},
	ProviderOpenRouter: {model: "meta-llama/llama-3.1-8b-instruct", baseURL: "https://openrouter.ai/api/v1", keyEnv: "OPENROUTER_API_KEY"},
	ProviderOpenAI:     {model: "gpt-4o-mini", baseURL: "https://api.openai.com/v1", keyEnv: "OPENAI_API_KEY"},
	ProviderGemini:     {model: "gemini-2.5-flash", baseURL: "", keyEnv: "GEMINI_API_KEY"},
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	provider := strings.ToLower(strings.TrimSpace(getEnv("LLM_PROVIDER", ProviderGroq)))
	defaults, known := providerDefaults[provider]

	apiKey := getEnv("LLM_API_KEY", "")
	if apiKey == "" && known {
		apiKey = getEnv(defaults.keyEnv, "")
	}

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		FrontendURL:    getEnv("FRONTEND_URL", ""),
		DBPath:         getEnv("DB_PATH", "./data/search-cache.db"),
		GRPCHealthAddr: getEnv("GRPC_HEALTH_ADDR", ""),
		LLM: LLMConfig{
			Provider:    provider,
			Model:       getEnv("LLM_MODEL", defaults.model),
			APIKey:      apiKey,
			BaseURL:     getEnv("LLM_BASE_URL", defaults.baseURL),
			Temperature: getEnvFloat32("LLM_TEMPERATURE", 0.3),
			MaxTokens:   getEnvInt("LLM_MAX_TOKENS", 1024),
		},
		Search: SearchConfig{
			MaxResults:    getEnvInt("SEARCH_MAX_RESULTS", 5),
			UserAgent:     getEnv("SEARCH_USER_AGENT", "websearch-agent/1.0"),
			CacheEnabled:  getEnvBool("SEARCH_CACHE_ENABLED", true),
			CacheTTL:      getEnvDuration("SEARCH_CACHE_TTL", 6*time.Hour),
			SweepInterval: getEnvDuration("SEARCH_CACHE_SWEEP_INTERVAL", 10*time.Minute),
		},
		RateLimit: RateLimitConfig{
			RequestsPerWindow: getEnvInt("RATE_LIMIT_REQUESTS", 10),
			WindowDuration:    getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
		Research: ResearchConfig{
			Timeout:            getEnvDuration("RESEARCH_TIMEOUT", 2*time.Minute),
			MaxIterations:      getEnvInt("RESEARCH_MAX_ITERATIONS", 8),
			MaxRequestBodySize: int64(getEnvInt("MAX_REQUEST_BODY_SIZE", 1<<16)),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
//
//nolint:gocyclo // Flat list of independent checks.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if _, ok := providerDefaults[c.LLM.Provider]; !ok {
		return fmt.Errorf("LLM_PROVIDER %q is not supported", c.LLM.Provider)
	}
	if c.LLM.APIKey == "" {
		return fmt.Errorf("API key for provider %q is missing (set LLM_API_KEY or %s)",
			c.LLM.Provider, providerDefaults[c.LLM.Provider].keyEnv)
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("LLM_MODEL cannot be empty")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("LLM_TEMPERATURE must be within [0, 2]")
	}
	if c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("LLM_MAX_TOKENS must be > 0")
	}
	if c.Search.MaxResults <= 0 {
		return fmt.Errorf("SEARCH_MAX_RESULTS must be > 0")
	}
	if c.Search.CacheEnabled {
		if c.DBPath == "" {
			return fmt.Errorf("DB_PATH cannot be empty when the search cache is enabled")
		}
		if c.Search.CacheTTL <= 0 || c.Search.SweepInterval <= 0 {
			return fmt.Errorf("SEARCH_CACHE_TTL and SEARCH_CACHE_SWEEP_INTERVAL must be > 0")
		}
	}
	if c.RateLimit.RequestsPerWindow <= 0 || c.RateLimit.WindowDuration <= 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW must be > 0")
	}
	if c.Research.Timeout <= 0 {
		return fmt.Errorf("RESEARCH_TIMEOUT must be > 0")
	}
	if c.Research.MaxIterations <= 0 {
		return fmt.Errorf("RESEARCH_MAX_ITERATIONS must be > 0")
	}
	if c.Research.MaxRequestBodySize <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

// AllowedOrigins returns the CORS origins for the API.
func (c *Config) AllowedOrigins() []string {
	if c.IsDevelopment() {
		return []string{"*"}
	}
	return []string{c.FrontendURL}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat32(key string, fallback float32) float32 {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 32)
	if err != nil {
		return fallback
	}
	return float32(f)
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}
