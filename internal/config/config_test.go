package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

var managedEnv = []string{
	"PORT", "FRONTEND_URL", "DB_PATH", "GRPC_HEALTH_ADDR",
	"LLM_PROVIDER", "LLM_MODEL", "LLM_API_KEY", "LLM_BASE_URL", "LLM_TEMPERATURE", "LLM_MAX_TOKENS",
	"GROQ_API_KEY", "OPENROUTER_API_KEY", "OPENAI_API_KEY", "GEMINI_API_KEY",
	"SEARCH_MAX_RESULTS", "SEARCH_USER_AGENT", "SEARCH_CACHE_ENABLED", "SEARCH_CACHE_TTL", "SEARCH_CACHE_SWEEP_INTERVAL",
	"RATE_LIMIT_REQUESTS", "RATE_LIMIT_WINDOW",
	"RESEARCH_TIMEOUT", "RESEARCH_MAX_ITERATIONS", "MAX_REQUEST_BODY_SIZE",
}

// clearEnv unsets every variable Load reads and restores them afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range managedEnv {
		if prev, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { _ = os.Setenv(key, prev) })
		} else {
			t.Cleanup(func() { _ = os.Unsetenv(key) })
		}
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("unset %s: %v", key, err)
		}
	}
}

func TestLoadDefaultsToGroq(t *testing.T) {
	clearEnv(t)
	t.Setenv("GROQ_API_KEY", "gsk-test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.LLM.Provider != ProviderGroq {
		t.Errorf("Expected provider groq, got %q", cfg.LLM.Provider)
	}
	if cfg.LLM.Model != "llama3-8b-8192" {
		t.Errorf("Expected default model llama3-8b-8192, got %q", cfg.LLM.Model)
	}
	if cfg.LLM.APIKey != "gsk-test" {
		t.Errorf("Expected API key from GROQ_API_KEY, got %q", cfg.LLM.APIKey)
	}
	if cfg.LLM.BaseURL != "https://api.groq.com/openai/v1" {
		t.Errorf("Unexpected base URL %q", cfg.LLM.BaseURL)
	}
	if cfg.LLM.Temperature != 0.3 || cfg.LLM.MaxTokens != 1024 {
		t.Errorf("Unexpected sampling defaults: temperature=%v max_tokens=%d", cfg.LLM.Temperature, cfg.LLM.MaxTokens)
	}
	if cfg.Port != "8080" {
		t.Errorf("Expected port 8080, got %q", cfg.Port)
	}
	if !cfg.Search.CacheEnabled || cfg.Search.CacheTTL != 6*time.Hour {
		t.Errorf("Unexpected search cache defaults: %+v", cfg.Search)
	}
}

func TestLoadGenericKeyWins(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_PROVIDER", "OpenRouter")
	t.Setenv("OPENROUTER_API_KEY", "provider-key")
	t.Setenv("LLM_API_KEY", "generic-key")
	t.Setenv("LLM_MODEL", "some/model")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.LLM.Provider != ProviderOpenRouter {
		t.Errorf("Expected provider to be normalized to openrouter, got %q", cfg.LLM.Provider)
	}
	if cfg.LLM.APIKey != "generic-key" {
		t.Errorf("Expected LLM_API_KEY to take precedence, got %q", cfg.LLM.APIKey)
	}
	if cfg.LLM.Model != "some/model" {
		t.Errorf("Expected model override, got %q", cfg.LLM.Model)
	}
}

func TestLoadMissingCredential(t *testing.T) {
	clearEnv(t)

	_, err := Load()
	if err == nil {
		t.Fatal("Expected error when no API key is configured")
	}
	if !strings.Contains(err.Error(), "GROQ_API_KEY") {
		t.Errorf("Expected error to name GROQ_API_KEY, got %v", err)
	}
}

func TestLoadUnknownProvider(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_PROVIDER", "mystery")
	t.Setenv("LLM_API_KEY", "key")

	if _, err := Load(); err == nil {
		t.Fatal("Expected error for unsupported provider")
	}
}

func TestLoadInvalidNumbersFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("LLM_PROVIDER", "gemini")
	t.Setenv("SEARCH_MAX_RESULTS", "many")
	t.Setenv("RESEARCH_TIMEOUT", "soon")
	t.Setenv("SEARCH_CACHE_ENABLED", "maybe")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Search.MaxResults != 5 {
		t.Errorf("Expected fallback max results 5, got %d", cfg.Search.MaxResults)
	}
	if cfg.Research.Timeout != 2*time.Minute {
		t.Errorf("Expected fallback timeout 2m, got %v", cfg.Research.Timeout)
	}
	if !cfg.Search.CacheEnabled {
		t.Error("Expected unparsable bool to fall back to true")
	}
	if cfg.LLM.BaseURL != "" {
		t.Errorf("Expected no base URL for gemini, got %q", cfg.LLM.BaseURL)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	base := func() *Config {
		return &Config{
			Port:   "8080",
			DBPath: "cache.db",
			LLM: LLMConfig{
				Provider: ProviderGroq, Model: "m", APIKey: "k", Temperature: 0.3, MaxTokens: 10,
			},
			Search:    SearchConfig{MaxResults: 5, CacheEnabled: true, CacheTTL: time.Hour, SweepInterval: time.Minute},
			RateLimit: RateLimitConfig{RequestsPerWindow: 1, WindowDuration: time.Second},
			Research:  ResearchConfig{Timeout: time.Second, MaxIterations: 1, MaxRequestBodySize: 10},
		}
	}

	if err := base().Validate(); err != nil {
		t.Fatalf("Expected base config to be valid: %v", err)
	}

	tests := map[string]func(*Config){
		"empty port":       func(c *Config) { c.Port = "" },
		"hot temperature":  func(c *Config) { c.LLM.Temperature = 3 },
		"zero max tokens":  func(c *Config) { c.LLM.MaxTokens = 0 },
		"zero results":     func(c *Config) { c.Search.MaxResults = 0 },
		"cache without db": func(c *Config) { c.DBPath = "" },
		"zero cache ttl":   func(c *Config) { c.Search.CacheTTL = 0 },
		"zero rate limit":  func(c *Config) { c.RateLimit.RequestsPerWindow = 0 },
		"zero timeout":     func(c *Config) { c.Research.Timeout = 0 },
		"zero iterations":  func(c *Config) { c.Research.MaxIterations = 0 },
		"zero body size":   func(c *Config) { c.Research.MaxRequestBodySize = 0 },
		"missing model":    func(c *Config) { c.LLM.Model = "" },
		"missing api key":  func(c *Config) { c.LLM.APIKey = "" },
		"unknown provider": func(c *Config) { c.LLM.Provider = "x" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := base()
			mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("Expected validation error for %s", name)
			}
		})
	}

	disabled := base()
	disabled.Search.CacheEnabled = false
	disabled.DBPath = ""
	if err := disabled.Validate(); err != nil {
		t.Errorf("Expected DB_PATH to be optional with cache disabled: %v", err)
	}
}

func TestAllowedOrigins(t *testing.T) {
	cfg := &Config{FrontendURL: "https://research.example.com"}
	if cfg.IsDevelopment() {
		t.Fatal("Expected production mode for public frontend URL")
	}
	origins := cfg.AllowedOrigins()
	if len(origins) != 1 || origins[0] != "https://research.example.com" {
		t.Errorf("Unexpected origins: %v", origins)
	}

	dev := &Config{FrontendURL: "http://localhost:5173"}
	if got := dev.AllowedOrigins(); len(got) != 1 || got[0] != "*" {
		t.Errorf("Expected wildcard origin in development, got %v", got)
	}
}
