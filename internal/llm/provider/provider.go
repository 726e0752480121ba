// Package provider builds the llm.Client for the configured provider.
package provider

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ashureev/websearch-agent/internal/config"
	"github.com/ashureev/websearch-agent/internal/llm"
	"github.com/ashureev/websearch-agent/internal/llm/gemini"
	"github.com/ashureev/websearch-agent/internal/llm/openai"
)

// New returns a client for cfg.Provider. Groq, OpenRouter and OpenAI share the
// OpenAI-compatible client and differ only in base URL.
func New(ctx context.Context, cfg config.LLMConfig, httpClient *http.Client, logger *slog.Logger) (llm.Client, error) {
	switch cfg.Provider {
	case config.ProviderGroq, config.ProviderOpenRouter, config.ProviderOpenAI:
		return openai.New(openai.Config{
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			BaseURL:    cfg.BaseURL,
			HTTPClient: httpClient,
			Logger:     logger,
		}), nil
	case config.ProviderGemini:
		return gemini.New(ctx, gemini.Config{
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			BaseURL:    cfg.BaseURL,
			HTTPClient: httpClient,
			Logger:     logger,
		})
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
}
