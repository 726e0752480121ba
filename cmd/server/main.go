// Web Research Assistant server
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/tmc/langchaingo/tools"
	"golang.org/x/sync/errgroup"

	"github.com/ashureev/websearch-agent/internal/agent"
	"github.com/ashureev/websearch-agent/internal/api"
	"github.com/ashureev/websearch-agent/internal/config"
	"github.com/ashureev/websearch-agent/internal/identity"
	"github.com/ashureev/websearch-agent/internal/llm/provider"
	"github.com/ashureev/websearch-agent/internal/mcpserver"
	"github.com/ashureev/websearch-agent/internal/middleware"
	"github.com/ashureev/websearch-agent/internal/probe"
	"github.com/ashureev/websearch-agent/internal/search"
	"github.com/ashureev/websearch-agent/internal/store"
	"github.com/ashureev/websearch-agent/web"
)

const version = "1.0.0"

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		slog.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}

// run wires the servers and blocks until shutdown. Deferred cleanup runs on every return.
func run(cfg *config.Config, logger *slog.Logger) error {
	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment(),
		"provider", cfg.LLM.Provider, "model", cfg.LLM.Model)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Web search tool, optionally backed by the sqlite result cache.
	ddg, err := search.NewDuckDuckGo(cfg.Search.MaxResults, cfg.Search.UserAgent)
	if err != nil {
		return fmt.Errorf("initialize web search: %w", err)
	}
	var searcher tools.Tool = ddg
	var cachePinger api.Pinger

	if cfg.Search.CacheEnabled {
		cache, err := store.NewSQLite(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("initialize search cache: %w", err)
		}
		defer func() {
			if closeErr := cache.Close(); closeErr != nil {
				slog.Error("Failed to close search cache", "error", closeErr)
			}
		}()

		if err := cache.Ping(ctx); err != nil {
			return fmt.Errorf("search cache health check: %w", err)
		}
		slog.Info("Search cache connected", "path", cfg.DBPath, "ttl", cfg.Search.CacheTTL)

		searcher = search.NewCachedSearcher(ddg, cache, cfg.Search.CacheTTL)
		cachePinger = cache
		store.StartTTLWorker(ctx, cache, cfg.Search.CacheTTL, cfg.Search.SweepInterval)
	} else {
		slog.Info("Search cache disabled")
	}

	// Research agent.
	llmClient, err := provider.New(ctx, cfg.LLM, &http.Client{Timeout: cfg.Research.Timeout}, logger)
	if err != nil {
		return fmt.Errorf("initialize LLM client: %w", err)
	}

	registry := agent.NewToolRegistry()
	if err := registry.Register(search.NewWebSearchTool(searcher)); err != nil {
		return fmt.Errorf("register web search tool: %w", err)
	}

	runner := agent.NewRunner(llmClient, registry, agent.Config{
		SystemPrompt:  agent.DefaultSystemPrompt,
		Temperature:   cfg.LLM.Temperature,
		MaxTokens:     cfg.LLM.MaxTokens,
		MaxIterations: cfg.Research.MaxIterations,
	})
	researchService := agent.NewServiceWithProcessor(runner, cfg.Research.Timeout)

	// Initialize handlers.
	limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerWindow, cfg.RateLimit.WindowDuration)
	limiter.StartEviction(ctx, cfg.RateLimit.WindowDuration)
	throttle := limiter.Middleware(identity.ClientKey)

	sm := api.NewSessionManager()
	baseHandler := api.NewHandler(researchService, cfg.LLM.Provider, cfg.LLM.Model, cfg.Research.MaxRequestBodySize)
	researchHandler := api.NewResearchHandler(baseHandler)
	healthHandler := api.NewHealthHandler(cachePinger)
	wsHandler := api.NewWebSocketHandler(baseHandler, sm, limiter, cfg.FrontendURL, cfg.IsDevelopment())
	mcpHandler := mcpserver.Handler(mcpserver.New(api.AppTitle, version, researchService))

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS(cfg.AllowedOrigins()))
	r.Use(identity.Middleware(cfg.IsDevelopment()))

	// Public routes.
	healthHandler.RegisterHealth(r)
	researchHandler.RegisterRoutes(r, throttle)

	// WebSocket endpoint.
	r.Get("/ws/research", wsHandler.ServeHTTP)

	// MCP endpoint (streamable HTTP).
	r.With(throttle).Handle("/mcp", mcpHandler)

	// Serve embedded frontend (SPA catch-all).
	r.Handle("/*", web.SPAHandler())

	// No WriteTimeout: a research request can run up to RESEARCH_TIMEOUT and
	// WebSocket connections are long-lived.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      0,
		IdleTimeout:       120 * time.Second,
	}

	var healthProbe *probe.Server
	if cfg.GRPCHealthAddr != "" {
		healthProbe = probe.New(cfg.GRPCHealthAddr)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if healthProbe != nil {
		g.Go(healthProbe.ListenAndServe)
	}

	// Wait for a shutdown signal or a server failure.
	g.Go(func() error {
		<-gctx.Done()
		stop()

		slog.Info("Shutting down gracefully...")
		if healthProbe != nil {
			healthProbe.SetServing(false)
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		slog.Info("Closing research sockets", "count", sm.Count())
		sm.CloseAll()
		err := srv.Shutdown(shutdownCtx)
		if healthProbe != nil {
			healthProbe.Shutdown()
		}
		return err
	})

	return g.Wait()
}
