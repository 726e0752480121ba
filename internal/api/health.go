package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// Pinger is implemented by dependencies that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	cache   Pinger
	timeout time.Duration
}

// NewHealthHandler creates a new health handler. cache may be nil when the
// search cache is disabled.
func NewHealthHandler(cache Pinger) *HealthHandler {
	return &HealthHandler{cache: cache, timeout: 5 * time.Second}
}

// Health returns the health status of the API and its dependencies.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	checks := map[string]string{"api": "ok"}
	status := map[string]interface{}{
		"status": "healthy",
		"checks": checks,
	}
	statusCode := http.StatusOK

	switch {
	case h.cache == nil:
		checks["search_cache"] = "disabled"
	case h.cache.Ping(ctx) != nil:
		slog.Error("Health check failed", "dependency", "search_cache")
		status["status"] = "degraded"
		checks["search_cache"] = "unreachable"
		statusCode = http.StatusServiceUnavailable
	default:
		checks["search_cache"] = "ok"
	}

	JSON(w, statusCode, status)
}

// RegisterHealth registers the health check route.
func (h *HealthHandler) RegisterHealth(r chi.Router) {
	r.Get("/api/health", h.Health)
}
