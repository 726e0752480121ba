// Package api provides HTTP handlers for the research API.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ashureev/websearch-agent/internal/domain"
)

// AppTitle is shown in the UI header and the MCP server name.
const AppTitle = "Professional Web Research Assistant"

// Researcher produces a report for a query.
type Researcher interface {
	Research(ctx context.Context, query string, onEvent domain.EventFunc) (*domain.Report, error)
}

// Handler provides common handler utilities.
type Handler struct {
	researcher         Researcher
	provider           string
	model              string
	maxRequestBodySize int64
}

// NewHandler creates a new Handler with common dependencies.
func NewHandler(researcher Researcher, provider, model string, maxRequestBodySize int64) *Handler {
	if maxRequestBodySize <= 0 {
		maxRequestBodySize = 1 << 16
	}
	return &Handler{
		researcher:         researcher,
		provider:           provider,
		model:              model,
		maxRequestBodySize: maxRequestBodySize,
	}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}
