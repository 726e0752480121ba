package search

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tmc/langchaingo/tools"
)

// ToolName is the name the model uses to call the web search tool.
const ToolName = "web_search"

// WebSearchTool exposes a searcher as a function-calling tool.
type WebSearchTool struct {
	searcher tools.Tool
}

type webSearchInput struct {
	Query string `json:"query"`
}

// NewWebSearchTool creates the web_search tool backed by searcher.
func NewWebSearchTool(searcher tools.Tool) *WebSearchTool {
	return &WebSearchTool{searcher: searcher}
}

// Name returns the tool name.
func (t *WebSearchTool) Name() string {
	return ToolName
}

// Description tells the model when to use the tool.
func (t *WebSearchTool) Description() string {
	return "Searches the web with DuckDuckGo and returns titles, links and snippets of the top results. " +
		"Use it to find current facts, statistics and sources for the research question."
}

// Parameters returns the JSON schema of the tool input.
func (t *WebSearchTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "Search terms to look up on the web.",
			},
		},
		"required": []string{"query"},
	}
}

// Execute runs a search for the query in the JSON arguments.
func (t *WebSearchTool) Execute(ctx context.Context, arguments string) (string, error) {
	var args webSearchInput
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return "", fmt.Errorf("invalid input format: %w", err)
	}
	query := strings.TrimSpace(args.Query)
	if query == "" {
		return "", fmt.Errorf("query parameter is required")
	}

	slog.Info("web search", "query", query)

	result, err := t.searcher.Call(ctx, query)
	if err != nil {
		return "", fmt.Errorf("web search failed: %w", err)
	}
	if strings.TrimSpace(result) == "" {
		return "No results found.", nil
	}
	return result, nil
}
