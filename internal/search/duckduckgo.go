// Package search provides the web search tool the research agent calls.
package search

import (
	"fmt"

	"github.com/tmc/langchaingo/tools"
	"github.com/tmc/langchaingo/tools/duckduckgo"
)

// NewDuckDuckGo returns a live DuckDuckGo searcher returning at most maxResults hits.
func NewDuckDuckGo(maxResults int, userAgent string) (tools.Tool, error) {
	ddg, err := duckduckgo.New(maxResults, userAgent)
	if err != nil {
		return nil, fmt.Errorf("create duckduckgo tool: %w", err)
	}
	return ddg, nil
}
