package search

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/tmc/langchaingo/tools"

	"github.com/ashureev/websearch-agent/internal/store"
)

var _ tools.Tool = (*CachedSearcher)(nil)

// CachedSearcher serves repeated searches from the search cache.
// Cache failures are logged and never fail the search itself.
type CachedSearcher struct {
	next  tools.Tool
	cache store.SearchCache
	ttl   time.Duration
}

// NewCachedSearcher wraps next with cache.
func NewCachedSearcher(next tools.Tool, cache store.SearchCache, ttl time.Duration) *CachedSearcher {
	return &CachedSearcher{next: next, cache: cache, ttl: ttl}
}

// Name returns the wrapped tool's name.
func (c *CachedSearcher) Name() string { return c.next.Name() }

// Description returns the wrapped tool's description.
func (c *CachedSearcher) Description() string { return c.next.Description() }

// Call returns a cached result for input when one is fresh, otherwise searches and stores the result.
func (c *CachedSearcher) Call(ctx context.Context, input string) (string, error) {
	key := CacheKey(input)

	if cached, ok, err := c.cache.Get(ctx, key, c.ttl); err != nil {
		slog.Warn("search cache read failed", "error", err)
	} else if ok {
		slog.Debug("search cache hit", "key", key)
		return cached, nil
	}

	result, err := c.next.Call(ctx, input)
	if err != nil {
		return "", err
	}

	if err := c.cache.Put(ctx, key, result); err != nil {
		slog.Warn("search cache write failed", "error", err)
	}
	return result, nil
}

// CacheKey normalizes a query so trivially different spellings share an entry.
func CacheKey(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}
