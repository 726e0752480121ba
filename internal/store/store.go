// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"
)

// SearchCache persists web search tool output keyed by normalized query.
// Research queries and reports are never written here.
type SearchCache interface {
	// Get returns the cached value for key if it exists and has not expired.
	Get(ctx context.Context, key string, ttl time.Duration) (string, bool, error)

	// Put stores value under key, replacing any previous entry.
	Put(ctx context.Context, key, value string) error

	// DeleteExpired removes entries older than ttl and returns how many were removed.
	DeleteExpired(ctx context.Context, ttl time.Duration) (int64, error)

	// Ping verifies database connectivity and returns an error if the database is unreachable.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
