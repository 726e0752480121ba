package store

import (
	"context"
	"log/slog"
	"time"
)

// StartTTLWorker runs a background goroutine that periodically removes cached
// search results older than ttl. It stops when ctx is done.
func StartTTLWorker(ctx context.Context, cache SearchCache, ttl, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		slog.Info("Search cache TTL worker started", "interval", interval, "ttl", ttl)

		for {
			select {
			case <-ticker.C:
				sweepExpired(ctx, cache, ttl)
			case <-ctx.Done():
				slog.Info("Search cache TTL worker shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

func sweepExpired(ctx context.Context, cache SearchCache, ttl time.Duration) {
	deleted, err := cache.DeleteExpired(ctx, ttl)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		slog.Error("TTL worker failed to delete expired searches", "error", err)
		return
	}
	if deleted > 0 {
		slog.Info("TTL worker removed expired searches", "count", deleted)
	}
}
