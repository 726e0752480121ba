package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "nested", "cache.db"))
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStorePutGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, "golang", time.Hour); err != nil || ok {
		t.Fatalf("Expected miss on empty cache, got ok=%v err=%v", ok, err)
	}

	if err := s.Put(ctx, "golang", "first"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := s.Put(ctx, "golang", "second"); err != nil {
		t.Fatalf("Put (overwrite) failed: %v", err)
	}

	got, ok, err := s.Get(ctx, "golang", time.Hour)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !ok || got != "second" {
		t.Errorf("Expected cached value %q, got %q (ok=%v)", "second", got, ok)
	}
}

func TestSQLiteStoreExpiry(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Now()
	s.now = func() time.Time { return now.Add(-2 * time.Hour) }
	if err := s.Put(ctx, "old", "stale"); err != nil {
		t.Fatalf("Put old failed: %v", err)
	}
	s.now = func() time.Time { return now }
	if err := s.Put(ctx, "new", "fresh"); err != nil {
		t.Fatalf("Put new failed: %v", err)
	}

	if _, ok, err := s.Get(ctx, "old", time.Hour); err != nil || ok {
		t.Errorf("Expected expired entry to be invisible, got ok=%v err=%v", ok, err)
	}

	deleted, err := s.DeleteExpired(ctx, time.Hour)
	if err != nil {
		t.Fatalf("DeleteExpired failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("Expected 1 deleted row, got %d", deleted)
	}

	if got, ok, _ := s.Get(ctx, "new", time.Hour); !ok || got != "fresh" {
		t.Errorf("Expected fresh entry to survive, got %q (ok=%v)", got, ok)
	}
}

func TestSQLiteStorePing(t *testing.T) {
	s := newTestStore(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

type countingCache struct {
	SearchCache
	calls chan time.Duration
}

func (c *countingCache) DeleteExpired(_ context.Context, ttl time.Duration) (int64, error) {
	c.calls <- ttl
	return 0, nil
}

func TestStartTTLWorkerSweeps(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cache := &countingCache{calls: make(chan time.Duration, 4)}
	StartTTLWorker(ctx, cache, time.Hour, 5*time.Millisecond)

	select {
	case ttl := <-cache.calls:
		if ttl != time.Hour {
			t.Errorf("Expected sweep with ttl 1h, got %v", ttl)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("TTL worker never swept")
	}
}
