package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

// exerciseStore roda o mesmo roteiro contra qualquer backend.
func exerciseStore(t *testing.T, s Store, clock *fakeClock) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, "portfolio-octocat-public", time.Minute); ok || err != nil {
		t.Fatalf("expected miss on empty store, ok=%v err=%v", ok, err)
	}

	payload := []byte(`[{"name":"hello"}]`)
	if err := s.Set(ctx, "portfolio-octocat-public", payload); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, ok, err := s.Get(ctx, "portfolio-octocat-public", time.Minute)
	if err != nil || !ok {
		t.Fatalf("expected hit, ok=%v err=%v", ok, err)
	}
	if string(got) != string(payload) {
		t.Fatalf("expected %s, got %s", payload, got)
	}

	if _, ok, _ := s.Get(ctx, "portfolio-octocat-public", 0); ok {
		t.Fatalf("maxAge <= 0 must disable reads")
	}

	clock.advance(2 * time.Minute)
	if _, ok, _ := s.Get(ctx, "portfolio-octocat-public", time.Minute); ok {
		t.Fatalf("expected stale entry to miss")
	}
	// a entrada vencida foi apagada: nem uma janela maior a encontra.
	if _, ok, _ := s.Get(ctx, "portfolio-octocat-public", time.Hour); ok {
		t.Fatalf("expected stale entry to be deleted on read")
	}
}

func newClock() *fakeClock { return &fakeClock{t: time.Unix(1_700_000_000, 0)} }

func TestMemoryStore(t *testing.T) {
	clock := newClock()
	s := NewMemoryStore()
	s.now = clock.now
	exerciseStore(t, s, clock)
	if s.Len() != 0 {
		t.Fatalf("expected empty store after stale read, got %d", s.Len())
	}
}

func TestFileStore(t *testing.T) {
	clock := newClock()
	s := NewFileStore(t.TempDir())
	s.now = clock.now
	exerciseStore(t, s, clock)
}

func TestFileStore_CorruptEntryIsRemoved(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(dir)
	p := filepath.Join(dir, "broken.json")
	if err := os.WriteFile(p, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, ok, err := s.Get(context.Background(), "broken", time.Minute)
	if ok || !errors.Is(err, ErrCorruptEntry) {
		t.Fatalf("expected ErrCorruptEntry, ok=%v err=%v", ok, err)
	}
	if _, err := os.Stat(p); !os.IsNotExist(err) {
		t.Fatalf("expected corrupt file to be removed")
	}
}

func TestFileStore_RejectsPathKeys(t *testing.T) {
	s := NewFileStore(t.TempDir())
	if err := s.Set(context.Background(), "../escape", []byte("[]")); err == nil {
		t.Fatalf("expected error for key with path separator")
	}
}

func TestSQLiteStore(t *testing.T) {
	clock := newClock()
	s, err := OpenSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	s.now = clock.now
	exerciseStore(t, s, clock)
}

func TestSQLiteStore_OverwritesKey(t *testing.T) {
	s, err := OpenSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	_ = s.Set(ctx, "k", []byte("old"))
	if err := s.Set(ctx, "k", []byte("new")); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, ok, err := s.Get(ctx, "k", time.Minute)
	if err != nil || !ok || string(got) != "new" {
		t.Fatalf("expected new value, got %q ok=%v err=%v", got, ok, err)
	}
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("PORTFOLIO_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("PORTFOLIO_TEST_REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()

	clock := newClock()
	prefix := "portfolio:test:" + time.Now().Format("150405.000000")
	s := NewRedisStore(rdb, WithRedisPrefix(prefix), WithRedisTTL(time.Minute))
	s.now = clock.now
	exerciseStore(t, s, clock)
}
