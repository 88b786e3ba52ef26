package cache

import (
	"context"
	"testing"
	"time"

	"recipe-extractor/internal/infrastructure/config"
)

func testManager(t *testing.T, maxSize int, ttl time.Duration) *Manager {
	t.Helper()

	cfg := &config.Config{
		Cache: config.CacheConfig{
			Enabled:         true,
			MaxSize:         maxSize,
			TTL:             ttl,
			CleanupInterval: time.Hour,
		},
	}
	m := NewManager(cfg)
	if m == nil {
		t.Fatal("NewManager returned nil for enabled cache")
	}
	t.Cleanup(m.Close)
	return m
}

func TestGetSet(t *testing.T) {
	m := testManager(t, 10, time.Minute)
	ctx := context.Background()

	if _, err := m.Get(ctx, "prompt", ""); err == nil {
		t.Error("Get on empty cache = nil error, want miss")
	}

	if err := m.Set(ctx, "prompt", "", "response"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := m.Get(ctx, "prompt", "")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "response" {
		t.Errorf("Get = %q, want %q", got, "response")
	}

	hits, misses, _ := m.Stats()
	if hits != 1 || misses != 1 {
		t.Errorf("stats = %d hits %d misses, want 1/1", hits, misses)
	}
}

// Text and multimodal requests with the same prompt must not collide.
func TestImageDataSeparatesKeys(t *testing.T) {
	m := testManager(t, 10, time.Minute)
	ctx := context.Background()

	if err := m.Set(ctx, "prompt", "", "text response"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := m.Set(ctx, "prompt", "imagedata", "image response"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := m.Get(ctx, "prompt", "imagedata")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "image response" {
		t.Errorf("Get = %q, want the multimodal entry", got)
	}
}

func TestExpiry(t *testing.T) {
	m := testManager(t, 10, 10*time.Millisecond)
	ctx := context.Background()

	if err := m.Set(ctx, "prompt", "", "response"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	if _, err := m.Get(ctx, "prompt", ""); err == nil {
		t.Error("Get after TTL = nil error, want expiry")
	}
}

func TestLRUEviction(t *testing.T) {
	m := testManager(t, 2, time.Minute)
	ctx := context.Background()

	if err := m.Set(ctx, "a", "", "1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(time.Millisecond)
	if err := m.Set(ctx, "b", "", "2"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(time.Millisecond)

	// Touch "a" so "b" becomes the eviction candidate.
	if _, err := m.Get(ctx, "a", ""); err != nil {
		t.Fatalf("Get: %v", err)
	}
	time.Sleep(time.Millisecond)

	if err := m.Set(ctx, "c", "", "3"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if _, err := m.Get(ctx, "a", ""); err != nil {
		t.Error("recently used entry was evicted")
	}
	if _, err := m.Get(ctx, "b", ""); err == nil {
		t.Error("least recently used entry survived eviction")
	}
}

func TestNilManagerIsInert(t *testing.T) {
	var m *Manager
	ctx := context.Background()

	if _, err := m.Get(ctx, "prompt", ""); err == nil {
		t.Error("nil manager Get = nil error, want disabled")
	}
	if err := m.Set(ctx, "prompt", "", "response"); err != nil {
		t.Errorf("nil manager Set = %v, want nil", err)
	}
	if h, mi, e := m.Stats(); h != 0 || mi != 0 || e != 0 {
		t.Error("nil manager stats not zero")
	}
	m.Close() // must not panic
}
