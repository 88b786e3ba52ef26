// Package cache holds the in-memory AI response cache. Identical prompts
// (and identical images) within the TTL reuse the previous model output.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"recipe-extractor/internal/infrastructure/config"
	"recipe-extractor/internal/pkg/common"
)

// Manager is an in-memory TTL cache with LRU eviction.
type Manager struct {
	cfg   *config.Config
	mu    sync.RWMutex
	store map[string]entry
	stats stats
	done  chan struct{}
}

type entry struct {
	value      string
	expiresAt  time.Time
	lastAccess time.Time
}

type stats struct {
	hits      int64
	misses    int64
	evictions int64
}

// NewManager creates the cache manager, or nil when caching is disabled.
func NewManager(cfg *config.Config) *Manager {
	if !cfg.Cache.Enabled {
		common.LogInfo("ai response cache disabled")
		return nil
	}

	m := &Manager{
		cfg:   cfg,
		store: make(map[string]entry),
		done:  make(chan struct{}),
	}

	go m.cleanupLoop()

	common.LogInfo("ai response cache initialized",
		zap.Int("max_size", cfg.Cache.MaxSize),
		zap.Duration("ttl", cfg.Cache.TTL),
		zap.Duration("cleanup_interval", cfg.Cache.CleanupInterval),
	)

	return m
}

// Get returns the cached value for the prompt/image pair, or an error on miss.
func (m *Manager) Get(ctx context.Context, prompt, imageData string) (string, error) {
	if m == nil {
		return "", common.ErrCacheDisabled
	}

	key := m.key(prompt, imageData)

	m.mu.RLock()
	e, exists := m.store[key]
	m.mu.RUnlock()

	if !exists {
		m.mu.Lock()
		m.stats.misses++
		m.mu.Unlock()
		return "", fmt.Errorf("cache miss")
	}

	if time.Now().After(e.expiresAt) {
		m.mu.Lock()
		delete(m.store, key)
		m.stats.evictions++
		m.mu.Unlock()
		return "", fmt.Errorf("cache expired")
	}

	m.mu.Lock()
	e.lastAccess = time.Now()
	m.store[key] = e
	m.stats.hits++
	m.mu.Unlock()

	common.LogDebug("ai cache hit")
	return e.value, nil
}

// Set stores a value. When the cache is full, expired entries are cleared
// first and then the least recently used entry goes.
func (m *Manager) Set(ctx context.Context, prompt, imageData, value string) error {
	if m == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.store) >= m.cfg.Cache.MaxSize {
		m.removeExpiredLocked()
		if len(m.store) >= m.cfg.Cache.MaxSize {
			m.evictLRULocked()
		}
		if len(m.store) >= m.cfg.Cache.MaxSize {
			common.LogWarn("ai cache full", zap.Int("size", len(m.store)))
			return common.ErrCacheFull
		}
	}

	now := time.Now()
	m.store[m.key(prompt, imageData)] = entry{
		value:      value,
		expiresAt:  now.Add(m.cfg.Cache.TTL),
		lastAccess: now,
	}
	return nil
}

// Stats returns hit/miss/eviction counters.
func (m *Manager) Stats() (hits, misses, evictions int64) {
	if m == nil {
		return 0, 0, 0
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stats.hits, m.stats.misses, m.stats.evictions
}

// Close stops the cleanup goroutine. Safe on a nil manager.
func (m *Manager) Close() {
	if m == nil {
		return
	}
	close(m.done)
}

func (m *Manager) key(prompt, imageData string) string {
	if imageData == "" {
		return "text:" + hash(prompt)
	}
	return "multimodal:" + hash(prompt) + ":" + hash(imageData)
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func (m *Manager) cleanupLoop() {
	ticker := time.NewTicker(m.cfg.Cache.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.mu.Lock()
			removed := m.removeExpiredLocked()
			m.mu.Unlock()
			if removed > 0 {
				common.LogDebug("ai cache cleanup", zap.Int("removed", removed))
			}
		case <-m.done:
			return
		}
	}
}

func (m *Manager) removeExpiredLocked() int {
	now := time.Now()
	removed := 0
	for k, e := range m.store {
		if now.After(e.expiresAt) {
			delete(m.store, k)
			m.stats.evictions++
			removed++
		}
	}
	return removed
}

func (m *Manager) evictLRULocked() {
	var oldestKey string
	var oldest time.Time
	for k, e := range m.store {
		if oldestKey == "" || e.lastAccess.Before(oldest) {
			oldestKey = k
			oldest = e.lastAccess
		}
	}
	if oldestKey != "" {
		delete(m.store, oldestKey)
		m.stats.evictions++
	}
}
