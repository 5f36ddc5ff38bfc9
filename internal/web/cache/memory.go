package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryCache is the single-process backend: a mutex-guarded map with
// lazy expiry. Expired entries are dropped when read and swept on
// writes; the working set is one option payload and a few facet
// payloads per entity, so no background reaper is needed.
type MemoryCache struct {
	config Config

	mu      sync.Mutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// NewMemoryCache returns a memory cache with the default configuration.
func NewMemoryCache() *MemoryCache {
	return NewMemoryCacheWithConfig(DefaultConfig())
}

// NewMemoryCacheWithConfig returns a memory cache with explicit
// configuration.
func NewMemoryCacheWithConfig(config Config) *MemoryCache {
	return &MemoryCache{
		config:  config,
		entries: make(map[string]memoryEntry),
	}
}

// Get returns the payload stored under key, or ErrCacheMiss when the
// key is absent or its entry has expired.
func (m *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full := m.config.Prefix + key

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[full]
	if !ok || entry.expired(time.Now()) {
		delete(m.entries, full)
		return nil, ErrCacheMiss{Key: key}
	}
	return entry.value, nil
}

// Set stores a payload under key. A zero ttl uses the configured
// default; a negative ttl stores without expiry.
func (m *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ttl == 0 {
		ttl = m.config.DefaultTTL
	}

	now := time.Now()
	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = now.Add(ttl)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweepLocked(now)
	m.entries[m.config.Prefix+key] = entry
	return nil
}

// Delete removes one key.
func (m *MemoryCache) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, m.config.Prefix+key)
	return nil
}

// DeletePrefix removes every entry whose key starts with prefix.
func (m *MemoryCache) DeletePrefix(ctx context.Context, prefix string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full := m.config.Prefix + prefix

	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.entries {
		if strings.HasPrefix(key, full) {
			delete(m.entries, key)
		}
	}
	return nil
}

// sweepLocked drops expired entries. Callers hold mu.
func (m *MemoryCache) sweepLocked(now time.Time) {
	for key, entry := range m.entries {
		if entry.expired(now) {
			delete(m.entries, key)
		}
	}
}
