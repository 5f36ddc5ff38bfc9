// Package cache provides the payload cache behind the option and facet
// endpoints: loading either fans out several catalogue queries per
// entity, so handlers keep the assembled JSON for a short TTL. Backends
// are pluggable; memory for single-process deployments, Redis when
// several API processes share a database.
package cache

import (
	"context"
	"time"
)

// Cache is the payload store the handlers read through. Implementations
// return ErrCacheMiss for an absent key; any other error means the
// backend failed and the caller loads fresh.
type Cache interface {
	// Get returns the payload stored under key.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a payload under key. A zero ttl uses the backend's
	// configured default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes one key.
	Delete(ctx context.Context, key string) error

	// DeletePrefix removes every key under prefix. Writes use it to
	// invalidate all cached scopes of an entity at once.
	DeletePrefix(ctx context.Context, prefix string) error
}

// Config holds the settings shared by every backend.
type Config struct {
	// DefaultTTL applies when Set is called with a zero ttl.
	DefaultTTL time.Duration
	// Prefix is prepended to all cache keys.
	Prefix string
}

// DefaultConfig returns the standard cache configuration.
func DefaultConfig() Config {
	return Config{
		DefaultTTL: 5 * time.Minute,
		Prefix:     "dailies:",
	}
}

// ErrCacheMiss is returned when a key is not found in the cache.
type ErrCacheMiss struct {
	Key string
}

func (e ErrCacheMiss) Error() string {
	return "cache miss: " + e.Key
}

// IsCacheMiss reports whether an error is a cache miss.
func IsCacheMiss(err error) bool {
	_, ok := err.(ErrCacheMiss)
	return ok
}
