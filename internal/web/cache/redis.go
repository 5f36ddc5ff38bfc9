package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache is the shared backend for deployments running several API
// processes against one database. Payloads live under the configured
// key prefix, so an invalidation issued by any process is seen by all
// of them.
type RedisCache struct {
	client *redis.Client
	config Config
}

// RedisConfig carries the connection settings plus the common cache
// configuration.
type RedisConfig struct {
	// Addr is the Redis server address (host:port).
	Addr string
	// Password is optional.
	Password string
	// DB is the Redis database number.
	DB int
	// CacheConfig holds the shared TTL and key prefix settings.
	CacheConfig Config
}

// NewRedisCacheWithConfig dials Redis and verifies the connection
// before returning the cache.
func NewRedisCacheWithConfig(config RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisCache{client: client, config: config.CacheConfig}, nil
}

// NewRedisCacheWithClient wraps an existing client. Tests pass a client
// bound to a miniredis instance.
func NewRedisCacheWithClient(client *redis.Client, config Config) *RedisCache {
	return &RedisCache{client: client, config: config}
}

// Get returns the payload stored under key, mapping redis.Nil to
// ErrCacheMiss.
func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := r.client.Get(ctx, r.config.Prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss{Key: key}
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Set stores a payload under key. A zero ttl uses the configured
// default.
func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = r.config.DefaultTTL
	}
	return r.client.Set(ctx, r.config.Prefix+key, value, ttl).Err()
}

// Delete removes one key.
func (r *RedisCache) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.config.Prefix+key).Err()
}

// DeletePrefix removes every key under prefix. SCAN keeps the walk
// incremental on a shared server.
func (r *RedisCache) DeletePrefix(ctx context.Context, prefix string) error {
	iter := r.client.Scan(ctx, 0, r.config.Prefix+prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// Close releases the client's connection pool.
func (r *RedisCache) Close() error {
	return r.client.Close()
}
