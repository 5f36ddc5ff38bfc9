package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_SetAndGet(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, OptionsKey("shot", ""), []byte(`{"options":{}}`), time.Minute))

	value, err := c.Get(ctx, OptionsKey("shot", ""))
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"options":{}}`), value)
}

func TestMemoryCache_GetMiss(t *testing.T) {
	c := NewMemoryCache()

	_, err := c.Get(context.Background(), "absent")
	require.Error(t, err)
	assert.True(t, IsCacheMiss(err))
}

func TestMemoryCache_Delete(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	require.NoError(t, c.Delete(ctx, "k"))

	_, err := c.Get(ctx, "k")
	assert.True(t, IsCacheMiss(err))
}

func TestMemoryCache_DeletePrefix(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, OptionsKey("task", ""), []byte("a"), time.Minute))
	require.NoError(t, c.Set(ctx, OptionsKey("task", "p1"), []byte("b"), time.Minute))
	require.NoError(t, c.Set(ctx, OptionsKey("task", "p2"), []byte("c"), time.Minute))
	require.NoError(t, c.Set(ctx, OptionsKey("shot", "p1"), []byte("d"), time.Minute))

	require.NoError(t, c.DeletePrefix(ctx, OptionsPrefix("task")))

	for _, key := range []string{OptionsKey("task", ""), OptionsKey("task", "p1"), OptionsKey("task", "p2")} {
		_, err := c.Get(ctx, key)
		assert.True(t, IsCacheMiss(err), "key %s survived", key)
	}
	value, err := c.Get(ctx, OptionsKey("shot", "p1"))
	require.NoError(t, err)
	assert.Equal(t, []byte("d"), value)
}

func TestMemoryCache_TTLExpiration(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	_, err := c.Get(ctx, "k")
	assert.True(t, IsCacheMiss(err))
}

func TestMemoryCache_WriteSweepsExpired(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "stale", []byte("v"), 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)
	require.NoError(t, c.Set(ctx, "fresh", []byte("v"), time.Minute))

	c.mu.Lock()
	defer c.mu.Unlock()
	assert.Len(t, c.entries, 1)
}

func TestMemoryCache_DefaultTTL(t *testing.T) {
	c := NewMemoryCacheWithConfig(Config{DefaultTTL: 10 * time.Millisecond, Prefix: "t:"})
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	time.Sleep(30 * time.Millisecond)

	_, err := c.Get(ctx, "k")
	assert.True(t, IsCacheMiss(err))
}

func TestMemoryCache_NegativeTTLNeverExpires(t *testing.T) {
	c := NewMemoryCacheWithConfig(Config{DefaultTTL: 10 * time.Millisecond, Prefix: "t:"})
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), -1))
	time.Sleep(30 * time.Millisecond)

	value, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), value)
}

func TestMemoryCache_PrefixIsolatesKeys(t *testing.T) {
	a := NewMemoryCacheWithConfig(Config{DefaultTTL: time.Minute, Prefix: "a:"})
	b := NewMemoryCacheWithConfig(Config{DefaultTTL: time.Minute, Prefix: "b:"})
	ctx := context.Background()

	require.NoError(t, a.Set(ctx, "k", []byte("v"), time.Minute))

	_, err := b.Get(ctx, "k")
	assert.True(t, IsCacheMiss(err))
}

func TestMemoryCache_ConcurrentAccess(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := OptionsKey("task", string(rune('a'+n)))
			_ = c.Set(ctx, key, []byte("v"), time.Minute)
			_, _ = c.Get(ctx, key)
			_ = c.DeletePrefix(ctx, OptionsPrefix("task"))
		}(i)
	}
	wg.Wait()
}

func TestMemoryCache_CancelledContext(t *testing.T) {
	c := NewMemoryCache()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
}
