package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_SetGetExpire(t *testing.T) {
	c := NewRedisCache(nil)
	defer c.Close()
	now := time.Unix(1_700_000_000, 0)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Second))
	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))

	now = now.Add(2 * time.Second)
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.False(t, stats.Redis)
}

func TestMemoryCache_EvictsWhenFull(t *testing.T) {
	c := NewRedisCache(&CacheConfig{MaxMemoryItems: 3, DefaultTTL: time.Minute})
	defer c.Close()
	ctx := context.Background()

	for _, k := range []string{"a", "b", "c", "d"} {
		require.NoError(t, c.Set(ctx, k, []byte(k), 0))
	}
	assert.LessOrEqual(t, c.Stats().MemorySize, 3)
	got, err := c.Get(ctx, "d")
	require.NoError(t, err)
	assert.Equal(t, "d", string(got))
}

func TestMemoryCache_DeletePattern(t *testing.T) {
	c := NewRedisCache(nil)
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, ImageSearchKey("p:", "Coffee", 800, 600), []byte("[]"), 0))
	require.NoError(t, c.Set(ctx, IntentKey("p:", "a bakery"), []byte("{}"), 0))
	require.NoError(t, c.DeletePattern(ctx, ImagesPattern("p:")))

	_, err := c.Get(ctx, ImageSearchKey("p:", "coffee", 800, 600))
	assert.ErrorIs(t, err, ErrCacheMiss)
	_, err = c.Get(ctx, IntentKey("p:", "a bakery"))
	assert.NoError(t, err)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "sitegen:images:coffee shop:800x600", ImageSearchKey("sitegen:", "  Coffee Shop ", 800, 600))
	assert.Equal(t, IntentKey("x:", "a gym"), IntentKey("x:", " a gym "))
	assert.NotEqual(t, IntentKey("x:", "a gym"), IntentKey("x:", "a spa"))
	assert.True(t, matchPattern("x:images:*", "x:images:dog:1x1"))
	assert.False(t, matchPattern("x:images:*", "x:intent:1"))
}

func TestRedisCache_UsesRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	c, err := Open(&CacheConfig{RedisURL: "redis://" + mr.Addr(), DefaultTTL: time.Minute, MaxMemoryItems: 10})
	require.NoError(t, err)
	defer c.Close()
	ctx := context.Background()

	type intent struct {
		Industry string `json:"industry"`
	}
	require.NoError(t, c.SetJSON(ctx, "sitegen:intent:1", intent{Industry: "fitness"}, time.Minute))
	assert.True(t, mr.Exists("sitegen:intent:1"))
	assert.Equal(t, 0, c.Stats().MemorySize)

	var got intent
	require.NoError(t, c.GetJSON(ctx, "sitegen:intent:1", &got))
	assert.Equal(t, "fitness", got.Industry)

	mr.FastForward(2 * time.Minute)
	assert.ErrorIs(t, c.GetJSON(ctx, "sitegen:intent:1", &got), ErrCacheMiss)
	assert.True(t, c.Stats().Redis)
}

func TestOpen_FallsBackToMemory(t *testing.T) {
	c, err := Open(&CacheConfig{RedisURL: "redis://127.0.0.1:1", DefaultTTL: time.Minute, MaxMemoryItems: 10})
	require.Error(t, err)
	require.NotNil(t, c)
	defer c.Close()

	require.NoError(t, c.Set(context.Background(), "k", []byte("v"), 0))
	got, err := c.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))
}
