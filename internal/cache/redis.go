// Package cache provides a Redis-backed cache for image lookups and prompt
// intents, falling back to process memory when Redis is unavailable.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// ErrCacheMiss is returned when a key is absent or expired
var ErrCacheMiss = errors.New("cache miss")

// RedisCache provides a Redis-compatible caching layer
// Falls back to in-memory cache when Redis is unavailable
type RedisCache struct {
	memCache map[string]*cacheEntry
	memMu    sync.RWMutex

	// nil when running memory-only
	redisClient RedisClient

	defaultTTL time.Duration
	maxMemSize int
	now        func() time.Time

	hits   atomic.Int64
	misses atomic.Int64

	stop     chan struct{}
	stopOnce sync.Once
}

// RedisClient is the subset of Redis operations the cache needs
type RedisClient interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Keys(ctx context.Context, pattern string) ([]string, error)
	Close() error
}

type cacheEntry struct {
	Value     []byte
	ExpiresAt time.Time
}

// CacheConfig holds cache configuration
type CacheConfig struct {
	// Redis connection URL (redis://host:port/db); empty means memory only
	RedisURL string

	DefaultTTL     time.Duration
	MaxMemoryItems int

	ImageTTL  time.Duration
	IntentTTL time.Duration

	// KeyPrefix namespaces every key written to Redis
	KeyPrefix string
}

// DefaultCacheConfig returns the default cache configuration
func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		DefaultTTL:     10 * time.Minute,
		MaxMemoryItems: 5000,
		ImageTTL:       24 * time.Hour,
		IntentTTL:      time.Hour,
		KeyPrefix:      "sitegen:",
	}
}

// NewRedisCache creates a memory-only cache
func NewRedisCache(config *CacheConfig) *RedisCache {
	return NewRedisCacheWithClient(nil, config)
}

// NewRedisCacheWithClient creates a cache with an existing Redis client
func NewRedisCacheWithClient(client RedisClient, config *CacheConfig) *RedisCache {
	if config == nil {
		config = DefaultCacheConfig()
	}
	if config.MaxMemoryItems <= 0 {
		config.MaxMemoryItems = DefaultCacheConfig().MaxMemoryItems
	}
	if config.DefaultTTL <= 0 {
		config.DefaultTTL = DefaultCacheConfig().DefaultTTL
	}

	cache := &RedisCache{
		memCache:    make(map[string]*cacheEntry),
		redisClient: client,
		defaultTTL:  config.DefaultTTL,
		maxMemSize:  config.MaxMemoryItems,
		now:         time.Now,
		stop:        make(chan struct{}),
	}

	go cache.cleanupLoop()

	return cache
}

// Get retrieves a value from cache
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	if c.redisClient != nil {
		val, err := c.redisClient.Get(ctx, key)
		if err == nil {
			c.recordHit()
			return []byte(val), nil
		}
	}

	c.memMu.RLock()
	entry, exists := c.memCache[key]
	c.memMu.RUnlock()

	if !exists {
		c.recordMiss()
		return nil, ErrCacheMiss
	}

	if c.now().After(entry.ExpiresAt) {
		c.memMu.Lock()
		delete(c.memCache, key)
		c.memMu.Unlock()
		c.recordMiss()
		return nil, ErrCacheMiss
	}

	c.recordHit()
	return entry.Value, nil
}

// Set stores a value with ttl; zero uses the default
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.defaultTTL
	}

	if c.redisClient != nil {
		if err := c.redisClient.Set(ctx, key, string(value), ttl); err == nil {
			return nil
		}
		// fall through to memory on redis error
	}

	c.memMu.Lock()
	defer c.memMu.Unlock()

	if _, exists := c.memCache[key]; !exists && len(c.memCache) >= c.maxMemSize {
		c.evictOldest()
	}

	c.memCache[key] = &cacheEntry{
		Value:     value,
		ExpiresAt: c.now().Add(ttl),
	}

	return nil
}

// DeletePattern removes all keys matching a trailing-star pattern
func (c *RedisCache) DeletePattern(ctx context.Context, pattern string) error {
	if c.redisClient != nil {
		keys, err := c.redisClient.Keys(ctx, pattern)
		if err == nil && len(keys) > 0 {
			_ = c.redisClient.Del(ctx, keys...)
		}
	}

	c.memMu.Lock()
	defer c.memMu.Unlock()

	for key := range c.memCache {
		if matchPattern(pattern, key) {
			delete(c.memCache, key)
		}
	}

	return nil
}

// GetJSON retrieves and unmarshals a JSON value
func (c *RedisCache) GetJSON(ctx context.Context, key string, dest interface{}) error {
	data, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("cache: decode %s: %w", key, err)
	}
	return nil
}

// SetJSON marshals and stores a JSON value
func (c *RedisCache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: encode %s: %w", key, err)
	}
	return c.Set(ctx, key, data, ttl)
}

// Stats returns cache statistics
func (c *RedisCache) Stats() CacheStats {
	c.memMu.RLock()
	memSize := len(c.memCache)
	c.memMu.RUnlock()

	hits, misses := c.hits.Load(), c.misses.Load()
	var hitRatio float64
	if total := hits + misses; total > 0 {
		hitRatio = float64(hits) / float64(total)
	}

	return CacheStats{
		Hits:       hits,
		Misses:     misses,
		HitRatio:   hitRatio,
		MemorySize: memSize,
		Redis:      c.redisClient != nil,
	}
}

// CacheStats holds cache statistics
type CacheStats struct {
	Hits       int64   `json:"hits"`
	Misses     int64   `json:"misses"`
	HitRatio   float64 `json:"hit_ratio"`
	MemorySize int     `json:"memory_size"`
	Redis      bool    `json:"redis"`
}

// Close stops the cleanup loop and closes the Redis connection
func (c *RedisCache) Close() error {
	c.stopOnce.Do(func() { close(c.stop) })
	if c.redisClient != nil {
		return c.redisClient.Close()
	}
	return nil
}

func (c *RedisCache) recordHit()  { c.hits.Add(1) }
func (c *RedisCache) recordMiss() { c.misses.Add(1) }

// evictOldest drops expired entries first, then the earliest-expiring ones.
// Caller holds memMu.
func (c *RedisCache) evictOldest() {
	toEvict := c.maxMemSize / 10
	if toEvict < 1 {
		toEvict = 1
	}

	now := c.now()
	evicted := 0
	for key, entry := range c.memCache {
		if evicted >= toEvict {
			return
		}
		if now.After(entry.ExpiresAt) {
			delete(c.memCache, key)
			evicted++
		}
	}

	for evicted < toEvict && len(c.memCache) > 0 {
		var oldest string
		var at time.Time
		for key, entry := range c.memCache {
			if oldest == "" || entry.ExpiresAt.Before(at) {
				oldest, at = key, entry.ExpiresAt
			}
		}
		delete(c.memCache, oldest)
		evicted++
	}
}

func (c *RedisCache) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.stop:
			return
		}
	}
}

func (c *RedisCache) cleanup() {
	c.memMu.Lock()
	defer c.memMu.Unlock()

	now := c.now()
	for key, entry := range c.memCache {
		if now.After(entry.ExpiresAt) {
			delete(c.memCache, key)
		}
	}
}

// matchPattern supports literal keys and a single trailing *
func matchPattern(pattern, key string) bool {
	if len(pattern) == 0 {
		return len(key) == 0
	}
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(key, prefix)
	}
	return pattern == key
}

// Cache key builders

// ImageSearchKey returns the cache key for one image search
func ImageSearchKey(prefix, query string, width, height int) string {
	return fmt.Sprintf("%simages:%s:%dx%d", prefix, strings.ToLower(strings.TrimSpace(query)), width, height)
}

// IntentKey returns the cache key for the intent extracted from a prompt
func IntentKey(prefix, prompt string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(prompt)))
	return prefix + "intent:" + hex.EncodeToString(sum[:8])
}

// ImagesPattern matches every cached image search
func ImagesPattern(prefix string) string {
	return prefix + "images:*"
}

// IntentsPattern matches every cached prompt intent
func IntentsPattern(prefix string) string {
	return prefix + "intent:*"
}
