package metrics

import (
	"context"
	"runtime"
	"time"

	"sitegen/internal/cache"
)

// StatsSource is anything that reports cache statistics
type StatsSource interface {
	Stats() cache.CacheStats
}

// Collector periodically samples gauges that have no natural event to hang
// an update on: goroutines and cache statistics.
type Collector struct {
	metrics  *Metrics
	caches   map[string]StatsSource
	interval time.Duration
	stopCh   chan struct{}
}

// NewCollector creates a collector sampling every interval
func NewCollector(m *Metrics, interval time.Duration) *Collector {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Collector{
		metrics:  m,
		caches:   make(map[string]StatsSource),
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// WatchCache adds a named cache to every sample. Call before Start.
func (c *Collector) WatchCache(name string, src StatsSource) *Collector {
	c.caches[name] = src
	return c
}

// Start begins periodic collection until ctx is done or Stop is called
func (c *Collector) Start(ctx context.Context) {
	go func() {
		c.Collect()

		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				c.Collect()
			case <-c.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the collector
func (c *Collector) Stop() {
	close(c.stopCh)
}

// Collect performs a single collection cycle
func (c *Collector) Collect() {
	c.metrics.GoroutineNum.Set(float64(runtime.NumGoroutine()))
	for name, src := range c.caches {
		s := src.Stats()
		c.metrics.CacheHits.WithLabelValues(name).Set(float64(s.Hits))
		c.metrics.CacheMisses.WithLabelValues(name).Set(float64(s.Misses))
		c.metrics.CacheEntries.WithLabelValues(name).Set(float64(s.MemorySize))
	}
}
