// Package reqctx holds the state shared by every phase and variant of one
// generation request. A Context is created at request entry and dropped when
// the response is written.
package reqctx

import (
	"hash/fnv"
	"sync"

	"github.com/google/uuid"

	"sitegen/internal/ai"
	"sitegen/internal/design"
)

// Context is the per-request state. All methods are safe for concurrent use.
type Context struct {
	ID   string
	Seed int64

	mu          sync.RWMutex
	dead        map[ai.Provider]string
	usedLayouts []string
	tokens      *design.Tokens
	intent      *design.Intent
	images      map[string][]string
}

// New creates a request context. A zero seed is derived from the request id.
func New(seed int64) *Context {
	id := uuid.New().String()
	if seed == 0 {
		h := fnv.New64a()
		_, _ = h.Write([]byte(id))
		seed = int64(h.Sum64() >> 1)
	}
	return &Context{
		ID:     id,
		Seed:   seed,
		dead:   make(map[ai.Provider]string),
		images: make(map[string][]string),
	}
}

// IsDead reports whether p failed authentication earlier in this request
func (c *Context) IsDead(p ai.Provider) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.dead[p]
	return ok
}

// MarkDead records p as dead. The first reason wins.
func (c *Context) MarkDead(p ai.Provider, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.dead[p]; !ok {
		c.dead[p] = reason
	}
}

// Dead returns a copy of the dead set with reasons
func (c *Context) Dead() map[ai.Provider]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[ai.Provider]string, len(c.dead))
	for p, r := range c.dead {
		out[p] = r
	}
	return out
}

// UseLayouts appends layout names, skipping ones already recorded
func (c *Context) UseLayouts(names ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, n := range names {
		if n == "" || contains(c.usedLayouts, n) {
			continue
		}
		c.usedLayouts = append(c.usedLayouts, n)
	}
}

// UsedLayouts returns the recorded layouts in order of use
func (c *Context) UsedLayouts() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.usedLayouts...)
}

// SetDesign caches the resolved intent and tokens for the rest of the request
func (c *Context) SetDesign(intent design.Intent, tokens design.Tokens) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.intent = &intent
	c.tokens = &tokens
}

// Tokens returns the cached tokens, nil before SetDesign
func (c *Context) Tokens() *design.Tokens {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.tokens == nil {
		return nil
	}
	t := *c.tokens
	return &t
}

// Intent returns the cached intent, nil before SetDesign
func (c *Context) Intent() *design.Intent {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.intent == nil {
		return nil
	}
	i := *c.intent
	return &i
}

// SetImages caches image urls for a category
func (c *Context) SetImages(category string, urls []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.images[category] = append([]string(nil), urls...)
}

// Images returns the cached urls for a category
func (c *Context) Images(category string) ([]string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	urls, ok := c.images[category]
	return append([]string(nil), urls...), ok
}

// ImageCatalog returns a copy of every cached category
func (c *Context) ImageCatalog() map[string][]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string][]string, len(c.images))
	for k, v := range c.images {
		out[k] = append([]string(nil), v...)
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

var _ ai.DeadSet = (*Context)(nil)
