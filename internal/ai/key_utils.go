package ai

import (
	"math/rand"
	"strings"
	"sync"
)

// normalizeAPIKey strips formatting noise that commonly appears in env-var values.
func normalizeAPIKey(raw string) string {
	key := strings.TrimSpace(raw)
	if key == "" {
		return ""
	}

	key = strings.Trim(key, `"'`)
	key = strings.TrimSpace(key)
	if len(key) >= len("bearer ") && strings.EqualFold(key[:len("bearer ")], "bearer ") {
		key = strings.TrimSpace(key[len("bearer "):])
	}

	// Strip both literal escapes and actual control characters.
	key = strings.ReplaceAll(key, `\r`, "")
	key = strings.ReplaceAll(key, `\n`, "")
	key = strings.NewReplacer("\r", "", "\n", "", "\t", "").Replace(key)

	// Keep only visible ASCII bytes to avoid malformed Authorization headers.
	filtered := make([]byte, 0, len(key))
	for i := 0; i < len(key); i++ {
		b := key[i]
		if b >= 33 && b <= 126 {
			filtered = append(filtered, b)
		}
	}

	return strings.TrimSpace(string(filtered))
}

// KeyPool holds the credential pool of every provider
type KeyPool struct {
	mu   sync.Mutex
	keys map[Provider][]string
	rng  *rand.Rand
}

// NewKeyPool normalizes and dedupes the given keys. Empty entries are dropped.
func NewKeyPool(keys map[Provider][]string, seed int64) *KeyPool {
	p := &KeyPool{keys: make(map[Provider][]string, len(keys)), rng: rand.New(rand.NewSource(seed))}
	for provider, raw := range keys {
		seen := map[string]bool{}
		for _, k := range raw {
			n := normalizeAPIKey(k)
			if n == "" || seen[n] {
				continue
			}
			seen[n] = true
			p.keys[provider] = append(p.keys[provider], n)
		}
	}
	return p
}

// Keys returns the provider's pool, possibly empty
func (p *KeyPool) Keys(provider Provider) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.keys[provider]...)
}

// Size returns the number of credentials for provider
func (p *KeyPool) Size(provider Provider) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.keys[provider])
}

// Pick selects uniformly at random among credentials not in tried. When every
// credential has been tried, any credential is reused. ok is false only for an
// empty pool.
func (p *KeyPool) Pick(provider Provider, tried map[string]bool) (key string, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pool := p.keys[provider]
	if len(pool) == 0 {
		return "", false
	}
	fresh := make([]string, 0, len(pool))
	for _, k := range pool {
		if !tried[k] {
			fresh = append(fresh, k)
		}
	}
	if len(fresh) == 0 {
		fresh = pool
	}
	return fresh[p.rng.Intn(len(fresh))], true
}
