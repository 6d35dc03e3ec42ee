// Package ai talks to the upstream model providers: one client per provider
// family, credential pools, outcome classification and the fallback router.
package ai

import (
	"context"
	"sync"
	"time"
)

// Provider identifies a provider family
type Provider string

const (
	ProviderClaude Provider = "claude"
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
	ProviderGrok   Provider = "grok"
	ProviderOllama Provider = "ollama"
)

// AllProviders lists every supported family in default fallback order
var AllProviders = []Provider{ProviderClaude, ProviderOpenAI, ProviderGemini, ProviderGrok, ProviderOllama}

// ParseProvider maps a loose provider label to a Provider
func ParseProvider(s string) (Provider, bool) {
	switch s {
	case "claude", "anthropic":
		return ProviderClaude, true
	case "openai", "gpt", "gpt4", "chatgpt":
		return ProviderOpenAI, true
	case "gemini", "google":
		return ProviderGemini, true
	case "grok", "xai":
		return ProviderGrok, true
	case "ollama", "local":
		return ProviderOllama, true
	}
	return "", false
}

// Input is one generation call
type Input struct {
	APIKey      string
	Model       string
	System      string
	User        string
	MaxTokens   int
	Temperature float64
}

// Output is the text a provider returned. Truncated is set when the provider's own
// finish reason reports an output-length cutoff; Text then holds the partial reply.
type Output struct {
	Text         string
	Truncated    bool
	FinishReason string
	Usage        Usage
}

// Usage is token accounting for one call
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Client is one provider family
type Client interface {
	Provider() Provider
	// DefaultModel is used when a candidate names no model
	DefaultModel() string
	// MaxOutputTokens is the ceiling the truncation retry may grow to
	MaxOutputTokens() int
	// RequiresKey is false for local providers
	RequiresKey() bool
	Generate(ctx context.Context, in Input) (*Output, error)
	GetUsage() ProviderUsage
}

// ProviderUsage tracks usage statistics for a provider
type ProviderUsage struct {
	Provider     Provider  `json:"provider"`
	RequestCount int64     `json:"request_count"`
	TotalTokens  int64     `json:"total_tokens"`
	AvgLatency   float64   `json:"avg_latency"`
	ErrorCount   int64     `json:"error_count"`
	LastUsed     time.Time `json:"last_used"`
}

// usageTracker is embedded by every client
type usageTracker struct {
	usage   ProviderUsage
	usageMu sync.RWMutex
}

func (u *usageTracker) updateUsage(tokens int, latency time.Duration) {
	u.usageMu.Lock()
	defer u.usageMu.Unlock()

	u.usage.RequestCount++
	u.usage.TotalTokens += int64(tokens)
	u.usage.LastUsed = time.Now()

	// Running average of latency in milliseconds
	ms := float64(latency.Milliseconds())
	if u.usage.RequestCount == 1 {
		u.usage.AvgLatency = ms
	} else {
		u.usage.AvgLatency = (u.usage.AvgLatency*float64(u.usage.RequestCount-1) + ms) / float64(u.usage.RequestCount)
	}
}

func (u *usageTracker) incrementErrorCount() {
	u.usageMu.Lock()
	defer u.usageMu.Unlock()
	u.usage.ErrorCount++
}

// GetUsage returns a copy of the usage statistics
func (u *usageTracker) GetUsage() ProviderUsage {
	u.usageMu.RLock()
	defer u.usageMu.RUnlock()
	return u.usage
}
