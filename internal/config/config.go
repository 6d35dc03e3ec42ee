// Package config loads sitegen configuration: built-in defaults, then an
// optional YAML file, then SITEGEN_ environment variables. Provider
// credentials are discovered from the conventional vendor variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"sitegen/internal/ai"
)

// Environment constants
const (
	EnvProduction  = "production"
	EnvStaging     = "staging"
	EnvDevelopment = "development"
	EnvTest        = "test"
)

// EnvPrefix prefixes every environment override. A double underscore
// separates nesting levels: SITEGEN_SERVER__PORT sets server.port.
const EnvPrefix = "SITEGEN_"

// ConfigFileEnv names the variable holding the YAML config path
const ConfigFileEnv = "SITEGEN_CONFIG"

// Config is the complete runtime configuration
type Config struct {
	Environment string                    `koanf:"environment"`
	Server      ServerConfig              `koanf:"server"`
	Log         LogConfig                 `koanf:"log"`
	Providers   map[string]ProviderConfig `koanf:"providers"`
	Fallback    []string                  `koanf:"fallback"`
	Generation  GenerationConfig          `koanf:"generation"`
	Images      ImagesConfig              `koanf:"images"`
	Cache       CacheConfig               `koanf:"cache"`
	Metrics     MetricsConfig             `koanf:"metrics"`

	// Keys holds the credential pools discovered from the environment
	Keys map[ai.Provider][]string `koanf:"-"`

	// File is the config file that was loaded, if any
	File string `koanf:"-"`
}

// ServerConfig configures the HTTP surface
type ServerConfig struct {
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	RateLimit       float64       `koanf:"rate_limit"`
	RateBurst       int           `koanf:"rate_burst"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	// APIKeys guards /api/v1 when non-empty
	APIKeys []string `koanf:"api_keys"`
}

// LogConfig configures logging
type LogConfig struct {
	Level string `koanf:"level"`
}

// ProviderConfig tunes one provider family
type ProviderConfig struct {
	BaseURL           string        `koanf:"base_url"`
	Model             string        `koanf:"model"`
	MaxOutputTokens   int           `koanf:"max_output_tokens"`
	RequestsPerMinute int           `koanf:"requests_per_minute"`
	Timeout           time.Duration `koanf:"timeout"`
}

// GenerationConfig tunes the phase and variant orchestration
type GenerationConfig struct {
	MaxTokens          int           `koanf:"max_tokens"`
	Temperature        float64       `koanf:"temperature"`
	PhaseTimeout       time.Duration `koanf:"phase_timeout"`
	PhaseDelay         time.Duration `koanf:"phase_delay"`
	FoundationAttempts int           `koanf:"foundation_attempts"`
	DefaultVariants    int           `koanf:"default_variants"`
	MaxVariants        int           `koanf:"max_variants"`
	VariantConcurrency int           `koanf:"variant_concurrency"`
	AIDesign           bool          `koanf:"ai_design"`
}

// ImagesConfig configures the image lookup service
type ImagesConfig struct {
	BaseURL string        `koanf:"base_url"`
	APIKey  string        `koanf:"api_key"`
	Timeout time.Duration `koanf:"timeout"`
}

// CacheConfig configures the cache layer
type CacheConfig struct {
	RedisURL       string        `koanf:"redis_url"`
	KeyPrefix      string        `koanf:"key_prefix"`
	ImageTTL       time.Duration `koanf:"image_ttl"`
	IntentTTL      time.Duration `koanf:"intent_ttl"`
	MaxMemoryItems int           `koanf:"max_memory_items"`
}

// MetricsConfig toggles the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool `koanf:"enabled"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"environment": EnvDevelopment,

		"server.port":             8080,
		"server.read_timeout":     30 * time.Second,
		"server.write_timeout":    10 * time.Minute,
		"server.shutdown_timeout": 15 * time.Second,
		"server.rate_limit":       2.0,
		"server.rate_burst":       10,
		"server.cors_origins":     []string{"*"},

		"log.level": "info",

		"fallback": []string{"claude", "openai", "gemini", "grok", "ollama"},

		"providers.claude.requests_per_minute": 50,
		"providers.openai.requests_per_minute": 60,
		"providers.gemini.requests_per_minute": 60,
		"providers.grok.requests_per_minute":   60,
		"providers.ollama.requests_per_minute": 0,

		"generation.max_tokens":          8000,
		"generation.temperature":         0.7,
		"generation.phase_timeout":       90 * time.Second,
		"generation.phase_delay":         1500 * time.Millisecond,
		"generation.foundation_attempts": 3,
		"generation.default_variants":    3,
		"generation.max_variants":        5,
		"generation.variant_concurrency": 3,
		"generation.ai_design":           true,

		"images.timeout": 8 * time.Second,

		"cache.key_prefix":       "sitegen:",
		"cache.image_ttl":        24 * time.Hour,
		"cache.intent_ttl":       time.Hour,
		"cache.max_memory_items": 5000,

		"metrics.enabled": true,
	}
}

// Load builds the configuration. path may be empty, in which case
// SITEGEN_CONFIG is consulted; no file at all is fine.
func Load(path string) (*Config, error) {
	return load(path, os.Getenv)
}

func load(path string, lookup func(string) string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		path = lookup(ConfigFileEnv)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	// SITEGEN_GENERATION__PHASE_DELAY -> generation.phase_delay
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.File = path
	if cfg.Environment == EnvDevelopment {
		cfg.Environment = GetEnvironment(lookup)
	}
	cfg.Environment = strings.ToLower(cfg.Environment)
	if cfg.Providers == nil {
		cfg.Providers = map[string]ProviderConfig{}
	}

	cfg.Keys = DiscoverKeys(lookup)
	if base := lookup("OLLAMA_BASE_URL"); base != "" {
		p := cfg.Providers[string(ai.ProviderOllama)]
		p.BaseURL = base
		cfg.Providers[string(ai.ProviderOllama)] = p
	}
	return &cfg, nil
}

// GetEnvironment reads the deployment environment from the conventional
// variables, defaulting to development
func GetEnvironment(lookup func(string) string) string {
	for _, key := range []string{"GO_ENV", "SITEGEN_ENV", "ENVIRONMENT", "ENV"} {
		if v := lookup(key); v != "" {
			return strings.ToLower(v)
		}
	}
	return EnvDevelopment
}

// IsProduction reports whether the environment is production
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// Provider returns the tuning for p, zero valued when unset
func (c *Config) Provider(p ai.Provider) ProviderConfig {
	return c.Providers[string(p)]
}

// ClientConfig converts the tuning for p into a client configuration
func (c *Config) ClientConfig(p ai.Provider) ai.ClientConfig {
	pc := c.Provider(p)
	return ai.ClientConfig{
		BaseURL:           pc.BaseURL,
		Model:             pc.Model,
		MaxOutputTokens:   pc.MaxOutputTokens,
		RequestsPerMinute: pc.RequestsPerMinute,
		Timeout:           pc.Timeout,
	}
}

// Enabled reports whether p can be called: keyed families need credentials
// and the keyless local family needs a base URL
func (c *Config) Enabled(p ai.Provider) bool {
	if p == ai.ProviderOllama {
		return c.Provider(p).BaseURL != ""
	}
	return len(c.Keys[p]) > 0
}

// Chain returns the configured fallback order restricted to enabled providers
func (c *Config) Chain() []ai.Provider {
	var out []ai.Provider
	seen := map[ai.Provider]bool{}
	for _, name := range c.Fallback {
		p, ok := ai.ParseProvider(strings.ToLower(strings.TrimSpace(name)))
		if !ok || seen[p] || !c.Enabled(p) {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
