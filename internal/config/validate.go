package config

import (
	"fmt"
	"strings"

	"sitegen/internal/ai"
)

// ValidationError lists every configuration problem found
type ValidationError struct {
	Missing []string
	Invalid []string
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing: %s", strings.Join(e.Missing, ", ")))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, fmt.Sprintf("invalid: %s", strings.Join(e.Invalid, ", ")))
	}
	return "config: " + strings.Join(parts, "; ")
}

// HasErrors reports whether any problem was recorded
func (e *ValidationError) HasErrors() bool {
	return len(e.Missing) > 0 || len(e.Invalid) > 0
}

// Validate checks the configuration shape. It does not require credentials;
// use RequireProviders before serving generation traffic.
func (c *Config) Validate() error {
	v := &ValidationError{}

	switch c.Environment {
	case EnvProduction, EnvStaging, EnvDevelopment, EnvTest:
	default:
		v.Invalid = append(v.Invalid, fmt.Sprintf("environment %q", c.Environment))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		v.Invalid = append(v.Invalid, fmt.Sprintf("server.port %d", c.Server.Port))
	}
	if len(c.Fallback) == 0 {
		v.Missing = append(v.Missing, "fallback")
	}
	for _, name := range c.Fallback {
		if _, ok := ai.ParseProvider(strings.ToLower(strings.TrimSpace(name))); !ok {
			v.Invalid = append(v.Invalid, fmt.Sprintf("fallback provider %q", name))
		}
	}
	for name := range c.Providers {
		if _, ok := ai.ParseProvider(name); !ok {
			v.Invalid = append(v.Invalid, fmt.Sprintf("providers.%s", name))
		}
	}

	g := c.Generation
	if g.MaxTokens <= 0 {
		v.Invalid = append(v.Invalid, "generation.max_tokens")
	}
	if g.Temperature < 0 || g.Temperature > 2 {
		v.Invalid = append(v.Invalid, "generation.temperature")
	}
	if g.FoundationAttempts < 1 {
		v.Invalid = append(v.Invalid, "generation.foundation_attempts")
	}
	if g.MaxVariants < 1 || g.DefaultVariants < 1 || g.DefaultVariants > g.MaxVariants {
		v.Invalid = append(v.Invalid, "generation.default_variants/max_variants")
	}
	if g.VariantConcurrency < 1 {
		v.Invalid = append(v.Invalid, "generation.variant_concurrency")
	}

	if v.HasErrors() {
		return v
	}
	return nil
}

// RequireProviders fails when no provider in the fallback order is usable
func (c *Config) RequireProviders() error {
	if len(c.Chain()) > 0 {
		return nil
	}
	return &ValidationError{Missing: []string{
		"provider credentials (set ANTHROPIC_API_KEY, OPENAI_API_KEY, GEMINI_API_KEY, XAI_API_KEY or OLLAMA_BASE_URL)",
	}}
}
