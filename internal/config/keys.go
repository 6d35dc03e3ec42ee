package config

import (
	"strings"

	"sitegen/internal/ai"
)

// keyEnv lists the variables a provider's credentials may come from, in
// precedence order. Each NAME also accepts a comma separated NAMES pool.
var keyEnv = map[ai.Provider][]string{
	ai.ProviderClaude: {"ANTHROPIC_API_KEY", "CLAUDE_API_KEY"},
	ai.ProviderOpenAI: {"OPENAI_API_KEY", "CHATGPT_API_KEY", "GPT_API_KEY", "OPENAI_PLATFORM_API_KEY", "OPENAI_KEY", "OPENAI_TOKEN", "OPENAI_SECRET_KEY"},
	ai.ProviderGemini: {"GEMINI_API_KEY", "GOOGLE_AI_API_KEY", "GOOGLE_GEMINI_API_KEY"},
	ai.ProviderGrok:   {"XAI_API_KEY", "GROK_API_KEY"},
}

// DiscoverKeys collects credential pools from the environment. Keys are
// returned raw; the key pool normalizes and dedupes them.
func DiscoverKeys(lookup func(string) string) map[ai.Provider][]string {
	out := make(map[ai.Provider][]string)
	for p, names := range keyEnv {
		var pool []string
		for _, name := range names {
			pool = append(pool, splitKeys(lookup(name+"S"))...)
			pool = append(pool, splitKeys(lookup(name))...)
		}
		if len(pool) > 0 {
			out[p] = pool
		}
	}
	return out
}

func splitKeys(raw string) []string {
	var out []string
	for _, k := range strings.Split(raw, ",") {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}
