package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAPIKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "trims quotes and bearer prefix",
			in:   `"Bearer sk-proj-abc123"`,
			want: "sk-proj-abc123",
		},
		{
			name: "strips escaped and real control characters",
			in:   "sk-proj-abc\\n123\r\n\t",
			want: "sk-proj-abc123",
		},
		{
			name: "strips hidden unicode characters",
			in:   "sk-\u200bproj-\ufeffabc123",
			want: "sk-proj-abc123",
		},
		{
			name: "empty input",
			in:   "   ",
			want: "",
		},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := normalizeAPIKey(tc.in)
			if got != tc.want {
				t.Fatalf("normalizeAPIKey(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestKeyPool_NormalizesAndDedupes(t *testing.T) {
	pool := NewKeyPool(map[Provider][]string{
		ProviderClaude: {" sk-a ", `"Bearer sk-a"`, "sk-b", ""},
	}, 1)

	assert.Equal(t, []string{"sk-a", "sk-b"}, pool.Keys(ProviderClaude))
	assert.Equal(t, 0, pool.Size(ProviderGemini))
}

func TestKeyPool_PickExcludesTried(t *testing.T) {
	pool := NewKeyPool(map[Provider][]string{ProviderOpenAI: {"k1", "k2", "k3"}}, 7)

	for i := 0; i < 20; i++ {
		key, ok := pool.Pick(ProviderOpenAI, map[string]bool{"k1": true, "k3": true})
		require.True(t, ok)
		assert.Equal(t, "k2", key)
	}

	key, ok := pool.Pick(ProviderOpenAI, map[string]bool{"k1": true, "k2": true, "k3": true})
	require.True(t, ok, "an exhausted pool reuses any key")
	assert.Contains(t, []string{"k1", "k2", "k3"}, key)

	_, ok = pool.Pick(ProviderGrok, nil)
	assert.False(t, ok)
}

func TestKeyPool_PickIsRoughlyUniform(t *testing.T) {
	pool := NewKeyPool(map[Provider][]string{ProviderGemini: {"a", "b"}}, 3)
	counts := map[string]int{}
	for i := 0; i < 1000; i++ {
		key, _ := pool.Pick(ProviderGemini, nil)
		counts[key]++
	}
	assert.InDelta(t, 500, counts["a"], 100)
	assert.InDelta(t, 500, counts["b"], 100)
}
