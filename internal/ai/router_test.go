package ai

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// fakeClient replays scripted results in order; the last one repeats.
type fakeClient struct {
	usageTracker
	provider Provider
	keyless  bool
	maxOut   int
	script   []fakeStep

	mu    sync.Mutex
	calls []Input
}

type fakeStep struct {
	out *Output
	err error
}

func newFake(p Provider, steps ...fakeStep) *fakeClient {
	return &fakeClient{provider: p, maxOut: 8000, script: steps}
}

func reply(text string) fakeStep     { return fakeStep{out: &Output{Text: text}} }
func truncated(text string) fakeStep { return fakeStep{out: &Output{Text: text, Truncated: true}} }
func fail(status int) fakeStep       { return fakeStep{err: statusError("fake", status, nil)} }

func (f *fakeClient) Provider() Provider   { return f.provider }
func (f *fakeClient) DefaultModel() string { return string(f.provider) + "-default" }
func (f *fakeClient) MaxOutputTokens() int { return f.maxOut }
func (f *fakeClient) RequiresKey() bool    { return !f.keyless }

func (f *fakeClient) Generate(_ context.Context, in Input) (*Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, in)
	step := f.script[min(len(f.calls), len(f.script))-1]
	return step.out, step.err
}

func (f *fakeClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type deadSet struct {
	dead map[Provider]string
}

func newDeadSet(ps ...Provider) *deadSet {
	d := &deadSet{dead: map[Provider]string{}}
	for _, p := range ps {
		d.dead[p] = "preset"
	}
	return d
}

func (d *deadSet) IsDead(p Provider) bool { _, ok := d.dead[p]; return ok }

func (d *deadSet) MarkDead(p Provider, reason string) { d.dead[p] = reason }

type recorder struct {
	attempts  []Outcome
	fallbacks []Provider
}

func (r *recorder) ObserveAttempt(_ Provider, o Outcome, _ time.Duration) {
	r.attempts = append(r.attempts, o)
}

func (r *recorder) ObserveFallback(from Provider, _ Outcome) { r.fallbacks = append(r.fallbacks, from) }

func testKeys() *KeyPool {
	return NewKeyPool(map[Provider][]string{
		ProviderClaude: {"c1"},
		ProviderOpenAI: {"o1", "o2"},
		ProviderGemini: {"g1"},
		ProviderGrok:   {"x1"},
	}, 1)
}

func noSleep(delays *[]time.Duration) RouterOption {
	return WithSleep(func(_ context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	})
}

func chainOf(ps ...Provider) []Candidate {
	out := make([]Candidate, len(ps))
	for i, p := range ps {
		out[i] = Candidate{Provider: p, Position: i}
	}
	return out
}

func TestRouter_SkipsDeadRetriesRateLimitAndStops(t *testing.T) {
	a := newFake(ProviderClaude, reply("never"))
	b := newFake(ProviderOpenAI, fail(429), fail(429), reply(`{"sections":[]}`))
	c := newFake(ProviderGemini, reply("never"))
	var delays []time.Duration
	rec := &recorder{}
	r := NewRouter([]Client{a, b, c}, testKeys(), noSleep(&delays), WithRecorder(rec), WithSeed(1), WithLogger(zaptest.NewLogger(t)))

	res, err := r.Generate(context.Background(), newDeadSet(ProviderClaude), Call{User: "u"}, chainOf(ProviderClaude, ProviderOpenAI, ProviderGemini))

	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, res.Candidate.Provider)
	assert.Equal(t, `{"sections":[]}`, res.Text)
	assert.Equal(t, 0, a.callCount())
	assert.Equal(t, 3, b.callCount())
	assert.Equal(t, 0, c.callCount())
	assert.Len(t, delays, 2)
	assert.Greater(t, delays[1], delays[0]/2, "backoff escalates")
	assert.Equal(t, []Outcome{OutcomeRateLimit, OutcomeRateLimit, OutcomeOK}, rec.attempts)
	assert.Empty(t, rec.fallbacks)

	// the second attempt rotates to the other credential
	assert.NotEqual(t, b.calls[0].APIKey, b.calls[1].APIKey)
}

func TestRouter_AuthMarksDeadAndAdvances(t *testing.T) {
	a := newFake(ProviderClaude, fail(401))
	b := newFake(ProviderOpenAI, reply("fine"))
	dead := newDeadSet()
	rec := &recorder{}
	r := NewRouter([]Client{a, b}, testKeys(), WithRecorder(rec))

	res, err := r.Generate(context.Background(), dead, Call{User: "u"}, chainOf(ProviderClaude, ProviderOpenAI))

	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, res.Candidate.Provider)
	assert.True(t, dead.IsDead(ProviderClaude))
	assert.Equal(t, 1, a.callCount(), "AUTH is never retried")
	assert.Equal(t, []Provider{ProviderClaude}, rec.fallbacks)

	// a later call in the same request skips the dead provider
	_, err = r.Generate(context.Background(), dead, Call{User: "u"}, chainOf(ProviderClaude, ProviderOpenAI))
	require.NoError(t, err)
	assert.Equal(t, 1, a.callCount())
}

func TestRouter_WithPolicyOverridesActions(t *testing.T) {
	a := newFake(ProviderOpenAI, fail(429))
	b := newFake(ProviderGemini, reply("ok"))
	var delays []time.Duration
	policy := DefaultPolicy()
	policy.Actions = map[Outcome]Action{OutcomeRateLimit: ActionAdvance}
	r := NewRouter([]Client{a, b}, testKeys(), noSleep(&delays), WithPolicy(policy))

	res, err := r.Generate(context.Background(), newDeadSet(), Call{User: "u"}, chainOf(ProviderOpenAI, ProviderGemini))

	require.NoError(t, err)
	assert.Equal(t, ProviderGemini, res.Candidate.Provider)
	assert.Equal(t, 1, a.callCount(), "rate limits advance instead of retrying")
	assert.Empty(t, delays)
}

func TestRouter_ChainErrorNamesEveryCandidate(t *testing.T) {
	a := newFake(ProviderClaude, fail(401))
	b := newFake(ProviderOpenAI, fail(429))
	c := newFake(ProviderGemini, fail(500))
	var delays []time.Duration
	r := NewRouter([]Client{a, b, c}, testKeys(), noSleep(&delays))
	chain := []Candidate{
		{Provider: ProviderGrok, Model: "grok-x"},
		{Provider: ProviderClaude, Model: "claude-x"},
		{Provider: ProviderOpenAI},
		{Provider: ProviderGemini},
	}

	_, err := r.Generate(context.Background(), newDeadSet(ProviderGrok), Call{User: "u"}, chain)

	var ce *ChainError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "all providers failed: grok/grok-x=DEAD, claude/claude-x=AUTH, openai=RATE_LIMIT, openai=RATE_LIMIT, openai=RATE_LIMIT, gemini=OTHER", err.Error())
	assert.Equal(t, OutcomeOther, ce.Outcome())
	assert.Equal(t, 3, b.callCount(), "one attempt plus two rate-limit retries")
}

func TestRouter_MissingCredentialsCountAsAuth(t *testing.T) {
	a := newFake(ProviderClaude, reply("never"))
	b := newFake(ProviderOllama, reply("local"))
	b.keyless = true
	dead := newDeadSet()
	r := NewRouter([]Client{a, b}, NewKeyPool(nil, 0))

	res, err := r.Generate(context.Background(), dead, Call{User: "u"}, chainOf(ProviderClaude, ProviderOllama))

	require.NoError(t, err)
	assert.Equal(t, "local", res.Text)
	assert.Equal(t, 0, a.callCount())
	assert.True(t, dead.IsDead(ProviderClaude))
	assert.Equal(t, OutcomeAuth, res.Attempts[0].Outcome)
}

func TestRouter_TimeoutIsOther(t *testing.T) {
	slow := &blockingClient{fakeClient: newFake(ProviderClaude)}
	b := newFake(ProviderOpenAI, reply("fast"))
	r := NewRouter([]Client{slow, b}, testKeys())

	res, err := r.Generate(context.Background(), newDeadSet(), Call{User: "u", Timeout: 20 * time.Millisecond}, chainOf(ProviderClaude, ProviderOpenAI))

	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, res.Candidate.Provider)
	assert.Equal(t, OutcomeOther, res.Attempts[0].Outcome)
}

type blockingClient struct {
	*fakeClient
}

func (b *blockingClient) Generate(ctx context.Context, _ Input) (*Output, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestRouter_ChainOrder(t *testing.T) {
	ollama := newFake(ProviderOllama)
	ollama.keyless = true
	r := NewRouter([]Client{
		newFake(ProviderClaude), newFake(ProviderOpenAI), newFake(ProviderGemini), ollama,
	}, NewKeyPool(map[Provider][]string{ProviderClaude: {"c"}, ProviderGemini: {"g"}}, 0))

	chain := r.Chain(ProviderGemini, "gemini-pro")

	require.Len(t, chain, 3)
	assert.Equal(t, Candidate{Provider: ProviderGemini, Model: "gemini-pro", Position: 0}, chain[0])
	assert.Equal(t, ProviderClaude, chain[1].Provider)
	assert.Equal(t, ProviderOllama, chain[2].Provider)
	assert.Equal(t, []Provider{ProviderClaude, ProviderGemini, ProviderOllama}, r.Providers())
}

func TestRouter_WithOrder(t *testing.T) {
	r := NewRouter([]Client{
		newFake(ProviderClaude), newFake(ProviderOpenAI), newFake(ProviderGemini),
	}, testKeys(), WithOrder([]Provider{ProviderGemini, ProviderClaude}))

	assert.Equal(t, []Provider{ProviderGemini, ProviderClaude}, r.Providers())

	chain := r.Chain(ProviderOpenAI, "")
	require.Len(t, chain, 3)
	assert.Equal(t, ProviderOpenAI, chain[0].Provider)
	assert.Equal(t, ProviderGemini, chain[1].Provider)
	assert.Equal(t, ProviderClaude, chain[2].Provider)
}

func TestGenerateWithTruncationRetry(t *testing.T) {
	t.Run("doubles budget once", func(t *testing.T) {
		c := newFake(ProviderClaude, truncated("{\"a\":"), reply(`{"a":1}`))
		out, err := GenerateWithTruncationRetry(context.Background(), c, Input{MaxTokens: 1000})
		require.NoError(t, err)
		assert.Equal(t, `{"a":1}`, out.Text)
		require.Len(t, c.calls, 2)
		assert.Equal(t, 2000, c.calls[1].MaxTokens)
	})

	t.Run("caps at model maximum and returns partial", func(t *testing.T) {
		c := newFake(ProviderClaude, truncated("ab"), truncated("abcd"))
		c.maxOut = 1500
		out, err := GenerateWithTruncationRetry(context.Background(), c, Input{MaxTokens: 1000})
		require.NoError(t, err)
		assert.True(t, out.Truncated)
		assert.Equal(t, "abcd", out.Text)
		assert.Equal(t, 1500, c.calls[1].MaxTokens)
		assert.Len(t, c.calls, 2)
	})

	t.Run("no retry at cap", func(t *testing.T) {
		c := newFake(ProviderClaude, truncated("ab"))
		c.maxOut = 1000
		out, err := GenerateWithTruncationRetry(context.Background(), c, Input{MaxTokens: 1000})
		require.NoError(t, err)
		assert.True(t, out.Truncated)
		assert.Len(t, c.calls, 1)
	})

	t.Run("failed retry keeps the partial", func(t *testing.T) {
		c := newFake(ProviderClaude, truncated("ab"), fail(500))
		out, err := GenerateWithTruncationRetry(context.Background(), c, Input{MaxTokens: 100})
		require.NoError(t, err)
		assert.Equal(t, "ab", out.Text)
	})
}
