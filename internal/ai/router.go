package ai

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DeadSet records providers that failed authentication during one request
type DeadSet interface {
	IsDead(p Provider) bool
	MarkDead(p Provider, reason string)
}

// Recorder receives one observation per attempt and per fallback
type Recorder interface {
	ObserveAttempt(p Provider, outcome Outcome, latency time.Duration)
	ObserveFallback(from Provider, reason Outcome)
}

// Candidate is one entry of a fallback chain
type Candidate struct {
	Provider Provider `json:"provider"`
	Model    string   `json:"model,omitempty"`
	Position int      `json:"position"`
}

func (c Candidate) String() string {
	if c.Model == "" {
		return string(c.Provider)
	}
	return string(c.Provider) + "/" + c.Model
}

// Call is the provider-independent part of a generation
type Call struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float64
	// Timeout bounds each attempt; zero leaves only the parent context
	Timeout time.Duration
}

// Attempt is one classified try of a candidate
type Attempt struct {
	Candidate Candidate
	Outcome   Outcome
	Retry     int
	Skipped   bool
	Err       error
}

// Result is the first successful attempt of a chain
type Result struct {
	Text      string
	Truncated bool
	Candidate Candidate
	Model     string
	Usage     Usage
	Attempts  []Attempt
}

// ChainError is returned when every candidate failed or was skipped
type ChainError struct {
	Attempts []Attempt
}

func (e *ChainError) Error() string {
	if len(e.Attempts) == 0 {
		return "all providers failed: empty chain"
	}
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		if a.Skipped {
			parts = append(parts, a.Candidate.String()+"=DEAD")
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%s", a.Candidate, a.Outcome))
	}
	return "all providers failed: " + strings.Join(parts, ", ")
}

func (e *ChainError) Unwrap() []error {
	var errs []error
	for _, a := range e.Attempts {
		if a.Err != nil {
			errs = append(errs, a.Err)
		}
	}
	return errs
}

// Outcome is the classification of the last real attempt
func (e *ChainError) Outcome() Outcome {
	for i := len(e.Attempts) - 1; i >= 0; i-- {
		if !e.Attempts[i].Skipped {
			return e.Attempts[i].Outcome
		}
	}
	return OutcomeAuth
}

// Router runs fallback chains over the registered clients
type Router struct {
	clients  map[Provider]Client
	order    []Provider
	keys     *KeyPool
	policy   Policy
	log      *zap.Logger
	recorder Recorder
	sleep    func(ctx context.Context, d time.Duration) error

	rngMu sync.Mutex
	rng   *rand.Rand
}

// RouterOption configures a Router
type RouterOption func(*Router)

func WithPolicy(p Policy) RouterOption { return func(r *Router) { r.policy = p } }

func WithRecorder(rec Recorder) RouterOption { return func(r *Router) { r.recorder = rec } }

func WithLogger(l *zap.Logger) RouterOption { return func(r *Router) { r.log = l } }

// WithOrder sets the default fallback order. Providers missing from order are never chained.
func WithOrder(order []Provider) RouterOption {
	return func(r *Router) {
		if len(order) > 0 {
			r.order = append([]Provider(nil), order...)
		}
	}
}

// WithSleep replaces the backoff wait, mostly for tests
func WithSleep(fn func(ctx context.Context, d time.Duration) error) RouterOption {
	return func(r *Router) { r.sleep = fn }
}

// WithSeed makes backoff jitter deterministic
func WithSeed(seed int64) RouterOption {
	return func(r *Router) { r.rng = rand.New(rand.NewSource(seed)) }
}

// NewRouter creates a router over the given clients and credential pool
func NewRouter(clients []Client, keys *KeyPool, opts ...RouterOption) *Router {
	r := &Router{
		clients: make(map[Provider]Client, len(clients)),
		order:   AllProviders,
		keys:    keys,
		policy:  DefaultPolicy(),
		log:     zap.NewNop(),
		sleep:   sleepCtx,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, c := range clients {
		r.clients[c.Provider()] = c
	}
	if r.keys == nil {
		r.keys = NewKeyPool(nil, 0)
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.Named("router")
	return r
}

// Client returns the registered client for p
func (r *Router) Client(p Provider) (Client, bool) {
	c, ok := r.clients[p]
	return c, ok
}

// Available reports whether p is registered and, if it needs one, has a key
func (r *Router) Available(p Provider) bool {
	c, ok := r.clients[p]
	if !ok {
		return false
	}
	return !c.RequiresKey() || r.keys.Size(p) > 0
}

// Providers lists the available providers in default fallback order
func (r *Router) Providers() []Provider {
	var out []Provider
	for _, p := range r.order {
		if r.Available(p) {
			out = append(out, p)
		}
	}
	return out
}

// Chain builds a fallback chain: preferred first (if available), then every
// other available provider in default order.
func (r *Router) Chain(preferred Provider, model string) []Candidate {
	var chain []Candidate
	if preferred != "" && r.Available(preferred) {
		chain = append(chain, Candidate{Provider: preferred, Model: model})
	}
	for _, p := range r.Providers() {
		if p != preferred {
			chain = append(chain, Candidate{Provider: p})
		}
	}
	for i := range chain {
		chain[i].Position = i
	}
	return chain
}

// Usage returns per-provider usage statistics
func (r *Router) Usage() map[Provider]ProviderUsage {
	out := make(map[Provider]ProviderUsage, len(r.clients))
	for p, c := range r.clients {
		out[p] = c.GetUsage()
	}
	return out
}

// Generate walks chain until a candidate succeeds. Dead providers are skipped
// without an attempt. Returns *ChainError when nothing succeeded.
func (r *Router) Generate(ctx context.Context, dead DeadSet, call Call, chain []Candidate) (*Result, error) {
	var attempts []Attempt

	for i, cand := range chain {
		if dead != nil && dead.IsDead(cand.Provider) {
			attempts = append(attempts, Attempt{Candidate: cand, Outcome: OutcomeAuth, Skipped: true})
			continue
		}
		client, ok := r.clients[cand.Provider]
		if !ok {
			attempts = append(attempts, Attempt{
				Candidate: cand,
				Outcome:   OutcomeOther,
				Err:       fmt.Errorf("provider %s is not configured", cand.Provider),
			})
			continue
		}

		tried := map[string]bool{}
		for retry := 0; ; retry++ {
			started := time.Now()
			out, err := r.attempt(ctx, client, cand, call, tried)
			outcome := Classify(err)
			r.observeAttempt(cand.Provider, outcome, time.Since(started))

			if err == nil {
				attempts = append(attempts, Attempt{Candidate: cand, Outcome: OutcomeOK, Retry: retry})
				if out.Truncated {
					attempts[len(attempts)-1].Outcome = OutcomeTruncated
				}
				model := cand.Model
				if model == "" {
					model = client.DefaultModel()
				}
				return &Result{
					Text:      out.Text,
					Truncated: out.Truncated,
					Candidate: cand,
					Model:     model,
					Usage:     out.Usage,
					Attempts:  attempts,
				}, nil
			}

			attempts = append(attempts, Attempt{Candidate: cand, Outcome: outcome, Retry: retry, Err: err})
			r.log.Warn("provider attempt failed",
				zap.String("provider", string(cand.Provider)),
				zap.String("outcome", string(outcome)),
				zap.Int("retry", retry),
				zap.Error(err),
			)
			if ctx.Err() != nil {
				return nil, &ChainError{Attempts: attempts}
			}

			action := r.policy.Action(outcome)
			if action == ActionRetry && retry < r.policy.RateLimitRetries {
				if err := r.sleep(ctx, r.policy.Delay(retry, r.uniform())); err != nil {
					return nil, &ChainError{Attempts: attempts}
				}
				continue
			}
			if action == ActionMarkDead && dead != nil {
				dead.MarkDead(cand.Provider, err.Error())
			}
			if i < len(chain)-1 && r.recorder != nil {
				r.recorder.ObserveFallback(cand.Provider, outcome)
			}
			break
		}
	}
	return nil, &ChainError{Attempts: attempts}
}

func (r *Router) attempt(ctx context.Context, client Client, cand Candidate, call Call, tried map[string]bool) (*Output, error) {
	in := Input{
		Model:       cand.Model,
		System:      call.System,
		User:        call.User,
		MaxTokens:   call.MaxTokens,
		Temperature: call.Temperature,
	}
	if in.MaxTokens <= 0 {
		in.MaxTokens = min(8192, client.MaxOutputTokens())
	}
	if client.RequiresKey() {
		key, ok := r.keys.Pick(cand.Provider, tried)
		if !ok {
			return nil, &ProviderError{Provider: cand.Provider, Outcome: OutcomeAuth, Err: ErrNoCredentials}
		}
		tried[key] = true
		in.APIKey = key
	}

	if call.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, call.Timeout)
		defer cancel()
	}
	out, err := GenerateWithTruncationRetry(ctx, client, in)
	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		return nil, &ProviderError{Provider: cand.Provider, Outcome: OutcomeOther, Message: "timeout", Err: err}
	}
	return out, err
}

func (r *Router) observeAttempt(p Provider, o Outcome, d time.Duration) {
	if r.recorder != nil {
		r.recorder.ObserveAttempt(p, o, d)
	}
}

func (r *Router) uniform() float64 {
	r.rngMu.Lock()
	defer r.rngMu.Unlock()
	return r.rng.Float64()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
