// Package orchestrator composes the provider router, the parser, the
// normalizer and image filling into page and variant generation.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"sitegen/internal/ai"
	"sitegen/internal/cache"
	"sitegen/internal/design"
	"sitegen/internal/images"
	"sitegen/internal/normalize"
	"sitegen/internal/parser"
	"sitegen/internal/planner"
	"sitegen/internal/reqctx"
)

// largePlanCutoff separates plans retried with fewer sections from plans
// retried with a doubled token budget
const largePlanCutoff = 4

// Config tunes generation
type Config struct {
	MaxTokens          int
	Temperature        float64
	PhaseTimeout       time.Duration
	PhaseDelay         time.Duration
	FoundationAttempts int
	DefaultVariants    int
	MaxVariants        int
	VariantConcurrency int
	// AIDesign asks a provider for intent and tokens before falling back to the deck
	AIDesign bool
}

// DefaultConfig returns production defaults
func DefaultConfig() Config {
	return Config{
		MaxTokens:          8000,
		Temperature:        0.7,
		PhaseTimeout:       90 * time.Second,
		PhaseDelay:         1500 * time.Millisecond,
		FoundationAttempts: 3,
		DefaultVariants:    3,
		MaxVariants:        5,
		VariantConcurrency: 3,
		AIDesign:           true,
	}
}

// Metrics receives generation outcomes
type Metrics interface {
	RecordPhase(phase, result string)
	RecordVariant(result string)
	RecordGeneration(mode string, d time.Duration)
	RecordSectionSize(nodes int)
	RecordTokens(p ai.Provider, tokens int)
}

// Cache is the subset of the cache layer used for intent reuse
type Cache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// Engine runs generations. It holds no per-request state and is safe for
// concurrent use.
type Engine struct {
	router  *ai.Router
	parser  *parser.Parser
	images  *images.Service
	cache   Cache
	prefix  string
	ttl     time.Duration
	metrics Metrics
	log     *zap.Logger
	cfg     Config
	sleep   func(ctx context.Context, d time.Duration) error
}

// Option configures an Engine
type Option func(*Engine)

func WithParser(p *parser.Parser) Option { return func(e *Engine) { e.parser = p } }

func WithImages(s *images.Service) Option { return func(e *Engine) { e.images = s } }

func WithMetrics(m Metrics) Option { return func(e *Engine) { e.metrics = m } }

func WithLogger(l *zap.Logger) Option { return func(e *Engine) { e.log = l } }

// WithIntentCache reuses extracted intents across requests with the same prompt
func WithIntentCache(c Cache, prefix string, ttl time.Duration) Option {
	return func(e *Engine) { e.cache, e.prefix, e.ttl = c, prefix, ttl }
}

// WithSleep replaces the inter-phase wait, used by tests
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(e *Engine) { e.sleep = fn }
}

// New creates an engine over router
func New(router *ai.Router, cfg Config, opts ...Option) *Engine {
	e := &Engine{
		router: router,
		cfg:    cfg,
		log:    zap.NewNop(),
		sleep:  sleepCtx,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.parser == nil {
		e.parser = parser.New(parser.WithLogger(e.log))
	}
	if e.images == nil {
		e.images = images.NewService(nil, images.WithLogger(e.log))
	}
	e.log = e.log.Named("orchestrator")
	return e
}

// session is the resolved state of one request
type session struct {
	req     Request
	prompt  string
	rc      *reqctx.Context
	intent  design.Intent
	tokens  design.Tokens
	plan    []string
	started time.Time
	log     *zap.Logger
}

// Plan resolves intent and the section plan without generating anything
func (e *Engine) Plan(ctx context.Context, req Request, mode planner.Mode) (*Response, error) {
	s, err := e.prepare(ctx, req, mode)
	if err != nil {
		return nil, err
	}
	resp := e.respond(s)
	resp.Success = true
	return resp, nil
}

func (e *Engine) prepare(ctx context.Context, req Request, mode planner.Mode) (*session, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}
	if len(e.router.Providers()) == 0 {
		return nil, ErrNoProviders
	}

	rc := reqctx.New(req.Seed)
	for category, urls := range req.Images {
		rc.SetImages(category, urls)
	}
	s := &session{
		req:     req,
		prompt:  prompt,
		rc:      rc,
		started: time.Now(),
		log:     e.log.With(zap.String("request_id", rc.ID)),
	}

	intent := req.Intent
	if intent == nil {
		intent = e.cachedIntent(ctx, prompt)
	}
	var completer design.Completer
	if e.cfg.AIDesign {
		completer = &routerCompleter{engine: e, rc: rc, preferred: e.preferred(req.Provider, 0), temperature: e.cfg.Temperature}
	}
	synth := design.NewSynthesizer(completer, e.parser, s.log)
	s.intent, s.tokens = synth.Resolve(ctx, design.ResolveInput{
		Prompt:      prompt,
		Intent:      intent,
		Tokens:      req.Tokens,
		Locked:      req.LockedTokens,
		Seed:        rc.Seed,
		UsedLayouts: req.UsedLayouts,
	})
	if intent == nil {
		e.storeIntent(ctx, prompt, s.intent)
	}

	rc.UseLayouts(req.UsedLayouts...)
	rc.SetDesign(s.intent, s.tokens)
	s.plan = planner.Plan(prompt, &s.intent, planner.Options{
		Mode:     mode,
		Hint:     req.SectionType,
		Override: req.SectionPlan,
	})
	return s, nil
}

func (e *Engine) cachedIntent(ctx context.Context, prompt string) *design.Intent {
	if e.cache == nil {
		return nil
	}
	var intent design.Intent
	if err := e.cache.GetJSON(ctx, cache.IntentKey(e.prefix, prompt), &intent); err != nil || intent.Industry == "" {
		return nil
	}
	return &intent
}

func (e *Engine) storeIntent(ctx context.Context, prompt string, intent design.Intent) {
	if e.cache == nil || intent.Industry == "" {
		return
	}
	if err := e.cache.SetJSON(ctx, cache.IntentKey(e.prefix, prompt), intent, e.ttl); err != nil {
		e.log.Debug("intent cache write failed", zap.Error(err))
	}
}

// respond echoes the reusable request state
func (e *Engine) respond(s *session) *Response {
	intent, tokens := s.intent, s.tokens
	return &Response{
		RequestID:   s.rc.ID,
		Intent:      &intent,
		Tokens:      &tokens,
		Images:      s.rc.ImageCatalog(),
		SectionPlan: s.plan,
		UsedLayouts: s.rc.UsedLayouts(),
	}
}

// preferred returns the provider unit i should start with: the caller's
// choice rotated by i through the available providers.
func (e *Engine) preferred(label string, i int) ai.Provider {
	available := e.router.Providers()
	if len(available) == 0 {
		return ""
	}
	start := 0
	if p, ok := ai.ParseProvider(strings.ToLower(strings.TrimSpace(label))); ok {
		for k, candidate := range available {
			if candidate == p {
				start = k
				break
			}
		}
	}
	return available[(start+i)%len(available)]
}

func (e *Engine) normalizer(s *session, layout string, seed int64) *normalize.Normalizer {
	tokens := s.tokens
	if layout != "" {
		tokens.Layout = layout
	}
	return normalize.New(normalize.Options{
		Tokens:   tokens,
		Seed:     seed,
		Industry: s.intent.Industry,
		Brand:    s.req.Brand,
	}, s.log)
}

// routerCompleter lets the design synthesizer use the request's fallback chain
type routerCompleter struct {
	engine      *Engine
	rc          *reqctx.Context
	preferred   ai.Provider
	temperature float64
}

func (c *routerCompleter) Complete(ctx context.Context, system, user string, maxTokens int) (string, error) {
	r := c.engine.router
	res, err := r.Generate(ctx, c.rc, ai.Call{
		System:      system,
		User:        user,
		MaxTokens:   maxTokens,
		Temperature: c.temperature,
		Timeout:     c.engine.cfg.PhaseTimeout,
	}, r.Chain(c.preferred, ""))
	if err != nil {
		return "", fmt.Errorf("design completion: %w", err)
	}
	c.engine.recordTokens(res)
	return res.Text, nil
}

func (e *Engine) recordTokens(res *ai.Result) {
	if e.metrics != nil && res != nil {
		e.metrics.RecordTokens(res.Candidate.Provider, res.Usage.TotalTokens)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
