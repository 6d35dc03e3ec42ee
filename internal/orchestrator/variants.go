package orchestrator

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"sitegen/internal/ai"
	"sitegen/internal/design"
	"sitegen/internal/planner"
)

// variantSeedStride spaces per-variant seeds
const variantSeedStride = 1_000_003

// GenerateVariants runs isolated alternative generations concurrently. With
// VariantIndex set only that variant is generated, so a caller may fan out
// one request per variant. One variant's failure never affects another.
func (e *Engine) GenerateVariants(ctx context.Context, req Request) (*Response, error) {
	indices, err := e.variantIndices(req)
	if err != nil {
		return nil, err
	}
	s, err := e.prepare(ctx, req, planner.ModeSingle)
	if err != nil {
		return nil, err
	}
	defer e.observe("variants", s.started)

	deck := design.NewDeck(s.rc.Seed, req.UsedLayouts)
	layouts := variantLayouts(deck, s.tokens, indices)
	if req.LockedTokens != nil && req.LockedTokens.Layout != "" {
		for i := range layouts {
			layouts[i] = req.LockedTokens.Layout
		}
	}
	s.rc.UseLayouts(layouts...)

	variants := make([]Variant, len(indices))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(e.cfg.VariantConcurrency, 1))
	for k, idx := range indices {
		g.Go(func() error {
			variants[k] = e.variant(gctx, s, idx, layouts[k])
			return nil
		})
	}
	_ = g.Wait()

	resp := e.respond(s)
	resp.Variants = variants
	var reasons []string
	var attempts []string
	for _, v := range variants {
		if len(v.Sections) > 0 {
			resp.Success = true
		}
		if v.Error != nil {
			reasons = append(reasons, v.Error.Error())
			attempts = append(attempts, v.Error.Attempts...)
		}
	}
	if !resp.Success {
		resp.Error = &Failure{
			Kind:     firstKind(variants),
			Message:  "all variants failed: " + strings.Join(reasons, "; "),
			Attempts: attempts,
		}
	} else if len(reasons) > 0 {
		resp.Warning = "Some variants are incomplete: " + strings.Join(reasons, "; ")
	}
	return resp, nil
}

func firstKind(variants []Variant) FailureKind {
	for _, v := range variants {
		if v.Error != nil {
			return v.Error.Kind
		}
	}
	return FailureProvider
}

func (e *Engine) variantIndices(req Request) ([]int, error) {
	limit := max(e.cfg.MaxVariants, 1)
	if req.VariantIndex != nil {
		idx := *req.VariantIndex
		if idx < 0 || idx >= limit {
			return nil, ErrInvalidVariant
		}
		return []int{idx}, nil
	}
	n := req.VariantCount
	if n <= 0 {
		n = e.cfg.DefaultVariants
	}
	n = min(max(n, 1), limit)
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out, nil
}

// variant generates one alternative. A truncated reply or fewer than half the
// planned sections earns exactly one retry: a large plan is retried with fewer
// sections, a small one with twice the token budget.
func (e *Engine) variant(ctx context.Context, s *session, index int, layout string) Variant {
	seed := s.rc.Seed + int64(index)*variantSeedStride
	preferred := e.preferred(s.req.Provider, index)
	model := ""
	if index == 0 || s.req.VariantIndex != nil {
		model = s.req.Model
	}
	brief := designBrief(s.prompt, s.intent, s.tokens, layout)
	u := unit{
		name:       "variant",
		sections:   s.plan,
		chain:      e.router.Chain(preferred, model),
		user:       variantPrompt(brief, s.plan, index),
		maxTokens:  e.cfg.MaxTokens,
		normalizer: e.normalizer(s, layout, seed),
		seen:       map[string]bool{},
	}
	log := s.log.With(zap.Int("variant", index), zap.String("preferred", string(preferred)))

	r := e.run(ctx, s, u)
	retried := false
	if needsRetry(r, len(s.plan)) {
		retried = true
		retry := u
		retry.seen = map[string]bool{}
		if len(s.plan) > largePlanCutoff {
			retry.sections = reducePlan(s.plan)
			retry.user = variantPrompt(brief, retry.sections, index)
		} else {
			retry.maxTokens = e.grownBudget(u.maxTokens, preferred)
		}
		log.Info("retrying variant",
			zap.Bool("truncated", r.truncated),
			zap.Int("parsed", len(r.sections)),
			zap.Int("planned", len(s.plan)),
			zap.Int("sections", len(retry.sections)),
			zap.Int("max_tokens", retry.maxTokens),
		)
		if second := e.run(ctx, s, retry); len(second.sections) >= len(r.sections) {
			r = second
		}
	}

	v := Variant{
		VariantID:    uuid.New().String(),
		Index:        index,
		Name:         r.name,
		Description:  r.description,
		Layout:       layout,
		Sections:     r.sections,
		ProviderUsed: r.provider,
		Model:        r.model,
		Retried:      retried,
		Error:        r.failure,
	}
	if v.Name == "" {
		v.Name = variantName(layout, index)
	}
	if v.Description == "" {
		v.Description = variantDescription(s.intent, layout)
	}
	switch {
	case len(v.Sections) == 0:
		e.recordVariant("failed")
	case r.truncated || len(v.Sections) < len(s.plan):
		v.Partial = true
		if v.Error == nil && len(v.Sections) < half(len(s.plan)) {
			v.Error = &Failure{Kind: FailurePlanMismatch, Message: "far fewer sections than planned"}
		}
		e.recordVariant("partial")
	default:
		e.recordVariant("ok")
	}
	if v.Error != nil {
		log.Warn("variant incomplete", zap.String("kind", string(v.Error.Kind)), zap.String("reason", v.Error.Message))
	}
	return v
}

func needsRetry(r unitResult, planned int) bool {
	if r.failure != nil && r.failure.Kind != FailureParse {
		return false
	}
	return r.truncated || len(r.sections) < half(planned)
}

// half is the rounded-up half of n
func half(n int) int {
	return (n + 1) / 2
}

// reducePlan keeps the first half of the plan, always including hero when planned
func reducePlan(plan []string) []string {
	reduced := append([]string(nil), plan[:half(len(plan))]...)
	for _, s := range plan[half(len(plan)):] {
		if s == planner.Hero {
			reduced = append(reduced, s)
		}
	}
	return reduced
}

// grownBudget doubles the budget, capped at the preferred client's ceiling
func (e *Engine) grownBudget(current int, p ai.Provider) int {
	grown := current * 2
	if c, ok := e.router.Client(p); ok && c.MaxOutputTokens() > 0 {
		grown = min(grown, c.MaxOutputTokens())
	}
	return grown
}

// variantLayouts gives each requested index its own layout: the token layout
// for variant 0, then deck draws skipping layouts already handed out
func variantLayouts(deck *design.Deck, tokens design.Tokens, indices []int) []string {
	var order []string
	seen := map[string]bool{}
	add := func(l string) {
		if l != "" && !seen[l] {
			seen[l] = true
			order = append(order, l)
		}
	}
	add(tokens.Layout)
	for i := range len(design.Layouts()) {
		add(deck.Layout(i))
	}
	out := make([]string, len(indices))
	for k, idx := range indices {
		out[k] = order[idx%len(order)]
	}
	return out
}

func variantName(layout string, index int) string {
	// a Caser is stateful, so one per call
	title := cases.Title(language.English).String(strings.ReplaceAll(layout, "-", " "))
	if title == "" {
		title = "Variant"
	}
	return title + " #" + strconv.Itoa(index+1)
}

func variantDescription(intent design.Intent, layout string) string {
	subject := intent.Industry
	if subject == "" || subject == "general" {
		subject = "the brand"
	}
	return "A " + strings.ReplaceAll(layout, "-", " ") + " take on " + subject + "."
}

func (e *Engine) recordVariant(result string) {
	if e.metrics != nil {
		e.metrics.RecordVariant(result)
	}
}
