package orchestrator

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"sitegen/internal/ai"
	"sitegen/internal/planner"
)

const foundationPhase = "foundation"

// foundationSections are generated together and must succeed
var foundationSections = []string{planner.Navigation, planner.Hero, planner.Footer}

// GeneratePage assembles a page phase by phase. The foundation phase is tried
// across distinct providers and aborts the request when every try fails; the
// remaining sections run one at a time, each with one fallback provider, and
// only add to the warning when they fail.
func (e *Engine) GeneratePage(ctx context.Context, req Request) (*Response, error) {
	s, err := e.prepare(ctx, req, planner.ModeFull)
	if err != nil {
		return nil, err
	}
	defer e.observe("page", s.started)
	s.rc.UseLayouts(s.tokens.Layout)

	brief := designBrief(s.prompt, s.intent, s.tokens, "")
	norm := e.normalizer(s, "", s.rc.Seed)
	seen := map[string]bool{}

	found, failure := e.foundation(ctx, s, unit{
		name:       foundationPhase,
		sections:   foundationSections,
		user:       sectionsPrompt(brief, foundationSections, nil),
		maxTokens:  e.cfg.MaxTokens,
		normalizer: norm,
		seen:       seen,
	})
	if failure != nil {
		s.log.Error("foundation phase failed", zap.String("reason", failure.Message))
		e.recordPhase(foundationPhase, "failed")
		resp := e.respond(s)
		resp.Error = failure
		resp.FailedPhases = []string{foundationPhase}
		return resp, nil
	}
	e.recordPhase(foundationPhase, "ok")

	var failed []string
	done := make([]string, 0, len(s.plan))
	byType := make(map[string]SectionResult, len(s.plan))
	for _, sec := range found {
		byType[sec.SectionType] = sec
		done = append(done, sec.SectionType)
	}
	for _, want := range foundationSections {
		if _, ok := byType[want]; !ok {
			failed = append(failed, want)
		}
	}

	preferred := e.preferred(req.Provider, 0)
	var middle []SectionResult
	for _, section := range s.plan {
		if slices.Contains(foundationSections, section) {
			continue
		}
		if err := e.sleep(ctx, e.cfg.PhaseDelay); err != nil {
			failed = append(failed, section)
			continue
		}
		r := e.phase(ctx, s, unit{
			name:       section,
			sections:   []string{section},
			chain:      e.phaseChain(s, preferred),
			user:       sectionsPrompt(brief, []string{section}, done),
			maxTokens:  e.cfg.MaxTokens,
			normalizer: norm,
			seen:       seen,
		})
		if r.failure != nil || len(r.sections) == 0 {
			reason := "no section returned"
			if r.failure != nil {
				reason = r.failure.Error()
			}
			s.log.Warn("phase failed", zap.String("phase", section), zap.String("reason", reason))
			e.recordPhase(section, "failed")
			failed = append(failed, section)
			continue
		}
		e.recordPhase(section, "ok")
		middle = append(middle, r.sections[0])
		done = append(done, section)
	}

	resp := e.respond(s)
	resp.Success = true
	for _, t := range []string{planner.Navigation, planner.Hero} {
		if sec, ok := byType[t]; ok {
			resp.Sections = append(resp.Sections, sec)
		}
	}
	resp.Sections = append(resp.Sections, middle...)
	if sec, ok := byType[planner.Footer]; ok {
		resp.Sections = append(resp.Sections, sec)
	}
	resp.FailedPhases = failed
	if len(failed) > 0 {
		resp.Warning = "Some sections failed to generate: " + strings.Join(failed, ", ")
	}
	return resp, nil
}

// foundation tries u on up to FoundationAttempts distinct providers, each
// as a single-candidate chain
func (e *Engine) foundation(ctx context.Context, s *session, u unit) ([]SectionResult, *Failure) {
	tried := map[ai.Provider]bool{}
	var attempts []string
	attemptsMax := max(e.cfg.FoundationAttempts, 1)

	for i := 0; i < attemptsMax; i++ {
		cand, ok := e.nextCandidate(s, tried)
		if !ok {
			break
		}
		tried[cand.Provider] = true
		u.chain = []ai.Candidate{cand}

		r := e.run(ctx, s, u)
		if r.failure == nil && len(r.sections) > 0 {
			return r.sections, nil
		}
		switch {
		case r.failure == nil:
			attempts = append(attempts, fmt.Sprintf("%s=%s", cand, FailureParse))
		case len(r.failure.Attempts) > 0:
			attempts = append(attempts, r.failure.Attempts...)
		default:
			attempts = append(attempts, fmt.Sprintf("%s=%s", cand, r.failure.Kind))
		}
		if ctx.Err() != nil {
			break
		}
	}

	msg := "foundation phase failed: no provider available"
	if len(attempts) > 0 {
		msg = fmt.Sprintf("foundation phase failed on %d provider(s): %s", len(tried), strings.Join(attempts, ", "))
	}
	return nil, &Failure{Kind: FailureRequiredPhase, Message: msg, Attempts: attempts}
}

// phaseChain is the preferred provider plus one fallback, both still alive
func (e *Engine) phaseChain(s *session, preferred ai.Provider) []ai.Candidate {
	chain := make([]ai.Candidate, 0, 2)
	for _, c := range e.router.Chain(preferred, s.req.Model) {
		if s.rc.IsDead(c.Provider) {
			continue
		}
		chain = append(chain, c)
		if len(chain) == 2 {
			break
		}
	}
	return chain
}

// phase runs u over its chain. A provider that answers with nothing usable
// counts as failed, so the fallback still gets its turn.
func (e *Engine) phase(ctx context.Context, s *session, u unit) unitResult {
	r := e.run(ctx, s, u)
	if r.failure == nil && len(r.sections) > 0 {
		return r
	}
	// an empty provider means the router already went through the whole chain
	if r.provider == "" || ctx.Err() != nil || len(u.chain) < 2 || r.provider != u.chain[0].Provider {
		return r
	}
	if s.rc.IsDead(u.chain[1].Provider) {
		return r
	}
	s.log.Info("phase reply unusable, trying fallback",
		zap.String("phase", u.name),
		zap.String("provider", string(r.provider)),
		zap.String("fallback", string(u.chain[1].Provider)),
	)
	u.chain = u.chain[1:]
	return e.run(ctx, s, u)
}

// nextCandidate returns the first chain entry not yet tried and not dead
func (e *Engine) nextCandidate(s *session, tried map[ai.Provider]bool) (ai.Candidate, bool) {
	for _, c := range e.router.Chain(e.preferred(s.req.Provider, 0), s.req.Model) {
		if !tried[c.Provider] && !s.rc.IsDead(c.Provider) {
			return c, true
		}
	}
	return ai.Candidate{}, false
}

func (e *Engine) recordPhase(phase, result string) {
	if e.metrics != nil {
		e.metrics.RecordPhase(phase, result)
	}
}

func (e *Engine) observe(mode string, started time.Time) {
	if e.metrics != nil {
		e.metrics.RecordGeneration(mode, time.Since(started))
	}
}
