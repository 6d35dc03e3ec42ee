package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"sitegen/internal/ai"
	"sitegen/internal/normalize"
	"sitegen/internal/parser"
	"sitegen/internal/planner"
	"sitegen/internal/tree"
)

// unit is one model call expected to produce the listed sections
type unit struct {
	name       string
	sections   []string
	chain      []ai.Candidate
	user       string
	maxTokens  int
	normalizer *normalize.Normalizer
	// seen keeps node ids unique across every unit of one generation
	seen map[string]bool
}

type unitResult struct {
	sections    []SectionResult
	name        string
	description string
	provider    ai.Provider
	model       string
	truncated   bool
	failure     *Failure
}

// run sends the unit through router, parser, normalizer and image filling
func (e *Engine) run(ctx context.Context, s *session, u unit) unitResult {
	res, err := e.router.Generate(ctx, s.rc, ai.Call{
		System:      sectionSystem,
		User:        u.user,
		MaxTokens:   u.maxTokens,
		Temperature: e.cfg.Temperature,
		Timeout:     e.cfg.PhaseTimeout,
	}, u.chain)
	if err != nil {
		return unitResult{failure: chainFailure(err)}
	}
	e.recordTokens(res)

	out := unitResult{
		provider:  res.Candidate.Provider,
		model:     res.Model,
		truncated: res.Truncated,
	}
	doc := e.parser.ParseSections(res.Text)
	out.name, out.description = doc.Name, doc.Description
	if len(doc.Sections) == 0 {
		out.failure = &Failure{
			Kind:    FailureParse,
			Message: fmt.Sprintf("%s reply for %s could not be parsed", res.Candidate.Provider, u.name),
		}
		return out
	}

	for i, sec := range assign(doc.Sections, u.sections) {
		root := u.normalizer.Normalize(sec.Type, sec.Root)
		e.images.Fill(ctx, s.rc, sec.Type, s.intent.Industry, root)
		tree.EnsureIDs(root, sec.Type, u.seen)
		if e.metrics != nil {
			e.metrics.RecordSectionSize(root.Count())
		}
		s.log.Debug("section generated",
			zap.String("unit", u.name),
			zap.Int("index", i),
			zap.String("section", sec.Type),
			zap.String("provider", string(res.Candidate.Provider)),
		)
		out.sections = append(out.sections, SectionResult{
			SectionType: sec.Type,
			Component:   root,
			Provider:    res.Candidate.Provider,
			Model:       res.Model,
		})
	}
	return out
}

// assign gives each parsed section its planned type. Sections whose own type
// names a planned section keep it; the rest take unclaimed planned types in
// order. Duplicates of an already claimed type are dropped.
func assign(parsed []parser.Section, planned []string) []parser.Section {
	claimed := make(map[string]bool, len(planned))
	want := make(map[string]bool, len(planned))
	for _, p := range planned {
		want[p] = true
	}

	types := make([]string, len(parsed))
	for i, sec := range parsed {
		if id, ok := planner.Canonical(sec.Type); ok && want[id] && !claimed[id] {
			types[i] = id
			claimed[id] = true
		}
	}
	next := 0
	for i := range parsed {
		if types[i] != "" {
			continue
		}
		for next < len(planned) && claimed[planned[next]] {
			next++
		}
		if next == len(planned) {
			break
		}
		types[i] = planned[next]
		claimed[planned[next]] = true
	}

	var out []parser.Section
	for i, sec := range parsed {
		if types[i] == "" {
			continue
		}
		sec.Type = types[i]
		out = append(out, sec)
	}
	rank := make(map[string]int, len(planned))
	for i, p := range planned {
		rank[p] = i
	}
	sort.SliceStable(out, func(i, j int) bool { return rank[out[i].Type] < rank[out[j].Type] })
	return out
}

// chainFailure turns a router error into a Failure naming every attempt
func chainFailure(err error) *Failure {
	var chainErr *ai.ChainError
	if !errors.As(err, &chainErr) {
		return &Failure{Kind: kindOf(ai.Classify(err)), Message: err.Error()}
	}
	f := &Failure{Kind: kindOf(chainErr.Outcome()), Message: chainErr.Error()}
	for _, a := range chainErr.Attempts {
		if a.Skipped {
			f.Attempts = append(f.Attempts, a.Candidate.String()+"=DEAD")
			continue
		}
		f.Attempts = append(f.Attempts, fmt.Sprintf("%s=%s", a.Candidate, a.Outcome))
	}
	return f
}
