package design

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"sitegen/internal/parser"
)

// Completer sends one instruction pair to a model and returns its raw text
type Completer interface {
	Complete(ctx context.Context, system, user string, maxTokens int) (string, error)
}

const (
	intentMaxTokens = 600
	tokensMaxTokens = 900
)

const intentSystem = `You analyze website requests. Reply with JSON only:
{"industry": string, "mood": string, "keywords": [string], "sectionTypes": [string], "confidence": number between 0 and 1}
sectionTypes uses: navigation, hero, logos, features, about, stats, gallery, team, testimonials, pricing, faq, blog, newsletter, contact, cta, footer.`

const tokensSystem = `You are a brand designer. Reply with JSON only:
{"mood": string, "colors": {"background","surface","text","primary","accent","muted","contrast"} as #RRGGBB hex,
 "typography": {"headingFont","bodyFont","h1","h2","h3","body","small"},
 "spacing": {"section","block","gap"}, "radius": {"small","medium","large"}, "effect": string}
Colors must keep text readable on background.`

// Synthesizer derives intent and tokens with a model, falling back to the procedural deck
type Synthesizer struct {
	completer Completer
	parser    *parser.Parser
	log       *zap.Logger
}

// NewSynthesizer accepts a nil completer, in which case only procedural strategies are used
func NewSynthesizer(c Completer, p *parser.Parser, log *zap.Logger) *Synthesizer {
	if p == nil {
		p = parser.New()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Synthesizer{completer: c, parser: p, log: log.Named("design")}
}

// ExtractIntent asks the model what the prompt is about
func (s *Synthesizer) ExtractIntent(ctx context.Context, prompt string) (Intent, error) {
	if s.completer == nil {
		return Intent{}, fmt.Errorf("intent extraction: no completer configured")
	}
	raw, err := s.completer.Complete(ctx, intentSystem, "Request: "+prompt, intentMaxTokens)
	if err != nil {
		return Intent{}, fmt.Errorf("intent extraction: %w", err)
	}
	obj, err := parser.MustObject(s.parser.Parse(raw))
	if err != nil {
		return Intent{}, fmt.Errorf("intent extraction: %w", err)
	}

	var intent Intent
	if err := remarshal(obj, &intent); err != nil {
		return Intent{}, fmt.Errorf("intent extraction: %w", err)
	}
	if intent.Industry == "" {
		return Intent{}, fmt.Errorf("intent extraction: reply missing industry")
	}
	if intent.Confidence < 0 || intent.Confidence > 1 {
		intent.Confidence = LowConfidence
	}
	return intent, nil
}

// SynthesizeTokens asks the model for a token set and fills gaps from base
func (s *Synthesizer) SynthesizeTokens(ctx context.Context, intent Intent, base Seed) (Tokens, error) {
	if s.completer == nil {
		return Tokens{}, fmt.Errorf("token synthesis: no completer configured")
	}
	user := fmt.Sprintf("Industry: %s\nMood: %s\nKeywords: %s\nLayout strategy: %s",
		intent.Industry, intent.Mood, strings.Join(intent.Keywords, ", "), base.Layout)
	raw, err := s.completer.Complete(ctx, tokensSystem, user, tokensMaxTokens)
	if err != nil {
		return Tokens{}, fmt.Errorf("token synthesis: %w", err)
	}
	obj, err := parser.MustObject(s.parser.Parse(raw))
	if err != nil {
		return Tokens{}, fmt.Errorf("token synthesis: %w", err)
	}

	var proposed Tokens
	if err := remarshal(obj, &proposed); err != nil {
		return Tokens{}, fmt.Errorf("token synthesis: %w", err)
	}
	tokens := base.Tokens().WithLocked(&proposed)
	tokens.Layout = base.Layout
	tokens.Source = SourceAI
	if err := tokens.Validate(); err != nil {
		return Tokens{}, fmt.Errorf("token synthesis: %w", err)
	}
	return tokens, nil
}

// ResolveInput carries whatever the caller already knows
type ResolveInput struct {
	Prompt      string
	Intent      *Intent
	Tokens      *Tokens
	Locked      *Tokens
	Seed        int64
	UsedLayouts []string
}

// Resolve returns the intent and tokens for a request. Cached values are reused,
// model failures fall back to the keyword intent and the procedural deck, and
// locked tokens always win field by field.
func (s *Synthesizer) Resolve(ctx context.Context, in ResolveInput) (Intent, Tokens) {
	var intent Intent
	switch {
	case in.Intent != nil:
		intent = *in.Intent
	default:
		extracted, err := s.ExtractIntent(ctx, in.Prompt)
		if err != nil {
			s.log.Info("falling back to keyword intent", zap.Error(err))
			extracted = LocalIntent(in.Prompt)
		}
		intent = extracted
	}

	var tokens Tokens
	base := NewDeck(in.Seed, in.UsedLayouts).Draw(0)
	switch {
	case in.Tokens != nil:
		tokens = *in.Tokens
	default:
		synthesized, err := s.SynthesizeTokens(ctx, intent, base)
		if err != nil {
			s.log.Info("falling back to procedural tokens", zap.Error(err))
			synthesized = base.Tokens()
		}
		tokens = synthesized
	}
	return intent, tokens.WithLocked(in.Locked)
}

func remarshal(in any, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
