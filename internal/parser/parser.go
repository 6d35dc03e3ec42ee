// Package parser recovers structured output from model text that may be fenced,
// wrapped in prose, truncated or otherwise malformed.
package parser

import (
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Stage records which recovery step produced a result
type Stage int

const (
	StageEmpty Stage = iota
	StageDirect
	StageBalanced
	StageExtracted
	StageSalvaged
)

func (s Stage) String() string {
	switch s {
	case StageDirect:
		return "direct"
	case StageBalanced:
		return "balanced"
	case StageExtracted:
		return "extracted"
	case StageSalvaged:
		return "salvaged"
	}
	return "empty"
}

// DefaultFields are the keys searched when the whole document cannot be recovered
var DefaultFields = []string{"sections", "steps", "components", "component"}

// maxCutAttempts bounds how many trailing cut points balancing tries
const maxCutAttempts = 8

// Result is the outcome of Parse. Value is nil only for StageEmpty.
type Result struct {
	Value any
	Stage Stage
	// Dropped counts salvaged array elements that failed to parse
	Dropped int
}

// Empty reports whether nothing could be recovered
func (r Result) Empty() bool {
	return r.Stage == StageEmpty
}

// StageObserver receives the stage of every parse
type StageObserver interface {
	ObserveParseStage(stage string)
}

// Parser is safe for concurrent use
type Parser struct {
	fields   []string
	log      *zap.Logger
	observer StageObserver
}

// Option configures a Parser
type Option func(*Parser)

// WithFields overrides the fields of interest searched by extraction and salvage
func WithFields(fields ...string) Option {
	return func(p *Parser) { p.fields = fields }
}

// WithLogger sets the logger
func WithLogger(log *zap.Logger) Option {
	return func(p *Parser) { p.log = log }
}

// WithObserver reports each parse stage, typically to metrics
func WithObserver(o StageObserver) Option {
	return func(p *Parser) { p.observer = o }
}

// New creates a parser
func New(opts ...Option) *Parser {
	p := &Parser{fields: DefaultFields, log: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse never panics; unrecoverable text yields an empty result
func (p *Parser) Parse(raw string) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Warn("parser recovered from panic", zap.Any("panic", r))
			res = Result{Stage: StageEmpty}
		}
		if p.observer != nil {
			p.observer.ObserveParseStage(res.Stage.String())
		}
	}()

	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Result{Stage: StageEmpty}
	}
	if v, ok := strict(trimmed); ok {
		return Result{Value: v, Stage: StageDirect}
	}

	text := stripProse(stripFences(stripReasoning(trimmed)))
	text = removeTrailingCommas(text)
	if v, ok := strict(text); ok {
		return Result{Value: v, Stage: StageDirect}
	}

	text = removeTrailingCommas(preclean(text))
	if v, ok := strict(text); ok {
		return Result{Value: v, Stage: StageDirect}
	}

	if v, ok := p.balance(text); ok {
		return Result{Value: v, Stage: StageBalanced}
	}

	for _, field := range p.fields {
		at := fieldValueStart(text, field)
		if at < 0 {
			continue
		}
		sub := text[at:]
		if end := matchingClose(sub, 0); end >= 0 {
			if v, ok := strict(sub[:end+1]); ok {
				return Result{Value: map[string]any{field: v}, Stage: StageExtracted}
			}
			continue
		}
		if v, ok := p.balance(sub); ok {
			return Result{Value: map[string]any{field: v}, Stage: StageExtracted}
		}
	}

	if strings.HasPrefix(text, "[") {
		if items, dropped := salvage(text, 0); len(items) > 0 {
			return Result{Value: items, Stage: StageSalvaged, Dropped: dropped}
		}
	}
	for _, field := range p.fields {
		at := fieldValueStart(text, field)
		if at < 0 || text[at] != '[' {
			continue
		}
		if items, dropped := salvage(text, at); len(items) > 0 {
			return Result{Value: map[string]any{field: items}, Stage: StageSalvaged, Dropped: dropped}
		}
	}

	p.log.Debug("parser exhausted all stages", zap.Int("length", len(raw)))
	return Result{Stage: StageEmpty}
}

func strict(s string) (any, bool) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}
	return v, true
}

// balance closes unbalanced brackets, first on the whole text and then at the
// last cut points, trimming whatever incomplete fragment trails them. Atomic cuts
// win unless they leave the fields of interest empty; then cuts that keep the
// complete members of a partial element are tried, shallowest first.
func (p *Parser) balance(s string) (any, bool) {
	cuts, pending, safeAtEnd := scanStructure(s)
	if pending == "" {
		return nil, false
	}

	whole := strings.TrimRightFunc(s, isSpace)
	if safeAtEnd {
		switch lastSignificant(whole) {
		case ',', ':', '{', '[':
		default:
			if v, ok := strict(removeTrailingCommas(whole + pending)); ok {
				return v, true
			}
		}
	}

	deepest := 0
	for _, c := range cuts {
		deepest = max(deepest, c.nested)
	}

	var fallback any
	found := false
	for level := 0; level <= deepest; level++ {
		tried := 0
		for i := len(cuts) - 1; i >= 0 && tried < maxCutAttempts; i-- {
			c := cuts[i]
			if c.nested != level {
				continue
			}
			tried++
			v, ok := strict(removeTrailingCommas(s[:c.at] + c.closers))
			if !ok {
				continue
			}
			if !p.hollow(v) {
				return v, true
			}
			if !found {
				fallback, found = v, true
			}
			break
		}
	}
	return fallback, found
}

// hollow reports a value whose list of interest came back empty
func (p *Parser) hollow(v any) bool {
	switch t := v.(type) {
	case []any:
		return len(t) == 0
	case map[string]any:
		for _, f := range p.fields {
			if list, ok := t[f].([]any); ok && len(list) == 0 {
				return true
			}
		}
	}
	return false
}

// salvage parses the complete objects of the array opening at s[at] one by one
func salvage(s string, at int) ([]any, int) {
	var items []any
	dropped := 0
	for _, element := range splitTopLevelObjects(s, at) {
		v, ok := strict(removeTrailingCommas(element))
		if !ok {
			dropped++
			continue
		}
		items = append(items, v)
	}
	return items, dropped
}

// MustObject is a helper for callers that need the recovered value as an object
func MustObject(r Result) (map[string]any, error) {
	if r.Empty() {
		return nil, fmt.Errorf("no structured content recovered")
	}
	obj, ok := r.Value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected object, got %T", r.Value)
	}
	return obj, nil
}
