package parser

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_WellFormedMatchesReference(t *testing.T) {
	inputs := []string{
		`{"a":1}`,
		`[1,2,3]`,
		`"just a string"`,
		`42`,
		`{"text":"use ` + "```json```" + ` fences inline","n":[{"x":null}]}`,
		`{"s":"<think>not reasoning</think>"}`,
		`{"q":"“smart” — dash ✓","e":"\u00e9"}`,
		`{"nested":{"deep":[[],{}]},"comma":"a, }"}`,
		"  \n{\"padded\": true}\n  ",
	}

	p := New()
	for i, in := range inputs {
		t.Run(fmt.Sprintf("input_%d", i), func(t *testing.T) {
			var want any
			require.NoError(t, json.Unmarshal([]byte(in), &want))

			res := p.Parse(in)
			assert.Equal(t, StageDirect, res.Stage)
			assert.Equal(t, want, res.Value)
		})
	}
}

func TestParse_StripsWrappers(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want any
	}{
		{
			name: "fenced with prose",
			raw:  "Here is the layout:\n```json\n{\"sections\": []}\n```\nLet me know if you want changes.",
			want: map[string]any{"sections": []any{}},
		},
		{
			name: "reasoning block",
			raw:  "<think>I will emit {a} first</think>\n{\"ok\": true}",
			want: map[string]any{"ok": true},
		},
		{
			name: "trailing commas",
			raw:  `{"a": [1, 2, ], "b": {"c": 3,},}`,
			want: map[string]any{"a": []any{1.0, 2.0}, "b": map[string]any{"c": 3.0}},
		},
		{
			name: "unclosed fence",
			raw:  "```\n[{\"id\": \"x\"}]",
			want: []any{map[string]any{"id": "x"}},
		},
	}

	p := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := p.Parse(tt.raw)
			require.False(t, res.Empty())
			assert.Equal(t, tt.want, res.Value)
		})
	}
}

func TestParse_PrecleanFixesDelimitersAndControlChars(t *testing.T) {
	p := New()

	res := p.Parse("{“title”: “Hello”, \"body\": \"line1\nline2\"}")
	require.False(t, res.Empty())
	assert.Equal(t, map[string]any{"title": "Hello", "body": "line1\nline2"}, res.Value)

	res = p.Parse("{\"text\": \"Fast — reliable ✓ 🚀\tok\x01\"}")
	require.False(t, res.Empty())
	assert.Equal(t, map[string]any{"text": "Fast - reliable + \tok\x01"}, res.Value)

	res = p.Parse(`{"path": "C:\dir", "it": "don\'t"}`)
	require.False(t, res.Empty())
	assert.Equal(t, map[string]any{"path": `C:\dir`, "it": "don't"}, res.Value)
}

func TestParse_TruncationAtBracketBoundaryKeepsCompleteElements(t *testing.T) {
	doc := `{"sections":[` +
		`{"id":"s1","props":{"tags":["a","b"]},"n":1},` +
		`{"id":"s2","props":{"tags":["c"]},"n":2},` +
		`{"id":"s3","props":{"tags":[]},"n":3}]}`

	var ref map[string]any
	require.NoError(t, json.Unmarshal([]byte(doc), &ref))
	refSections := ref["sections"].([]any)

	var ends []int
	for k := 1; k <= 3; k++ {
		marker := fmt.Sprintf(`"n":%d}`, k)
		ends = append(ends, strings.Index(doc, marker)+len(marker))
	}

	p := New()
	for i := 0; i < len(doc); i++ {
		if !strings.ContainsRune("{}[]", rune(doc[i])) {
			continue
		}
		prefix := doc[:i+1]
		res := p.Parse(prefix)
		require.False(t, res.Empty(), "prefix %q", prefix)

		complete := 0
		for _, end := range ends {
			if end <= i+1 {
				complete++
			}
		}
		if complete == 0 {
			continue
		}
		obj, ok := res.Value.(map[string]any)
		require.True(t, ok, "prefix %q", prefix)
		sections, _ := obj["sections"].([]any)
		require.GreaterOrEqual(t, len(sections), complete, "prefix %q", prefix)
		for k := 0; k < complete; k++ {
			assert.Equal(t, refSections[k], sections[k], "prefix %q element %d", prefix, k)
		}
	}
}

func TestParse_TruncatedMidElementDropsOnlyTrailing(t *testing.T) {
	p := New()

	t.Run("bare array", func(t *testing.T) {
		res := p.Parse(`[{"id":"a"},{"id":"b"},{"id":"c","text":"trunc`)
		require.False(t, res.Empty())
		assert.Equal(t, []any{
			map[string]any{"id": "a"},
			map[string]any{"id": "b"},
		}, res.Value)
	})

	t.Run("nested sections", func(t *testing.T) {
		res := p.Parse(`{"sections":[{"id":"a"},{"id":"b","children":[{"id":"b1"}]},{"id":"c","children":[{"id":"c1","text":"hal`)
		require.False(t, res.Empty())
		obj := res.Value.(map[string]any)
		sections := obj["sections"].([]any)
		require.Len(t, sections, 2)
		assert.Equal(t, "a", sections[0].(map[string]any)["id"])
		assert.Equal(t, "b", sections[1].(map[string]any)["id"])
	})

	t.Run("lone element truncated keeps its complete members", func(t *testing.T) {
		res := p.Parse(`[{"id":"a","text":"`)
		require.False(t, res.Empty())
		assert.Equal(t, []any{map[string]any{"id": "a"}}, res.Value)
	})

	t.Run("nothing recoverable stays an empty list", func(t *testing.T) {
		res := p.Parse(`{"sections":[`)
		assert.Equal(t, StageBalanced, res.Stage)
		assert.Equal(t, map[string]any{"sections": []any{}}, res.Value)
	})
}

func TestParse_SalvagesAroundMalformedElement(t *testing.T) {
	p := New()
	res := p.Parse(`[{"id":"a"},{"id":oops},{"id":"c"}]`)

	assert.Equal(t, StageSalvaged, res.Stage)
	assert.Equal(t, 1, res.Dropped)
	assert.Equal(t, []any{
		map[string]any{"id": "a"},
		map[string]any{"id": "c"},
	}, res.Value)
}

func TestParse_ExtractsFieldOfInterest(t *testing.T) {
	p := New()
	res := p.Parse(`{"meta": broken, "sections": [{"id": "hero"}]}`)

	assert.Equal(t, StageExtracted, res.Stage)
	assert.Equal(t, map[string]any{"sections": []any{map[string]any{"id": "hero"}}}, res.Value)
}

func TestParse_EmptyResult(t *testing.T) {
	p := New()
	for _, raw := range []string{"", "   ", "I cannot help with that.", ":::"} {
		res := p.Parse(raw)
		assert.True(t, res.Empty(), "raw %q", raw)
		assert.Nil(t, res.Value)
	}
}

func TestParse_NeverPanics(t *testing.T) {
	p := New()
	doc := `{"sections":[{"id":"hero","text":"say \"hi\" \\ ok","children":[{"type":"button"}]}]}`
	for i := 0; i <= len(doc); i++ {
		prefix := doc[:i]
		assert.NotPanics(t, func() { p.Parse(prefix) })
		assert.NotPanics(t, func() { p.Parse(doc[i:]) })
	}
}

type stageRecorder struct{ stages []string }

func (r *stageRecorder) ObserveParseStage(stage string) { r.stages = append(r.stages, stage) }

func TestParse_ReportsStage(t *testing.T) {
	rec := &stageRecorder{}
	p := New(WithObserver(rec))

	p.Parse(`{"a":1}`)
	p.Parse(`{"a":[1,2`)
	p.Parse(`nothing`)

	assert.Equal(t, []string{"direct", "balanced", "empty"}, rec.stages)
}

func TestParseSections(t *testing.T) {
	p := New()
	doc := p.ParseSections(`Sure! {"name":"Bold","description":"High energy","sections":[
		{"sectionType":"hero","component":{"id":"hero-root","type":"section","children":[]}},
		{"id":"pricing-section","type":"section","children":[{"type":"heading","text":"Plans"}]}
	]}`)

	assert.Equal(t, "Bold", doc.Name)
	assert.Equal(t, "High energy", doc.Description)
	require.Len(t, doc.Sections, 2)
	assert.Equal(t, "hero", doc.Sections[0].Type)
	assert.Equal(t, "hero-root", doc.Sections[0].Root.ID)
	assert.Equal(t, "pricing", doc.Sections[1].Type)
	require.Len(t, doc.Sections[1].Root.Children, 1)
}

func TestParseSections_SingleComponent(t *testing.T) {
	p := New()
	doc := p.ParseSections(`{"sectionType":"faq","component":{"id":"faq","type":"section"}}`)

	require.Len(t, doc.Sections, 1)
	assert.Equal(t, "faq", doc.Sections[0].Type)
}

func TestParseSections_EmptyOnGarbage(t *testing.T) {
	p := New()
	doc := p.ParseSections("the model refused")

	assert.Equal(t, StageEmpty, doc.Stage)
	assert.Empty(t, doc.Sections)
}

func TestParseSections_NameAndDescriptionPlacement(t *testing.T) {
	p := New()
	doc := p.ParseSections(`{"sections":[
		{"sectionType":"features","name":"Grid","description":"Three cards","component":{"type":"section","name":"inner"}},
		{"id":"cta-band","type":"section","name":"Band","description":"Closing call"}
	]}`)

	require.Len(t, doc.Sections, 2)

	wrapped := doc.Sections[0]
	assert.Equal(t, "Grid", wrapped.Name)
	assert.Equal(t, "Three cards", wrapped.Description)
	assert.Equal(t, "inner", wrapped.Root.Props.StringOr("name", ""), "a nested component keeps its own props")

	bare := doc.Sections[1]
	assert.Equal(t, "cta", bare.Type)
	assert.Equal(t, "Band", bare.Name)
	assert.Equal(t, "Closing call", bare.Description)
	assert.False(t, bare.Root.Props.Has("name"))
	assert.False(t, bare.Root.Props.Has("description"))
}

func TestParseSections_TruncatedSingleSectionKeepsCompleteChildren(t *testing.T) {
	p := New()
	doc := p.ParseSections(`{"sections":[{"sectionType":"hero","component":{"type":"section","children":[` +
		`{"type":"heading","props":{"text":"Train smarter"}},` +
		`{"type":"text","props":{"text":"trunc`)

	assert.Equal(t, StageBalanced, doc.Stage)
	require.Len(t, doc.Sections, 1)
	assert.Equal(t, "hero", doc.Sections[0].Type)
	require.Len(t, doc.Sections[0].Root.Children, 1, "the cut-off child is dropped whole")
	assert.Equal(t, "Train smarter", doc.Sections[0].Root.Children[0].Props.StringOr("text", ""))
}
