package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"sitegen/internal/design"
)

func TestPlan_ExplicitSingleSection(t *testing.T) {
	tests := []struct {
		prompt string
		want   []string
	}{
		{"create a pricing section", []string{Pricing}},
		{"Add an FAQ section for my bakery", []string{FAQ}},
		{"make a testimonials block with three quotes", []string{Testimonials}},
		{"design a call to action section", []string{CTA}},
	}

	for _, tt := range tests {
		t.Run(tt.prompt, func(t *testing.T) {
			assert.Equal(t, tt.want, Plan(tt.prompt, nil, Options{Mode: ModeFull}))
		})
	}
}

func TestPlan_LandingPageWithoutIntentUsesDefaults(t *testing.T) {
	plan := Plan("build a landing page for a fitness app", nil, Options{Mode: ModeFull})

	assert.Equal(t, []string{Navigation, Hero, Features, CTA}, plan)
	assert.LessOrEqual(t, len(plan), CapFull)
}

func TestPlan_LowConfidenceIntentUnionsDefaults(t *testing.T) {
	intent := &design.Intent{SectionTypes: []string{"pricing", "Team"}, Confidence: 0.2}
	plan := Plan("a site for my gym with reviews", intent, Options{Mode: ModeFull})

	assert.Equal(t, []string{Navigation, Hero, Features, Team, Testimonials, Pricing, CTA}, plan)
}

func TestPlan_ConfidentIntentSkipsDefaults(t *testing.T) {
	intent := &design.Intent{SectionTypes: []string{"hero", "pricing", "footer"}, Confidence: 0.9}
	plan := Plan("a site for my studio", intent, Options{Mode: ModeFull})

	assert.Equal(t, []string{Navigation, Hero, Pricing, Footer}, plan)
}

func TestPlan_CapsKeepNavigationFirstAndFooterLast(t *testing.T) {
	prompt := "landing page with hero, logos, features, about, stats, gallery, team, testimonials, pricing, faq, contact and footer"

	full := Plan(prompt, nil, Options{Mode: ModeFull})
	assert.Len(t, full, CapFull)
	assert.Equal(t, Navigation, full[0])
	assert.Equal(t, Footer, full[len(full)-1])

	single := Plan(prompt, nil, Options{Mode: ModeSingle})
	assert.Len(t, single, CapSingle)
	assert.Equal(t, Navigation, single[0])
	assert.Equal(t, Footer, single[len(single)-1])
}

func TestPlan_NoNavigationWithoutHero(t *testing.T) {
	intent := &design.Intent{SectionTypes: []string{"pricing", "faq"}, Confidence: 0.95}
	plan := Plan("membership page", intent, Options{Mode: ModeFull})

	assert.Equal(t, []string{Pricing, FAQ}, plan)
}

func TestPlan_HintAndOverride(t *testing.T) {
	assert.Equal(t, []string{Pricing}, Plan("anything at all", nil, Options{Hint: "Pricing Section"}))

	override := Plan("ignored", nil, Options{Mode: ModeFull, Override: []string{"footer", "hero", "reviews", "bogus"}})
	assert.Equal(t, []string{Navigation, Hero, Testimonials, Footer}, override)
}

func TestHints_MatchesWholeWordsAndPhrases(t *testing.T) {
	assert.Equal(t, []string{Hero, CTA}, Hints("hero then a call to action"))
	assert.Equal(t, []string{About}, Hints("a landing page about nothing in particular"))
	assert.Empty(t, Hints("seamless branding"))
}

func TestCanonical(t *testing.T) {
	id, ok := Canonical("Testimonials")
	assert.True(t, ok)
	assert.Equal(t, Testimonials, id)

	id, ok = Canonical("navbar")
	assert.True(t, ok)
	assert.Equal(t, Navigation, id)

	_, ok = Canonical("carousel")
	assert.False(t, ok)
}
