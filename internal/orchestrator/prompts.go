package orchestrator

import (
	"fmt"
	"strings"

	"sitegen/internal/design"
)

const nodeFormat = `Each component is a JSON node: {"id": string, "type": one of container|section|text|heading|button|link|image|icon|input|list, "props": {...}, "children": [nodes]}.
Put copy in props.text, image URLs in props.src with props.alt, icon names in props.name.
Style props are flat CSS-like keys (backgroundColor, color, padding, gap, display, flexDirection, fontSize, borderRadius) using pixel numbers or hex colors.
Use an explicit props.role where it helps: nav-link, primary-button, secondary-button, feature-card, pricing-card, testimonial-card, icon-box, logo.
Write real, specific copy for the business. Never use lorem ipsum or labels like "Feature 1".`

const sectionSystem = `You are a senior web designer generating website sections as JSON.
Reply with JSON only, no markdown and no commentary:
{"name": short design name, "description": one sentence, "sections": [{"sectionType": string, "component": node}]}
` + nodeFormat

func designBrief(prompt string, intent design.Intent, tokens design.Tokens, layout string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Request: %s\n", prompt)
	if intent.Industry != "" {
		fmt.Fprintf(&b, "Industry: %s. Mood: %s.", intent.Industry, intent.Mood)
		if len(intent.Keywords) > 0 {
			fmt.Fprintf(&b, " Keywords: %s.", strings.Join(intent.Keywords, ", "))
		}
		b.WriteByte('\n')
	}
	t := tokens
	if layout != "" {
		t.Layout = layout
	}
	b.WriteString("Design tokens (use them exactly):\n")
	b.WriteString(t.Describe())
	b.WriteByte('\n')
	return b.String()
}

// sectionsPrompt asks for sections in order within one reply
func sectionsPrompt(brief string, sections []string, done []string) string {
	var b strings.Builder
	b.WriteString(brief)
	fmt.Fprintf(&b, "Generate exactly these sections, in this order: %s.\n", strings.Join(sections, ", "))
	if len(done) > 0 {
		fmt.Fprintf(&b, "Already generated for this page: %s. Match their style and do not repeat their content.\n", strings.Join(done, ", "))
	}
	return b.String()
}

func variantPrompt(brief string, sections []string, index int) string {
	p := sectionsPrompt(brief, sections, nil)
	return p + fmt.Sprintf("This is alternative design #%d. Make its composition clearly different from a conventional layout.\n", index+1)
}
