// Package design produces the shared palette, type scale, spacing and layout
// vocabulary that keeps one request's sections visually cohesive.
package design

import (
	"fmt"
	"regexp"
	"strings"
)

// Source records which strategy produced a token set
type Source string

const (
	SourceAI         Source = "ai"
	SourceProcedural Source = "procedural"
	SourceCaller     Source = "caller"
)

// Palette maps color roles to hex values
type Palette struct {
	Background string `json:"background"`
	Surface    string `json:"surface"`
	Text       string `json:"text"`
	Primary    string `json:"primary"`
	Accent     string `json:"accent"`
	Muted      string `json:"muted"`
	Contrast   string `json:"contrast"`
}

// TypeScale is font families plus pixel sizes
type TypeScale struct {
	Name        string  `json:"name"`
	HeadingFont string  `json:"headingFont"`
	BodyFont    string  `json:"bodyFont"`
	H1          float64 `json:"h1"`
	H2          float64 `json:"h2"`
	H3          float64 `json:"h3"`
	Body        float64 `json:"body"`
	Small       float64 `json:"small"`
}

// SpacingScale is section padding, block spacing and inter-item gap in pixels
type SpacingScale struct {
	Name    string  `json:"name"`
	Section float64 `json:"section"`
	Block   float64 `json:"block"`
	Gap     float64 `json:"gap"`
}

// RadiusScale is corner radii in pixels
type RadiusScale struct {
	Name   string  `json:"name"`
	Small  float64 `json:"small"`
	Medium float64 `json:"medium"`
	Large  float64 `json:"large"`
}

// Tokens is the immutable design vocabulary chosen for one request
type Tokens struct {
	Mood       string       `json:"mood"`
	Colors     Palette      `json:"colors"`
	Typography TypeScale    `json:"typography"`
	Spacing    SpacingScale `json:"spacing"`
	Radius     RadiusScale  `json:"radius"`
	Layout     string       `json:"layout"`
	Effect     string       `json:"effect"`
	Source     Source       `json:"source"`
}

var hexPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Validate reports the first malformed field
func (t Tokens) Validate() error {
	for role, value := range t.Colors.roles() {
		if !hexPattern.MatchString(value) {
			return fmt.Errorf("color %s: invalid hex %q", role, value)
		}
	}
	if t.Typography.H1 <= 0 || t.Typography.Body <= 0 {
		return fmt.Errorf("typography scale must be positive")
	}
	if t.Spacing.Gap < 0 || t.Spacing.Section <= 0 {
		return fmt.Errorf("spacing scale must be positive")
	}
	if t.Layout == "" {
		return fmt.Errorf("layout strategy is required")
	}
	return nil
}

func (p Palette) roles() map[string]string {
	return map[string]string{
		"background": p.Background,
		"surface":    p.Surface,
		"text":       p.Text,
		"primary":    p.Primary,
		"accent":     p.Accent,
		"muted":      p.Muted,
		"contrast":   p.Contrast,
	}
}

// WithLocked overlays caller-locked tokens field by field; zero fields in locked are ignored
func (t Tokens) WithLocked(locked *Tokens) Tokens {
	if locked == nil {
		return t
	}
	out := t
	overlay := func(dst *string, src string) {
		if strings.TrimSpace(src) != "" {
			*dst = src
		}
	}
	overlayNum := func(dst *float64, src float64) {
		if src > 0 {
			*dst = src
		}
	}

	overlay(&out.Mood, locked.Mood)
	overlay(&out.Layout, locked.Layout)
	overlay(&out.Effect, locked.Effect)

	overlay(&out.Colors.Background, locked.Colors.Background)
	overlay(&out.Colors.Surface, locked.Colors.Surface)
	overlay(&out.Colors.Text, locked.Colors.Text)
	overlay(&out.Colors.Primary, locked.Colors.Primary)
	overlay(&out.Colors.Accent, locked.Colors.Accent)
	overlay(&out.Colors.Muted, locked.Colors.Muted)
	overlay(&out.Colors.Contrast, locked.Colors.Contrast)

	overlay(&out.Typography.Name, locked.Typography.Name)
	overlay(&out.Typography.HeadingFont, locked.Typography.HeadingFont)
	overlay(&out.Typography.BodyFont, locked.Typography.BodyFont)
	overlayNum(&out.Typography.H1, locked.Typography.H1)
	overlayNum(&out.Typography.H2, locked.Typography.H2)
	overlayNum(&out.Typography.H3, locked.Typography.H3)
	overlayNum(&out.Typography.Body, locked.Typography.Body)
	overlayNum(&out.Typography.Small, locked.Typography.Small)

	overlay(&out.Spacing.Name, locked.Spacing.Name)
	overlayNum(&out.Spacing.Section, locked.Spacing.Section)
	overlayNum(&out.Spacing.Block, locked.Spacing.Block)
	overlayNum(&out.Spacing.Gap, locked.Spacing.Gap)

	overlay(&out.Radius.Name, locked.Radius.Name)
	overlayNum(&out.Radius.Small, locked.Radius.Small)
	overlayNum(&out.Radius.Medium, locked.Radius.Medium)
	overlayNum(&out.Radius.Large, locked.Radius.Large)
	return out
}

// Describe renders the tokens as prompt instructions
func (t Tokens) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Mood: %s. Layout strategy: %s. Visual effect: %s.\n", t.Mood, t.Layout, t.Effect)
	fmt.Fprintf(&b, "Colors: background %s, surface %s, text %s, primary %s, accent %s, muted %s, contrast %s.\n",
		t.Colors.Background, t.Colors.Surface, t.Colors.Text, t.Colors.Primary, t.Colors.Accent, t.Colors.Muted, t.Colors.Contrast)
	fmt.Fprintf(&b, "Typography: headings %q, body %q; sizes h1 %.0fpx, h2 %.0fpx, h3 %.0fpx, body %.0fpx, small %.0fpx.\n",
		t.Typography.HeadingFont, t.Typography.BodyFont, t.Typography.H1, t.Typography.H2, t.Typography.H3, t.Typography.Body, t.Typography.Small)
	fmt.Fprintf(&b, "Spacing: section padding %.0fpx, block spacing %.0fpx, gap %.0fpx. Corner radius: small %.0fpx, medium %.0fpx, large %.0fpx.",
		t.Spacing.Section, t.Spacing.Block, t.Spacing.Gap, t.Radius.Small, t.Radius.Medium, t.Radius.Large)
	return b.String()
}
