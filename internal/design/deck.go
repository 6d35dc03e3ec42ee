package design

import (
	"math/rand"
)

// Seed is one draw from every procedural catalog
type Seed struct {
	Index      int          `json:"index"`
	Mood       string       `json:"mood"`
	Palette    Palette      `json:"palette"`
	Layout     string       `json:"layout"`
	Typography TypeScale    `json:"typography"`
	Density    SpacingScale `json:"density"`
	Radius     RadiusScale  `json:"radius"`
	Effect     string       `json:"effect"`
}

// Tokens turns the seed into a procedural token set
func (s Seed) Tokens() Tokens {
	return Tokens{
		Mood:       s.Mood,
		Colors:     s.Palette,
		Typography: s.Typography,
		Spacing:    s.Density,
		Radius:     s.Radius,
		Layout:     s.Layout,
		Effect:     s.Effect,
		Source:     SourceProcedural,
	}
}

// Deck holds every catalog shuffled once for a request. Draw i takes entry i
// (mod catalog length) of each, so draws within one request do not collide until
// a catalog is exhausted.
type Deck struct {
	moods      []mood
	layouts    []string
	typeScales []TypeScale
	densities  []SpacingScale
	radii      []RadiusScale
	effects    []string
}

// NewDeck shuffles the catalogs from seed. Layouts named in used are moved to the
// back so a follow-up request prefers layouts it has not seen.
func NewDeck(seed int64, used []string) *Deck {
	rng := rand.New(rand.NewSource(seed))
	d := &Deck{
		moods:      shuffled(rng, moods),
		layouts:    shuffled(rng, layouts),
		typeScales: shuffled(rng, typeScales),
		densities:  shuffled(rng, densities),
		radii:      shuffled(rng, radii),
		effects:    shuffled(rng, effects),
	}
	d.layouts = deprioritize(d.layouts, used)
	return d
}

// Draw returns the i-th seed of the deck
func (d *Deck) Draw(i int) Seed {
	if i < 0 {
		i = -i
	}
	m := d.moods[i%len(d.moods)]
	return Seed{
		Index:      i,
		Mood:       m.Name,
		Palette:    m.Palette,
		Layout:     d.layouts[i%len(d.layouts)],
		Typography: d.typeScales[i%len(d.typeScales)],
		Density:    d.densities[i%len(d.densities)],
		Radius:     d.radii[i%len(d.radii)],
		Effect:     d.effects[i%len(d.effects)],
	}
}

// Layout returns the layout strategy for draw i without building a full seed
func (d *Deck) Layout(i int) string {
	return d.Draw(i).Layout
}

func shuffled[T any](rng *rand.Rand, in []T) []T {
	out := append([]T(nil), in...)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

func deprioritize(order, used []string) []string {
	if len(used) == 0 {
		return order
	}
	seen := make(map[string]bool, len(used))
	for _, u := range used {
		seen[u] = true
	}
	fresh := make([]string, 0, len(order))
	stale := make([]string, 0, len(used))
	for _, name := range order {
		if seen[name] {
			stale = append(stale, name)
		} else {
			fresh = append(fresh, name)
		}
	}
	return append(fresh, stale...)
}
