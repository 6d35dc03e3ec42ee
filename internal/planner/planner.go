// Package planner decides which sections a generation produces and in what order.
package planner

import (
	"regexp"
	"sort"
	"strings"

	"sitegen/internal/design"
)

// Section ids in canonical page order
const (
	Navigation   = "navigation"
	Hero         = "hero"
	Logos        = "logos"
	Features     = "features"
	About        = "about"
	Stats        = "stats"
	Gallery      = "gallery"
	Team         = "team"
	Testimonials = "testimonials"
	Pricing      = "pricing"
	FAQ          = "faq"
	Blog         = "blog"
	Newsletter   = "newsletter"
	Contact      = "contact"
	CTA          = "cta"
	Footer       = "footer"
)

var canonicalOrder = []string{
	Navigation, Hero, Logos, Features, About, Stats, Gallery, Team,
	Testimonials, Pricing, FAQ, Blog, Newsletter, Contact, CTA, Footer,
}

var rank = func() map[string]int {
	m := make(map[string]int, len(canonicalOrder))
	for i, s := range canonicalOrder {
		m[s] = i
	}
	return m
}()

// synonyms maps prompt vocabulary onto section ids. Multi-word phrases are matched first.
var synonyms = map[string]string{
	"call to action":   CTA,
	"call-to-action":   CTA,
	"how it works":     Features,
	"frequently asked": FAQ,
	"social proof":     Testimonials,
	"contact form":     Contact,
	"sign up":          Newsletter,
	"navigation":       Navigation,
	"navbar":           Navigation,
	"nav":              Navigation,
	"header":           Navigation,
	"hero":             Hero,
	"banner":           Hero,
	"splash":           Hero,
	"logos":            Logos,
	"logo":             Logos,
	"clients":          Logos,
	"partners":         Logos,
	"features":         Features,
	"feature":          Features,
	"benefits":         Features,
	"services":         Features,
	"about":            About,
	"story":            About,
	"mission":          About,
	"stats":            Stats,
	"statistics":       Stats,
	"numbers":          Stats,
	"metrics":          Stats,
	"gallery":          Gallery,
	"portfolio":        Gallery,
	"showcase":         Gallery,
	"team":             Team,
	"staff":            Team,
	"trainers":         Team,
	"testimonials":     Testimonials,
	"testimonial":      Testimonials,
	"reviews":          Testimonials,
	"pricing":          Pricing,
	"prices":           Pricing,
	"plans":            Pricing,
	"membership":       Pricing,
	"faq":              FAQ,
	"faqs":             FAQ,
	"questions":        FAQ,
	"blog":             Blog,
	"articles":         Blog,
	"news":             Blog,
	"newsletter":       Newsletter,
	"subscribe":        Newsletter,
	"contact":          Contact,
	"cta":              CTA,
	"footer":           Footer,
}

var phraseOrder = func() []string {
	keys := make([]string, 0, len(synonyms))
	for k := range synonyms {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}()

// Mode selects the length cap
type Mode int

const (
	// ModeSingle is one model response, as in variant generation
	ModeSingle Mode = iota
	// ModeFull is sequential multi-phase page assembly
	ModeFull
)

const (
	CapSingle = 5
	CapFull   = 8
)

// Cap returns the maximum plan length for the mode
func (m Mode) Cap() int {
	if m == ModeFull {
		return CapFull
	}
	return CapSingle
}

// DefaultSeed is unioned with hints whenever intent is missing or not confident
var DefaultSeed = []string{Hero, Features, CTA}

// Options tune one planning call
type Options struct {
	Mode Mode
	// Hint is an explicit section type requested by the caller
	Hint string
	// Override replaces planning entirely; entries are canonicalized and capped
	Override []string
}

var (
	singleVerb   = regexp.MustCompile(`\b(create|add|build|make|generate|design|write|give me|need|want)\b`)
	pageWords    = regexp.MustCompile(`\b(page|site|website|landing|homepage|home page|web app|sections)\b`)
	sectionWords = regexp.MustCompile(`\b(section|block|component|area|module)\b`)
)

// Canonical maps a loose section label onto a section id
func Canonical(label string) (string, bool) {
	l := strings.ToLower(strings.TrimSpace(label))
	l = strings.TrimSuffix(strings.TrimSuffix(l, " section"), "-section")
	if _, ok := rank[l]; ok {
		return l, true
	}
	if id, ok := synonyms[l]; ok {
		return id, true
	}
	return "", false
}

// Hints returns the distinct sections the prompt mentions, in order of appearance
func Hints(prompt string) []string {
	lower := " " + strings.ToLower(prompt) + " "
	type hit struct {
		id  string
		pos int
	}
	var hits []hit
	claimed := make([]bool, len(lower))
	for _, phrase := range phraseOrder {
		for start := 0; ; {
			idx := strings.Index(lower[start:], phrase)
			if idx < 0 {
				break
			}
			idx += start
			end := idx + len(phrase)
			start = idx + 1
			if isWordChar(lower[idx-1]) || (end < len(lower) && isWordChar(lower[end])) {
				continue
			}
			if anyClaimed(claimed[idx:end]) {
				continue
			}
			for k := idx; k < end; k++ {
				claimed[k] = true
			}
			hits = append(hits, hit{id: synonyms[phrase], pos: idx})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })

	seen := map[string]bool{}
	var out []string
	for _, h := range hits {
		if !seen[h.id] {
			seen[h.id] = true
			out = append(out, h.id)
		}
	}
	return out
}

// Single reports the one section the prompt explicitly asks for, if any
func Single(prompt string) (string, bool) {
	lower := strings.ToLower(prompt)
	if pageWords.MatchString(lower) || !sectionWords.MatchString(lower) {
		return "", false
	}
	hints := Hints(prompt)
	if len(hints) != 1 {
		return "", false
	}
	if !singleVerb.MatchString(lower) && !strings.HasPrefix(strings.TrimSpace(lower), hints[0]) {
		return "", false
	}
	return hints[0], true
}

// Plan returns the ordered, capped section ids for a prompt
func Plan(prompt string, intent *design.Intent, opts Options) []string {
	limit := opts.Mode.Cap()

	if len(opts.Override) > 0 {
		return finish(canonicalize(opts.Override), limit)
	}
	if opts.Hint != "" {
		if id, ok := Canonical(opts.Hint); ok {
			return []string{id}
		}
	}
	if id, ok := Single(prompt); ok {
		return []string{id}
	}

	sections := Hints(prompt)
	if intent.Confident() && len(intent.SectionTypes) > 0 {
		sections = append(sections, canonicalize(intent.SectionTypes)...)
	} else {
		if intent != nil {
			sections = append(sections, canonicalize(intent.SectionTypes)...)
		}
		sections = append(sections, DefaultSeed...)
	}
	return finish(sections, limit)
}

func canonicalize(labels []string) []string {
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		if id, ok := Canonical(l); ok {
			out = append(out, id)
		}
	}
	return out
}

// finish dedupes, sorts canonically, prepends navigation and applies the cap.
// Navigation stays first and a requested footer survives the cap as the last entry.
func finish(sections []string, limit int) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range sections {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return rank[out[i]] < rank[out[j]] })

	if len(out) > 1 && seen[Hero] && !seen[Navigation] {
		out = append([]string{Navigation}, out...)
	}
	if len(out) <= limit {
		return out
	}
	if seen[Footer] {
		trimmed := append([]string(nil), out[:limit-1]...)
		return append(trimmed, Footer)
	}
	return out[:limit]
}

func anyClaimed(span []bool) bool {
	for _, c := range span {
		if c {
			return true
		}
	}
	return false
}

func isWordChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= '0' && c <= '9'
}
