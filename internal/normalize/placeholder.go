package normalize

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"sitegen/internal/tree"
)

var denyExact = map[string]bool{
	"": true, "text": true, "title": true, "heading": true, "subheading": true,
	"subtitle": true, "button": true, "link": true, "label": true, "click here": true,
	"company": true, "company name": true, "your company": true, "brand": true,
	"brand name": true, "logo": true, "your logo": true, "description": true,
	"content": true, "tbd": true, "todo": true, "xxx": true, "n/a": true, "cta": true,
	"body text": true, "paragraph": true, "headline": true, "tagline": true,
}

var denyContains = []string{
	"lorem ipsum", "ipsum dolor", "dolor sit amet", "your text here", "text goes here",
	"placeholder", "insert text", "insert your", "sample text", "dummy text", "{{", "}}",
	"add your", "describe your",
}

var denyPattern = regexp.MustCompile(`^(feature|item|service|link|nav item|menu item|title|heading|button|card|step|plan|testimonial|question|answer|section)\s*#?\d+$`)

// IsPlaceholder reports whether copy is generator filler
func IsPlaceholder(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	if denyExact[t] || denyPattern.MatchString(t) {
		return true
	}
	for _, d := range denyContains {
		if strings.Contains(t, d) {
			return true
		}
	}
	return false
}

var copyPools = map[Role][]string{
	RoleNavLink:         {"Home", "Features", "Pricing", "About", "Contact", "Blog"},
	RolePrimaryButton:   {"Get started", "Start free trial", "Book a demo", "Join today", "Try it free"},
	RoleSecondaryButton: {"Learn more", "See how it works", "View pricing", "Contact sales"},
	RoleLink:            {"Learn more", "Read the story", "See the details"},
	RoleHeading: {
		"Built for the way you work",
		"Designed to grow with you",
		"Simple tools for serious results",
		"Made for people who care about craft",
		"Everything in one place",
	},
	RoleSubheading: {
		"Thoughtful details that make every day easier.",
		"Start in minutes and scale when you are ready.",
		"Trusted by teams who ship with confidence.",
	},
	RoleBadge: {"New", "Popular", "Featured", "Limited"},
	RoleStat:  {"10k+", "98%", "24/7", "4.9/5"},
	RoleBody: {
		"Everything is set up for you, so you can focus on the work that matters.",
		"Clear pricing, friendly support and tools that simply get out of the way.",
		"Join a growing community that relies on us every single day.",
		"We sweat the small details so your experience feels effortless.",
	},
}

var (
	brandSuffixes = []string{"Co", "Studio", "Labs", "Collective", "Works"}
	brandNames    = []string{"Northwind", "Lumen", "Evergreen", "Atlas", "Brightside"}
)

// placeholderPass replaces filler copy with pool entries chosen by the request
// seed. Navigation links take consecutive pool entries so a nav bar never
// shows the same label twice.
func placeholderPass(root *tree.Node, env *Env) {
	index := 0
	navLinks := 0
	navBase := pick(env.Seed, len(copyPools[RoleNavLink]), env.Section, "nav")

	walkScoped(root, env.Section, func(n *tree.Node, s Scope, role Role) {
		index++
		if !n.Type.TextBearing() || n.Type == tree.TypeInput {
			return
		}
		key, text, ok := n.Props.Text()
		if !ok {
			if n.Type == tree.TypeText {
				return
			}
			key, text = "text", ""
		}
		if !IsPlaceholder(text) {
			return
		}

		var replacement string
		switch {
		case role == RoleLogo:
			replacement = brand(env)
		case role == RoleNavLink:
			pool := copyPools[RoleNavLink]
			replacement = pool[(navBase+navLinks)%len(pool)]
			navLinks++
		default:
			pool, ok := copyPools[role]
			if !ok {
				pool = copyPools[fallbackRole(n.Type)]
			}
			replacement = pool[pick(env.Seed, len(pool), env.Section, strconv.Itoa(index), string(role))]
		}
		n.Props[key] = tree.Str(replacement)
	})
}

func fallbackRole(t tree.NodeType) Role {
	switch t {
	case tree.TypeHeading:
		return RoleHeading
	case tree.TypeButton:
		return RolePrimaryButton
	case tree.TypeLink:
		return RoleLink
	}
	return RoleBody
}

func brand(env *Env) string {
	if env.Brand != "" {
		return env.Brand
	}
	industry := strings.TrimSpace(env.Industry)
	if industry == "" || industry == "general" {
		return brandNames[pick(env.Seed, len(brandNames), "brand")]
	}
	// a Caser is stateful, so one per call
	return cases.Title(language.English).String(industry) + " " + brandSuffixes[pick(env.Seed, len(brandSuffixes), "brand", industry)]
}
