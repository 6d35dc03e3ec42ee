package normalize

import (
	"regexp"
	"strings"

	"sitegen/internal/tree"
)

// Role is the semantic job of a node. Role names double as the closed
// class-name vocabulary.
type Role string

const (
	RoleNone            Role = ""
	RoleSection         Role = "section"
	RoleContainer       Role = "container"
	RoleRow             Role = "row"
	RoleColumn          Role = "column"
	RoleGrid            Role = "grid"
	RoleCard            Role = "card"
	RoleFeatureCard     Role = "card-feature"
	RolePricingCard     Role = "card-pricing"
	RoleTestimonialCard Role = "card-testimonial"
	RoleNav             Role = "nav"
	RoleNavLink         Role = "nav-link"
	RoleLogo            Role = "logo"
	RoleHero            Role = "hero"
	RoleFooter          Role = "footer"
	RoleHeading         Role = "heading"
	RoleSubheading      Role = "subheading"
	RoleBody            Role = "body"
	RoleBadge           Role = "badge"
	RoleStat            Role = "stat"
	RolePrimaryButton   Role = "button-primary"
	RoleSecondaryButton Role = "button-secondary"
	RoleLink            Role = "link"
	RoleImage           Role = "image"
	RoleAvatar          Role = "avatar"
	RoleIcon            Role = "icon"
	RoleIconBox         Role = "icon-box"
	RoleList            Role = "list"
	RoleForm            Role = "form"
	RoleInput           Role = "input"
	RoleDivider         Role = "divider"
)

var vocabulary = map[Role]bool{
	RoleSection: true, RoleContainer: true, RoleRow: true, RoleColumn: true, RoleGrid: true,
	RoleCard: true, RoleFeatureCard: true, RolePricingCard: true, RoleTestimonialCard: true,
	RoleNav: true, RoleNavLink: true, RoleLogo: true, RoleHero: true, RoleFooter: true,
	RoleHeading: true, RoleSubheading: true, RoleBody: true, RoleBadge: true, RoleStat: true,
	RolePrimaryButton: true, RoleSecondaryButton: true, RoleLink: true, RoleImage: true,
	RoleAvatar: true, RoleIcon: true, RoleIconBox: true, RoleList: true, RoleForm: true,
	RoleInput: true, RoleDivider: true,
}

// IsCard reports whether r is any card variant
func (r Role) IsCard() bool {
	return r == RoleCard || strings.HasPrefix(string(r), "card-")
}

// IsButton reports whether r is a button variant
func (r Role) IsButton() bool {
	return r == RolePrimaryButton || r == RoleSecondaryButton
}

// Scope is what Classify knows about a node's surroundings
type Scope struct {
	Section string
	InNav   bool
	InCard  bool
	Root    bool
}

// Enter returns the scope children of n inherit, given n's role
func (s Scope) Enter(r Role) Scope {
	next := Scope{Section: s.Section, InNav: s.InNav, InCard: s.InCard}
	if r == RoleNav {
		next.InNav = true
	}
	if r.IsCard() {
		next.InCard = true
	}
	return next
}

// Classify guesses a node's role. An explicit "role" prop wins, then the
// node's canonical class name, then structural heuristics.
func Classify(n *tree.Node, s Scope) Role {
	if raw, ok := n.Props.String("role"); ok {
		if r := canonicalClass(raw); r != RoleNone {
			return r
		}
	}
	if raw, ok := n.Props.String("className"); ok {
		if classes := canonicalClasses(raw); len(classes) > 0 {
			return classes[0]
		}
	}
	return guessRole(n, s)
}

var tokenSplit = regexp.MustCompile(`[^a-z]+`)

// hints are the lowercase words in a node's id and original type label
func hints(n *tree.Node) map[string]bool {
	words := map[string]bool{}
	label := n.ID + " " + n.Props.StringOr("originalType", "") + " " + n.Props.StringOr("variant", "")
	for _, w := range tokenSplit.Split(strings.ToLower(label), -1) {
		if w != "" {
			words[w] = true
		}
	}
	return words
}

func hasAny(words map[string]bool, keys ...string) bool {
	for _, k := range keys {
		if words[k] {
			return true
		}
	}
	return false
}

func guessRole(n *tree.Node, s Scope) Role {
	words := hints(n)

	switch n.Type {
	case tree.TypeIcon:
		return RoleIcon
	case tree.TypeImage:
		switch {
		case hasAny(words, "logo", "brand"):
			return RoleLogo
		case hasAny(words, "avatar", "headshot", "portrait"):
			return RoleAvatar
		}
		return RoleImage
	case tree.TypeButton:
		if hasAny(words, "secondary", "outline", "ghost") {
			return RoleSecondaryButton
		}
		return RolePrimaryButton
	case tree.TypeLink:
		switch {
		case hasAny(words, "logo", "brand"):
			return RoleLogo
		case s.InNav:
			return RoleNavLink
		}
		return RoleLink
	case tree.TypeHeading:
		switch {
		case hasAny(words, "logo", "brand"):
			return RoleLogo
		case hasAny(words, "subheading", "subtitle", "tagline", "eyebrow"):
			return RoleSubheading
		}
		return RoleHeading
	case tree.TypeText:
		switch {
		case hasAny(words, "logo", "brand"):
			return RoleLogo
		case hasAny(words, "badge", "eyebrow", "tag", "pill", "label"):
			return RoleBadge
		case hasAny(words, "subtitle", "subheading", "tagline", "lead"):
			return RoleSubheading
		case hasAny(words, "stat", "metric", "number", "figure"):
			return RoleStat
		case s.InNav && hasAny(words, "link", "item"):
			return RoleNavLink
		}
		return RoleBody
	case tree.TypeInput:
		return RoleInput
	case tree.TypeList:
		return RoleList
	}

	// containers, sections and unknown types
	switch {
	case s.Root && n.Type == tree.TypeSection:
		return sectionRole(s.Section)
	case hasAny(words, "footer"):
		return RoleFooter
	case hasAny(words, "hero", "jumbotron"):
		return RoleHero
	case hasAny(words, "nav", "navbar", "navigation", "menu", "header") && !s.InNav:
		return RoleNav
	case hasAny(words, "divider", "separator", "hr"):
		return RoleDivider
	case hasAny(words, "form"):
		return RoleForm
	case isIconBox(n):
		return RoleIconBox
	case hasAny(words, "card", "tile", "plan", "tier", "testimonial", "quote", "review") && !s.InCard:
		return cardRole(s.Section)
	case hasAny(words, "stat", "metric"):
		return RoleStat
	case hasAny(words, "grid") || n.Props.StringOr("display", "") == "grid":
		return RoleGrid
	case hasAny(words, "row"):
		return RoleRow
	case hasAny(words, "column", "col"):
		return RoleColumn
	case s.Root:
		return sectionRole(s.Section)
	case looksLikeCard(n) && !s.InCard:
		return cardRole(s.Section)
	case n.Props.StringOr("display", "") == "flex":
		if dir := n.Props.StringOr("flexDirection", "row"); strings.HasPrefix(dir, "column") {
			return RoleColumn
		}
		return RoleRow
	}
	return RoleContainer
}

func sectionRole(section string) Role {
	switch section {
	case "navigation":
		return RoleNav
	case "hero":
		return RoleHero
	case "footer":
		return RoleFooter
	}
	return RoleSection
}

func cardRole(section string) Role {
	switch section {
	case "features":
		return RoleFeatureCard
	case "pricing":
		return RolePricingCard
	case "testimonials":
		return RoleTestimonialCard
	}
	return RoleCard
}

// looksLikeCard is a surface with padding and a visible edge or fill
func looksLikeCard(n *tree.Node) bool {
	if len(n.Children) == 0 || !n.Props.Has("padding") {
		return false
	}
	return n.Props.Has("backgroundColor") || n.Props.Has("boxShadow") || n.Props.Has("border") || n.Props.Has("borderRadius")
}

func isIconBox(n *tree.Node) bool {
	if len(n.Children) != 1 || n.Children[0].Type != tree.TypeIcon {
		return false
	}
	w, ok := n.Props.Number("width")
	return !ok || w <= 96
}
