package normalize

import (
	"regexp"
	"strings"

	"sitegen/internal/tree"
)

var classAliases = map[string]Role{
	"btn":             RolePrimaryButton,
	"btn-primary":     RolePrimaryButton,
	"cta":             RolePrimaryButton,
	"cta-button":      RolePrimaryButton,
	"primary-button":  RolePrimaryButton,
	"btn-secondary":   RoleSecondaryButton,
	"btn-outline":     RoleSecondaryButton,
	"btn-ghost":       RoleSecondaryButton,
	"navbar":          RoleNav,
	"navigation":      RoleNav,
	"menu":            RoleNav,
	"nav-item":        RoleNavLink,
	"menu-item":       RoleNavLink,
	"title":           RoleHeading,
	"headline":        RoleHeading,
	"subtitle":        RoleSubheading,
	"tagline":         RoleSubheading,
	"lead":            RoleSubheading,
	"text":            RoleBody,
	"paragraph":       RoleBody,
	"description":     RoleBody,
	"copy":            RoleBody,
	"wrapper":         RoleContainer,
	"inner":           RoleContainer,
	"content":         RoleContainer,
	"feature-card":    RoleFeatureCard,
	"feature":         RoleFeatureCard,
	"pricing-card":    RolePricingCard,
	"plan":            RolePricingCard,
	"price-card":      RolePricingCard,
	"testimonial":     RoleTestimonialCard,
	"review-card":     RoleTestimonialCard,
	"img":             RoleImage,
	"photo":           RoleImage,
	"picture":         RoleImage,
	"icon-wrapper":    RoleIconBox,
	"icon-container":  RoleIconBox,
	"icon-circle":     RoleIconBox,
	"flex-row":        RoleRow,
	"flex-col":        RoleColumn,
	"flex-column":     RoleColumn,
	"col":             RoleColumn,
	"cols":            RoleGrid,
	"columns":         RoleGrid,
	"hr":              RoleDivider,
	"separator":       RoleDivider,
	"eyebrow":         RoleBadge,
	"pill":            RoleBadge,
	"tag":             RoleBadge,
	"statistic":       RoleStat,
	"metric":          RoleStat,
	"brand":           RoleLogo,
	"header":          RoleNav,
	"jumbotron":       RoleHero,
	"container-fluid": RoleContainer,
}

var classPatterns = []struct {
	pattern *regexp.Regexp
	role    Role
}{
	{regexp.MustCompile(`(btn|button).*(secondary|outline|ghost)|(secondary|outline|ghost).*(btn|button)`), RoleSecondaryButton},
	{regexp.MustCompile(`btn|button|cta`), RolePrimaryButton},
	{regexp.MustCompile(`icon.*(box|wrap|container|circle|bg)`), RoleIconBox},
	{regexp.MustCompile(`icon`), RoleIcon},
	{regexp.MustCompile(`pric|plan|tier`), RolePricingCard},
	{regexp.MustCompile(`testimonial|review|quote`), RoleTestimonialCard},
	{regexp.MustCompile(`feature.*card|card.*feature`), RoleFeatureCard},
	{regexp.MustCompile(`card|tile`), RoleCard},
	{regexp.MustCompile(`nav.*(link|item)|menu.*(link|item)`), RoleNavLink},
	{regexp.MustCompile(`nav|menu`), RoleNav},
	{regexp.MustCompile(`footer`), RoleFooter},
	{regexp.MustCompile(`hero|banner`), RoleHero},
	{regexp.MustCompile(`logo|brand`), RoleLogo},
	{regexp.MustCompile(`avatar`), RoleAvatar},
	{regexp.MustCompile(`img|image|photo`), RoleImage},
	{regexp.MustCompile(`sub.*(head|title)`), RoleSubheading},
	{regexp.MustCompile(`head|title`), RoleHeading},
	{regexp.MustCompile(`badge|pill|chip`), RoleBadge},
	{regexp.MustCompile(`stat|metric`), RoleStat},
	{regexp.MustCompile(`grid`), RoleGrid},
	{regexp.MustCompile(`row`), RoleRow},
	{regexp.MustCompile(`form`), RoleForm},
	{regexp.MustCompile(`input|field`), RoleInput},
	{regexp.MustCompile(`divider|separator`), RoleDivider},
}

var numericSuffix = regexp.MustCompile(`[-_]?\d+$`)

// canonicalClass maps one loose class token onto the vocabulary, or RoleNone
func canonicalClass(token string) Role {
	t := strings.ToLower(strings.TrimSpace(token))
	t = strings.ReplaceAll(t, "_", "-")
	t = strings.Trim(numericSuffix.ReplaceAllString(t, ""), "-")
	if t == "" {
		return RoleNone
	}
	if vocabulary[Role(t)] {
		return Role(t)
	}
	if r, ok := classAliases[t]; ok {
		return r
	}
	for _, p := range classPatterns {
		if p.pattern.MatchString(t) {
			return p.role
		}
	}
	return RoleNone
}

// canonicalClasses maps a class attribute onto distinct vocabulary entries,
// keeping input order. Unmappable tokens are dropped.
func canonicalClasses(raw string) []Role {
	var out []Role
	seen := map[Role]bool{}
	for _, tok := range strings.Fields(raw) {
		r := canonicalClass(tok)
		if r == RoleNone || seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}

// classNamePass rewrites every className onto the closed vocabulary. Nodes
// without a usable class get the class of their classified role.
func classNamePass(root *tree.Node, env *Env) {
	walkScoped(root, env.Section, func(n *tree.Node, s Scope, role Role) {
		var classes []Role
		if raw, ok := n.Props.String("className"); ok {
			classes = canonicalClasses(raw)
		}
		if len(classes) == 0 {
			classes = []Role{role}
		}
		parts := make([]string, len(classes))
		for i, c := range classes {
			parts[i] = string(c)
		}
		n.Props["className"] = tree.Str(strings.Join(parts, " "))
	})
}
