package normalize

import (
	"strings"

	"sitegen/internal/tree"
)

const (
	iconBoxSize = 56
	iconSize    = 28
)

// iconNames is the icon vocabulary sibling cards draw distinct icons from
var iconNames = []string{
	"zap", "shield", "users", "bar-chart", "globe", "lock", "rocket", "clock",
	"message-circle", "award", "heart", "cloud", "cpu", "star", "target", "layers",
	"sparkles", "check-circle", "trending-up", "smile",
}

var iconKeywords = []struct {
	words []string
	icon  string
}{
	{[]string{"fast", "speed", "quick", "instant", "performance"}, "zap"},
	{[]string{"secure", "security", "safe", "protect", "protection"}, "shield"},
	{[]string{"team", "community", "people", "collaborat"}, "users"},
	{[]string{"analytic", "data", "insight", "report", "metric"}, "bar-chart"},
	{[]string{"global", "world", "international", "anywhere"}, "globe"},
	{[]string{"privacy", "private", "encrypt"}, "lock"},
	{[]string{"launch", "growth", "scale", "boost"}, "rocket"},
	{[]string{"time", "schedule", "hour", "24/7"}, "clock"},
	{[]string{"support", "chat", "message", "help"}, "message-circle"},
	{[]string{"quality", "award", "best", "premium"}, "award"},
	{[]string{"care", "love", "health", "wellness"}, "heart"},
	{[]string{"cloud", "sync", "backup"}, "cloud"},
	{[]string{" ai ", "smart", "automat", "intelligen"}, "cpu"},
}

// iconPass turns images inside feature cards into an icon in a fixed-size
// box, caps icon boxes at 56px and keeps the icons of sibling cards distinct.
func iconPass(root *tree.Node, env *Env) {
	primary := tokenColor(env.Tokens.Colors.Primary, darkText)
	radius := env.Tokens.Radius.Medium
	if radius <= 0 {
		radius = 12
	}

	walkScoped(root, env.Section, func(n *tree.Node, s Scope, role Role) {
		if role.IsCard() && (role == RoleFeatureCard || env.Section == "features") {
			for i, c := range n.Children {
				if c.Type == tree.TypeImage && Classify(c, s.Enter(role)) == RoleImage {
					n.Children[i] = iconBoxFor(c, cardText(n), primary, radius)
				}
			}
		}
		if role == RoleIconBox {
			capSize(n.Props, "width", iconBoxSize)
			capSize(n.Props, "height", iconBoxSize)
		}
		if n.Type == tree.TypeIcon {
			capSize(n.Props, "size", iconBoxSize)
		}
	})
	// after conversion, so freshly created icons take part
	walkScoped(root, env.Section, func(n *tree.Node, s Scope, role Role) {
		distinctSiblingIcons(n, s.Enter(role))
	})
}

func iconBoxFor(img *tree.Node, context string, primary tree.Color, radius float64) *tree.Node {
	box := tree.New(img.ID, tree.TypeContainer)
	box.Props["role"] = tree.Str(string(RoleIconBox))
	box.Props["width"] = tree.Num(iconBoxSize)
	box.Props["height"] = tree.Num(iconBoxSize)
	box.Props["display"] = tree.Str("flex")
	box.Props["alignItems"] = tree.Str("center")
	box.Props["justifyContent"] = tree.Str("center")
	box.Props["borderRadius"] = tree.Num(radius)
	box.Props["backgroundColor"] = tree.Color{R: primary.R, G: primary.G, B: primary.B, A: 0.12}

	iconID := ""
	if img.ID != "" {
		iconID = img.ID + "-icon"
	}
	icon := tree.New(iconID, tree.TypeIcon)
	hint := img.Props.StringOr("alt", "") + " " + context
	icon.Props["name"] = tree.Str(iconFor(hint, nil))
	icon.Props["size"] = tree.Num(iconSize)
	icon.Props["color"] = primary
	return box.Append(icon)
}

// cardText is the lowercased copy inside a card, used to choose an icon
func cardText(card *tree.Node) string {
	var b strings.Builder
	tree.Walk(card, func(n *tree.Node) bool {
		if _, text, ok := n.Props.Text(); ok {
			b.WriteString(strings.ToLower(text))
			b.WriteByte(' ')
		}
		return true
	})
	return b.String()
}

// iconFor picks a keyword-matched icon not in taken, else the first free one
func iconFor(text string, taken map[string]bool) string {
	lower := " " + strings.ToLower(text) + " "
	for _, k := range iconKeywords {
		if taken[k.icon] {
			continue
		}
		for _, w := range k.words {
			if strings.Contains(lower, w) {
				return k.icon
			}
		}
	}
	for _, name := range iconNames {
		if !taken[name] {
			return name
		}
	}
	return iconNames[0]
}

// distinctSiblingIcons renames repeated icons across the card children of n
func distinctSiblingIcons(n *tree.Node, inner Scope) {
	var icons []*tree.Node
	var texts []string
	for _, c := range n.Children {
		if !Classify(c, inner).IsCard() {
			continue
		}
		if icon := tree.Find(c, func(x *tree.Node) bool { return x.Type == tree.TypeIcon }); icon != nil {
			icons = append(icons, icon)
			texts = append(texts, cardText(c))
		}
	}
	if len(icons) < 2 {
		return
	}

	taken := map[string]bool{}
	var dupes []int
	for i, icon := range icons {
		name := icon.Props.StringOr("name", "")
		if name == "" || taken[name] {
			dupes = append(dupes, i)
			continue
		}
		taken[name] = true
	}
	for _, i := range dupes {
		name := iconFor(texts[i], taken)
		taken[name] = true
		icons[i].Props["name"] = tree.Str(name)
	}
}

func capSize(p tree.Props, key string, ceiling float64) {
	if v, ok := p.Number(key); ok && v > ceiling {
		p[key] = tree.Num(ceiling)
	}
}
