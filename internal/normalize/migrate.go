package normalize

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"sitegen/internal/tree"
)

// groupKeys hold nested style maps that are flattened onto the node
var groupKeys = []string{"style", "styles", "css", "layout", "typography", "spacing", "colors"}

var keyAliases = map[string]string{
	"bg":               "backgroundColor",
	"bgColor":          "backgroundColor",
	"backgroundColour": "backgroundColor",
	"textColor":        "color",
	"fontColor":        "color",
	"foreground":       "color",
	"colour":           "color",
	"class":            "className",
	"classname":        "className",
	"cssClass":         "className",
	"radius":           "borderRadius",
	"rounded":          "borderRadius",
	"shadow":           "boxShadow",
	"direction":        "flexDirection",
	"wrap":             "flexWrap",
	"justify":          "justifyContent",
}

var colorKeys = map[string]bool{
	"backgroundColor": true, "color": true, "borderColor": true, "fill": true,
	"stroke": true, "iconColor": true, "accentColor": true,
}

var numericKeys = map[string]bool{
	"fontSize": true, "fontWeight": true, "lineHeight": true, "letterSpacing": true,
	"width": true, "height": true, "minWidth": true, "maxWidth": true, "minHeight": true,
	"maxHeight": true, "gap": true, "rowGap": true, "columnGap": true, "borderRadius": true,
	"borderWidth": true, "opacity": true, "size": true, "flexGrow": true, "flexShrink": true,
	"zIndex": true, "level": true,
}

var spacingKeys = []string{"padding", "margin"}

var pxPattern = regexp.MustCompile(`^-?\d+(?:\.\d+)?(?:px)?$`)

// migratePass moves legacy prop shapes onto the typed form every later pass
// expects: flat camelCase keys, Num sizes, Color colors and Spacing boxes.
func migratePass(root *tree.Node, _ *Env) {
	tree.Walk(root, func(n *tree.Node) bool {
		if n.Props == nil {
			n.Props = tree.Props{}
		}
		flattenGroups(n.Props)
		migrateProps(n.Props)
		if n.Type == tree.TypeImage {
			for _, k := range []string{"url", "imageUrl", "imageURL", "image", "source"} {
				if s, ok := n.Props.String(k); ok {
					n.Props.SetDefault("src", tree.Str(s))
					delete(n.Props, k)
				}
			}
		}
		if mobile, ok := n.Props.Map("mobile"); ok {
			migrateProps(tree.Props(mobile))
		}
		return true
	})
}

func flattenGroups(p tree.Props) {
	for _, g := range groupKeys {
		group, ok := p.Map(g)
		if !ok {
			continue
		}
		delete(p, g)
		for _, k := range group.Keys() {
			p.SetDefault(k, group[k])
		}
	}
}

func migrateProps(p tree.Props) {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		target := camelize(k)
		if alias, ok := keyAliases[target]; ok {
			target = alias
		}
		if target == "background" && isColorValue(p[k]) {
			target = "backgroundColor"
		}
		if target == k {
			continue
		}
		v := p[k]
		delete(p, k)
		p.SetDefault(target, v)
	}

	for k, v := range p {
		switch {
		case colorKeys[k]:
			if s, ok := v.(tree.Str); ok {
				if c, ok := ParseColor(string(s)); ok {
					p[k] = c
				}
			}
		case numericKeys[k]:
			if s, ok := v.(tree.Str); ok {
				if f, ok := parsePx(string(s)); ok {
					p[k] = tree.Num(f)
				}
			}
		}
	}

	for _, k := range spacingKeys {
		foldSides(p, k)
		if box, ok := toSpacing(p[k]); ok {
			p[k] = box
		}
	}
}

// foldSides merges paddingTop, paddingX and friends into one Spacing
func foldSides(p tree.Props, base string) {
	sides := map[string][]int{
		"Top": {0}, "Right": {1}, "Bottom": {2}, "Left": {3},
		"X": {1, 3}, "Y": {0, 2}, "Horizontal": {1, 3}, "Vertical": {0, 2},
	}
	names := make([]string, 0, len(sides))
	for s := range sides {
		names = append(names, s)
	}
	sort.Strings(names)

	var box [4]float64
	if existing, ok := toSpacing(p[base]); ok {
		box = [4]float64{existing.Top, existing.Right, existing.Bottom, existing.Left}
	} else if p.Has(base) {
		return
	}
	found := false
	for _, side := range names {
		key := base + side
		v, ok := p[key]
		if !ok {
			continue
		}
		f, ok := numeric(v)
		if !ok {
			continue
		}
		for _, i := range sides[side] {
			box[i] = f
		}
		delete(p, key)
		found = true
	}
	if found {
		p[base] = tree.Spacing{Top: box[0], Right: box[1], Bottom: box[2], Left: box[3]}
	}
}

// toSpacing accepts a number, a CSS shorthand string, a list of numbers or a
// partial side map
func toSpacing(v tree.Value) (tree.Spacing, bool) {
	switch x := v.(type) {
	case tree.Spacing:
		return x, true
	case tree.Num:
		return tree.Uniform(float64(x)), true
	case tree.Str:
		fields := strings.Fields(string(x))
		vals := make([]float64, 0, len(fields))
		for _, f := range fields {
			n, ok := parsePx(f)
			if !ok {
				return tree.Spacing{}, false
			}
			vals = append(vals, n)
		}
		return shorthand(vals)
	case tree.List:
		vals := make([]float64, 0, len(x))
		for _, item := range x {
			n, ok := numeric(item)
			if !ok {
				return tree.Spacing{}, false
			}
			vals = append(vals, n)
		}
		return shorthand(vals)
	case tree.Map:
		var box tree.Spacing
		found := false
		for k, item := range x {
			n, ok := numeric(item)
			if !ok {
				return tree.Spacing{}, false
			}
			switch strings.ToLower(k) {
			case "top":
				box.Top = n
			case "right":
				box.Right = n
			case "bottom":
				box.Bottom = n
			case "left":
				box.Left = n
			case "x", "horizontal":
				box.Left, box.Right = n, n
			case "y", "vertical":
				box.Top, box.Bottom = n, n
			default:
				return tree.Spacing{}, false
			}
			found = true
		}
		return box, found
	}
	return tree.Spacing{}, false
}

func shorthand(v []float64) (tree.Spacing, bool) {
	switch len(v) {
	case 1:
		return tree.Uniform(v[0]), true
	case 2:
		return tree.Spacing{Top: v[0], Right: v[1], Bottom: v[0], Left: v[1]}, true
	case 3:
		return tree.Spacing{Top: v[0], Right: v[1], Bottom: v[2], Left: v[1]}, true
	case 4:
		return tree.Spacing{Top: v[0], Right: v[1], Bottom: v[2], Left: v[3]}, true
	}
	return tree.Spacing{}, false
}

func isColorValue(v tree.Value) bool {
	switch x := v.(type) {
	case tree.Color:
		return true
	case tree.Str:
		_, ok := ParseColor(string(x))
		return ok
	}
	return false
}

func numeric(v tree.Value) (float64, bool) {
	switch x := v.(type) {
	case tree.Num:
		return float64(x), true
	case tree.Str:
		return parsePx(string(x))
	}
	return 0, false
}

func parsePx(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if !pxPattern.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(s, "px"), 64)
	return f, err == nil
}

// camelize turns kebab and snake keys into camelCase
func camelize(k string) string {
	if !strings.ContainsAny(k, "-_") {
		return k
	}
	parts := strings.FieldsFunc(k, func(r rune) bool { return r == '-' || r == '_' })
	if len(parts) == 0 {
		return k
	}
	var b strings.Builder
	b.WriteString(strings.ToLower(parts[0]))
	for _, part := range parts[1:] {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(strings.ToLower(part[1:]))
	}
	return b.String()
}
