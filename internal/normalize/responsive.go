package normalize

import (
	"math"
	"strings"

	"sitegen/internal/tree"
)

const (
	mobileMaxPadding = 24
	mobileMinHeading = 28
	mobileScale      = 0.7
)

// responsivePass fills the "mobile" override map with narrow-screen defaults.
// Values the generator already put in "mobile" are never overwritten.
func responsivePass(root *tree.Node, _ *Env) {
	tree.Walk(root, func(n *tree.Node) bool {
		defaults := mobileDefaults(n.Props, len(n.Children))
		if len(defaults) == 0 {
			return true
		}
		mobile, ok := n.Props.Map("mobile")
		if !ok {
			if n.Props.Has("mobile") {
				// a non-map "mobile" prop is the generator's own choice
				return true
			}
			mobile = tree.Map{}
		}
		for _, k := range defaults.Keys() {
			if _, exists := mobile[k]; !exists {
				mobile[k] = defaults[k]
			}
		}
		n.Props["mobile"] = mobile
		return true
	})
}

func mobileDefaults(p tree.Props, children int) tree.Map {
	out := tree.Map{}

	display := p.StringOr("display", "")
	dir := p.StringOr("flexDirection", "")
	if children > 1 && (dir == "row" || (display == "flex" && dir == "")) {
		out["flexDirection"] = tree.Str("column")
	}
	if cols, ok := p.String("gridTemplateColumns"); ok && strings.TrimSpace(cols) != "1fr" {
		out["gridTemplateColumns"] = tree.Str("1fr")
	}
	if size, ok := p.Number("fontSize"); ok && size > 40 {
		out["fontSize"] = tree.Num(math.Max(mobileMinHeading, math.Round(size*mobileScale)))
	}
	if pad, ok := p["padding"].(tree.Spacing); ok && (pad.Left > mobileMaxPadding || pad.Right > mobileMaxPadding) {
		pad.Left = math.Min(pad.Left, mobileMaxPadding)
		pad.Right = math.Min(pad.Right, mobileMaxPadding)
		out["padding"] = pad
	}
	if w, ok := p.Number("width"); ok && w > 480 {
		out["width"] = tree.Str("100%")
	}
	return out
}
