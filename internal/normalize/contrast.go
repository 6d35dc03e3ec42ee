package normalize

import "sitegen/internal/tree"

// contrastPass rewrites text colors that fall below MinContrast against the
// nearest ancestor background. Translucent backgrounds are composited over
// the inherited one; the root inherits the token background.
func contrastPass(root *tree.Node, env *Env) {
	rootBg := tokenColor(env.Tokens.Colors.Background, white)
	defaultText := tokenColor(env.Tokens.Colors.Text, darkText)

	tree.WalkWith(root, rootBg, func(n *tree.Node, inherited tree.Color) tree.Color {
		bg := inherited
		if c, ok := n.Props.Color("backgroundColor"); ok {
			bg = Blend(c, inherited)
		}

		if n.Type.TextBearing() {
			fg := defaultText
			explicit := false
			if c, ok := n.Props.Color("color"); ok {
				fg, explicit = c, true
			}
			if ContrastRatio(Blend(fg, bg), bg) < MinContrast {
				n.Props["color"] = readableOn(bg)
			} else if !explicit && n.Props.Has("backgroundColor") {
				// a filled control must not rely on the inherited text color
				n.Props["color"] = fg
			}
		}
		return bg
	})
}
