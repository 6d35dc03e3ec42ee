package normalize

import (
	"math"
	"strconv"

	"sitegen/internal/tree"
)

const (
	minCardGap          = 24
	minCardWidth        = 260
	minPricingCardWidth = 280
	maxCardsPerRow      = 4
)

// layoutPass keeps card rows from collapsing: wrapping rows, a minimum gap, a
// flex-basis per card count and a card width floor. Pricing cards get a
// higher floor and stretch to equal height.
func layoutPass(root *tree.Node, env *Env) {
	walkScoped(root, env.Section, func(n *tree.Node, s Scope, role Role) {
		display := n.Props.StringOr("display", "")
		isGrid := display == "grid" || role == RoleGrid
		isRow := role == RoleRow || (display == "flex" && n.Props.StringOr("flexDirection", "row") == "row")
		if !isGrid && !isRow {
			return
		}

		inner := s.Enter(role)
		var cards []*tree.Node
		for _, c := range n.Children {
			if Classify(c, inner).IsCard() {
				cards = append(cards, c)
			}
		}
		if len(cards) < 2 {
			return
		}

		gap := float64(minCardGap)
		if g, ok := n.Props.Number("gap"); ok && g > gap {
			gap = g
		}
		n.Props["gap"] = tree.Num(gap)

		floor := float64(minCardWidth)
		pricing := env.Section == "pricing"
		if pricing {
			floor = minPricingCardWidth
			n.Props["alignItems"] = tree.Str("stretch")
		}

		if isRow {
			n.Props["flexWrap"] = tree.Str("wrap")
		}
		perRow := min(len(cards), maxCardsPerRow)
		for _, c := range cards {
			if isRow {
				c.Props["flexBasis"] = tree.Str(flexBasis(perRow, gap))
				c.Props.SetDefault("flexGrow", tree.Num(1))
			}
			if w, ok := c.Props.Number("minWidth"); !ok || w < floor {
				c.Props["minWidth"] = tree.Num(floor)
			}
			if pricing {
				c.Props["alignSelf"] = tree.Str("stretch")
			}
		}
	})
}

// flexBasis splits the row evenly between n cards separated by gap pixels
func flexBasis(n int, gap float64) string {
	if n <= 1 {
		return "100%"
	}
	share := math.Round(100/float64(n)*100) / 100
	gutter := math.Round(gap*float64(n-1)/float64(n)*100) / 100
	return "calc(" + strconv.FormatFloat(share, 'f', -1, 64) + "% - " + strconv.FormatFloat(gutter, 'f', -1, 64) + "px)"
}
