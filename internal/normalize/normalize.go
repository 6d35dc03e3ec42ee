// Package normalize repairs generated UI trees. Passes run in a fixed order
// and each one is idempotent, so normalizing an already-normalized tree is a
// no-op.
package normalize

import (
	"hash/fnv"
	"strconv"

	"go.uber.org/zap"

	"sitegen/internal/design"
	"sitegen/internal/tree"
)

// Env is what every pass may read about the request
type Env struct {
	Section  string
	Tokens   design.Tokens
	Seed     int64
	Industry string
	Brand    string
}

// Pass is one repair step
type Pass struct {
	Name  string
	Apply func(root *tree.Node, env *Env)
}

// Passes in execution order. Migration must stay first: every later pass
// reads the typed shapes it produces.
var Passes = []Pass{
	{Name: "migrate", Apply: migratePass},
	{Name: "responsive", Apply: responsivePass},
	{Name: "contrast", Apply: contrastPass},
	{Name: "layout", Apply: layoutPass},
	{Name: "icons", Apply: iconPass},
	{Name: "placeholder", Apply: placeholderPass},
	{Name: "classnames", Apply: classNamePass},
}

// Options configure a Normalizer for one request
type Options struct {
	Tokens   design.Tokens
	Seed     int64
	Industry string
	Brand    string
}

// Normalizer applies Passes to section trees
type Normalizer struct {
	opts Options
	log  *zap.Logger
}

// New creates a normalizer. Zero-valued tokens fall back to a neutral light palette.
func New(opts Options, log *zap.Logger) *Normalizer {
	if opts.Tokens.Colors.Background == "" {
		opts.Tokens.Colors.Background = "#FFFFFF"
	}
	if opts.Tokens.Colors.Text == "" {
		opts.Tokens.Colors.Text = "#111827"
	}
	if opts.Tokens.Colors.Primary == "" {
		opts.Tokens.Colors.Primary = "#4F46E5"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Normalizer{opts: opts, log: log.Named("normalize")}
}

// Normalize repairs root in place and returns it. section is the canonical
// section id the tree was generated for.
func (n *Normalizer) Normalize(section string, root *tree.Node) *tree.Node {
	if root == nil {
		return nil
	}
	env := &Env{
		Section:  section,
		Tokens:   n.opts.Tokens,
		Seed:     n.opts.Seed,
		Industry: n.opts.Industry,
		Brand:    n.opts.Brand,
	}
	for _, p := range Passes {
		p.Apply(root, env)
	}
	n.log.Debug("normalized section", zap.String("section", section), zap.Int("nodes", root.Count()))
	return root
}

// walkScoped visits the tree in pre-order with each node's classified role.
// The role is computed before fn runs.
func walkScoped(root *tree.Node, section string, fn func(n *tree.Node, s Scope, role Role)) {
	tree.WalkWith(root, Scope{Section: section, Root: true}, func(n *tree.Node, s Scope) Scope {
		role := Classify(n, s)
		fn(n, s, role)
		return s.Enter(role)
	})
}

// pick is a stable index into a pool of size n for the given seed and keys
func pick(seed int64, n int, keys ...string) int {
	if n <= 0 {
		return 0
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(strconv.FormatInt(seed, 10)))
	for _, k := range keys {
		_, _ = h.Write([]byte{0})
		_, _ = h.Write([]byte(k))
	}
	return int(h.Sum64() % uint64(n))
}

func tokenColor(hex string, fallback tree.Color) tree.Color {
	if c, ok := ParseColor(hex); ok {
		return c
	}
	return fallback
}
