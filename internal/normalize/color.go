package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"sitegen/internal/tree"
)

const (
	// MinContrast is the WCAG AA ratio for body text
	MinContrast = 4.5
	// lightThreshold splits light from dark backgrounds by relative luminance
	lightThreshold = 0.179
)

var (
	white    = tree.Color{R: 0xFF, G: 0xFF, B: 0xFF, A: 1}
	darkText = tree.Color{R: 0x11, G: 0x18, B: 0x27, A: 1}
)

var namedColors = map[string]tree.Color{
	"white":       white,
	"black":       {A: 1},
	"transparent": {},
	"red":         {R: 0xEF, G: 0x44, B: 0x44, A: 1},
	"green":       {R: 0x22, G: 0xC5, B: 0x5E, A: 1},
	"blue":        {R: 0x3B, G: 0x82, B: 0xF6, A: 1},
	"gray":        {R: 0x6B, G: 0x72, B: 0x80, A: 1},
	"grey":        {R: 0x6B, G: 0x72, B: 0x80, A: 1},
}

var rgbPattern = regexp.MustCompile(`^rgba?\(\s*([\d.]+)\s*,\s*([\d.]+)\s*,\s*([\d.]+)\s*(?:,\s*([\d.]+%?)\s*)?\)$`)

// ParseColor reads #rgb, #rgba, #rrggbb, #rrggbbaa, rgb(), rgba() and a few
// names. Anything else (gradients, variables) is rejected.
func ParseColor(s string) (tree.Color, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := namedColors[s]; ok {
		return c, true
	}
	if strings.HasPrefix(s, "#") {
		return parseHex(s[1:])
	}
	m := rgbPattern.FindStringSubmatch(s)
	if m == nil {
		return tree.Color{}, false
	}
	var ch [3]uint8
	for i := 0; i < 3; i++ {
		f, err := strconv.ParseFloat(m[i+1], 64)
		if err != nil || f > 255 {
			return tree.Color{}, false
		}
		ch[i] = uint8(math.Round(f))
	}
	alpha := 1.0
	if m[4] != "" {
		raw := strings.TrimSuffix(m[4], "%")
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return tree.Color{}, false
		}
		if raw != m[4] {
			f /= 100
		}
		alpha = math.Min(1, f)
	}
	return tree.Color{R: ch[0], G: ch[1], B: ch[2], A: alpha}, true
}

func parseHex(h string) (tree.Color, bool) {
	if len(h) == 3 || len(h) == 4 {
		var b strings.Builder
		for _, r := range h {
			b.WriteRune(r)
			b.WriteRune(r)
		}
		h = b.String()
	}
	if len(h) != 6 && len(h) != 8 {
		return tree.Color{}, false
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return tree.Color{}, false
	}
	if len(h) == 6 {
		return tree.Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 1}, true
	}
	return tree.Color{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: math.Round(float64(uint8(v))/255*1000) / 1000}, true
}

func channel(c uint8) float64 {
	v := float64(c) / 255
	if v <= 0.03928 {
		return v / 12.92
	}
	return math.Pow((v+0.055)/1.055, 2.4)
}

// Luminance is WCAG relative luminance, ignoring alpha
func Luminance(c tree.Color) float64 {
	return 0.2126*channel(c.R) + 0.7152*channel(c.G) + 0.0722*channel(c.B)
}

// ContrastRatio is the WCAG ratio between two opaque colors, in [1,21]
func ContrastRatio(a, b tree.Color) float64 {
	la, lb := Luminance(a), Luminance(b)
	if la < lb {
		la, lb = lb, la
	}
	return (la + 0.05) / (lb + 0.05)
}

// Blend composites c over an opaque backdrop
func Blend(c, backdrop tree.Color) tree.Color {
	if c.A >= 1 {
		return c
	}
	mix := func(f, b uint8) uint8 {
		return uint8(math.Round(float64(f)*c.A + float64(b)*(1-c.A)))
	}
	return tree.Color{R: mix(c.R, backdrop.R), G: mix(c.G, backdrop.G), B: mix(c.B, backdrop.B), A: 1}
}

// readableOn picks white or near-black text, whichever contrasts more with bg
func readableOn(bg tree.Color) tree.Color {
	if Luminance(bg) > lightThreshold {
		return darkText
	}
	return white
}
