package design

// mood is a named palette
type mood struct {
	Name    string
	Palette Palette
}

var moods = []mood{
	{"midnight", Palette{Background: "#0B1020", Surface: "#141B2D", Text: "#E5E7EB", Primary: "#6366F1", Accent: "#22D3EE", Muted: "#94A3B8", Contrast: "#FFFFFF"}},
	{"sunrise", Palette{Background: "#FFF7ED", Surface: "#FFFFFF", Text: "#1F2937", Primary: "#EA580C", Accent: "#DB2777", Muted: "#6B7280", Contrast: "#111827"}},
	{"forest", Palette{Background: "#F0FDF4", Surface: "#FFFFFF", Text: "#14532D", Primary: "#15803D", Accent: "#CA8A04", Muted: "#4B5563", Contrast: "#052E16"}},
	{"monochrome", Palette{Background: "#FFFFFF", Surface: "#F4F4F5", Text: "#18181B", Primary: "#18181B", Accent: "#71717A", Muted: "#52525B", Contrast: "#000000"}},
	{"ocean", Palette{Background: "#F0F9FF", Surface: "#FFFFFF", Text: "#0C4A6E", Primary: "#0284C7", Accent: "#14B8A6", Muted: "#64748B", Contrast: "#082F49"}},
	{"neon", Palette{Background: "#09090B", Surface: "#18181B", Text: "#FAFAFA", Primary: "#A3E635", Accent: "#F472B6", Muted: "#A1A1AA", Contrast: "#FFFFFF"}},
	{"earth", Palette{Background: "#FAF7F2", Surface: "#FFFFFF", Text: "#3F2E1E", Primary: "#9A3412", Accent: "#4D7C0F", Muted: "#78716C", Contrast: "#1C1917"}},
	{"royal", Palette{Background: "#1E1B4B", Surface: "#312E81", Text: "#EEF2FF", Primary: "#FBBF24", Accent: "#C084FC", Muted: "#A5B4FC", Contrast: "#FFFFFF"}},
}

var layouts = []string{
	"centered-stack",
	"split-screen",
	"bento-grid",
	"asymmetric-columns",
	"card-mosaic",
	"full-bleed-bands",
	"editorial-columns",
	"zigzag-alternating",
}

var typeScales = []TypeScale{
	{Name: "classic", HeadingFont: "Playfair Display", BodyFont: "Source Sans 3", H1: 56, H2: 40, H3: 28, Body: 17, Small: 14},
	{Name: "modern", HeadingFont: "Inter", BodyFont: "Inter", H1: 60, H2: 42, H3: 26, Body: 16, Small: 14},
	{Name: "geometric", HeadingFont: "Poppins", BodyFont: "DM Sans", H1: 52, H2: 38, H3: 24, Body: 16, Small: 13},
	{Name: "editorial", HeadingFont: "Fraunces", BodyFont: "Work Sans", H1: 64, H2: 44, H3: 30, Body: 18, Small: 14},
	{Name: "technical", HeadingFont: "Space Grotesk", BodyFont: "IBM Plex Sans", H1: 48, H2: 36, H3: 24, Body: 16, Small: 13},
	{Name: "friendly", HeadingFont: "Nunito", BodyFont: "Nunito Sans", H1: 54, H2: 38, H3: 26, Body: 17, Small: 14},
}

var densities = []SpacingScale{
	{Name: "compact", Section: 64, Block: 24, Gap: 24},
	{Name: "comfortable", Section: 96, Block: 32, Gap: 28},
	{Name: "airy", Section: 128, Block: 40, Gap: 32},
	{Name: "generous", Section: 112, Block: 48, Gap: 40},
}

var radii = []RadiusScale{
	{Name: "sharp", Small: 0, Medium: 2, Large: 4},
	{Name: "soft", Small: 4, Medium: 8, Large: 16},
	{Name: "rounded", Small: 8, Medium: 16, Large: 24},
	{Name: "pill", Small: 12, Medium: 24, Large: 999},
}

var effects = []string{
	"none",
	"soft-shadow",
	"glassmorphism",
	"gradient-glow",
	"subtle-border",
	"elevated-cards",
}

// Layouts lists the known layout strategy names
func Layouts() []string {
	return append([]string(nil), layouts...)
}
