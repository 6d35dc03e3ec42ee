package images

import (
	"fmt"
	"strings"
	"unicode"
)

// coarse categories of the built-in catalog, checked in order
var categories = []struct {
	name  string
	words []string
}{
	{"people", []string{"team", "avatar", "testimonial", "person", "portrait", "founder", "customer", "profile"}},
	{"food", []string{"food", "restaurant", "cafe", "coffee", "bakery", "kitchen", "menu", "dish", "chef"}},
	{"fitness", []string{"fitness", "gym", "yoga", "workout", "sport", "training", "wellness"}},
	{"technology", []string{"tech", "software", "saas", "app", "ai", "developer", "cloud", "data", "startup", "dashboard"}},
	{"nature", []string{"travel", "nature", "outdoor", "hotel", "beach", "mountain", "garden", "eco"}},
	{"home", []string{"real estate", "interior", "home", "house", "architecture", "furniture"}},
	{"fashion", []string{"fashion", "beauty", "salon", "clothing", "store", "shop", "jewelry"}},
	{"business", []string{"business", "finance", "agency", "consult", "law", "office", "bank", "marketing"}},
}

// DefaultCategory is used when nothing in the query matches
const DefaultCategory = "abstract"

const catalogSize = 6

// Category maps a free-text query onto a coarse catalog category
func Category(query string) string {
	words := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	padded := " " + strings.Join(words, " ") + " "
	for _, c := range categories {
		for _, w := range c.words {
			// short words must match whole, longer ones as a stem
			needle := " " + w
			if len(w) <= 3 {
				needle += " "
			}
			if strings.Contains(padded, needle) {
				return c.name
			}
		}
	}
	return DefaultCategory
}

// Fallback returns catalog URLs for a category at the given size. The URLs
// are stable so repeated requests render the same pictures.
func Fallback(category string, width, height int) []string {
	if category == "" {
		category = DefaultCategory
	}
	out := make([]string, catalogSize)
	for i := range out {
		out[i] = fmt.Sprintf("https://picsum.photos/seed/sitegen-%s-%d/%d/%d", category, i+1, width, height)
	}
	return out
}

var placeholderHosts = []string{
	"example.com", "placeholder.com", "placehold.co", "placehold.it", "dummyimage.com",
	"placekitten.com", "your-image", "image-url",
}

// usable reports whether src points at a real, fetchable image
func usable(src string) bool {
	s := strings.ToLower(strings.TrimSpace(src))
	if strings.HasPrefix(s, "data:image/") {
		return true
	}
	if !strings.HasPrefix(s, "https://") && !strings.HasPrefix(s, "http://") {
		return false
	}
	if strings.Contains(s, "{{") || strings.Contains(s, "placeholder") {
		return false
	}
	for _, h := range placeholderHosts {
		if strings.Contains(s, h) {
			return false
		}
	}
	return true
}
