package design

import (
	"sort"
	"strings"
)

// LowConfidence is the cutoff under which an intent's section hints are not trusted alone
const LowConfidence = 0.5

// Intent is what the prompt is about
type Intent struct {
	Industry     string   `json:"industry"`
	Mood         string   `json:"mood"`
	Keywords     []string `json:"keywords"`
	SectionTypes []string `json:"sectionTypes"`
	Confidence   float64  `json:"confidence"`
}

// Confident reports whether the intent's section hints can be used on their own
func (i *Intent) Confident() bool {
	return i != nil && i.Confidence >= LowConfidence
}

var industryKeywords = map[string][]string{
	"fitness":     {"fitness", "gym", "workout", "yoga", "trainer", "pilates", "crossfit"},
	"food":        {"restaurant", "cafe", "bakery", "coffee", "food", "bistro", "catering"},
	"technology":  {"saas", "software", "startup", "platform", "api", "developer", "ai", "app"},
	"finance":     {"bank", "fintech", "invest", "finance", "crypto", "accounting", "insurance"},
	"health":      {"clinic", "dental", "doctor", "health", "medical", "therapy", "wellness"},
	"education":   {"school", "course", "learn", "academy", "tutor", "university"},
	"real-estate": {"real estate", "property", "homes", "realtor", "apartment"},
	"travel":      {"travel", "hotel", "tour", "resort", "vacation", "airbnb"},
	"ecommerce":   {"shop", "store", "ecommerce", "boutique", "marketplace"},
	"creative":    {"portfolio", "agency", "studio", "photography", "design", "artist"},
	"nonprofit":   {"charity", "nonprofit", "foundation", "volunteer", "donate"},
}

var moodKeywords = map[string][]string{
	"bold":    {"bold", "energetic", "vibrant", "loud"},
	"minimal": {"minimal", "clean", "simple"},
	"dark":    {"dark", "night", "moody"},
	"playful": {"playful", "fun", "colorful", "kids"},
	"elegant": {"elegant", "luxury", "premium", "sophisticated"},
	"calm":    {"calm", "peaceful", "serene", "soft"},
}

// LocalIntent derives a low-confidence intent from keywords alone
func LocalIntent(prompt string) Intent {
	lower := " " + strings.ToLower(prompt) + " "
	intent := Intent{Industry: "general", Mood: "modern", Confidence: 0.3}

	best := 0
	for _, industry := range sortedKeys(industryKeywords) {
		hits := 0
		for _, kw := range industryKeywords[industry] {
			if containsWord(lower, kw) {
				hits++
				intent.Keywords = append(intent.Keywords, kw)
			}
		}
		if hits > best {
			best = hits
			intent.Industry = industry
		}
	}
	for _, m := range sortedKeys(moodKeywords) {
		for _, kw := range moodKeywords[m] {
			if containsWord(lower, kw) {
				intent.Mood = m
				break
			}
		}
	}
	return intent
}

func containsWord(padded, word string) bool {
	idx := strings.Index(padded, word)
	for idx >= 0 {
		before := padded[idx-1]
		afterIdx := idx + len(word)
		if !isLetter(before) && (wordEnds(padded, afterIdx) || padded[afterIdx] == 's' && wordEnds(padded, afterIdx+1)) {
			return true
		}
		next := strings.Index(padded[idx+1:], word)
		if next < 0 {
			break
		}
		idx += next + 1
	}
	return false
}

func wordEnds(s string, at int) bool {
	return at >= len(s) || !isLetter(s[at])
}

func isLetter(c byte) bool {
	return c >= 'a' && c <= 'z'
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
