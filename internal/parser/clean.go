package parser

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// typographic holds the fixed substitutions applied inside string literals
var typographic = map[rune]string{
	'‘': "'", '’': "'", '‚': "'", '′': "'",
	'“': `\"`, '”': `\"`, '„': `\"`, '″': `\"`,
	'–': "-", '—': "-", '―': "-", '−': "-",
	'…': "...",
	'\u00A0': " ", '\u2007': " ", '\u202F': " ",
	'✓': "+", '✔': "+", '✅': "+", '☑': "+",
	'✗': "x", '✘': "x", '❌': "x",
	'•': "-", '●': "-", '▪': "-",
	'\u200B': "", '\u200C': "", '\u200D': "", '\uFEFF': "", '\uFE0F': "",
}

// smartDelimiters open or close a string when they appear outside a literal
var smartDelimiters = map[rune]bool{'“': true, '”': true, '„': true}

func isBoxDrawing(r rune) bool {
	return r >= 0x2500 && r <= 0x257F
}

func isEmoji(r rune) bool {
	switch {
	case r >= 0x1F000 && r <= 0x1FAFF:
		return true
	case r >= 0x2600 && r <= 0x27BF:
		return true
	case r >= 0x2B00 && r <= 0x2BFF:
		return true
	}
	return false
}

// preclean neutralizes characters that break strict parsing. Inside string literals it
// escapes raw control characters and invalid escapes and applies the typographic table;
// outside literals it turns smart quotes into delimiters and drops invisible runes.
func preclean(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inString := false
	smartOpened := false
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			i++
			continue
		}

		if !inString {
			switch {
			case r == '"':
				inString, smartOpened = true, false
				b.WriteByte('"')
			case smartDelimiters[r]:
				inString, smartOpened = true, true
				b.WriteByte('"')
			case r == '\u00A0' || r == '\uFEFF' || r == '\u200B':
				b.WriteByte(' ')
			default:
				b.WriteRune(r)
			}
			i += size
			continue
		}

		switch {
		case r == '\\':
			if i+1 >= len(s) {
				b.WriteString(`\\`)
				i++
				continue
			}
			next := s[i+1]
			switch next {
			case '"', '\\', '/', 'b', 'f', 'n', 'r', 't':
				b.WriteByte('\\')
				b.WriteByte(next)
				i += 2
			case 'u':
				if i+6 <= len(s) && isHex(s[i+2:i+6]) {
					b.WriteString(s[i : i+6])
					i += 6
				} else {
					b.WriteString(`\\`)
					i++
				}
			case '\'':
				b.WriteByte('\'')
				i += 2
			default:
				b.WriteString(`\\`)
				i++
			}
			continue
		case r == '"':
			inString = false
			b.WriteByte('"')
		case smartOpened && (r == '”' || r == '“'):
			inString = false
			b.WriteByte('"')
		case r < 0x20:
			switch r {
			case '\n':
				b.WriteString(`\n`)
			case '\r':
				b.WriteString(`\r`)
			case '\t':
				b.WriteString(`\t`)
			default:
				fmt.Fprintf(&b, `\u%04x`, r)
			}
		case r == 0x7F:
			// DEL is dropped
		default:
			if sub, ok := typographic[r]; ok {
				b.WriteString(sub)
			} else if isBoxDrawing(r) {
				b.WriteByte('-')
			} else if !isEmoji(r) {
				b.WriteRune(r)
			}
		}
		i += size
	}
	return b.String()
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F') {
			return false
		}
	}
	return true
}
