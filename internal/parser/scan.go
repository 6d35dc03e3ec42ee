package parser

import (
	"strings"
)

// stripReasoning drops <think>, <thinking> and <reasoning> blocks. An unterminated
// block is dropped only when structured output follows it.
func stripReasoning(s string) string {
	for _, tag := range []string{"thinking", "think", "reasoning"} {
		open, end := "<"+tag+">", "</"+tag+">"
		for {
			lower := strings.ToLower(s)
			i := strings.Index(lower, open)
			if i < 0 {
				break
			}
			j := strings.Index(lower[i:], end)
			if j < 0 {
				rest := s[i+len(open):]
				if k := strings.IndexAny(rest, "{["); k >= 0 {
					s = s[:i] + rest[k:]
					continue
				}
				break
			}
			s = s[:i] + s[i+j+len(end):]
		}
	}
	return s
}

// stripFences returns the body of the first markdown code fence, or s when there is none.
// A fence missing its closer yields everything after the opener.
func stripFences(s string) string {
	i := strings.Index(s, "```")
	if i < 0 {
		return s
	}
	body := s[i+3:]
	if nl := strings.IndexByte(body, '\n'); nl >= 0 && !strings.ContainsAny(body[:nl], "{[") {
		body = body[nl+1:]
	}
	if j := strings.Index(body, "```"); j >= 0 {
		return body[:j]
	}
	return body
}

// stripProse cuts text before the first structural bracket and after its matching closer.
// Truncated input keeps its tail so later stages can balance it.
func stripProse(s string) string {
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return strings.TrimSpace(s)
	}
	s = s[start:]
	if end := matchingClose(s, 0); end >= 0 {
		return s[:end+1]
	}
	return strings.TrimRightFunc(s, isSpace)
}

// matchingClose returns the index of the bracket closing the opener at s[at],
// scanning outside string literals, or -1.
func matchingClose(s string, at int) int {
	depth := 0
	inString, escaped := false, false
	for i := at; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// removeTrailingCommas drops commas that directly precede a closing bracket
func removeTrailingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			b.WriteByte(c)
			continue
		}
		if c == '"' {
			inString = true
			b.WriteByte(c)
			continue
		}
		if c == ',' {
			j := i + 1
			for j < len(s) && isSpaceByte(s[j]) {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

// cut is a prefix length at which the text can be closed with the given suffix.
// nested counts the arrays left open beneath the innermost container.
type cut struct {
	at      int
	closers string
	nested  int
}

// scanStructure walks s outside string literals and reports cut points plus the
// closers still owed at the end of the text.
//
// Candidate cuts sit right after an opener, right after a closer and right before a
// member separator. A cut with nested == 0 keeps array elements atomic: a broken
// trailing element is dropped whole instead of being kept half-built. Cuts with
// higher nesting keep part of an element and are only tried when the atomic ones
// recover nothing useful.
func scanStructure(s string) (cuts []cut, pending string, safeAtEnd bool) {
	var stack []byte
	inString, escaped := false, false

	closers := func() string {
		out := make([]byte, len(stack))
		for i := range stack {
			out[len(stack)-1-i] = stack[i]
		}
		return string(out)
	}
	nested := func() int {
		n := 0
		for i := 0; i < len(stack)-1; i++ {
			if stack[i] == ']' {
				n++
			}
		}
		return n
	}
	mark := func(at int) {
		cuts = append(cuts, cut{at: at, closers: closers(), nested: nested()})
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
			mark(i + 1)
		case '[':
			stack = append(stack, ']')
			mark(i + 1)
		case '}', ']':
			if len(stack) > 0 && stack[len(stack)-1] == c {
				stack = stack[:len(stack)-1]
			}
			mark(i + 1)
		case ',':
			mark(i)
		}
	}
	return cuts, closers(), !inString && nested() == 0
}

func isSpaceByte(c byte) bool {
	return c == ' ' || c == '\n' || c == '\r' || c == '\t'
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\n' || r == '\r' || r == '\t'
}

// lastSignificant returns the last non-space byte of s
func lastSignificant(s string) byte {
	for i := len(s) - 1; i >= 0; i-- {
		if !isSpaceByte(s[i]) {
			return s[i]
		}
	}
	return 0
}

// fieldValueStart finds `"name":` outside string literals and returns the index of
// the bracket that opens its value, or -1.
func fieldValueStart(s, name string) int {
	inString, escaped := false, false
	strStart := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
				if s[strStart+1:i] != name {
					continue
				}
				j := i + 1
				for j < len(s) && isSpaceByte(s[j]) {
					j++
				}
				if j >= len(s) || s[j] != ':' {
					continue
				}
				j++
				for j < len(s) && isSpaceByte(s[j]) {
					j++
				}
				if j < len(s) && (s[j] == '[' || s[j] == '{') {
					return j
				}
			}
			continue
		}
		if c == '"' {
			inString = true
			strStart = i
		}
	}
	return -1
}

// splitTopLevelObjects returns the complete objects directly inside the array
// that opens at s[at]. A trailing object without its closer is omitted.
func splitTopLevelObjects(s string, at int) []string {
	var out []string
	depth := 0
	inString, escaped := false, false
	start := -1
	for i := at; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			depth++
			if depth == 2 && c == '{' {
				start = i
			}
		case '}', ']':
			if depth == 2 && c == '}' && start >= 0 {
				out = append(out, s[start:i+1])
				start = -1
			}
			depth--
			if depth == 0 {
				return out
			}
		}
	}
	return out
}
