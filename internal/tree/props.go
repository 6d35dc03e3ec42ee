package tree

// Props maps property names to typed values
type Props map[string]Value

// Clone deep-copies the property map
func (p Props) Clone() Props {
	if p == nil {
		return nil
	}
	out := make(Props, len(p))
	for k, v := range p {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v Value) Value {
	switch x := v.(type) {
	case Map:
		m := make(Map, len(x))
		for k, item := range x {
			m[k] = cloneValue(item)
		}
		return m
	case List:
		l := make(List, len(x))
		for i, item := range x {
			l[i] = cloneValue(item)
		}
		return l
	}
	return v
}

// Has reports whether key is set
func (p Props) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// String returns the string value for key
func (p Props) String(key string) (string, bool) {
	s, ok := p[key].(Str)
	return string(s), ok
}

// StringOr returns the string value or def
func (p Props) StringOr(key, def string) string {
	if s, ok := p.String(key); ok {
		return s
	}
	return def
}

// Number returns the numeric value for key
func (p Props) Number(key string) (float64, bool) {
	n, ok := p[key].(Num)
	return float64(n), ok
}

// Color returns the color value for key
func (p Props) Color(key string) (Color, bool) {
	c, ok := p[key].(Color)
	return c, ok
}

// Map returns the nested map for key
func (p Props) Map(key string) (Map, bool) {
	m, ok := p[key].(Map)
	return m, ok
}

// Text returns the copy a text-bearing node renders, checking the usual keys
func (p Props) Text() (key, text string, ok bool) {
	for _, k := range []string{"text", "content", "label", "title"} {
		if s, found := p.String(k); found {
			return k, s, true
		}
	}
	return "", "", false
}

// SetDefault sets key only when it is absent and reports whether it wrote
func (p Props) SetDefault(key string, v Value) bool {
	if _, exists := p[key]; exists {
		return false
	}
	p[key] = v
	return true
}
