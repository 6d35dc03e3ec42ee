package tree

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// Value is the closed set of property values a node can carry.
// The concrete types are Str, Num, Bool, Null, Color, Spacing, Map and List.
type Value interface {
	isValue()
}

// Str is a string scalar
type Str string

// Num is a numeric scalar
type Num float64

// Bool is a boolean scalar
type Bool bool

// Null is an explicit JSON null
type Null struct{}

// Color is an sRGB color with alpha in [0,1]
type Color struct {
	R, G, B uint8
	A       float64
}

// Spacing is a four-sided box (padding, margin)
type Spacing struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// Map is a nested mapping such as a "mobile" override group
type Map map[string]Value

// List is an ordered sequence of values
type List []Value

func (Str) isValue()     {}
func (Num) isValue()     {}
func (Bool) isValue()    {}
func (Null) isValue()    {}
func (Color) isValue()   {}
func (Spacing) isValue() {}
func (Map) isValue()     {}
func (List) isValue()    {}

// Uniform returns a spacing box with the same value on all sides
func Uniform(v float64) Spacing {
	return Spacing{Top: v, Right: v, Bottom: v, Left: v}
}

// Opaque reports whether the color has full alpha
func (c Color) Opaque() bool {
	return c.A >= 1
}

// Hex renders the color as #RRGGBB, ignoring alpha
func (c Color) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

type colorJSON struct {
	R uint8   `json:"r"`
	G uint8   `json:"g"`
	B uint8   `json:"b"`
	A float64 `json:"a"`
}

func (c Color) MarshalJSON() ([]byte, error) {
	return json.Marshal(colorJSON{R: c.R, G: c.G, B: c.B, A: round3(c.A)})
}

func (Null) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// FromAny converts a decoded JSON value into a Value.
// Objects shaped like {r,g,b[,a]} become Color and {top,right,bottom,left} become Spacing.
func FromAny(v any) Value {
	switch x := v.(type) {
	case nil:
		return Null{}
	case Value:
		return x
	case string:
		return Str(x)
	case bool:
		return Bool(x)
	case float64:
		return Num(x)
	case float32:
		return Num(x)
	case int:
		return Num(x)
	case int64:
		return Num(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return Str(x.String())
		}
		return Num(f)
	case map[string]any:
		if c, ok := colorFromMap(x); ok {
			return c
		}
		if s, ok := spacingFromMap(x); ok {
			return s
		}
		m := make(Map, len(x))
		for k, item := range x {
			m[k] = FromAny(item)
		}
		return m
	case []any:
		l := make(List, len(x))
		for i, item := range x {
			l[i] = FromAny(item)
		}
		return l
	default:
		return Str(fmt.Sprint(x))
	}
}

// ToAny converts a Value back into plain decoded-JSON form
func ToAny(v Value) any {
	switch x := v.(type) {
	case nil, Null:
		return nil
	case Str:
		return string(x)
	case Num:
		return float64(x)
	case Bool:
		return bool(x)
	case Color:
		return map[string]any{"r": float64(x.R), "g": float64(x.G), "b": float64(x.B), "a": round3(x.A)}
	case Spacing:
		return map[string]any{"top": x.Top, "right": x.Right, "bottom": x.Bottom, "left": x.Left}
	case Map:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[k] = ToAny(item)
		}
		return out
	case List:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = ToAny(item)
		}
		return out
	}
	return nil
}

func colorFromMap(m map[string]any) (Color, bool) {
	if len(m) < 3 || len(m) > 4 {
		return Color{}, false
	}
	var ch [3]uint8
	for i, k := range []string{"r", "g", "b"} {
		f, ok := m[k].(float64)
		if !ok || f < 0 || f > 255 {
			return Color{}, false
		}
		ch[i] = uint8(math.Round(f))
	}
	alpha := 1.0
	if a, present := m["a"]; present {
		f, ok := a.(float64)
		if !ok || f < 0 || f > 1 {
			return Color{}, false
		}
		alpha = f
	} else if len(m) == 4 {
		return Color{}, false
	}
	return Color{R: ch[0], G: ch[1], B: ch[2], A: alpha}, true
}

func spacingFromMap(m map[string]any) (Spacing, bool) {
	if len(m) != 4 {
		return Spacing{}, false
	}
	var sides [4]float64
	for i, k := range []string{"top", "right", "bottom", "left"} {
		f, ok := m[k].(float64)
		if !ok {
			return Spacing{}, false
		}
		sides[i] = f
	}
	return Spacing{Top: sides[0], Right: sides[1], Bottom: sides[2], Left: sides[3]}, true
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}

// Keys returns the map keys in sorted order
func (m Map) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
