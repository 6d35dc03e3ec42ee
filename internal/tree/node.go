// Package tree defines the typed UI node tree produced by a generation.
package tree

import (
	"encoding/json"
	"fmt"
	"strings"
)

// NodeType tags what a node renders as
type NodeType string

const (
	TypeContainer NodeType = "container"
	TypeSection   NodeType = "section"
	TypeText      NodeType = "text"
	TypeHeading   NodeType = "heading"
	TypeButton    NodeType = "button"
	TypeLink      NodeType = "link"
	TypeImage     NodeType = "image"
	TypeIcon      NodeType = "icon"
	TypeInput     NodeType = "input"
	TypeList      NodeType = "list"
	TypeUnknown   NodeType = "unknown"
)

var typeAliases = map[string]NodeType{
	"container": TypeContainer,
	"div":       TypeContainer,
	"box":       TypeContainer,
	"row":       TypeContainer,
	"column":    TypeContainer,
	"grid":      TypeContainer,
	"card":      TypeContainer,
	"nav":       TypeContainer,
	"header":    TypeContainer,
	"footer":    TypeContainer,
	"section":   TypeSection,
	"text":      TypeText,
	"paragraph": TypeText,
	"p":         TypeText,
	"span":      TypeText,
	"label":     TypeText,
	"heading":   TypeHeading,
	"title":     TypeHeading,
	"h1":        TypeHeading,
	"h2":        TypeHeading,
	"h3":        TypeHeading,
	"h4":        TypeHeading,
	"button":    TypeButton,
	"btn":       TypeButton,
	"link":      TypeLink,
	"a":         TypeLink,
	"image":     TypeImage,
	"img":       TypeImage,
	"icon":      TypeIcon,
	"input":     TypeInput,
	"textarea":  TypeInput,
	"list":      TypeList,
	"ul":        TypeList,
}

// ParseType maps a loose type label onto the closed enum
func ParseType(s string) NodeType {
	if t, ok := typeAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return t
	}
	return TypeUnknown
}

// TextBearing reports whether nodes of this type render copy
func (t NodeType) TextBearing() bool {
	switch t {
	case TypeText, TypeHeading, TypeButton, TypeLink, TypeInput:
		return true
	}
	return false
}

// Node is one element of a generated UI tree
type Node struct {
	ID       string   `json:"id"`
	Type     NodeType `json:"type"`
	Props    Props    `json:"props"`
	Children []*Node  `json:"children"`
}

// New creates a node with empty props
func New(id string, t NodeType) *Node {
	return &Node{ID: id, Type: t, Props: Props{}, Children: []*Node{}}
}

// Append adds children and returns the receiver
func (n *Node) Append(children ...*Node) *Node {
	n.Children = append(n.Children, children...)
	return n
}

// Clone returns a deep copy of the subtree
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := &Node{ID: n.ID, Type: n.Type, Props: n.Props.Clone(), Children: make([]*Node, len(n.Children))}
	for i, c := range n.Children {
		out.Children[i] = c.Clone()
	}
	return out
}

// Count returns the number of nodes in the subtree
func (n *Node) Count() int {
	total := 0
	Walk(n, func(*Node) bool {
		total++
		return true
	})
	return total
}

func (n *Node) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode node: %w", err)
	}
	node, err := FromMap(raw)
	if err != nil {
		return err
	}
	*n = *node
	return nil
}

func (n *Node) MarshalJSON() ([]byte, error) {
	type alias struct {
		ID       string  `json:"id"`
		Type     string  `json:"type"`
		Props    Props   `json:"props"`
		Children []*Node `json:"children"`
	}
	props := n.Props
	if props == nil {
		props = Props{}
	}
	children := n.Children
	if children == nil {
		children = []*Node{}
	}
	return json.Marshal(alias{ID: n.ID, Type: string(n.Type), Props: props, Children: children})
}

// reservedKeys are node fields that are never folded into props
var reservedKeys = map[string]bool{
	"id": true, "type": true, "component": true, "props": true, "children": true,
}

// FromMap builds a node from loosely-shaped decoded JSON.
// Unknown top-level keys are folded into props; string children become text nodes.
func FromMap(raw map[string]any) (*Node, error) {
	if raw == nil {
		return nil, fmt.Errorf("decode node: empty object")
	}
	n := &Node{Props: Props{}, Children: []*Node{}}
	if id, ok := raw["id"].(string); ok {
		n.ID = id
	}
	kind, _ := raw["type"].(string)
	if kind == "" {
		kind, _ = raw["component"].(string)
	}
	n.Type = ParseType(kind)
	if n.Type == TypeUnknown && kind == "" {
		n.Type = TypeContainer
	}
	// the raw label ("card", "nav", "h1") feeds role classification
	if kind != "" && strings.ToLower(strings.TrimSpace(kind)) != string(n.Type) {
		n.Props["originalType"] = Str(kind)
	}

	if props, ok := raw["props"].(map[string]any); ok {
		for k, v := range props {
			n.Props[k] = FromAny(v)
		}
	}
	for k, v := range raw {
		if reservedKeys[k] {
			continue
		}
		if _, exists := n.Props[k]; !exists {
			n.Props[k] = FromAny(v)
		}
	}

	switch children := raw["children"].(type) {
	case []any:
		for i, c := range children {
			switch cv := c.(type) {
			case map[string]any:
				child, err := FromMap(cv)
				if err != nil {
					return nil, fmt.Errorf("child %d: %w", i, err)
				}
				n.Children = append(n.Children, child)
			case string:
				text := New("", TypeText)
				text.Props["text"] = Str(cv)
				n.Children = append(n.Children, text)
			}
		}
	case string:
		if _, exists := n.Props["text"]; !exists {
			n.Props["text"] = Str(children)
		}
	}
	return n, nil
}

// EnsureIDs assigns ids to nodes that lack one and suffixes duplicates.
// The seen set is shared so callers can keep ids unique across several trees.
func EnsureIDs(root *Node, prefix string, seen map[string]bool) {
	counter := 0
	Walk(root, func(n *Node) bool {
		base := n.ID
		if base == "" {
			base = fmt.Sprintf("%s-%s", prefix, n.Type)
		}
		id := base
		for seen[id] {
			counter++
			id = fmt.Sprintf("%s-%d", base, counter)
		}
		seen[id] = true
		n.ID = id
		return true
	})
}
