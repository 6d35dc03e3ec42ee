package parser

import (
	"strings"

	"sitegen/internal/tree"
)

// Section is one named page area recovered from a model reply
type Section struct {
	Type        string
	Name        string
	Description string
	Root        *tree.Node
}

// Document is the interpretation of a reply as an ordered list of sections
type Document struct {
	Name        string
	Description string
	Sections    []Section
	Stage       Stage
	Dropped     int
}

// ParseSections parses raw and interprets the value as page sections.
// Accepted shapes: {"sections":[...]}, {"components":[...]}, {"component":{...}},
// {"steps":[...]}, a bare array, or a single node object.
func (p *Parser) ParseSections(raw string) Document {
	res := p.Parse(raw)
	doc := Document{Stage: res.Stage, Dropped: res.Dropped}
	if res.Empty() {
		return doc
	}

	var items []any
	switch v := res.Value.(type) {
	case []any:
		items = v
	case map[string]any:
		doc.Name, _ = v["name"].(string)
		doc.Description, _ = v["description"].(string)
		switch {
		case isList(v["sections"]):
			items = v["sections"].([]any)
		case isList(v["components"]):
			items = v["components"].([]any)
		case isList(v["steps"]):
			items = v["steps"].([]any)
		default:
			items = []any{v}
		}
	}

	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if section, ok := toSection(obj); ok {
			doc.Sections = append(doc.Sections, section)
		}
	}
	return doc
}

func toSection(obj map[string]any) (Section, bool) {
	s := Section{}
	s.Name, _ = obj["name"].(string)
	s.Description, _ = obj["description"].(string)
	s.Type = firstString(obj, "sectionType", "section", "sectionId")

	body, nested := obj, false
	for _, key := range []string{"component", "root", "tree"} {
		if inner, ok := obj[key].(map[string]any); ok {
			body, nested = inner, true
			if s.Type == "" {
				s.Type, _ = obj["type"].(string)
			}
			break
		}
	}

	if len(body) == 0 {
		return Section{}, false
	}
	clean := make(map[string]any, len(body))
	for k, v := range body {
		switch k {
		case "sectionType", "section", "sectionId":
			continue
		}
		// on a bare node these describe the section, not the node
		if !nested && (k == "name" || k == "description") {
			continue
		}
		clean[k] = v
	}
	root, err := tree.FromMap(clean)
	if err != nil {
		return Section{}, false
	}
	if s.Type == "" {
		s.Type = guessType(root.ID)
	}
	s.Type = strings.ToLower(strings.TrimSpace(s.Type))
	s.Root = root
	return s, true
}

func guessType(id string) string {
	id = strings.ToLower(id)
	if i := strings.IndexAny(id, "-_ "); i > 0 {
		return id[:i]
	}
	return id
}

func firstString(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := obj[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func isList(v any) bool {
	_, ok := v.([]any)
	return ok
}
