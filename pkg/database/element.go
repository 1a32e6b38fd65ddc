package database

import (
	"fmt"
	"strings"
)

// Element is one named clause fragment of a query: a name such as
// "SELECT" or "WHERE", its ordered parts and the glue between them.
type Element struct {
	name  string
	parts []any
	glue  string
}

// NewElement builds an element. parts may be a string, []string, an
// *Element, a *Query or a []any of those. An empty glue means ",".
func NewElement(name string, parts any, glue string) *Element {
	if glue == "" {
		glue = ","
	}
	e := &Element{name: name, glue: glue}
	e.Append(parts)
	return e
}

func (e *Element) Name() string { return e.name }
func (e *Element) Glue() string { return e.glue }

// Parts returns a copy of the parts slice.
func (e *Element) Parts() []any {
	out := make([]any, len(e.parts))
	copy(out, e.parts)
	return out
}

// Append adds parts, flattening slices. An element with the same name
// contributes its parts instead of being nested.
func (e *Element) Append(parts ...any) {
	for _, p := range parts {
		switch v := p.(type) {
		case nil:
		case string:
			e.parts = append(e.parts, v)
		case []string:
			for _, s := range v {
				e.parts = append(e.parts, s)
			}
		case []any:
			e.Append(v...)
		case *Element:
			if v == nil {
				continue
			}
			if v.name == e.name {
				e.parts = append(e.parts, v.Clone().parts...)
				continue
			}
			e.parts = append(e.parts, v)
		case *Query:
			if v != nil {
				e.parts = append(e.parts, v)
			}
		default:
			e.parts = append(e.parts, fmt.Sprint(v))
		}
	}
}

// String renders the element. Names ending in "()" render as a call,
// NAME(p1<glue>p2); anything else as "\nNAME p1<glue>\n\tp2".
func (e *Element) String() string {
	rendered := make([]string, len(e.parts))
	for i, p := range e.parts {
		rendered[i] = renderPart(p)
	}

	if strings.HasSuffix(e.name, "()") {
		return e.name[:len(e.name)-2] + "(" + strings.Join(rendered, e.glue) + ")"
	}
	if len(rendered) == 0 {
		return "\n" + e.name
	}
	return "\n" + e.name + " " + strings.Join(rendered, e.glue+"\n\t")
}

// Clone deep-copies the element; nested elements and queries are cloned.
func (e *Element) Clone() *Element {
	if e == nil {
		return nil
	}
	c := &Element{name: e.name, glue: e.glue, parts: make([]any, len(e.parts))}
	for i, p := range e.parts {
		switch v := p.(type) {
		case *Element:
			c.parts[i] = v.Clone()
		case *Query:
			c.parts[i] = v.Clone()
		default:
			c.parts[i] = v
		}
	}
	return c
}

func renderPart(p any) string {
	switch v := p.(type) {
	case string:
		return v
	case *Element:
		return v.String()
	case *Query:
		return v.String()
	}
	return fmt.Sprint(p)
}

func elementString(e *Element) string {
	if e == nil {
		return ""
	}
	return e.String()
}
