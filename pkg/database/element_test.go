package database

import (
	"testing"
)

func TestElement_String(t *testing.T) {
	tests := []struct {
		name string
		el   *Element
		want string
	}{
		{"single", NewElement("SELECT", "a", ","), "\nSELECT a"},
		{"list", NewElement("SELECT", []string{"a", "b"}, ","), "\nSELECT a,\n\tb"},
		{"and glue", NewElement("WHERE", []string{"a = 1", "b = 2"}, " AND "), "\nWHERE a = 1 AND \n\tb = 2"},
		{"call", NewElement("COUNT()", "*", ","), "COUNT(*)"},
		{"parens", NewElement("()", []string{"a", "b"}, ","), "(a,b)"},
		{"empty", NewElement("DELETE", nil, ","), "\nDELETE"},
		{"default glue", NewElement("()", []string{"x", "y"}, ""), "(x,y)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.el.String(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestElement_AppendSameName(t *testing.T) {
	e := NewElement("FROM", "t1", ",")
	e.Append(NewElement("FROM", "t2", ","))

	want := NewElement("FROM", []string{"t1", "t2"}, ",")
	if e.String() != want.String() {
		t.Errorf("got %q, want %q", e.String(), want.String())
	}
	if len(e.Parts()) != 2 {
		t.Errorf("expected 2 parts, got %d", len(e.Parts()))
	}
}

func TestElement_AppendNested(t *testing.T) {
	e := NewElement("WHERE", "a = 1", " AND ")
	e.Append(NewElement("()", []string{"b = 2 OR c = 3"}, ","))
	if got := e.String(); got != "\nWHERE a = 1 AND \n\t(b = 2 OR c = 3)" {
		t.Errorf("got %q", got)
	}
}

func TestElement_AppendFlattens(t *testing.T) {
	e := NewElement("GROUP BY", nil, ",")
	e.Append([]any{"a", []string{"b", "c"}}, "d")
	if len(e.Parts()) != 4 {
		t.Fatalf("expected 4 parts, got %d", len(e.Parts()))
	}
}

func TestElement_CloneIsDeep(t *testing.T) {
	inner := NewElement("()", "x", ",")
	orig := NewElement("WHERE", []any{"a = 1", inner}, " AND ")
	before := orig.String()

	c := orig.Clone()
	c.Append("b = 2")
	c.parts[1].(*Element).Append("y")

	if orig.String() != before {
		t.Errorf("original changed: %q", orig.String())
	}
	if c.String() == before {
		t.Error("clone did not change")
	}
}

func TestElement_PartsIsCopy(t *testing.T) {
	e := NewElement("SELECT", []string{"a", "b"}, ",")
	p := e.Parts()
	p[0] = "z"
	if e.String() != "\nSELECT a,\n\tb" {
		t.Errorf("Parts leaked internal slice: %q", e.String())
	}
}
