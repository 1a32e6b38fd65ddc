package drivers

import (
	"context"
	"strings"
	"testing"

	"github.com/ruslano69/sqlkit/pkg/database"
)

func TestRegisterAll(t *testing.T) {
	f := NewFactory()

	want := []string{"mysql", "mysqli", "oracle", "pgsql", "postgresql", "sqlazure", "sqlite", "sqlsrv"}
	got := f.GetRegisteredTypes()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("registered types = %v, want %v", got, want)
	}
	for _, name := range want {
		d, err := f.Dialect(name)
		if err != nil {
			t.Fatalf("Dialect(%q): %v", name, err)
		}
		if d.Name() != name {
			t.Errorf("Dialect(%q).Name() = %q", name, d.Name())
		}
	}
}

func TestUnknownDialect(t *testing.T) {
	_, err := NewFactory().Dialect("informix")
	if database.KindOf(err) != database.KindConfiguration {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

// Every dialect quotes each dotted segment separately and leaves a
// name without dots as a single quoted identifier.
func TestQuoteNamePerSegment(t *testing.T) {
	f := NewFactory()
	for _, name := range f.GetRegisteredTypes() {
		d, _ := f.Dialect(name)
		open, close := d.NameQuote()

		if got, want := d.QuoteName("a.b"), open+"a"+close+"."+open+"b"+close; got != want {
			t.Errorf("%s: QuoteName(a.b) = %q, want %q", name, got, want)
		}
		if got, want := d.QuoteName("users"), open+"users"+close; got != want {
			t.Errorf("%s: QuoteName(users) = %q, want %q", name, got, want)
		}
	}
}

// Escaped text must never let a single quote terminate a literal.
func TestEscapeKeepsLiteralClosed(t *testing.T) {
	f := NewFactory()
	for _, name := range f.GetRegisteredTypes() {
		d, _ := f.Dialect(name)
		out := d.Escape("O'Reilly", false)
		if strings.Count(strings.ReplaceAll(strings.ReplaceAll(out, "''", ""), "\\'", ""), "'") != 0 {
			t.Errorf("%s: Escape left a bare quote: %q", name, out)
		}
		if wild := d.Escape("100%_", true); strings.Contains(wild, "100%_") {
			t.Errorf("%s: wildcards not escaped: %q", name, wild)
		}
	}
}

func TestLimitLeavesPlainQueries(t *testing.T) {
	f := NewFactory()
	for _, name := range f.GetRegisteredTypes() {
		d, _ := f.Dialect(name)
		if got := d.Limit("SELECT 1", 0, 0); got != "SELECT 1" {
			t.Errorf("%s: Limit(0, 0) = %q", name, got)
		}
	}
}

func TestGetQueryDetached(t *testing.T) {
	f := NewFactory()
	q, err := f.GetQuery("postgresql", nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := q.QuoteName("a.b"); got != `"a"."b"` {
		t.Errorf("QuoteName = %q", got)
	}
}

func TestGetDriverSQLite(t *testing.T) {
	f := NewFactory()
	defer f.Close()
	ctx := context.Background()

	opts := database.Options{Driver: "sqlite", Prefix: "t_"}
	d1, err := f.GetDriver(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	d2, err := f.GetDriver(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if d1 != d2 {
		t.Error("expected the cached driver for equal options")
	}
	if d1.Prefix() != "t_" {
		t.Errorf("prefix = %q", d1.Prefix())
	}
}
