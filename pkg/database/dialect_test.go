package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"
)

// testDialect is a MySQL-like dialect with no catalog support.
type testDialect struct {
	BaseDialect
}

func newTestDialect() *testDialect {
	return &testDialect{BaseDialect{
		DialectName:   "mysql",
		DialectFamily: "mysql",
		QuoteOpen:     "`",
		QuoteClose:    "`",
		Literals:      `'"`,
		Null:          "0000-00-00 00:00:00",
		Min:           "5.0.4",
	}}
}

func (t *testDialect) DriverName() string               { return "test" }
func (t *testDialect) DSN(Options) (string, error)      { return "", nil }
func (t *testDialect) IsConnectionLost(err error) bool { return errors.Is(err, driver.ErrBadConn) }

func (t *testDialect) TableList(context.Context, *Driver) ([]string, error) { return nil, nil }
func (t *testDialect) TableColumns(context.Context, *Driver, string) ([]Column, error) {
	return []Column{{Field: "id", Type: "int"}, {Field: "title", Type: "varchar(50)"}}, nil
}
func (t *testDialect) TableKeys(context.Context, *Driver, string) ([]Key, error) { return nil, nil }
func (t *testDialect) TableCreate(_ context.Context, _ *Driver, table string) (string, error) {
	return "CREATE TABLE " + table, nil
}
func (t *testDialect) Version(context.Context, *Driver) (string, error)   { return "5.7.30-log", nil }
func (t *testDialect) Collation(context.Context, *Driver) (string, error) { return "utf8_general_ci", nil }

func TestQuoteIdentifier(t *testing.T) {
	tests := []struct {
		name, open, close, want string
	}{
		{"a", "`", "`", "`a`"},
		{"a.b", "`", "`", "`a`.`b`"},
		{"a.*", `"`, `"`, `"a".*`},
		{"x`y", "`", "`", "`x``y`"},
		{"a.b", "[", "]", "[a].[b]"},
		{"we]ird", "[", "]", "[we]]ird]"},
	}
	for _, tt := range tests {
		if got := QuoteIdentifier(tt.name, tt.open, tt.close); got != tt.want {
			t.Errorf("QuoteIdentifier(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestBaseDialect_Escape(t *testing.T) {
	d := newTestDialect()

	if got := d.Escape("'%_abc123", false); got != `\'%_abc123` {
		t.Errorf("Escape without extra = %q", got)
	}
	if got := d.Escape("'%_abc123", true); got != `\'\%\_abc123` {
		t.Errorf("Escape with extra = %q", got)
	}
	if got := d.Escape("a\nb\\c\x00", false); got != `a\nb\\c\0` {
		t.Errorf("Escape control chars = %q", got)
	}
}

func TestEscapeDoubled(t *testing.T) {
	if got := EscapeDoubled("it's", false); got != "it''s" {
		t.Errorf("EscapeDoubled = %q", got)
	}
	if got := EscapeDoubled("5%_", true); got != `5\%\_` {
		t.Errorf("EscapeDoubled extra = %q", got)
	}
}

func TestBaseDialect_Limit(t *testing.T) {
	d := newTestDialect()
	if got := d.Limit("SELECT 1", 0, 0); got != "SELECT 1" {
		t.Errorf("no limit: %q", got)
	}
	if got := d.Limit("SELECT 1", 10, 20); got != "SELECT 1\nLIMIT 20, 10" {
		t.Errorf("limit: %q", got)
	}
}

func TestIsMinimumVersion(t *testing.T) {
	tests := []struct {
		version, min string
		want         bool
	}{
		{"5.7.30-log", "5.0.4", true},
		{"5.0.3", "5.0.4", false},
		{"8.3.18", "8.3.18", true},
		{"10.50.1600.1", "10.50.1600.1", true},
		{"9.6", "8.3.18", true},
		{"", "5.0.4", false},
	}
	for _, tt := range tests {
		if got := IsMinimumVersion(tt.version, tt.min); got != tt.want {
			t.Errorf("IsMinimumVersion(%q, %q) = %v, want %v", tt.version, tt.min, got, tt.want)
		}
	}
}

func TestError_Is(t *testing.T) {
	err := Errorf(KindTransaction, "TransactionCommit", "no active transaction")
	if !errors.Is(err, ErrTransaction) {
		t.Error("expected ErrTransaction")
	}
	if errors.Is(err, ErrQuery) {
		t.Error("unexpected ErrQuery")
	}
	if KindOf(err) != KindTransaction {
		t.Errorf("KindOf = %v", KindOf(err))
	}

	native := errors.New("syntax error")
	qerr := &Error{Kind: KindQuery, Op: "Execute", SQL: "SELEC 1", Code: 1064, Err: native}
	if !errors.Is(qerr, native) {
		t.Error("expected native error in chain")
	}
	want := "Execute: query error (1064): syntax error\nSQL=SELEC 1"
	if qerr.Error() != want {
		t.Errorf("Error() = %q, want %q", qerr.Error(), want)
	}
}
