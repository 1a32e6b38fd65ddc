package database

import (
	"errors"
	"testing"
)

func TestQuery_Format(t *testing.T) {
	d := &Driver{dialect: newTestDialect()}
	q := d.GetQuery(true)

	tests := []struct {
		tmpl string
		args []any
		want string
	}{
		{"SELECT %n FROM %n WHERE %n = %a", []any{"foo", "#__bar", "id", 10}, "SELECT `foo` FROM `#__bar` WHERE `id` = 10"},
		{"SELECT %2$n, %1$n", []any{"a", "b"}, "SELECT `b`, `a`"},
		{"%q %Q", []any{"it's", "it's"}, `'it\'s' 'it's'`},
		{"%e|%E", []any{"a'_", "a'_"}, `a\'_|a\'\_`},
		{"%r", []any{"NOW()"}, "NOW()"},
		{"%t %z %Z", nil, "CURRENT_TIMESTAMP() 0000-00-00 00:00:00 '0000-00-00 00:00:00'"},
		{"%n %t %n", []any{"a", "b"}, "`a` CURRENT_TIMESTAMP() `b`"},
		{"%y %Y", []any{"2024-01-01", "created"}, "YEAR('2024-01-01') YEAR(`created`)"},
		{"%m%M%d%D%h%H%i%I%s%S", []any{"v", "c", "v", "c", "v", "c", "v", "c", "v", "c"},
			"MONTH('v')MONTH(`c`)DAY('v')DAY(`c`)HOUR('v')HOUR(`c`)MINUTE('v')MINUTE(`c`)SECOND('v')SECOND(`c`)"},
		{"100%% %a", []any{"2.5"}, "100% 2.5"},
		{"%a", []any{1.5}, "1.5"},
	}
	for _, tt := range tests {
		got, err := q.Format(tt.tmpl, tt.args...)
		if err != nil {
			t.Errorf("Format(%q): %v", tt.tmpl, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Format(%q) = %q, want %q", tt.tmpl, got, tt.want)
		}
	}
}

func TestQuery_FormatErrors(t *testing.T) {
	d := &Driver{dialect: newTestDialect()}
	q := d.GetQuery(true)

	tests := []struct {
		tmpl string
		args []any
	}{
		{"%x", []any{"a"}},
		{"%n %n", []any{"a"}},
		{"%3$n", []any{"a"}},
		{"%0$n", []any{"a"}},
		{"%2n", []any{"a", "b"}},
		{"%a", []any{"ten"}},
		{"trailing %", nil},
	}
	for _, tt := range tests {
		_, err := q.Format(tt.tmpl, tt.args...)
		if !errors.Is(err, ErrFormat) {
			t.Errorf("Format(%q): expected format error, got %v", tt.tmpl, err)
		}
	}
}

func TestQuery_FormatEscapeWithoutDriver(t *testing.T) {
	_, err := newTestQuery().Format("%e", "x")
	if !errors.Is(err, ErrConfiguration) {
		t.Errorf("expected configuration error, got %v", err)
	}
}
