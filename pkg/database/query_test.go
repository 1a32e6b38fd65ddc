package database

import (
	"errors"
	"strings"
	"testing"
)

func newTestQuery() *Query {
	return NewQuery(newTestDialect())
}

func TestQuery_Select(t *testing.T) {
	q := newTestQuery().
		Select("a.id", "a.title").
		From("#__content AS a").
		InnerJoin("#__categories AS c ON c.id = a.catid").
		Where("a.state = 1", "c.published = 1").
		Group("a.id").
		Having("COUNT(*) > 1").
		Order("a.title ASC")

	want := "\nSELECT a.id,\n\ta.title" +
		"\nFROM #__content AS a" +
		"\nINNER JOIN #__categories AS c ON c.id = a.catid" +
		"\nWHERE a.state = 1 AND \n\tc.published = 1" +
		"\nGROUP BY a.id" +
		"\nHAVING COUNT(*) > 1" +
		"\nORDER BY a.title ASC"
	if got := q.String(); got != want {
		t.Errorf("got %q\nwant %q", got, want)
	}
}

func TestQuery_RepeatedCallsAppend(t *testing.T) {
	q := newTestQuery().Select("a").Select("b").From("t1").From("t2")
	if got := q.String(); got != "\nSELECT a,\n\tb\nFROM t1,\n\tt2" {
		t.Errorf("got %q", got)
	}
}

func TestQuery_WhereGlue(t *testing.T) {
	q := newTestQuery().Select("*").From("t").WhereGlue("or", "a = 1", "b = 2").Where("c = 3")
	if got := q.String(); got != "\nSELECT *\nFROM t\nWHERE a = 1 OR \n\tb = 2 OR \n\tc = 3" {
		t.Errorf("got %q", got)
	}
}

func TestQuery_Insert(t *testing.T) {
	q := newTestQuery().Insert("#__foo").Columns("id", "title").Values("1,'a'", "2,'b'")
	if got := q.String(); got != "\nINSERT INTO #__foo(id,title) VALUES (1,'a'),(2,'b')" {
		t.Errorf("got %q", got)
	}

	q = newTestQuery().Insert("#__foo").Set("title = 'a'")
	if got := q.String(); got != "\nINSERT INTO #__foo\nSET title = 'a'" {
		t.Errorf("got %q", got)
	}
}

func TestQuery_InsertSubquery(t *testing.T) {
	sub := newTestQuery().Select("id").From("#__old")
	q := newTestQuery().Insert("#__new").Columns("id").ValuesSubquery(sub)
	if got := q.String(); got != "\nINSERT INTO #__new(id)( \nSELECT id\nFROM #__old )" {
		t.Errorf("got %q", got)
	}
	if strings.Contains(q.String(), "VALUES") {
		t.Error("subquery insert must not render VALUES")
	}
}

func TestQuery_UpdateDelete(t *testing.T) {
	q := newTestQuery().Update("#__foo").Set("a = 1", "b = 2").Where("id = 3")
	if got := q.String(); got != "\nUPDATE #__foo\nSET a = 1,\n\tb = 2\nWHERE id = 3" {
		t.Errorf("update got %q", got)
	}

	q = newTestQuery().Delete("#__foo").Where("id = 3")
	if got := q.String(); got != "\nDELETE\nFROM #__foo\nWHERE id = 3" {
		t.Errorf("delete got %q", got)
	}
}

func TestQuery_FromSubquery(t *testing.T) {
	sub := newTestQuery().Select("id").From("t")
	q := newTestQuery().Select("*").FromSubquery(sub, "s")
	if got := q.String(); got != "\nSELECT *\nFROM ( \nSELECT id\nFROM t ) AS `s`" {
		t.Errorf("got %q", got)
	}

	q = newTestQuery().Select("*").FromSubquery(sub, "")
	if _, err := q.Render(); !errors.Is(err, ErrConfiguration) {
		t.Errorf("expected configuration error, got %v", err)
	}
}

func TestQuery_Union(t *testing.T) {
	u1 := newTestQuery().Select("id").From("a")
	q := newTestQuery().Select("id").From("b").Order("id").Union(u1)

	if q.OrderClause() != nil {
		t.Error("Union must clear ORDER BY")
	}
	if q.Type() != TypeSelect {
		t.Errorf("type = %q, want select", q.Type())
	}
	want := "\nSELECT id\nFROM b\nUNION (\nSELECT id\nFROM a)"
	if got := q.String(); got != want {
		t.Errorf("got %q\nwant %q", got, want)
	}

	u := newTestQuery().Union(u1).UnionDistinct(newTestQuery().Select("id").From("c"))
	if u.Type() != TypeUnion {
		t.Errorf("type = %q, want union", u.Type())
	}
}

func TestQuery_UnionSelf(t *testing.T) {
	q := newTestQuery().Select("id").From("a")
	q.Union(q)
	// the union holds a snapshot, rendering terminates
	if got := q.String(); got != "\nSELECT id\nFROM a\nUNION (\nSELECT id\nFROM a)" {
		t.Errorf("got %q", got)
	}
}

func TestQuery_CallExec(t *testing.T) {
	if got := newTestQuery().Call("foo(1)").String(); got != "\nCALL foo(1)" {
		t.Errorf("call got %q", got)
	}
	if got := newTestQuery().Exec("sp_who").String(); got != "\nEXEC sp_who" {
		t.Errorf("exec got %q", got)
	}
}

func TestQuery_SetLimit(t *testing.T) {
	q := newTestQuery().Select("*").From("t").SetLimit(10, 5)
	if got := q.String(); got != "\nSELECT *\nFROM t\nLIMIT 5, 10" {
		t.Errorf("got %q", got)
	}
}

func fullQuery() *Query {
	return newTestQuery().
		Select("s").From("f").InnerJoin("j").Where("w").Group("g").Having("h").Order("o").
		Columns("c").Values("v").Set("st").Call("ca").Exec("ex").
		Union(newTestQuery().Select("u"))
}

func TestQuery_ClearAll(t *testing.T) {
	q := fullQuery().Insert("i").Update("u").Delete()
	q.Clear()

	if q.Type() != "" {
		t.Errorf("type = %q", q.Type())
	}
	for name, e := range map[string]*Element{
		"select": q.SelectClause(), "insert": q.InsertClause(), "update": q.UpdateClause(),
		"delete": q.DeleteClause(), "from": q.FromClause(), "where": q.WhereClause(),
		"group": q.GroupClause(), "having": q.HavingClause(), "order": q.OrderClause(),
		"set": q.SetClause(), "columns": q.ColumnsClause(), "values": q.ValuesClause(),
		"union": q.UnionClause(), "call": q.CallClause(), "exec": q.ExecClause(),
	} {
		if e != nil {
			t.Errorf("%s not cleared", name)
		}
	}
	if len(q.JoinClauses()) != 0 {
		t.Error("join not cleared")
	}
	if q.String() != "" {
		t.Errorf("cleared query renders %q", q.String())
	}
}

func TestQuery_ClearSelectKeepsOtherClauses(t *testing.T) {
	q := fullQuery().Select("s2")
	q.Clear("select")

	if q.Type() != "" || q.SelectClause() != nil {
		t.Error("select type and clause should be cleared")
	}
	kept := map[string]*Element{
		"from": q.FromClause(), "where": q.WhereClause(), "group": q.GroupClause(),
		"having": q.HavingClause(), "columns": q.ColumnsClause(), "values": q.ValuesClause(),
		"union": q.UnionClause(), "call": q.CallClause(), "exec": q.ExecClause(),
	}
	for name, e := range kept {
		if e == nil {
			t.Errorf("%s must survive clear(select)", name)
		}
	}
	if len(q.JoinClauses()) != 1 {
		t.Error("join must survive clear(select)")
	}
}

func TestQuery_ClearOrderSurvivesClearSelect(t *testing.T) {
	q := newTestQuery().Select("a").From("t").Order("a")
	q.Clear("select")
	if q.OrderClause() == nil {
		t.Error("order must survive clear(select)")
	}
}

func TestQuery_ClearInsertKeepsUpdateClauses(t *testing.T) {
	q := newTestQuery().Update("u").Set("a = 1").Where("id = 1")
	q.Insert("i", "id").Columns("a").Values("1")
	q.Clear("insert")

	if q.InsertClause() != nil || q.Type() != "" || q.ReturningField() != "" {
		t.Error("insert not cleared")
	}
	if q.UpdateClause() == nil || q.SetClause() == nil || q.WhereClause() == nil {
		t.Error("update clauses must survive clear(insert)")
	}
	if q.ColumnsClause() == nil || q.ValuesClause() == nil {
		t.Error("columns and values are cleared by name only")
	}
}

func TestQuery_ClearUnion(t *testing.T) {
	q := newTestQuery().Select("a").Union(newTestQuery().Select("b"))
	q.Clear("union")
	if q.UnionClause() != nil {
		t.Error("union not cleared")
	}
	if q.Type() != TypeSelect {
		t.Errorf("select type must survive clear(union), got %q", q.Type())
	}

	u := newTestQuery().Union(newTestQuery().Select("b"))
	u.Clear("union")
	if u.Type() != "" {
		t.Errorf("union type must be cleared, got %q", u.Type())
	}
}

func TestQuery_ClearUnknown(t *testing.T) {
	q := newTestQuery().Select("a").Clear("nonsense")
	if !errors.Is(q.Err(), ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", q.Err())
	}
	if _, err := q.Render(); err == nil {
		t.Error("Render must return the recorded error")
	}
}

func TestQuery_CloneIsDeep(t *testing.T) {
	q := fullQuery().Select("s")
	before := q.String()
	c := q.Clone()

	c.Select("extra").Where("more").InnerJoin("j2")
	c.FromClause().Append("f2")

	if q.String() != before {
		t.Errorf("original changed:\n%q\n%q", before, q.String())
	}
	if c.String() == before {
		t.Error("clone did not change")
	}
}

func TestQuery_CloneSharesDriver(t *testing.T) {
	d := &Driver{dialect: newTestDialect()}
	q := d.GetQuery(true).Select("a")
	if q.Clone().Driver() != d {
		t.Error("clone must share the driver")
	}
}

func TestQuery_RenderIdempotent(t *testing.T) {
	q := fullQuery().SetLimit(3, 1)
	if q.String() != q.String() {
		t.Error("rendering twice differs")
	}
	i := newTestQuery().Insert("t", "id").Columns("a").Values("1")
	if i.String() != i.String() {
		t.Error("insert rendering twice differs")
	}
}

func TestQuery_SetSQL(t *testing.T) {
	q := newTestQuery().Select("a").SetSQL("SELECT 1")
	if q.String() != "SELECT 1" {
		t.Errorf("got %q", q.String())
	}
}

func TestQuery_Quoting(t *testing.T) {
	q := newTestQuery()

	if got := q.QuoteName("a.b"); got != q.QuoteName("a")+"."+q.QuoteName("b") {
		t.Errorf("segment quoting: %q", got)
	}
	if got := q.QuoteNameAs("a.b", "c"); got != "`a`.`b` AS `c`" {
		t.Errorf("QuoteNameAs = %q", got)
	}
	if got := q.Quote("it's"); got != `'it\'s'` {
		t.Errorf("Quote = %q", got)
	}
	if got := q.QuoteRaw("it's"); got != "'it's'" {
		t.Errorf("QuoteRaw = %q", got)
	}
	if got := q.QuoteStrings([]string{"a", "b"}); got[0] != "'a'" || got[1] != "'b'" {
		t.Errorf("QuoteStrings = %v", got)
	}

	names, err := q.QuoteNames([]string{"a", "b"}, []string{"x", ""})
	if err != nil {
		t.Fatalf("QuoteNames: %v", err)
	}
	if names[0] != "`a` AS `x`" || names[1] != "`b`" {
		t.Errorf("QuoteNames = %v", names)
	}
	if _, err := q.QuoteNames([]string{"a", "b"}, []string{"x"}); !errors.Is(err, ErrConfiguration) {
		t.Errorf("expected configuration error, got %v", err)
	}
}

func TestQuery_EscapeNeedsDriver(t *testing.T) {
	if _, err := newTestQuery().Escape("x", false); !errors.Is(err, ErrConfiguration) {
		t.Errorf("expected configuration error, got %v", err)
	}

	d := &Driver{dialect: newTestDialect()}
	got, err := d.GetQuery(true).Escape("'%_abc123", true)
	if err != nil {
		t.Fatalf("Escape: %v", err)
	}
	if got != `\'\%\_abc123` {
		t.Errorf("Escape = %q", got)
	}
}

func TestQuery_Helpers(t *testing.T) {
	q := newTestQuery()

	tests := []struct{ got, want string }{
		{q.NullDate(false), "0000-00-00 00:00:00"},
		{q.NullDate(true), "'0000-00-00 00:00:00'"},
		{q.DateFormat(), "Y-m-d H:i:s"},
		{q.CurrentTimestamp(), "CURRENT_TIMESTAMP()"},
		{q.CharLength("a", ">", "3"), "CHAR_LENGTH(a) > 3"},
		{q.CharLength("a", "", ""), "CHAR_LENGTH(a)"},
		{q.Concatenate([]string{"a", "b"}, ""), "CONCAT(a, b)"},
		{q.Concatenate([]string{"a", "b"}, " "), "CONCAT_WS(' ', a, b)"},
		{q.Length("a"), "LENGTH(a)"},
		{q.Year("d") + q.Month("d") + q.Day("d"), "YEAR(d)MONTH(d)DAY(d)"},
		{q.Hour("d") + q.Minute("d") + q.Second("d"), "HOUR(d)MINUTE(d)SECOND(d)"},
		{q.CastAsChar("a"), "a"},
	}
	for i, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("#%d: got %q, want %q", i, tt.got, tt.want)
		}
	}
}
