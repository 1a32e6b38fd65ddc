package database

import (
	"fmt"
)

// Escape escapes text through the attached driver.
func (q *Query) Escape(text string, extra bool) (string, error) {
	if q.driver == nil {
		return "", Errorf(KindConfiguration, "Escape", "query has no driver attached")
	}
	return q.driver.Escape(text, extra), nil
}

func (q *Query) escape(text string) string {
	if q.driver != nil {
		return q.driver.Escape(text, false)
	}
	if q.dialect != nil {
		return q.dialect.Escape(text, false)
	}
	return EscapeDoubled(text, false)
}

// Quote escapes text and wraps it in single quotes.
func (q *Query) Quote(text string) string {
	return "'" + q.escape(text) + "'"
}

// QuoteRaw wraps text in single quotes without escaping.
func (q *Query) QuoteRaw(text string) string {
	return "'" + text + "'"
}

// QuoteStrings quotes every element of texts.
func (q *Query) QuoteStrings(texts []string) []string {
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = q.Quote(t)
	}
	return out
}

// QuoteName quotes an identifier with the dialect quotes. Without a
// dialect the name is returned as is.
func (q *Query) QuoteName(name string) string {
	if q.dialect == nil {
		return name
	}
	return q.dialect.QuoteName(name)
}

// QuoteNameAs quotes name and, when alias is set, appends AS alias.
func (q *Query) QuoteNameAs(name, alias string) string {
	if alias == "" {
		return q.QuoteName(name)
	}
	return q.QuoteName(name) + " AS " + q.QuoteName(alias)
}

// QuoteNames quotes every name. aliases, when given, must match names
// one to one; an empty alias leaves its name unaliased.
func (q *Query) QuoteNames(names, aliases []string) ([]string, error) {
	if aliases != nil && len(aliases) != len(names) {
		return nil, Errorf(KindConfiguration, "QuoteNames", "%d names but %d aliases", len(names), len(aliases))
	}
	out := make([]string, len(names))
	for i, n := range names {
		if aliases != nil {
			out[i] = q.QuoteNameAs(n, aliases[i])
		} else {
			out[i] = q.QuoteName(n)
		}
	}
	return out, nil
}

// NullDate returns the dialect's null date, quoted when asked.
func (q *Query) NullDate(quoted bool) string {
	nd := ""
	if q.dialect != nil {
		nd = q.dialect.NullDate()
	}
	if quoted {
		return q.Quote(nd)
	}
	return nd
}

// DateFormat is the dialect date layout, such as Y-m-d H:i:s.
func (q *Query) DateFormat() string { return q.dialect.DateFormat() }

// CurrentTimestamp renders the current time function.
func (q *Query) CurrentTimestamp() string { return q.dialect.CurrentTimestamp() }

// CharLength renders the character length of field, optionally
// compared: CharLength("a", ">", "3").
func (q *Query) CharLength(field, operator, condition string) string {
	s := q.dialect.CharLength(field)
	if operator != "" && condition != "" {
		s += " " + operator + " " + condition
	}
	return s
}

// Concatenate joins already quoted values, with an optional separator.
func (q *Query) Concatenate(values []string, separator string) string {
	if separator != "" {
		return q.dialect.Concatenate(values, q.Quote(separator))
	}
	return q.dialect.Concatenate(values, "")
}

// Length renders the byte length of value.
func (q *Query) Length(value string) string { return q.dialect.Length(value) }

// Year through Second extract one date part.
func (q *Query) Year(date string) string   { return q.dialect.DatePart(PartYear, date) }
func (q *Query) Month(date string) string  { return q.dialect.DatePart(PartMonth, date) }
func (q *Query) Day(date string) string    { return q.dialect.DatePart(PartDay, date) }
func (q *Query) Hour(date string) string   { return q.dialect.DatePart(PartHour, date) }
func (q *Query) Minute(date string) string { return q.dialect.DatePart(PartMinute, date) }
func (q *Query) Second(date string) string { return q.dialect.DatePart(PartSecond, date) }

// CastAsChar renders value cast to a character type.
func (q *Query) CastAsChar(value string) string { return q.dialect.CastAsChar(value) }

// quoteValue renders a Go value as an SQL literal.
func quoteValue(s Syntax, escape func(string) string, v any) string {
	switch x := v.(type) {
	case nil:
		return "''"
	case bool:
		return s.BoolLiteral(x)
	case string:
		return "'" + escape(x) + "'"
	case []byte:
		return "'" + escape(string(x)) + "'"
	}
	return "'" + escape(fmt.Sprint(v)) + "'"
}
