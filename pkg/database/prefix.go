package database

import (
	"strings"
)

// DefaultPlaceholder is the table prefix marker used in SQL templates.
const DefaultPlaceholder = "#__"

// ReplacePrefix substitutes the placeholder with the configured table
// prefix outside string literals. Which characters open a literal is
// decided by the dialect: MySQL and SQLite treat both quote kinds as
// literals, the ANSI engines only single quotes. Only MySQL lets a
// backslash escape the closing quote.
func (d *Driver) ReplacePrefix(sql, placeholder string) string {
	if placeholder == "" {
		placeholder = DefaultPlaceholder
	}
	return replacePrefix(sql, placeholder, d.prefix, d.dialect.LiteralQuotes(), d.dialect.BackslashEscapes())
}

func replacePrefix(sql, placeholder, prefix, quotes string, backslash bool) string {
	sql = strings.TrimSpace(sql)
	n := len(sql)

	var out strings.Builder
	start := 0
	for start < n {
		if !strings.Contains(sql[start:], placeholder) {
			break
		}

		// next literal opener
		j := strings.IndexAny(sql[start:], quotes)
		if j < 0 {
			j = n
		} else {
			j += start
		}
		out.WriteString(strings.ReplaceAll(sql[start:j], placeholder, prefix))
		start = j
		if j+1 >= n {
			break
		}

		quote := sql[j]
		k := literalEnd(sql, j+1, quote, backslash)
		if k < 0 {
			// unterminated literal, copied as is
			break
		}
		out.WriteString(sql[start : k+1])
		start = k + 1
	}
	if start < n {
		out.WriteString(sql[start:])
	}
	return out.String()
}

// literalEnd finds the closing quote at or after from, -1 when there
// is none. A doubled quote closes one literal and opens the next.
func literalEnd(sql string, from int, quote byte, backslash bool) int {
	for from < len(sql) {
		k := strings.IndexByte(sql[from:], quote)
		if k < 0 {
			return -1
		}
		k += from
		if !backslash {
			return k
		}
		escaped := false
		for l := k - 1; l >= 0 && sql[l] == '\\'; l-- {
			escaped = !escaped
		}
		if !escaped {
			return k
		}
		from = k + 1
	}
	return -1
}

// SplitSQL splits a script into single statements. Comments (--, #
// and /* */ except optimizer hints) are dropped, quoted text is kept
// intact and every statement ends with a semicolon.
func SplitSQL(sql string) []string {
	var (
		out []string
		cur strings.Builder
	)
	flush := func() {
		s := strings.TrimSpace(cur.String())
		cur.Reset()
		if s == "" || s == ";" {
			return
		}
		if !strings.HasSuffix(s, ";") {
			s += ";"
		}
		out = append(out, s)
	}

	n := len(sql)
	for i := 0; i < n; i++ {
		c := sql[i]
		switch {
		case c == '\'' || c == '"':
			j := i + 1
			for j < n && sql[j] != c {
				if sql[j] == '\\' {
					j++
				}
				j++
			}
			if j >= n {
				j = n - 1
			}
			cur.WriteString(sql[i : j+1])
			i = j

		case c == '-' && strings.HasPrefix(sql[i:], "--"),
			c == '#' && !strings.HasPrefix(sql[i:], DefaultPlaceholder):
			nl := strings.IndexByte(sql[i:], '\n')
			if nl < 0 {
				i = n
				continue
			}
			i += nl
			cur.WriteByte('\n')

		case c == '/' && strings.HasPrefix(sql[i:], "/*") &&
			!strings.HasPrefix(sql[i:], "/*!") && !strings.HasPrefix(sql[i:], "/*+"):
			end := strings.Index(sql[i+2:], "*/")
			if end < 0 {
				i = n
				continue
			}
			i += 2 + end + 1

		case c == ';':
			cur.WriteByte(c)
			flush()

		default:
			cur.WriteByte(c)
		}
	}
	flush()
	return out
}
