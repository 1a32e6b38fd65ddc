package database

import (
	"fmt"
	"strconv"
	"strings"
)

// Format expands a printf-like template:
//
//	%n quoted name      %q quoted string    %Q quoted, unescaped
//	%a number           %e escaped          %E escaped incl. wildcards
//	%r raw              %t current time     %z / %Z null date raw / quoted
//	%y %m %d %h %i %s   date part of a quoted value
//	%Y %M %D %H %I %S   date part of a quoted name
//
// Arguments are consumed in order unless a position is given (%2$n).
// %t, %z and %Z take no argument. %% is a literal percent.
func (q *Query) Format(template string, args ...any) (string, error) {
	var b strings.Builder
	next := 0

	for i := 0; i < len(template); i++ {
		c := template[i]
		if c != '%' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(template) {
			return "", Errorf(KindFormat, "Format", "dangling %% at end of template")
		}
		if template[i] == '%' {
			b.WriteByte('%')
			continue
		}

		index := -1
		if j := i; template[j] >= '0' && template[j] <= '9' {
			for j < len(template) && template[j] >= '0' && template[j] <= '9' {
				j++
			}
			if j >= len(template) || template[j] != '$' {
				return "", Errorf(KindFormat, "Format", "malformed positional specifier at offset %d", i-1)
			}
			n, _ := strconv.Atoi(template[i:j])
			if n < 1 {
				return "", Errorf(KindFormat, "Format", "argument positions start at 1")
			}
			index = n - 1
			i = j + 1
			if i >= len(template) {
				return "", Errorf(KindFormat, "Format", "missing conversion after position")
			}
		}

		verb := template[i]
		switch verb {
		case 't':
			b.WriteString(q.CurrentTimestamp())
			continue
		case 'z':
			b.WriteString(q.NullDate(false))
			continue
		case 'Z':
			b.WriteString(q.NullDate(true))
			continue
		}
		if !strings.ContainsRune("aeEnqQryYmMdDhHiIsS", rune(verb)) {
			return "", Errorf(KindFormat, "Format", "unknown conversion %%%c", verb)
		}

		if index < 0 {
			index = next
			next++
		}
		if index >= len(args) {
			return "", Errorf(KindFormat, "Format", "missing argument %d for %%%c", index+1, verb)
		}

		out, err := q.formatArg(verb, args[index])
		if err != nil {
			return "", err
		}
		b.WriteString(out)
	}
	return b.String(), nil
}

func (q *Query) formatArg(verb byte, arg any) (string, error) {
	s := fmt.Sprint(arg)
	switch verb {
	case 'a':
		return formatNumber(arg)
	case 'e', 'E':
		return q.Escape(s, verb == 'E')
	case 'n':
		return q.QuoteName(s), nil
	case 'q':
		return q.Quote(s), nil
	case 'Q':
		return q.QuoteRaw(s), nil
	case 'r':
		return s, nil
	case 'y':
		return q.Year(q.Quote(s)), nil
	case 'Y':
		return q.Year(q.QuoteName(s)), nil
	case 'm':
		return q.Month(q.Quote(s)), nil
	case 'M':
		return q.Month(q.QuoteName(s)), nil
	case 'd':
		return q.Day(q.Quote(s)), nil
	case 'D':
		return q.Day(q.QuoteName(s)), nil
	case 'h':
		return q.Hour(q.Quote(s)), nil
	case 'H':
		return q.Hour(q.QuoteName(s)), nil
	case 'i':
		return q.Minute(q.Quote(s)), nil
	case 'I':
		return q.Minute(q.QuoteName(s)), nil
	case 's':
		return q.Second(q.Quote(s)), nil
	case 'S':
		return q.Second(q.QuoteName(s)), nil
	}
	return "", Errorf(KindFormat, "Format", "unknown conversion %%%c", verb)
}

func formatNumber(arg any) (string, error) {
	switch v := arg.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(v), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case string:
		if _, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return strings.TrimSpace(v), nil
		}
	}
	return "", Errorf(KindFormat, "Format", "%%a needs a number, got %T", arg)
}
