package database

import (
	"strings"
)

// String renders the query. Errors recorded by clause methods are
// dropped here; use Render to see them.
func (q *Query) String() string {
	s, _ := q.Render()
	return s
}

// Render returns the SQL for the query, or the first error recorded
// while it was built.
func (q *Query) Render() (string, error) {
	if q.err != nil {
		return "", q.err
	}
	if q.sql != "" {
		return q.sql, nil
	}

	var b strings.Builder
	switch q.typ {
	case TypeSelect:
		b.WriteString(elementString(q.selectE))
		b.WriteString(elementString(q.from))
		for _, j := range q.join {
			b.WriteString(j.String())
		}
		b.WriteString(elementString(q.where))
		b.WriteString(elementString(q.group))
		b.WriteString(elementString(q.having))
		if q.union == nil {
			b.WriteString(elementString(q.order))
		} else {
			b.WriteString("\n")
			b.WriteString(q.union.String())
		}

	case TypeUnion:
		b.WriteString(elementString(q.union))
		b.WriteString(elementString(q.order))

	case TypeDelete:
		b.WriteString(elementString(q.deleteE))
		b.WriteString(elementString(q.from))
		for _, j := range q.join {
			b.WriteString(j.String())
		}
		b.WriteString(elementString(q.where))

	case TypeUpdate:
		b.WriteString(elementString(q.updateE))
		for _, j := range q.join {
			b.WriteString(j.String())
		}
		b.WriteString(elementString(q.set))
		b.WriteString(elementString(q.where))

	case TypeInsert:
		b.WriteString(elementString(q.insertE))
		switch {
		case q.set != nil:
			b.WriteString(q.set.String())
		case q.valuesQuery != nil:
			b.WriteString(elementString(q.columns))
			b.WriteString("( ")
			b.WriteString(q.valuesQuery.String())
			b.WriteString(" )")
		case q.values != nil:
			b.WriteString(elementString(q.columns))
			b.WriteString(" VALUES ")
			b.WriteString(q.values.String())
		}
		if q.autoIncrement != "" && q.dialect != nil {
			if r := q.dialect.Returning(q.QuoteName(q.autoIncrement)); r != "" {
				b.WriteString(r)
			}
		}

	case TypeCall:
		b.WriteString(elementString(q.call))

	case TypeExec:
		b.WriteString(elementString(q.exec))
	}

	sql := b.String()
	if (q.limit > 0 || q.offset > 0) && q.dialect != nil && (q.typ == TypeSelect || q.typ == TypeUnion) {
		sql = q.dialect.Limit(sql, q.limit, q.offset)
	}
	return sql, nil
}

// returnsID reports whether the rendered insert yields the generated key.
func (q *Query) returnsID() bool {
	return q.typ == TypeInsert && q.autoIncrement != "" && q.dialect != nil &&
		q.dialect.Returning(q.QuoteName(q.autoIncrement)) != ""
}
