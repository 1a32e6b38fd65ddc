package database

import (
	"strings"
)

// QueryType is the statement shape a Query renders.
type QueryType string

const (
	TypeSelect QueryType = "select"
	TypeInsert QueryType = "insert"
	TypeUpdate QueryType = "update"
	TypeDelete QueryType = "delete"
	TypeUnion  QueryType = "union"
	TypeCall   QueryType = "call"
	TypeExec   QueryType = "exec"
)

// Query is a fluent SQL builder bound to a dialect and, optionally, to
// the driver it was obtained from. Clause methods append to the clause
// and return the query.
type Query struct {
	driver  *Driver
	dialect Syntax

	sql string
	typ QueryType

	selectE *Element
	deleteE *Element
	updateE *Element
	insertE *Element
	from    *Element
	join    []*Element
	set     *Element
	where   *Element
	group   *Element
	having  *Element
	order   *Element
	columns *Element
	values  *Element
	union   *Element
	call    *Element
	exec    *Element

	valuesQuery   *Query
	autoIncrement string
	limit, offset int
	err           error
}

// NewQuery returns a query rendering for dialect s with no driver attached.
func NewQuery(s Syntax) *Query {
	return &Query{dialect: s}
}

func newDriverQuery(d *Driver) *Query {
	return &Query{driver: d, dialect: d.dialect}
}

// Driver returns the attached driver, nil when the query is detached.
func (q *Query) Driver() *Driver   { return q.driver }
func (q *Query) Dialect() Syntax   { return q.dialect }
func (q *Query) Type() QueryType   { return q.typ }
func (q *Query) Err() error        { return q.err }
func (q *Query) Limit() (int, int) { return q.limit, q.offset }

// The clause accessors return the element behind each clause, nil
// when the clause is unset.
func (q *Query) SelectClause() *Element  { return q.selectE }
func (q *Query) DeleteClause() *Element  { return q.deleteE }
func (q *Query) UpdateClause() *Element  { return q.updateE }
func (q *Query) InsertClause() *Element  { return q.insertE }
func (q *Query) FromClause() *Element    { return q.from }
func (q *Query) SetClause() *Element     { return q.set }
func (q *Query) WhereClause() *Element   { return q.where }
func (q *Query) GroupClause() *Element   { return q.group }
func (q *Query) HavingClause() *Element  { return q.having }
func (q *Query) OrderClause() *Element   { return q.order }
func (q *Query) ColumnsClause() *Element { return q.columns }
func (q *Query) ValuesClause() *Element  { return q.values }
func (q *Query) UnionClause() *Element   { return q.union }
func (q *Query) CallClause() *Element    { return q.call }
func (q *Query) ExecClause() *Element    { return q.exec }
func (q *Query) ReturningField() string  { return q.autoIncrement }

// JoinClauses returns a copy of the join list.
func (q *Query) JoinClauses() []*Element {
	out := make([]*Element, len(q.join))
	copy(out, q.join)
	return out
}

// SetSQL stores raw SQL that String returns verbatim.
func (q *Query) SetSQL(sql string) *Query {
	q.sql = sql
	return q
}

func appendTo(e **Element, name, glue string, parts ...any) {
	if *e == nil {
		*e = NewElement(name, parts, glue)
		return
	}
	(*e).Append(parts...)
}

// Select adds columns to the SELECT clause and makes this a select.
func (q *Query) Select(columns ...string) *Query {
	q.typ = TypeSelect
	appendTo(&q.selectE, "SELECT", ",", columns)
	return q
}

// Delete starts a delete; the optional table becomes the FROM clause.
func (q *Query) Delete(table ...string) *Query {
	q.typ = TypeDelete
	q.deleteE = NewElement("DELETE", nil, ",")
	if len(table) > 0 {
		q.From(table...)
	}
	return q
}

// Update starts an update of table.
func (q *Query) Update(table string) *Query {
	q.typ = TypeUpdate
	q.updateE = NewElement("UPDATE", table, ",")
	return q
}

// Insert starts an insert into table. incrementField names the
// auto-increment column reported back on dialects supporting RETURNING.
func (q *Query) Insert(table string, incrementField ...string) *Query {
	q.typ = TypeInsert
	q.insertE = NewElement("INSERT INTO", table, ",")
	if len(incrementField) > 0 {
		q.autoIncrement = incrementField[0]
	}
	return q
}

// From adds tables to the FROM clause.
func (q *Query) From(tables ...string) *Query {
	appendTo(&q.from, "FROM", ",", tables)
	return q
}

// FromSubquery adds sub as a derived table. The alias is mandatory.
func (q *Query) FromSubquery(sub *Query, alias string) *Query {
	if alias == "" {
		q.fail(Errorf(KindConfiguration, "From", "a subquery needs an alias"))
		return q
	}
	return q.From("( " + sub.String() + " ) AS " + q.QuoteName(alias))
}

// Join adds a join of the given kind ("INNER", "LEFT", ... or "").
func (q *Query) Join(kind string, conditions ...string) *Query {
	name := "JOIN"
	if kind != "" {
		name = strings.ToUpper(kind) + " JOIN"
	}
	q.join = append(q.join, NewElement(name, conditions, ","))
	return q
}

// InnerJoin, OuterJoin, LeftJoin and RightJoin are Join with the kind
// filled in.
func (q *Query) InnerJoin(condition string) *Query { return q.Join("INNER", condition) }
func (q *Query) OuterJoin(condition string) *Query { return q.Join("OUTER", condition) }
func (q *Query) LeftJoin(condition string) *Query  { return q.Join("LEFT", condition) }
func (q *Query) RightJoin(condition string) *Query { return q.Join("RIGHT", condition) }

// Where adds conditions joined with AND.
func (q *Query) Where(conditions ...string) *Query {
	return q.WhereGlue("AND", conditions...)
}

// WhereGlue adds conditions. The glue only applies when the WHERE
// clause is created; later calls reuse it.
func (q *Query) WhereGlue(glue string, conditions ...string) *Query {
	appendTo(&q.where, "WHERE", " "+strings.ToUpper(strings.TrimSpace(glue))+" ", conditions)
	return q
}

// Group adds GROUP BY columns.
func (q *Query) Group(columns ...string) *Query {
	appendTo(&q.group, "GROUP BY", ",", columns)
	return q
}

// Having adds conditions joined with AND.
func (q *Query) Having(conditions ...string) *Query {
	appendTo(&q.having, "HAVING", " AND ", conditions)
	return q
}

// Order adds ORDER BY columns.
func (q *Query) Order(columns ...string) *Query {
	appendTo(&q.order, "ORDER BY", ",", columns)
	return q
}

// Set adds assignments to an update.
func (q *Query) Set(conditions ...string) *Query {
	appendTo(&q.set, "SET", ",", conditions)
	return q
}

// Columns lists the insert columns.
func (q *Query) Columns(columns ...string) *Query {
	appendTo(&q.columns, "()", ",", columns)
	return q
}

// Values adds one or more comma separated rows.
func (q *Query) Values(rows ...string) *Query {
	appendTo(&q.values, "()", "),(", rows)
	return q
}

// ValuesSubquery makes the insert read its rows from sub.
func (q *Query) ValuesSubquery(sub *Query) *Query {
	q.valuesQuery = sub.Clone()
	return q
}

// Union appends queries combined with UNION. ORDER BY is cleared.
func (q *Query) Union(queries ...any) *Query {
	return q.addUnion("UNION ()", ")\nUNION (", queries)
}

// UnionDistinct appends queries combined with UNION DISTINCT.
func (q *Query) UnionDistinct(queries ...any) *Query {
	return q.addUnion("UNION DISTINCT ()", ")\nUNION DISTINCT (", queries)
}

func (q *Query) addUnion(name, glue string, queries []any) *Query {
	q.order = nil
	if q.typ == "" {
		q.typ = TypeUnion
	}
	parts := make([]any, 0, len(queries))
	for _, u := range queries {
		if sub, ok := u.(*Query); ok {
			u = sub.Clone()
		}
		parts = append(parts, u)
	}
	appendTo(&q.union, name, glue, parts...)
	return q
}

// Call makes this a CALL of the given procedures.
func (q *Query) Call(procedures ...string) *Query {
	q.typ = TypeCall
	appendTo(&q.call, "CALL", ",", procedures)
	return q
}

// Exec makes this an EXEC of the given procedures.
func (q *Query) Exec(procedures ...string) *Query {
	q.typ = TypeExec
	appendTo(&q.exec, "EXEC", ",", procedures)
	return q
}

// Returning sets the field reported back by an insert.
func (q *Query) Returning(field string) *Query {
	q.autoIncrement = field
	return q
}

// SetLimit stores a row limit and offset applied when the query is
// rendered for execution.
func (q *Query) SetLimit(limit, offset int) *Query {
	q.limit, q.offset = limit, offset
	return q
}

// Clear resets the whole query, or only the named clauses. A statement
// type name clears the type marker with its head clause; other clauses
// are left in place so the query can be reused for another statement.
func (q *Query) Clear(names ...string) *Query {
	if len(names) == 0 {
		*q = Query{driver: q.driver, dialect: q.dialect}
		return q
	}
	for _, name := range names {
		switch name {
		case "select":
			q.selectE = nil
			q.clearType(TypeSelect)
		case "delete":
			q.deleteE = nil
			q.clearType(TypeDelete)
		case "update":
			q.updateE = nil
			q.clearType(TypeUpdate)
		case "insert":
			q.insertE = nil
			q.autoIncrement = ""
			q.clearType(TypeInsert)
		case "union":
			q.union = nil
			q.clearType(TypeUnion)
		case "call":
			q.call = nil
			q.clearType(TypeCall)
		case "exec":
			q.exec = nil
			q.clearType(TypeExec)
		case "from":
			q.from = nil
		case "join":
			q.join = nil
		case "set":
			q.set = nil
		case "where":
			q.where = nil
		case "group":
			q.group = nil
		case "having":
			q.having = nil
		case "order":
			q.order = nil
		case "columns":
			q.columns = nil
		case "values":
			q.values = nil
			q.valuesQuery = nil
		case "limit":
			q.limit, q.offset = 0, 0
		case "sql":
			q.sql = ""
		default:
			q.fail(Errorf(KindConfiguration, "Clear", "unknown clause %q", name))
		}
	}
	return q
}

// clearType drops the type marker. select/insert/update/delete always
// reset it, union/call/exec only when they own it.
func (q *Query) clearType(t QueryType) {
	switch t {
	case TypeSelect, TypeInsert, TypeUpdate, TypeDelete:
		q.typ = ""
	default:
		if q.typ == t {
			q.typ = ""
		}
	}
}

func (q *Query) fail(err error) {
	if q.err == nil {
		q.err = err
	}
}

// Clone deep-copies every clause; the driver stays shared.
func (q *Query) Clone() *Query {
	if q == nil {
		return nil
	}
	c := *q
	c.selectE = q.selectE.Clone()
	c.deleteE = q.deleteE.Clone()
	c.updateE = q.updateE.Clone()
	c.insertE = q.insertE.Clone()
	c.from = q.from.Clone()
	c.set = q.set.Clone()
	c.where = q.where.Clone()
	c.group = q.group.Clone()
	c.having = q.having.Clone()
	c.order = q.order.Clone()
	c.columns = q.columns.Clone()
	c.values = q.values.Clone()
	c.union = q.union.Clone()
	c.call = q.call.Clone()
	c.exec = q.exec.Clone()
	c.valuesQuery = q.valuesQuery.Clone()
	if q.join != nil {
		c.join = make([]*Element, len(q.join))
		for i, j := range q.join {
			c.join[i] = j.Clone()
		}
	}
	return &c
}
