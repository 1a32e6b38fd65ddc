package schema

import (
	"strings"

	"github.com/ruslano69/sqlkit/pkg/database"
)

type postgresSyntax struct {
	q *database.Query
}

var (
	_ Syntax         = (*postgresSyntax)(nil)
	_ SequenceSyntax = (*postgresSyntax)(nil)
)

func (s *postgresSyntax) Family() string { return "postgresql" }

func (s *postgresSyntax) ColumnChanged(live, want Field) bool {
	return live.Type != want.Type || live.Null != want.Null || !defaultsEqual(live.Default, want.Default)
}

// defaultValue keeps expressions (nextval(...), now(), numbers,
// booleans) as written and quotes everything else.
func (s *postgresSyntax) defaultValue(v string) string {
	switch strings.ToLower(v) {
	case "true", "false", "null":
		return v
	}
	if isNumeric(v) || strings.Contains(v, "(") || strings.Contains(v, "::") {
		return v
	}
	return s.q.Quote(v)
}

func (s *postgresSyntax) column(f Field) string {
	sql := s.q.QuoteName(f.Field) + " " + f.Type
	if f.Null == "NO" {
		sql += " NOT NULL"
	}
	if f.Default != nil {
		sql += " DEFAULT " + s.defaultValue(*f.Default)
	}
	return sql
}

func (s *postgresSyntax) CreateTable(t Table) ([]string, error) {
	var stmts []string
	for _, seq := range t.Sequences {
		stmts = append(stmts, s.createSequence(seq))
	}

	defs := make([]string, 0, len(t.Fields))
	for _, f := range t.Fields {
		defs = append(defs, s.column(f))
	}
	stmts = append(stmts, "CREATE TABLE IF NOT EXISTS "+s.q.QuoteName(t.Name)+" (\n  "+strings.Join(defs, ",\n  ")+"\n)")

	for _, seq := range t.Sequences {
		stmts = append(stmts, s.OwnSequence(t.Name, seq)...)
	}
	names, groups := keyLookup(t.Keys)
	for _, name := range names {
		add, err := s.AddKey(t.Name, groups[name])
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, add...)
	}
	return stmts, nil
}

func (s *postgresSyntax) AddColumn(table string, f Field) []string {
	return []string{"ALTER TABLE " + s.q.QuoteName(table) + " ADD COLUMN " + s.column(f)}
}

// ChangeColumn alters type, default and nullability separately, only
// for what differs.
func (s *postgresSyntax) ChangeColumn(table string, live, want Field) ([]string, error) {
	alter := "ALTER TABLE " + s.q.QuoteName(table) + " ALTER COLUMN " + s.q.QuoteName(want.Field)
	var stmts []string
	if live.Type != want.Type {
		stmts = append(stmts, alter+" TYPE "+want.Type)
	}
	if !defaultsEqual(live.Default, want.Default) {
		if want.Default == nil {
			stmts = append(stmts, alter+" DROP DEFAULT")
		} else {
			stmts = append(stmts, alter+" SET DEFAULT "+s.defaultValue(*want.Default))
		}
	}
	if live.Null != want.Null {
		if want.Null == "NO" {
			stmts = append(stmts, alter+" SET NOT NULL")
		} else {
			stmts = append(stmts, alter+" DROP NOT NULL")
		}
	}
	return stmts, nil
}

func (s *postgresSyntax) DropColumn(table, name string) []string {
	return []string{"ALTER TABLE " + s.q.QuoteName(table) + " DROP COLUMN " + s.q.QuoteName(name)}
}

// AddKey uses the stored index definition when there is one. Primary
// keys are added as constraints.
func (s *postgresSyntax) AddKey(table string, group []Key) ([]string, error) {
	k := group[0]
	cols := strings.Join(quoteAll(s.q, keyColumns(group)), ", ")
	if k.IsPrimary {
		return []string{"ALTER TABLE " + s.q.QuoteName(table) + " ADD PRIMARY KEY (" + cols + ")"}, nil
	}
	if k.Query != "" {
		return []string{k.Query}, nil
	}
	unique := ""
	if k.NonUnique == 0 {
		unique = "UNIQUE "
	}
	return []string{"CREATE " + unique + "INDEX " + s.q.QuoteName(k.KeyName) + " ON " + s.q.QuoteName(table) + " (" + cols + ")"}, nil
}

func (s *postgresSyntax) DropKey(table string, group []Key) ([]string, error) {
	if group[0].IsPrimary {
		return []string{"ALTER TABLE " + s.q.QuoteName(table) + " DROP CONSTRAINT " + s.q.QuoteName(group[0].KeyName)}, nil
	}
	return []string{"DROP INDEX " + s.q.QuoteName(group[0].KeyName)}, nil
}

func (s *postgresSyntax) sequenceOptions(seq Sequence) string {
	var opts []string
	if seq.Increment != "" {
		opts = append(opts, "INCREMENT BY "+seq.Increment)
	}
	if seq.MinValue != "" {
		opts = append(opts, "MINVALUE "+seq.MinValue)
	}
	if seq.MaxValue != "" {
		opts = append(opts, "MAXVALUE "+seq.MaxValue)
	}
	if seq.StartValue != "" {
		opts = append(opts, "START "+seq.StartValue)
	}
	if strings.EqualFold(seq.CycleOption, "YES") {
		opts = append(opts, "CYCLE")
	} else {
		opts = append(opts, "NO CYCLE")
	}
	return strings.Join(opts, " ")
}

func (s *postgresSyntax) createSequence(seq Sequence) string {
	return "CREATE SEQUENCE IF NOT EXISTS " + s.q.QuoteName(seq.Name) + " " + s.sequenceOptions(seq)
}

func (s *postgresSyntax) CreateSequence(seq Sequence) []string {
	return []string{s.createSequence(seq)}
}

// OwnSequence ties a sequence to its column. The column must exist.
func (s *postgresSyntax) OwnSequence(table string, seq Sequence) []string {
	if seq.Column == "" {
		return nil
	}
	return []string{"ALTER SEQUENCE " + s.q.QuoteName(seq.Name) + " OWNED BY " + s.q.QuoteName(table+"."+seq.Column)}
}

// AlterSequence ignores the start value, which moves as the sequence
// is used.
func (s *postgresSyntax) AlterSequence(live, want Sequence) []string {
	if live.Increment == want.Increment && live.MinValue == want.MinValue &&
		live.MaxValue == want.MaxValue && strings.EqualFold(live.CycleOption, want.CycleOption) {
		return nil
	}
	want.StartValue = ""
	return []string{"ALTER SEQUENCE " + s.q.QuoteName(want.Name) + " " + s.sequenceOptions(want)}
}

func (s *postgresSyntax) DropSequence(seq Sequence) []string {
	return []string{"DROP SEQUENCE IF EXISTS " + s.q.QuoteName(seq.Name)}
}
