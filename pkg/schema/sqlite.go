package schema

import (
	"strings"

	"github.com/ruslano69/sqlkit/pkg/database"
)

// autoIndexPrefix names the indexes SQLite creates for UNIQUE and
// non-rowid PRIMARY KEY constraints; they cannot be dropped directly.
const autoIndexPrefix = "sqlite_autoindex_"

type sqliteSyntax struct {
	q *database.Query
}

func (s *sqliteSyntax) Family() string { return "sqlite" }

func (s *sqliteSyntax) ColumnChanged(live, want Field) bool {
	return !strings.EqualFold(live.Type, want.Type) || live.Null != want.Null || !defaultsEqual(live.Default, want.Default)
}

func (s *sqliteSyntax) column(f Field) string {
	sql := s.q.QuoteName(f.Field) + " " + f.Type
	if f.Null == "NO" {
		sql += " NOT NULL"
	}
	if f.Default != nil {
		v := *f.Default
		if !isNumeric(v) && !strings.EqualFold(v, "CURRENT_TIMESTAMP") && !strings.EqualFold(v, "NULL") {
			v = s.q.Quote(v)
		}
		sql += " DEFAULT " + v
	}
	return sql
}

// CreateTable turns PRI fields into the table's primary key and
// autoindex keys into UNIQUE constraints; other keys become indexes.
func (s *sqliteSyntax) CreateTable(t Table) ([]string, error) {
	defs := make([]string, 0, len(t.Fields)+1)
	var primary []string
	for _, f := range t.Fields {
		defs = append(defs, s.column(f))
		if f.Key == "PRI" {
			primary = append(primary, f.Field)
		}
	}
	if len(primary) > 0 {
		defs = append(defs, "PRIMARY KEY ("+strings.Join(quoteAll(s.q, primary), ", ")+")")
	}

	var indexes []string
	names, groups := keyLookup(t.Keys)
	for _, name := range names {
		group := groups[name]
		switch {
		case group[0].IsPrimary:
			// covered by the PRI fields
		case strings.HasPrefix(name, autoIndexPrefix):
			defs = append(defs, "UNIQUE ("+strings.Join(quoteAll(s.q, keyColumns(group)), ", ")+")")
		default:
			add, _ := s.AddKey(t.Name, group)
			indexes = append(indexes, add...)
		}
	}
	stmts := []string{"CREATE TABLE IF NOT EXISTS " + s.q.QuoteName(t.Name) + " (\n  " + strings.Join(defs, ",\n  ") + "\n)"}
	return append(stmts, indexes...), nil
}

func (s *sqliteSyntax) AddColumn(table string, f Field) []string {
	return []string{"ALTER TABLE " + s.q.QuoteName(table) + " ADD COLUMN " + s.column(f)}
}

func (s *sqliteSyntax) ChangeColumn(table string, _, want Field) ([]string, error) {
	return nil, database.Errorf(database.KindUnsupported, "ChangeColumn", "sqlite cannot alter column %s.%s", table, want.Field)
}

func (s *sqliteSyntax) DropColumn(table, name string) []string {
	return []string{"ALTER TABLE " + s.q.QuoteName(table) + " DROP COLUMN " + s.q.QuoteName(name)}
}

func (s *sqliteSyntax) AddKey(table string, group []Key) ([]string, error) {
	k := group[0]
	if k.IsPrimary || strings.HasPrefix(k.KeyName, autoIndexPrefix) {
		return nil, database.Errorf(database.KindUnsupported, "AddKey", "sqlite cannot add constraint %s to an existing table", k.KeyName)
	}
	unique := ""
	if k.NonUnique == 0 {
		unique = "UNIQUE "
	}
	return []string{"CREATE " + unique + "INDEX " + s.q.QuoteName(k.KeyName) + " ON " + s.q.QuoteName(table) +
		" (" + strings.Join(quoteAll(s.q, keyColumns(group)), ", ") + ")"}, nil
}

func (s *sqliteSyntax) DropKey(table string, group []Key) ([]string, error) {
	k := group[0]
	if k.IsPrimary || strings.HasPrefix(k.KeyName, autoIndexPrefix) {
		return nil, database.Errorf(database.KindUnsupported, "DropKey", "sqlite cannot drop constraint %s", k.KeyName)
	}
	return []string{"DROP INDEX " + s.q.QuoteName(k.KeyName)}, nil
}
