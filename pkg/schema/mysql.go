package schema

import (
	"strings"

	"github.com/ruslano69/sqlkit/pkg/database"
)

// blobTypes cannot carry a DEFAULT in MySQL.
var blobTypes = map[string]bool{
	"text": true, "tinytext": true, "mediumtext": true, "longtext": true,
	"blob": true, "tinyblob": true, "mediumblob": true, "longblob": true,
	"json": true,
}

type mysqlSyntax struct {
	q *database.Query
}

func (s *mysqlSyntax) Family() string { return "mysql" }

func (s *mysqlSyntax) ColumnChanged(live, want Field) bool {
	return !strings.EqualFold(live.Type, want.Type) ||
		live.Null != want.Null ||
		!defaultsEqual(live.Default, want.Default) ||
		!strings.EqualFold(mysqlExtra(live.Extra), mysqlExtra(want.Extra))
}

// mysqlExtra drops the DEFAULT_GENERATED marker MySQL 8 reports for
// expression defaults.
func mysqlExtra(extra string) string {
	return strings.TrimSpace(strings.ReplaceAll(extra, "DEFAULT_GENERATED", ""))
}

func (s *mysqlSyntax) column(f Field) string {
	sql := s.q.QuoteName(f.Field) + " " + f.Type
	noDefault := blobTypes[strings.ToLower(strings.Fields(f.Type + " x")[0])]

	if f.Null == "NO" {
		sql += " NOT NULL"
		if f.Default != nil && !noDefault {
			sql += " DEFAULT " + s.defaultValue(*f.Default)
		}
	} else {
		if f.Default == nil {
			sql += " DEFAULT NULL"
		} else if !noDefault {
			sql += " DEFAULT " + s.defaultValue(*f.Default)
		}
	}
	if extra := mysqlExtra(f.Extra); extra != "" {
		sql += " " + strings.ToUpper(extra)
	}
	if f.Comment != "" {
		sql += " COMMENT " + s.q.Quote(f.Comment)
	}
	return sql
}

func (s *mysqlSyntax) defaultValue(v string) string {
	if strings.HasPrefix(strings.ToUpper(v), "CURRENT_TIMESTAMP") {
		return v
	}
	return s.q.Quote(v)
}

func (s *mysqlSyntax) key(group []Key) string {
	k := group[0]
	prefix := ""
	if k.KeyName == "PRIMARY" {
		prefix = "PRIMARY "
	} else if k.NonUnique == 0 {
		prefix = "UNIQUE "
	}
	name := ""
	if k.KeyName != "PRIMARY" {
		name = s.q.QuoteName(k.KeyName) + " "
	}
	return prefix + "KEY " + name + "(" + strings.Join(quoteAll(s.q, keyColumns(group)), ",") + ")"
}

func (s *mysqlSyntax) CreateTable(t Table) ([]string, error) {
	defs := make([]string, 0, len(t.Fields))
	for _, f := range t.Fields {
		defs = append(defs, s.column(f))
	}
	names, groups := keyLookup(t.Keys)
	for _, name := range names {
		defs = append(defs, s.key(groups[name]))
	}
	return []string{"CREATE TABLE IF NOT EXISTS " + s.q.QuoteName(t.Name) + " (\n  " +
		strings.Join(defs, ",\n  ") + "\n) DEFAULT CHARSET=utf8mb4"}, nil
}

func (s *mysqlSyntax) AddColumn(table string, f Field) []string {
	return []string{"ALTER TABLE " + s.q.QuoteName(table) + " ADD COLUMN " + s.column(f)}
}

func (s *mysqlSyntax) ChangeColumn(table string, _, want Field) ([]string, error) {
	return []string{"ALTER TABLE " + s.q.QuoteName(table) + " CHANGE COLUMN " +
		s.q.QuoteName(want.Field) + " " + s.column(want)}, nil
}

func (s *mysqlSyntax) DropColumn(table, name string) []string {
	return []string{"ALTER TABLE " + s.q.QuoteName(table) + " DROP COLUMN " + s.q.QuoteName(name)}
}

func (s *mysqlSyntax) AddKey(table string, group []Key) ([]string, error) {
	return []string{"ALTER TABLE " + s.q.QuoteName(table) + " ADD " + s.key(group)}, nil
}

func (s *mysqlSyntax) DropKey(table string, group []Key) ([]string, error) {
	if group[0].KeyName == "PRIMARY" {
		return []string{"ALTER TABLE " + s.q.QuoteName(table) + " DROP PRIMARY KEY"}, nil
	}
	return []string{"ALTER TABLE " + s.q.QuoteName(table) + " DROP KEY " + s.q.QuoteName(group[0].KeyName)}, nil
}
