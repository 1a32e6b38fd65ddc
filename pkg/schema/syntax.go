package schema

import (
	"github.com/ruslano69/sqlkit/pkg/database"
)

// Syntax renders the DDL the importer needs for one dialect family.
// Table names are passed in their generic form; the driver replaces the
// placeholder when the statement runs.
type Syntax interface {
	Family() string
	ColumnChanged(live, want Field) bool
	CreateTable(t Table) ([]string, error)
	AddColumn(table string, f Field) []string
	ChangeColumn(table string, live, want Field) ([]string, error)
	DropColumn(table, name string) []string
	AddKey(table string, key []Key) ([]string, error)
	DropKey(table string, key []Key) ([]string, error)
}

// SequenceSyntax is implemented by families with standalone sequences.
type SequenceSyntax interface {
	CreateSequence(s Sequence) []string
	OwnSequence(table string, s Sequence) []string
	AlterSequence(live, want Sequence) []string
	DropSequence(s Sequence) []string
}

// SyntaxFor selects the syntax for a dialect family. q supplies the
// dialect's quoting and escaping.
func SyntaxFor(family string, q *database.Query) (Syntax, error) {
	switch family {
	case "mysql":
		return &mysqlSyntax{q: q}, nil
	case "postgresql":
		return &postgresSyntax{q: q}, nil
	case "sqlite":
		return &sqliteSyntax{q: q}, nil
	}
	return nil, database.Errorf(database.KindConfiguration, "SyntaxFor", "structure import/export is not available for %s", family)
}

func quoteAll(q *database.Query, names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = q.QuoteName(n)
	}
	return out
}
