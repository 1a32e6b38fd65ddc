package sqlsrv

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/ruslano69/sqlkit/pkg/database"
)

var (
	numericDefault = regexp.MustCompile(`^\((-?[0-9.]+)\)$`)
	literalDefault = regexp.MustCompile(`^N?'(.*)'$`)
)

// unwrapDefault turns the stored default expression back into a value:
// ((0)) is 0, (N'x') is x, (getdate()) is getdate().
func unwrapDefault(s string) string {
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = s[1 : len(s)-1]
	}
	if m := numericDefault.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	if m := literalDefault.FindStringSubmatch(s); m != nil {
		return strings.ReplaceAll(m[1], "''", "'")
	}
	return s
}

func (d *Dialect) TableList(ctx context.Context, drv *database.Driver) ([]string, error) {
	vals, err := drv.SetQuery("SELECT name FROM sys.tables WHERE type = 'U' ORDER BY name", 0, 0).LoadColumn(ctx, 0)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = database.AsString(v)
	}
	return out, nil
}

func (d *Dialect) TableColumns(ctx context.Context, drv *database.Driver, table string) ([]database.Column, error) {
	q := drv.GetQuery(true).
		Select("column_name AS Field", "data_type AS Type", "is_nullable AS [Null]", "column_default AS [Default]").
		From("information_schema.columns").
		Where("table_name = " + drv.Quote(table)).
		Order("ordinal_position")
	rows, err := drv.SetQuery(q, 0, 0).LoadAssocList(ctx)
	if err != nil {
		return nil, err
	}
	cols := make([]database.Column, 0, len(rows))
	for _, r := range rows {
		def := database.NullableString(r["Default"])
		if def != nil {
			v := unwrapDefault(*def)
			def = &v
		}
		cols = append(cols, database.Column{
			Field:   database.AsString(r["Field"]),
			Type:    database.AsString(r["Type"]),
			Null:    database.AsString(r["Null"]),
			Default: def,
		})
	}
	return cols, nil
}

func (d *Dialect) TableKeys(ctx context.Context, drv *database.Driver, table string) ([]database.Key, error) {
	stmt := `SELECT i.name AS Key_name, CASE WHEN i.is_unique = 1 THEN 0 ELSE 1 END AS Non_unique,
	ic.key_ordinal AS Seq_in_index, c.name AS Column_name, i.is_primary_key AS Is_primary, i.type_desc AS Index_type
FROM sys.indexes i
JOIN sys.index_columns ic ON ic.object_id = i.object_id AND ic.index_id = i.index_id
JOIN sys.columns c ON c.object_id = ic.object_id AND c.column_id = ic.column_id
WHERE i.object_id = OBJECT_ID(` + drv.Quote(table) + `)
ORDER BY i.name, ic.key_ordinal`

	rows, err := drv.SetQuery(stmt, 0, 0).LoadAssocList(ctx)
	if err != nil {
		return nil, err
	}
	keys := make([]database.Key, 0, len(rows))
	for _, r := range rows {
		nonUnique, _ := strconv.Atoi(database.AsString(r["Non_unique"]))
		seq, _ := strconv.Atoi(database.AsString(r["Seq_in_index"]))
		primary := database.AsString(r["Is_primary"])
		keys = append(keys, database.Key{
			Table:      table,
			NonUnique:  nonUnique,
			KeyName:    database.AsString(r["Key_name"]),
			SeqInIndex: seq,
			ColumnName: database.AsString(r["Column_name"]),
			IndexType:  database.AsString(r["Index_type"]),
			IsPrimary:  primary == "true" || primary == "1",
		})
	}
	return keys, nil
}

func (d *Dialect) TableCreate(context.Context, *database.Driver, string) (string, error) {
	return "", database.Errorf(database.KindUnsupported, "GetTableCreate", "%s does not report table definitions", d.DialectName)
}

func (d *Dialect) Version(ctx context.Context, drv *database.Driver) (string, error) {
	v, err := drv.SetQuery("SELECT CAST(SERVERPROPERTY('ProductVersion') AS NVARCHAR(128))", 0, 0).LoadResult(ctx)
	return database.AsString(v), err
}

func (d *Dialect) Collation(ctx context.Context, drv *database.Driver) (string, error) {
	v, err := drv.SetQuery("SELECT CAST(DATABASEPROPERTYEX(DB_NAME(), 'Collation') AS NVARCHAR(128))", 0, 0).LoadResult(ctx)
	return database.AsString(v), err
}

func (d *Dialect) ConnectionCollation(ctx context.Context, drv *database.Driver) (string, error) {
	v, err := drv.SetQuery("SELECT CAST(SERVERPROPERTY('Collation') AS NVARCHAR(128))", 0, 0).LoadResult(ctx)
	return database.AsString(v), err
}
