package postgres

import (
	"context"
	"regexp"
	"strconv"

	"github.com/ruslano69/sqlkit/pkg/database"
)

// castedDefault matches defaults reported as 'value'::type.
var castedDefault = regexp.MustCompile(`^'(.*)'::.*$`)

func (d *Dialect) TableList(ctx context.Context, drv *database.Driver) ([]string, error) {
	q := drv.GetQuery(true).
		Select("table_name").
		From("information_schema.tables").
		Where("table_type = 'BASE TABLE'", "table_schema = "+drv.Quote(d.schema)).
		Order("table_name ASC")
	vals, err := drv.SetQuery(q, 0, 0).LoadColumn(ctx, 0)
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
	stmt := `SELECT a.attname AS "column_name",
	pg_catalog.format_type(a.atttypid, a.atttypmod) AS "type",
	CASE WHEN a.attnotnull IS TRUE THEN 'NO' ELSE 'YES' END AS "null",
	pg_catalog.pg_get_expr(adef.adbin, adef.adrelid, true) AS "default",
	COALESCE(pg_catalog.col_description(a.attrelid, a.attnum), '') AS "comments"
FROM pg_catalog.pg_attribute a
LEFT JOIN pg_catalog.pg_attrdef adef ON a.attrelid = adef.adrelid AND a.attnum = adef.adnum
WHERE a.attrelid = (SELECT oid FROM pg_catalog.pg_class WHERE relname = ` + drv.Quote(table) + `
	AND relnamespace = (SELECT oid FROM pg_catalog.pg_namespace WHERE nspname = ` + drv.Quote(d.schema) + `))
	AND a.attnum > 0 AND NOT a.attisdropped
ORDER BY a.attnum`

	rows, err := drv.SetQuery(stmt, 0, 0).LoadAssocList(ctx)
	if err != nil {
		return nil, err
	}
	cols := make([]database.Column, 0, len(rows))
	for _, r := range rows {
		def := database.NullableString(r["default"])
		if def != nil {
			if m := castedDefault.FindStringSubmatch(*def); m != nil {
				def = &m[1]
			}
		}
		cols = append(cols, database.Column{
			Field:   database.AsString(r["column_name"]),
			Type:    database.AsString(r["type"]),
			Null:    database.AsString(r["null"]),
			Default: def,
			Comment: database.AsString(r["comments"]),
		})
	}
	return cols, nil
}

// TableKeys numbers index columns from 1. indkey is an int2vector whose
// subscripts start at 0, and array_position needs PostgreSQL 9.5.
func (d *Dialect) TableKeys(ctx context.Context, drv *database.Driver, table string) ([]database.Key, error) {
	stmt := `SELECT i.relname AS "idx_name", a.attname AS "column_name", x.indisprimary AS "is_primary",
	x.indisunique AS "is_unique", pg_catalog.pg_get_indexdef(x.indexrelid, 0, true) AS "query",
	am.amname AS "index_type",
	array_position(x.indkey::int2[], a.attnum) - array_lower(x.indkey::int2[], 1) + 1 AS "seq"
FROM pg_catalog.pg_index x
JOIN pg_catalog.pg_class t ON t.oid = x.indrelid
JOIN pg_catalog.pg_class i ON i.oid = x.indexrelid
JOIN pg_catalog.pg_am am ON am.oid = i.relam
JOIN pg_catalog.pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(x.indkey)
WHERE t.relname = ` + drv.Quote(table) + `
	AND t.relnamespace = (SELECT oid FROM pg_catalog.pg_namespace WHERE nspname = ` + drv.Quote(d.schema) + `)
ORDER BY i.relname, "seq"`

	rows, err := drv.SetQuery(stmt, 0, 0).LoadAssocList(ctx)
	if err != nil {
		return nil, err
	}
	keys := make([]database.Key, 0, len(rows))
	for _, r := range rows {
		seq, _ := strconv.Atoi(database.AsString(r["seq"]))
		nonUnique := 1
		if truthy(r["is_unique"]) {
			nonUnique = 0
		}
		keys = append(keys, database.Key{
			Table:      table,
			NonUnique:  nonUnique,
			KeyName:    database.AsString(r["idx_name"]),
			SeqInIndex: seq,
			ColumnName: database.AsString(r["column_name"]),
			IndexType:  database.AsString(r["index_type"]),
			Query:      database.AsString(r["query"]),
			IsPrimary:  truthy(r["is_primary"]),
		})
	}
	return keys, nil
}

// TableCreate is not reported by the server.
func (d *Dialect) TableCreate(context.Context, *database.Driver, string) (string, error) {
	return "", database.Errorf(database.KindUnsupported, "GetTableCreate", "%s has no SHOW CREATE TABLE", d.DialectName)
}

func (d *Dialect) TableSequences(ctx context.Context, drv *database.Driver, table string) ([]database.Sequence, error) {
	stmt := `SELECT s.relname AS "sequence", n.nspname AS "schema", t.relname AS "table", a.attname AS "column",
	info.data_type AS "data_type", info.minimum_value AS "minimum_value", info.maximum_value AS "maximum_value",
	info.increment AS "increment", info.cycle_option AS "cycle_option", info.start_value AS "start_value"
FROM pg_catalog.pg_class s
LEFT JOIN pg_catalog.pg_depend d ON d.objid = s.oid AND d.classid = 'pg_class'::regclass AND d.refclassid = 'pg_class'::regclass
LEFT JOIN pg_catalog.pg_class t ON t.oid = d.refobjid
LEFT JOIN pg_catalog.pg_namespace n ON n.oid = t.relnamespace
LEFT JOIN pg_catalog.pg_attribute a ON a.attrelid = t.oid AND a.attnum = d.refobjsubid
LEFT JOIN information_schema.sequences info ON info.sequence_name = s.relname
WHERE s.relkind = 'S' AND d.deptype = 'a' AND t.relname = ` + drv.Quote(table)

	rows, err := drv.SetQuery(stmt, 0, 0).LoadAssocList(ctx)
	if err != nil {
		return nil, err
	}
	seqs := make([]database.Sequence, 0, len(rows))
	for _, r := range rows {
		seqs = append(seqs, database.Sequence{
			Name:         database.AsString(r["sequence"]),
			Schema:       database.AsString(r["schema"]),
			Table:        database.AsString(r["table"]),
			Column:       database.AsString(r["column"]),
			DataType:     database.AsString(r["data_type"]),
			StartValue:   database.AsString(r["start_value"]),
			MinimumValue: database.AsString(r["minimum_value"]),
			MaximumValue: database.AsString(r["maximum_value"]),
			Increment:    database.AsString(r["increment"]),
			CycleOption:  database.AsString(r["cycle_option"]),
		})
	}
	return seqs, nil
}

func (d *Dialect) Version(ctx context.Context, drv *database.Driver) (string, error) {
	v, err := drv.SetQuery("SHOW server_version", 0, 0).LoadResult(ctx)
	return database.AsString(v), err
}

func (d *Dialect) Collation(ctx context.Context, drv *database.Driver) (string, error) {
	v, err := drv.SetQuery("SELECT datcollate FROM pg_catalog.pg_database WHERE datname = current_database()", 0, 0).LoadResult(ctx)
	return database.AsString(v), err
}

func (d *Dialect) ConnectionCollation(ctx context.Context, drv *database.Driver) (string, error) {
	v, err := drv.SetQuery("SHOW client_encoding", 0, 0).LoadResult(ctx)
	return database.AsString(v), err
}

// truthy reads a boolean column whichever way the client scanned it.
func truthy(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case int64:
		return x != 0
	}
	switch database.AsString(v) {
	case "t", "true", "TRUE", "1":
		return true
	}
	return false
}
