package oracle

import (
	"context"
	"strconv"
	"strings"

	"github.com/ruslano69/sqlkit/pkg/database"
)

func (d *Dialect) TableList(ctx context.Context, drv *database.Driver) ([]string, error) {
	vals, err := drv.SetQuery("SELECT table_name FROM user_tables ORDER BY table_name", 0, 0).LoadColumn(ctx, 0)
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
		Select("column_name", "data_type", "data_length", "nullable", "data_default").
		From("user_tab_columns").
		Where("table_name = " + drv.Quote(table)).
		Order("column_id")
	rows, err := drv.SetQuery(q, 0, 0).LoadAssocList(ctx)
	if err != nil {
		return nil, err
	}
	cols := make([]database.Column, 0, len(rows))
	for _, r := range rows {
		typ := database.AsString(column(r, "data_type"))
		if n := database.AsString(column(r, "data_length")); n != "" && (typ == "VARCHAR2" || typ == "NVARCHAR2" || typ == "CHAR") {
			typ += "(" + n + ")"
		}
		null := "YES"
		if database.AsString(column(r, "nullable")) == "N" {
			null = "NO"
		}
		cols = append(cols, database.Column{
			Field:   database.AsString(column(r, "column_name")),
			Type:    typ,
			Null:    null,
			Default: database.NullableString(column(r, "data_default")),
		})
	}
	return cols, nil
}

func (d *Dialect) TableKeys(ctx context.Context, drv *database.Driver, table string) ([]database.Key, error) {
	stmt := `SELECT i.index_name, c.column_name, c.column_position, i.uniqueness, i.index_type,
	CASE WHEN k.constraint_type = 'P' THEN 1 ELSE 0 END AS is_primary
FROM user_indexes i
JOIN user_ind_columns c ON c.index_name = i.index_name
LEFT JOIN user_constraints k ON k.index_name = i.index_name AND k.constraint_type = 'P'
WHERE i.table_name = ` + drv.Quote(table) + `
ORDER BY i.index_name, c.column_position`

	rows, err := drv.SetQuery(stmt, 0, 0).LoadAssocList(ctx)
	if err != nil {
		return nil, err
	}
	keys := make([]database.Key, 0, len(rows))
	for _, r := range rows {
		seq, _ := strconv.Atoi(database.AsString(column(r, "column_position")))
		nonUnique := 1
		if database.AsString(column(r, "uniqueness")) == "UNIQUE" {
			nonUnique = 0
		}
		keys = append(keys, database.Key{
			Table:      table,
			NonUnique:  nonUnique,
			KeyName:    database.AsString(column(r, "index_name")),
			SeqInIndex: seq,
			ColumnName: database.AsString(column(r, "column_name")),
			IndexType:  database.AsString(column(r, "index_type")),
			IsPrimary:  database.AsString(column(r, "is_primary")) == "1",
		})
	}
	return keys, nil
}

func (d *Dialect) TableCreate(ctx context.Context, drv *database.Driver, table string) (string, error) {
	v, err := drv.SetQuery("SELECT dbms_metadata.get_ddl('TABLE', "+drv.Quote(table)+") FROM dual", 0, 0).LoadResult(ctx)
	return database.AsString(v), err
}

// TableSequences lists the sequences named after the table, the
// pre-identity convention for Oracle auto-increment keys.
func (d *Dialect) TableSequences(ctx context.Context, drv *database.Driver, table string) ([]database.Sequence, error) {
	q := drv.GetQuery(true).
		Select("sequence_name", "min_value", "max_value", "increment_by", "cycle_flag", "last_number").
		From("user_sequences").
		Where("sequence_name LIKE " + drv.QuoteRaw(drv.Escape(table, true)+"%") + " ESCAPE '\\'")
	rows, err := drv.SetQuery(q, 0, 0).LoadAssocList(ctx)
	if err != nil {
		return nil, err
	}
	seqs := make([]database.Sequence, 0, len(rows))
	for _, r := range rows {
		seqs = append(seqs, database.Sequence{
			Name:         database.AsString(column(r, "sequence_name")),
			Table:        table,
			DataType:     "NUMBER",
			StartValue:   database.AsString(column(r, "last_number")),
			MinimumValue: database.AsString(column(r, "min_value")),
			MaximumValue: database.AsString(column(r, "max_value")),
			Increment:    database.AsString(column(r, "increment_by")),
			CycleOption:  database.AsString(column(r, "cycle_flag")),
		})
	}
	return seqs, nil
}

func (d *Dialect) Version(ctx context.Context, drv *database.Driver) (string, error) {
	v, err := drv.SetQuery("SELECT version FROM product_component_version WHERE product LIKE 'Oracle%'", 0, 0).LoadResult(ctx)
	return database.AsString(v), err
}

func (d *Dialect) Collation(ctx context.Context, drv *database.Driver) (string, error) {
	return nlsParameter(ctx, drv, "nls_database_parameters", "NLS_CHARACTERSET")
}

func (d *Dialect) ConnectionCollation(ctx context.Context, drv *database.Driver) (string, error) {
	return nlsParameter(ctx, drv, "nls_session_parameters", "NLS_SORT")
}

func nlsParameter(ctx context.Context, drv *database.Driver, view, name string) (string, error) {
	v, err := drv.SetQuery("SELECT value FROM "+view+" WHERE parameter = "+drv.Quote(name), 0, 0).LoadResult(ctx)
	return database.AsString(v), err
}

// column reads a value by its lower-case name, falling back to the
// upper-case form Oracle reports for unquoted aliases.
func column(row map[string]any, name string) any {
	if v, ok := row[name]; ok {
		return v
	}
	return row[strings.ToUpper(name)]
}
