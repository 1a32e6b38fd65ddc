package database

import (
	"context"
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// resultSet is a fully read result: column names plus rows with
// []byte values converted to string.
type resultSet struct {
	columns []string
	rows    [][]any
}

func (d *Driver) fetch(ctx context.Context) (*resultSet, error) {
	stmt, err := d.SQL()
	if err != nil {
		return nil, err
	}

	var rs *resultSet
	err = d.dispatch(ctx, stmt, func(ctx context.Context) error {
		rows, err := d.conn.QueryContext(ctx, stmt)
		if err != nil {
			return err
		}
		defer rows.Close()

		cols, err := rows.Columns()
		if err != nil {
			return err
		}
		set := &resultSet{columns: cols}
		for rows.Next() {
			vals := make([]any, len(cols))
			ptrs := make([]any, len(cols))
			for i := range vals {
				ptrs[i] = &vals[i]
			}
			if err := rows.Scan(ptrs...); err != nil {
				return err
			}
			for i, v := range vals {
				if b, ok := v.([]byte); ok {
					vals[i] = string(b)
				}
			}
			set.rows = append(set.rows, vals)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		rs = set
		return nil
	})
	if err != nil {
		return nil, err
	}
	d.affected = int64(len(rs.rows))
	return rs, nil
}

func (rs *resultSet) assoc(i int) map[string]any {
	m := make(map[string]any, len(rs.columns))
	for c, name := range rs.columns {
		m[name] = rs.rows[i][c]
	}
	return m
}

// LoadResult returns the first field of the first row, nil when the
// query yields no rows.
func (d *Driver) LoadResult(ctx context.Context) (any, error) {
	rs, err := d.fetch(ctx)
	if err != nil || len(rs.rows) == 0 || len(rs.columns) == 0 {
		return nil, err
	}
	return rs.rows[0][0], nil
}

func (d *Driver) LoadRow(ctx context.Context) ([]any, error) {
	rs, err := d.fetch(ctx)
	if err != nil || len(rs.rows) == 0 {
		return nil, err
	}
	return rs.rows[0], nil
}

func (d *Driver) LoadRowList(ctx context.Context) ([][]any, error) {
	rs, err := d.fetch(ctx)
	if err != nil {
		return nil, err
	}
	return rs.rows, nil
}

func (d *Driver) LoadAssoc(ctx context.Context) (map[string]any, error) {
	rs, err := d.fetch(ctx)
	if err != nil || len(rs.rows) == 0 {
		return nil, err
	}
	return rs.assoc(0), nil
}

func (d *Driver) LoadAssocList(ctx context.Context) ([]map[string]any, error) {
	rs, err := d.fetch(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, len(rs.rows))
	for i := range rs.rows {
		out[i] = rs.assoc(i)
	}
	return out, nil
}

// LoadAssocListKey indexes the rows by the value of column key. Later
// rows win on duplicate keys.
func (d *Driver) LoadAssocListKey(ctx context.Context, key string) (map[string]map[string]any, error) {
	rows, err := d.LoadAssocList(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]map[string]any, len(rows))
	for _, row := range rows {
		v, ok := row[key]
		if !ok {
			return nil, Errorf(KindConfiguration, "LoadAssocList", "no column %q in result", key)
		}
		out[AsString(v)] = row
	}
	return out, nil
}

// LoadColumn returns the values of one column across all rows.
func (d *Driver) LoadColumn(ctx context.Context, index int) ([]any, error) {
	rs, err := d.fetch(ctx)
	if err != nil {
		return nil, err
	}
	if len(rs.rows) == 0 {
		return []any{}, nil
	}
	if index < 0 || index >= len(rs.columns) {
		return nil, Errorf(KindConfiguration, "LoadColumn", "column %d out of range (%d columns)", index, len(rs.columns))
	}
	out := make([]any, len(rs.rows))
	for i, row := range rs.rows {
		out[i] = row[index]
	}
	return out, nil
}

// LoadObject decodes the first row into dest, a pointer to a struct or
// map. Fields match columns by `db` tag or case-insensitive name. It
// reports false, leaving dest untouched, when there is no row.
func (d *Driver) LoadObject(ctx context.Context, dest any) (bool, error) {
	row, err := d.LoadAssoc(ctx)
	if err != nil || row == nil {
		return false, err
	}
	if err := decodeRows(row, dest); err != nil {
		return false, err
	}
	return true, nil
}

// LoadObjectList decodes every row into dest, a pointer to a slice.
func (d *Driver) LoadObjectList(ctx context.Context, dest any) error {
	rows, err := d.LoadAssocList(ctx)
	if err != nil {
		return err
	}
	return decodeRows(rows, dest)
}

func decodeRows(input, dest any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "db",
		WeaklyTypedInput: true,
		Result:           dest,
		DecodeHook:       mapstructure.StringToTimeHookFunc("2006-01-02 15:04:05"),
	})
	if err != nil {
		return NewError(KindConfiguration, "LoadObject", err)
	}
	if err := dec.Decode(input); err != nil {
		return NewError(KindQuery, "LoadObject", fmt.Errorf("decode row: %w", err))
	}
	return nil
}

// AsString renders a scanned value as text; nil is "".
func AsString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	}
	return fmt.Sprint(v)
}

// NullableString is AsString keeping SQL NULL as nil.
func NullableString(v any) *string {
	if v == nil {
		return nil
	}
	s := AsString(v)
	return &s
}
