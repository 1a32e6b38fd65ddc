package database

import (
	"context"
	"reflect"
	"sort"
	"strings"
	"time"
)

// objectFields lists the scalar fields of a struct (or map) by column
// name. Struct fields are named by their `db` tag, else the field name;
// `db:"-"` and non-scalar fields are skipped.
func objectFields(obj any) (map[string]any, error) {
	if m, ok := obj.(map[string]any); ok {
		return m, nil
	}

	v := reflect.ValueOf(obj)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, Errorf(KindConfiguration, "objectFields", "nil object")
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, Errorf(KindConfiguration, "objectFields", "expected a struct, got %s", v.Kind())
	}

	out := make(map[string]any)
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := f.Name
		if tag, _, _ := strings.Cut(f.Tag.Get("db"), ","); tag != "" {
			if tag == "-" {
				continue
			}
			name = tag
		}
		if val, ok := scalar(v.Field(i)); ok {
			out[name] = val
		}
	}
	return out, nil
}

func scalar(v reflect.Value) (any, bool) {
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, true
		}
		v = v.Elem()
	}
	if t, ok := v.Interface().(time.Time); ok {
		return t.Format("2006-01-02 15:04:05"), true
	}
	switch v.Kind() {
	case reflect.Struct, reflect.Map, reflect.Array, reflect.Chan, reflect.Func, reflect.Interface:
		return nil, false
	case reflect.Slice:
		if b, ok := v.Interface().([]byte); ok {
			return string(b), true
		}
		return nil, false
	}
	return v.Interface(), true
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// InsertObject inserts the fields of obj into table and returns the
// generated id. A key field that is nil or zero is left to the database.
func (d *Driver) InsertObject(ctx context.Context, table string, obj any, key string) (int64, error) {
	fields, err := objectFields(obj)
	if err != nil {
		return 0, err
	}

	var columns, values []string
	for _, name := range sortedKeys(fields) {
		v := fields[name]
		if v == nil || (name == key && reflect.ValueOf(v).IsZero()) {
			continue
		}
		columns = append(columns, d.QuoteName(name))
		values = append(values, d.Quote(v))
	}
	if len(columns) == 0 {
		return 0, Errorf(KindConfiguration, "InsertObject", "object has no fields to insert")
	}

	q := d.GetQuery(true).Insert(d.QuoteName(table)).Columns(columns...).Values(strings.Join(values, ","))
	if key != "" {
		q.Returning(key)
	}
	if _, err := d.SetQuery(q, 0, 0).Execute(ctx); err != nil {
		return 0, err
	}
	return d.insertID, nil
}

// UpdateObject updates the row of table identified by obj's key field.
// nil fields are skipped unless updateNulls is set.
func (d *Driver) UpdateObject(ctx context.Context, table string, obj any, key string, updateNulls bool) error {
	fields, err := objectFields(obj)
	if err != nil {
		return err
	}
	keyValue, ok := fields[key]
	if !ok || keyValue == nil {
		return Errorf(KindConfiguration, "UpdateObject", "object has no value for key %q", key)
	}

	q := d.GetQuery(true).Update(d.QuoteName(table))
	set := 0
	for _, name := range sortedKeys(fields) {
		if name == key {
			continue
		}
		v := fields[name]
		if v == nil {
			if !updateNulls {
				continue
			}
			q.Set(d.QuoteName(name) + " = NULL")
		} else {
			q.Set(d.QuoteName(name) + " = " + d.Quote(v))
		}
		set++
	}
	if set == 0 {
		return nil
	}
	q.Where(d.QuoteName(key) + " = " + d.Quote(keyValue))
	_, err = d.SetQuery(q, 0, 0).Execute(ctx)
	return err
}
