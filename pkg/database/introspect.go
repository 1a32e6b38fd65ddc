package database

import (
	"context"
	"strings"
)

// GetTableList lists the tables of the current database.
func (d *Driver) GetTableList(ctx context.Context) ([]string, error) {
	return d.dialect.TableList(ctx, d)
}

// GetTableColumns returns the full column metadata in table order.
func (d *Driver) GetTableColumns(ctx context.Context, table string) ([]Column, error) {
	return d.dialect.TableColumns(ctx, d, d.resolve(table))
}

// GetTableColumnTypes maps column name to its type.
func (d *Driver) GetTableColumnTypes(ctx context.Context, table string) (map[string]string, error) {
	cols, err := d.GetTableColumns(ctx, table)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(cols))
	for _, c := range cols {
		out[c.Field] = c.Type
	}
	return out, nil
}

func (d *Driver) GetTableKeys(ctx context.Context, table string) ([]Key, error) {
	return d.dialect.TableKeys(ctx, d, d.resolve(table))
}

// GetTableCreate returns the CREATE statement of each table.
func (d *Driver) GetTableCreate(ctx context.Context, tables ...string) (map[string]string, error) {
	out := make(map[string]string, len(tables))
	for _, t := range tables {
		s, err := d.dialect.TableCreate(ctx, d, d.resolve(t))
		if err != nil {
			return nil, err
		}
		out[t] = s
	}
	return out, nil
}

func (d *Driver) GetTableSequences(ctx context.Context, table string) ([]Sequence, error) {
	return d.dialect.TableSequences(ctx, d, d.resolve(table))
}

func (d *Driver) GetVersion(ctx context.Context) (string, error) {
	return d.dialect.Version(ctx, d)
}

// IsMinimumVersion compares the server version with the dialect minimum.
func (d *Driver) IsMinimumVersion(ctx context.Context) (bool, error) {
	v, err := d.GetVersion(ctx)
	if err != nil {
		return false, err
	}
	return IsMinimumVersion(v, d.dialect.MinVersion()), nil
}

func (d *Driver) GetCollation(ctx context.Context) (string, error) {
	return d.dialect.Collation(ctx, d)
}

func (d *Driver) GetConnectionCollation(ctx context.Context) (string, error) {
	return d.dialect.ConnectionCollation(ctx, d)
}

func (d *Driver) exec(ctx context.Context, stmt string) error {
	_, err := d.SetQuery(stmt, 0, 0).Execute(ctx)
	return err
}

// resolve replaces the prefix placeholder in a bare table name. The
// catalog queries compare names as string literals, which
// ReplacePrefix leaves alone.
func (d *Driver) resolve(table string) string {
	return d.ReplacePrefix(table, DefaultPlaceholder)
}

// tableName resolves the prefix before quoting, so dialects may embed
// the name inside string literals.
func (d *Driver) tableName(table string) string {
	return d.QuoteName(d.resolve(table))
}

func (d *Driver) DropTable(ctx context.Context, table string, ifExists bool) (*Driver, error) {
	return d, d.exec(ctx, d.dialect.DropTableSQL(d.tableName(table), ifExists))
}

func (d *Driver) RenameTable(ctx context.Context, oldTable, newTable string) (*Driver, error) {
	return d, d.exec(ctx, d.dialect.RenameTableSQL(d.tableName(oldTable), d.tableName(newTable)))
}

func (d *Driver) TruncateTable(ctx context.Context, table string) error {
	return d.exec(ctx, d.dialect.TruncateTableSQL(d.tableName(table)))
}

// LockTable is a no-op on engines without explicit table locks.
func (d *Driver) LockTable(ctx context.Context, table string) (*Driver, error) {
	stmt := d.dialect.LockTableSQL(d.tableName(table))
	if stmt == "" {
		return d, nil
	}
	return d, d.exec(ctx, stmt)
}

func (d *Driver) UnlockTables(ctx context.Context) (*Driver, error) {
	stmt := d.dialect.UnlockTablesSQL()
	if stmt == "" {
		return d, nil
	}
	return d, d.exec(ctx, stmt)
}

func (d *Driver) CreateDatabase(ctx context.Context, name string, utf bool) error {
	if strings.TrimSpace(name) == "" {
		return Errorf(KindConfiguration, "CreateDatabase", "database name is empty")
	}
	stmt := d.dialect.CreateDatabaseSQL(d.QuoteName(name), utf)
	if stmt == "" {
		return Errorf(KindUnsupported, "CreateDatabase", "%s cannot create databases", d.dialect.Name())
	}
	return d.exec(ctx, stmt)
}
