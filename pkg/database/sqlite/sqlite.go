// Package sqlite implements the sqlite dialect on the pure-Go
// modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/ruslano69/sqlkit/pkg/database"
)

const (
	Name = "sqlite"

	driverSqlite = "sqlite"
	memory       = ":memory:"
)

// quotedDefault matches a default stored as a single-quoted literal.
var quotedDefault = regexp.MustCompile(`^'(.*)'$`)

type Dialect struct {
	database.BaseDialect
}

var _ database.Dialect = (*Dialect)(nil)

// New returns the dialect. Options.NameQuote overrides the backtick
// identifier quote: one character is used on both sides, two give the
// opening and closing quote ("[]").
func New(opts database.Options) *Dialect {
	open, close := "`", "`"
	switch q := []rune(opts.NameQuote); len(q) {
	case 1:
		open, close = string(q), string(q)
	case 2:
		open, close = string(q[0]), string(q[1])
	}
	return &Dialect{database.BaseDialect{
		DialectName:   Name,
		DialectFamily: "sqlite",
		QuoteOpen:     open,
		QuoteClose:    close,
		Literals:      `'"`,
	}}
}

func Register(f *database.Factory) {
	f.Register(Name, func(opts database.Options) (database.Dialect, error) {
		return New(opts), nil
	})
}

func (d *Dialect) DriverName() string { return driverSqlite }

// DSN is the database file, ":memory:" when none is configured.
func (d *Dialect) DSN(opts database.Options) (string, error) {
	if opts.DSN != "" {
		return opts.DSN, nil
	}
	path := opts.Database
	if path == "" {
		path = memory
	}
	if opts.Timeout > 0 && path != memory {
		path += "?_pragma=busy_timeout(" + strconv.FormatInt(opts.Timeout.Milliseconds(), 10) + ")"
	}
	return path, nil
}

// Initialize tunes the connection for bulk work. A pragma the file
// cannot take (page_size on an existing database) is only logged.
func (d *Dialect) Initialize(ctx context.Context, drv *database.Driver) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = -64000",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := drv.SetQuery(p, 0, 0).Execute(ctx); err != nil {
			drv.Log(zerolog.WarnLevel, "pragma failed", map[string]any{"pragma": p, "error": err.Error()})
		}
	}
	return nil
}

func (d *Dialect) BackslashEscapes() bool { return false }

func (d *Dialect) Escape(text string, extra bool) string {
	return database.EscapeDoubled(text, extra)
}

func (d *Dialect) CurrentTimestamp() string { return "CURRENT_TIMESTAMP" }

func (d *Dialect) CharLength(field string) string { return "length(" + field + ")" }

func (d *Dialect) Length(value string) string { return "length(" + value + ")" }

func (d *Dialect) Concatenate(values []string, sep string) string {
	if sep != "" {
		return strings.Join(values, " || "+sep+" || ")
	}
	return strings.Join(values, " || ")
}

var strftimeFormats = map[database.DatePart]string{
	database.PartYear:   "%Y",
	database.PartMonth:  "%m",
	database.PartDay:    "%d",
	database.PartHour:   "%H",
	database.PartMinute: "%M",
	database.PartSecond: "%S",
}

func (d *Dialect) DatePart(part database.DatePart, date string) string {
	return "CAST(strftime('" + strftimeFormats[part] + "', " + date + ") AS INTEGER)"
}

func (d *Dialect) CastAsChar(value string) string { return "CAST(" + value + " AS TEXT)" }

// Limit renders LIMIT/OFFSET; an offset alone needs LIMIT -1.
func (d *Dialect) Limit(sql string, limit, offset int) string {
	if limit <= 0 && offset <= 0 {
		return sql
	}
	if limit <= 0 {
		limit = -1
	}
	sql += "\nLIMIT " + strconv.Itoa(limit)
	if offset > 0 {
		sql += " OFFSET " + strconv.Itoa(offset)
	}
	return sql
}

func (d *Dialect) BeginSQL() string { return "BEGIN" }

func (d *Dialect) RenameTableSQL(old, new string) string {
	return "ALTER TABLE " + old + " RENAME TO " + new
}

// TruncateTableSQL deletes every row; sqlite has no TRUNCATE.
func (d *Dialect) TruncateTableSQL(table string) string { return "DELETE FROM " + table }

func (d *Dialect) LockTableSQL(string) string { return "" }
func (d *Dialect) UnlockTablesSQL() string    { return "" }

// CreateDatabaseSQL is empty: a database is a file, created on open.
func (d *Dialect) CreateDatabaseSQL(string, bool) string { return "" }

func (d *Dialect) TableList(ctx context.Context, drv *database.Driver) ([]string, error) {
	q := drv.GetQuery(true).
		Select("name").
		From("sqlite_master").
		Where("type = 'table'", "name NOT LIKE 'sqlite_%'").
		Order("name")
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
	rows, err := drv.SetQuery("PRAGMA table_info("+drv.QuoteName(table)+")", 0, 0).LoadAssocList(ctx)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, database.Errorf(database.KindSchema, "GetTableColumns", "table %s not found or has no columns", table)
	}
	cols := make([]database.Column, 0, len(rows))
	for _, r := range rows {
		c := database.Column{
			Field: database.AsString(r["name"]),
			Type:  database.AsString(r["type"]),
			Null:  "YES",
		}
		if database.AsString(r["notnull"]) == "1" {
			c.Null = "NO"
		}
		if database.AsString(r["pk"]) != "0" {
			c.Key = "PRI"
		}
		if def := database.NullableString(r["dflt_value"]); def != nil {
			if m := quotedDefault.FindStringSubmatch(*def); m != nil {
				def = &m[1]
			}
			c.Default = def
		}
		cols = append(cols, c)
	}
	return cols, nil
}

func (d *Dialect) TableKeys(ctx context.Context, drv *database.Driver, table string) ([]database.Key, error) {
	indexes, err := drv.SetQuery("PRAGMA index_list("+drv.QuoteName(table)+")", 0, 0).LoadAssocList(ctx)
	if err != nil {
		return nil, err
	}

	var keys []database.Key
	for _, idx := range indexes {
		name := database.AsString(idx["name"])
		nonUnique := 1
		if database.AsString(idx["unique"]) == "1" {
			nonUnique = 0
		}
		primary := database.AsString(idx["origin"]) == "pk"

		info, err := drv.SetQuery("PRAGMA index_info("+drv.QuoteName(name)+")", 0, 0).LoadAssocList(ctx)
		if err != nil {
			return nil, err
		}
		for _, col := range info {
			seq, _ := strconv.Atoi(database.AsString(col["seqno"]))
			keys = append(keys, database.Key{
				Table:      table,
				NonUnique:  nonUnique,
				KeyName:    name,
				SeqInIndex: seq + 1,
				ColumnName: database.AsString(col["name"]),
				IndexType:  "BTREE",
				IsPrimary:  primary,
			})
		}
	}
	return keys, nil
}

func (d *Dialect) TableCreate(ctx context.Context, drv *database.Driver, table string) (string, error) {
	q := drv.GetQuery(true).
		Select("sql").
		From("sqlite_master").
		Where("type = 'table'", "name = "+drv.Quote(table))
	v, err := drv.SetQuery(q, 0, 0).LoadResult(ctx)
	if err != nil {
		return "", err
	}
	if v == nil {
		return "", database.Errorf(database.KindSchema, "GetTableCreate", "table %s not found", table)
	}
	return database.AsString(v), nil
}

func (d *Dialect) Version(ctx context.Context, drv *database.Driver) (string, error) {
	v, err := drv.SetQuery("SELECT sqlite_version()", 0, 0).LoadResult(ctx)
	return database.AsString(v), err
}

// Collation reports the database text encoding; sqlite has no
// database-wide collation.
func (d *Dialect) Collation(ctx context.Context, drv *database.Driver) (string, error) {
	v, err := drv.SetQuery("PRAGMA encoding", 0, 0).LoadResult(ctx)
	return database.AsString(v), err
}

func (d *Dialect) ConnectionCollation(ctx context.Context, drv *database.Driver) (string, error) {
	return d.Collation(ctx, drv)
}
