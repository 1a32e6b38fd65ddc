// Package mysql implements the mysql and mysqli dialects on top of
// go-sql-driver/mysql.
package mysql

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/ruslano69/sqlkit/pkg/database"
)

const (
	Name       = "mysql"
	NameMySQLi = "mysqli"

	defaultPort = 3306
)

// Server errors that mean the session is gone.
const (
	errServerGone = 2006
	errServerLost = 2013
)

// Dialect talks to MySQL and MariaDB. The two registered names differ
// only in the default connection charset.
type Dialect struct {
	database.BaseDialect
}

var _ database.Dialect = (*Dialect)(nil)

func New(name string) *Dialect {
	return &Dialect{database.BaseDialect{
		DialectName:   name,
		DialectFamily: "mysql",
		QuoteOpen:     "`",
		QuoteClose:    "`",
		Literals:      `'"`,
		Null:          "0000-00-00 00:00:00",
		Min:           "5.0.4",
	}}
}

// Register adds mysql and mysqli to f.
func Register(f *database.Factory) {
	for _, name := range []string{Name, NameMySQLi} {
		f.Register(name, func(database.Options) (database.Dialect, error) {
			return New(name), nil
		})
	}
}

func (d *Dialect) DriverName() string { return "mysql" }

// DSN builds a go-sql-driver DSN. Host may carry a port ("db:3307") or
// a unix socket path.
func (d *Dialect) DSN(opts database.Options) (string, error) {
	if opts.DSN != "" {
		return opts.DSN, nil
	}

	cfg := mysql.NewConfig()
	cfg.User = opts.User
	cfg.Passwd = opts.Password
	cfg.Net, cfg.Addr = address(opts.Host, opts.Port)
	if opts.SelectDatabase() {
		cfg.DBName = opts.Database
	}
	cfg.Timeout = opts.Timeout

	charset := opts.Charset
	if charset == "" {
		charset = "utf8"
		if d.DialectName == NameMySQLi {
			charset = "utf8mb4"
		}
	}
	dsn := cfg.FormatDSN()
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "charset=" + url.QueryEscape(charset), nil
}

func address(host string, port int) (string, string) {
	if host == "" {
		host = "localhost"
	}
	if strings.HasPrefix(host, "/") {
		return "unix", host
	}
	if h, p, err := net.SplitHostPort(host); err == nil {
		if strings.HasPrefix(p, "/") {
			return "unix", p
		}
		return "tcp", net.JoinHostPort(h, p)
	}
	if port == 0 {
		port = defaultPort
	}
	return "tcp", net.JoinHostPort(host, strconv.Itoa(port))
}

// Initialize drops strict sql_mode so that legacy zero dates and
// implicit defaults keep working.
func (d *Dialect) Initialize(ctx context.Context, drv *database.Driver) error {
	_, err := drv.SetQuery("SET @@SESSION.sql_mode = ''", 0, 0).Execute(ctx)
	return err
}

func (d *Dialect) IsConnectionLost(err error) bool {
	if errors.Is(err, mysql.ErrInvalidConn) || errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == errServerGone || me.Number == errServerLost
	}
	return false
}

func (d *Dialect) ErrorCode(err error) int {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return int(me.Number)
	}
	return 0
}

func (d *Dialect) TableList(ctx context.Context, drv *database.Driver) ([]string, error) {
	vals, err := drv.SetQuery("SHOW TABLES", 0, 0).LoadColumn(ctx, 0)
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
	rows, err := drv.SetQuery("SHOW FULL COLUMNS FROM "+drv.QuoteName(drv.Escape(table, false)), 0, 0).LoadAssocList(ctx)
	if err != nil {
		return nil, err
	}
	cols := make([]database.Column, 0, len(rows))
	for _, r := range rows {
		cols = append(cols, database.Column{
			Field:     database.AsString(r["Field"]),
			Type:      database.AsString(r["Type"]),
			Null:      database.AsString(r["Null"]),
			Key:       database.AsString(r["Key"]),
			Default:   database.NullableString(r["Default"]),
			Extra:     database.AsString(r["Extra"]),
			Comment:   database.AsString(r["Comment"]),
			Collation: database.AsString(r["Collation"]),
		})
	}
	return cols, nil
}

func (d *Dialect) TableKeys(ctx context.Context, drv *database.Driver, table string) ([]database.Key, error) {
	rows, err := drv.SetQuery("SHOW KEYS FROM "+drv.QuoteName(table), 0, 0).LoadAssocList(ctx)
	if err != nil {
		return nil, err
	}
	keys := make([]database.Key, 0, len(rows))
	for _, r := range rows {
		nonUnique, _ := strconv.Atoi(database.AsString(r["Non_unique"]))
		seq, _ := strconv.Atoi(database.AsString(r["Seq_in_index"]))
		name := database.AsString(r["Key_name"])
		keys = append(keys, database.Key{
			Table:      database.AsString(r["Table"]),
			NonUnique:  nonUnique,
			KeyName:    name,
			SeqInIndex: seq,
			ColumnName: database.AsString(r["Column_name"]),
			Collation:  database.AsString(r["Collation"]),
			Null:       database.AsString(r["Null"]),
			IndexType:  database.AsString(r["Index_type"]),
			Comment:    database.AsString(r["Comment"]),
			IsPrimary:  name == "PRIMARY",
		})
	}
	return keys, nil
}

func (d *Dialect) TableCreate(ctx context.Context, drv *database.Driver, table string) (string, error) {
	row, err := drv.SetQuery("SHOW CREATE TABLE "+drv.QuoteName(drv.Escape(table, false)), 0, 0).LoadRow(ctx)
	if err != nil {
		return "", err
	}
	if len(row) < 2 {
		return "", database.Errorf(database.KindSchema, "GetTableCreate", "no definition for %s", table)
	}
	return database.AsString(row[1]), nil
}

func (d *Dialect) Version(ctx context.Context, drv *database.Driver) (string, error) {
	v, err := drv.SetQuery("SELECT VERSION()", 0, 0).LoadResult(ctx)
	return database.AsString(v), err
}

func (d *Dialect) Collation(ctx context.Context, drv *database.Driver) (string, error) {
	return variable(ctx, drv, "collation_database")
}

func (d *Dialect) ConnectionCollation(ctx context.Context, drv *database.Driver) (string, error) {
	return variable(ctx, drv, "collation_connection")
}

func variable(ctx context.Context, drv *database.Driver, name string) (string, error) {
	row, err := drv.SetQuery("SHOW VARIABLES LIKE "+drv.Quote(name), 0, 0).LoadAssoc(ctx)
	if err != nil || row == nil {
		return "", err
	}
	return database.AsString(row["Value"]), nil
}
