// Package oracle implements the oracle dialect over ODBC. The ODBC
// client is linked on Windows, or elsewhere with the odbc build tag
// and unixODBC installed.
package oracle

import (
	"context"
	"strconv"
	"strings"

	"github.com/ruslano69/sqlkit/pkg/database"
)

const (
	Name = "oracle"

	defaultPort = 1521
	dateFormat  = "RRRR-MM-DD HH24:MI:SS"
)

// nativeCode extracts the native error number; replaced by the ODBC
// build.
var nativeCode = func(error) int { return 0 }

type Dialect struct {
	database.BaseDialect

	// odbcDriver is the installed ODBC driver name used in the DSN.
	odbcDriver string
}

var _ database.Dialect = (*Dialect)(nil)

// New returns the dialect. Options.Charset, when set, names the ODBC
// driver ("Oracle in OraClient19Home1"); the default is "Oracle".
func New(opts database.Options) *Dialect {
	odbcDriver := opts.Charset
	if odbcDriver == "" {
		odbcDriver = "Oracle"
	}
	return &Dialect{
		BaseDialect: database.BaseDialect{
			DialectName:   Name,
			DialectFamily: "oracle",
			QuoteOpen:     `"`,
			QuoteClose:    `"`,
			Literals:      "'",
			Null:          "1970-01-01 00:00:00",
			Min:           "10.0",
			Format:        dateFormat,
		},
		odbcDriver: odbcDriver,
	}
}

func Register(f *database.Factory) {
	f.Register(Name, func(opts database.Options) (database.Dialect, error) {
		return New(opts), nil
	})
}

func (d *Dialect) DriverName() string { return "odbc" }

// DSN builds an ODBC connection string with an easy-connect DBQ.
func (d *Dialect) DSN(opts database.Options) (string, error) {
	if opts.DSN != "" {
		return opts.DSN, nil
	}
	if opts.Database == "" {
		return "", database.Errorf(database.KindConfiguration, "DSN", "oracle needs a service name in database")
	}
	host := opts.Host
	if host == "" {
		host = "localhost"
	}
	port := opts.Port
	if port == 0 {
		port = defaultPort
	}

	parts := []string{
		"DRIVER={" + d.odbcDriver + "}",
		"DBQ=//" + host + ":" + strconv.Itoa(port) + "/" + opts.Database,
	}
	if opts.User != "" {
		parts = append(parts, "UID="+opts.User, "PWD="+opts.Password)
	}
	return strings.Join(parts, ";"), nil
}

// Initialize makes the session render dates the way DateFormat says.
func (d *Dialect) Initialize(ctx context.Context, drv *database.Driver) error {
	for _, stmt := range []string{
		"ALTER SESSION SET NLS_DATE_FORMAT = '" + dateFormat + "'",
		"ALTER SESSION SET NLS_TIMESTAMP_FORMAT = '" + dateFormat + "'",
	} {
		if _, err := drv.SetQuery(stmt, 0, 0).Execute(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dialect) ErrorCode(err error) int { return nativeCode(err) }

func (d *Dialect) BackslashEscapes() bool { return false }

func (d *Dialect) Escape(text string, extra bool) string {
	return database.EscapeDoubled(text, extra)
}

func (d *Dialect) CurrentTimestamp() string { return "CURRENT_TIMESTAMP" }

func (d *Dialect) CharLength(field string) string { return "LENGTH(" + field + ")" }

func (d *Dialect) Concatenate(values []string, sep string) string {
	if sep != "" {
		return strings.Join(values, " || "+sep+" || ")
	}
	return strings.Join(values, " || ")
}

func (d *Dialect) DatePart(part database.DatePart, date string) string {
	return "EXTRACT(" + string(part) + " FROM " + date + ")"
}

func (d *Dialect) CastAsChar(value string) string { return "TO_CHAR(" + value + ")" }

func (d *Dialect) Limit(sql string, limit, offset int) string {
	if limit <= 0 && offset <= 0 {
		return sql
	}
	sql += "\nOFFSET " + strconv.Itoa(offset) + " ROWS"
	if limit > 0 {
		sql += " FETCH NEXT " + strconv.Itoa(limit) + " ROWS ONLY"
	}
	return sql
}

func (d *Dialect) BeginSQL() string { return "SET TRANSACTION READ WRITE" }

// ReleaseSavepointSQL is empty; Oracle has no RELEASE SAVEPOINT.
func (d *Dialect) ReleaseSavepointSQL(string) string { return "" }

// DropTableSQL wraps the drop in a block that ignores ORA-00942 when
// ifExists is set.
func (d *Dialect) DropTableSQL(table string, ifExists bool) string {
	if !ifExists {
		return "DROP TABLE " + table
	}
	return "BEGIN EXECUTE IMMEDIATE 'DROP TABLE " + d.Escape(table, false) + "'; " +
		"EXCEPTION WHEN OTHERS THEN IF SQLCODE != -942 THEN RAISE; END IF; END;"
}

func (d *Dialect) RenameTableSQL(old, new string) string {
	return "ALTER TABLE " + old + " RENAME TO " + new
}

// LockTableSQL holds the lock until the transaction ends.
func (d *Dialect) LockTableSQL(table string) string {
	return "LOCK TABLE " + table + " IN EXCLUSIVE MODE"
}

func (d *Dialect) UnlockTablesSQL() string { return "" }

// CreateDatabaseSQL is empty: an Oracle database is not created over a
// client session.
func (d *Dialect) CreateDatabaseSQL(string, bool) string { return "" }
