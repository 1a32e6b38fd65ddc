// Package sqlsrv implements the sqlsrv and sqlazure dialects on
// denisenkom/go-mssqldb.
package sqlsrv

import (
	"errors"
	"net"
	"net/url"
	"strconv"
	"strings"

	mssql "github.com/denisenkom/go-mssqldb"

	"github.com/ruslano69/sqlkit/pkg/database"
)

const (
	Name      = "sqlsrv"
	NameAzure = "sqlazure"

	defaultPort = 1433
)

// Dialect talks to Microsoft SQL Server. The sqlazure variant only
// forces an encrypted connection.
type Dialect struct {
	database.BaseDialect
}

var _ database.Dialect = (*Dialect)(nil)

func New(name string) *Dialect {
	return &Dialect{database.BaseDialect{
		DialectName:   name,
		DialectFamily: "sqlsrv",
		QuoteOpen:     "[",
		QuoteClose:    "]",
		Literals:      "'",
		Null:          "1900-01-01 00:00:00",
		Min:           "10.50.1600.1",
	}}
}

// Register adds sqlsrv and sqlazure to f.
func Register(f *database.Factory) {
	for _, name := range []string{Name, NameAzure} {
		f.Register(name, func(database.Options) (database.Dialect, error) {
			return New(name), nil
		})
	}
}

func (d *Dialect) DriverName() string { return "sqlserver" }

// DSN builds a sqlserver:// URL. Options.SSLMode is passed as the
// encrypt parameter.
func (d *Dialect) DSN(opts database.Options) (string, error) {
	if opts.DSN != "" {
		return opts.DSN, nil
	}

	host := opts.Host
	if host == "" {
		host = "localhost"
	}
	if _, _, err := net.SplitHostPort(host); err != nil {
		port := opts.Port
		if port == 0 {
			port = defaultPort
		}
		host = net.JoinHostPort(host, strconv.Itoa(port))
	}

	u := url.URL{Scheme: "sqlserver", Host: host}
	if opts.User != "" {
		u.User = url.UserPassword(opts.User, opts.Password)
	}
	q := url.Values{}
	if opts.SelectDatabase() && opts.Database != "" {
		q.Set("database", opts.Database)
	}
	encrypt := opts.SSLMode
	if encrypt == "" && d.DialectName == NameAzure {
		encrypt = "true"
	}
	if encrypt != "" {
		q.Set("encrypt", encrypt)
	}
	if opts.Timeout > 0 {
		q.Set("connection timeout", strconv.Itoa(int(opts.Timeout.Seconds())))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ErrorCode returns the server error number.
func (d *Dialect) ErrorCode(err error) int {
	var me mssql.Error
	if errors.As(err, &me) {
		return int(me.Number)
	}
	var pe *mssql.Error
	if errors.As(err, &pe) {
		return int(pe.Number)
	}
	return 0
}

var bracketWildcards = strings.NewReplacer("[", "[[]", "_", "[_]", "%", "[%]")

func (d *Dialect) BackslashEscapes() bool { return false }

// Escape doubles single quotes. NUL cannot appear in a query string
// and is spliced in with CHAR(0); extra escapes the LIKE wildcards in
// bracket form.
func (d *Dialect) Escape(text string, extra bool) string {
	out := strings.ReplaceAll(text, "'", "''")
	out = strings.ReplaceAll(out, "\x00", "' + CHAR(0) + N'")
	if extra {
		out = bracketWildcards.Replace(out)
	}
	return out
}

func (d *Dialect) CurrentTimestamp() string { return "GETDATE()" }

func (d *Dialect) CharLength(field string) string { return "DATALENGTH(" + field + ")" }

func (d *Dialect) Length(value string) string { return "LEN(" + value + ")" }

func (d *Dialect) Concatenate(values []string, sep string) string {
	if sep != "" {
		return "(" + strings.Join(values, "+"+sep+"+") + ")"
	}
	return "(" + strings.Join(values, "+") + ")"
}

func (d *Dialect) DatePart(part database.DatePart, date string) string {
	return "DATEPART(" + strings.ToLower(string(part)) + ", " + date + ")"
}

func (d *Dialect) CastAsChar(value string) string {
	return "CAST(" + value + " as NVARCHAR(10))"
}

// Limit uses OFFSET/FETCH, which needs an ORDER BY. A statement
// without one gets ORDER BY (SELECT NULL).
func (d *Dialect) Limit(sql string, limit, offset int) string {
	if limit <= 0 && offset <= 0 {
		return sql
	}
	if !strings.Contains(strings.ToUpper(sql), "ORDER BY") {
		sql += "\nORDER BY (SELECT NULL)"
	}
	sql += "\nOFFSET " + strconv.Itoa(offset) + " ROWS"
	if limit > 0 {
		sql += " FETCH NEXT " + strconv.Itoa(limit) + " ROWS ONLY"
	}
	return sql
}

func (d *Dialect) BeginSQL() string    { return "BEGIN TRANSACTION" }
func (d *Dialect) CommitSQL() string   { return "COMMIT TRANSACTION" }
func (d *Dialect) RollbackSQL() string { return "ROLLBACK TRANSACTION" }

func (d *Dialect) SavepointSQL(name string) string { return "SAVE TRANSACTION " + name }

// ReleaseSavepointSQL is empty: savepoints end with the transaction.
func (d *Dialect) ReleaseSavepointSQL(string) string { return "" }

func (d *Dialect) RollbackToSavepointSQL(name string) string {
	return "ROLLBACK TRANSACTION " + name
}

func (d *Dialect) DropTableSQL(table string, ifExists bool) string {
	if ifExists {
		return "IF OBJECT_ID(N'" + d.Escape(table, false) + "', N'U') IS NOT NULL DROP TABLE " + table
	}
	return "DROP TABLE " + table
}

// RenameTableSQL calls sp_rename, which takes the new name unquoted.
func (d *Dialect) RenameTableSQL(old, new string) string {
	return "EXEC sp_rename N'" + d.Escape(old, false) + "', N'" + d.Escape(unbracket(new), false) + "'"
}

func (d *Dialect) LockTableSQL(string) string { return "" }
func (d *Dialect) UnlockTablesSQL() string    { return "" }

func (d *Dialect) CreateDatabaseSQL(name string, _ bool) string { return "CREATE DATABASE " + name }

// unbracket strips one level of [] quoting from the last segment.
func unbracket(name string) string {
	if i := strings.LastIndex(name, "].["); i >= 0 {
		name = name[i+2:]
	}
	if strings.HasPrefix(name, "[") && strings.HasSuffix(name, "]") {
		name = strings.ReplaceAll(name[1:len(name)-1], "]]", "]")
	}
	return name
}
