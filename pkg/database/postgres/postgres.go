// Package postgres implements the postgresql dialect on pgx and the
// pgsql dialect on lib/pq. Both speak the same SQL; they differ only in
// the native client.
package postgres

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"

	"github.com/ruslano69/sqlkit/pkg/database"
)

const (
	Name      = "postgresql"
	NamePgSQL = "pgsql"

	defaultPort   = 5432
	defaultSchema = "public"
)

type Dialect struct {
	database.BaseDialect

	schema string
	owner  string
}

var _ database.Dialect = (*Dialect)(nil)

// New returns the dialect registered as name. The schema and owner
// from opts are used by the catalog queries and CreateDatabase.
func New(name string, opts database.Options) *Dialect {
	schema := opts.Schema
	if schema == "" {
		schema = defaultSchema
	}
	return &Dialect{
		BaseDialect: database.BaseDialect{
			DialectName:   name,
			DialectFamily: "postgresql",
			QuoteOpen:     `"`,
			QuoteClose:    `"`,
			Literals:      "'",
			Null:          "1970-01-01 00:00:00",
			Min:           "8.3.18",
		},
		schema: schema,
		owner:  opts.User,
	}
}

// Register adds postgresql and pgsql to f.
func Register(f *database.Factory) {
	for _, name := range []string{Name, NamePgSQL} {
		f.Register(name, func(opts database.Options) (database.Dialect, error) {
			return New(name, opts), nil
		})
	}
}

// DriverName is the database/sql driver: pgx for postgresql, lib/pq
// for pgsql.
func (d *Dialect) DriverName() string {
	if d.DialectName == NamePgSQL {
		return "postgres"
	}
	return "pgx"
}

// DSN builds a postgres:// URL understood by both clients.
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

	u := url.URL{Scheme: "postgres", Host: host}
	if opts.User != "" {
		u.User = url.UserPassword(opts.User, opts.Password)
	}
	if opts.SelectDatabase() && opts.Database != "" {
		u.Path = "/" + opts.Database
	}

	q := url.Values{}
	sslmode := opts.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	q.Set("sslmode", sslmode)
	if opts.Timeout > 0 {
		q.Set("connect_timeout", strconv.Itoa(int(opts.Timeout.Seconds())))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Initialize points search_path at the configured schema.
func (d *Dialect) Initialize(ctx context.Context, drv *database.Driver) error {
	if d.schema == defaultSchema {
		return nil
	}
	_, err := drv.SetQuery("SET search_path TO "+drv.QuoteName(d.schema), 0, 0).Execute(ctx)
	return err
}

// ErrorCode returns the SQLSTATE as a number when it is all digits
// (23505 for unique_violation); class codes with letters give 0.
func (d *Dialect) ErrorCode(err error) int {
	var state string
	var pgErr *pgconn.PgError
	var pqErr *pq.Error
	switch {
	case errors.As(err, &pgErr):
		state = pgErr.Code
	case errors.As(err, &pqErr):
		state = string(pqErr.Code)
	}
	n, convErr := strconv.Atoi(state)
	if convErr != nil {
		return 0
	}
	return n
}

func (d *Dialect) BackslashEscapes() bool { return false }

// Escape doubles single quotes; standard_conforming_strings is on, so
// backslashes are literal.
func (d *Dialect) Escape(text string, extra bool) string {
	return database.EscapeDoubled(text, extra)
}

func (d *Dialect) BoolLiteral(v bool) string {
	if v {
		return "TRUE"
	}
	return "FALSE"
}

func (d *Dialect) CurrentTimestamp() string { return "NOW()" }

func (d *Dialect) Concatenate(values []string, sep string) string {
	if sep != "" {
		return strings.Join(values, " || "+sep+" || ")
	}
	return strings.Join(values, " || ")
}

func (d *Dialect) DatePart(part database.DatePart, date string) string {
	return "EXTRACT (" + string(part) + " FROM " + date + ")"
}

func (d *Dialect) CastAsChar(value string) string { return value + "::text" }

func (d *Dialect) Limit(sql string, limit, offset int) string {
	if limit > 0 {
		sql += "\nLIMIT " + strconv.Itoa(limit)
	}
	if offset > 0 {
		sql += "\nOFFSET " + strconv.Itoa(offset)
	}
	return sql
}

func (d *Dialect) Returning(field string) string { return " RETURNING " + field }

func (d *Dialect) RenameTableSQL(old, new string) string {
	return "ALTER TABLE " + old + " RENAME TO " + new
}

func (d *Dialect) TruncateTableSQL(table string) string {
	return "TRUNCATE TABLE " + table + " RESTART IDENTITY"
}

// LockTableSQL needs an open transaction; the lock ends with it.
func (d *Dialect) LockTableSQL(table string) string {
	return "LOCK TABLE " + table + " IN ACCESS EXCLUSIVE MODE"
}

func (d *Dialect) UnlockTablesSQL() string { return "" }

func (d *Dialect) CreateDatabaseSQL(name string, utf bool) string {
	stmt := "CREATE DATABASE " + name
	if d.owner != "" {
		stmt += " OWNER " + d.QuoteName(d.owner)
	}
	if utf {
		stmt += " ENCODING 'utf8'"
	}
	return stmt
}
