package postgres

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/ruslano69/sqlkit/pkg/database"
)

func newMockDriver(t *testing.T, opts database.Options) (*database.Driver, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	if opts.Schema != "" && opts.Schema != defaultSchema {
		mock.ExpectExec(`SET search_path TO "` + opts.Schema + `"`).WillReturnResult(sqlmock.NewResult(0, 0))
	}
	opts.Prefix = "jos_"
	d, err := database.OpenDB(context.Background(), New(Name, opts), opts, db)
	require.NoError(t, err)
	return d, mock
}

func TestDialect_Syntax(t *testing.T) {
	d := New(Name, database.Options{})

	require.Equal(t, `"a"."b"`, d.QuoteName("a.b"))
	require.Equal(t, `"we""ird"`, d.QuoteName(`we"ird`))
	require.Equal(t, "it''s", d.Escape("it's", false))
	require.Equal(t, `a\\b`, d.Escape(`a\\b`, false))
	require.Equal(t, `5\%\_`, d.Escape("5%_", true))
	require.Equal(t, "TRUE", d.BoolLiteral(true))
	require.Equal(t, "FALSE", d.BoolLiteral(false))
	require.Equal(t, "a || ', ' || b", d.Concatenate([]string{"a", "b"}, "', '"))
	require.Equal(t, "a || b", d.Concatenate([]string{"a", "b"}, ""))
	require.Equal(t, "EXTRACT (MONTH FROM d)", d.DatePart(database.PartMonth, "d"))
	require.Equal(t, "x::text", d.CastAsChar("x"))
	require.Equal(t, "NOW()", d.CurrentTimestamp())
	require.Equal(t, "SELECT 1\nLIMIT 10\nOFFSET 20", d.Limit("SELECT 1", 10, 20))
	require.Equal(t, "SELECT 1\nOFFSET 5", d.Limit("SELECT 1", 0, 5))
	require.Equal(t, ` RETURNING "id"`, d.Returning(`"id"`))
	require.Equal(t, "1970-01-01 00:00:00", d.NullDate())
}

func TestDialect_DriverName(t *testing.T) {
	require.Equal(t, "pgx", New(Name, database.Options{}).DriverName())
	require.Equal(t, "postgres", New(NamePgSQL, database.Options{}).DriverName())
}

func TestDialect_DSN(t *testing.T) {
	dsn, err := New(Name, database.Options{}).DSN(database.Options{
		Host:     "db",
		User:     "app",
		Password: "p@ss",
		Database: "site",
		Timeout:  5 * time.Second,
	})
	require.NoError(t, err)

	u, err := url.Parse(dsn)
	require.NoError(t, err)
	require.Equal(t, "postgres", u.Scheme)
	require.Equal(t, "db:5432", u.Host)
	require.Equal(t, "/site", u.Path)
	require.Equal(t, "app", u.User.Username())
	pass, _ := u.User.Password()
	require.Equal(t, "p@ss", pass)
	require.Equal(t, "disable", u.Query().Get("sslmode"))
	require.Equal(t, "5", u.Query().Get("connect_timeout"))

	dsn, err = New(Name, database.Options{}).DSN(database.Options{Host: "db:6432", SSLMode: "require", Select: new(bool), Database: "site"})
	require.NoError(t, err)
	require.Equal(t, "postgres://db:6432?sslmode=require", dsn)
}

func TestDialect_ErrorCode(t *testing.T) {
	d := New(Name, database.Options{})

	require.Equal(t, 23505, d.ErrorCode(&pgconn.PgError{Code: "23505"}))
	require.Equal(t, 0, d.ErrorCode(&pgconn.PgError{Code: "42P01"}))
	require.Equal(t, 42601, d.ErrorCode(&pq.Error{Code: "42601"}))
	require.Equal(t, 0, d.ErrorCode(errors.New("boom")))
	require.False(t, d.IsConnectionLost(errors.New("boom")))
}

func TestDialect_DDL(t *testing.T) {
	d := New(Name, database.Options{User: "owner"})

	require.Equal(t, `ALTER TABLE "a" RENAME TO "b"`, d.RenameTableSQL(`"a"`, `"b"`))
	require.Equal(t, `TRUNCATE TABLE "a" RESTART IDENTITY`, d.TruncateTableSQL(`"a"`))
	require.Equal(t, `LOCK TABLE "a" IN ACCESS EXCLUSIVE MODE`, d.LockTableSQL(`"a"`))
	require.Equal(t, "", d.UnlockTablesSQL())
	require.Equal(t, `CREATE DATABASE "site" OWNER "owner" ENCODING 'utf8'`, d.CreateDatabaseSQL(`"site"`, true))
	require.Equal(t, `DROP TABLE IF EXISTS "a"`, d.DropTableSQL(`"a"`, true))
}

func TestDriver_InitializeSetsSearchPath(t *testing.T) {
	_, mock := newMockDriver(t, database.Options{Schema: "app"})
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDriver_InsertObjectReturning(t *testing.T) {
	d, mock := newMockDriver(t, database.Options{})
	mock.ExpectQuery(`INSERT INTO "jos_dbtest"("title") VALUES ('it''s') RETURNING "id"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	id, err := d.InsertObject(context.Background(), "#__dbtest", map[string]any{"id": 0, "title": "it's"}, "id")
	require.NoError(t, err)
	require.EqualValues(t, 7, id)
	require.EqualValues(t, 7, d.InsertID())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDriver_UnlockIsNoop(t *testing.T) {
	d, mock := newMockDriver(t, database.Options{})
	mock.ExpectExec(`LOCK TABLE "jos_a" IN ACCESS EXCLUSIVE MODE`).WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := d.LockTable(context.Background(), "#__a")
	require.NoError(t, err)
	_, err = d.UnlockTables(context.Background())
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDialect_TableList(t *testing.T) {
	d, mock := newMockDriver(t, database.Options{})
	ctx := context.Background()

	mock.ExpectQuery("SELECT table_name\nFROM information_schema.tables\nWHERE table_type = 'BASE TABLE' AND \n\ttable_schema = 'public'\nORDER BY table_name ASC").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("jos_dbtest"))
	tables, err := d.GetTableList(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"jos_dbtest"}, tables)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDialect_CatalogDecoding(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	opts := database.Options{Prefix: "jos_"}
	d, err := database.OpenDB(context.Background(), New(Name, opts), opts, db)
	require.NoError(t, err)
	ctx := context.Background()

	mock.ExpectQuery(`FROM pg_catalog.pg_attribute a`).
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "type", "null", "default", "comments"}).
			AddRow("id", "integer", "NO", "nextval('jos_dbtest_id_seq'::regclass)", "").
			AddRow("title", "character varying(50)", "NO", "'none'::character varying", "The title").
			AddRow("body", "text", "YES", nil, ""))
	mock.ExpectQuery(`FROM pg_catalog.pg_index x`).
		WillReturnRows(sqlmock.NewRows([]string{"idx_name", "column_name", "is_primary", "is_unique", "query", "index_type", "seq"}).
			AddRow("jos_dbtest_pkey", "id", true, true, "CREATE UNIQUE INDEX jos_dbtest_pkey ON jos_dbtest USING btree (id)", "btree", 1).
			AddRow("idx_title", "title", "f", "f", "CREATE INDEX idx_title ON jos_dbtest USING btree (title)", "btree", 1))
	mock.ExpectQuery(`WHERE s.relkind = 'S' AND d.deptype = 'a' AND t.relname = 'jos_dbtest'`).
		WillReturnRows(sqlmock.NewRows([]string{"sequence", "schema", "table", "column", "data_type", "minimum_value", "maximum_value", "increment", "cycle_option", "start_value"}).
			AddRow("jos_dbtest_id_seq", "public", "jos_dbtest", "id", "bigint", "1", "9223372036854775807", "1", "NO", "1"))
	mock.ExpectQuery(`SHOW server_version`).
		WillReturnRows(sqlmock.NewRows([]string{"server_version"}).AddRow("12.4 (Debian 12.4-1)"))

	cols, err := d.GetTableColumns(ctx, "#__dbtest")
	require.NoError(t, err)
	require.Len(t, cols, 3)
	require.Equal(t, "nextval('jos_dbtest_id_seq'::regclass)", *cols[0].Default)
	require.Equal(t, "none", *cols[1].Default)
	require.Nil(t, cols[2].Default)
	require.Equal(t, "The title", cols[1].Comment)

	keys, err := d.GetTableKeys(ctx, "#__dbtest")
	require.NoError(t, err)
	require.Len(t, keys, 2)
	require.True(t, keys[0].IsPrimary)
	require.Equal(t, 0, keys[0].NonUnique)
	require.False(t, keys[1].IsPrimary)
	require.Equal(t, 1, keys[1].NonUnique)
	require.Equal(t, "jos_dbtest", keys[1].Table)

	seqs, err := d.GetTableSequences(ctx, "#__dbtest")
	require.NoError(t, err)
	require.Len(t, seqs, 1)
	require.Equal(t, "jos_dbtest_id_seq", seqs[0].Name)
	require.Equal(t, "id", seqs[0].Column)

	ok, err := d.IsMinimumVersion(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = d.GetTableCreate(ctx, "#__dbtest")
	require.ErrorIs(t, err, database.ErrUnsupported)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDialect_KeysQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	opts := database.Options{Prefix: "jos_", Schema: "site"}
	mock.ExpectExec(`SET search_path TO "site"`).WillReturnResult(sqlmock.NewResult(0, 0))
	d, err := database.OpenDB(context.Background(), New(Name, opts), opts, db)
	require.NoError(t, err)

	mock.ExpectQuery(`(?s)array_lower\(x\.indkey::int2\[\], 1\) \+ 1 AS "seq".*` +
		`t\.relname = 'jos_dbtest'\s+AND t\.relnamespace = \(SELECT oid FROM pg_catalog\.pg_namespace WHERE nspname = 'site'\)`).
		WillReturnRows(sqlmock.NewRows([]string{"idx_name", "column_name", "is_primary", "is_unique", "query", "index_type", "seq"}).
			AddRow("idx_pair", "a", false, false, "CREATE INDEX idx_pair ON site.jos_dbtest USING btree (a, b)", "btree", 1).
			AddRow("idx_pair", "b", false, false, "CREATE INDEX idx_pair ON site.jos_dbtest USING btree (a, b)", "btree", 2))

	keys, err := d.GetTableKeys(context.Background(), "#__dbtest")
	require.NoError(t, err)
	require.Len(t, keys, 2)
	require.Equal(t, 1, keys[0].SeqInIndex)
	require.Equal(t, 2, keys[1].SeqInIndex)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDialect_ReplacePrefixAfterBackslashLiteral(t *testing.T) {
	d, _ := newMockDriver(t, database.Options{})

	in := "SELECT * FROM #__a WHERE path = " + d.Quote(`C:\`) + " AND id IN (SELECT id FROM #__b)"
	require.Equal(t, `SELECT * FROM jos_a WHERE path = 'C:\' AND id IN (SELECT id FROM jos_b)`, d.ReplacePrefix(in, ""))
}
