package oracle

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/ruslano69/sqlkit/pkg/database"
)

func newMockDriver(t *testing.T) (*database.Driver, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mock.ExpectExec("ALTER SESSION SET NLS_DATE_FORMAT = 'RRRR-MM-DD HH24:MI:SS'").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("ALTER SESSION SET NLS_TIMESTAMP_FORMAT = 'RRRR-MM-DD HH24:MI:SS'").WillReturnResult(sqlmock.NewResult(0, 0))
	opts := database.Options{Prefix: "jos_"}
	d, err := database.OpenDB(context.Background(), New(opts), opts, db)
	require.NoError(t, err)
	return d, mock
}

func TestDialect_Syntax(t *testing.T) {
	d := New(database.Options{})

	require.Equal(t, `"a"."b"`, d.QuoteName("a.b"))
	require.Equal(t, "it''s", d.Escape("it's", false))
	require.Equal(t, dateFormat, d.DateFormat())
	require.Equal(t, "1970-01-01 00:00:00", d.NullDate())
	require.Equal(t, "a || '-' || b", d.Concatenate([]string{"a", "b"}, "'-'"))
	require.Equal(t, "EXTRACT(DAY FROM d)", d.DatePart(database.PartDay, "d"))
	require.Equal(t, "TO_CHAR(x)", d.CastAsChar("x"))
	require.Equal(t, "SELECT 1 FROM dual\nOFFSET 10 ROWS FETCH NEXT 5 ROWS ONLY", d.Limit("SELECT 1 FROM dual", 5, 10))
	require.Equal(t, "SELECT 1 FROM dual\nOFFSET 3 ROWS", d.Limit("SELECT 1 FROM dual", 0, 3))
	require.Equal(t, "SET TRANSACTION READ WRITE", d.BeginSQL())
	require.Equal(t, "", d.ReleaseSavepointSQL(`"SP_1"`))
	require.Equal(t, `ROLLBACK TO SAVEPOINT "SP_1"`, d.RollbackToSavepointSQL(`"SP_1"`))
	require.Equal(t, 0, d.ErrorCode(nil))
}

func TestDialect_DSN(t *testing.T) {
	d := New(database.Options{})

	dsn, err := d.DSN(database.Options{Host: "ora", User: "app", Password: "secret", Database: "XEPDB1"})
	require.NoError(t, err)
	require.Equal(t, "DRIVER={Oracle};DBQ=//ora:1521/XEPDB1;UID=app;PWD=secret", dsn)

	dsn, err = New(database.Options{Charset: "Oracle in OraClient19Home1"}).DSN(database.Options{Database: "ORCL", Port: 1600})
	require.NoError(t, err)
	require.Equal(t, "DRIVER={Oracle in OraClient19Home1};DBQ=//localhost:1600/ORCL", dsn)

	_, err = d.DSN(database.Options{})
	require.ErrorIs(t, err, database.ErrConfiguration)
}

func TestDialect_DDL(t *testing.T) {
	d := New(database.Options{})

	require.Equal(t, `DROP TABLE "a"`, d.DropTableSQL(`"a"`, false))
	require.Equal(t, `BEGIN EXECUTE IMMEDIATE 'DROP TABLE "a"'; EXCEPTION WHEN OTHERS THEN IF SQLCODE != -942 THEN RAISE; END IF; END;`,
		d.DropTableSQL(`"a"`, true))
	require.Equal(t, `ALTER TABLE "a" RENAME TO "b"`, d.RenameTableSQL(`"a"`, `"b"`))
	require.Equal(t, `LOCK TABLE "a" IN EXCLUSIVE MODE`, d.LockTableSQL(`"a"`))
}

func TestDriver_CreateDatabaseUnsupported(t *testing.T) {
	d, mock := newMockDriver(t)
	require.ErrorIs(t, d.CreateDatabase(context.Background(), "site", true), database.ErrUnsupported)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDialect_Columns(t *testing.T) {
	d, mock := newMockDriver(t)
	mock.ExpectQuery("SELECT column_name,\n\tdata_type,\n\tdata_length,\n\tnullable,\n\tdata_default\nFROM user_tab_columns\nWHERE table_name = 'jos_dbtest'\nORDER BY column_id").
		WillReturnRows(sqlmock.NewRows([]string{"COLUMN_NAME", "DATA_TYPE", "DATA_LENGTH", "NULLABLE", "DATA_DEFAULT"}).
			AddRow("ID", "NUMBER", 22, "N", nil).
			AddRow("TITLE", "VARCHAR2", 50, "Y", "'none'"))

	cols, err := d.GetTableColumns(context.Background(), "#__dbtest")
	require.NoError(t, err)
	require.Len(t, cols, 2)
	require.Equal(t, database.Column{Field: "ID", Type: "NUMBER", Null: "NO"}, cols[0])
	require.Equal(t, "VARCHAR2(50)", cols[1].Type)
	require.Equal(t, "YES", cols[1].Null)
	require.Equal(t, "'none'", *cols[1].Default)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDialect_Sequences(t *testing.T) {
	d, mock := newMockDriver(t)
	mock.ExpectQuery("SELECT sequence_name,\n\tmin_value,\n\tmax_value,\n\tincrement_by,\n\tcycle_flag,\n\tlast_number\nFROM user_sequences\nWHERE sequence_name LIKE 'jos\\_dbtest%' ESCAPE '\\'").
		WillReturnRows(sqlmock.NewRows([]string{"SEQUENCE_NAME", "MIN_VALUE", "MAX_VALUE", "INCREMENT_BY", "CYCLE_FLAG", "LAST_NUMBER"}).
			AddRow("jos_dbtest_SEQ", 1, "9999999999999999999999999999", 1, "N", 21))

	seqs, err := d.GetTableSequences(context.Background(), "#__dbtest")
	require.NoError(t, err)
	require.Len(t, seqs, 1)
	require.Equal(t, "jos_dbtest_SEQ", seqs[0].Name)
	require.Equal(t, "21", seqs[0].StartValue)
	require.Equal(t, "jos_dbtest", seqs[0].Table)
	require.NoError(t, mock.ExpectationsWereMet())
}
