package database

import (
	"context"
	"strconv"
	"strings"
)

// DatePart names the component extracted by the date helpers.
type DatePart string

const (
	PartYear   DatePart = "YEAR"
	PartMonth  DatePart = "MONTH"
	PartDay    DatePart = "DAY"
	PartHour   DatePart = "HOUR"
	PartMinute DatePart = "MINUTE"
	PartSecond DatePart = "SECOND"
)

// Syntax is the pure, connection-free part of a dialect: quoting,
// escaping and the SQL fragments the query builder emits.
type Syntax interface {
	Name() string
	Family() string
	NameQuote() (open, close string)
	QuoteName(name string) string
	// LiteralQuotes lists the characters that open string literals,
	// used to skip literals while replacing the table prefix.
	LiteralQuotes() string
	// BackslashEscapes reports whether a backslash escapes the next
	// character inside a string literal.
	BackslashEscapes() bool
	Escape(text string, extra bool) string
	BoolLiteral(v bool) string
	NullDate() string
	MinVersion() string
	DateFormat() string
	CurrentTimestamp() string
	CharLength(field string) string
	Concatenate(values []string, quotedSeparator string) string
	Length(value string) string
	DatePart(part DatePart, date string) string
	CastAsChar(value string) string
	Limit(sql string, limit, offset int) string
	// Returning renders the clause appended to an insert for field.
	// Empty when the dialect cannot return generated keys.
	Returning(quotedField string) string
}

// TxSyntax holds the transaction statements of a dialect. An empty
// statement is skipped by the driver.
type TxSyntax interface {
	BeginSQL() string
	CommitSQL() string
	RollbackSQL() string
	SavepointSQL(quotedName string) string
	ReleaseSavepointSQL(quotedName string) string
	RollbackToSavepointSQL(quotedName string) string
}

// DDLSyntax renders the table maintenance statements.
type DDLSyntax interface {
	DropTableSQL(quotedTable string, ifExists bool) string
	RenameTableSQL(quotedOld, quotedNew string) string
	TruncateTableSQL(quotedTable string) string
	// LockTableSQL and UnlockTablesSQL return "" when the dialect has no
	// explicit table locks.
	LockTableSQL(quotedTable string) string
	UnlockTablesSQL() string
	CreateDatabaseSQL(quotedName string, utf bool) string
}

// Connector opens native connections for a dialect.
type Connector interface {
	DriverName() string
	DSN(opts Options) (string, error)
	// Initialize runs once on every fresh connection.
	Initialize(ctx context.Context, d *Driver) error
	IsConnectionLost(err error) bool
	ErrorCode(err error) int
}

// Introspector reads the catalog through the driver.
type Introspector interface {
	TableList(ctx context.Context, d *Driver) ([]string, error)
	TableColumns(ctx context.Context, d *Driver, table string) ([]Column, error)
	TableKeys(ctx context.Context, d *Driver, table string) ([]Key, error)
	TableCreate(ctx context.Context, d *Driver, table string) (string, error)
	TableSequences(ctx context.Context, d *Driver, table string) ([]Sequence, error)
	Version(ctx context.Context, d *Driver) (string, error)
	Collation(ctx context.Context, d *Driver) (string, error)
	ConnectionCollation(ctx context.Context, d *Driver) (string, error)
}

// Dialect is everything the generic Driver and Query need from an engine.
type Dialect interface {
	Syntax
	TxSyntax
	DDLSyntax
	Connector
	Introspector
}

// Column is one row of GetTableColumns.
type Column struct {
	Field     string
	Type      string
	Null      string
	Key       string
	Default   *string
	Extra     string
	Comment   string
	Collation string
}

// Key is one column of one index, as returned by GetTableKeys.
type Key struct {
	Table      string
	NonUnique  int
	KeyName    string
	SeqInIndex int
	ColumnName string
	Collation  string
	Null       string
	IndexType  string
	Comment    string
	// Query holds the index definition on engines that report one.
	Query     string
	IsPrimary bool
}

// Sequence describes a sequence owned by a table column.
type Sequence struct {
	Name         string
	Schema       string
	Table        string
	Column       string
	DataType     string
	StartValue   string
	MinimumValue string
	MaximumValue string
	Increment    string
	CycleOption  string
}

// BaseDialect carries MySQL-flavoured defaults. Engines embed it and
// override what differs.
type BaseDialect struct {
	DialectName   string
	DialectFamily string
	QuoteOpen     string
	QuoteClose    string
	Literals      string
	Null          string
	Min           string
	Format        string
}

func (b *BaseDialect) Name() string   { return b.DialectName }
func (b *BaseDialect) Family() string { return b.DialectFamily }

func (b *BaseDialect) NameQuote() (string, string) { return b.QuoteOpen, b.QuoteClose }

func (b *BaseDialect) LiteralQuotes() string {
	if b.Literals == "" {
		return "'"
	}
	return b.Literals
}

func (b *BaseDialect) BackslashEscapes() bool { return true }

func (b *BaseDialect) NullDate() string   { return b.Null }
func (b *BaseDialect) MinVersion() string { return b.Min }

func (b *BaseDialect) DateFormat() string {
	if b.Format == "" {
		return "Y-m-d H:i:s"
	}
	return b.Format
}

// QuoteName quotes a dotted identifier segment by segment. A closing
// quote inside a segment is doubled; "*" is left bare.
func (b *BaseDialect) QuoteName(name string) string {
	return QuoteIdentifier(name, b.QuoteOpen, b.QuoteClose)
}

// QuoteIdentifier is the quoting routine shared by every dialect.
func QuoteIdentifier(name, open, close string) string {
	if open == "" && close == "" {
		return name
	}
	parts := strings.Split(name, ".")
	for i, p := range parts {
		if p == "*" {
			continue
		}
		if close != "" {
			p = strings.ReplaceAll(p, close, close+close)
		}
		parts[i] = open + p + close
	}
	return strings.Join(parts, ".")
}

var mysqlEscaper = strings.NewReplacer(
	"\\", "\\\\",
	"\x00", "\\0",
	"\n", "\\n",
	"\r", "\\r",
	"'", "\\'",
	"\"", "\\\"",
	"\x1a", "\\Z",
)

// Escape backslash-escapes like mysql_real_escape_string. extra also
// escapes the LIKE wildcards.
func (b *BaseDialect) Escape(text string, extra bool) string {
	out := mysqlEscaper.Replace(text)
	if extra {
		out = EscapeWildcards(out)
	}
	return out
}

// EscapeWildcards backslash-escapes % and _.
func EscapeWildcards(s string) string {
	return strings.NewReplacer("%", "\\%", "_", "\\_").Replace(s)
}

// EscapeDoubled doubles single quotes, the ANSI literal escape.
func EscapeDoubled(text string, extra bool) string {
	out := strings.ReplaceAll(text, "'", "''")
	if extra {
		out = EscapeWildcards(out)
	}
	return out
}

func (b *BaseDialect) BoolLiteral(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

func (b *BaseDialect) CurrentTimestamp() string { return "CURRENT_TIMESTAMP()" }

func (b *BaseDialect) CharLength(field string) string { return "CHAR_LENGTH(" + field + ")" }

func (b *BaseDialect) Concatenate(values []string, sep string) string {
	if sep != "" {
		return "CONCAT_WS(" + sep + ", " + strings.Join(values, ", ") + ")"
	}
	return "CONCAT(" + strings.Join(values, ", ") + ")"
}

func (b *BaseDialect) Length(value string) string { return "LENGTH(" + value + ")" }

func (b *BaseDialect) DatePart(part DatePart, date string) string {
	return string(part) + "(" + date + ")"
}

func (b *BaseDialect) CastAsChar(value string) string { return value }

func (b *BaseDialect) Limit(sql string, limit, offset int) string {
	if limit > 0 || offset > 0 {
		sql += "\nLIMIT " + strconv.Itoa(offset) + ", " + strconv.Itoa(limit)
	}
	return sql
}

func (b *BaseDialect) Returning(string) string { return "" }

func (b *BaseDialect) BeginSQL() string    { return "START TRANSACTION" }
func (b *BaseDialect) CommitSQL() string   { return "COMMIT" }
func (b *BaseDialect) RollbackSQL() string { return "ROLLBACK" }

func (b *BaseDialect) SavepointSQL(name string) string { return "SAVEPOINT " + name }

func (b *BaseDialect) ReleaseSavepointSQL(name string) string {
	return "RELEASE SAVEPOINT " + name
}

func (b *BaseDialect) RollbackToSavepointSQL(name string) string {
	return "ROLLBACK TO SAVEPOINT " + name
}

func (b *BaseDialect) DropTableSQL(table string, ifExists bool) string {
	if ifExists {
		return "DROP TABLE IF EXISTS " + table
	}
	return "DROP TABLE " + table
}

func (b *BaseDialect) RenameTableSQL(old, new string) string {
	return "RENAME TABLE " + old + " TO " + new
}

func (b *BaseDialect) TruncateTableSQL(table string) string { return "TRUNCATE TABLE " + table }

func (b *BaseDialect) LockTableSQL(table string) string { return "LOCK TABLES " + table + " WRITE" }

func (b *BaseDialect) UnlockTablesSQL() string { return "UNLOCK TABLES" }

func (b *BaseDialect) CreateDatabaseSQL(name string, utf bool) string {
	if utf {
		return "CREATE DATABASE " + name + " CHARACTER SET `utf8`"
	}
	return "CREATE DATABASE " + name
}

func (b *BaseDialect) Initialize(context.Context, *Driver) error { return nil }

// IsConnectionLost is false by default: only engines that opt in get
// the reconnect-and-retry path.
func (b *BaseDialect) IsConnectionLost(error) bool { return false }

func (b *BaseDialect) ErrorCode(error) int { return 0 }

func (b *BaseDialect) TableSequences(context.Context, *Driver, string) ([]Sequence, error) {
	return nil, Errorf(KindUnsupported, "GetTableSequences", "%s has no sequences", b.DialectName)
}

func (b *BaseDialect) ConnectionCollation(context.Context, *Driver) (string, error) {
	return "", Errorf(KindUnsupported, "GetConnectionCollation", "not reported by %s", b.DialectName)
}

// IsMinimumVersion compares dotted numeric versions.
func IsMinimumVersion(version, minimum string) bool {
	return compareVersions(version, minimum) >= 0
}

func compareVersions(a, b string) int {
	as, bs := versionParts(a), versionParts(b)
	for i := 0; i < len(as) || i < len(bs); i++ {
		var x, y int
		if i < len(as) {
			x = as[i]
		}
		if i < len(bs) {
			y = bs[i]
		}
		if x != y {
			if x < y {
				return -1
			}
			return 1
		}
	}
	return 0
}

func versionParts(v string) []int {
	var out []int
	for _, p := range strings.Split(v, ".") {
		end := 0
		for end < len(p) && p[end] >= '0' && p[end] <= '9' {
			end++
		}
		n, _ := strconv.Atoi(p[:end])
		out = append(out, n)
		if end < len(p) {
			break
		}
	}
	return out
}
