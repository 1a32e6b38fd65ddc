package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ruslano69/sqlkit/pkg/retry"
)

// Driver owns one native connection and runs one statement at a time
// on it. A Driver is not safe for concurrent use; open one per
// goroutine that needs its own session.
type Driver struct {
	dialect Dialect
	options Options

	db     *sql.DB
	conn   *sql.Conn
	ownsDB bool

	prefix string

	sql      string
	query    *Query
	queryErr error
	offset   int
	limit    int

	depth        int
	// initializing is set while the dialect prepares a new session;
	// statements run then are never retried.
	initializing bool

	count    int
	affected int64
	insertID int64

	debug   bool
	log     []string
	timings []time.Duration

	logger  *zerolog.Logger
	monitor Monitor
	retryer *retry.Retryer
}

// Open connects a new driver for dialect. The driver is returned only
// when the connection is established and initialised.
func Open(ctx context.Context, dialect Dialect, opts Options) (*Driver, error) {
	return OpenDB(ctx, dialect, opts, nil)
}

// OpenDB is Open over an existing handle. db may be nil, in which case
// a handle is opened from the dialect's DSN and owned by the driver.
func OpenDB(ctx context.Context, dialect Dialect, opts Options, db *sql.DB) (*Driver, error) {
	if dialect == nil {
		return nil, Errorf(KindConfiguration, "Open", "no dialect given")
	}
	if opts.Driver == "" {
		opts.Driver = dialect.Name()
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	d := &Driver{
		dialect: dialect,
		options: opts,
		db:      db,
		prefix:  opts.Prefix,
		debug:   opts.Debug,
	}
	if d.prefix == "" {
		d.prefix = DefaultPrefix
	}

	r, err := retry.NewRetryer(retry.ReconnectOnce(dialect.IsConnectionLost, d.reconnect))
	if err != nil {
		return nil, NewError(KindConfiguration, "Open", err)
	}
	d.retryer = r

	if err := d.connect(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Driver) connect(ctx context.Context) error {
	if d.db == nil {
		dsn, err := d.dialect.DSN(d.options)
		if err != nil {
			return NewError(KindConfiguration, "Connect", err)
		}
		db, err := sql.Open(d.dialect.DriverName(), dsn)
		if err != nil {
			return NewError(KindConfiguration, "Connect",
				fmt.Errorf("%s connector unavailable: %w", d.dialect.DriverName(), err))
		}
		db.SetMaxOpenConns(1)
		d.db = db
		d.ownsDB = true
	}

	if err := d.openConn(ctx); err != nil {
		if d.ownsDB {
			d.db.Close()
			d.db = nil
		}
		return err
	}
	return nil
}

func (d *Driver) openConn(ctx context.Context) error {
	if d.options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.options.Timeout)
		defer cancel()
	}

	conn, err := d.db.Conn(ctx)
	if err != nil {
		return NewError(KindConnection, "Connect", fmt.Errorf("failed to connect to %s: %w", d.dialect.Name(), err))
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return NewError(KindConnection, "Connect", fmt.Errorf("failed to ping database: %w", err))
	}
	d.conn = conn

	d.initializing = true
	err = d.dialect.Initialize(ctx, d)
	d.initializing = false
	if err != nil {
		d.conn.Close()
		d.conn = nil
		if KindOf(err) != 0 {
			return err
		}
		return NewError(KindConnection, "Connect", err)
	}
	d.Log(zerolog.DebugLevel, "connected", map[string]any{"dialect": d.dialect.Name()})
	return nil
}

// reconnect replaces a dropped connection. Used by the retry policy.
func (d *Driver) reconnect(ctx context.Context) error {
	if d.conn != nil {
		d.conn.Close()
		d.conn = nil
	}
	d.Log(zerolog.WarnLevel, "connection lost, reconnecting", nil)
	return d.openConn(ctx)
}

// Connected reports whether the connection answers a ping.
func (d *Driver) Connected(ctx context.Context) bool {
	return d.conn != nil && d.conn.PingContext(ctx) == nil
}

// Close releases the connection. An open transaction is not rolled
// back here; the server discards it with the session.
func (d *Driver) Close() error {
	var errs []error
	if d.conn != nil {
		errs = append(errs, d.conn.Close())
		d.conn = nil
	}
	if d.db != nil && d.ownsDB {
		errs = append(errs, d.db.Close())
	}
	d.db = nil
	return errors.Join(errs...)
}

func (d *Driver) Dialect() Dialect   { return d.dialect }
func (d *Driver) Options() Options   { return d.options }
func (d *Driver) Prefix() string     { return d.prefix }
func (d *Driver) Name() string       { return d.dialect.Name() }
func (d *Driver) Database() string   { return d.options.Database }
func (d *Driver) NullDate() string   { return d.dialect.NullDate() }
func (d *Driver) MinVersion() string { return d.dialect.MinVersion() }

// Count is the number of statements dispatched so far.
func (d *Driver) Count() int { return d.count }

// AffectedRows reports the rows changed by the last Execute.
func (d *Driver) AffectedRows() int64 { return d.affected }

// InsertID is the id generated by the last insert, 0 when unknown.
func (d *Driver) InsertID() int64 { return d.insertID }

// Logs returns the statements recorded in debug mode.
func (d *Driver) Logs() []string { return append([]string(nil), d.log...) }

// Timings returns the duration of each statement recorded in debug mode.
func (d *Driver) Timings() []time.Duration { return append([]time.Duration(nil), d.timings...) }

func (d *Driver) SetDebug(debug bool) *Driver {
	d.debug = debug
	return d
}

// SetLogger attaches a logger. Log is a no-op until one is set.
func (d *Driver) SetLogger(l zerolog.Logger) *Driver {
	d.logger = &l
	return d
}

// Log forwards level, message and fields to the attached logger.
func (d *Driver) Log(level zerolog.Level, msg string, fields map[string]any) {
	if d.logger == nil {
		return
	}
	ev := d.logger.WithLevel(level)
	if len(fields) > 0 {
		ev = ev.Fields(fields)
	}
	ev.Msg(msg)
}

func (d *Driver) SetMonitor(m Monitor) *Driver {
	d.monitor = m
	return d
}

// GetQuery returns a new query bound to the driver when fresh is true,
// otherwise the builder last passed to SetQuery (nil if none).
func (d *Driver) GetQuery(fresh bool) *Query {
	if fresh {
		return newDriverQuery(d)
	}
	return d.query
}

// SetQuery stores the next statement, a string or a *Query, with an
// optional result window.
func (d *Driver) SetQuery(query any, offset, limit int) *Driver {
	d.sql, d.query, d.queryErr = "", nil, nil
	switch q := query.(type) {
	case string:
		d.sql = q
	case *Query:
		d.query = q
	case fmt.Stringer:
		d.sql = q.String()
	default:
		d.queryErr = Errorf(KindConfiguration, "SetQuery", "unsupported query type %T", query)
	}
	d.offset, d.limit = offset, limit
	return d
}

// SQL renders the current statement exactly as it would be sent.
func (d *Driver) SQL() (string, error) {
	if d.queryErr != nil {
		return "", d.queryErr
	}
	stmt := d.sql
	if d.query != nil {
		var err error
		if stmt, err = d.query.Render(); err != nil {
			return "", err
		}
	}
	if stmt == "" {
		return "", Errorf(KindConfiguration, "Execute", "no query set")
	}
	if d.limit > 0 || d.offset > 0 {
		stmt = d.dialect.Limit(stmt, d.limit, d.offset)
	}
	return d.ReplacePrefix(stmt, DefaultPlaceholder), nil
}

// Execute runs the current statement. MySQL-family connections lost
// outside a transaction are reopened and the statement retried once.
func (d *Driver) Execute(ctx context.Context) (sql.Result, error) {
	stmt, err := d.SQL()
	if err != nil {
		return nil, err
	}

	if d.query != nil && d.query.returnsID() {
		var id int64
		err := d.dispatch(ctx, stmt, func(ctx context.Context) error {
			return d.conn.QueryRowContext(ctx, stmt).Scan(&id)
		})
		if err != nil {
			return nil, err
		}
		d.affected, d.insertID = 1, id
		return insertResult(id), nil
	}

	var res sql.Result
	err = d.dispatch(ctx, stmt, func(ctx context.Context) error {
		var err error
		res, err = d.conn.ExecContext(ctx, stmt)
		return err
	})
	if err != nil {
		return nil, err
	}
	d.affected, _ = res.RowsAffected()
	if id, err := res.LastInsertId(); err == nil {
		d.insertID = id
	}
	return res, nil
}

type insertResult int64

func (r insertResult) LastInsertId() (int64, error) { return int64(r), nil }
func (r insertResult) RowsAffected() (int64, error) { return 1, nil }

// dispatch runs fn for stmt with counting, debug log, monitors and the
// reconnect policy. Errors come back as *Error.
func (d *Driver) dispatch(ctx context.Context, stmt string, fn func(ctx context.Context) error) error {
	if d.conn == nil {
		return Errorf(KindConnection, "Execute", "driver is not connected")
	}

	d.count++
	if d.debug {
		d.log = append(d.log, stmt)
	}
	if d.monitor != nil {
		d.monitor.StartQuery(ctx, stmt)
	}

	start := time.Now()
	var err error
	if d.depth == 0 && !d.initializing {
		err = d.retryer.Do(ctx, fn)
	} else {
		err = fn(ctx)
	}
	elapsed := time.Since(start)

	if d.debug {
		d.timings = append(d.timings, elapsed)
	}
	if d.monitor != nil {
		d.monitor.StopQuery(ctx, err)
	}
	if err == nil {
		d.Log(zerolog.DebugLevel, "query", map[string]any{"sql": stmt, "duration": elapsed.String()})
		return nil
	}

	var dbErr *Error
	if errors.As(err, &dbErr) && dbErr.Kind == KindConnection {
		return err
	}
	kind := KindQuery
	if d.dialect.IsConnectionLost(err) {
		kind = KindConnection
	}
	d.Log(zerolog.ErrorLevel, "query failed", map[string]any{"sql": stmt, "error": err.Error()})
	return &Error{Kind: kind, Op: "Execute", SQL: stmt, Code: d.dialect.ErrorCode(err), Err: err}
}

// Escape escapes text for use inside a single-quoted literal.
func (d *Driver) Escape(text string, extra bool) string {
	return d.dialect.Escape(text, extra)
}

// Quote renders v as a literal: strings are escaped and quoted, bools
// use the dialect's literal and nil becomes ''.
func (d *Driver) Quote(v any) string {
	return quoteValue(d.dialect, func(s string) string { return d.Escape(s, false) }, v)
}

func (d *Driver) QuoteRaw(text string) string { return "'" + text + "'" }

func (d *Driver) QuoteName(name string) string { return d.dialect.QuoteName(name) }
