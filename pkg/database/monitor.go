package database

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Monitor observes every statement the driver dispatches.
type Monitor interface {
	StartQuery(ctx context.Context, sql string)
	StopQuery(ctx context.Context, err error)
}

// DebugMonitor keeps the executed SQL with timings in memory.
type DebugMonitor struct {
	mu      sync.Mutex
	logs    []string
	timings []time.Duration
	errs    []error
	started time.Time
}

func NewDebugMonitor() *DebugMonitor { return &DebugMonitor{} }

func (m *DebugMonitor) StartQuery(_ context.Context, sql string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, sql)
	m.started = time.Now()
}

func (m *DebugMonitor) StopQuery(_ context.Context, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timings = append(m.timings, time.Since(m.started))
	m.errs = append(m.errs, err)
}

// Logs returns the recorded statements in execution order.
func (m *DebugMonitor) Logs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.logs...)
}

func (m *DebugMonitor) Timings() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Duration(nil), m.timings...)
}

// Errors holds one entry per statement, nil for successful ones.
func (m *DebugMonitor) Errors() []error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]error(nil), m.errs...)
}

// LoggingMonitor writes one zerolog event per statement.
type LoggingMonitor struct {
	logger  zerolog.Logger
	level   zerolog.Level
	sql     string
	started time.Time
}

func NewLoggingMonitor(logger zerolog.Logger, level zerolog.Level) *LoggingMonitor {
	return &LoggingMonitor{logger: logger, level: level}
}

func (m *LoggingMonitor) StartQuery(_ context.Context, sql string) {
	m.sql = sql
	m.started = time.Now()
}

func (m *LoggingMonitor) StopQuery(_ context.Context, err error) {
	if err != nil {
		m.logger.Error().Err(err).Str("sql", m.sql).Dur("duration", time.Since(m.started)).Msg("query failed")
		return
	}
	m.logger.WithLevel(m.level).Str("sql", m.sql).Dur("duration", time.Since(m.started)).Msg("query")
}

// ChainedMonitor fans events out to several monitors in order.
type ChainedMonitor []Monitor

func (c ChainedMonitor) StartQuery(ctx context.Context, sql string) {
	for _, m := range c {
		m.StartQuery(ctx, sql)
	}
}

func (c ChainedMonitor) StopQuery(ctx context.Context, err error) {
	for _, m := range c {
		m.StopQuery(ctx, err)
	}
}
