package querylog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ruslano69/sqlkit/pkg/database"
	"github.com/ruslano69/sqlkit/pkg/database/sqlite"
)

func newTestMonitor(t *testing.T, cfg Config) (*RedisMonitor, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	m := NewRedisMonitorWithClient(rdb, cfg, zerolog.Nop())
	t.Cleanup(func() { m.Close() })
	return m, mr
}

func TestStopQuery_PushesEntry(t *testing.T) {
	m, mr := newTestMonitor(t, Config{Name: "site"})
	ctx := context.Background()

	m.StartQuery(ctx, "SELECT 1")
	m.StopQuery(ctx, nil)
	m.StartQuery(ctx, "SELECT broken")
	m.StopQuery(ctx, errors.New("syntax error"))

	if err := m.Err(); err != nil {
		t.Fatalf("Err() = %v", err)
	}
	list, err := mr.List("sqlkit:querylog:site")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("list length = %d, want 2", len(list))
	}

	entries, err := m.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if entries[0].SQL != "SELECT broken" || entries[0].Status != "failed" {
		t.Errorf("newest entry = %+v", entries[0])
	}
	if entries[0].Error == nil || *entries[0].Error != "syntax error" {
		t.Errorf("Error = %v", entries[0].Error)
	}
	if entries[1].SQL != "SELECT 1" || entries[1].Status != "success" || entries[1].Error != nil {
		t.Errorf("oldest entry = %+v", entries[1])
	}
	if entries[1].Source != "site" {
		t.Errorf("Source = %q", entries[1].Source)
	}
}

func TestStopQuery_TrimsAndExpires(t *testing.T) {
	m, mr := newTestMonitor(t, Config{Name: "trim", MaxEntries: 3, TTL: 60})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		m.StartQuery(ctx, "SELECT 1")
		m.StopQuery(ctx, nil)
	}
	list, _ := mr.List("sqlkit:querylog:trim")
	if len(list) != 3 {
		t.Errorf("list length = %d, want 3", len(list))
	}
	if ttl := mr.TTL("sqlkit:querylog:trim"); ttl != 60*time.Second {
		t.Errorf("TTL = %v, want 60s", ttl)
	}
}

func TestStopQuery_RedisDownDoesNotPanic(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	m := NewRedisMonitorWithClient(rdb, Config{}, zerolog.Nop())
	defer m.Close()

	ctx := context.Background()
	m.StartQuery(ctx, "SELECT 1")
	m.StopQuery(ctx, nil)
	if m.Err() == nil {
		t.Error("expected publish error when Redis is down")
	}
}

func TestRecent_Empty(t *testing.T) {
	m, _ := newTestMonitor(t, Config{})
	entries, err := m.Recent(context.Background(), 0)
	if err != nil || entries != nil {
		t.Errorf("Recent(0) = %v, %v", entries, err)
	}
}

func TestSubscribe_ReceivesEntries(t *testing.T) {
	m, _ := newTestMonitor(t, Config{Name: "live"})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub := m.Subscribe(ctx)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("subscribe confirmation: %v", err)
	}

	m.StartQuery(ctx, "DELETE FROM t")
	m.StopQuery(ctx, nil)

	msg, err := sub.ReceiveMessage(ctx)
	if err != nil {
		t.Fatalf("ReceiveMessage() error = %v", err)
	}
	if msg.Channel != "sqlkit:querylog:live" {
		t.Errorf("channel = %q", msg.Channel)
	}
}

func TestRedisMonitor_WithDriver(t *testing.T) {
	m, _ := newTestMonitor(t, Config{Name: "driver"})
	ctx := context.Background()
	opts := database.Options{Driver: sqlite.Name}

	d, err := database.Open(ctx, sqlite.New(opts), opts)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer d.Close()
	d.SetMonitor(m)

	if _, err := d.SetQuery("CREATE TABLE #__log (id INTEGER)", 0, 0).Execute(ctx); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	entries, err := m.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(entries) != 1 || entries[0].SQL != "CREATE TABLE jos_log (id INTEGER)" {
		t.Errorf("entries = %+v", entries)
	}
}
