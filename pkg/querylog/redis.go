// Package querylog publishes the statements a driver executes to Redis,
// so several processes sharing one database can be observed from one
// place.
package querylog

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Entry is one executed statement.
//
// Redis keys:
//
//	LPUSH sqlkit:querylog:<name>  <JSON>   newest first, trimmed to MaxEntries
//	PUB   sqlkit:querylog:<name>  <JSON>   for live tailing
type Entry struct {
	Source     string    `json:"source"`
	SQL        string    `json:"sql"`
	Status     string    `json:"status"` // "success" | "failed"
	StartedAt  time.Time `json:"started_at"`
	DurationMs int64     `json:"duration_ms"`
	Error      *string   `json:"error,omitempty"`
}

// Config describes the Redis target.
type Config struct {
	Address    string `yaml:"address"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	Name       string `yaml:"name"`
	MaxEntries int64  `yaml:"max_entries"`
	TTL        int    `yaml:"ttl"` // seconds, 0 keeps the list forever
}

const defaultMaxEntries = 1000

// RedisMonitor implements database.Monitor. Redis failures never fail
// the statement; they are logged and the last one is kept for Err.
type RedisMonitor struct {
	client *redis.Client
	config Config
	logger zerolog.Logger

	mu      sync.Mutex
	sql     string
	started time.Time
	lastErr error
}

// NewRedisMonitor connects lazily to the configured Redis.
func NewRedisMonitor(config Config, logger zerolog.Logger) *RedisMonitor {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Address,
		Password: config.Password,
		DB:       config.DB,
	})
	return NewRedisMonitorWithClient(client, config, logger)
}

func NewRedisMonitorWithClient(client *redis.Client, config Config, logger zerolog.Logger) *RedisMonitor {
	if config.MaxEntries <= 0 {
		config.MaxEntries = defaultMaxEntries
	}
	if config.Name == "" {
		config.Name = "default"
	}
	return &RedisMonitor{client: client, config: config, logger: logger}
}

func (m *RedisMonitor) key() string {
	return fmt.Sprintf("sqlkit:querylog:%s", m.config.Name)
}

func (m *RedisMonitor) StartQuery(_ context.Context, sql string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sql = sql
	m.started = time.Now()
}

func (m *RedisMonitor) StopQuery(ctx context.Context, execErr error) {
	m.mu.Lock()
	entry := Entry{
		Source:     m.config.Name,
		SQL:        m.sql,
		StartedAt:  m.started.UTC(),
		DurationMs: time.Since(m.started).Milliseconds(),
		Status:     "success",
	}
	m.mu.Unlock()

	if execErr != nil {
		entry.Status = "failed"
		msg := execErr.Error()
		entry.Error = &msg
	}

	err := m.publish(ctx, entry)
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
	if err != nil {
		m.logger.Warn().Err(err).Str("key", m.key()).Msg("query log not published")
	}
}

func (m *RedisMonitor) publish(ctx context.Context, entry Entry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}

	key := m.key()
	pipe := m.client.TxPipeline()
	pipe.LPush(ctx, key, payload)
	pipe.LTrim(ctx, key, 0, m.config.MaxEntries-1)
	if m.config.TTL > 0 {
		pipe.Expire(ctx, key, time.Duration(m.config.TTL)*time.Second)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis LPUSH failed: %w", err)
	}

	if err := m.client.Publish(ctx, key, payload).Err(); err != nil {
		return fmt.Errorf("redis PUBLISH failed: %w", err)
	}
	return nil
}

// Recent returns up to n entries, newest first.
func (m *RedisMonitor) Recent(ctx context.Context, n int64) ([]Entry, error) {
	if n <= 0 {
		return nil, nil
	}
	raw, err := m.client.LRange(ctx, m.key(), 0, n-1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis LRANGE failed: %w", err)
	}
	out := make([]Entry, 0, len(raw))
	for _, r := range raw {
		var e Entry
		if err := json.Unmarshal([]byte(r), &e); err != nil {
			return nil, fmt.Errorf("failed to decode entry: %w", err)
		}
		out = append(out, e)
	}
	return out, nil
}

// Subscribe tails entries published after the call.
func (m *RedisMonitor) Subscribe(ctx context.Context) *redis.PubSub {
	return m.client.Subscribe(ctx, m.key())
}

// Err returns the outcome of the last publish.
func (m *RedisMonitor) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

func (m *RedisMonitor) Close() error {
	return m.client.Close()
}
