package retry

import (
	"context"
	"fmt"
	"time"
)

// BackoffStrategy определяет стратегию задержки между повторами
type BackoffStrategy string

const (
	// BackoffConstant - постоянная задержка
	BackoffConstant BackoffStrategy = "constant"
	// BackoffLinear - линейное увеличение задержки
	BackoffLinear BackoffStrategy = "linear"
	// BackoffExponential - экспоненциальное увеличение задержки
	BackoffExponential BackoffStrategy = "exponential"
)

// Classifier decides whether an error is worth another attempt.
type Classifier func(err error) bool

// Config содержит конфигурацию для retry механизма
type Config struct {
	// Enabled - включить retry механизм
	Enabled bool

	// MaxAttempts - максимальное количество попыток (включая первую)
	// 0 = бесконечные попытки
	MaxAttempts int

	InitialDelay time.Duration
	MaxDelay     time.Duration

	BackoffStrategy   BackoffStrategy
	BackoffMultiplier float64

	// Jitter - случайность к задержке (0.0 - 1.0)
	Jitter float64

	// Retryable classifies errors. nil retries every error.
	Retryable Classifier

	// BeforeRetry runs after a failed attempt and before the next one.
	// A non-nil error stops the loop and is returned to the caller.
	BeforeRetry func(ctx context.Context, attempt int, err error) error
}

// Validate проверяет корректность конфигурации
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}

	if c.MaxAttempts < 0 {
		return fmt.Errorf("max_attempts must be >= 0, got %d", c.MaxAttempts)
	}

	if c.InitialDelay < 0 {
		return fmt.Errorf("initial_delay must be >= 0")
	}

	if c.MaxDelay < c.InitialDelay {
		return fmt.Errorf("max_delay (%v) must be >= initial_delay (%v)", c.MaxDelay, c.InitialDelay)
	}

	switch c.BackoffStrategy {
	case BackoffConstant, BackoffLinear, BackoffExponential:
	default:
		return fmt.Errorf("invalid backoff strategy: %s", c.BackoffStrategy)
	}

	if c.BackoffMultiplier <= 0 {
		c.BackoffMultiplier = 2.0
	}

	if c.Jitter < 0 || c.Jitter > 1.0 {
		return fmt.Errorf("jitter must be between 0.0 and 1.0, got %f", c.Jitter)
	}

	return nil
}

// DefaultConfig возвращает конфигурацию по умолчанию (retry выключен)
func DefaultConfig() Config {
	return Config{
		Enabled:           false,
		MaxAttempts:       3,
		InitialDelay:      1 * time.Second,
		MaxDelay:          30 * time.Second,
		BackoffStrategy:   BackoffExponential,
		BackoffMultiplier: 2.0,
		Jitter:            0.1,
	}
}

// EnableRetry создает конфигурацию с включенным retry
func EnableRetry(maxAttempts int, initialDelay time.Duration) Config {
	config := DefaultConfig()
	config.Enabled = true
	config.MaxAttempts = maxAttempts
	config.InitialDelay = initialDelay
	return config
}

// ReconnectOnce is the policy used for dropped connections: one extra
// attempt, no delay, only for errors the classifier accepts.
func ReconnectOnce(lost Classifier, reconnect func(ctx context.Context) error) Config {
	config := EnableRetry(2, 0)
	config.MaxDelay = 0
	config.BackoffStrategy = BackoffConstant
	config.Jitter = 0
	config.Retryable = lost
	config.BeforeRetry = func(ctx context.Context, _ int, _ error) error {
		return reconnect(ctx)
	}
	return config
}
