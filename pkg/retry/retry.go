package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"strings"
	"time"
)

// Config defines a bounded retry policy with exponential backoff.
//
// The wait after the n-th failed attempt is
// Multiplier * Unit * 2^(n-1), clamped to [MinDelay, MaxDelay].
type Config struct {
	MaxAttempts  int           // Total attempts including the first
	MinDelay     time.Duration // Lower bound for any wait
	MaxDelay     time.Duration // Upper bound for any wait
	Multiplier   float64       // Scale applied to Unit
	Unit         time.Duration // Defaults to one second
	JitterFactor float64       // 0.0-1.0, +/- fraction applied to each wait

	// OnRetry is called before each wait with the attempt that just failed.
	OnRetry func(attempt int, err error, wait time.Duration)
}

// DefaultConfig returns the generation policy: at most 3 attempts, waits
// between 2s and 10s, multiplier 1.
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts: 3,
		MinDelay:    2 * time.Second,
		MaxDelay:    10 * time.Second,
		Multiplier:  1,
		Unit:        time.Second,
	}
}

// Delay returns the wait after the given failed attempt (1-based), without jitter.
func (c *Config) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	unit := c.Unit
	if unit <= 0 {
		unit = time.Second
	}
	d := time.Duration(c.Multiplier * float64(unit) * math.Pow(2, float64(attempt-1)))
	if d < c.MinDelay {
		d = c.MinDelay
	}
	if c.MaxDelay > 0 && d > c.MaxDelay {
		d = c.MaxDelay
	}
	return d
}

func (c *Config) attempts() int {
	if c.MaxAttempts < 1 {
		return 1
	}
	return c.MaxAttempts
}

// applyJitter adds random jitter to a delay.
// Jitter is calculated as: delay +/- (delay * jitterFactor * random(-1 to +1))
func applyJitter(delay time.Duration, jitterFactor float64) time.Duration {
	if jitterFactor <= 0 {
		return delay
	}
	jitter := float64(delay) * jitterFactor * (rand.Float64()*2 - 1)
	return time.Duration(float64(delay) + jitter)
}

// Do executes fn until it succeeds or attempts are exhausted, retrying
// every error. Returns the last error.
func Do(ctx context.Context, cfg *Config, fn func() error) error {
	_, err := run(ctx, cfg, func() (struct{}, error) {
		return struct{}{}, fn()
	}, func(error) bool { return true })
	return err
}

// DoWithResult executes fn and returns both result and error, retrying every error.
func DoWithResult[T any](ctx context.Context, cfg *Config, fn func() (T, error)) (T, error) {
	return run(ctx, cfg, fn, func(error) bool { return true })
}

// DoIfRetryable only retries transient errors. Permanent errors (bad
// credentials, unknown model) are returned immediately.
func DoIfRetryable(ctx context.Context, cfg *Config, fn func() error) error {
	_, err := run(ctx, cfg, func() (struct{}, error) {
		return struct{}{}, fn()
	}, IsRetryable)
	return err
}

// DoIfRetryableWithResult is DoIfRetryable for functions returning a value.
func DoIfRetryableWithResult[T any](ctx context.Context, cfg *Config, fn func() (T, error)) (T, error) {
	return run(ctx, cfg, fn, IsRetryable)
}

func run[T any](ctx context.Context, cfg *Config, fn func() (T, error), retryable func(error) bool) (T, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	var result T
	var lastErr error
	maxAttempts := cfg.attempts()

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		r, err := fn()
		if err == nil {
			return r, nil
		}
		result, lastErr = r, err

		if !retryable(err) || attempt == maxAttempts {
			break
		}

		wait := applyJitter(cfg.Delay(attempt), cfg.JitterFactor)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, wait)
		}

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return result, ctx.Err()
		}
	}

	return result, lastErr
}

// RetryableError is an interface for errors that explicitly declare their retryability.
// Provider errors implement this interface to provide explicit retry behavior.
type RetryableError interface {
	error
	IsRetryable() bool
}

var retryablePatterns = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"timeout",
	"timed out",
	"temporary failure",
	"429",
	"500",
	"502",
	"503",
	"504",
	"rate limit",
	"resource exhausted",
	"resourceexhausted",
	"resource_exhausted",
	"service unavailable",
	"too many requests",
	"overloaded",
}

// IsRetryable determines if an error is transient and worth retrying.
//
// 1. If any error in the chain implements RetryableError, its answer wins.
// 2. Otherwise, pattern-match against known transient failure strings.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var r RetryableError
	if errors.As(err, &r) {
		return r.IsRetryable()
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	errStr := strings.ToLower(err.Error())
	for _, pattern := range retryablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}
