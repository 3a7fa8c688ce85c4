// Package retry provides a generic retry-with-backoff wrapper for arbitrary
// operations. It is the single retry policy in this module: the HTTP
// transport applies it once per request, and call-sites that need their own
// policy parameterize it via options instead of stacking a second layer.
package retry

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for retry operations.
var (
	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_retries_total",
		Help: "Total number of retry attempts by operation",
	}, []string{"operation"})

	retryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_retry_backoff_seconds",
		Help:    "Backoff duration for retries by operation",
		Buckets: []float64{0.5, 1, 2, 5, 10},
	}, []string{"operation"})

	retryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by operation",
	}, []string{"operation"})
)

// Config holds the retry policy parameters.
type Config struct {
	// MaxRetries is the number of additional attempts after the first failure.
	MaxRetries int

	// InitialDelay is the backoff before the first retry.
	InitialDelay time.Duration

	// MaxDelay caps the computed backoff (jitter included).
	MaxDelay time.Duration

	// Multiplier is the exponential backoff factor.
	Multiplier float64

	// Retryable decides whether an error is worth another attempt.
	// Unclassified errors default to retryable.
	Retryable func(error) bool

	// Operation labels metrics and log lines.
	Operation string
}

// DefaultConfig returns the default retry policy.
func DefaultConfig() Config {
	return Config{
		MaxRetries:   3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
		Retryable:    func(error) bool { return true },
		Operation:    "default",
	}
}

// Option mutates a Config.
type Option func(*Config)

// WithMaxRetries sets the number of additional attempts after the first.
func WithMaxRetries(n int) Option {
	return func(c *Config) { c.MaxRetries = n }
}

// WithInitialDelay sets the backoff before the first retry.
func WithInitialDelay(d time.Duration) Option {
	return func(c *Config) { c.InitialDelay = d }
}

// WithMaxDelay caps the backoff delay.
func WithMaxDelay(d time.Duration) Option {
	return func(c *Config) { c.MaxDelay = d }
}

// WithMultiplier sets the exponential backoff factor.
func WithMultiplier(m float64) Option {
	return func(c *Config) { c.Multiplier = m }
}

// WithRetryable sets the error classifier.
func WithRetryable(fn func(error) bool) Option {
	return func(c *Config) { c.Retryable = fn }
}

// WithOperation labels metrics and log output for this call-site.
func WithOperation(name string) Option {
	return func(c *Config) { c.Operation = name }
}

// maxJitter is the random addition to each backoff delay, spreading out
// synchronized retries.
const maxJitter = 1000 * time.Millisecond

// Delay computes the backoff before retry number attempt (0-based), as
// initial * multiplier^attempt plus up to maxJitter, capped at MaxDelay.
func (c Config) Delay(attempt int) time.Duration {
	exp := float64(c.InitialDelay) * math.Pow(c.Multiplier, float64(attempt))
	jittered := time.Duration(exp) + time.Duration(rand.Int63n(int64(maxJitter)))
	if jittered > c.MaxDelay {
		return c.MaxDelay
	}
	return jittered
}

// Do runs fn, retrying on retryable errors with exponential backoff until it
// succeeds, a non-retryable error occurs, retries are exhausted, or ctx is
// cancelled. On exhaustion the last error is returned unchanged so typed
// transport errors survive to the caller.
func Do[T any](ctx context.Context, fn func(ctx context.Context) (T, error), opts ...Option) (T, error) {
	config := DefaultConfig()
	for _, opt := range opts {
		opt(&config)
	}

	var zero T
	var lastErr error

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			if attempt > 0 {
				log.Info().
					Str("operation", config.Operation).
					Int("attempt", attempt+1).
					Msg("Operation succeeded after retry")
			}
			return result, nil
		}
		lastErr = err

		if attempt >= config.MaxRetries {
			break
		}
		if !config.Retryable(err) {
			return zero, err
		}

		delay := config.Delay(attempt)
		retriesTotal.WithLabelValues(config.Operation).Inc()
		retryBackoffSeconds.WithLabelValues(config.Operation).Observe(delay.Seconds())

		log.Debug().
			Str("operation", config.Operation).
			Int("attempt", attempt+1).
			Dur("backoff", delay).
			Err(err).
			Msg("Retrying after backoff")

		select {
		case <-ctx.Done():
			log.Warn().
				Str("operation", config.Operation).
				Int("attempt", attempt+1).
				Msg("Context cancelled during retry backoff")
			return zero, ctx.Err()
		case <-time.After(delay):
		}
	}

	retryExhaustedTotal.WithLabelValues(config.Operation).Inc()
	log.Warn().
		Str("operation", config.Operation).
		Int("max_retries", config.MaxRetries).
		Err(lastErr).
		Msg("Retry attempts exhausted")

	return zero, lastErr
}
