package dataflow

import (
	"time"
)

// Option configures the behavior of a stage.
type Option func(*config)

type config struct {
	workers    int
	maxRetries int
	backoff    func(int) time.Duration
	bufferSize int
	// errorHandler is consulted when an item's operation fails after all
	// retries. Returning true means handled: the item is dropped and the
	// stage continues. A nil handler drops the item silently.
	errorHandler func(error) bool
}

func defaultConfig() *config {
	return &config{
		workers:    1,
		maxRetries: 0,
		bufferSize: 0,
	}
}

func apply(opts []Option) *config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithWorkers sets the number of concurrent workers for a stage.
// Default is 1 (sequential, order-preserving).
func WithWorkers(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithBufferSize sets the buffer size for the output channel of a stage.
func WithBufferSize(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.bufferSize = n
		}
	}
}

// WithRetry enables retry logic for the stage operation. maxRetries is the
// number of additional attempts after the first failure.
func WithRetry(maxRetries int, backoff func(attempt int) time.Duration) Option {
	return func(c *config) {
		c.maxRetries = maxRetries
		c.backoff = backoff
	}
}

// WithErrorHandler sets a custom error handler for failed items.
func WithErrorHandler(h func(error) bool) Option {
	return func(c *config) {
		c.errorHandler = h
	}
}

// ConstantBackoff returns a backoff function that always returns the same duration.
func ConstantBackoff(d time.Duration) func(int) time.Duration {
	return func(_ int) time.Duration {
		return d
	}
}

// ExponentialBackoff returns a backoff function that doubles per attempt:
// initial * 2^(attempt-1).
func ExponentialBackoff(initial time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		if attempt <= 1 {
			return initial
		}
		return initial * time.Duration(1<<(attempt-1))
	}
}
