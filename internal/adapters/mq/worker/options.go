package worker

import (
	"time"

	"github.com/okian/syncops/pkg/logger"
)

// Option applies a configuration option to the Pool.
type Option func(*Pool)

// WithSize sets the number of workers.
func WithSize(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.size = n
		}
	}
}

// WithRetries sets how many times a store write is attempted.
func WithRetries(n uint) Option {
	return func(p *Pool) {
		if n > 0 {
			p.retries = n
		}
	}
}

// WithRetryInterval sets the first backoff interval.
func WithRetryInterval(d time.Duration) Option {
	return func(p *Pool) {
		if d > 0 {
			p.retryInterval = d
		}
	}
}

// WithFailureHandler registers a callback for snapshots that were dropped.
func WithFailureHandler(fn FailureHandler) Option {
	return func(p *Pool) { p.onFailure = fn }
}

// WithLogger sets a custom logger for the pool.
func WithLogger(l logger.Logger) Option {
	return func(p *Pool) {
		if l != nil {
			p.logger = l
		}
	}
}
