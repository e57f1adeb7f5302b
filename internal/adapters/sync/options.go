package sync

import (
	"time"

	"github.com/FawziYas/osce-project/pkg/logger"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithMaxAttempts sets the retry ceiling per entry.
func WithMaxAttempts(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxAttempts = n
		}
	}
}

// WithAttemptTimeout bounds each individual replay attempt. A timeout
// counts as a normal failure toward the retry ceiling.
func WithAttemptTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.attemptTimeout = d
		}
	}
}

// WithInterval sets the periodic drain interval used by Run.
func WithInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.interval = d
		}
	}
}

// WithLogger replaces the engine logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}
