// Package worker consumes change notifications and applies them to the
// local scoring state.
package worker

import (
	"github.com/okian/podium/internal/domain/dedupe"
	"github.com/okian/podium/pkg/logger"
)

// Option applies a configuration option to the Listener.
type Option func(*Listener)

// WithName sets the listener name for identification and logging.
func WithName(name string) Option {
	return func(l *Listener) {
		if name != "" {
			l.name = name
		}
	}
}

// WithLogger sets a custom logger for the listener.
func WithLogger(lg logger.Logger) Option {
	return func(l *Listener) {
		if lg != nil {
			l.logger = lg
		}
	}
}

// WithWorkers sets the number of concurrent handlers. Notifications for the
// same score tuple always go to the same handler.
func WithWorkers(n int) Option {
	return func(l *Listener) {
		if n > 0 {
			l.workers = n
		}
	}
}

// WithDeduper replaces the default in-memory deduper.
func WithDeduper(d dedupe.Deduper) Option {
	return func(l *Listener) {
		if d != nil {
			l.deduper = d
		}
	}
}
