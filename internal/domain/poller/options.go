package poller

import (
	"context"

	"github.com/okian/podium/pkg/logger"
	"go.opentelemetry.io/otel/trace"
)

// Option configures a Poller.
type Option[T any] func(*Poller[T])

// WithEqual overrides the structural equality check.
func WithEqual[T any](eq func(a, b T) bool) Option[T] {
	return func(p *Poller[T]) {
		if eq != nil {
			p.equal = eq
		}
	}
}

// WithOnChange registers the change callback. It runs while the poller holds
// its lock and must not call back into the poller.
func WithOnChange[T any](fn func(ctx context.Context, value T)) Option[T] {
	return func(p *Poller[T]) {
		p.onChange = fn
	}
}

// WithLogger sets the logger.
func WithLogger[T any](l logger.Logger) Option[T] {
	return func(p *Poller[T]) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithName labels log records and spans.
func WithName[T any](name string) Option[T] {
	return func(p *Poller[T]) {
		if name != "" {
			p.name = name
		}
	}
}

// WithTracer overrides the tracer.
func WithTracer[T any](t trace.Tracer) Option[T] {
	return func(p *Poller[T]) {
		if t != nil {
			p.tracer = t
		}
	}
}
