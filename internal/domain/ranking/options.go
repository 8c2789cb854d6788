package ranking

import (
	"github.com/okian/podium/pkg/logger"
	"go.opentelemetry.io/otel/trace"
)

// Option configures a Calculator.
type Option func(*Calculator)

// WithLogger sets the logger used for fallbacks and rejected configs.
func WithLogger(l logger.Logger) Option {
	return func(c *Calculator) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithDefaultTrimPercentage sets the trimmed-mean percentage used when a
// config leaves it at zero.
func WithDefaultTrimPercentage(p float64) Option {
	return func(c *Calculator) {
		if p > 0 && p <= 100 {
			c.defaultTrim = p
		}
	}
}

// WithTracer overrides the tracer.
func WithTracer(t trace.Tracer) Option {
	return func(c *Calculator) {
		if t != nil {
			c.tracer = t
		}
	}
}
