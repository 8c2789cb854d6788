package derive

import (
	"github.com/okian/podium/pkg/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

type common struct {
	logger logger.Logger
	tracer trace.Tracer
}

func defaults(name string) common {
	return common{logger: logger.Discard(), tracer: otel.Tracer(name)}
}

// Option configures CarryForward and PrejudgedScaler.
type Option func(*common)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *common) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTracer overrides the tracer.
func WithTracer(t trace.Tracer) Option {
	return func(c *common) {
		if t != nil {
			c.tracer = t
		}
	}
}
