package scores

import "github.com/okian/podium/pkg/logger"

// Option configures an Aggregate.
type Option func(*Aggregate)

// WithLogger sets the logger used for rejected writes.
func WithLogger(l logger.Logger) Option {
	return func(a *Aggregate) {
		if l != nil {
			a.logger = l
		}
	}
}
