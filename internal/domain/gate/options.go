package gate

import "github.com/okian/podium/pkg/logger"

// Option configures a Gate.
type Option func(*Gate)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(g *Gate) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithOnActivate registers a callback for newly activated criteria.
func WithOnActivate(fn ActivateFunc) Option {
	return func(g *Gate) {
		if fn != nil {
			g.onActivate = append(g.onActivate, fn)
		}
	}
}
