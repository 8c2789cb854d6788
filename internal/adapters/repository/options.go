package repository

import "github.com/okian/podium/pkg/logger"

// Option applies a configuration option to a store.
type Option func(*options)

type options struct {
	logger    logger.Logger
	keyPrefix string
}

func newOptions(opts []Option) options {
	o := options{logger: logger.Discard(), keyPrefix: "podium"}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger sets the store logger.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l.Named("repository")
		}
	}
}

// WithKeyPrefix sets the Redis key prefix. Ignored by the memory store.
func WithKeyPrefix(prefix string) Option {
	return func(o *options) {
		if prefix != "" {
			o.keyPrefix = prefix
		}
	}
}
