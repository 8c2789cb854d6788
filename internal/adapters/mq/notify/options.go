package notify

import "github.com/okian/podium/pkg/logger"

// Option applies a configuration option to a bus.
type Option func(*options)

type options struct {
	bufferSize int
	channel    string
	logger     logger.Logger
}

func newOptions(opts []Option) options {
	o := options{
		bufferSize: defaultBufferSize,
		channel:    DefaultChannel,
		logger:     logger.Discard(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithBufferSize sets the per-subscriber buffer.
func WithBufferSize(size int) Option {
	return func(o *options) {
		if size > 0 {
			o.bufferSize = size
		}
	}
}

// WithChannel sets the Redis pub/sub channel. Ignored by the in-memory bus.
func WithChannel(name string) Option {
	return func(o *options) {
		if name != "" {
			o.channel = name
		}
	}
}

// WithLogger sets the bus logger.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l.Named("notify")
		}
	}
}
