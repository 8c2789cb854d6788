package api

import "github.com/okian/podium/pkg/logger"

const defaultMaxRequestBytes = 1 << 20

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMaxRequestBytes caps request bodies.
func WithMaxRequestBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBody = n
		}
	}
}

// WithStats sets the provider behind GET /stats.
func WithStats(p StatsProvider) Option {
	return func(s *Server) {
		s.stats = p
	}
}
