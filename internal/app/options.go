package service

import (
	"github.com/okian/podium/internal/domain/dedupe"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPublisher sets where change notifications go. Without one the
// service runs standalone.
func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		s.bus = p
	}
}

// WithDeduper shares the listener's deduper so the service's own
// notifications are not applied twice when they come back.
func WithDeduper(d dedupe.Deduper) Option {
	return func(s *Service) {
		s.deduper = d
	}
}

// WithDefaultTrimPercentage sets the trim used when a trimmed config leaves it unset.
func WithDefaultTrimPercentage(p float64) Option {
	return func(s *Service) {
		if p > 0 && p < 100 {
			s.defaultTrim = p
		}
	}
}

// WithDefaultRanking sets the config used by competitions that have none.
func WithDefaultRanking(cfg model.RankingConfig) Option {
	return func(s *Service) {
		if cfg.Method != "" {
			s.defaultRanking = cfg
		}
	}
}
