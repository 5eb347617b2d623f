package service

import (
	"time"

	"github.com/okian/unirank/internal/adapters/repository"
	"github.com/okian/unirank/internal/domain/ranking"
	"github.com/okian/unirank/pkg/logger"
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

// WithStore sets the session store. Without it Start creates a MemStore.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithAggregatorOptions forwards options to the batch aggregator.
func WithAggregatorOptions(opts ...ranking.Option) Option {
	return func(s *Service) {
		s.aggregatorOpts = append(s.aggregatorOpts, opts...)
	}
}

// WithExportQuoting enables RFC 4180 quoting in exports.
func WithExportQuoting(enabled bool) Option {
	return func(s *Service) {
		s.exportQuoting = enabled
	}
}

// WithSessionTTL sets how long an idle session lives. Zero disables expiry.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl >= 0 {
			s.sessionTTL = ttl
		}
	}
}

// WithSweepInterval sets how often idle sessions are swept.
func WithSweepInterval(interval time.Duration) Option {
	return func(s *Service) {
		if interval > 0 {
			s.sweepInterval = interval
		}
	}
}

// WithClock replaces time.Now for session expiry and export dates.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
