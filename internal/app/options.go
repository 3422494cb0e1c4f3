package service

import (
	"github.com/okian/courtside/internal/domain/scoring"
	"github.com/okian/courtside/pkg/logger"
)

// Option configures a Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRuleOptions sets the set and match win conditions.
func WithRuleOptions(opts ...scoring.Option) Option {
	return func(s *Service) {
		s.ruleOpts = append(s.ruleOpts, opts...)
	}
}

// WithMaxSubstitutions sets the per-set substitution ceiling. Zero removes it.
func WithMaxSubstitutions(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.maxSubs = n
		}
	}
}

// WithAutoLibero controls whether the libero enters the back row on its own.
func WithAutoLibero(enabled bool) Option {
	return func(s *Service) {
		s.autoLibero = enabled
	}
}

// WithRoleMatching restricts replacement candidates to the replaced role.
func WithRoleMatching(enabled bool) Option {
	return func(s *Service) {
		s.roleMatch = enabled
	}
}

// WithAuditWorkers sets the number of concurrent audit replays.
func WithAuditWorkers(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.auditWorkers = count
		}
	}
}

// WithAuditQueueSize bounds the audit job queue.
func WithAuditQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.auditQueueSize = size
		}
	}
}
