package service

import (
	"fmt"
	"path/filepath"

	"github.com/okian/courtside/internal/adapters/repository"
	"github.com/okian/courtside/internal/config"
	"github.com/okian/courtside/internal/domain/scoring"
)

// OptionsFromConfig maps the process configuration to service options.
func OptionsFromConfig(cfg *config.Config) []Option {
	return []Option{
		WithRuleOptions(
			scoring.WithSetPoints(cfg.SetPoints),
			scoring.WithTieBreakPoints(cfg.TieBreakPoints),
			scoring.WithMinLead(cfg.MinLead),
			scoring.WithSetsToWin(cfg.SetsToWin),
		),
		WithMaxSubstitutions(cfg.MaxSubstitutions),
		WithAutoLibero(cfg.AutoLibero),
		WithRoleMatching(cfg.RequireRoleMatch),
		WithAuditWorkers(cfg.AuditWorkers),
		WithAuditQueueSize(cfg.AuditQueueSize),
	}
}

// Open opens the store named by cfg and builds a service over it. Extra
// options are applied after the configured ones.
func Open(cfg *config.Config, opts ...Option) (*Service, error) {
	sqlitePath := cfg.SQLitePath
	if !filepath.IsAbs(sqlitePath) {
		sqlitePath = filepath.Join(cfg.DataDir, sqlitePath)
	}
	store, err := repository.Open(cfg.Store, cfg.DataDir, sqlitePath)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store, err)
	}
	return New(store, append(OptionsFromConfig(cfg), opts...)...), nil
}
