// Package config defines the process configuration and how it is loaded.
//
// Values are layered from defaults, an optional YAML file named by
// COURTSIDE_CONFIG, and COURTSIDE_* environment variables, in that order.
package config

import (
	"fmt"
	"runtime"
	"strings"
)

// Store backends.
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// Store selects the event store backend: file, sqlite or memory.
	Store string `koanf:"store"`
	// DataDir is the root of the file store.
	DataDir string `koanf:"data_dir"`
	// SQLitePath is the database file of the sqlite store.
	SQLitePath string `koanf:"sqlite_path"`

	SetPoints      int `koanf:"set_points"`
	TieBreakPoints int `koanf:"tie_break_points"`
	MinLead        int `koanf:"min_lead"`
	SetsToWin      int `koanf:"sets_to_win"`
	// MaxSets must equal 2*SetsToWin-1.
	MaxSets int `koanf:"max_sets"`

	// MaxSubstitutions is the per-set substitution ceiling. Zero disables it.
	MaxSubstitutions int `koanf:"max_substitutions"`
	// AutoLibero lets the libero enter the back row without an explicit event.
	AutoLibero bool `koanf:"auto_libero"`
	// RequireRoleMatch restricts replacements to the role being replaced.
	RequireRoleMatch bool `koanf:"require_role_match"`

	// AuditWorkers sets the number of concurrent audit replays.
	AuditWorkers int `koanf:"audit_workers"`
	// AuditQueueSize bounds the audit job queue.
	AuditQueueSize int `koanf:"audit_queue_size"`
}

// New returns a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":9080",
		Store:            StoreFile,
		DataDir:          "data",
		SQLitePath:       "courtside.db",
		SetPoints:        25,
		TieBreakPoints:   15,
		MinLead:          2,
		SetsToWin:        3,
		MaxSets:          5,
		MaxSubstitutions: 6,
		AutoLibero:       true,
		RequireRoleMatch: false,
		AuditWorkers:     runtime.NumCPU(),
		AuditQueueSize:   1024,
	}
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return &ConfigError{Key: "addr", Reason: "must not be empty"}
	case c.Store != StoreFile && c.Store != StoreSQLite && c.Store != StoreMemory:
		return &ConfigError{Key: "store", Reason: fmt.Sprintf("unknown backend %q", c.Store)}
	case c.Store == StoreFile && c.DataDir == "":
		return &ConfigError{Key: "data_dir", Reason: "required by the file store"}
	case c.Store == StoreSQLite && c.SQLitePath == "":
		return &ConfigError{Key: "sqlite_path", Reason: "required by the sqlite store"}
	case c.SetPoints < 1 || c.TieBreakPoints < 1:
		return &ConfigError{Key: "set_points", Reason: "set targets must be positive"}
	case c.MinLead < 1:
		return &ConfigError{Key: "min_lead", Reason: "must be positive"}
	case c.SetsToWin < 1 || c.SetsToWin > 3:
		return &ConfigError{Key: "sets_to_win", Reason: "must be in [1,3]"}
	case c.MaxSets != 2*c.SetsToWin-1:
		return &ConfigError{Key: "max_sets", Reason: fmt.Sprintf("must be %d for %d sets to win", 2*c.SetsToWin-1, c.SetsToWin)}
	case c.MaxSubstitutions < 0:
		return &ConfigError{Key: "max_substitutions", Reason: "must not be negative"}
	case c.AuditWorkers < 1:
		return &ConfigError{Key: "audit_workers", Reason: "must be positive"}
	case c.AuditQueueSize < 1:
		return &ConfigError{Key: "audit_queue_size", Reason: "must be positive"}
	}
	return nil
}
