package repository

import "os"

// FileOption applies a configuration option to the FileStore.
type FileOption func(*FileStore)

// WithSync controls whether appends are flushed to disk before returning.
func WithSync(enabled bool) FileOption {
	return func(s *FileStore) {
		s.sync = enabled
	}
}

// WithFileMode sets the permissions of created files.
func WithFileMode(mode os.FileMode) FileOption {
	return func(s *FileStore) {
		if mode != 0 {
			s.fileMode = mode
		}
	}
}

// SQLiteOption applies a configuration option to the SQLiteStore.
type SQLiteOption func(*sqliteConfig)

type sqliteConfig struct {
	busyTimeoutMs int
	journalMode   string
}

// WithBusyTimeout sets how long a writer waits on a locked database.
func WithBusyTimeout(ms int) SQLiteOption {
	return func(c *sqliteConfig) {
		if ms > 0 {
			c.busyTimeoutMs = ms
		}
	}
}

// WithJournalMode sets the SQLite journal mode, WAL by default.
func WithJournalMode(mode string) SQLiteOption {
	return func(c *sqliteConfig) {
		if mode != "" {
			c.journalMode = mode
		}
	}
}
