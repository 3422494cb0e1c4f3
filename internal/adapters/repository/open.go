package repository

import (
	"fmt"
)

// Open returns the backend named by kind: BackendFile rooted at dataDir,
// BackendSQLite at sqlitePath, or BackendMemory.
func Open(kind, dataDir, sqlitePath string) (Store, error) {
	switch kind {
	case BackendFile:
		fs, err := NewFileStore(dataDir)
		if err != nil {
			return nil, err
		}
		return fs, nil
	case BackendSQLite:
		db, err := OpenSQLite(sqlitePath)
		if err != nil {
			return nil, err
		}
		return db, nil
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", kind)
	}
}
