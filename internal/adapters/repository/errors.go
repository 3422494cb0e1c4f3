package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound  = errors.New("not found")
	ErrSetExists = errors.New("set already exists")
	ErrEmptyLog  = errors.New("event log is empty")
	ErrCorrupt   = errors.New("corrupt store data")
)
