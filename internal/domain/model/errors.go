package model

import "errors"

// Sentinel configuration errors. They are detected when a set is created,
// before any event can be appended.
var (
	ErrInvalidLineup    = errors.New("invalid lineup")
	ErrInvalidSetNumber = errors.New("invalid set number")
	ErrMissingLineup    = errors.New("missing lineup")
	ErrInvalidEvent     = errors.New("invalid event")
)
