package service

import "errors"

// Sentinel errors returned by the service. Store and replay errors are
// wrapped, so errors.Is also matches repository and snapshot sentinels.
var (
	ErrEventRejected    = errors.New("event rejected")
	ErrSetFinished      = errors.New("set already decided")
	ErrMatchFinished    = errors.New("match already decided")
	ErrSetInProgress    = errors.New("previous set still in progress")
	ErrUnexpectedSet    = errors.New("unexpected set number")
	ErrTossRequired     = errors.New("first server is decided by a coin toss")
	ErrUnknownPlayer    = errors.New("player not on the roster")
	ErrNoRoster         = errors.New("side has no roster")
	ErrEventAfterSetEnd = errors.New("event logged after the set was decided")
	ErrSetAfterMatchEnd = errors.New("set logged after the match was decided")
	ErrLaterSetExists   = errors.New("a later set has already been created")
)
