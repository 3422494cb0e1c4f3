package snapshot

import (
	"errors"
	"fmt"

	"github.com/okian/courtside/internal/domain/types"
)

// Replay failures. They are always wrapped in a *ReplayError carrying the
// offending log position.
var (
	ErrUninitializedRotation = errors.New("side has no rotation")
	ErrServiceOutOfTurn      = errors.New("service by the receiving side")
	ErrIllegalSubstitution   = errors.New("illegal substitution")
	ErrUnknownEventKind      = errors.New("unknown event kind")
	ErrPlayerNotOnCourt      = errors.New("player not on court")
)

// ReplayError reports the event that could not be replayed.
type ReplayError struct {
	Index int
	Kind  types.EventKind
	Err   error
}

func (e *ReplayError) Error() string {
	return fmt.Sprintf("replay event %d (%s): %v", e.Index, e.Kind, e.Err)
}

func (e *ReplayError) Unwrap() error { return e.Err }
