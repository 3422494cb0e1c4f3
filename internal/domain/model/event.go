// Package model contains the domain records passed between layers.
package model

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/okian/courtside/internal/domain/types"
)

// RallyEvent is one immutable entry of a set's event log. Its position in the
// log is its only identity.
type RallyEvent struct {
	Kind types.EventKind `json:"kind"`
	Side types.Side      `json:"side"`
	Out  uuid.UUID       `json:"out,omitzero"` // substitution: player leaving
	In   uuid.UUID       `json:"in,omitzero"`  // substitution: player entering
	Note string          `json:"note,omitempty"`
}

// Service records a serve by side.
func Service(side types.Side) RallyEvent {
	return RallyEvent{Kind: types.KindService, Side: side}
}

// Point records a rally won by side.
func Point(side types.Side) RallyEvent {
	return RallyEvent{Kind: types.KindPoint, Side: side}
}

// Substitution records out leaving the court for in.
func Substitution(side types.Side, out, in uuid.UUID) RallyEvent {
	return RallyEvent{Kind: types.KindSubstitution, Side: side, Out: out, In: in}
}

// Timeout records a timeout requested by side.
func Timeout(side types.Side) RallyEvent {
	return RallyEvent{Kind: types.KindTimeout, Side: side}
}

// Technical records an audit-only technical event such as a card or a challenge.
func Technical(side types.Side, note string) RallyEvent {
	return RallyEvent{Kind: types.KindTechnical, Side: side, Note: note}
}

// Validate checks the event's shape. It does not check it against court state.
func (e RallyEvent) Validate() error {
	if !e.Kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidEvent, e.Kind)
	}
	if !e.Side.Valid() {
		return fmt.Errorf("%w: unknown side %q", ErrInvalidEvent, e.Side)
	}
	if e.Kind == types.KindSubstitution {
		switch {
		case e.Out == uuid.Nil || e.In == uuid.Nil:
			return fmt.Errorf("%w: substitution needs both players", ErrInvalidEvent)
		case e.Out == e.In:
			return fmt.Errorf("%w: player %s cannot replace itself", ErrInvalidEvent, e.In)
		}
	}
	return nil
}

func (e RallyEvent) String() string {
	switch e.Kind {
	case types.KindSubstitution:
		return fmt.Sprintf("%s %s out=%s in=%s", e.Kind, e.Side, e.Out, e.In)
	case types.KindTechnical:
		return fmt.Sprintf("%s %s %q", e.Kind, e.Side, e.Note)
	default:
		return fmt.Sprintf("%s %s", e.Kind, e.Side)
	}
}
