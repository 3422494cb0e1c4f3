// Package types contains the closed enumerations shared across the domain.
package types

import (
	"fmt"
	"strings"
)

// Side identifies one of the two teams on court.
type Side string

// Known sides.
const (
	Us   Side = "us"
	Them Side = "them"
)

// Sides lists both sides in a stable order.
var Sides = [2]Side{Us, Them}

// Opponent returns the other side.
func (s Side) Opponent() Side {
	if s == Us {
		return Them
	}
	return Us
}

// Valid reports whether s is one of the known sides.
func (s Side) Valid() bool {
	return s == Us || s == Them
}

func (s Side) String() string { return string(s) }

// ParseSide parses a side label, case-insensitively.
func ParseSide(v string) (Side, error) {
	switch Side(strings.ToLower(strings.TrimSpace(v))) {
	case Us:
		return Us, nil
	case Them:
		return Them, nil
	}
	return "", fmt.Errorf("%w: side %q", ErrUnknownValue, v)
}

// Role is the playing role reported for a rotation slot.
type Role string

// Known roles.
const (
	Setter         Role = "setter"
	OutsideHitter  Role = "outside-hitter"
	MiddleBlocker  Role = "middle-blocker"
	OppositeHitter Role = "opposite-hitter"
	Libero         Role = "libero"
)

func (r Role) String() string { return string(r) }

// ParseRole parses a role label, case-insensitively.
func ParseRole(v string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(v))); r {
	case Setter, OutsideHitter, MiddleBlocker, OppositeHitter, Libero:
		return r, nil
	}
	return "", fmt.Errorf("%w: role %q", ErrUnknownValue, v)
}

// EventKind is the closed set of rally events understood by replay.
type EventKind string

// Known event kinds.
const (
	KindService      EventKind = "service"
	KindPoint        EventKind = "point"
	KindSubstitution EventKind = "substitution"
	KindTimeout      EventKind = "timeout"
	KindTechnical    EventKind = "technical"
)

// EventKinds lists every kind replay must handle.
var EventKinds = []EventKind{KindService, KindPoint, KindSubstitution, KindTimeout, KindTechnical}

func (k EventKind) String() string { return string(k) }

// Valid reports whether k belongs to the closed event taxonomy.
func (k EventKind) Valid() bool {
	switch k {
	case KindService, KindPoint, KindSubstitution, KindTimeout, KindTechnical:
		return true
	}
	return false
}

// ParseEventKind parses an event kind label, case-insensitively.
func ParseEventKind(v string) (EventKind, error) {
	k := EventKind(strings.ToLower(strings.TrimSpace(v)))
	if !k.Valid() {
		return "", fmt.Errorf("%w: event kind %q", ErrUnknownValue, v)
	}
	return k, nil
}
