package model

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/okian/courtside/internal/domain/types"
)

// Set numbering bounds for a best-of-five match.
const (
	FirstSetNumber = 1
	LastSetNumber  = 5
	CourtSlots     = 6
)

// RotationConfig is a side's starting lineup. Slot 0 is the serving
// (back-right) slot at set start; slots continue clockwise.
type RotationConfig struct {
	Slots          [CourtSlots]uuid.UUID `json:"slots"`
	Setter         uuid.UUID             `json:"setter"`
	Libero         uuid.UUID             `json:"libero,omitzero"`
	FallbackLibero uuid.UUID             `json:"fallback_libero,omitzero"`
}

// HasLibero reports whether the lineup designates a libero.
func (c *RotationConfig) HasLibero() bool {
	return c.Libero != uuid.Nil
}

// Validate checks the lineup invariants: six distinct players, the setter on
// court, and liberos distinct from the starters and from each other.
func (c *RotationConfig) Validate() error {
	seen := make(map[uuid.UUID]struct{}, CourtSlots)
	setterFound := false
	for i, id := range c.Slots {
		if id == uuid.Nil {
			return fmt.Errorf("%w: slot %d is empty", ErrInvalidLineup, i)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: player %s appears twice", ErrInvalidLineup, id)
		}
		seen[id] = struct{}{}
		if id == c.Setter {
			setterFound = true
		}
	}
	if !setterFound {
		return fmt.Errorf("%w: setter %s is not in the lineup", ErrInvalidLineup, c.Setter)
	}
	if c.Libero != uuid.Nil {
		if _, on := seen[c.Libero]; on {
			return fmt.Errorf("%w: libero %s cannot start in a rotation slot", ErrInvalidLineup, c.Libero)
		}
	}
	if c.FallbackLibero != uuid.Nil {
		if c.Libero == uuid.Nil {
			return fmt.Errorf("%w: fallback libero without a libero", ErrInvalidLineup)
		}
		if c.FallbackLibero == c.Libero {
			return fmt.Errorf("%w: fallback libero equals the libero", ErrInvalidLineup)
		}
		if _, on := seen[c.FallbackLibero]; on {
			return fmt.Errorf("%w: fallback libero %s cannot start in a rotation slot", ErrInvalidLineup, c.FallbackLibero)
		}
	}
	return nil
}

// SetDescriptor is the persisted, immutable header of a set.
type SetDescriptor struct {
	Number      int             `json:"number"`
	FirstServer types.Side      `json:"first_server"`
	Us          *RotationConfig `json:"us,omitempty"`
	Them        *RotationConfig `json:"them,omitempty"`
}

// Lineup returns the starting lineup of side, or nil when it was not recorded.
func (d *SetDescriptor) Lineup(side types.Side) *RotationConfig {
	if side == types.Us {
		return d.Us
	}
	return d.Them
}

// Validate checks the descriptor's configuration invariants.
func (d *SetDescriptor) Validate() error {
	if d.Number < FirstSetNumber || d.Number > LastSetNumber {
		return fmt.Errorf("%w: %d is not in [%d,%d]", ErrInvalidSetNumber, d.Number, FirstSetNumber, LastSetNumber)
	}
	if !d.FirstServer.Valid() {
		return fmt.Errorf("%w: unknown first server %q", ErrMissingLineup, d.FirstServer)
	}
	if d.Us == nil && d.Them == nil {
		return fmt.Errorf("%w: set %d has no lineup", ErrMissingLineup, d.Number)
	}
	if d.Lineup(d.FirstServer) == nil {
		return fmt.Errorf("%w: first server %s has no lineup", ErrMissingLineup, d.FirstServer)
	}
	for _, side := range types.Sides {
		cfg := d.Lineup(side)
		if cfg == nil {
			continue
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("%s lineup: %w", side, err)
		}
	}
	return nil
}

// SetRecord owns a set's descriptor and its append-only event log. The log is
// only changed through Append and RemoveLast.
type SetRecord struct {
	SetDescriptor
	events []RallyEvent
}

// NewSetRecord validates d and returns a set with an empty log.
func NewSetRecord(d SetDescriptor) (*SetRecord, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &SetRecord{SetDescriptor: d}, nil
}

// RestoreSetRecord rebuilds a set loaded from storage.
func RestoreSetRecord(d SetDescriptor, events []RallyEvent) (*SetRecord, error) {
	rec, err := NewSetRecord(d)
	if err != nil {
		return nil, err
	}
	for i, e := range events {
		if err := rec.Append(e); err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
	}
	return rec, nil
}

// Append adds e at the end of the log.
func (r *SetRecord) Append(e RallyEvent) error {
	if err := e.Validate(); err != nil {
		return err
	}
	r.events = append(r.events, e)
	return nil
}

// RemoveLast drops the most recent event and returns it. ok is false when the
// log is empty.
func (r *SetRecord) RemoveLast() (e RallyEvent, ok bool) {
	if len(r.events) == 0 {
		return RallyEvent{}, false
	}
	last := r.events[len(r.events)-1]
	r.events = r.events[:len(r.events)-1]
	return last, true
}

// Events returns a copy of the log in order.
func (r *SetRecord) Events() []RallyEvent {
	out := make([]RallyEvent, len(r.events))
	copy(out, r.events)
	return out
}

// Len returns the number of logged events.
func (r *SetRecord) Len() int { return len(r.events) }

// HasEvents reports whether anything has been logged yet.
func (r *SetRecord) HasEvents() bool { return len(r.events) > 0 }

// Prefix returns an independent copy holding only the first n events.
func (r *SetRecord) Prefix(n int) *SetRecord {
	if n < 0 {
		n = 0
	}
	if n > len(r.events) {
		n = len(r.events)
	}
	out := &SetRecord{SetDescriptor: r.SetDescriptor}
	out.events = make([]RallyEvent, n)
	copy(out.events, r.events[:n])
	return out
}

// Clone returns an independent copy of the whole record.
func (r *SetRecord) Clone() *SetRecord {
	return r.Prefix(len(r.events))
}
