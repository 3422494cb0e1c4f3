// Package rotation models one side's six rotation slots: who occupies them,
// which role each slot plays, and which slots are in the back row.
//
// Slot 0 is the serving (back-right) slot; slots continue clockwise, so
// slots 0, 4 and 5 are back row and slots 1, 2 and 3 are front row. Roles are
// derived from each slot's clockwise offset from the setter's slot.
package rotation

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/okian/courtside/internal/domain/model"
	"github.com/okian/courtside/internal/domain/types"
)

// Slots is the number of rotation slots per side.
const Slots = model.CourtSlots

// roleCycle maps a slot's clockwise offset from the setter to its base role.
var roleCycle = [Slots]types.Role{
	types.Setter,
	types.OutsideHitter,
	types.MiddleBlocker,
	types.OppositeHitter,
	types.OutsideHitter,
	types.MiddleBlocker,
}

var backRow = [3]int{0, 4, 5}

// IsBackRowSlot reports whether slot is one of the three back-row slots.
func IsBackRowSlot(slot int) bool {
	return slot == 0 || slot == 4 || slot == 5
}

// BaseRole returns the role for a clockwise offset from the setter's slot.
func BaseRole(offset int) types.Role {
	return roleCycle[((offset%Slots)+Slots)%Slots]
}

// Holder is the player holding a lineup role. When the libero is on court the
// holder of its slot is the middle blocker it replaced.
type Holder struct {
	Slot   int        `json:"slot"`
	Role   types.Role `json:"role"`
	Player uuid.UUID  `json:"player"`
}

// Lineup is the live state of one side's rotation.
type Lineup struct {
	slots    [Slots]uuid.UUID
	setter   uuid.UUID
	libero   uuid.UUID
	fallback uuid.UUID
	resting  uuid.UUID // middle blocker sitting out while the libero plays
	subs     []Substitution
}

// New builds a lineup from a validated starting configuration.
func New(cfg *model.RotationConfig) (*Lineup, error) {
	if cfg == nil {
		return nil, ErrNoLineup
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Lineup{
		slots:    cfg.Slots,
		setter:   cfg.Setter,
		libero:   cfg.Libero,
		fallback: cfg.FallbackLibero,
	}, nil
}

// Clone returns an independent copy.
func (l *Lineup) Clone() *Lineup {
	out := *l
	out.subs = make([]Substitution, len(l.subs))
	copy(out.subs, l.subs)
	return &out
}

// Slots returns the current occupant of each slot.
func (l *Lineup) Slots() [Slots]uuid.UUID { return l.slots }

// At returns the occupant of slot.
func (l *Lineup) At(slot int) (uuid.UUID, error) {
	if slot < 0 || slot >= Slots {
		return uuid.Nil, fmt.Errorf("%w: %d", ErrInvalidSlot, slot)
	}
	return l.slots[slot], nil
}

// Setter returns the player currently acting as setter.
func (l *Lineup) Setter() uuid.UUID { return l.setter }

// Libero returns the active libero, uuid.Nil when the side has none.
func (l *Lineup) Libero() uuid.UUID { return l.libero }

// FallbackLibero returns the second libero, uuid.Nil when none.
func (l *Lineup) FallbackLibero() uuid.UUID { return l.fallback }

// Resting returns the middle blocker replaced by the libero, if any.
func (l *Lineup) Resting() (uuid.UUID, bool) {
	return l.resting, l.resting != uuid.Nil
}

// SlotOf returns the slot occupied by id.
func (l *Lineup) SlotOf(id uuid.UUID) (int, bool) {
	if id == uuid.Nil {
		return 0, false
	}
	for i, p := range l.slots {
		if p == id {
			return i, true
		}
	}
	return 0, false
}

// OnCourt reports whether id occupies a slot.
func (l *Lineup) OnCourt(id uuid.UUID) bool {
	_, ok := l.SlotOf(id)
	return ok
}

// IsLibero reports whether id is either of the side's liberos.
func (l *Lineup) IsLibero(id uuid.UUID) bool {
	return id != uuid.Nil && (id == l.libero || id == l.fallback)
}

// Rotation returns the setter's slot, which identifies the rotation (0..5).
func (l *Lineup) Rotation() int {
	slot, _ := l.SlotOf(l.setter)
	return slot
}

// BaseRoleAt returns the role slot plays before the libero override.
func (l *Lineup) BaseRoleAt(slot int) types.Role {
	return BaseRole(slot - l.Rotation())
}

// RoleAt returns the role reported for slot. A back-row middle-blocker slot
// occupied by the libero reports Libero.
func (l *Lineup) RoleAt(slot int) (types.Role, error) {
	if slot < 0 || slot >= Slots {
		return "", fmt.Errorf("%w: %d", ErrInvalidSlot, slot)
	}
	role := l.BaseRoleAt(slot)
	if role == types.MiddleBlocker && IsBackRowSlot(slot) && l.IsLibero(l.slots[slot]) {
		return types.Libero, nil
	}
	return role, nil
}

// RoleOf returns the role of a player currently on court.
func (l *Lineup) RoleOf(id uuid.UUID) (types.Role, error) {
	slot, ok := l.SlotOf(id)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotOnCourt, id)
	}
	return l.RoleAt(slot)
}

// IsBackRow reports whether a player on court stands in the back row.
func (l *Lineup) IsBackRow(id uuid.UUID) (bool, error) {
	slot, ok := l.SlotOf(id)
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrNotOnCourt, id)
	}
	return IsBackRowSlot(slot), nil
}

// BackRowSlots returns the back-row slot indexes.
func (l *Lineup) BackRowSlots() [3]int { return backRow }

// Server returns the player in the serving slot.
func (l *Lineup) Server() uuid.UUID { return l.slots[0] }

// LiberoSlot returns the back-row middle-blocker slot of the current rotation,
// the only slot the libero may take.
func (l *Lineup) LiberoSlot() int {
	r := l.Rotation()
	first, second := (r+2)%Slots, (r+5)%Slots
	if IsBackRowSlot(first) {
		return first
	}
	return second
}

// LiberoOnCourt reports whether either libero occupies a slot.
func (l *Lineup) LiberoOnCourt() bool {
	return l.OnCourt(l.libero) || l.OnCourt(l.fallback)
}

// Holders lists the six role holders starting from the setter and going
// clockwise: setter, outside hitter, middle blocker, opposite, outside hitter,
// middle blocker.
func (l *Lineup) Holders() []Holder {
	r := l.Rotation()
	out := make([]Holder, 0, Slots)
	for offset := 0; offset < Slots; offset++ {
		slot := (r + offset) % Slots
		player := l.slots[slot]
		if l.IsLibero(player) && l.resting != uuid.Nil {
			player = l.resting
		}
		out = append(out, Holder{Slot: slot, Role: BaseRole(offset), Player: player})
	}
	return out
}

// Rotate moves every player one slot clockwise: slot i takes the player from
// slot i+1, and slot 5 takes the former server.
func (l *Lineup) Rotate() {
	first := l.slots[0]
	copy(l.slots[:Slots-1], l.slots[1:])
	l.slots[Slots-1] = first
}
