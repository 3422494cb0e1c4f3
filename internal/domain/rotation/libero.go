package rotation

import (
	"fmt"

	"github.com/google/uuid"
)

// liberoBlocked reports whether the libero has to stay off court: it may not
// take the serving slot while its own side serves.
func (l *Lineup) liberoBlocked(serving bool) bool {
	return serving && l.LiberoSlot() == 0
}

func (l *Lineup) liberoIn(out, in uuid.UUID, serving bool) error {
	if in == l.fallback {
		// The second libero takes over as active libero for the rest of the set.
		if out != l.libero {
			return fmt.Errorf("%w: %s can only replace libero %s", ErrIllegalLibero, in, l.libero)
		}
		if slot, ok := l.SlotOf(out); ok {
			l.slots[slot] = in
		}
		l.libero, l.fallback = in, out
		return nil
	}
	if l.OnCourt(in) {
		return fmt.Errorf("%w: libero %s is already on court", ErrIllegalLibero, in)
	}
	ls := l.LiberoSlot()
	if l.slots[ls] != out {
		return fmt.Errorf("%w: %s is not the back-row middle blocker", ErrIllegalLibero, out)
	}
	if l.liberoBlocked(serving) {
		return fmt.Errorf("%w: libero cannot serve", ErrIllegalLibero)
	}
	l.resting = out
	l.slots[ls] = in
	return nil
}

func (l *Lineup) liberoOut() error {
	slot, ok := l.SlotOf(l.libero)
	if !ok {
		return fmt.Errorf("%w: libero %s", ErrNotOnCourt, l.libero)
	}
	l.slots[slot] = l.resting
	l.resting = uuid.Nil
	return nil
}

// SwapLibero exchanges the libero with the middle blocker it is tied to: in
// when the libero is off court, out when it plays.
func (l *Lineup) SwapLibero(serving bool) error {
	if l.libero == uuid.Nil {
		return fmt.Errorf("%w: side has no libero", ErrIllegalLibero)
	}
	if l.OnCourt(l.libero) {
		return l.liberoOut()
	}
	return l.liberoIn(l.slots[l.LiberoSlot()], l.libero, serving)
}

// Normalize restores the libero invariants after a rotation or serve change.
// A libero that rotated into the front row, or into the serving slot of the
// serving side, hands its slot back to the resting middle blocker. With auto
// set, an off-court libero then takes the back-row middle-blocker slot
// whenever it legally can.
func (l *Lineup) Normalize(serving, auto bool) {
	if l.libero == uuid.Nil {
		return
	}
	ls := l.LiberoSlot()
	if slot, ok := l.SlotOf(l.libero); ok && l.resting != uuid.Nil {
		if slot != ls || l.liberoBlocked(serving) {
			l.slots[slot] = l.resting
			l.resting = uuid.Nil
		}
	}
	if auto && !l.OnCourt(l.libero) && !l.liberoBlocked(serving) {
		l.resting = l.slots[ls]
		l.slots[ls] = l.libero
	}
}
