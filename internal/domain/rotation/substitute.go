package rotation

import (
	"fmt"

	"github.com/google/uuid"
)

// Substitution is one counted player exchange. Out left the court, In took
// the slot.
type Substitution struct {
	Out uuid.UUID `json:"out"`
	In  uuid.UUID `json:"in"`
}

// Substitutions returns the counted substitutions in the order they happened.
func (l *Lineup) Substitutions() []Substitution {
	out := make([]Substitution, len(l.subs))
	copy(out, l.subs)
	return out
}

// SubstitutionCount returns how many counted substitutions were made.
func (l *Lineup) SubstitutionCount() int { return len(l.subs) }

// Involving returns the substitutions in which id went out or came in.
func (l *Lineup) Involving(id uuid.UUID) []Substitution {
	var out []Substitution
	for _, s := range l.subs {
		if s.Out == id || s.In == id {
			out = append(out, s)
		}
	}
	return out
}

// Exchange applies a player exchange of any kind. Exchanges that bring a
// libero in, or take the libero out for the middle blocker it replaced, are
// libero replacements and are not counted. Anything else is an ordinary
// substitution limited to max per set.
func (l *Lineup) Exchange(out, in uuid.UUID, serving bool, max int) error {
	switch {
	case l.IsLibero(in):
		return l.liberoIn(out, in, serving)
	case l.IsLibero(out):
		if l.resting != uuid.Nil && in == l.resting {
			return l.liberoOut()
		}
		return fmt.Errorf("%w: libero %s can only leave for %s", ErrIllegalSubstitution, out, l.resting)
	default:
		return l.Substitute(out, in, max)
	}
}

// Substitute applies an ordinary substitution. A player may be replaced only
// once; a replacement may only come in once; a pair is closed once the
// original player has come back, and a returning player may only replace the
// player who replaced them.
func (l *Lineup) Substitute(out, in uuid.UUID, max int) error {
	if l.IsLibero(out) || l.IsLibero(in) {
		return fmt.Errorf("%w: liberos are not exchanged by substitution", ErrIllegalSubstitution)
	}
	if max > 0 && len(l.subs) >= max {
		return fmt.Errorf("%w: %d of %d used", ErrSubstitutionLimit, len(l.subs), max)
	}
	if l.OnCourt(in) || in == l.resting {
		return fmt.Errorf("%w: %s is already on court", ErrIllegalSubstitution, in)
	}
	for _, s := range l.subs {
		if s.Out == out {
			return fmt.Errorf("%w: %s was already replaced", ErrIllegalSubstitution, out)
		}
		if s.In == in {
			return fmt.Errorf("%w: %s was already used as a replacement", ErrIllegalSubstitution, in)
		}
		if s.In == out && s.Out != in {
			return fmt.Errorf("%w: %s can only be replaced by %s", ErrIllegalSubstitution, out, s.Out)
		}
		if s.Out == in && s.In != out {
			return fmt.Errorf("%w: %s can only return for %s", ErrIllegalSubstitution, in, s.In)
		}
	}

	if slot, ok := l.SlotOf(out); ok {
		l.slots[slot] = in
	} else if out == l.resting && out != uuid.Nil {
		l.resting = in
	} else {
		return fmt.Errorf("%w: %s", ErrNotOnCourt, out)
	}
	if out == l.setter {
		l.setter = in
	}
	l.subs = append(l.subs, Substitution{Out: out, In: in})
	return nil
}
