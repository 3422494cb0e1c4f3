// Package snapshot rebuilds the state of a set by replaying its event log.
//
// A Snapshot is never stored: every query recomputes it from the log, so an
// undo followed by Compute yields the state from before the undone event.
package snapshot

import (
	"errors"
	"fmt"

	"github.com/okian/courtside/internal/domain/model"
	"github.com/okian/courtside/internal/domain/rotation"
	"github.com/okian/courtside/internal/domain/types"
)

// Score holds a per-side counter.
type Score struct {
	Us   int `json:"us"`
	Them int `json:"them"`
}

// Of returns the counter for side.
func (s Score) Of(side types.Side) int {
	if side == types.Us {
		return s.Us
	}
	return s.Them
}

func (s *Score) inc(side types.Side) {
	if side == types.Us {
		s.Us++
		return
	}
	s.Them++
}

// Snapshot is the state of a set after replaying a prefix of its log.
type Snapshot struct {
	Number   int
	Serving  types.Side
	Score    Score
	Timeouts Score
	Events   int
	Last     *model.RallyEvent

	lineups [2]*rotation.Lineup
	cfg     config
}

// Compute replays rec and returns the resulting state. Compute never mutates
// rec.
func Compute(rec *model.SetRecord, opts ...Option) (*Snapshot, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Snapshot{Number: rec.Number, Serving: rec.FirstServer, cfg: cfg}
	for i, side := range types.Sides {
		lc := rec.Lineup(side)
		if lc == nil {
			continue
		}
		l, err := rotation.New(lc)
		if err != nil {
			return nil, fmt.Errorf("%s lineup: %w", side, err)
		}
		s.lineups[i] = l
	}
	s.normalize()

	events := rec.Events()
	if cfg.upTo >= 0 && cfg.upTo < len(events) {
		events = events[:cfg.upTo]
	}
	for i := range events {
		e := events[i]
		if err := s.apply(e); err != nil {
			return nil, &ReplayError{Index: i, Kind: e.Kind, Err: err}
		}
		s.Events++
		s.Last = &e
	}
	return s, nil
}

// Lineup returns the live lineup of side, or nil when the side has none.
// The returned value is a copy.
func (s *Snapshot) Lineup(side types.Side) *rotation.Lineup {
	l := s.lineups[sideIndex(side)]
	if l == nil {
		return nil
	}
	return l.Clone()
}

// HasLineup reports whether side has a rotation.
func (s *Snapshot) HasLineup(side types.Side) bool {
	return s.lineups[sideIndex(side)] != nil
}

// Substitutions returns how many ordinary substitutions side has made.
func (s *Snapshot) Substitutions(side types.Side) int {
	l := s.lineups[sideIndex(side)]
	if l == nil {
		return 0
	}
	return l.SubstitutionCount()
}

// MaxSubstitutions returns the ceiling the snapshot was replayed with.
func (s *Snapshot) MaxSubstitutions() int { return s.cfg.maxSubs }

// Clone returns an independent copy.
func (s *Snapshot) Clone() *Snapshot {
	out := *s
	for i, l := range s.lineups {
		if l != nil {
			out.lineups[i] = l.Clone()
		}
	}
	if s.Last != nil {
		last := *s.Last
		out.Last = &last
	}
	return &out
}

// Apply replays one more event on top of the snapshot. The receiver is left
// unchanged when the event cannot be replayed.
func (s *Snapshot) Apply(e model.RallyEvent) (*Snapshot, error) {
	next := s.Clone()
	if err := next.apply(e); err != nil {
		return nil, &ReplayError{Index: s.Events, Kind: e.Kind, Err: err}
	}
	next.Events++
	next.Last = &e
	return next, nil
}

func (s *Snapshot) apply(e model.RallyEvent) error {
	if err := e.Validate(); err != nil {
		if !e.Kind.Valid() {
			return fmt.Errorf("%w: %q", ErrUnknownEventKind, e.Kind)
		}
		return err
	}

	switch e.Kind {
	case types.KindService:
		if e.Side != s.Serving {
			return fmt.Errorf("%w: %s served while %s holds service", ErrServiceOutOfTurn, e.Side, s.Serving)
		}
		return nil
	case types.KindPoint:
		return s.point(e.Side)
	case types.KindSubstitution:
		return s.substitute(e.Side, e)
	case types.KindTimeout:
		s.Timeouts.inc(e.Side)
		return nil
	case types.KindTechnical:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEventKind, e.Kind)
	}
}

func (s *Snapshot) point(winner types.Side) error {
	l := s.lineups[sideIndex(winner)]
	if l == nil {
		return fmt.Errorf("%w: point for %s", ErrUninitializedRotation, winner)
	}
	if winner != s.Serving {
		l.Rotate()
		s.Serving = winner
	}
	s.Score.inc(winner)
	s.normalize()
	return nil
}

func (s *Snapshot) substitute(side types.Side, e model.RallyEvent) error {
	l := s.lineups[sideIndex(side)]
	if l == nil {
		return fmt.Errorf("%w: substitution for %s", ErrUninitializedRotation, side)
	}
	err := l.Exchange(e.Out, e.In, side == s.Serving, s.cfg.maxSubs)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, rotation.ErrNotOnCourt):
		return fmt.Errorf("%w: %v", ErrPlayerNotOnCourt, err)
	default:
		return fmt.Errorf("%w: %v", ErrIllegalSubstitution, err)
	}
}

func (s *Snapshot) normalize() {
	for i, side := range types.Sides {
		if l := s.lineups[i]; l != nil {
			l.Normalize(side == s.Serving, s.cfg.autoLibero)
		}
	}
}

func sideIndex(side types.Side) int {
	if side == types.Us {
		return 0
	}
	return 1
}
