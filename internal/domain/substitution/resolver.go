// Package substitution lists the legal substitution options for a side.
//
// Queries never fail: when nothing is legal they return an empty result.
package substitution

import (
	"github.com/google/uuid"

	"github.com/okian/courtside/internal/domain/model"
	"github.com/okian/courtside/internal/domain/rotation"
	"github.com/okian/courtside/internal/domain/snapshot"
	"github.com/okian/courtside/internal/domain/types"
)

// Candidate is a player that may be pulled out, with the role it holds.
type Candidate struct {
	Slot   int        `json:"slot"`
	Role   types.Role `json:"role"`
	Player uuid.UUID  `json:"player"`
}

// Resolver applies the substitution rules.
type Resolver struct {
	maxSubs   int
	roleMatch bool
}

// New returns a resolver with the default ceiling and no role matching.
func New(opts ...Option) *Resolver {
	r := &Resolver{maxSubs: snapshot.DefaultMaxSubstitutions}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Remaining returns how many ordinary substitutions side may still make, or
// -1 when there is no ceiling.
func (r *Resolver) Remaining(snap *snapshot.Snapshot, side types.Side) int {
	if r.maxSubs <= 0 {
		return -1
	}
	left := r.maxSubs - snap.Substitutions(side)
	if left < 0 {
		return 0
	}
	return left
}

// PullOutCandidates lists the role holders of side that may leave the court.
// The libero never appears; a middle blocker resting for the libero does.
func (r *Resolver) PullOutCandidates(snap *snapshot.Snapshot, side types.Side) []Candidate {
	l := snap.Lineup(side)
	if l == nil || r.Remaining(snap, side) == 0 {
		return nil
	}
	replaced := outgoing(l)
	var out []Candidate
	for _, h := range l.Holders() {
		if l.IsLibero(h.Player) {
			continue
		}
		if _, done := replaced[h.Player]; done {
			continue
		}
		out = append(out, Candidate{Slot: h.Slot, Role: h.Role, Player: h.Player})
	}
	return out
}

// ReplacementCandidates lists the roster players who may replace the given
// role holder of side. A substitute can only be replaced by the player it
// came in for; once that player is back the pair is closed.
func (r *Resolver) ReplacementCandidates(snap *snapshot.Snapshot, side types.Side, roster *model.Team, replaced uuid.UUID) []model.Player {
	l := snap.Lineup(side)
	if l == nil || roster == nil || r.Remaining(snap, side) == 0 {
		return nil
	}
	holder, ok := holderOf(l, replaced)
	if !ok {
		return nil
	}

	switch subs := l.Involving(replaced); len(subs) {
	case 0:
	case 1:
		if subs[0].In != replaced {
			return nil
		}
		if p, ok := roster.Player(subs[0].Out); ok {
			return []model.Player{p}
		}
		return nil
	default:
		return nil
	}

	used := make(map[uuid.UUID]struct{})
	for _, s := range l.Substitutions() {
		used[s.Out] = struct{}{}
		used[s.In] = struct{}{}
	}
	for _, h := range l.Holders() {
		used[h.Player] = struct{}{}
	}
	for _, id := range l.Slots() {
		used[id] = struct{}{}
	}

	var out []model.Player
	for _, p := range roster.Players {
		if _, skip := used[p.ID]; skip {
			continue
		}
		if l.IsLibero(p.ID) || p.Role == types.Libero {
			continue
		}
		if r.roleMatch && p.Role != "" && p.Role != holder.Role {
			continue
		}
		out = append(out, p)
	}
	return out
}

func outgoing(l *rotation.Lineup) map[uuid.UUID]struct{} {
	out := make(map[uuid.UUID]struct{})
	for _, s := range l.Substitutions() {
		out[s.Out] = struct{}{}
	}
	return out
}

func holderOf(l *rotation.Lineup, id uuid.UUID) (rotation.Holder, bool) {
	if l.IsLibero(id) {
		return rotation.Holder{}, false
	}
	for _, h := range l.Holders() {
		if h.Player == id {
			return h, true
		}
	}
	return rotation.Holder{}, false
}
