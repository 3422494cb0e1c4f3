package snapshot

import (
	"github.com/google/uuid"

	"github.com/okian/courtside/internal/domain/model"
	"github.com/okian/courtside/internal/domain/rotation"
	"github.com/okian/courtside/internal/domain/types"
)

// SlotView describes one occupied rotation slot.
type SlotView struct {
	Slot    int        `json:"slot"`
	Player  uuid.UUID  `json:"player"`
	Role    types.Role `json:"role"`
	BackRow bool       `json:"back_row"`
}

// SideView is the serializable state of one side.
type SideView struct {
	Side          types.Side              `json:"side"`
	Rotation      int                     `json:"rotation"`
	Setter        uuid.UUID               `json:"setter"`
	Libero        uuid.UUID               `json:"libero,omitzero"`
	Resting       uuid.UUID               `json:"resting,omitzero"`
	Slots         []SlotView              `json:"slots"`
	Substitutions []rotation.Substitution `json:"substitutions"`
}

// View is the serializable form of a Snapshot.
type View struct {
	Number   int               `json:"number"`
	Serving  types.Side        `json:"serving"`
	Score    Score             `json:"score"`
	Timeouts Score             `json:"timeouts"`
	Events   int               `json:"events"`
	Last     *model.RallyEvent `json:"last,omitempty"`
	Sides    []SideView        `json:"sides"`
}

// View renders the snapshot for reporting.
func (s *Snapshot) View() View {
	v := View{
		Number:   s.Number,
		Serving:  s.Serving,
		Score:    s.Score,
		Timeouts: s.Timeouts,
		Events:   s.Events,
		Last:     s.Last,
	}
	for i, side := range types.Sides {
		l := s.lineups[i]
		if l == nil {
			continue
		}
		sv := SideView{
			Side:          side,
			Rotation:      l.Rotation(),
			Setter:        l.Setter(),
			Libero:        l.Libero(),
			Substitutions: l.Substitutions(),
		}
		sv.Resting, _ = l.Resting()
		for slot, id := range l.Slots() {
			role, _ := l.RoleAt(slot)
			sv.Slots = append(sv.Slots, SlotView{
				Slot:    slot,
				Player:  id,
				Role:    role,
				BackRow: rotation.IsBackRowSlot(slot),
			})
		}
		v.Sides = append(v.Sides, sv)
	}
	return v
}
