package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/okian/courtside/internal/domain/types"
)

// Player is a roster entry.
type Player struct {
	ID     uuid.UUID  `json:"id"`
	Name   string     `json:"name"`
	Number int        `json:"number"`
	Role   types.Role `json:"role"`
}

// Team is a roster. Team maintenance is handled outside this module; the
// rules only read it.
type Team struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Players []Player  `json:"players"`
}

// Player looks up a roster entry by id.
func (t *Team) Player(id uuid.UUID) (Player, bool) {
	for _, p := range t.Players {
		if p.ID == id {
			return p, true
		}
	}
	return Player{}, false
}

// Match describes a match played by a team.
type Match struct {
	ID       string    `json:"id"`
	TeamID   uuid.UUID `json:"team_id"`
	Opponent string    `json:"opponent"`
	Date     time.Time `json:"date"`
	Home     bool      `json:"home"`
}
