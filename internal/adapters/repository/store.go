// Package repository persists teams, matches and the per-set event logs.
//
// Stores only keep the log. They never replay it: callers rebuild court
// state from the records they load.
package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/okian/courtside/internal/domain/model"
)

// Store provides read/write access to the recorded matches.
type Store interface {
	// SaveTeam creates or replaces a roster.
	SaveTeam(ctx context.Context, team *model.Team) error
	// LoadTeam returns ErrNotFound for an unknown team.
	LoadTeam(ctx context.Context, teamID uuid.UUID) (*model.Team, error)

	// SaveMatch creates or replaces a match descriptor. The team must exist.
	SaveMatch(ctx context.Context, m model.Match) error
	// LoadMatch returns ErrNotFound for an unknown match.
	LoadMatch(ctx context.Context, matchID string) (model.Match, error)
	// ListMatches returns the team's matches, most recent first.
	ListMatches(ctx context.Context, teamID uuid.UUID) ([]model.Match, error)

	// CreateSet stores a new set with an empty log. It returns ErrSetExists
	// when the number is taken.
	CreateSet(ctx context.Context, matchID string, d model.SetDescriptor) error
	// LoadSet returns the set with its full log.
	LoadSet(ctx context.Context, matchID string, number int) (*model.SetRecord, error)
	// LoadSets returns every set of the match ordered by number.
	LoadSets(ctx context.Context, matchID string) ([]*model.SetRecord, error)

	// Append durably adds e at the end of the set's log.
	Append(ctx context.Context, matchID string, number int, e model.RallyEvent) error
	// RemoveLast drops the most recent event and returns it. It returns
	// nil, nil when the log is empty.
	RemoveLast(ctx context.Context, matchID string, number int) (*model.RallyEvent, error)

	Close() error
}
