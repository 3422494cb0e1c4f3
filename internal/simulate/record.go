package simulate

import (
	"context"
	"fmt"

	"github.com/okian/courtside/internal/domain/model"
	"github.com/okian/courtside/internal/domain/snapshot"
)

// Recorder is the write side of the service. Recording through it checks
// every generated event again before it is stored.
type Recorder interface {
	SaveMatch(ctx context.Context, m *model.Match) error
	CreateSet(ctx context.Context, matchID string, d model.SetDescriptor) (*model.SetRecord, error)
	Append(ctx context.Context, matchID string, number int, e model.RallyEvent) (*snapshot.Snapshot, error)
}

// Record stores a played match event by event.
func Record(ctx context.Context, r Recorder, p *Played) error {
	m := p.Match
	if err := r.SaveMatch(ctx, &m); err != nil {
		return fmt.Errorf("save match %s: %w", m.ID, err)
	}
	for _, rec := range p.Sets {
		if _, err := r.CreateSet(ctx, m.ID, rec.SetDescriptor); err != nil {
			return fmt.Errorf("create set %d: %w", rec.Number, err)
		}
		for i, e := range rec.Events() {
			if _, err := r.Append(ctx, m.ID, rec.Number, e); err != nil {
				return fmt.Errorf("set %d event %d: %w", rec.Number, i, err)
			}
		}
	}
	return nil
}
