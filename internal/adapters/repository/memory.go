package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/courtside/internal/domain/model"
)

type memorySet struct {
	desc   model.SetDescriptor
	events []model.RallyEvent
}

// MemoryStore keeps everything in process memory. It is safe for concurrent
// use.
type MemoryStore struct {
	mu      sync.RWMutex
	teams   map[uuid.UUID]*model.Team
	matches map[string]model.Match
	sets    map[string]map[int]*memorySet
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		teams:   make(map[uuid.UUID]*model.Team),
		matches: make(map[string]model.Match),
		sets:    make(map[string]map[int]*memorySet),
	}
}

// SaveTeam implements Store.SaveTeam.
func (s *MemoryStore) SaveTeam(ctx context.Context, team *model.Team) (err error) {
	defer func(start time.Time) { observe(BackendMemory, "save_team", start, err) }(time.Now())
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teams[team.ID] = cloneTeam(team)
	return nil
}

// LoadTeam implements Store.LoadTeam.
func (s *MemoryStore) LoadTeam(ctx context.Context, teamID uuid.UUID) (_ *model.Team, err error) {
	defer func(start time.Time) { observe(BackendMemory, "load_team", start, err) }(time.Now())
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.teams[teamID]
	if !ok {
		return nil, fmt.Errorf("team %s: %w", teamID, ErrNotFound)
	}
	return cloneTeam(t), nil
}

// SaveMatch implements Store.SaveMatch.
func (s *MemoryStore) SaveMatch(ctx context.Context, m model.Match) (err error) {
	defer func(start time.Time) { observe(BackendMemory, "save_match", start, err) }(time.Now())
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.teams[m.TeamID]; !ok {
		return fmt.Errorf("team %s: %w", m.TeamID, ErrNotFound)
	}
	s.matches[m.ID] = m
	return nil
}

// LoadMatch implements Store.LoadMatch.
func (s *MemoryStore) LoadMatch(ctx context.Context, matchID string) (_ model.Match, err error) {
	defer func(start time.Time) { observe(BackendMemory, "load_match", start, err) }(time.Now())
	if err := ctx.Err(); err != nil {
		return model.Match{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.matches[matchID]
	if !ok {
		return model.Match{}, fmt.Errorf("match %s: %w", matchID, ErrNotFound)
	}
	return m, nil
}

// ListMatches implements Store.ListMatches.
func (s *MemoryStore) ListMatches(ctx context.Context, teamID uuid.UUID) (_ []model.Match, err error) {
	defer func(start time.Time) { observe(BackendMemory, "list_matches", start, err) }(time.Now())
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.teams[teamID]; !ok {
		return nil, fmt.Errorf("team %s: %w", teamID, ErrNotFound)
	}
	var out []model.Match
	for _, m := range s.matches {
		if m.TeamID == teamID {
			out = append(out, m)
		}
	}
	sortMatches(out)
	return out, nil
}

// CreateSet implements Store.CreateSet.
func (s *MemoryStore) CreateSet(ctx context.Context, matchID string, d model.SetDescriptor) (err error) {
	defer func(start time.Time) { observe(BackendMemory, "create_set", start, err) }(time.Now())
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := d.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.matches[matchID]; !ok {
		return fmt.Errorf("match %s: %w", matchID, ErrNotFound)
	}
	sets := s.sets[matchID]
	if sets == nil {
		sets = make(map[int]*memorySet)
		s.sets[matchID] = sets
	}
	if _, ok := sets[d.Number]; ok {
		return fmt.Errorf("match %s set %d: %w", matchID, d.Number, ErrSetExists)
	}
	sets[d.Number] = &memorySet{desc: cloneDescriptor(d)}
	return nil
}

func (s *MemoryStore) set(matchID string, number int) (*memorySet, error) {
	if _, ok := s.matches[matchID]; !ok {
		return nil, fmt.Errorf("match %s: %w", matchID, ErrNotFound)
	}
	set, ok := s.sets[matchID][number]
	if !ok {
		return nil, fmt.Errorf("match %s set %d: %w", matchID, number, ErrNotFound)
	}
	return set, nil
}

// LoadSet implements Store.LoadSet.
func (s *MemoryStore) LoadSet(ctx context.Context, matchID string, number int) (_ *model.SetRecord, err error) {
	defer func(start time.Time) { observe(BackendMemory, "load_set", start, err) }(time.Now())
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, err := s.set(matchID, number)
	if err != nil {
		return nil, err
	}
	return model.RestoreSetRecord(cloneDescriptor(set.desc), set.events)
}

// LoadSets implements Store.LoadSets.
func (s *MemoryStore) LoadSets(ctx context.Context, matchID string) (_ []*model.SetRecord, err error) {
	defer func(start time.Time) { observe(BackendMemory, "load_sets", start, err) }(time.Now())
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.matches[matchID]; !ok {
		return nil, fmt.Errorf("match %s: %w", matchID, ErrNotFound)
	}
	numbers := make([]int, 0, len(s.sets[matchID]))
	for n := range s.sets[matchID] {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)
	out := make([]*model.SetRecord, 0, len(numbers))
	for _, n := range numbers {
		set := s.sets[matchID][n]
		rec, err := model.RestoreSetRecord(cloneDescriptor(set.desc), set.events)
		if err != nil {
			return nil, fmt.Errorf("match %s set %d: %w", matchID, n, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// Append implements Store.Append.
func (s *MemoryStore) Append(ctx context.Context, matchID string, number int, e model.RallyEvent) (err error) {
	defer func(start time.Time) { observe(BackendMemory, "append", start, err) }(time.Now())
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := e.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	set, err := s.set(matchID, number)
	if err != nil {
		return err
	}
	set.events = append(set.events, e)
	return nil
}

// RemoveLast implements Store.RemoveLast.
func (s *MemoryStore) RemoveLast(ctx context.Context, matchID string, number int) (_ *model.RallyEvent, err error) {
	defer func(start time.Time) { observe(BackendMemory, "remove_last", start, err) }(time.Now())
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	set, err := s.set(matchID, number)
	if err != nil {
		return nil, err
	}
	if len(set.events) == 0 {
		return nil, nil
	}
	last := set.events[len(set.events)-1]
	set.events = set.events[:len(set.events)-1]
	return &last, nil
}

// Close implements Store.Close.
func (s *MemoryStore) Close() error { return nil }
