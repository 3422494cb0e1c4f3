// Package service is the application layer: it loads set logs from the
// store, replays them with the domain rules and records new events only after
// they replay cleanly.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/courtside/internal/adapters/repository"
	"github.com/okian/courtside/internal/domain/model"
	"github.com/okian/courtside/internal/domain/scoring"
	"github.com/okian/courtside/internal/domain/snapshot"
	"github.com/okian/courtside/internal/domain/substitution"
	"github.com/okian/courtside/internal/domain/types"
	"github.com/okian/courtside/pkg/logger"
	"github.com/okian/courtside/pkg/metrics"
)

// Service records and queries matches.
type Service struct {
	mu      sync.Mutex
	locks   map[string]*sync.Mutex
	started bool

	store    repository.Store
	rules    *scoring.Rules
	resolver *substitution.Resolver
	logger   logger.Logger

	ruleOpts       []scoring.Option
	maxSubs        int
	autoLibero     bool
	roleMatch      bool
	auditWorkers   int
	auditQueueSize int
}

// New constructs a Service on top of store.
func New(store repository.Store, opts ...Option) *Service {
	s := &Service{
		locks:          make(map[string]*sync.Mutex),
		store:          store,
		maxSubs:        snapshot.DefaultMaxSubstitutions,
		autoLibero:     true,
		auditWorkers:   runtime.NumCPU(),
		auditQueueSize: 1024,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Named("service")
	}

	ruleOpts := append([]scoring.Option(nil), s.ruleOpts...)
	ruleOpts = append(ruleOpts, scoring.WithReplayOptions(
		snapshot.WithAutoLibero(s.autoLibero),
		snapshot.WithMaxSubstitutions(s.maxSubs),
	))
	s.rules = scoring.NewRules(ruleOpts...)
	s.resolver = substitution.New(
		substitution.WithMaxSubstitutions(s.maxSubs),
		substitution.WithRoleMatching(s.roleMatch),
	)
	return s
}

// Rules returns the win conditions in use.
func (s *Service) Rules() *scoring.Rules { return s.rules }

// Start marks the service ready.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.started = true
	s.logger.Info(ctx, "courtside service started",
		logger.Int("maxSets", s.rules.MaxSets()),
		logger.Int("maxSubstitutions", s.maxSubs),
		logger.Bool("autoLibero", s.autoLibero),
		logger.Int("auditWorkers", s.auditWorkers),
	)
	return nil
}

// Stop closes the store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if err := s.store.Close(); err != nil {
		s.logger.Error(context.Background(), "closing store", logger.Error(err))
	}
	s.started = false
	s.logger.Info(context.Background(), "courtside service stopped")
}

// lock serializes writers of one match.
func (s *Service) lock(matchID string) func() {
	s.mu.Lock()
	l, ok := s.locks[matchID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[matchID] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// SaveTeam stores a roster, assigning ids to the team and players that lack one.
func (s *Service) SaveTeam(ctx context.Context, team *model.Team) error {
	if team.ID == uuid.Nil {
		team.ID = uuid.New()
	}
	for i := range team.Players {
		if team.Players[i].ID == uuid.Nil {
			team.Players[i].ID = uuid.New()
		}
	}
	return s.store.SaveTeam(ctx, team)
}

// Team loads a roster.
func (s *Service) Team(ctx context.Context, teamID uuid.UUID) (*model.Team, error) {
	return s.store.LoadTeam(ctx, teamID)
}

// SaveMatch stores a match descriptor, assigning an id when it has none.
func (s *Service) SaveMatch(ctx context.Context, m *model.Match) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Date.IsZero() {
		m.Date = time.Now().UTC()
	}
	return s.store.SaveMatch(ctx, *m)
}

// Match loads a match descriptor.
func (s *Service) Match(ctx context.Context, matchID string) (model.Match, error) {
	return s.store.LoadMatch(ctx, matchID)
}

// ListMatches returns the team's matches, most recent first.
func (s *Service) ListMatches(ctx context.Context, teamID uuid.UUID) ([]model.Match, error) {
	return s.store.ListMatches(ctx, teamID)
}

// CreateSet opens the next set of a match. A zero Number means the next set;
// an empty FirstServer is inferred from the previous set, which fails with
// ErrTossRequired for the first and the deciding set.
func (s *Service) CreateSet(ctx context.Context, matchID string, d model.SetDescriptor) (*model.SetRecord, error) {
	unlock := s.lock(matchID)
	defer unlock()

	m, err := s.store.LoadMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	st, err := s.status(ctx, matchID)
	if err != nil {
		return nil, err
	}
	switch {
	case st.Finished:
		return nil, fmt.Errorf("%w: %s won match %s", ErrMatchFinished, st.Winner, matchID)
	case st.Incomplete != 0:
		return nil, fmt.Errorf("%w: set %d of match %s", ErrSetInProgress, st.Incomplete, matchID)
	}
	if d.Number == 0 {
		d.Number = st.NextSet
	}
	if d.Number != st.NextSet {
		return nil, fmt.Errorf("%w: got %d, next is %d", ErrUnexpectedSet, d.Number, st.NextSet)
	}

	inferred, known := s.rules.NextFirstServer(st)
	switch {
	case d.FirstServer == "" && !known:
		return nil, fmt.Errorf("%w: set %d", ErrTossRequired, d.Number)
	case d.FirstServer == "":
		d.FirstServer = inferred
	case known && d.FirstServer != inferred:
		s.logger.Warn(ctx, "first server overrides alternation",
			logger.String("match", matchID),
			logger.Int("set", d.Number),
			logger.Stringer("given", d.FirstServer),
			logger.Stringer("expected", inferred),
		)
	}

	rec, err := model.NewSetRecord(d)
	if err != nil {
		return nil, err
	}
	if err := s.checkRoster(ctx, m, d.Us); err != nil {
		return nil, err
	}
	if err := s.store.CreateSet(ctx, matchID, d); err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "set created",
		logger.String("match", matchID),
		logger.Int("set", d.Number),
		logger.Stringer("firstServer", d.FirstServer),
	)
	return rec, nil
}

// checkRoster verifies that every player named by our lineup is on the
// team's roster. The opponent has no roster.
func (s *Service) checkRoster(ctx context.Context, m model.Match, cfg *model.RotationConfig) error {
	if cfg == nil {
		return nil
	}
	team, err := s.store.LoadTeam(ctx, m.TeamID)
	if err != nil {
		return err
	}
	ids := append([]uuid.UUID{cfg.Setter, cfg.Libero, cfg.FallbackLibero}, cfg.Slots[:]...)
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := team.Player(id); !ok {
			return fmt.Errorf("%w: %s on team %s", ErrUnknownPlayer, id, team.ID)
		}
	}
	return nil
}

// Append records e at the end of a set's log after checking that the log
// still replays with it. It returns the resulting state.
func (s *Service) Append(ctx context.Context, matchID string, number int, e model.RallyEvent) (*snapshot.Snapshot, error) {
	unlock := s.lock(matchID)
	defer unlock()

	if err := e.Validate(); err != nil {
		return nil, s.reject(ctx, matchID, number, e, "invalid", err)
	}
	rec, err := s.store.LoadSet(ctx, matchID, number)
	if err != nil {
		return nil, err
	}
	snap, err := s.replay(rec)
	if err != nil {
		return nil, err
	}
	if winner, won := s.rules.SetWinner(snap, number); won {
		return nil, s.reject(ctx, matchID, number, e, "set_finished",
			fmt.Errorf("%w: %s won set %d", ErrSetFinished, winner, number))
	}
	if e.Kind == types.KindSubstitution && e.Side == types.Us {
		m, err := s.store.LoadMatch(ctx, matchID)
		if err != nil {
			return nil, err
		}
		team, err := s.store.LoadTeam(ctx, m.TeamID)
		if err != nil {
			return nil, err
		}
		if _, ok := team.Player(e.In); !ok {
			return nil, s.reject(ctx, matchID, number, e, "unknown_player",
				fmt.Errorf("%w: %s", ErrUnknownPlayer, e.In))
		}
	}

	next, err := snap.Apply(e)
	if err != nil {
		return nil, s.reject(ctx, matchID, number, e, rejectReason(err), err)
	}
	if err := s.store.Append(ctx, matchID, number, e); err != nil {
		return nil, err
	}
	metrics.RecordEventAppended(string(e.Kind))
	s.logger.Debug(ctx, "event appended",
		logger.String("match", matchID),
		logger.Int("set", number),
		logger.Stringer("event", e),
		logger.Int("us", next.Score.Us),
		logger.Int("them", next.Score.Them),
	)
	return next, nil
}

func (s *Service) reject(ctx context.Context, matchID string, number int, e model.RallyEvent, reason string, err error) error {
	metrics.RecordEventRejected(reason)
	s.logger.Info(ctx, "event rejected",
		logger.String("match", matchID),
		logger.Int("set", number),
		logger.Stringer("event", e),
		logger.String("reason", reason),
		logger.Error(err),
	)
	return fmt.Errorf("%w: %w", ErrEventRejected, err)
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, snapshot.ErrIllegalSubstitution):
		return "illegal_substitution"
	case errors.Is(err, snapshot.ErrPlayerNotOnCourt):
		return "not_on_court"
	case errors.Is(err, snapshot.ErrServiceOutOfTurn):
		return "service_out_of_turn"
	case errors.Is(err, snapshot.ErrUninitializedRotation):
		return "no_rotation"
	case errors.Is(err, snapshot.ErrUnknownEventKind):
		return "unknown_kind"
	default:
		return "replay"
	}
}

// Undo removes the most recent event of a set and returns it. It fails with
// repository.ErrEmptyLog when there is nothing to undo and with
// ErrLaterSetExists when the set is not the last one created, since
// reopening it would orphan the sets after it.
func (s *Service) Undo(ctx context.Context, matchID string, number int) (model.RallyEvent, error) {
	unlock := s.lock(matchID)
	defer unlock()

	recs, err := s.store.LoadSets(ctx, matchID)
	if err != nil {
		return model.RallyEvent{}, err
	}
	for _, rec := range recs {
		if rec.Number > number {
			return model.RallyEvent{}, fmt.Errorf("undo set %d of match %s: %w: set %d", number, matchID, ErrLaterSetExists, rec.Number)
		}
	}

	last, err := s.store.RemoveLast(ctx, matchID, number)
	if err != nil {
		return model.RallyEvent{}, err
	}
	if last == nil {
		return model.RallyEvent{}, fmt.Errorf("set %d of match %s: %w", number, matchID, repository.ErrEmptyLog)
	}
	metrics.RecordEventUndone()
	s.logger.Info(ctx, "event undone",
		logger.String("match", matchID),
		logger.Int("set", number),
		logger.Stringer("event", *last),
	)
	return *last, nil
}

// Snapshot replays a set. upTo limits the replay to the first upTo events;
// a negative value replays the whole log.
func (s *Service) Snapshot(ctx context.Context, matchID string, number, upTo int) (*snapshot.Snapshot, error) {
	rec, err := s.store.LoadSet(ctx, matchID, number)
	if err != nil {
		return nil, err
	}
	return s.replay(rec, snapshot.UpTo(upTo))
}

func (s *Service) replay(rec *model.SetRecord, opts ...snapshot.Option) (*snapshot.Snapshot, error) {
	start := time.Now()
	snap, err := s.rules.Replay(rec, opts...)
	metrics.RecordReplay(err, float64(time.Since(start).Microseconds())/1000)
	return snap, err
}

// SetWinner returns the side that has won a set, if any.
func (s *Service) SetWinner(ctx context.Context, matchID string, number int) (types.Side, bool, error) {
	snap, err := s.Snapshot(ctx, matchID, number, -1)
	if err != nil {
		return "", false, err
	}
	side, won := s.rules.SetWinner(snap, number)
	return side, won, nil
}

// MatchStatus folds every set of a match into its status.
func (s *Service) MatchStatus(ctx context.Context, matchID string) (scoring.Status, error) {
	if _, err := s.store.LoadMatch(ctx, matchID); err != nil {
		return scoring.Status{}, err
	}
	return s.status(ctx, matchID)
}

func (s *Service) status(ctx context.Context, matchID string) (scoring.Status, error) {
	recs, err := s.store.LoadSets(ctx, matchID)
	if err != nil {
		return scoring.Status{}, err
	}
	start := time.Now()
	st, err := s.rules.MatchStatus(recs)
	metrics.RecordReplay(err, float64(time.Since(start).Microseconds())/1000)
	return st, err
}

// PullOutCandidates lists the players of side that may currently leave the court.
func (s *Service) PullOutCandidates(ctx context.Context, matchID string, number int, side types.Side) ([]substitution.Candidate, error) {
	snap, err := s.Snapshot(ctx, matchID, number, -1)
	if err != nil {
		return nil, err
	}
	return s.resolver.PullOutCandidates(snap, side), nil
}

// ReplacementCandidates lists the roster players who may replace the given
// player of side. Only our side has a roster.
func (s *Service) ReplacementCandidates(ctx context.Context, matchID string, number int, side types.Side, replaced uuid.UUID) ([]model.Player, error) {
	if side != types.Us {
		return nil, fmt.Errorf("%w: %s", ErrNoRoster, side)
	}
	m, err := s.store.LoadMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	team, err := s.store.LoadTeam(ctx, m.TeamID)
	if err != nil {
		return nil, err
	}
	snap, err := s.Snapshot(ctx, matchID, number, -1)
	if err != nil {
		return nil, err
	}
	return s.resolver.ReplacementCandidates(snap, side, team, replaced), nil
}

// RemainingSubstitutions returns how many substitutions side may still make,
// -1 when there is no ceiling.
func (s *Service) RemainingSubstitutions(snap *snapshot.Snapshot, side types.Side) int {
	return s.resolver.Remaining(snap, side)
}
