// Package simulate generates deterministic, legal volleyball matches: rosters,
// lineups and rally logs. Every generated event has been replayed before it
// is kept, so the output always passes an audit.
package simulate

import (
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"

	"github.com/okian/courtside/internal/domain/model"
	"github.com/okian/courtside/internal/domain/scoring"
	"github.com/okian/courtside/internal/domain/snapshot"
	"github.com/okian/courtside/internal/domain/substitution"
	"github.com/okian/courtside/internal/domain/types"
)

// maxRallies stops a set that somehow never ends.
const maxRallies = 500

// rosterShape is how many players of each role a generated roster carries.
var rosterShape = []struct {
	role  types.Role
	count int
}{
	{types.Setter, 2},
	{types.OutsideHitter, 4},
	{types.MiddleBlocker, 3},
	{types.OppositeHitter, 2},
	{types.Libero, 2},
}

// startingOrder is the role of each slot clockwise from the setter.
var startingOrder = [model.CourtSlots]types.Role{
	types.Setter, types.OutsideHitter, types.MiddleBlocker,
	types.OppositeHitter, types.OutsideHitter, types.MiddleBlocker,
}

// Generator produces matches from a seeded random stream.
type Generator struct {
	seed        uint64
	serveWin    float64
	subRate     float64
	timeoutRate float64
	rules       *scoring.Rules
	resolver    *substitution.Resolver
	date        time.Time

	src   *rand.ChaCha8
	rng   *rand.Rand
	faker *gofakeit.Faker
	n     int
}

// New returns a Generator.
func New(opts ...Option) *Generator {
	g := &Generator{
		seed:        1,
		serveWin:    0.58,
		subRate:     0.04,
		timeoutRate: 0.02,
		rules:       scoring.NewRules(),
		resolver:    substitution.New(),
		date:        time.Date(2026, time.January, 10, 18, 0, 0, 0, time.UTC),
	}
	for _, opt := range opts {
		opt(g)
	}
	var seed [32]byte
	binary.LittleEndian.PutUint64(seed[:], g.seed)
	g.src = rand.NewChaCha8(seed)
	g.rng = rand.New(g.src)
	g.faker = gofakeit.New(g.seed)
	return g
}

func (g *Generator) id() uuid.UUID {
	id, err := uuid.NewRandomFromReader(g.src)
	if err != nil {
		panic(fmt.Sprintf("simulate: uuid from stream: %v", err))
	}
	return id
}

// Team generates a roster.
func (g *Generator) Team(name string) *model.Team {
	t := &model.Team{ID: g.id(), Name: name}
	number := 1
	for _, s := range rosterShape {
		for i := 0; i < s.count; i++ {
			t.Players = append(t.Players, model.Player{
				ID:     g.id(),
				Name:   g.faker.Name(),
				Number: number,
				Role:   s.role,
			})
			number++
		}
	}
	return t
}

// Lineup picks a starting lineup from the roster: the first players of each
// role, with the setter in a random slot.
func (g *Generator) Lineup(team *model.Team) (*model.RotationConfig, error) {
	byRole := make(map[types.Role][]uuid.UUID)
	for _, p := range team.Players {
		byRole[p.Role] = append(byRole[p.Role], p.ID)
	}
	taken := make(map[types.Role]int)
	next := func(r types.Role) (uuid.UUID, error) {
		ids := byRole[r]
		if taken[r] >= len(ids) {
			return uuid.Nil, fmt.Errorf("roster of %s is short of %s", team.Name, r)
		}
		id := ids[taken[r]]
		taken[r]++
		return id, nil
	}

	cfg := &model.RotationConfig{}
	setterSlot := g.rng.IntN(model.CourtSlots)
	for offset, role := range startingOrder {
		id, err := next(role)
		if err != nil {
			return nil, err
		}
		cfg.Slots[(setterSlot+offset)%model.CourtSlots] = id
	}
	cfg.Setter = cfg.Slots[setterSlot]
	if l := byRole[types.Libero]; len(l) > 0 {
		cfg.Libero = l[0]
		if len(l) > 1 {
			cfg.FallbackLibero = l[1]
		}
	}
	return cfg, cfg.Validate()
}

// OpponentLineup generates a lineup for a side without a roster.
func (g *Generator) OpponentLineup() *model.RotationConfig {
	cfg := &model.RotationConfig{}
	for i := range cfg.Slots {
		cfg.Slots[i] = g.id()
	}
	cfg.Setter = cfg.Slots[g.rng.IntN(model.CourtSlots)]
	cfg.Libero = g.id()
	return cfg
}

// Match generates a match descriptor for team. Consecutive matches are a
// week apart.
func (g *Generator) Match(team *model.Team) model.Match {
	m := model.Match{
		ID:       g.id().String(),
		TeamID:   team.ID,
		Opponent: g.faker.City() + " VC",
		Date:     g.date.AddDate(0, 0, 7*g.n),
		Home:     g.rng.IntN(2) == 0,
	}
	g.n++
	return m
}

// Toss returns a random side.
func (g *Generator) Toss() types.Side {
	return types.Sides[g.rng.IntN(2)]
}

// Set plays one set to completion and returns its record.
func (g *Generator) Set(team *model.Team, d model.SetDescriptor) (*model.SetRecord, error) {
	rec, err := model.NewSetRecord(d)
	if err != nil {
		return nil, err
	}
	snap, err := g.rules.Replay(rec)
	if err != nil {
		return nil, err
	}

	push := func(e model.RallyEvent) error {
		next, err := snap.Apply(e)
		if err != nil {
			return fmt.Errorf("generated %s: %w", e, err)
		}
		if err := rec.Append(e); err != nil {
			return err
		}
		snap = next
		return nil
	}

	for rally := 0; rally < maxRallies; rally++ {
		if _, won := g.rules.SetWinner(snap, d.Number); won {
			return rec, nil
		}
		if g.rng.Float64() < g.timeoutRate {
			if err := push(model.Timeout(types.Sides[g.rng.IntN(2)])); err != nil {
				return nil, err
			}
		}
		if team != nil && snap.HasLineup(types.Us) && g.rng.Float64() < g.subRate {
			if e, ok := g.substitution(snap, team); ok {
				if err := push(e); err != nil {
					return nil, err
				}
			}
		}
		server := snap.Serving
		if err := push(model.Service(server)); err != nil {
			return nil, err
		}
		winner := server
		if g.rng.Float64() >= g.serveWin {
			winner = server.Opponent()
		}
		if !snap.HasLineup(winner) {
			winner = winner.Opponent()
		}
		if err := push(model.Point(winner)); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("set %d did not finish in %d rallies", d.Number, maxRallies)
}

func (g *Generator) substitution(snap *snapshot.Snapshot, team *model.Team) (model.RallyEvent, bool) {
	outs := g.resolver.PullOutCandidates(snap, types.Us)
	if len(outs) == 0 {
		return model.RallyEvent{}, false
	}
	out := outs[g.rng.IntN(len(outs))]
	ins := g.resolver.ReplacementCandidates(snap, types.Us, team, out.Player)
	if len(ins) == 0 {
		return model.RallyEvent{}, false
	}
	in := ins[g.rng.IntN(len(ins))]
	return model.Substitution(types.Us, out.Player, in.ID), true
}

// Played is a generated match with all its sets.
type Played struct {
	Match model.Match
	Sets  []*model.SetRecord
}

// Play generates a complete match for team against a generated opponent.
func (g *Generator) Play(team *model.Team) (*Played, error) {
	p := &Played{Match: g.Match(team)}
	for {
		st, err := g.rules.MatchStatus(p.Sets)
		if err != nil {
			return nil, err
		}
		if st.Finished {
			return p, nil
		}
		first, ok := g.rules.NextFirstServer(st)
		if !ok {
			first = g.Toss()
		}
		us, err := g.Lineup(team)
		if err != nil {
			return nil, err
		}
		rec, err := g.Set(team, model.SetDescriptor{
			Number:      st.NextSet,
			FirstServer: first,
			Us:          us,
			Them:        g.OpponentLineup(),
		})
		if err != nil {
			return nil, err
		}
		p.Sets = append(p.Sets, rec)
	}
}
