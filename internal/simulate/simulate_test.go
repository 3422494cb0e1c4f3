package simulate_test

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/courtside/internal/domain/model"
	"github.com/okian/courtside/internal/domain/scoring"
	"github.com/okian/courtside/internal/domain/snapshot"
	"github.com/okian/courtside/internal/domain/types"
	"github.com/okian/courtside/internal/simulate"
)

func TestGenerator_Deterministic(t *testing.T) {
	Convey("Given two generators with the same seed", t, func() {
		a := simulate.New(simulate.WithSeed(42))
		b := simulate.New(simulate.WithSeed(42))

		Convey("They generate identical matches", func() {
			ta, tb := a.Team("Courtside"), b.Team("Courtside")
			So(cmp.Diff(ta, tb), ShouldBeEmpty)

			pa, err := a.Play(ta)
			So(err, ShouldBeNil)
			pb, err := b.Play(tb)
			So(err, ShouldBeNil)
			So(pa.Match, ShouldResemble, pb.Match)
			So(len(pa.Sets), ShouldEqual, len(pb.Sets))
			for i := range pa.Sets {
				So(pa.Sets[i].Events(), ShouldResemble, pb.Sets[i].Events())
			}
		})

		Convey("A different seed diverges", func() {
			c := simulate.New(simulate.WithSeed(43))
			So(c.Team("Courtside").ID, ShouldNotEqual, a.Team("Courtside").ID)
		})
	})
}

func TestGenerator_Lineup(t *testing.T) {
	Convey("Given a generated roster", t, func() {
		g := simulate.New(simulate.WithSeed(7))
		team := g.Team("Courtside")

		Convey("The lineup only names roster players and is valid", func() {
			cfg, err := g.Lineup(team)
			So(err, ShouldBeNil)
			for _, id := range cfg.Slots {
				p, ok := team.Player(id)
				So(ok, ShouldBeTrue)
				So(p.Role, ShouldNotEqual, types.Libero)
			}
			p, _ := team.Player(cfg.Setter)
			So(p.Role, ShouldEqual, types.Setter)
			So(cfg.FallbackLibero, ShouldNotEqual, uuid.Nil)
		})

		Convey("A roster without middle blockers is rejected", func() {
			short := &model.Team{Name: "short"}
			for _, p := range team.Players {
				if p.Role != types.MiddleBlocker {
					short.Players = append(short.Players, p)
				}
			}
			_, err := g.Lineup(short)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestGenerator_PlayedMatchesReplay(t *testing.T) {
	Convey("Given matches played from several seeds", t, func() {
		for seed := uint64(1); seed <= 8; seed++ {
			g := simulate.New(simulate.WithSeed(seed), simulate.WithSubstitutionRate(0.2))
			team := g.Team("Courtside")
			played, err := g.Play(team)
			So(err, ShouldBeNil)

			Convey(fmt.Sprintf("Seed %d produces a decided match", seed), func() {
				So(len(played.Sets), ShouldBeBetweenOrEqual, 3, 5)
				last := played.Sets[len(played.Sets)-1]
				snap, err := snapshot.Compute(last)
				So(err, ShouldBeNil)
				_, won := scoring.NewRules().SetWinner(snap, last.Number)
				So(won, ShouldBeTrue)
			})

			Convey(fmt.Sprintf("Seed %d keeps every prefix consistent", seed), func() {
				for _, rec := range played.Sets {
					var prev *snapshot.Snapshot
					for n := 0; n <= rec.Len(); n++ {
						snap, err := snapshot.Compute(rec, snapshot.UpTo(n))
						So(err, ShouldBeNil)

						if prev != nil {
							So(snap.Score.Us, ShouldBeGreaterThanOrEqualTo, prev.Score.Us)
							So(snap.Score.Them, ShouldBeGreaterThanOrEqualTo, prev.Score.Them)
						}
						for _, side := range types.Sides {
							holders := snap.Lineup(side).Holders()
							roles := map[types.Role]int{}
							players := map[uuid.UUID]bool{}
							for _, h := range holders {
								roles[h.Role]++
								players[h.Player] = true
							}
							So(players, ShouldHaveLength, model.CourtSlots)
							So(roles[types.Setter], ShouldEqual, 1)
							So(roles[types.OppositeHitter], ShouldEqual, 1)
							So(roles[types.OutsideHitter], ShouldEqual, 2)
							So(roles[types.MiddleBlocker], ShouldEqual, 2)
						}
						prev = snap
					}
				}
			})

			Convey(fmt.Sprintf("Seed %d round-trips through undo", seed), func() {
				rec := played.Sets[0].Clone()
				before, err := snapshot.Compute(rec.Prefix(rec.Len() - 1))
				So(err, ShouldBeNil)
				_, ok := rec.RemoveLast()
				So(ok, ShouldBeTrue)
				after, err := snapshot.Compute(rec)
				So(err, ShouldBeNil)
				So(cmp.Diff(before.View(), after.View()), ShouldBeEmpty)
			})
		}
	})
}
