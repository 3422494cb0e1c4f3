package snapshot_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/courtside/internal/domain/model"
	"github.com/okian/courtside/internal/domain/snapshot"
	"github.com/okian/courtside/internal/domain/types"
)

type team struct {
	p      [6]uuid.UUID
	libero uuid.UUID
	bench  [4]uuid.UUID
}

func newTeam() team {
	t := team{libero: uuid.New()}
	for i := range t.p {
		t.p[i] = uuid.New()
	}
	for i := range t.bench {
		t.bench[i] = uuid.New()
	}
	return t
}

// lineup puts the setter (p[0]) at setterSlot and the others clockwise after it.
func (t team) lineup(setterSlot int) *model.RotationConfig {
	cfg := &model.RotationConfig{Setter: t.p[0], Libero: t.libero}
	for i := range cfg.Slots {
		cfg.Slots[(setterSlot+i)%6] = t.p[i]
	}
	return cfg
}

func newSet(first types.Side, us, them *model.RotationConfig) *model.SetRecord {
	rec, err := model.NewSetRecord(model.SetDescriptor{Number: 1, FirstServer: first, Us: us, Them: them})
	So(err, ShouldBeNil)
	return rec
}

func appendAll(rec *model.SetRecord, events ...model.RallyEvent) {
	for _, e := range events {
		So(rec.Append(e), ShouldBeNil)
	}
}

func points(side types.Side, n int) []model.RallyEvent {
	out := make([]model.RallyEvent, n)
	for i := range out {
		out[i] = model.Point(side)
	}
	return out
}

func TestCompute_Scoring(t *testing.T) {
	Convey("Given a set where Us serves first", t, func() {
		us, them := newTeam(), newTeam()
		rec := newSet(types.Us, us.lineup(0), them.lineup(0))

		Convey("When nothing has been logged", func() {
			snap, err := snapshot.Compute(rec)
			So(err, ShouldBeNil)
			So(snap.Score, ShouldResemble, snapshot.Score{})
			So(snap.Serving, ShouldEqual, types.Us)
			So(snap.Events, ShouldEqual, 0)
		})

		Convey("When the server wins a rally", func() {
			appendAll(rec, model.Point(types.Us))
			snap, err := snapshot.Compute(rec, snapshot.WithAutoLibero(false))
			So(err, ShouldBeNil)

			Convey("Then only the score changes", func() {
				So(snap.Score, ShouldResemble, snapshot.Score{Us: 1})
				So(snap.Serving, ShouldEqual, types.Us)
				So(snap.Lineup(types.Us).Slots(), ShouldResemble, us.lineup(0).Slots)
			})
		})

		Convey("When Us leads 10-8 while serving and loses the rally", func() {
			appendAll(rec, points(types.Them, 8)...)
			appendAll(rec, points(types.Us, 10)...)
			before, err := snapshot.Compute(rec, snapshot.WithAutoLibero(false))
			So(err, ShouldBeNil)
			So(before.Score, ShouldResemble, snapshot.Score{Us: 10, Them: 8})
			So(before.Serving, ShouldEqual, types.Us)

			appendAll(rec, model.Point(types.Them))
			after, err := snapshot.Compute(rec, snapshot.WithAutoLibero(false))
			So(err, ShouldBeNil)

			Convey("Then it is 10-9 and Them serves from a rotated lineup", func() {
				So(after.Score, ShouldResemble, snapshot.Score{Us: 10, Them: 9})
				So(after.Serving, ShouldEqual, types.Them)

				prev := before.Lineup(types.Them).Slots()
				next := after.Lineup(types.Them).Slots()
				for i := range next {
					So(next[i], ShouldEqual, prev[(i+1)%6])
				}
				So(after.Lineup(types.Us).Slots(), ShouldResemble, before.Lineup(types.Us).Slots())
			})
		})

		Convey("When only a prefix is replayed", func() {
			appendAll(rec, points(types.Us, 3)...)
			snap, err := snapshot.Compute(rec, snapshot.UpTo(2))
			So(err, ShouldBeNil)
			So(snap.Score.Us, ShouldEqual, 2)
			So(snap.Events, ShouldEqual, 2)
		})

		Convey("When timeouts and technical events are logged", func() {
			appendAll(rec, model.Timeout(types.Them), model.Technical(types.Us, "yellow card"), model.Service(types.Us))
			snap, err := snapshot.Compute(rec)
			So(err, ShouldBeNil)

			Convey("Then neither score nor service changes", func() {
				So(snap.Score, ShouldResemble, snapshot.Score{})
				So(snap.Serving, ShouldEqual, types.Us)
				So(snap.Timeouts.Of(types.Them), ShouldEqual, 1)
				So(snap.Last.Kind, ShouldEqual, types.KindService)
			})
		})
	})
}

func TestCompute_Monotonic(t *testing.T) {
	Convey("Given a long rally log", t, func() {
		rec := newSet(types.Them, newTeam().lineup(3), newTeam().lineup(1))
		pattern := []types.Side{types.Us, types.Us, types.Them, types.Us, types.Them, types.Them, types.Them, types.Us}
		for i := 0; i < 5; i++ {
			for _, side := range pattern {
				appendAll(rec, model.Point(side))
			}
		}

		Convey("Then scores never decrease from one prefix to the next", func() {
			var prev snapshot.Score
			for n := 0; n <= rec.Len(); n++ {
				snap, err := snapshot.Compute(rec, snapshot.UpTo(n))
				So(err, ShouldBeNil)
				So(snap.Score.Us, ShouldBeGreaterThanOrEqualTo, prev.Us)
				So(snap.Score.Them, ShouldBeGreaterThanOrEqualTo, prev.Them)
				So(snap.Score.Us+snap.Score.Them, ShouldEqual, n)
				prev = snap.Score
			}
		})
	})
}

func TestCompute_UndoRoundTrip(t *testing.T) {
	Convey("Given a set with some history", t, func() {
		us := newTeam()
		rec := newSet(types.Us, us.lineup(2), newTeam().lineup(0))
		appendAll(rec, model.Point(types.Them), model.Point(types.Us), model.Substitution(types.Us, us.p[3], us.bench[0]))
		before, err := snapshot.Compute(rec)
		So(err, ShouldBeNil)

		for i, e := range []model.RallyEvent{
			model.Point(types.Them),
			model.Point(types.Us),
			model.Substitution(types.Us, us.bench[0], us.p[3]),
			model.Timeout(types.Us),
		} {
			Convey(fmt.Sprintf("When event %d (%s) is appended then undone", i, e.Kind), func() {
				So(rec.Append(e), ShouldBeNil)
				_, err := snapshot.Compute(rec)
				So(err, ShouldBeNil)

				removed, ok := rec.RemoveLast()
				So(ok, ShouldBeTrue)
				So(removed, ShouldResemble, e)

				after, err := snapshot.Compute(rec)
				So(err, ShouldBeNil)

				Convey("Then the snapshot matches the one before", func() {
					So(cmp.Diff(before.View(), after.View()), ShouldBeEmpty)
				})
			})
		}
	})
}

func TestCompute_ReplayErrors(t *testing.T) {
	Convey("Given a set where only Us has a lineup", t, func() {
		us := newTeam()
		rec := newSet(types.Us, us.lineup(0), nil)

		Convey("When Them is awarded a point", func() {
			appendAll(rec, model.Point(types.Them))
			snap, err := snapshot.Compute(rec)

			Convey("Then replay fails with a structured error", func() {
				So(snap, ShouldBeNil)
				var rerr *snapshot.ReplayError
				So(errors.As(err, &rerr), ShouldBeTrue)
				So(rerr.Index, ShouldEqual, 0)
				So(rerr.Kind, ShouldEqual, types.KindPoint)
				So(errors.Is(err, snapshot.ErrUninitializedRotation), ShouldBeTrue)
			})
		})

		Convey("When the receiving side serves", func() {
			appendAll(rec, model.Service(types.Them))
			_, err := snapshot.Compute(rec)
			So(errors.Is(err, snapshot.ErrServiceOutOfTurn), ShouldBeTrue)
		})

		Convey("When a substitution reopens a closed pair", func() {
			appendAll(rec,
				model.Substitution(types.Us, us.p[1], us.bench[0]),
				model.Substitution(types.Us, us.bench[0], us.p[1]),
				model.Substitution(types.Us, us.p[1], us.bench[0]),
			)
			_, err := snapshot.Compute(rec)
			So(errors.Is(err, snapshot.ErrIllegalSubstitution), ShouldBeTrue)
			var rerr *snapshot.ReplayError
			So(errors.As(err, &rerr), ShouldBeTrue)
			So(rerr.Index, ShouldEqual, 2)
		})

		Convey("When the substitution ceiling is exceeded", func() {
			appendAll(rec,
				model.Substitution(types.Us, us.p[1], us.bench[0]),
				model.Substitution(types.Us, us.p[2], us.bench[1]),
			)
			_, err := snapshot.Compute(rec, snapshot.WithMaxSubstitutions(1))
			So(errors.Is(err, snapshot.ErrIllegalSubstitution), ShouldBeTrue)

			_, err = snapshot.Compute(rec, snapshot.WithMaxSubstitutions(2))
			So(err, ShouldBeNil)
		})

		Convey("When the libero is pulled out by an ordinary substitution", func() {
			appendAll(rec, model.Substitution(types.Us, us.libero, us.bench[0]))
			_, err := snapshot.Compute(rec)
			So(errors.Is(err, snapshot.ErrIllegalSubstitution), ShouldBeTrue)
		})

		Convey("When the player going out is not on court", func() {
			appendAll(rec, model.Substitution(types.Us, us.bench[1], us.bench[0]))
			_, err := snapshot.Compute(rec)
			So(errors.Is(err, snapshot.ErrPlayerNotOnCourt), ShouldBeTrue)
		})
	})
}

func TestCompute_Libero(t *testing.T) {
	Convey("Given Us receiving in rotation 2 with a libero", t, func() {
		us := newTeam()
		rec := newSet(types.Them, us.lineup(2), newTeam().lineup(0))

		snap, err := snapshot.Compute(rec)
		So(err, ShouldBeNil)
		l := snap.Lineup(types.Us)

		Convey("Then the libero covers the back-row middle blocker", func() {
			role, err := l.RoleOf(us.libero)
			So(err, ShouldBeNil)
			So(role, ShouldEqual, types.Libero)
			So(snap.Substitutions(types.Us), ShouldEqual, 0)
		})

		Convey("When Us sides out and the middle blocker must serve", func() {
			appendAll(rec, model.Point(types.Us))
			snap, err := snapshot.Compute(rec)
			So(err, ShouldBeNil)
			l := snap.Lineup(types.Us)

			Convey("Then the libero is off court and the middle blocker serves", func() {
				So(l.OnCourt(us.libero), ShouldBeFalse)
				role, _ := l.RoleAt(0)
				So(role, ShouldEqual, types.MiddleBlocker)
			})

			Convey("And Them wins the serve back", func() {
				appendAll(rec, model.Point(types.Them))
				snap, err := snapshot.Compute(rec)
				So(err, ShouldBeNil)

				Convey("Then the libero is back in for the middle blocker", func() {
					So(snap.Lineup(types.Us).Server(), ShouldEqual, us.libero)
				})
			})
		})

		Convey("When auto libero is disabled", func() {
			snap, err := snapshot.Compute(rec, snapshot.WithAutoLibero(false))
			So(err, ShouldBeNil)
			So(snap.Lineup(types.Us).OnCourt(us.libero), ShouldBeFalse)

			Convey("Then a logged libero exchange brings it in without counting", func() {
				mb, _ := snap.Lineup(types.Us).At(4)
				appendAll(rec, model.Substitution(types.Us, mb, us.libero))
				snap, err := snapshot.Compute(rec, snapshot.WithAutoLibero(false))
				So(err, ShouldBeNil)
				So(snap.Lineup(types.Us).OnCourt(us.libero), ShouldBeTrue)
				So(snap.Substitutions(types.Us), ShouldEqual, 0)
			})
		})
	})
}

func TestSnapshot_Apply(t *testing.T) {
	Convey("Given a computed snapshot", t, func() {
		rec := newSet(types.Us, newTeam().lineup(0), newTeam().lineup(0))
		snap, err := snapshot.Compute(rec)
		So(err, ShouldBeNil)

		Convey("When an event is applied", func() {
			next, err := snap.Apply(model.Point(types.Them))
			So(err, ShouldBeNil)

			Convey("Then the original is unchanged", func() {
				So(snap.Score, ShouldResemble, snapshot.Score{})
				So(next.Score, ShouldResemble, snapshot.Score{Them: 1})
				So(next.Events, ShouldEqual, 1)
			})
		})

		Convey("When an invalid event is applied", func() {
			_, err := snap.Apply(model.RallyEvent{Kind: "spike", Side: types.Us})
			So(errors.Is(err, snapshot.ErrUnknownEventKind), ShouldBeTrue)
		})
	})
}
