package scoring_test

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/courtside/internal/domain/model"
	scoring "github.com/okian/courtside/internal/domain/scoring"
	"github.com/okian/courtside/internal/domain/snapshot"
	"github.com/okian/courtside/internal/domain/types"
)

func lineup() *model.RotationConfig {
	cfg := &model.RotationConfig{}
	for i := range cfg.Slots {
		cfg.Slots[i] = uuid.New()
	}
	cfg.Setter = cfg.Slots[0]
	return cfg
}

// played builds set n ending at us-them. Them's points come first.
func played(n int, first types.Side, us, them int) *model.SetRecord {
	rec, err := model.NewSetRecord(model.SetDescriptor{Number: n, FirstServer: first, Us: lineup(), Them: lineup()})
	So(err, ShouldBeNil)
	for i := 0; i < them; i++ {
		So(rec.Append(model.Point(types.Them)), ShouldBeNil)
	}
	for i := 0; i < us; i++ {
		So(rec.Append(model.Point(types.Us)), ShouldBeNil)
	}
	return rec
}

func score(rules *scoring.Rules, rec *model.SetRecord) *snapshot.Snapshot {
	snap, err := rules.Replay(rec)
	So(err, ShouldBeNil)
	return snap
}

func TestRules_SetWinner(t *testing.T) {
	Convey("Given default rules", t, func() {
		rules := scoring.NewRules()

		Convey("When Us reaches 25-23", func() {
			winner, ok := rules.SetWinner(score(rules, played(1, types.Us, 25, 23)), 1)
			So(ok, ShouldBeTrue)
			So(winner, ShouldEqual, types.Us)
		})

		Convey("When the score is 24-23", func() {
			_, ok := rules.SetWinner(score(rules, played(1, types.Us, 24, 23)), 1)
			So(ok, ShouldBeFalse)
		})

		Convey("When the lead is a single point past the target", func() {
			_, ok := rules.SetWinner(score(rules, played(2, types.Us, 26, 25)), 2)
			So(ok, ShouldBeFalse)
		})

		Convey("When Them wins 27-25", func() {
			winner, ok := rules.SetWinner(score(rules, played(3, types.Us, 25, 27)), 3)
			So(ok, ShouldBeTrue)
			So(winner, ShouldEqual, types.Them)
		})

		Convey("When the deciding set reaches 15-13", func() {
			snap := score(rules, played(5, types.Us, 15, 13))
			winner, ok := rules.SetWinner(snap, 5)
			So(ok, ShouldBeTrue)
			So(winner, ShouldEqual, types.Us)

			_, ok = rules.SetWinner(snap, 4)
			So(ok, ShouldBeFalse)
		})
	})

	Convey("Given custom rules", t, func() {
		rules := scoring.NewRules(scoring.WithSetPoints(21), scoring.WithSetsToWin(2), scoring.WithTieBreakPoints(11))

		Convey("Then the targets follow the match length", func() {
			So(rules.MaxSets(), ShouldEqual, 3)
			So(rules.Target(1), ShouldEqual, 21)
			So(rules.Target(3), ShouldEqual, 11)
		})
	})
}

func TestRules_MatchStatus(t *testing.T) {
	Convey("Given default rules", t, func() {
		rules := scoring.NewRules()

		Convey("When no set exists", func() {
			st, err := rules.MatchStatus(nil)
			So(err, ShouldBeNil)
			So(st.NextSet, ShouldEqual, 1)
			So(st.Finished, ShouldBeFalse)
		})

		Convey("When Us wins sets 1, 2 and 3", func() {
			st, err := rules.MatchStatus([]*model.SetRecord{
				played(1, types.Us, 25, 20),
				played(2, types.Them, 25, 23),
				played(3, types.Us, 27, 25),
			})

			Convey("Then the match is finished without sets 4 or 5", func() {
				So(err, ShouldBeNil)
				So(st.Finished, ShouldBeTrue)
				So(st.Wins, ShouldResemble, snapshot.Score{Us: 3})
				So(st.Winner, ShouldEqual, types.Us)
				So(st.NextSet, ShouldEqual, 0)
				So(st.Sets, ShouldHaveLength, 3)
			})
		})

		Convey("When the second set is in progress", func() {
			st, err := rules.MatchStatus([]*model.SetRecord{
				played(2, types.Them, 10, 12),
				played(1, types.Us, 20, 25),
			})
			So(err, ShouldBeNil)
			So(st.Incomplete, ShouldEqual, 2)
			So(st.NextSet, ShouldEqual, 0)
			So(st.Wins, ShouldResemble, snapshot.Score{Them: 1})
			So(st.LastServing, ShouldEqual, types.Us)
		})

		Convey("When two sets are complete", func() {
			st, err := rules.MatchStatus([]*model.SetRecord{
				played(1, types.Us, 25, 20),
				played(2, types.Them, 20, 25),
			})
			So(err, ShouldBeNil)

			Convey("Then set 3 is next and the other side serves first", func() {
				So(st.NextSet, ShouldEqual, 3)
				So(st.LastServing, ShouldEqual, types.Them)
				side, ok := rules.NextFirstServer(st)
				So(ok, ShouldBeTrue)
				So(side, ShouldEqual, types.Us)
			})
		})

		Convey("When the match goes to a deciding set", func() {
			st, err := rules.MatchStatus([]*model.SetRecord{
				played(1, types.Us, 25, 20),
				played(2, types.Them, 20, 25),
				played(3, types.Us, 25, 20),
				played(4, types.Them, 20, 25),
			})
			So(err, ShouldBeNil)
			So(st.NextSet, ShouldEqual, 5)

			Convey("Then the first server is decided by a toss", func() {
				_, ok := rules.NextFirstServer(st)
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When set numbers have a gap", func() {
			_, err := rules.MatchStatus([]*model.SetRecord{played(1, types.Us, 25, 20), played(3, types.Us, 0, 0)})
			So(errors.Is(err, scoring.ErrNonContiguousSets), ShouldBeTrue)
		})

		Convey("When a set number repeats", func() {
			_, err := rules.MatchStatus([]*model.SetRecord{played(1, types.Us, 25, 20), played(1, types.Us, 3, 0)})
			So(errors.Is(err, scoring.ErrDuplicateSet), ShouldBeTrue)
		})

		Convey("When there are more than five sets", func() {
			var recs []*model.SetRecord
			for i := 0; i < 6; i++ {
				recs = append(recs, played(1+i%5, types.Us, 0, 0))
			}
			_, err := rules.MatchStatus(recs)
			So(errors.Is(err, scoring.ErrTooManySets), ShouldBeTrue)
		})

		Convey("When a set log cannot be replayed", func() {
			rec, err := model.NewSetRecord(model.SetDescriptor{Number: 1, FirstServer: types.Us, Us: lineup()})
			So(err, ShouldBeNil)
			So(rec.Append(model.Point(types.Them)), ShouldBeNil)
			_, err = rules.MatchStatus([]*model.SetRecord{rec})
			So(errors.Is(err, snapshot.ErrUninitializedRotation), ShouldBeTrue)
		})
	})
}
