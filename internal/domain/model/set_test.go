package model_test

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/smartystreets/goconvey/convey"

	model "github.com/okian/courtside/internal/domain/model"
	"github.com/okian/courtside/internal/domain/types"
)

func newLineup() *model.RotationConfig {
	cfg := &model.RotationConfig{Libero: uuid.New()}
	for i := range cfg.Slots {
		cfg.Slots[i] = uuid.New()
	}
	cfg.Setter = cfg.Slots[0]
	return cfg
}

func TestRotationConfig_Validate(t *testing.T) {
	convey.Convey("Given a lineup", t, func() {
		cfg := newLineup()

		convey.Convey("When it has six distinct players and the setter on court", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("When a player appears twice", func() {
			cfg.Slots[3] = cfg.Slots[1]
			convey.So(errors.Is(cfg.Validate(), model.ErrInvalidLineup), convey.ShouldBeTrue)
		})

		convey.Convey("When a slot is empty", func() {
			cfg.Slots[4] = uuid.Nil
			convey.So(errors.Is(cfg.Validate(), model.ErrInvalidLineup), convey.ShouldBeTrue)
		})

		convey.Convey("When the setter is not on court", func() {
			cfg.Setter = uuid.New()
			err := cfg.Validate()
			convey.So(errors.Is(err, model.ErrInvalidLineup), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, "setter")
		})

		convey.Convey("When the libero starts in a slot", func() {
			cfg.Libero = cfg.Slots[2]
			convey.So(errors.Is(cfg.Validate(), model.ErrInvalidLineup), convey.ShouldBeTrue)
		})

		convey.Convey("When the fallback libero equals the libero", func() {
			cfg.FallbackLibero = cfg.Libero
			convey.So(errors.Is(cfg.Validate(), model.ErrInvalidLineup), convey.ShouldBeTrue)
		})

		convey.Convey("When no libero is designated", func() {
			cfg.Libero = uuid.Nil
			convey.So(cfg.Validate(), convey.ShouldBeNil)
			convey.So(cfg.HasLibero(), convey.ShouldBeFalse)
		})
	})
}

func TestNewSetRecord(t *testing.T) {
	convey.Convey("Given a set descriptor", t, func() {
		d := model.SetDescriptor{Number: 1, FirstServer: types.Us, Us: newLineup()}

		convey.Convey("When the set number is outside [1,5]", func() {
			for _, n := range []int{0, 6, -1} {
				d.Number = n
				_, err := model.NewSetRecord(d)
				convey.So(errors.Is(err, model.ErrInvalidSetNumber), convey.ShouldBeTrue)
			}
		})

		convey.Convey("When neither side has a lineup", func() {
			d.Us = nil
			_, err := model.NewSetRecord(d)
			convey.So(errors.Is(err, model.ErrMissingLineup), convey.ShouldBeTrue)
		})

		convey.Convey("When the first server has no lineup", func() {
			d.FirstServer = types.Them
			_, err := model.NewSetRecord(d)
			convey.So(errors.Is(err, model.ErrMissingLineup), convey.ShouldBeTrue)
		})

		convey.Convey("When the lineup is invalid", func() {
			d.Us.Setter = uuid.New()
			_, err := model.NewSetRecord(d)
			convey.So(errors.Is(err, model.ErrInvalidLineup), convey.ShouldBeTrue)
		})

		convey.Convey("When the descriptor is valid", func() {
			rec, err := model.NewSetRecord(d)
			convey.So(err, convey.ShouldBeNil)
			convey.So(rec.HasEvents(), convey.ShouldBeFalse)
			convey.So(rec.Lineup(types.Them), convey.ShouldBeNil)
		})
	})
}

func TestSetRecord_Log(t *testing.T) {
	convey.Convey("Given an empty set", t, func() {
		rec, err := model.NewSetRecord(model.SetDescriptor{Number: 2, FirstServer: types.Them, Them: newLineup()})
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("When removing from the empty log", func() {
			_, ok := rec.RemoveLast()
			convey.So(ok, convey.ShouldBeFalse)
		})

		convey.Convey("When appending then removing an event", func() {
			convey.So(rec.Append(model.Point(types.Us)), convey.ShouldBeNil)
			convey.So(rec.Append(model.Timeout(types.Them)), convey.ShouldBeNil)
			last, ok := rec.RemoveLast()

			convey.Convey("Then the most recent event comes back", func() {
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(last, convey.ShouldResemble, model.Timeout(types.Them))
				convey.So(rec.Len(), convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When appending a malformed event", func() {
			err := rec.Append(model.RallyEvent{Kind: "attack", Side: types.Us})
			convey.So(errors.Is(err, model.ErrInvalidEvent), convey.ShouldBeTrue)
			convey.So(rec.Len(), convey.ShouldEqual, 0)
		})

		convey.Convey("When a substitution names the same player twice", func() {
			id := uuid.New()
			err := rec.Append(model.Substitution(types.Us, id, id))
			convey.So(errors.Is(err, model.ErrInvalidEvent), convey.ShouldBeTrue)
		})

		convey.Convey("When taking a prefix", func() {
			_ = rec.Append(model.Point(types.Us))
			_ = rec.Append(model.Point(types.Them))
			p := rec.Prefix(1)
			_ = p.Append(model.Point(types.Us))

			convey.Convey("Then the prefix is independent of the original", func() {
				convey.So(rec.Len(), convey.ShouldEqual, 2)
				convey.So(p.Len(), convey.ShouldEqual, 2)
				convey.So(rec.Events()[1], convey.ShouldResemble, model.Point(types.Them))
			})
		})
	})
}
