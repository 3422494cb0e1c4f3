package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"testing"

	"github.com/smartystreets/goconvey/convey"
	"github.com/urfave/cli/v2"

	service "github.com/okian/courtside/internal/app"
	"github.com/okian/courtside/internal/domain/model"
	"github.com/okian/courtside/internal/domain/scoring"
	"github.com/okian/courtside/internal/domain/snapshot"
	"github.com/okian/courtside/internal/domain/types"
)

// runCLI runs volleyctl against the file store in dir and returns stdout.
func runCLI(dir string, args ...string) (string, error) {
	app := newApp()
	var out bytes.Buffer
	app.Writer = &out
	app.ErrWriter = io.Discard
	app.ExitErrHandler = func(*cli.Context, error) {}
	err := app.Run(append([]string{"volleyctl", "--store", "file", "--data-dir", dir}, args...))
	return out.String(), err
}

func TestVolleyctl(t *testing.T) {
	convey.Convey("Given a store seeded by volleyctl", t, func() {
		dir := t.TempDir()
		out, err := runCLI(dir, "seed", "--matches", "2", "--seed", "3", "--sub-rate", "0")
		convey.So(err, convey.ShouldBeNil)
		var seeded seedResult
		convey.So(json.Unmarshal([]byte(out), &seeded), convey.ShouldBeNil)
		convey.So(seeded.Matches, convey.ShouldHaveLength, 2)
		matchID := seeded.Matches[0]

		convey.Convey("When the status is printed", func() {
			out, err := runCLI(dir, "status", matchID)
			convey.So(err, convey.ShouldBeNil)
			var st scoring.Status
			convey.So(json.Unmarshal([]byte(out), &st), convey.ShouldBeNil)
			convey.So(st.Finished, convey.ShouldBeTrue)
		})

		convey.Convey("When a snapshot prefix is printed", func() {
			out, err := runCLI(dir, "snapshot", "--upto", "0", matchID, "1")
			convey.So(err, convey.ShouldBeNil)
			var v snapshot.View
			convey.So(json.Unmarshal([]byte(out), &v), convey.ShouldBeNil)
			convey.So(v.Events, convey.ShouldEqual, 0)
		})

		convey.Convey("When the team is audited", func() {
			out, err := runCLI(dir, "audit", seeded.TeamID.String())
			convey.So(err, convey.ShouldBeNil)
			var report service.AuditReport
			convey.So(json.Unmarshal([]byte(out), &report), convey.ShouldBeNil)
			convey.So(report.Passed, convey.ShouldEqual, 2)
		})

		convey.Convey("When the last event of the final set is undone", func() {
			out, err := runCLI(dir, "status", matchID)
			convey.So(err, convey.ShouldBeNil)
			var st scoring.Status
			convey.So(json.Unmarshal([]byte(out), &st), convey.ShouldBeNil)
			last := strconv.Itoa(len(st.Sets))

			out, err = runCLI(dir, "undo", matchID, last)
			convey.So(err, convey.ShouldBeNil)
			var e model.RallyEvent
			convey.So(json.Unmarshal([]byte(out), &e), convey.ShouldBeNil)
			convey.So(e.Kind, convey.ShouldEqual, types.KindPoint)

			convey.Convey("Then the set is open again and takes the point back", func() {
				out, err := runCLI(dir, "point", "--side", string(e.Side), matchID, last)
				convey.So(err, convey.ShouldBeNil)
				var v snapshot.View
				convey.So(json.Unmarshal([]byte(out), &v), convey.ShouldBeNil)
				convey.So(v.Last, convey.ShouldNotBeNil)
				convey.So(v.Last.Side, convey.ShouldEqual, e.Side)
			})

			convey.Convey("Then an earlier set cannot be reopened", func() {
				_, err := runCLI(dir, "undo", matchID, "1")
				convey.So(errors.Is(err, service.ErrLaterSetExists), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a finished set is appended to", func() {
			_, err := runCLI(dir, "point", matchID, "1")
			convey.So(err, convey.ShouldNotBeNil)
		})

		convey.Convey("When arguments are missing or malformed", func() {
			_, err := runCLI(dir, "snapshot", matchID)
			convey.So(err, convey.ShouldNotBeNil)
			_, err = runCLI(dir, "audit", "not-a-uuid")
			convey.So(err, convey.ShouldNotBeNil)
			_, err = runCLI(dir, "sub", "--out", "x", "--in", "y", matchID, "1")
			convey.So(err, convey.ShouldNotBeNil)
			_, err = runCLI(dir, "point", "--side", "nobody", matchID, "1")
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}
