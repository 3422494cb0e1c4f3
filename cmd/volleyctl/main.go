// Command volleyctl records and inspects volleyball match logs.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	service "github.com/okian/courtside/internal/app"
	"github.com/okian/courtside/internal/config"
	"github.com/okian/courtside/internal/domain/model"
	"github.com/okian/courtside/internal/domain/types"
	"github.com/okian/courtside/internal/simulate"
	"github.com/okian/courtside/pkg/logger"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "volleyctl:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "volleyctl",
		Usage: "record and inspect volleyball match logs",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "YAML config file", EnvVars: []string{config.EnvFile}},
			&cli.StringFlag{Name: "store", Usage: "store backend: file, sqlite or memory"},
			&cli.StringFlag{Name: "data-dir", Usage: "directory for the file and sqlite stores"},
			&cli.StringFlag{Name: "log-level", Usage: "log level", Value: "warn"},
		},
		Commands: []*cli.Command{
			statusCommand(),
			snapshotCommand(),
			serveCommand(),
			pointCommand(),
			timeoutCommand(),
			subCommand(),
			undoCommand(),
			auditCommand(),
			seedCommand(),
		},
	}
}

// withService loads the configuration, applies the global flags and runs fn
// against a started service.
func withService(c *cli.Context, fn func(ctx context.Context, svc *service.Service) error) error {
	if path := c.String("config"); path != "" {
		if err := os.Setenv(config.EnvFile, path); err != nil {
			return err
		}
	}
	ctx := c.Context
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if v := c.String("store"); v != "" {
		cfg.Store = v
	}
	if v := c.String("data-dir"); v != "" {
		cfg.DataDir = v
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := logger.Init(
		logger.WithLevel(c.String("log-level")),
		logger.WithFormat(cfg.LogFormat),
		logger.WithOutput(c.App.ErrWriter),
	); err != nil {
		return err
	}

	svc, err := service.Open(cfg, service.WithLogger(logger.Named("volleyctl")))
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()
	return fn(ctx, svc)
}

func printJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// setArgs reads the <match-id> <set> positional arguments.
func setArgs(c *cli.Context) (string, int, error) {
	if c.NArg() < 2 {
		return "", 0, fmt.Errorf("usage: %s <match-id> <set>", c.Command.Name)
	}
	n, err := strconv.Atoi(c.Args().Get(1))
	if err != nil {
		return "", 0, fmt.Errorf("set number %q: %w", c.Args().Get(1), err)
	}
	return c.Args().First(), n, nil
}

func sideFlag() cli.Flag {
	return &cli.StringFlag{Name: "side", Usage: "us or them", Value: string(types.Us)}
}

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:      "status",
		Usage:     "print sets won and the result of every set",
		ArgsUsage: "<match-id>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("usage: status <match-id>")
			}
			return withService(c, func(ctx context.Context, svc *service.Service) error {
				st, err := svc.MatchStatus(ctx, c.Args().First())
				if err != nil {
					return err
				}
				return printJSON(c, st)
			})
		},
	}
}

func snapshotCommand() *cli.Command {
	return &cli.Command{
		Name:      "snapshot",
		Usage:     "replay a set and print its state",
		ArgsUsage: "<match-id> <set>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "upto", Usage: "replay only the first N events", Value: -1},
		},
		Action: func(c *cli.Context) error {
			matchID, n, err := setArgs(c)
			if err != nil {
				return err
			}
			return withService(c, func(ctx context.Context, svc *service.Service) error {
				snap, err := svc.Snapshot(ctx, matchID, n, c.Int("upto"))
				if err != nil {
					return err
				}
				return printJSON(c, snap.View())
			})
		},
	}
}

// appendCommand builds a command that appends one event made by build.
func appendCommand(name, usage string, flags []cli.Flag, build func(c *cli.Context, side types.Side) (model.RallyEvent, error)) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     usage,
		ArgsUsage: "<match-id> <set>",
		Flags:     append([]cli.Flag{sideFlag()}, flags...),
		Action: func(c *cli.Context) error {
			matchID, n, err := setArgs(c)
			if err != nil {
				return err
			}
			side, err := types.ParseSide(c.String("side"))
			if err != nil {
				return err
			}
			e, err := build(c, side)
			if err != nil {
				return err
			}
			return withService(c, func(ctx context.Context, svc *service.Service) error {
				snap, err := svc.Append(ctx, matchID, n, e)
				if err != nil {
					return err
				}
				return printJSON(c, snap.View())
			})
		},
	}
}

func serveCommand() *cli.Command {
	return appendCommand("serve", "record a serve", nil, func(_ *cli.Context, side types.Side) (model.RallyEvent, error) {
		return model.Service(side), nil
	})
}

func pointCommand() *cli.Command {
	return appendCommand("point", "record a rally won", nil, func(_ *cli.Context, side types.Side) (model.RallyEvent, error) {
		return model.Point(side), nil
	})
}

func timeoutCommand() *cli.Command {
	return appendCommand("timeout", "record a timeout", nil, func(_ *cli.Context, side types.Side) (model.RallyEvent, error) {
		return model.Timeout(side), nil
	})
}

func subCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{Name: "out", Usage: "player leaving the court", Required: true},
		&cli.StringFlag{Name: "in", Usage: "player entering the court", Required: true},
	}
	return appendCommand("sub", "record a substitution", flags, func(c *cli.Context, side types.Side) (model.RallyEvent, error) {
		out, err := uuid.Parse(c.String("out"))
		if err != nil {
			return model.RallyEvent{}, fmt.Errorf("out: %w", err)
		}
		in, err := uuid.Parse(c.String("in"))
		if err != nil {
			return model.RallyEvent{}, fmt.Errorf("in: %w", err)
		}
		return model.Substitution(side, out, in), nil
	})
}

func undoCommand() *cli.Command {
	return &cli.Command{
		Name:      "undo",
		Usage:     "remove the last event of a set",
		ArgsUsage: "<match-id> <set>",
		Action: func(c *cli.Context) error {
			matchID, n, err := setArgs(c)
			if err != nil {
				return err
			}
			return withService(c, func(ctx context.Context, svc *service.Service) error {
				e, err := svc.Undo(ctx, matchID, n)
				if err != nil {
					return err
				}
				return printJSON(c, e)
			})
		},
	}
}

func auditCommand() *cli.Command {
	return &cli.Command{
		Name:      "audit",
		Usage:     "replay every stored match of a team",
		ArgsUsage: "<team-id>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("usage: audit <team-id>")
			}
			teamID, err := uuid.Parse(c.Args().First())
			if err != nil {
				return fmt.Errorf("team id: %w", err)
			}
			return withService(c, func(ctx context.Context, svc *service.Service) error {
				report, err := svc.Audit(ctx, teamID)
				if err != nil {
					return err
				}
				if err := printJSON(c, report); err != nil {
					return err
				}
				if !report.OK() {
					return cli.Exit(fmt.Sprintf("%d of %d matches failed to replay", len(report.Failures), report.Matches), 2)
				}
				return nil
			})
		},
	}
}

// seedResult lists what seed stored.
type seedResult struct {
	TeamID  uuid.UUID `json:"team_id"`
	Matches []string  `json:"matches"`
}

func seedCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "store simulated matches for a new team",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "team", Usage: "team name", Value: "Courtside"},
			&cli.IntFlag{Name: "matches", Usage: "number of matches", Value: 5},
			&cli.Uint64Flag{Name: "seed", Usage: "generator seed", Value: 1},
			&cli.Float64Flag{Name: "sub-rate", Usage: "per-rally substitution probability", Value: 0.05},
		},
		Action: func(c *cli.Context) error {
			return withService(c, func(ctx context.Context, svc *service.Service) error {
				gen := simulate.New(
					simulate.WithSeed(c.Uint64("seed")),
					simulate.WithSubstitutionRate(c.Float64("sub-rate")),
					simulate.WithRules(svc.Rules()),
				)
				team := gen.Team(c.String("team"))
				if err := svc.SaveTeam(ctx, team); err != nil {
					return err
				}
				res := seedResult{TeamID: team.ID}
				for i := 0; i < c.Int("matches"); i++ {
					p, err := gen.Play(team)
					if err != nil {
						return err
					}
					if err := simulate.Record(ctx, svc, p); err != nil {
						return fmt.Errorf("record match %d: %w", i+1, err)
					}
					res.Matches = append(res.Matches, p.Match.ID)
				}
				return printJSON(c, res)
			})
		},
	}
}
