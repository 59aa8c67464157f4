// Command game2048 runs 2048 games for AI agents and scripts.
//
// It provides four commands:
//  1. "mcp" – serves the game as MCP tools over stdio
//  2. "simulate" – plays a scripted move string on a seeded game and prints the final state as JSON
//  3. "presets" – lists the available game presets
//  4. "validate" – checks preset JSON files in a directory
//
// Settings come from GAME2048_* environment variables and an optional .env
// file; flags override both.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/game2048/game/config"
	"github.com/wricardo/mcp-training/game2048/game/engine"
	"github.com/wricardo/mcp-training/game2048/game/scheduler"
	"github.com/wricardo/mcp-training/game2048/game/service"
	"github.com/wricardo/mcp-training/game2048/game/session"
	"github.com/wricardo/mcp-training/game2048/transport/mcp"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "2048"
)

// app carries what the root command prepares for its subcommands
type app struct {
	cfg    config.AppConfig
	logger *zap.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newCommand(os.Stdout).Run(ctx, os.Args)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// newCommand builds the CLI. Command output goes to stdout; logs go to stderr.
func newCommand(stdout io.Writer) *cli.Command {
	a := &app{logger: zap.NewNop()}

	return &cli.Command{
		Name:    "game2048",
		Usage:   "Play 2048 over MCP or from scripts",
		Version: Version,
		Writer:  stdout,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "env-file", Value: ".env", Usage: "dotenv file to load if present"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error (GAME2048_LOG_LEVEL)"},
			&cli.BoolFlag{Name: "log-dev", Usage: "human-readable logs (GAME2048_LOG_DEVELOPMENT)"},
			&cli.StringFlag{Name: "config-dir", Usage: "directory of preset JSON files (GAME2048_CONFIG_DIR)"},
			&cli.StringFlag{Name: "preset", Usage: "default preset (GAME2048_PRESET)"},
			&cli.DurationFlag{Name: "settle", Usage: "animation window after each move (GAME2048_SETTLE)"},
			&cli.Int64Flag{Name: "seed", Usage: "spawn seed, 0 for random (GAME2048_SEED)"},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return ctx, err
			}
			logger, err := cfg.NewLogger()
			if err != nil {
				return ctx, fmt.Errorf("init logger: %w", err)
			}
			a.cfg = cfg
			a.logger = logger
			return ctx, nil
		},
		After: func(ctx context.Context, cmd *cli.Command) error {
			_ = a.logger.Sync()
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "mcp",
				Usage: "Serve the game as MCP tools over stdio",
				Flags: []cli.Flag{
					&cli.DurationFlag{Name: "session-ttl", Usage: "remove sessions idle this long (GAME2048_SESSION_TTL)"},
					&cli.DurationFlag{Name: "cleanup-interval", Usage: "how often to look for idle sessions (GAME2048_CLEANUP_INTERVAL)"},
				},
				Action: a.runMCP,
			},
			{
				Name:      "simulate",
				Usage:     "Play a move string such as LLUR and print the final state as JSON",
				ArgsUsage: "<moves>",
				Action:    a.runSimulate,
			},
			{
				Name:  "presets",
				Usage: "List available game presets",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "print JSON instead of a table"},
				},
				Action: a.runPresets,
			},
			{
				Name:      "validate",
				Usage:     "Validate preset JSON files",
				ArgsUsage: "[dir]",
				Action:    a.runValidate,
			},
		},
	}
}

// loadConfig reads the environment and applies flags set on the command line
func loadConfig(cmd *cli.Command) (config.AppConfig, error) {
	cfg, err := config.LoadAppConfig(cmd.String("env-file"))
	if err != nil {
		return cfg, err
	}

	if cmd.IsSet("log-level") {
		cfg.LogLevel = cmd.String("log-level")
	}
	if cmd.IsSet("log-dev") {
		cfg.LogDevelopment = cmd.Bool("log-dev")
	}
	if cmd.IsSet("config-dir") {
		cfg.ConfigDir = cmd.String("config-dir")
	}
	if cmd.IsSet("preset") {
		cfg.Preset = cmd.String("preset")
	}
	if cmd.IsSet("settle") {
		cfg.Settle = cmd.Duration("settle")
	}
	if cmd.IsSet("seed") {
		cfg.Seed = cmd.Int64("seed")
	}

	return cfg, cfg.Validate()
}

func (a *app) runMCP(ctx context.Context, cmd *cli.Command) error {
	if cmd.IsSet("session-ttl") {
		a.cfg.SessionTTL = cmd.Duration("session-ttl")
	}
	if cmd.IsSet("cleanup-interval") {
		a.cfg.CleanupInterval = cmd.Duration("cleanup-interval")
	}
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	gameService, sessions, err := initializeServices(a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("initialize services: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go sessionCleanupRoutine(ctx, sessions, a.cfg.SessionTTL, a.cfg.CleanupInterval, a.logger)

	a.logger.Info("starting",
		zap.String("app", AppName),
		zap.String("version", Version),
		zap.String("preset", a.cfg.Preset),
		zap.Duration("settle", a.cfg.Settle))

	serveErr := mcp.NewServer(gameService, a.logger).Serve()
	return multierr.Append(serveErr, sessions.CloseAll())
}

// initializeServices wires presets, sessions and the game service
func initializeServices(cfg config.AppConfig, logger *zap.Logger) (service.GameService, *session.Manager, error) {
	configs, err := config.NewManager(cfg.ConfigDir)
	if err != nil {
		return nil, nil, err
	}
	if err := configs.SetDefault(cfg.Preset); err != nil {
		return nil, nil, err
	}

	sessionOpts := []session.Option{session.WithSettle(cfg.Settle)}
	if cfg.Seed != 0 {
		sessionOpts = append(sessionOpts, session.WithEngineOptions(engine.WithSeed(cfg.Seed)))
	}
	sessions := session.NewManager(logger, session.WithSessionOptions(sessionOpts...))

	return service.NewGameService(sessions, configs, logger), sessions, nil
}

// sessionCleanupRoutine periodically removes sessions that have not been accessed
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, ttl, interval time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(ttl); removed > 0 {
				logger.Info("cleaned up expired sessions", zap.Int("removed", removed))
			}
		}
	}
}

// simulation is the JSON printed by the simulate command
type simulation struct {
	Preset    string               `json:"preset"`
	Seed      int64                `json:"seed"`
	Requested int                  `json:"requested"`
	Committed int                  `json:"committed"`
	Decisions []scheduler.Decision `json:"decisions"`
	Final     session.Snapshot     `json:"final"`
}

func (a *app) runSimulate(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() == 0 {
		return errors.New("simulate: missing moves, e.g. LLUR or left,up")
	}

	seed := a.cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	configs, err := config.NewManager(a.cfg.ConfigDir)
	if err != nil {
		return err
	}
	preset, err := configs.LoadConfig(a.cfg.Preset)
	if err != nil {
		return fmt.Errorf("simulate: preset %q: %w", a.cfg.Preset, err)
	}

	moves := splitMoves(strings.Join(cmd.Args().Slice(), ","))
	result, err := simulate(ctx, preset, seed, a.cfg.Settle, moves, a.logger)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.Root().Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// simulate plays moves one at a time on a manual clock, letting every settle
// window elapse so no move is coalesced
func simulate(ctx context.Context, preset *engine.GameConfig, seed int64, settle time.Duration, moves []string, logger *zap.Logger) (*simulation, error) {
	clock := scheduler.NewManualClock(time.Unix(0, 0).UTC())
	sess, err := session.New("sim", preset,
		session.WithClock(clock),
		session.WithSettle(settle),
		session.WithLogger(logger),
		session.WithEngineOptions(engine.WithSeed(seed), engine.WithIDs(engine.SequentialIDs("t"))),
	)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	result := &simulation{
		Preset:    preset.Name,
		Seed:      seed,
		Requested: len(moves),
		Decisions: make([]scheduler.Decision, 0, len(moves)),
	}

	for _, move := range moves {
		dir, _ := engine.ParseDirection(move)
		decision, err := sess.RequestMove(ctx, dir)
		if err != nil {
			return nil, err
		}
		result.Decisions = append(result.Decisions, decision)

		if decision == scheduler.Admitted {
			result.Committed++
			clock.Advance(settle)
			if err := sess.WaitIdle(ctx); err != nil {
				return nil, err
			}
		}
	}

	result.Final = sess.Snapshot()
	return result, nil
}

// splitMoves accepts "LLUR", "left,up" or a mix of both
func splitMoves(s string) []string {
	var moves []string
	for _, field := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' }) {
		if _, ok := engine.ParseDirection(field); ok {
			moves = append(moves, field)
			continue
		}
		for _, r := range field {
			moves = append(moves, string(r))
		}
	}
	return moves
}

func (a *app) runPresets(ctx context.Context, cmd *cli.Command) error {
	configs, err := config.NewManager(a.cfg.ConfigDir)
	if err != nil {
		return err
	}
	presets, err := configs.ListConfigs()
	if err != nil {
		return err
	}

	out := cmd.Root().Writer
	if cmd.Bool("json") {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(presets)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFOURS\tSTART\tWIN\tSOURCE\tDESCRIPTION")
	for _, p := range presets {
		win := "-"
		if p.WinDetection {
			win = fmt.Sprint(p.WinTile)
		}
		fmt.Fprintf(tw, "%s\t%.0f%%\t%d\t%s\t%s\t%s\n",
			p.ConfigID, p.FourProbability*100, p.InitialTiles, win, p.Source, p.Description)
	}
	return tw.Flush()
}

func (a *app) runValidate(ctx context.Context, cmd *cli.Command) error {
	dir := a.cfg.ConfigDir
	if cmd.Args().Len() > 0 {
		dir = cmd.Args().First()
	}
	if dir == "" {
		return errors.New("validate: no directory given and GAME2048_CONFIG_DIR is not set")
	}

	valid, err := config.Validate(dir)
	out := cmd.Root().Writer
	for _, e := range multierr.Errors(err) {
		fmt.Fprintf(out, "INVALID %v\n", e)
	}
	fmt.Fprintf(out, "%d valid preset(s) in %s\n", valid, dir)

	if err != nil {
		return fmt.Errorf("validate: %d invalid preset(s)", len(multierr.Errors(err)))
	}
	return nil
}
