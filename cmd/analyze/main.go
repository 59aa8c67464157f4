// Command analyze plays batches of seeded random 2048 games for each preset
// and prints score and max-tile statistics. Games run concurrently; the same
// seed always produces the same report.
package main

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/wricardo/mcp-training/game2048/game/config"
	"github.com/wricardo/mcp-training/game2048/game/engine"
)

// GameResult is the outcome of one random game
type GameResult struct {
	Score   int
	Moves   int
	MaxTile int
	Won     bool
}

// Stats summarizes the games played with one preset
type Stats struct {
	Preset     string
	Games      int
	MeanScore  float64
	MinScore   int
	MaxScore   int
	MeanMoves  float64
	BestTile   int
	TileCounts map[int]int // max tile -> games
	Wins       int
}

func main() {
	if err := newCommand(os.Stdout).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newCommand(stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:   "analyze",
		Usage:  "Play random games per preset and report statistics",
		Writer: stdout,
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "games", Value: 200, Usage: "games per preset"},
			&cli.Int64Flag{Name: "seed", Value: 1, Usage: "base seed"},
			&cli.Int64Flag{Name: "workers", Value: 8, Usage: "games played at once"},
			&cli.StringFlag{Name: "config-dir", Usage: "directory of extra preset JSON files"},
			&cli.StringSliceFlag{Name: "preset", Usage: "preset to analyze (repeatable, default all)"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			games := int(cmd.Int64("games"))
			if games < 1 {
				return fmt.Errorf("games must be positive, got %d", games)
			}

			presets, err := selectPresets(cmd.String("config-dir"), cmd.StringSlice("preset"))
			if err != nil {
				return err
			}

			stats, err := analyze(ctx, presets, games, cmd.Int64("seed"), int(cmd.Int64("workers")))
			if err != nil {
				return err
			}
			return printStats(cmd.Root().Writer, stats)
		},
	}
}

func selectPresets(configDir string, names []string) ([]*engine.GameConfig, error) {
	manager, err := config.NewManager(configDir)
	if err != nil {
		return nil, err
	}

	if len(names) == 0 {
		infos, err := manager.ListConfigs()
		if err != nil {
			return nil, err
		}
		for _, info := range infos {
			names = append(names, info.ConfigID)
		}
	}

	presets := make([]*engine.GameConfig, 0, len(names))
	for _, name := range names {
		preset, err := manager.LoadConfig(name)
		if err != nil {
			return nil, fmt.Errorf("preset %q: %w", name, err)
		}
		presets = append(presets, preset)
	}
	return presets, nil
}

// analyze plays games random games per preset. Game i of every preset uses
// seed+i, so presets are compared on the same move choices.
func analyze(ctx context.Context, presets []*engine.GameConfig, games int, seed int64, workers int) ([]Stats, error) {
	results := make([][]GameResult, len(presets))
	for p := range results {
		results[p] = make([]GameResult, games)
	}

	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}

	for p, preset := range presets {
		for i := 0; i < games; i++ {
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				res, err := playRandom(preset, seed+int64(i))
				if err != nil {
					return fmt.Errorf("preset %s game %d: %w", preset.Name, i, err)
				}
				results[p][i] = res
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats := make([]Stats, len(presets))
	for p, preset := range presets {
		stats[p] = summarize(preset.Name, results[p])
	}
	return stats, nil
}

// playRandom plays one game to the end, choosing uniformly among the moves
// that change the board
func playRandom(preset *engine.GameConfig, seed int64) (GameResult, error) {
	eng, err := engine.NewEngine(preset, engine.WithSeed(seed), engine.WithIDs(engine.SequentialIDs("a")))
	if err != nil {
		return GameResult{}, err
	}

	rng := rand.New(rand.NewSource(^seed))
	for !eng.IsGameOver() {
		moves := eng.GetPossibleMoves()
		if len(moves) == 0 {
			break
		}
		eng.Move(moves[rng.Intn(len(moves))])
	}

	state := eng.GetState()
	return GameResult{
		Score:   state.Score,
		Moves:   state.Moves,
		MaxTile: state.Board.MaxTile(),
		Won:     state.Won,
	}, nil
}

func summarize(name string, results []GameResult) Stats {
	s := Stats{
		Preset:     name,
		Games:      len(results),
		TileCounts: make(map[int]int),
	}
	if len(results) == 0 {
		return s
	}

	s.MinScore = results[0].Score
	var totalScore, totalMoves int
	for _, r := range results {
		totalScore += r.Score
		totalMoves += r.Moves
		s.MinScore = min(s.MinScore, r.Score)
		s.MaxScore = max(s.MaxScore, r.Score)
		s.BestTile = max(s.BestTile, r.MaxTile)
		s.TileCounts[r.MaxTile]++
		if r.Won {
			s.Wins++
		}
	}
	s.MeanScore = float64(totalScore) / float64(len(results))
	s.MeanMoves = float64(totalMoves) / float64(len(results))
	return s
}

func printStats(w io.Writer, stats []Stats) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PRESET\tGAMES\tMEAN\tMIN\tMAX\tMOVES\tBEST\tWINS\tMAX TILE DISTRIBUTION")
	for _, s := range stats {
		fmt.Fprintf(tw, "%s\t%d\t%.1f\t%d\t%d\t%.1f\t%d\t%d\t%s\n",
			s.Preset, s.Games, s.MeanScore, s.MinScore, s.MaxScore, s.MeanMoves, s.BestTile, s.Wins, distribution(s))
	}
	return tw.Flush()
}

// distribution renders TileCounts as "512:3 256:40 ..." from the largest tile down
func distribution(s Stats) string {
	tiles := make([]int, 0, len(s.TileCounts))
	for tile := range s.TileCounts {
		tiles = append(tiles, tile)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(tiles)))

	out := ""
	for i, tile := range tiles {
		if i > 0 {
			out += " "
		}
		out += fmt.Sprintf("%d:%d", tile, s.TileCounts[tile])
	}
	return out
}
