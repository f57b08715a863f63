// Command analyze prints quick, human-readable statistics about the game
// configurations: the built-in levels plus the files in the configs
// directory. Each configuration is generated several times with fixed
// seeds to summarise its mine counts, densities and empty cells, and the
// score a won game is worth.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/minesweeper/game/config"
	"github.com/wricardo/mcp-training/minesweeper/game/engine"
	"github.com/wricardo/mcp-training/minesweeper/game/score"
)

// Analysis summarises the grids generated from one configuration
type Analysis struct {
	ConfigID   string
	Name       string
	Level      int
	Size       int
	Samples    int
	MinMines   int
	MaxMines   int
	AvgMines   float64
	AvgDensity float64
	AvgEmpty   float64
}

// MineScore is the mine score of an average grid
func (a Analysis) MineScore() int {
	return int(a.AvgMines) * score.MinePoints
}

// BonusMinutes is how long a game can last before the time bonus of an
// average grid runs out
func (a Analysis) BonusMinutes() float64 {
	return float64(a.MineScore()) / float64(score.Rate(a.Level))
}

// analyzeConfig generates samples grids seeded from seed onwards
func analyzeConfig(id string, cfg *engine.GameConfig, samples int, seed uint64) (Analysis, error) {
	a := Analysis{ConfigID: id, Name: cfg.Name, Level: cfg.Level, Samples: samples}

	var mines, empty int
	var density float64
	for i := 0; i < samples; i++ {
		eng, err := engine.NewEngine(cfg, engine.WithSeed(seed+uint64(i)))
		if err != nil {
			return a, err
		}
		field := eng.Minefield()

		n := field.MineCount()
		if i == 0 || n < a.MinMines {
			a.MinMines = n
		}
		if n > a.MaxMines {
			a.MaxMines = n
		}
		mines += n
		density += field.Density()
		empty += countEmpty(field.Answer())
		a.Size = field.Size()
	}

	if samples > 0 {
		a.AvgMines = float64(mines) / float64(samples)
		a.AvgDensity = density / float64(samples)
		a.AvgEmpty = float64(empty) / float64(samples)
	}
	return a, nil
}

// countEmpty counts the safe cells with no neighbouring mine
func countEmpty(answer [][]engine.Ground) int {
	n := 0
	for _, row := range answer {
		for _, g := range row {
			if g.IsEmpty() {
				n++
			}
		}
	}
	return n
}

func printAnalysis(w io.Writer, a Analysis) {
	fmt.Fprintf(w, "\n=== Analyzing %s ===\n", a.ConfigID)
	fmt.Fprintf(w, "Name: %s\n", a.Name)
	fmt.Fprintf(w, "Level: %d\n", a.Level)
	fmt.Fprintf(w, "Grid Size: %d x %d\n", a.Size, a.Size)
	if a.MinMines == a.MaxMines {
		fmt.Fprintf(w, "Mines: %d (%.2f%%)\n", a.MinMines, a.AvgDensity*100)
	} else {
		fmt.Fprintf(w, "Mines: %d-%d, average %.1f (%.2f%%) over %d grids\n",
			a.MinMines, a.MaxMines, a.AvgMines, a.AvgDensity*100, a.Samples)
	}
	fmt.Fprintf(w, "Empty Cells: %.1f on average\n", a.AvgEmpty)
	fmt.Fprintf(w, "Mine Score: %d, time bonus lasts %.1f minutes at %d points per minute\n",
		a.MineScore(), a.BonusMinutes(), score.Rate(a.Level))

	if a.AvgEmpty == 0 {
		fmt.Fprintf(w, "⚠️  WARNING: no empty cells, every reveal shows a number\n")
	}
}

// analyze prints the statistics of every configuration the manager knows
func analyze(w io.Writer, manager *config.Manager, samples int, seed uint64) error {
	infos, err := manager.ListConfigs()
	if err != nil {
		return err
	}

	for _, info := range infos {
		cfg, err := manager.LoadConfig(info.ConfigID)
		if err != nil {
			fmt.Fprintf(w, "\n=== Analyzing %s ===\nError loading config: %v\n", info.ConfigID, err)
			continue
		}
		a, err := analyzeConfig(info.ConfigID, cfg, samples, seed)
		if err != nil {
			fmt.Fprintf(w, "\n=== Analyzing %s ===\nError generating grid: %v\n", info.ConfigID, err)
			continue
		}
		printAnalysis(w, a)
	}
	return nil
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "summarise the grids each configuration generates",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config-dir",
				Value:   "configs",
				Usage:   "directory containing game configurations, empty for built-in levels only",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
			&cli.IntFlag{
				Name:  "samples",
				Value: 20,
				Usage: "grids generated per configuration",
			},
			&cli.Uint64Flag{
				Name:  "seed",
				Value: 1,
				Usage: "seed of the first generated grid",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			samples := cmd.Int("samples")
			if samples <= 0 {
				return fmt.Errorf("samples must be positive, got %d", samples)
			}

			manager, err := config.NewManager(cmd.String("config-dir"))
			if err != nil {
				return err
			}
			return analyze(cmd.Root().Writer, manager, samples, cmd.Uint64("seed"))
		},
	}
}

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
