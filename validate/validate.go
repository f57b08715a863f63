// Command validate checks the game configuration files in a directory
// (JSON or YAML). It checks:
//   - the file parses and names a level between 0 and 5
//   - custom grids have a size between 5 and 99
//   - fixed mine layouts stay inside the grid, have no duplicates and leave a safe cell
//   - no file is shadowed by a built-in level of the same name
//
// It also reports which messages fall back to the defaults and, for fixed
// layouts, the empty regions a player can open.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/minesweeper/game/engine"
)

// ValidationResult captures the outcome of validating a single file.
// Errors holds the problems found; Info holds notes about a file that
// loads, prefixed with ✓ or ⚠.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
	Info   []string
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) note(format string, args ...interface{}) {
	r.Info = append(r.Info, fmt.Sprintf(format, args...))
}

// validateConfig loads and validates a single configuration file
func validateConfig(filePath string) ValidationResult {
	result := ValidationResult{
		File:  filepath.Base(filePath),
		Valid: true,
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	config, err := engine.ParseGameConfig(filePath, data)
	if err != nil {
		result.fail("Invalid file: %v", err)
		return result
	}

	id := strings.TrimSuffix(result.File, filepath.Ext(result.File))
	if _, builtIn := presetNames()[id]; builtIn {
		result.fail("%q is the name of a built-in level, the file would never be loaded", id)
	}

	if config.Name != id {
		result.note("⚠ Name %q differs from the file name, sessions refer to it as %q", config.Name, id)
	}
	if config.Level != engine.CustomLevel && config.Size != 0 {
		result.note("⚠ Size %d is ignored by level %d", config.Size, config.Level)
	}
	if missing := defaultedMessages(config.Messages); len(missing) > 0 {
		result.note("⚠ Default messages used for: %s", strings.Join(missing, ", "))
	}

	if !result.Valid {
		return result
	}

	result.note("✓ Name: %s", config.Name)
	switch {
	case config.Level != engine.CustomLevel:
		p, _ := engine.LookupPreset(config.Level)
		result.note("✓ Level %d (%s): %dx%d grid", p.Level, p.Name, p.Size, p.Size)
	case len(config.Mines) > 0:
		result.note("✓ Custom %dx%d grid with %d fixed mines", config.Size, config.Size, len(config.Mines))
		result.Info = append(result.Info, describeLayout(config.Size, config.Mines)...)
	default:
		result.note("✓ Custom %dx%d grid with random mines", config.Size, config.Size)
	}

	return result
}

func presetNames() map[string]struct{} {
	names := make(map[string]struct{})
	for _, p := range engine.Presets() {
		names[p.Name] = struct{}{}
	}
	return names
}

// defaultedMessages lists the message keys a config leaves empty
func defaultedMessages(m engine.Messages) []string {
	fields := map[string]string{
		"welcome":          m.Welcome,
		"revealed":         m.Revealed,
		"flagged":          m.Flagged,
		"unflagged":        m.Unflagged,
		"already_revealed": m.AlreadyRevealed,
		"blocked_by_flag":  m.BlockedByFlag,
		"already_flagged":  m.AlreadyFlagged,
		"not_flagged":      m.NotFlagged,
		"victory":          m.Victory,
		"defeat":           m.Defeat,
	}

	var missing []string
	for key, value := range fields {
		if value == "" {
			missing = append(missing, key)
		}
	}
	sort.Strings(missing)
	return missing
}

// describeLayout summarises the empty regions of a fixed layout. An empty
// cell shows its whole neighbourhood when revealed, so regions are where a
// player can make progress without guessing.
func describeLayout(size int, mines []engine.Position) []string {
	field := engine.NewMinefield()
	if err := field.ConfigureMines(size, mines); err != nil {
		return []string{fmt.Sprintf("⚠ Cannot build grid: %v", err)}
	}
	answer := field.Answer()

	empty := 0
	for _, row := range answer {
		for _, g := range row {
			if g.IsEmpty() {
				empty++
			}
		}
	}
	if empty == 0 {
		return []string{"⚠ No empty cells: every reveal shows a number"}
	}

	regions := emptyRegions(answer)
	largest := 0
	for _, r := range regions {
		if r > largest {
			largest = r
		}
	}
	return []string{
		fmt.Sprintf("✓ Safe cells: %d, empty cells: %d", size*size-len(mines), empty),
		fmt.Sprintf("✓ Empty regions: %d (largest %d cells)", len(regions), largest),
	}
}

// emptyRegions flood fills the empty cells of a grid with 4-directional
// movement and returns the size of each region
func emptyRegions(answer [][]engine.Ground) []int {
	size := len(answer)
	isEmpty := func(row, col int) bool {
		if row < 0 || col < 0 || row >= size || col >= size {
			return false
		}
		return answer[row][col].IsEmpty()
	}

	visited := make(map[engine.Position]bool)
	directions := []engine.Position{{Row: -1, Col: 0}, {Row: 1, Col: 0}, {Row: 0, Col: -1}, {Row: 0, Col: 1}}

	var regions []int
	for r := 0; r < size; r++ {
		for c := 0; c < size; c++ {
			start := engine.Position{Row: r, Col: c}
			if visited[start] || !isEmpty(r, c) {
				continue
			}

			cells := 0
			queue := []engine.Position{start}
			visited[start] = true
			for len(queue) > 0 {
				current := queue[0]
				queue = queue[1:]
				cells++

				for _, d := range directions {
					next := engine.Position{Row: current.Row + d.Row, Col: current.Col + d.Col}
					if !visited[next] && isEmpty(next.Row, next.Col) {
						visited[next] = true
						queue = append(queue, next)
					}
				}
			}
			regions = append(regions, cells)
		}
	}
	return regions
}

// configFiles lists the JSON and YAML files of dir in name order
func configFiles(dir string) ([]string, error) {
	var files []string
	for _, pattern := range []string{"*.json", "*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}

// report validates every file and prints the results. It returns whether
// all of them are valid.
func report(w io.Writer, files []string) bool {
	allValid := true
	for _, file := range files {
		result := validateConfig(file)

		fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Fprintln(w, "✅ VALID")
		} else {
			fmt.Fprintln(w, "❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				fmt.Fprintln(w, "  ❌ "+err)
			}
		}
		for _, info := range result.Info {
			fmt.Fprintln(w, "  "+info)
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Fprintln(w, "✅ All configurations are valid!")
	} else {
		fmt.Fprintln(w, "❌ Some configurations have errors")
	}
	return allValid
}

var errInvalid = errors.New("some configurations have errors")

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "check the game configuration files of a directory",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config-dir",
				Value:   "configs",
				Usage:   "directory containing game configurations",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			dir := cmd.String("config-dir")
			files, err := configFiles(dir)
			if err != nil {
				return fmt.Errorf("error finding config files: %w", err)
			}
			if len(files) == 0 {
				return fmt.Errorf("no configuration files in %s", dir)
			}

			if !report(cmd.Root().Writer, files) {
				return errInvalid
			}
			return nil
		},
	}
}

// main validates every configuration in --config-dir and exits with a
// non-zero status if any are invalid.
func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
