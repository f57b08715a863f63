package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wricardo/mcp-training/minesweeper/game/engine"
	"github.com/wricardo/mcp-training/minesweeper/game/leaderboard"
	"github.com/wricardo/mcp-training/minesweeper/game/score"
)

// ErrInputClosed is returned when the input ends before the game does
var ErrInputClosed = errors.New("input closed")

// EngineFactory builds the engine for a round
type EngineFactory func(config *engine.GameConfig) (*engine.GameEngine, error)

// Game drives rounds of minefield over a text stream
type Game struct {
	in        *prompter
	out       io.Writer
	scores    leaderboard.Store
	newEngine EngineFactory
	now       func() time.Time
}

// Option configures a Game
type Option func(*Game)

// WithLeaderboard records won games in store. Without it the record offer
// is skipped.
func WithLeaderboard(store leaderboard.Store) Option {
	return func(g *Game) { g.scores = store }
}

// WithEngineFactory replaces how grids are generated
func WithEngineFactory(f EngineFactory) Option {
	return func(g *Game) { g.newEngine = f }
}

// WithEngineOptions passes options such as a seed to every new engine
func WithEngineOptions(opts ...engine.Option) Option {
	return func(g *Game) {
		g.newEngine = func(config *engine.GameConfig) (*engine.GameEngine, error) {
			return engine.NewEngine(config, opts...)
		}
	}
}

// WithClock sets the time source of the game timer
func WithClock(now func() time.Time) Option {
	return func(g *Game) { g.now = now }
}

// New creates a game reading answers from in and writing to out
func New(in io.Reader, out io.Writer, opts ...Option) *Game {
	g := &Game{
		in:  newPrompter(in),
		out: out,
		newEngine: func(config *engine.GameConfig) (*engine.GameEngine, error) {
			return engine.NewEngine(config)
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Game) printf(format string, args ...interface{}) {
	fmt.Fprintf(g.out, format, args...)
}

// Run plays rounds until the player stops or ctx is cancelled
func (g *Game) Run(ctx context.Context) error {
	for {
		again, err := g.PlayRound(ctx)
		if err != nil {
			return err
		}
		if !again {
			break
		}
	}
	g.printf("Closing the game... Thank you for playing!\n")
	return nil
}

// PlayRound plays one full game and reports whether the player wants
// another one
func (g *Game) PlayRound(ctx context.Context) (bool, error) {
	name, err := g.askName()
	if err != nil {
		return false, err
	}
	g.printf("\nStarting the game, %s...\n\nGood luck!\n", name)

	watch := score.NewStopwatch(g.now)
	watch.Start()

	config, err := g.askDifficulty()
	if err != nil {
		return false, err
	}
	eng, err := g.newEngine(config)
	if err != nil {
		return false, fmt.Errorf("failed to create grid: %w", err)
	}
	log.Debug().Str("player", name).Int("level", config.Level).Int("size", eng.GetState().Size).Msg("round started")

	if err := g.sweep(ctx, eng); err != nil {
		return false, err
	}

	state := eng.GetState()
	elapsed := watch.Stop()
	if state.Victory {
		g.printf("Congratulations! You cleared the whole field!\n")
	} else {
		g.printf("BOOM!! Er... You lost.\nRevealing the whole minefield:\n\n")
		g.printf("%s", engine.FormatGrid(state.Answer))
	}

	result := score.Compute(state.Mines, state.Difficulty, elapsed, state.Victory)
	g.printf("\nTotal game time: %s.\n", score.FormatDuration(result.Elapsed))
	if result.Victory {
		g.printf("Mine Score: %d\nTime Score: %d\n", result.MineScore, result.TimeScore)
	}
	g.printf("Your Score: %d\n\n", result.Total)

	if result.Victory && g.scores != nil {
		if err := g.offerRecord(ctx, name, result.Total, state.Difficulty); err != nil {
			return false, err
		}
	}

	return g.askYesNo(fmt.Sprintf("%s, do you wish to play another round?", name))
}

func (g *Game) askName() (string, error) {
	g.printf("Welcome to Minefield!\nPlease insert your name: ")
	for {
		name, err := g.in.line()
		if err != nil {
			return "", err
		}
		err = leaderboard.ValidateName(name)
		if err == nil {
			return strings.TrimSpace(name), nil
		}
		g.printf("\nSorry! Your name is not valid: %s\nPlease insert a new name: ", nameProblem(err))
	}
}

// nameProblem strips the sentinel prefix from a ValidateName error
func nameProblem(err error) string {
	return strings.TrimPrefix(err.Error(), leaderboard.ErrInvalidName.Error()+": ")
}

func (g *Game) askDifficulty() (*engine.GameConfig, error) {
	for {
		g.printf("Select your difficulty...\n0: Custom.\n")
		for _, p := range engine.Presets() {
			g.printf("%d: %s.\n", p.Level, presetTitle(p.Name))
		}

		tok, err := g.in.token()
		if err != nil {
			return nil, err
		}
		level, err := strconv.Atoi(tok)
		if err == nil && len(tok) == 1 {
			if level == engine.CustomLevel {
				return g.askCustomSize()
			}
			if p, ok := engine.LookupPreset(level); ok {
				g.printf("\n")
				return engine.PresetConfig(p), nil
			}
		}
		g.printf("\nInvalid difficulty! Please insert a new value.\n\n")
	}
}

// presetTitle turns "very_easy" into "Very Easy"
func presetTitle(name string) string {
	words := strings.Split(name, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func (g *Game) askCustomSize() (*engine.GameConfig, error) {
	g.printf("\nCustom Difficulty selected...\n\n")
	for {
		g.printf("What's the desired board size?\nThe board will be a square with the inputed size.\nThe size must be between %d and %d.\n",
			engine.MinGridSize, engine.MaxGridSize)

		tok, err := g.in.token()
		if err != nil {
			return nil, err
		}
		size, err := strconv.Atoi(tok)
		switch {
		case err != nil || size < 0:
			g.printf("Invalid size. Please insert a new value.\n")
		case size < engine.MinGridSize || size > engine.MaxGridSize:
			g.printf("\nThe board can't be of size %d. Please insert a new value.\n\n", size)
		default:
			g.printf("\n")
			return &engine.GameConfig{
				Name:        "custom",
				Description: fmt.Sprintf("Custom %dx%d grid", size, size),
				Level:       engine.CustomLevel,
				Size:        size,
			}, nil
		}
	}
}

// sweep runs the action loop until the game is over
func (g *Game) sweep(ctx context.Context, eng *engine.GameEngine) error {
	g.printf("%s", engine.FormatGrid(eng.GetState().Board))

	for !eng.IsGameOver() {
		if err := ctx.Err(); err != nil {
			return err
		}

		action, err := g.askAction()
		if err != nil {
			return err
		}
		row, col, err := g.askCell(eng.GetState().Size)
		if err != nil {
			return err
		}

		if _, err := eng.Apply(action, row, col); err != nil {
			g.printf("Row [%d], Column [%d]: %s\n", row, col, eng.GetState().Message)
		}

		g.printf("\n%s\n", engine.FormatGrid(eng.GetState().Board))
	}
	return nil
}

var actionMenu = []engine.Action{engine.ActionReveal, engine.ActionFlag, engine.ActionUnflag}

func (g *Game) askAction() (engine.Action, error) {
	for {
		g.printf("\nList of actions:\n0: Clear a space.\n1: Insert flag.\n2: Remove flag.\n")

		tok, err := g.in.token()
		if err != nil {
			return "", err
		}
		if option, err := strconv.Atoi(tok); err == nil && option >= 0 && option < len(actionMenu) {
			return actionMenu[option], nil
		}
		g.printf("\nInvalid option! Please select a new option.\n\n")
	}
}

func (g *Game) askCell(size int) (int, int, error) {
	for {
		g.printf("Insert a Row. Row must be between 0 and %d: ", size-1)
		rowTok, err := g.in.token()
		if err != nil {
			return 0, 0, err
		}
		g.printf("Insert a Column. Column must be between 0 and %d: ", size-1)
		colTok, err := g.in.token()
		if err != nil {
			return 0, 0, err
		}

		row, rowErr := strconv.Atoi(rowTok)
		col, colErr := strconv.Atoi(colTok)
		if rowErr == nil && colErr == nil && row >= 0 && row < size && col >= 0 && col < size {
			return row, col, nil
		}
		g.printf("Invalid value(s). Please insert new coordinates.\n")
	}
}

func (g *Game) offerRecord(ctx context.Context, name string, total, difficulty int) error {
	record, err := g.askYesNo("Do you wish to add your name and score on the Scoreboard?")
	if err != nil {
		return err
	}

	if record {
		entry := leaderboard.NewEntry(name, total, difficulty)
		if err := g.scores.Append(ctx, entry); err != nil {
			// the round still counts, only the record is lost
			log.Error().Err(err).Str("player", name).Msg("failed to record score")
			g.printf("Sorry! The scoreboard can't be written.\n")
		}
	}

	top, err := g.scores.Top(ctx, leaderboard.TopN)
	if err != nil {
		log.Error().Err(err).Msg("failed to read scoreboard")
		g.printf("Cannot show the scoreboard!\n")
		return nil
	}

	g.printf("\nTop %d scores!\n\n", leaderboard.TopN)
	for _, e := range top {
		g.printf("Player: %s; Score: %d\n", e.Name, e.Score)
	}
	g.printf("\n")
	return nil
}

func (g *Game) askYesNo(question string) (bool, error) {
	for {
		g.printf("%s\nYes: 1\nNo: 2\n", question)
		tok, err := g.in.token()
		if err != nil {
			return false, err
		}
		switch tok {
		case "1":
			g.printf("\n")
			return true, nil
		case "2":
			g.printf("\n")
			return false, nil
		}
		g.printf("Invalid option! Please select a new option.\n\n")
	}
}
