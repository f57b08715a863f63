// Command bruteforcer plays minefield games through the REST API until it
// wins or runs out of attempts. Each attempt resets the session's grid and
// plays it with Strategy: deductions from the revealed numbers first, a
// seeded guess when none applies. A won game can be recorded on the
// leaderboard.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/minesweeper/game/engine"
	"github.com/wricardo/mcp-training/minesweeper/game/service"
)

// ErrNoVictory is returned when every attempt was lost
var ErrNoVictory = errors.New("failed to win")

// Options control a run
type Options struct {
	Config      string
	Level       *int
	Size        int
	Player      string
	MaxAttempts int
	MaxMoves    int
	Seed        uint64
	Submit      bool
	Delay       time.Duration
}

// Report is the outcome of a run
type Report struct {
	SessionID string
	Attempts  int
	Moves     int
	Guesses   int
	Victory   bool
	Score     int
}

// Run plays attempts until one is won
func Run(ctx context.Context, client *Client, opts Options) (*Report, error) {
	state, err := client.CreateSession(ctx, service.CreateSessionRequest{
		ConfigName: opts.Config,
		Level:      opts.Level,
		Size:       opts.Size,
		PlayerName: opts.Player,
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("session", client.SessionID()).Int("size", state.Size).Int("mines", state.Mines).Msg("session created")

	strategy := NewStrategy(opts.Seed)
	report := &Report{SessionID: client.SessionID()}

	for report.Attempts < opts.MaxAttempts {
		report.Attempts++

		if report.Attempts > 1 {
			if state, err = client.Reset(ctx); err != nil {
				return report, err
			}
		}
		strategy.Reset()

		moves, result, err := playAttempt(ctx, client, strategy, state, opts)
		report.Moves += moves
		report.Guesses += strategy.Guesses()
		if err != nil {
			return report, err
		}

		log.Info().
			Int("attempt", report.Attempts).
			Int("moves", moves).
			Int("guesses", strategy.Guesses()).
			Bool("victory", result != nil && result.Victory).
			Msg("attempt finished")

		if result != nil && result.Victory {
			report.Victory = true
			report.Score = result.Total
			break
		}
	}

	if !report.Victory {
		return report, fmt.Errorf("%w after %d attempts", ErrNoVictory, report.Attempts)
	}

	if opts.Submit {
		entry, err := client.SubmitScore(ctx, opts.Player)
		if err != nil {
			return report, err
		}
		log.Info().Str("player", entry.Name).Int("score", entry.Score).Msg("score recorded")
	}
	return report, nil
}

// playAttempt plays one grid to the end. result is nil when the move
// budget runs out first.
func playAttempt(ctx context.Context, client *Client, strategy *Strategy, state *engine.GameState, opts Options) (int, *scoreResult, error) {
	moves := 0
	for !state.GameOver && moves < opts.MaxMoves {
		move, ok := strategy.NextMove(state)
		if !ok {
			break
		}

		result, err := client.Act(ctx, move.Action, move.Pos)
		if err != nil {
			var apiErr *APIError
			if errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict {
				// refused moves count against the budget
				moves++
				log.Warn().Err(err).Msg("move refused, refreshing state")
				if state, err = client.GetState(ctx); err != nil {
					return moves, nil, err
				}
				continue
			}
			return moves, nil, err
		}
		moves++
		state = result.GameState

		if result.Result != nil {
			return moves, &scoreResult{Victory: result.Result.Victory, Total: result.Result.Total}, nil
		}

		if opts.Delay > 0 {
			select {
			case <-ctx.Done():
				return moves, nil, ctx.Err()
			case <-time.After(opts.Delay):
			}
		}
	}
	return moves, nil, nil
}

type scoreResult struct {
	Victory bool
	Total   int
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "bruteforcer",
		Usage: "play minefield games through the REST API until one is won",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8080", Usage: "game server URL"},
			&cli.StringFlag{Name: "config", Usage: "configuration name, empty for the server default"},
			&cli.IntFlag{Name: "level", Value: -1, Usage: "difficulty level 0-5 instead of a configuration"},
			&cli.IntFlag{Name: "size", Usage: "grid size for level 0"},
			&cli.StringFlag{Name: "player", Value: "bruteforcer", Usage: "player name"},
			&cli.IntFlag{Name: "max-attempts", Value: 100, Usage: "maximum attempts before giving up"},
			&cli.IntFlag{Name: "max-moves", Value: 20000, Usage: "maximum moves per attempt"},
			&cli.Uint64Flag{Name: "seed", Value: 1, Usage: "seed for guesses"},
			&cli.BoolFlag{Name: "submit", Usage: "record the won game on the leaderboard"},
			&cli.DurationFlag{Name: "delay", Usage: "delay between moves"},
			&cli.BoolFlag{Name: "verbose", Usage: "log every deduction"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			level := zerolog.InfoLevel
			if cmd.Bool("verbose") {
				level = zerolog.DebugLevel
			}
			zerolog.SetGlobalLevel(level)
			logOut := cmd.Root().ErrWriter
			if logOut == nil {
				logOut = os.Stderr
			}
			log.Logger = log.Output(zerolog.ConsoleWriter{Out: logOut})

			opts := Options{
				Config:      cmd.String("config"),
				Size:        cmd.Int("size"),
				Player:      cmd.String("player"),
				MaxAttempts: cmd.Int("max-attempts"),
				MaxMoves:    cmd.Int("max-moves"),
				Seed:        cmd.Uint64("seed"),
				Submit:      cmd.Bool("submit"),
				Delay:       cmd.Duration("delay"),
			}
			if l := cmd.Int("level"); l >= 0 {
				opts.Level = &l
			}

			url := cmd.String("url")
			log.Info().Str("url", url).Msg("connecting to game server")
			report, err := Run(ctx, NewClient(url), opts)
			out := cmd.Root().Writer
			if out == nil {
				out = os.Stdout
			}
			if report != nil {
				fmt.Fprintf(out, "Session: %s\nAttempts: %d\nMoves: %d\nGuesses: %d\n",
					report.SessionID, report.Attempts, report.Moves, report.Guesses)
				if report.Victory {
					fmt.Fprintf(out, "🎉 VICTORY! Score: %d\n", report.Score)
				}
			}
			return err
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
