package main

import (
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"

	"github.com/wricardo/mcp-training/minesweeper/game/engine"
)

// Move is one action the strategy wants to play
type Move struct {
	Action engine.Action
	Pos    engine.Position
	Guess  bool
}

// Strategy plays from what the board shows. It applies the two local
// rules of a revealed number, and guesses when neither applies:
//   - as many flags around it as its count: the other hidden neighbours are safe
//   - as many hidden or flagged neighbours as its count: they are all mines
type Strategy struct {
	rng     *rand.Rand
	guesses int
}

// NewStrategy creates a strategy whose guesses are drawn from seed
func NewStrategy(seed uint64) *Strategy {
	return &Strategy{rng: rand.New(rand.NewSource(seed))}
}

// Guesses returns how many moves were not backed by a deduction
func (s *Strategy) Guesses() int {
	return s.guesses
}

// Reset forgets the guess count of the previous game
func (s *Strategy) Reset() {
	s.guesses = 0
}

// NextMove returns the next move for state, or false when no hidden cell
// is left to play
func (s *Strategy) NextMove(state *engine.GameState) (Move, bool) {
	board := state.Board
	var frontier, unconstrained []engine.Position

	for r, row := range board {
		for c, tile := range row {
			if tile.State != engine.Revealed || tile.Value.Mine || tile.Value.Count == 0 {
				continue
			}

			var hidden []engine.Position
			flags := 0
			for _, n := range neighbours(len(board), r, c) {
				switch board[n.Row][n.Col].State {
				case engine.Hidden:
					hidden = append(hidden, n)
				case engine.Flagged:
					flags++
				}
			}
			if len(hidden) == 0 {
				continue
			}

			pos := engine.Position{Row: r, Col: c}
			switch {
			case flags == tile.Value.Count:
				log.Debug().Stringer("from", pos).Stringer("cell", hidden[0]).Msg("deduced safe cell")
				return Move{Action: engine.ActionReveal, Pos: hidden[0]}, true
			case flags+len(hidden) == tile.Value.Count:
				log.Debug().Stringer("from", pos).Stringer("cell", hidden[0]).Msg("deduced mine")
				return Move{Action: engine.ActionFlag, Pos: hidden[0]}, true
			}
			frontier = append(frontier, hidden...)
		}
	}

	onFrontier := make(map[engine.Position]bool, len(frontier))
	for _, p := range frontier {
		onFrontier[p] = true
	}
	for r, row := range board {
		for c, tile := range row {
			pos := engine.Position{Row: r, Col: c}
			if tile.State == engine.Hidden && !onFrontier[pos] {
				unconstrained = append(unconstrained, pos)
			}
		}
	}

	// prefer cells no number constrains
	candidates := unconstrained
	if len(candidates) == 0 {
		candidates = frontier
	}
	if len(candidates) == 0 {
		return Move{}, false
	}

	s.guesses++
	pick := candidates[s.rng.Intn(len(candidates))]
	return Move{Action: engine.ActionReveal, Pos: pick, Guess: true}, true
}

func neighbours(size, row, col int) []engine.Position {
	var out []engine.Position
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			r, c := row+dr, col+dc
			if (dr == 0 && dc == 0) || r < 0 || c < 0 || r >= size || c >= size {
				continue
			}
			out = append(out, engine.Position{Row: r, Col: c})
		}
	}
	return out
}
