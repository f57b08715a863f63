package engine

import (
	"errors"
	"time"
)

// Engine provides the main interface for game operations
type Engine interface {
	// Game state management
	GetState() *GameState
	Reset() (*GameState, error)
	IsGameOver() bool
	IsVictory() bool

	// Player actions
	Reveal(row, col int) ([]Position, error)
	Flag(row, col int) error
	Unflag(row, col int) error
	Apply(action Action, row, col int) ([]Position, error)

	// Configuration
	GetConfig() *GameConfig

	// History
	GetMoveHistory() []MoveHistoryEntry
	GetLastMove() *MoveHistoryEntry
}

// GameEngine implements the Engine interface on top of a Minefield
type GameEngine struct {
	config     *GameConfig
	field      *Minefield
	message    string
	history    []MoveHistoryEntry
	totalMoves int
}

// NewEngine validates the configuration and generates a fresh grid for it
func NewEngine(config *GameConfig, opts ...Option) (*GameEngine, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}

	e := &GameEngine{
		config:  withDefaults(config),
		field:   NewMinefield(opts...),
		history: []MoveHistoryEntry{},
	}
	if err := e.generate(); err != nil {
		return nil, err
	}
	return e, nil
}

// NewEngineWithDefaults creates an engine for the "normal" preset
func NewEngineWithDefaults(opts ...Option) *GameEngine {
	p, _ := LookupPreset(3)
	e, err := NewEngine(PresetConfig(p), opts...)
	if err != nil {
		// presets always validate
		panic(err)
	}
	return e
}

func (e *GameEngine) generate() error {
	var err error
	switch {
	case len(e.config.Mines) > 0:
		err = e.field.ConfigureMines(e.config.Size, e.config.Mines)
	default:
		err = e.field.Configure(e.config.Level, e.config.Size)
	}
	if err != nil {
		return err
	}
	e.message = e.config.Messages.Welcome
	return nil
}

// GetState returns a snapshot of the current game. The ground truth is only
// included once the game is over.
func (e *GameEngine) GetState() *GameState {
	f := e.field
	state := &GameState{
		Board:         f.Overlay(),
		Size:          f.Size(),
		Difficulty:    f.Difficulty(),
		Mines:         f.MineCount(),
		Density:       f.Density(),
		Flags:         f.Flags(),
		RevealedCells: f.RevealedCount(),
		SafeCells:     f.SafeCells(),
		Message:       e.message,
		GameOver:      f.Over(),
		Victory:       f.IsWin(),
		ConfigName:    e.config.Name,
		MoveHistory:   e.GetMoveHistory(),
		TotalMoves:    e.totalMoves,
	}
	if state.GameOver {
		state.Answer = f.Answer()
	}
	return state
}

// Reset generates a new grid from the same configuration. The move history
// is cumulative and survives resets.
func (e *GameEngine) Reset() (*GameState, error) {
	if err := e.generate(); err != nil {
		return nil, err
	}
	return e.GetState(), nil
}

// IsGameOver returns whether the game is over
func (e *GameEngine) IsGameOver() bool {
	return e.field.Over()
}

// IsVictory returns whether the player has won
func (e *GameEngine) IsVictory() bool {
	return e.field.IsWin()
}

// Minefield exposes the underlying grid for read-only inspection
func (e *GameEngine) Minefield() *Minefield {
	return e.field
}

// Reveal uncovers a cell
func (e *GameEngine) Reveal(row, col int) ([]Position, error) {
	return e.Apply(ActionReveal, row, col)
}

// Flag marks a hidden cell
func (e *GameEngine) Flag(row, col int) error {
	_, err := e.Apply(ActionFlag, row, col)
	return err
}

// Unflag clears a flag
func (e *GameEngine) Unflag(row, col int) error {
	_, err := e.Apply(ActionUnflag, row, col)
	return err
}

// Apply performs an action, records it in the history and updates the
// player message. Rejected actions are recorded too.
func (e *GameEngine) Apply(action Action, row, col int) ([]Position, error) {
	var (
		revealed []Position
		err      error
	)
	switch action {
	case ActionReveal:
		revealed, err = e.field.Reveal(row, col)
	case ActionFlag:
		err = e.field.Flag(row, col)
	case ActionUnflag:
		err = e.field.Unflag(row, col)
	default:
		_, err = ParseAction(string(action))
	}

	e.record(action, Position{Row: row, Col: col}, revealed, err)
	e.message = e.messageFor(action, err)
	return revealed, err
}

func (e *GameEngine) messageFor(action Action, err error) string {
	m := e.config.Messages
	switch {
	case err == nil && e.field.Lost():
		return m.Defeat
	case err == nil && e.field.IsWin():
		return m.Victory
	case err == nil && action == ActionReveal:
		return m.Revealed
	case err == nil && action == ActionFlag:
		return m.Flagged
	case err == nil:
		return m.Unflagged
	case errors.Is(err, ErrAlreadyRevealed):
		return m.AlreadyRevealed
	case errors.Is(err, ErrFlagged):
		return m.BlockedByFlag
	case errors.Is(err, ErrAlreadyFlagged):
		return m.AlreadyFlagged
	case errors.Is(err, ErrNotFlagged):
		return m.NotFlagged
	default:
		return err.Error()
	}
}

func (e *GameEngine) record(action Action, pos Position, revealed []Position, err error) {
	e.totalMoves++
	entry := MoveHistoryEntry{
		Action:     action,
		Position:   pos,
		Revealed:   revealed,
		Timestamp:  time.Now().Unix(),
		Success:    err == nil,
		MoveNumber: e.totalMoves,
	}
	if err != nil {
		entry.Error = err.Error()
	}
	e.history = append(e.history, entry)
}

// GetConfig returns the configuration with defaults applied
func (e *GameEngine) GetConfig() *GameConfig {
	return e.config
}

// GetMoveHistory returns a copy of the complete move history
func (e *GameEngine) GetMoveHistory() []MoveHistoryEntry {
	out := make([]MoveHistoryEntry, len(e.history))
	copy(out, e.history)
	return out
}

// GetLastMove returns the last move made, or nil if no moves
func (e *GameEngine) GetLastMove() *MoveHistoryEntry {
	if len(e.history) == 0 {
		return nil
	}
	last := e.history[len(e.history)-1]
	return &last
}
