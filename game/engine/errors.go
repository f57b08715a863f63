package engine

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidConfig   = errors.New("invalid configuration")
	ErrNotConfigured   = errors.New("minefield not configured")
	ErrOutOfBounds     = errors.New("coordinates out of bounds")
	ErrAlreadyRevealed = errors.New("cell already revealed")
	ErrFlagged         = errors.New("cell is flagged")
	ErrAlreadyFlagged  = errors.New("cell already flagged")
	ErrNotFlagged      = errors.New("cell is not flagged")
	ErrGameOver        = errors.New("game is over")
)

// ConfigError reports a rejected difficulty level, grid size or mine count.
// It matches ErrInvalidConfig with errors.Is.
type ConfigError struct {
	Level  int
	Size   int
	Mines  int
	Reason string
}

func (e *ConfigError) Error() string {
	switch {
	case e.Reason != "":
		return "invalid configuration: " + e.Reason
	case e.Level < MinLevel || e.Level > MaxLevel:
		return fmt.Sprintf("invalid difficulty level %d: must be between %d and %d", e.Level, MinLevel, MaxLevel)
	case e.Size < MinGridSize || e.Size > MaxGridSize:
		return fmt.Sprintf("invalid grid size %d: must be between %d and %d", e.Size, MinGridSize, MaxGridSize)
	case e.Mines < 0:
		return fmt.Sprintf("cannot create a minefield with a negative amount of mines: %d", e.Mines)
	case e.Mines >= e.Size*e.Size:
		return fmt.Sprintf("not enough space for %d mines (%d >= %d * %d)", e.Mines, e.Mines, e.Size, e.Size)
	default:
		return "cannot configure minefield: unknown error"
	}
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// CellError reports an action that was rejected because of the target
// cell's current state. It unwraps to one of the per-action sentinels.
type CellError struct {
	Action Action
	Pos    Position
	Err    error
}

func (e *CellError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Action, e.Pos, e.Err)
}

func (e *CellError) Unwrap() error {
	return e.Err
}
