package engine

import (
	"fmt"
	"strings"
)

// Symboler is anything that renders as a single board symbol
type Symboler interface {
	Symbol() Symbol
}

// FormatGrid renders a grid with a header of two-digit column indexes and
// each row prefixed with its two-digit row index.
func FormatGrid[T Symboler](grid [][]T) string {
	var b strings.Builder

	b.WriteString("   ")
	for c := range grid {
		fmt.Fprintf(&b, " %02d", c)
	}
	b.WriteByte('\n')

	for r, row := range grid {
		fmt.Fprintf(&b, "%02d ", r)
		for _, cell := range row {
			fmt.Fprintf(&b, " %2s", cell.Symbol())
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// CountMines counts the mines in a ground-truth grid
func CountMines(answer [][]Ground) int {
	count := 0
	for _, row := range answer {
		for _, g := range row {
			if g.Mine {
				count++
			}
		}
	}
	return count
}

// CountState counts the tiles of a board in the given state
func CountState(board [][]Tile, state Visibility) int {
	count := 0
	for _, row := range board {
		for _, tile := range row {
			if tile.State == state {
				count++
			}
		}
	}
	return count
}
