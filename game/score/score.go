// Package score times games and turns a finished game into points.
package score

import (
	"fmt"
	"strings"
	"time"
)

const (
	// MinePoints is the base score awarded per mine on the grid
	MinePoints = 100

	rateEasy   = 2500 // levels 1-2
	rateMedium = 2300 // levels 3-4
	rateHard   = 2100 // level 5 and custom grids
)

// Rate returns the points lost per minute of play for a difficulty level
func Rate(difficulty int) int {
	switch difficulty {
	case 1, 2:
		return rateEasy
	case 3, 4:
		return rateMedium
	default:
		return rateHard
	}
}

// Breakdown is the detail behind a final score
type Breakdown struct {
	MineScore int           `json:"mine_score"`
	TimeScore int           `json:"time_score"`
	Total     int           `json:"total"`
	Elapsed   time.Duration `json:"elapsed"`
	Victory   bool          `json:"victory"`
}

// Calculate returns the final score of a game. A lost game scores 0; a won
// game scores its mine score plus a time bonus that shrinks by Rate points
// per minute and never goes below zero.
func Calculate(mines, difficulty int, elapsed time.Duration, victory bool) int {
	return Compute(mines, difficulty, elapsed, victory).Total
}

// Compute is Calculate with the intermediate values
func Compute(mines, difficulty int, elapsed time.Duration, victory bool) Breakdown {
	b := Breakdown{Elapsed: elapsed, Victory: victory}
	if !victory {
		return b
	}

	// only whole seconds count
	minutes := float64(int64(elapsed/time.Second)) / 60
	mineScore := float64(MinePoints * mines)
	timeScore := mineScore - float64(Rate(difficulty))*minutes
	if timeScore < 0 {
		timeScore = 0
	}

	b.MineScore = int(mineScore)
	b.TimeScore = int(timeScore)
	b.Total = int(mineScore + timeScore)
	return b
}

// FormatDuration renders a game duration as "1 hour 2 minutes 3 seconds".
// Zero parts are left out and anything over a day is reported as such.
func FormatDuration(d time.Duration) string {
	if d >= 24*time.Hour {
		return "more than 24 hours"
	}

	total := int(d / time.Second)
	if total <= 0 {
		return "0 seconds"
	}

	var parts []string
	add := func(n int, unit string) {
		switch {
		case n == 0:
		case n == 1:
			parts = append(parts, "1 "+unit)
		default:
			parts = append(parts, fmt.Sprintf("%d %ss", n, unit))
		}
	}
	add(total/3600, "hour")
	add(total%3600/60, "minute")
	add(total%60, "second")
	return strings.Join(parts, " ")
}
