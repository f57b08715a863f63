package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TopN is the size of the published ranking
const TopN = 10

// MaxNameLength bounds player names
const MaxNameLength = 32

var (
	ErrInvalidName   = errors.New("invalid player name")
	ErrZeroScore     = errors.New("only positive scores are recorded")
	ErrUnknownDriver = errors.New("unknown leaderboard driver")
)

// Entry is one recorded score
type Entry struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Score      int       `json:"score"`
	Difficulty int       `json:"difficulty"`
	RecordedAt time.Time `json:"recorded_at"`
}

// NewEntry stamps a score with a fresh ID and the current time
func NewEntry(name string, score, difficulty int) Entry {
	return Entry{
		ID:         uuid.New().String(),
		Name:       strings.TrimSpace(name),
		Score:      score,
		Difficulty: difficulty,
		RecordedAt: time.Now().UTC(),
	}
}

// ValidateName checks that a player name can be stored. Commas and line
// breaks are rejected because they would corrupt the CSV files.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return fmt.Errorf("%w: name is empty", ErrInvalidName)
	case strings.ContainsAny(name, ",\r\n"):
		return fmt.Errorf("%w: name must not contain commas or line breaks", ErrInvalidName)
	case len([]rune(name)) > MaxNameLength:
		return fmt.Errorf("%w: name is longer than %d characters", ErrInvalidName, MaxNameLength)
	}
	return nil
}

func validateEntry(e Entry) error {
	if err := ValidateName(e.Name); err != nil {
		return err
	}
	if e.Score <= 0 {
		return fmt.Errorf("%w: got %d", ErrZeroScore, e.Score)
	}
	return nil
}

// Store keeps recorded scores
type Store interface {
	// Append records a new score
	Append(ctx context.Context, e Entry) error
	// Top returns the n best scores, highest first; ties go to the earlier record
	Top(ctx context.Context, n int) ([]Entry, error)
	// All returns every recorded score in the order it was recorded
	All(ctx context.Context) ([]Entry, error)
	Close() error
}

// Open creates a store for the given driver: "file" keeps CSV files in the
// directory at path, "sqlite" uses a SQLite database file at path.
func Open(driver, path string) (Store, error) {
	switch driver {
	case "file", "csv":
		return NewFileStore(path)
	case "sqlite", "sqlite3":
		return OpenSQLStore(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}

// rank orders entries best first. entries must be in recording order so the
// stable sort keeps earlier records ahead on ties.
func rank(entries []Entry, n int) []Entry {
	ranked := make([]Entry, len(entries))
	copy(ranked, entries)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
