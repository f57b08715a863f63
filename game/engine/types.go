package engine

import (
	"fmt"
	"strconv"
)

const (
	// Validation constants
	MinGridSize   = 5
	MaxGridSize   = 99
	CustomLevel   = 0
	MinLevel      = 0
	MaxLevel      = 5
	MaxNeighbours = 8
)

// Position represents row/column coordinates on the grid
type Position struct {
	Row int `json:"row" yaml:"row"`
	Col int `json:"col" yaml:"col"`
}

func (p Position) String() string {
	return fmt.Sprintf("(%d, %d)", p.Row, p.Col)
}

// Ground is the authoritative content of a cell: either a mine or a safe
// cell carrying the number of mines among its neighbours.
type Ground struct {
	Mine  bool `json:"mine,omitempty"`
	Count int  `json:"count"`
}

// Mine returns the ground value of a mined cell
func Mine() Ground {
	return Ground{Mine: true}
}

// Safe returns the ground value of a safe cell with n neighbouring mines
func Safe(n int) Ground {
	return Ground{Count: n}
}

// IsEmpty reports whether the cell is safe with no neighbouring mines
func (g Ground) IsEmpty() bool {
	return !g.Mine && g.Count == 0
}

// Symbol returns the display symbol of the ground value
func (g Ground) Symbol() Symbol {
	switch {
	case g.Mine:
		return SymbolMine
	case g.Count == 0:
		return SymbolEmpty
	default:
		return Symbol(strconv.Itoa(g.Count))
	}
}

// Visibility is the player-visible state of a cell
type Visibility uint8

const (
	Hidden Visibility = iota
	Flagged
	Revealed
)

var visibilityNames = map[Visibility]string{
	Hidden:   "hidden",
	Flagged:  "flagged",
	Revealed: "revealed",
}

func (v Visibility) String() string {
	if name, ok := visibilityNames[v]; ok {
		return name
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler
func (v Visibility) MarshalText() ([]byte, error) {
	name, ok := visibilityNames[v]
	if !ok {
		return nil, fmt.Errorf("unknown visibility %d", v)
	}
	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (v *Visibility) UnmarshalText(text []byte) error {
	for vis, name := range visibilityNames {
		if name == string(text) {
			*v = vis
			return nil
		}
	}
	return fmt.Errorf("unknown visibility %q", text)
}

// Tile is one cell of the overlay. Value is only meaningful once the tile
// is revealed.
type Tile struct {
	State Visibility `json:"state"`
	Value Ground     `json:"value"`
}

// Symbol returns the display symbol for the tile as the player sees it
func (t Tile) Symbol() Symbol {
	switch t.State {
	case Flagged:
		return SymbolFlag
	case Revealed:
		return t.Value.Symbol()
	default:
		return SymbolHidden
	}
}

// Symbol is a single-cell display token
type Symbol string

const (
	SymbolHidden Symbol = "?"
	SymbolFlag   Symbol = "F"
	SymbolEmpty  Symbol = "*"
	SymbolMine   Symbol = "X"
)

// Action names a player command
type Action string

const (
	ActionReveal Action = "reveal"
	ActionFlag   Action = "flag"
	ActionUnflag Action = "unflag"
)

// ParseAction maps a command name to an Action
func ParseAction(name string) (Action, error) {
	switch Action(name) {
	case ActionReveal, ActionFlag, ActionUnflag:
		return Action(name), nil
	}
	return "", fmt.Errorf("unknown action %q", name)
}

// Messages holds the player-facing text for each game event
type Messages struct {
	Welcome         string `json:"welcome" yaml:"welcome"`
	Revealed        string `json:"revealed" yaml:"revealed"`
	Flagged         string `json:"flagged" yaml:"flagged"`
	Unflagged       string `json:"unflagged" yaml:"unflagged"`
	AlreadyRevealed string `json:"already_revealed" yaml:"already_revealed"`
	BlockedByFlag   string `json:"blocked_by_flag" yaml:"blocked_by_flag"`
	AlreadyFlagged  string `json:"already_flagged" yaml:"already_flagged"`
	NotFlagged      string `json:"not_flagged" yaml:"not_flagged"`
	Victory         string `json:"victory" yaml:"victory"`
	Defeat          string `json:"defeat" yaml:"defeat"`
}

// GameConfig describes how a minefield is generated. Level 0 selects a
// custom grid of Size cells per side; levels 1-5 ignore Size. A custom
// config may pin the layout with Mines instead of placing them at random.
type GameConfig struct {
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description" yaml:"description"`
	Level       int        `json:"level" yaml:"level"`
	Size        int        `json:"size,omitempty" yaml:"size,omitempty"`
	Mines       []Position `json:"mines,omitempty" yaml:"mines,omitempty"`
	Messages    Messages   `json:"messages" yaml:"messages"`
}

// GameState represents the complete, serialisable game state
type GameState struct {
	Board         [][]Tile           `json:"board"`
	Answer        [][]Ground         `json:"answer,omitempty"` // only once the game is over
	Size          int                `json:"size"`
	Difficulty    int                `json:"difficulty"`
	Mines         int                `json:"mines"`
	Density       float64            `json:"density"`
	Flags         int                `json:"flags"`
	RevealedCells int                `json:"revealed_cells"`
	SafeCells     int                `json:"safe_cells"`
	Message       string             `json:"message"`
	GameOver      bool               `json:"game_over"`
	Victory       bool               `json:"victory"`
	ConfigName    string             `json:"config_name"`
	MoveHistory   []MoveHistoryEntry `json:"move_history"`
	TotalMoves    int                `json:"total_moves"`
}

// MoveHistoryEntry represents a single action in the game history
type MoveHistoryEntry struct {
	Action     Action     `json:"action"`
	Position   Position   `json:"position"`
	Revealed   []Position `json:"revealed,omitempty"`
	Error      string     `json:"error,omitempty"`
	Timestamp  int64      `json:"timestamp"`
	Success    bool       `json:"success"`
	MoveNumber int        `json:"move_number"`
}
