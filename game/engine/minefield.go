package engine

import (
	"fmt"
	"time"

	"golang.org/x/exp/rand"
)

// Minefield owns the mine layout (ground truth) and the player-visible
// overlay. It is not safe for concurrent use; callers serialise access.
type Minefield struct {
	size       int
	difficulty int
	density    int // 1/10000ths
	mines      int
	answer     [][]Ground
	overlay    [][]Tile
	configured bool
	lost       bool
	rng        *rand.Rand
}

// Option customises a Minefield
type Option func(*Minefield)

// WithRand sets the random source used for density sampling and mine placement
func WithRand(rng *rand.Rand) Option {
	return func(m *Minefield) {
		m.rng = rng
	}
}

// WithSeed seeds the random source, making generation reproducible
func WithSeed(seed uint64) Option {
	return func(m *Minefield) {
		m.rng = rand.New(rand.NewSource(seed))
	}
}

// NewMinefield creates an unconfigured minefield
func NewMinefield(opts ...Option) *Minefield {
	m := &Minefield{}
	for _, opt := range opts {
		opt(m)
	}
	if m.rng == nil {
		m.rng = rand.New(rand.NewSource(uint64(time.Now().UnixNano())))
	}
	return m
}

// Configure dispatches to ConfigureCustom for level 0 and to
// ConfigurePreset otherwise.
func (m *Minefield) Configure(level, size int) error {
	if level == CustomLevel {
		return m.ConfigureCustom(size)
	}
	return m.ConfigurePreset(level)
}

// ConfigurePreset generates a new grid for one of the built-in levels (1-5).
// On error the current grid is left untouched.
func (m *Minefield) ConfigurePreset(level int) error {
	if level == CustomLevel {
		return &ConfigError{Level: level, Reason: "level 0 is the custom level and needs a grid size"}
	}
	preset, ok := LookupPreset(level)
	if !ok {
		return &ConfigError{Level: level}
	}

	density := preset.Density.sample(m.rng)
	return m.generate(preset.Size, level, density, mineCount(preset.Size, density), nil)
}

// ConfigureCustom generates a new grid of the given size using the density
// range of the hardest level. On error the current grid is left untouched.
func (m *Minefield) ConfigureCustom(size int) error {
	if size < MinGridSize || size > MaxGridSize {
		return &ConfigError{Level: CustomLevel, Size: size}
	}

	density := customDensity.sample(m.rng)
	return m.generate(size, CustomLevel, density, mineCount(size, density), nil)
}

// ConfigureMines generates a custom grid with mines at exactly the given
// positions.
func (m *Minefield) ConfigureMines(size int, mines []Position) error {
	if size < MinGridSize || size > MaxGridSize {
		return &ConfigError{Level: CustomLevel, Size: size, Mines: len(mines)}
	}

	seen := make(map[Position]struct{}, len(mines))
	for _, pos := range mines {
		if pos.Row < 0 || pos.Row >= size || pos.Col < 0 || pos.Col >= size {
			return &ConfigError{Level: CustomLevel, Size: size, Mines: len(mines),
				Reason: fmt.Sprintf("mine %s is outside a %dx%d grid", pos, size, size)}
		}
		if _, dup := seen[pos]; dup {
			return &ConfigError{Level: CustomLevel, Size: size, Mines: len(mines),
				Reason: fmt.Sprintf("duplicate mine at %s", pos)}
		}
		seen[pos] = struct{}{}
	}

	density := len(mines) * densityScale / (size * size)
	return m.generate(size, CustomLevel, density, len(mines), mines)
}

// generate validates the mine count, then allocates both layers and places
// the mines. A nil layout means random placement.
func (m *Minefield) generate(size, level, density, mines int, layout []Position) error {
	if mines < 0 || mines >= size*size {
		return &ConfigError{Level: level, Size: size, Mines: mines}
	}

	m.size = size
	m.difficulty = level
	m.density = density
	m.mines = mines
	m.answer = newGrid[Ground](size)
	m.overlay = newGrid[Tile](size)
	m.lost = false
	m.configured = true

	if layout != nil {
		for _, pos := range layout {
			m.plant(pos)
		}
		return nil
	}
	m.placeMines(mines)
	return nil
}

// placeMines draws candidate cells until count distinct ones are accepted
func (m *Minefield) placeMines(count int) {
	placed := make(map[Position]struct{}, count)
	for len(placed) < count {
		pos := Position{Row: m.rng.Intn(m.size), Col: m.rng.Intn(m.size)}
		if _, dup := placed[pos]; dup {
			continue
		}
		placed[pos] = struct{}{}
		m.plant(pos)
	}
}

// plant marks a mine and bumps the count of every safe neighbour
func (m *Minefield) plant(pos Position) {
	m.answer[pos.Row][pos.Col] = Mine()
	for _, n := range m.neighbours(pos) {
		if !m.answer[n.Row][n.Col].Mine {
			m.answer[n.Row][n.Col].Count++
		}
	}
}

var neighbourOffsets = []struct{ dr, dc int }{
	{-1, -1}, {-1, 0}, {-1, 1},
	{0, -1}, {0, 1},
	{1, -1}, {1, 0}, {1, 1},
}

// neighbours returns the in-bounds cells of the 8-neighbourhood
func (m *Minefield) neighbours(pos Position) []Position {
	out := make([]Position, 0, MaxNeighbours)
	for _, off := range neighbourOffsets {
		r, c := pos.Row+off.dr, pos.Col+off.dc
		if m.InBounds(r, c) {
			out = append(out, Position{Row: r, Col: c})
		}
	}
	return out
}

// InBounds reports whether (row, col) lies on the grid
func (m *Minefield) InBounds(row, col int) bool {
	return row >= 0 && row < m.size && col >= 0 && col < m.size
}

// checkAction rejects actions on an unconfigured or finished grid and
// coordinates outside it.
func (m *Minefield) checkAction(action Action, row, col int) error {
	if !m.configured {
		return ErrNotConfigured
	}
	pos := Position{Row: row, Col: col}
	if !m.InBounds(row, col) {
		return &CellError{Action: action, Pos: pos, Err: ErrOutOfBounds}
	}
	if m.Over() {
		return &CellError{Action: action, Pos: pos, Err: ErrGameOver}
	}
	return nil
}

// Reveal uncovers a cell and returns every position it revealed. A cell
// with no neighbouring mines also reveals its immediate neighbours, one
// ring deep: revealed neighbours never expand further in the same action.
func (m *Minefield) Reveal(row, col int) ([]Position, error) {
	if err := m.checkAction(ActionReveal, row, col); err != nil {
		return nil, err
	}

	pos := Position{Row: row, Col: col}
	switch m.overlay[row][col].State {
	case Revealed:
		return nil, &CellError{Action: ActionReveal, Pos: pos, Err: ErrAlreadyRevealed}
	case Flagged:
		return nil, &CellError{Action: ActionReveal, Pos: pos, Err: ErrFlagged}
	}

	ground := m.answer[row][col]
	m.show(pos)
	if ground.Mine {
		m.lost = true
	}
	revealed := []Position{pos}
	if !ground.IsEmpty() {
		return revealed, nil
	}

	for _, n := range m.neighbours(pos) {
		if m.overlay[n.Row][n.Col].State == Revealed {
			continue
		}
		m.show(n)
		revealed = append(revealed, n)
	}
	return revealed, nil
}

// show copies the ground truth of a cell into the overlay
func (m *Minefield) show(pos Position) {
	m.overlay[pos.Row][pos.Col] = Tile{State: Revealed, Value: m.answer[pos.Row][pos.Col]}
}

// Flag marks a hidden cell as a suspected mine
func (m *Minefield) Flag(row, col int) error {
	if err := m.checkAction(ActionFlag, row, col); err != nil {
		return err
	}

	pos := Position{Row: row, Col: col}
	tile := &m.overlay[row][col]
	switch tile.State {
	case Revealed:
		return &CellError{Action: ActionFlag, Pos: pos, Err: ErrAlreadyRevealed}
	case Flagged:
		return &CellError{Action: ActionFlag, Pos: pos, Err: ErrAlreadyFlagged}
	}
	tile.State = Flagged
	return nil
}

// Unflag returns a flagged cell to hidden
func (m *Minefield) Unflag(row, col int) error {
	if err := m.checkAction(ActionUnflag, row, col); err != nil {
		return err
	}

	tile := &m.overlay[row][col]
	if tile.State != Flagged {
		return &CellError{Action: ActionUnflag, Pos: Position{Row: row, Col: col}, Err: ErrNotFlagged}
	}
	tile.State = Hidden
	return nil
}

// IsLoss reports whether (row, col) is a revealed mine
func (m *Minefield) IsLoss(row, col int) bool {
	if !m.configured || !m.InBounds(row, col) {
		return false
	}
	return m.overlay[row][col].State == Revealed && m.answer[row][col].Mine
}

// IsWin reports whether every safe cell is revealed and no mine is
func (m *Minefield) IsWin() bool {
	if !m.configured {
		return false
	}
	for r := 0; r < m.size; r++ {
		for c := 0; c < m.size; c++ {
			revealed := m.overlay[r][c].State == Revealed
			if revealed == m.answer[r][c].Mine {
				return false
			}
		}
	}
	return true
}

// Lost reports whether any mine has been revealed
func (m *Minefield) Lost() bool {
	return m.lost
}

// Over reports whether the game reached a terminal state
func (m *Minefield) Over() bool {
	return m.lost || m.IsWin()
}

// Configured reports whether a grid has been generated
func (m *Minefield) Configured() bool {
	return m.configured
}

// Size returns the grid dimension
func (m *Minefield) Size() int {
	return m.size
}

// Difficulty returns the level the grid was generated for (0 = custom)
func (m *Minefield) Difficulty() int {
	return m.difficulty
}

// MineCount returns the number of mines on the grid
func (m *Minefield) MineCount() int {
	return m.mines
}

// Density returns the sampled mine density
func (m *Minefield) Density() float64 {
	return float64(m.density) / densityScale
}

// Flags returns the number of flagged cells
func (m *Minefield) Flags() int {
	return CountState(m.overlay, Flagged)
}

// RevealedCount returns the number of revealed cells
func (m *Minefield) RevealedCount() int {
	return CountState(m.overlay, Revealed)
}

// SafeCells returns the number of cells without a mine
func (m *Minefield) SafeCells() int {
	return m.size*m.size - m.mines
}

// Overlay returns a copy of the player-visible layer
func (m *Minefield) Overlay() [][]Tile {
	return copyGrid(m.overlay)
}

// Answer returns a copy of the ground-truth layer
func (m *Minefield) Answer() [][]Ground {
	return copyGrid(m.answer)
}

// Tile returns the overlay tile at (row, col)
func (m *Minefield) Tile(row, col int) (Tile, bool) {
	if !m.configured || !m.InBounds(row, col) {
		return Tile{}, false
	}
	return m.overlay[row][col], true
}

// Ground returns the ground truth at (row, col)
func (m *Minefield) Ground(row, col int) (Ground, bool) {
	if !m.configured || !m.InBounds(row, col) {
		return Ground{}, false
	}
	return m.answer[row][col], true
}

func newGrid[T any](size int) [][]T {
	grid := make([][]T, size)
	for i := range grid {
		grid[i] = make([]T, size)
	}
	return grid
}

func copyGrid[T any](grid [][]T) [][]T {
	out := make([][]T, len(grid))
	for i, row := range grid {
		out[i] = make([]T, len(row))
		copy(out[i], row)
	}
	return out
}
