package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cornerMine is a 5x5 grid with a single mine in the bottom-right corner
func cornerMine(t *testing.T) *Minefield {
	t.Helper()
	m := NewMinefield(WithSeed(1))
	require.NoError(t, m.ConfigureMines(5, []Position{{Row: 4, Col: 4}}))
	return m
}

func TestConfigurePreset(t *testing.T) {
	for _, p := range Presets() {
		t.Run(p.Name, func(t *testing.T) {
			m := NewMinefield(WithSeed(uint64(p.Level)))
			require.NoError(t, m.ConfigurePreset(p.Level))

			assert.Equal(t, p.Size, m.Size())
			assert.Equal(t, p.Level, m.Difficulty())

			lo := mineCount(p.Size, p.Density.Base)
			hi := mineCount(p.Size, p.Density.Base+p.Density.Step*(densitySamples-1))
			assert.GreaterOrEqual(t, m.MineCount(), lo)
			assert.LessOrEqual(t, m.MineCount(), hi)
			assert.Equal(t, m.MineCount(), CountMines(m.Answer()), "placed mines must match the computed count")
			assert.Equal(t, mineCount(p.Size, int(m.Density()*densityScale+0.5)), m.MineCount())

			assert.Equal(t, 0, m.RevealedCount())
			assert.Equal(t, 0, m.Flags())
			assert.False(t, m.Over())
		})
	}
}

func TestConfigurePreset_InvalidLevels(t *testing.T) {
	m := NewMinefield(WithSeed(7))
	require.NoError(t, m.ConfigurePreset(1))
	before := m.Answer()

	for _, level := range []int{-1, 0, 6, 42} {
		err := m.ConfigurePreset(level)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("level %d: expected ErrInvalidConfig, got %v", level, err)
		}
		var cfgErr *ConfigError
		if assert.ErrorAs(t, err, &cfgErr) {
			assert.Equal(t, level, cfgErr.Level)
		}
	}

	assert.Equal(t, 15, m.Size(), "failed configuration must not touch the grid")
	assert.Equal(t, before, m.Answer())
}

func TestConfigureCustom(t *testing.T) {
	t.Run("bounds", func(t *testing.T) {
		m := NewMinefield(WithSeed(3))
		for _, size := range []int{-5, 0, 4, 100} {
			assert.ErrorIs(t, m.ConfigureCustom(size), ErrInvalidConfig, "size %d", size)
		}
		assert.False(t, m.Configured())

		for _, size := range []int{MinGridSize, 17, MaxGridSize} {
			require.NoError(t, m.ConfigureCustom(size))
			assert.Equal(t, size, m.Size())
			assert.Equal(t, CustomLevel, m.Difficulty())
		}
	})

	t.Run("uses hardest density", func(t *testing.T) {
		for seed := uint64(0); seed < 20; seed++ {
			m := NewMinefield(WithSeed(seed))
			require.NoError(t, m.ConfigureCustom(10))
			assert.GreaterOrEqual(t, m.Density(), customDensity.Min())
			assert.LessOrEqual(t, m.Density(), customDensity.Max())
			assert.Equal(t, CountMines(m.Answer()), m.MineCount())
		}
	})

	t.Run("configure dispatch", func(t *testing.T) {
		m := NewMinefield(WithSeed(9))
		require.NoError(t, m.Configure(CustomLevel, 8))
		assert.Equal(t, 8, m.Size())
		require.NoError(t, m.Configure(2, 8))
		assert.Equal(t, 20, m.Size(), "presets ignore the size argument")
	})
}

func TestConfigureMines_Validation(t *testing.T) {
	all := make([]Position, 0, 25)
	for r := 0; r < 5; r++ {
		for c := 0; c < 5; c++ {
			all = append(all, Position{Row: r, Col: c})
		}
	}

	tests := []struct {
		name  string
		size  int
		mines []Position
	}{
		{"grid too small", 4, nil},
		{"mine outside grid", 5, []Position{{Row: 5, Col: 0}}},
		{"negative coordinate", 5, []Position{{Row: 0, Col: -1}}},
		{"duplicate mine", 5, []Position{{Row: 1, Col: 1}, {Row: 1, Col: 1}}},
		{"no room left", 5, all},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMinefield()
			assert.ErrorIs(t, m.ConfigureMines(tt.size, tt.mines), ErrInvalidConfig)
			assert.False(t, m.Configured())
		})
	}
}

func TestGroundTruthCounts(t *testing.T) {
	m := NewMinefield(WithSeed(11))
	require.NoError(t, m.ConfigurePreset(5))
	answer := m.Answer()

	for r := range answer {
		for c, g := range answer[r] {
			if g.Mine {
				continue
			}
			want := 0
			for _, n := range m.neighbours(Position{Row: r, Col: c}) {
				if answer[n.Row][n.Col].Mine {
					want++
				}
			}
			if g.Count != want {
				t.Fatalf("cell (%d, %d): count %d, want %d", r, c, g.Count, want)
			}
			if g.Count > MaxNeighbours {
				t.Fatalf("cell (%d, %d): count %d exceeds %d", r, c, g.Count, MaxNeighbours)
			}
		}
	}
}

func TestGroundTruthClippedAtEdges(t *testing.T) {
	m := NewMinefield()
	require.NoError(t, m.ConfigureMines(5, []Position{{Row: 0, Col: 0}}))

	g, ok := m.Ground(0, 0)
	require.True(t, ok)
	assert.Equal(t, Mine(), g)

	for _, pos := range []Position{{0, 1}, {1, 0}, {1, 1}} {
		g, _ := m.Ground(pos.Row, pos.Col)
		assert.Equal(t, Safe(1), g, "cell %s", pos)
	}
	g, _ = m.Ground(0, 2)
	assert.Equal(t, Safe(0), g)
}

func TestSeedIsDeterministic(t *testing.T) {
	a := NewMinefield(WithSeed(42))
	b := NewMinefield(WithSeed(42))
	require.NoError(t, a.ConfigurePreset(4))
	require.NoError(t, b.ConfigurePreset(4))
	assert.Equal(t, a.Answer(), b.Answer())
	assert.Equal(t, a.Density(), b.Density())
}

func TestReveal_NumberedCell(t *testing.T) {
	m := cornerMine(t)

	revealed, err := m.Reveal(3, 3)
	require.NoError(t, err)
	assert.Equal(t, []Position{{Row: 3, Col: 3}}, revealed)
	assert.Equal(t, 1, m.RevealedCount())

	tile, _ := m.Tile(3, 3)
	assert.Equal(t, Tile{State: Revealed, Value: Safe(1)}, tile)
	assert.Equal(t, Symbol("1"), tile.Symbol())
}

func TestReveal_EmptyCellRevealsOneRing(t *testing.T) {
	m := cornerMine(t)

	revealed, err := m.Reveal(0, 0)
	require.NoError(t, err)
	assert.ElementsMatch(t, []Position{{0, 0}, {0, 1}, {1, 0}, {1, 1}}, revealed)
	assert.Equal(t, 4, m.RevealedCount())

	// (1, 1) is empty too, but the reveal does not cascade through it
	tile, _ := m.Tile(2, 2)
	assert.Equal(t, Hidden, tile.State)
}

func TestReveal_CentreOfMineFreeGrid(t *testing.T) {
	m := NewMinefield()
	require.NoError(t, m.ConfigureMines(5, nil))
	require.Equal(t, 0, m.MineCount())

	revealed, err := m.Reveal(2, 2)
	require.NoError(t, err)
	assert.Len(t, revealed, 9)
	assert.Equal(t, 9, m.RevealedCount())
	assert.False(t, m.IsWin())
}

func TestReveal_RingSkipsRevealedAndOverwritesFlags(t *testing.T) {
	m := NewMinefield()
	require.NoError(t, m.ConfigureMines(5, []Position{{Row: 0, Col: 2}, {Row: 4, Col: 4}}))

	_, err := m.Reveal(0, 1)
	require.NoError(t, err)
	require.NoError(t, m.Flag(1, 0))

	revealed, err := m.Reveal(0, 0)
	require.NoError(t, err)
	assert.NotContains(t, revealed, Position{Row: 0, Col: 1}, "already revealed cells are not reported again")
	assert.Contains(t, revealed, Position{Row: 1, Col: 0})

	tile, _ := m.Tile(1, 0)
	assert.Equal(t, Revealed, tile.State)
	assert.Equal(t, 0, m.Flags())
}

func TestReveal_Rejections(t *testing.T) {
	m := cornerMine(t)
	_, err := m.Reveal(3, 3)
	require.NoError(t, err)
	require.NoError(t, m.Flag(0, 4))
	before := m.Overlay()

	_, err = m.Reveal(3, 3)
	assert.ErrorIs(t, err, ErrAlreadyRevealed)

	_, err = m.Reveal(0, 4)
	assert.ErrorIs(t, err, ErrFlagged)

	_, err = m.Reveal(5, 0)
	assert.ErrorIs(t, err, ErrOutOfBounds)

	_, err = m.Reveal(-1, 2)
	assert.ErrorIs(t, err, ErrOutOfBounds)

	assert.Equal(t, before, m.Overlay(), "rejected reveals must not change the overlay")
}

func TestReveal_NotConfigured(t *testing.T) {
	m := NewMinefield()
	_, err := m.Reveal(0, 0)
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.ErrorIs(t, m.Flag(0, 0), ErrNotConfigured)
	assert.ErrorIs(t, m.Unflag(0, 0), ErrNotConfigured)
	assert.False(t, m.IsWin())
	assert.False(t, m.IsLoss(0, 0))
}

func TestReveal_Mine(t *testing.T) {
	m := cornerMine(t)
	assert.False(t, m.IsLoss(4, 4))

	revealed, err := m.Reveal(4, 4)
	require.NoError(t, err)
	assert.Equal(t, []Position{{Row: 4, Col: 4}}, revealed)
	assert.True(t, m.IsLoss(4, 4))
	assert.False(t, m.IsLoss(0, 0))
	assert.True(t, m.Lost())
	assert.True(t, m.Over())
	assert.False(t, m.IsWin())

	tile, _ := m.Tile(4, 4)
	assert.Equal(t, SymbolMine, tile.Symbol())

	_, err = m.Reveal(0, 0)
	assert.ErrorIs(t, err, ErrGameOver)
	assert.ErrorIs(t, m.Flag(0, 0), ErrGameOver)
}

func TestFlagAndUnflag(t *testing.T) {
	m := cornerMine(t)

	require.NoError(t, m.Flag(2, 2))
	tile, _ := m.Tile(2, 2)
	assert.Equal(t, SymbolFlag, tile.Symbol())
	assert.Equal(t, 1, m.Flags())

	assert.ErrorIs(t, m.Flag(2, 2), ErrAlreadyFlagged)

	require.NoError(t, m.Unflag(2, 2))
	tile, _ = m.Tile(2, 2)
	assert.Equal(t, Hidden, tile.State)
	assert.Equal(t, 0, m.Flags())

	assert.ErrorIs(t, m.Unflag(2, 2), ErrNotFlagged)

	_, err := m.Reveal(3, 3)
	require.NoError(t, err)
	assert.ErrorIs(t, m.Flag(3, 3), ErrAlreadyRevealed)
	assert.ErrorIs(t, m.Unflag(3, 3), ErrNotFlagged)

	var cellErr *CellError
	require.ErrorAs(t, m.Flag(3, 3), &cellErr)
	assert.Equal(t, ActionFlag, cellErr.Action)
	assert.Equal(t, Position{Row: 3, Col: 3}, cellErr.Pos)
}

func TestIsWin(t *testing.T) {
	m := cornerMine(t)
	require.NoError(t, m.Flag(4, 4))

	for r := 0; r < 5; r++ {
		for c := 0; c < 5; c++ {
			if r == 4 && c == 4 {
				continue
			}
			tile, _ := m.Tile(r, c)
			if tile.State == Revealed {
				continue
			}
			assert.False(t, m.IsWin(), "won before (%d, %d) was revealed", r, c)
			_, err := m.Reveal(r, c)
			require.NoError(t, err)
		}
	}

	assert.True(t, m.IsWin())
	assert.True(t, m.Over())
	assert.False(t, m.Lost())
	assert.Equal(t, m.SafeCells(), m.RevealedCount())
}

func TestIsWin_HiddenMineIsFine(t *testing.T) {
	m := NewMinefield()
	require.NoError(t, m.ConfigureMines(5, []Position{{Row: 0, Col: 0}}))

	for r := 0; r < 5; r++ {
		for c := 0; c < 5; c++ {
			tile, _ := m.Tile(r, c)
			if (r == 0 && c == 0) || tile.State == Revealed {
				continue
			}
			_, err := m.Reveal(r, c)
			require.NoError(t, err)
		}
	}
	assert.True(t, m.IsWin())
}

func TestSnapshotsAreCopies(t *testing.T) {
	m := cornerMine(t)

	overlay := m.Overlay()
	overlay[0][0].State = Revealed
	answer := m.Answer()
	answer[0][0] = Mine()

	tile, _ := m.Tile(0, 0)
	assert.Equal(t, Hidden, tile.State)
	g, _ := m.Ground(0, 0)
	assert.False(t, g.Mine)
}

func TestDensityOfFixedLayout(t *testing.T) {
	m := NewMinefield()
	mines := []Position{{0, 0}, {1, 1}, {2, 2}, {3, 3}, {4, 4}}
	require.NoError(t, m.ConfigureMines(5, mines))
	assert.InDelta(t, 0.2, m.Density(), 1e-9)
	assert.Equal(t, 20, m.SafeCells())
}

func TestInBounds(t *testing.T) {
	m := cornerMine(t)
	assert.True(t, m.InBounds(0, 0))
	assert.True(t, m.InBounds(4, 4))
	assert.False(t, m.InBounds(5, 4))
	assert.False(t, m.InBounds(4, -1))

	_, ok := m.Tile(9, 9)
	assert.False(t, ok)
}
