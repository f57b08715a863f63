package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestConfig() *GameConfig {
	return &GameConfig{
		Name:        "engine_test",
		Description: "Configuration for engine integration tests",
		Level:       CustomLevel,
		Size:        5,
		Mines:       []Position{{Row: 4, Col: 4}},
		Messages: Messages{
			Welcome: "Welcome to engine test!",
			Victory: "You cleared it!",
			Defeat:  "Kaboom!",
		},
	}
}

func TestNewEngine(t *testing.T) {
	config := createTestConfig()
	engine, err := NewEngine(config)
	if err != nil {
		t.Fatalf("Failed to create new engine: %v", err)
	}

	state := engine.GetState()
	if state.Size != 5 {
		t.Errorf("Expected size 5, got %d", state.Size)
	}
	if state.Mines != 1 {
		t.Errorf("Expected 1 mine, got %d", state.Mines)
	}
	if state.Message != "Welcome to engine test!" {
		t.Errorf("Expected welcome message, got %q", state.Message)
	}
	if state.GameOver || state.Victory {
		t.Error("Expected a fresh game")
	}
	if state.Answer != nil {
		t.Error("Answer must stay hidden while the game is running")
	}
	if state.ConfigName != "engine_test" {
		t.Errorf("Expected config name engine_test, got %q", state.ConfigName)
	}

	// empty messages fall back to the defaults
	assert.Equal(t, DefaultMessages().Flagged, engine.GetConfig().Messages.Flagged)
	assert.Empty(t, config.Messages.Flagged, "caller's config must not be modified")
}

func TestNewEngine_InvalidConfig(t *testing.T) {
	config := createTestConfig()
	config.Name = ""

	_, err := NewEngine(config)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	config = createTestConfig()
	config.Size = 3
	_, err = NewEngine(config)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNewEngineWithDefaults(t *testing.T) {
	engine := NewEngineWithDefaults(WithSeed(5))
	state := engine.GetState()
	assert.Equal(t, "normal", state.ConfigName)
	assert.Equal(t, 25, state.Size)
	assert.Equal(t, 3, state.Difficulty)
	assert.Positive(t, state.Mines)
}

func TestEngine_Messages(t *testing.T) {
	engine, err := NewEngine(createTestConfig())
	require.NoError(t, err)
	msgs := engine.GetConfig().Messages

	require.NoError(t, engine.Flag(3, 3))
	assert.Equal(t, msgs.Flagged, engine.GetState().Message)

	_, err = engine.Reveal(3, 3)
	assert.ErrorIs(t, err, ErrFlagged)
	assert.Equal(t, msgs.BlockedByFlag, engine.GetState().Message)

	assert.ErrorIs(t, engine.Flag(3, 3), ErrAlreadyFlagged)
	assert.Equal(t, msgs.AlreadyFlagged, engine.GetState().Message)

	require.NoError(t, engine.Unflag(3, 3))
	assert.Equal(t, msgs.Unflagged, engine.GetState().Message)

	assert.ErrorIs(t, engine.Unflag(3, 3), ErrNotFlagged)
	assert.Equal(t, msgs.NotFlagged, engine.GetState().Message)

	_, err = engine.Reveal(3, 3)
	require.NoError(t, err)
	assert.Equal(t, msgs.Revealed, engine.GetState().Message)

	_, err = engine.Reveal(3, 3)
	assert.ErrorIs(t, err, ErrAlreadyRevealed)
	assert.Equal(t, msgs.AlreadyRevealed, engine.GetState().Message)

	_, err = engine.Reveal(7, 7)
	assert.ErrorIs(t, err, ErrOutOfBounds)
	assert.Contains(t, engine.GetState().Message, "out of bounds")
}

func TestEngine_Defeat(t *testing.T) {
	engine, err := NewEngine(createTestConfig())
	require.NoError(t, err)

	_, err = engine.Reveal(4, 4)
	require.NoError(t, err)

	state := engine.GetState()
	assert.True(t, state.GameOver)
	assert.False(t, state.Victory)
	assert.True(t, engine.IsGameOver())
	assert.Equal(t, "Kaboom!", state.Message)
	require.NotNil(t, state.Answer, "answer is disclosed once the game is over")
	assert.True(t, state.Answer[4][4].Mine)

	_, err = engine.Reveal(0, 0)
	assert.ErrorIs(t, err, ErrGameOver)
}

func TestEngine_Victory(t *testing.T) {
	engine, err := NewEngine(createTestConfig())
	require.NoError(t, err)

	for r := 0; r < 5; r++ {
		for c := 0; c < 5; c++ {
			if r == 4 && c == 4 {
				continue
			}
			if tile, _ := engine.Minefield().Tile(r, c); tile.State == Revealed {
				continue
			}
			_, err := engine.Reveal(r, c)
			require.NoError(t, err)
		}
	}

	state := engine.GetState()
	assert.True(t, state.Victory)
	assert.True(t, state.GameOver)
	assert.True(t, engine.IsVictory())
	assert.Equal(t, "You cleared it!", state.Message)
	assert.Equal(t, state.SafeCells, state.RevealedCells)
}

func TestEngine_MoveHistory(t *testing.T) {
	engine, err := NewEngine(createTestConfig())
	require.NoError(t, err)
	assert.Nil(t, engine.GetLastMove())

	revealed, err := engine.Reveal(0, 0)
	require.NoError(t, err)
	_, err = engine.Reveal(0, 0)
	require.Error(t, err)
	require.NoError(t, engine.Flag(4, 4))

	history := engine.GetMoveHistory()
	require.Len(t, history, 3)

	assert.Equal(t, ActionReveal, history[0].Action)
	assert.Equal(t, revealed, history[0].Revealed)
	assert.True(t, history[0].Success)
	assert.Equal(t, 1, history[0].MoveNumber)

	assert.False(t, history[1].Success, "rejected actions are recorded")
	assert.NotEmpty(t, history[1].Error)

	last := engine.GetLastMove()
	require.NotNil(t, last)
	assert.Equal(t, ActionFlag, last.Action)
	assert.Equal(t, Position{Row: 4, Col: 4}, last.Position)
	assert.Equal(t, 3, engine.GetState().TotalMoves)

	// the returned history is a copy
	history[0].Action = ActionUnflag
	assert.Equal(t, ActionReveal, engine.GetMoveHistory()[0].Action)
}

func TestEngine_ApplyUnknownAction(t *testing.T) {
	engine, err := NewEngine(createTestConfig())
	require.NoError(t, err)

	_, err = engine.Apply(Action("dig"), 0, 0)
	require.Error(t, err)
	assert.Equal(t, 0, engine.GetState().RevealedCells)
	assert.False(t, engine.GetLastMove().Success)
}

func TestEngine_Reset(t *testing.T) {
	engine, err := NewEngine(createTestConfig())
	require.NoError(t, err)

	_, err = engine.Reveal(4, 4)
	require.NoError(t, err)
	require.True(t, engine.IsGameOver())

	state, err := engine.Reset()
	require.NoError(t, err)
	assert.False(t, state.GameOver)
	assert.Equal(t, 0, state.RevealedCells)
	assert.Equal(t, "Welcome to engine test!", state.Message)
	assert.Len(t, state.MoveHistory, 1, "history is cumulative across resets")
	assert.Equal(t, 1, state.TotalMoves)

	_, err = engine.Reveal(0, 0)
	assert.NoError(t, err)
}

func TestEngine_ResetRandomPreset(t *testing.T) {
	p, _ := LookupPreset(1)
	engine, err := NewEngine(PresetConfig(p), WithSeed(99))
	require.NoError(t, err)
	first := engine.Minefield().Answer()

	_, err = engine.Reset()
	require.NoError(t, err)
	assert.NotEqual(t, first, engine.Minefield().Answer(), "reset draws a new layout")
	assert.Equal(t, 15, engine.GetState().Size)
}
