package console

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/mcp-training/minesweeper/game/engine"
	"github.com/wricardo/mcp-training/minesweeper/game/leaderboard"
)

// cornerFactory ignores the chosen difficulty and plays a 5x5 grid with a
// single mine in the bottom right corner
func cornerFactory(seen *[]*engine.GameConfig) EngineFactory {
	return func(config *engine.GameConfig) (*engine.GameEngine, error) {
		if seen != nil {
			*seen = append(*seen, config)
		}
		return engine.NewEngine(&engine.GameConfig{
			Name:  "corner",
			Level: engine.CustomLevel,
			Size:  5,
			Mines: []engine.Position{{Row: 4, Col: 4}},
		})
	}
}

func fixedClock() func() time.Time {
	at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return at }
}

const winningMoves = "0 1 1\n0 1 3\n0 3 1\n0 3 3\n0 3 4\n0 4 3\n"

func play(t *testing.T, input string, opts ...Option) (string, error) {
	t.Helper()
	var out bytes.Buffer
	g := New(strings.NewReader(input), &out, opts...)
	err := g.Run(context.Background())
	return out.String(), err
}

func TestGame_WinAndRecord(t *testing.T) {
	store, err := leaderboard.NewFileStore(t.TempDir())
	require.NoError(t, err)

	input := "ada\n1\n" + winningMoves + "1\n2\n"
	out, err := play(t, input,
		WithEngineFactory(cornerFactory(nil)),
		WithClock(fixedClock()),
		WithLeaderboard(store),
	)
	require.NoError(t, err)

	assert.Contains(t, out, "Starting the game, ada...")
	assert.Contains(t, out, "Congratulations! You cleared the whole field!")
	assert.Contains(t, out, "Total game time: 0 seconds.")
	assert.Contains(t, out, "Mine Score: 100")
	assert.Contains(t, out, "Time Score: 100")
	assert.Contains(t, out, "Your Score: 200")
	assert.Contains(t, out, "Top 10 scores!")
	assert.Contains(t, out, "Player: ada; Score: 200")
	assert.True(t, strings.HasSuffix(out, "Thank you for playing!\n"))
	assert.NotContains(t, out, "BOOM")

	top, err := store.Top(context.Background(), leaderboard.TopN)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "ada", top[0].Name)
	assert.Equal(t, 200, top[0].Score)
}

func TestGame_WinWithoutRecording(t *testing.T) {
	store, err := leaderboard.NewFileStore(t.TempDir())
	require.NoError(t, err)

	input := "ada\n1\n" + winningMoves + "2\n2\n"
	out, err := play(t, input,
		WithEngineFactory(cornerFactory(nil)),
		WithClock(fixedClock()),
		WithLeaderboard(store),
	)
	require.NoError(t, err)

	// the top scores are listed either way
	assert.Contains(t, out, "Top 10 scores!")
	assert.NotContains(t, out, "Player: ada")

	all, err := store.All(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestGame_Loss(t *testing.T) {
	out, err := play(t, "bob\n1\n0 4 4\n2\n",
		WithEngineFactory(cornerFactory(nil)),
		WithClock(fixedClock()),
	)
	require.NoError(t, err)

	assert.Contains(t, out, "BOOM!! Er... You lost.")
	assert.Contains(t, out, "Revealing the whole minefield:")
	assert.Contains(t, out, "Your Score: 0")
	assert.NotContains(t, out, "Mine Score")
	assert.NotContains(t, out, "Scoreboard")
	assert.Contains(t, out, "bob, do you wish to play another round?")
}

func TestGame_LossShowsAnswer(t *testing.T) {
	eng, err := cornerFactory(nil)(nil)
	require.NoError(t, err)
	_, err = eng.Apply(engine.ActionReveal, 4, 4)
	require.NoError(t, err)
	answer := engine.FormatGrid(eng.GetState().Answer)

	out, err := play(t, "bob\n1\n0 4 4\n2\n", WithEngineFactory(cornerFactory(nil)))
	require.NoError(t, err)
	assert.Contains(t, out, answer)
}

func TestGame_RetriesInvalidInput(t *testing.T) {
	input := strings.Join([]string{
		"a,b", // bad name
		"ada",
		"9",    // unknown level
		"easy", // not a number
		"1",
		"7", // unknown action
		"0",
		"9 9", // out of range
		"x 1", // not a number
		"4 4",
		"3", // neither yes nor no
		"2",
	}, "\n") + "\n"

	out, err := play(t, input, WithEngineFactory(cornerFactory(nil)))
	require.NoError(t, err)

	assert.Contains(t, out, "Your name is not valid: name must not contain commas or line breaks")
	assert.Equal(t, 2, strings.Count(out, "Invalid difficulty! Please insert a new value."))
	assert.Contains(t, out, "Invalid option! Please select a new option.")
	assert.Equal(t, 2, strings.Count(out, "Invalid value(s). Please insert new coordinates."))
	assert.Contains(t, out, "BOOM!!")
	assert.Equal(t, 2, strings.Count(out, "ada, do you wish to play another round?"))
}

func TestGame_NameTooLong(t *testing.T) {
	long := strings.Repeat("a", leaderboard.MaxNameLength+1)
	out, err := play(t, long+"\n \nada\n1\n0 4 4\n2\n", WithEngineFactory(cornerFactory(nil)))
	require.NoError(t, err)

	assert.Contains(t, out, fmt.Sprintf("Your name is not valid: name is longer than %d characters", leaderboard.MaxNameLength))
	assert.Contains(t, out, "Your name is not valid: name is empty")
	assert.Contains(t, out, "Starting the game, ada...")
}

func TestGame_RejectedMove(t *testing.T) {
	out, err := play(t, "ada\n1\n1 0 0\n0 0 0\n2 0 0\n2 0 0\n0 4 4\n2\n",
		WithEngineFactory(cornerFactory(nil)))
	require.NoError(t, err)

	messages := engine.DefaultMessages()
	assert.Contains(t, out, "Row [0], Column [0]: "+messages.BlockedByFlag)
	assert.Contains(t, out, "Row [0], Column [0]: "+messages.NotFlagged)
}

func TestGame_CustomSize(t *testing.T) {
	var seen []*engine.GameConfig
	out, err := play(t, "ada\n0\n3\nbig\n100\n5\n0 4 4\n2\n",
		WithEngineFactory(cornerFactory(&seen)))
	require.NoError(t, err)

	assert.Contains(t, out, "Custom Difficulty selected...")
	assert.Contains(t, out, "The board can't be of size 3. Please insert a new value.")
	assert.Contains(t, out, "Invalid size. Please insert a new value.")
	assert.Contains(t, out, "The board can't be of size 100. Please insert a new value.")

	require.Len(t, seen, 1)
	assert.Equal(t, engine.CustomLevel, seen[0].Level)
	assert.Equal(t, 5, seen[0].Size)
}

func TestGame_SeveralRounds(t *testing.T) {
	var seen []*engine.GameConfig
	out, err := play(t, "ada\n2\n0 4 4\n1\nbob\n4\n0 4 4\n2\n",
		WithEngineFactory(cornerFactory(&seen)))
	require.NoError(t, err)

	require.Len(t, seen, 2)
	assert.Equal(t, 2, seen[0].Level)
	assert.Equal(t, 4, seen[1].Level)
	assert.Contains(t, out, "Starting the game, bob...")
	assert.Equal(t, 2, strings.Count(out, "BOOM!!"))
}

func TestGame_InputClosed(t *testing.T) {
	_, err := play(t, "ada\n1\n0 1 1\n", WithEngineFactory(cornerFactory(nil)))
	assert.ErrorIs(t, err, ErrInputClosed)
}

func TestGame_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	g := New(strings.NewReader("ada\n1\n0 1 1\n"), &out, WithEngineFactory(cornerFactory(nil)))
	_, err := g.PlayRound(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGame_SeededEngine(t *testing.T) {
	// the same seed gives the same grid
	first, err := play(t, "ada\n1\n0 0 0\n", WithEngineOptions(engine.WithSeed(7)))
	require.ErrorIs(t, err, ErrInputClosed)
	second, err := play(t, "ada\n1\n0 0 0\n", WithEngineOptions(engine.WithSeed(7)))
	require.ErrorIs(t, err, ErrInputClosed)
	assert.Equal(t, first, second)
}

func TestPresetTitle(t *testing.T) {
	assert.Equal(t, "Very Easy", presetTitle("very_easy"))
	assert.Equal(t, "Normal", presetTitle("normal"))
}
