package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/mcp-training/minesweeper/game/engine"
	"github.com/wricardo/mcp-training/minesweeper/game/leaderboard"
	"github.com/wricardo/mcp-training/minesweeper/game/service"
)

// MockSessionManager implements service.SessionManager for testing
type MockSessionManager struct {
	sessions map[string]*service.Session
}

func NewMockSessionManager() *MockSessionManager {
	return &MockSessionManager{
		sessions: make(map[string]*service.Session),
	}
}

func (m *MockSessionManager) Create(id string, config *engine.GameConfig) (*service.Session, error) {
	// Generate ID if empty (mimics real session manager behavior)
	if id == "" {
		id = fmt.Sprintf("test_%d", len(m.sessions)+1)
	}

	if _, exists := m.sessions[id]; exists {
		return nil, errors.New("session already exists")
	}

	eng, err := engine.NewEngine(config, engine.WithSeed(uint64(len(m.sessions))))
	if err != nil {
		return nil, err
	}

	session := &service.Session{
		ID:             id,
		Engine:         eng,
		Config:         config,
		CreatedAt:      time.Now(),
		LastAccessedAt: time.Now(),
	}

	m.sessions[id] = session
	return session, nil
}

func (m *MockSessionManager) Get(id string) (*service.Session, error) {
	session, exists := m.sessions[id]
	if !exists {
		return nil, errors.New("session not found")
	}
	return session, nil
}

func (m *MockSessionManager) List() []*service.Session {
	result := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}
	return result
}

func (m *MockSessionManager) Delete(id string) error {
	if _, exists := m.sessions[id]; !exists {
		return errors.New("session not found")
	}
	delete(m.sessions, id)
	return nil
}

func (m *MockSessionManager) UpdateLastAccessed(id string) error {
	if session, exists := m.sessions[id]; exists {
		session.LastAccessedAt = time.Now()
		return nil
	}
	return errors.New("session not found")
}

// MockConfigManager implements service.ConfigManager for testing
type MockConfigManager struct {
	configs map[string]*engine.GameConfig
}

// testConfig is a 5x5 grid with its only mine in the bottom-right corner
func testConfig() *engine.GameConfig {
	return &engine.GameConfig{
		Name:        "test",
		Description: "Test configuration",
		Level:       engine.CustomLevel,
		Size:        5,
		Mines:       []engine.Position{{Row: 4, Col: 4}},
		Messages:    engine.Messages{Welcome: "Welcome to test!"},
	}
}

func NewMockConfigManager() *MockConfigManager {
	defaultConfig := testConfig()
	return &MockConfigManager{
		configs: map[string]*engine.GameConfig{
			"test":    defaultConfig,
			"default": defaultConfig,
		},
	}
}

func (m *MockConfigManager) LoadConfig(name string) (*engine.GameConfig, error) {
	if config, exists := m.configs[name]; exists {
		return config, nil
	}
	for _, p := range engine.Presets() {
		if p.Name == name {
			return engine.PresetConfig(p), nil
		}
	}
	return nil, service.ErrConfigNotFound
}

func (m *MockConfigManager) ListConfigs() ([]*service.ConfigInfo, error) {
	result := make([]*service.ConfigInfo, 0, len(m.configs))
	for name, config := range m.configs {
		result = append(result, &service.ConfigInfo{
			Filename:    name + ".json",
			ConfigID:    name,
			Name:        config.Name,
			Description: config.Description,
			Level:       config.Level,
			Size:        config.Size,
		})
	}
	return result, nil
}

func (m *MockConfigManager) GetDefault() *engine.GameConfig {
	return m.configs["default"]
}

func (m *MockConfigManager) SaveConfig(name string, config *engine.GameConfig) error {
	m.configs[name] = config
	return nil
}

type fixedClock struct{ t time.Time }

func (c *fixedClock) now() time.Time { return c.t }

func newTestService(t *testing.T, opts ...service.Option) (service.GameService, *fixedClock) {
	t.Helper()
	clock := &fixedClock{t: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)}
	opts = append([]service.Option{service.WithClock(clock.now)}, opts...)
	return service.NewGameService(NewMockSessionManager(), NewMockConfigManager(), opts...), clock
}

// winGame reveals every safe cell of the test grid
func winGame(t *testing.T, svc service.GameService, id string) *service.ActionResult {
	t.Helper()
	ctx := context.Background()

	var last *service.ActionResult
	for r := 0; r < 5; r++ {
		for c := 0; c < 5; c++ {
			if r == 4 && c == 4 {
				continue
			}
			state, err := svc.GetGameState(ctx, id)
			require.NoError(t, err)
			if state.Board[r][c].State == engine.Revealed {
				continue
			}
			last, err = svc.Reveal(ctx, id, r, c)
			require.NoError(t, err)
		}
	}
	require.NotNil(t, last)
	return last
}

func intPtr(v int) *int { return &v }

func TestGameService_CreateSession(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	tests := []struct {
		name     string
		req      service.CreateSessionRequest
		wantSize int
		wantErr  error
	}{
		{"create with default config", service.CreateSessionRequest{}, 5, nil},
		{"create with named config", service.CreateSessionRequest{ConfigName: "test", PlayerName: "ada"}, 5, nil},
		{"create with preset level", service.CreateSessionRequest{Level: intPtr(2)}, 20, nil},
		{"create custom size", service.CreateSessionRequest{Level: intPtr(0), Size: 8}, 8, nil},
		{"unknown config", service.CreateSessionRequest{ConfigName: "nope"}, 0, service.ErrConfigNotFound},
		{"custom size too small", service.CreateSessionRequest{Level: intPtr(0), Size: 3}, 0, engine.ErrInvalidConfig},
		{"unknown level", service.CreateSessionRequest{Level: intPtr(7)}, 0, engine.ErrInvalidConfig},
		{"bad player name", service.CreateSessionRequest{PlayerName: "a,b"}, 0, leaderboard.ErrInvalidName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := svc.CreateSession(ctx, tt.req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, info.ID)
			assert.Equal(t, tt.wantSize, info.GameState.Size)
			assert.Equal(t, tt.req.PlayerName, info.PlayerName)
			assert.False(t, info.GameState.GameOver)
		})
	}

	sessions, err := svc.ListSessions(ctx)
	require.NoError(t, err)
	assert.Len(t, sessions, 4)
}

func TestGameService_UnknownSession(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.GetSession(ctx, "zzzz")
	assert.ErrorIs(t, err, service.ErrSessionNotFound)
	_, err = svc.Reveal(ctx, "zzzz", 0, 0)
	assert.ErrorIs(t, err, service.ErrSessionNotFound)
	_, err = svc.Reset(ctx, "zzzz")
	assert.ErrorIs(t, err, service.ErrSessionNotFound)
	assert.ErrorIs(t, svc.DeleteSession(ctx, "zzzz"), service.ErrSessionNotFound)
}

func TestGameService_Actions(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	info, err := svc.CreateSession(ctx, service.CreateSessionRequest{})
	require.NoError(t, err)

	result, err := svc.Reveal(ctx, info.ID, 0, 0)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Len(t, result.Revealed, 4)
	require.Len(t, result.Events, 1)
	assert.Equal(t, "reveal", result.Events[0].Type)
	assert.Nil(t, result.Result)

	_, err = svc.Reveal(ctx, info.ID, 0, 0)
	assert.ErrorIs(t, err, engine.ErrAlreadyRevealed)

	result, err = svc.Flag(ctx, info.ID, 4, 4)
	require.NoError(t, err)
	assert.Equal(t, 1, result.GameState.Flags)

	_, err = svc.Flag(ctx, info.ID, 4, 4)
	assert.ErrorIs(t, err, engine.ErrAlreadyFlagged)

	result, err = svc.Unflag(ctx, info.ID, 4, 4)
	require.NoError(t, err)
	assert.Equal(t, 0, result.GameState.Flags)

	_, err = svc.Unflag(ctx, info.ID, 4, 4)
	assert.ErrorIs(t, err, engine.ErrNotFlagged)

	_, err = svc.Reveal(ctx, info.ID, 9, 9)
	assert.ErrorIs(t, err, engine.ErrOutOfBounds)
}

func TestGameService_Defeat(t *testing.T) {
	ctx := context.Background()
	store, err := leaderboard.NewFileStore(t.TempDir())
	require.NoError(t, err)
	svc, _ := newTestService(t, service.WithLeaderboard(store))

	info, err := svc.CreateSession(ctx, service.CreateSessionRequest{PlayerName: "ada"})
	require.NoError(t, err)

	result, err := svc.Reveal(ctx, info.ID, 4, 4)
	require.NoError(t, err)
	assert.True(t, result.GameState.GameOver)
	require.NotNil(t, result.Result)
	assert.False(t, result.Result.Victory)
	assert.Equal(t, 0, result.Result.Total)
	require.Len(t, result.Events, 2)
	assert.Equal(t, "defeat", result.Events[1].Type)
	assert.NotNil(t, result.GameState.Answer)

	_, err = svc.SubmitScore(ctx, info.ID, "")
	assert.ErrorIs(t, err, service.ErrGameNotWon)

	_, err = svc.Reveal(ctx, info.ID, 0, 0)
	assert.ErrorIs(t, err, engine.ErrGameOver)
}

func TestGameService_VictoryAndScore(t *testing.T) {
	ctx := context.Background()
	store, err := leaderboard.NewFileStore(t.TempDir())
	require.NoError(t, err)
	svc, clock := newTestService(t, service.WithLeaderboard(store))

	info, err := svc.CreateSession(ctx, service.CreateSessionRequest{PlayerName: "ada"})
	require.NoError(t, err)

	_, err = svc.SubmitScore(ctx, info.ID, "")
	assert.ErrorIs(t, err, service.ErrGameNotWon, "game still running")

	clock.t = clock.t.Add(12 * time.Second)
	last := winGame(t, svc, info.ID)
	assert.True(t, last.GameState.Victory)
	require.NotNil(t, last.Result)
	// 1 mine: 100 + max(0, 100 - 2100 * 0.2)
	assert.Equal(t, 100, last.Result.Total)
	assert.Equal(t, 12*time.Second, last.Result.Elapsed)
	assert.Equal(t, "victory", last.Events[len(last.Events)-1].Type)

	session, err := svc.GetSession(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, 12, session.ElapsedSeconds)
	assert.False(t, session.ScoreSubmitted)

	entry, err := svc.SubmitScore(ctx, info.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "ada", entry.Name, "falls back to the session's player")
	assert.Equal(t, 100, entry.Score)

	_, err = svc.SubmitScore(ctx, info.ID, "bob")
	assert.ErrorIs(t, err, service.ErrScoreSubmitted)

	top, err := svc.Leaderboard(ctx, 0)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, entry.ID, top[0].ID)

	session, err = svc.GetSession(ctx, info.ID)
	require.NoError(t, err)
	assert.True(t, session.ScoreSubmitted)
}

func TestGameService_SubmitScoreNeedsName(t *testing.T) {
	ctx := context.Background()
	store, err := leaderboard.NewFileStore(t.TempDir())
	require.NoError(t, err)
	svc, _ := newTestService(t, service.WithLeaderboard(store))

	info, err := svc.CreateSession(ctx, service.CreateSessionRequest{})
	require.NoError(t, err)
	winGame(t, svc, info.ID)

	_, err = svc.SubmitScore(ctx, info.ID, "")
	assert.ErrorIs(t, err, leaderboard.ErrInvalidName)

	entry, err := svc.SubmitScore(ctx, info.ID, "cy")
	require.NoError(t, err)
	assert.Equal(t, "cy", entry.Name)
}

func TestGameService_LeaderboardDisabled(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.Leaderboard(ctx, 10)
	assert.ErrorIs(t, err, service.ErrLeaderboardDisabled)
	_, err = svc.SubmitScore(ctx, "any", "ada")
	assert.ErrorIs(t, err, service.ErrLeaderboardDisabled)
}

func TestGameService_Reset(t *testing.T) {
	ctx := context.Background()
	store, err := leaderboard.NewFileStore(t.TempDir())
	require.NoError(t, err)
	svc, _ := newTestService(t, service.WithLeaderboard(store))

	info, err := svc.CreateSession(ctx, service.CreateSessionRequest{PlayerName: "ada"})
	require.NoError(t, err)
	winGame(t, svc, info.ID)
	_, err = svc.SubmitScore(ctx, info.ID, "")
	require.NoError(t, err)

	state, err := svc.Reset(ctx, info.ID)
	require.NoError(t, err)
	assert.False(t, state.GameOver)
	assert.Equal(t, 0, state.RevealedCells)
	assert.NotEmpty(t, state.MoveHistory, "history survives a reset")

	session, err := svc.GetSession(ctx, info.ID)
	require.NoError(t, err)
	assert.Nil(t, session.Result)
	assert.False(t, session.ScoreSubmitted)

	// the new game can be recorded again
	winGame(t, svc, info.ID)
	_, err = svc.SubmitScore(ctx, info.ID, "")
	assert.NoError(t, err)
}

func TestGameService_GetMoveHistory(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	info, err := svc.CreateSession(ctx, service.CreateSessionRequest{})
	require.NoError(t, err)

	for c := 0; c < 5; c++ {
		_, err := svc.Flag(ctx, info.ID, 2, c)
		require.NoError(t, err)
	}

	page, err := svc.GetMoveHistory(ctx, info.ID, service.HistoryOptions{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, page.TotalMoves)
	assert.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Moves, 2)
	assert.Equal(t, 5, page.Moves[0].MoveNumber, "newest first by default")
	assert.Equal(t, 4, page.Moves[1].MoveNumber)
	assert.True(t, page.HasNext)
	assert.False(t, page.HasPrevious)

	page, err = svc.GetMoveHistory(ctx, info.ID, service.HistoryOptions{Limit: 2, Page: 3, Order: "asc"})
	require.NoError(t, err)
	require.Len(t, page.Moves, 1)
	assert.Equal(t, 5, page.Moves[0].MoveNumber)
	assert.False(t, page.HasNext)
	assert.True(t, page.HasPrevious)

	page, err = svc.GetMoveHistory(ctx, info.ID, service.HistoryOptions{Page: 9})
	require.NoError(t, err)
	assert.Empty(t, page.Moves)
}

func TestGameService_DeleteSession(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	info, err := svc.CreateSession(ctx, service.CreateSessionRequest{})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteSession(ctx, info.ID))
	_, err = svc.GetSession(ctx, info.ID)
	assert.ErrorIs(t, err, service.ErrSessionNotFound)
}

func TestGameService_Configs(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	configs, err := svc.ListConfigs(ctx)
	require.NoError(t, err)
	assert.Len(t, configs, 2)

	custom := testConfig()
	custom.Name = "saved"
	require.NoError(t, svc.SaveConfig(ctx, "saved", custom))

	loaded, err := svc.LoadConfig(ctx, "saved")
	require.NoError(t, err)
	assert.Equal(t, "saved", loaded.Name)
}
