package service

import (
	"context"
	"errors"
	"time"

	"github.com/wricardo/mcp-training/minesweeper/game/engine"
	"github.com/wricardo/mcp-training/minesweeper/game/leaderboard"
	"github.com/wricardo/mcp-training/minesweeper/game/score"
)

var (
	ErrSessionNotFound     = errors.New("session not found")
	ErrConfigNotFound      = errors.New("configuration not found")
	ErrGameNotWon          = errors.New("only won games can be recorded")
	ErrScoreSubmitted      = errors.New("score already submitted for this game")
	ErrLeaderboardDisabled = errors.New("leaderboard is not configured")
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, req CreateSessionRequest) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Game Operations
	Reveal(ctx context.Context, sessionID string, row, col int) (*ActionResult, error)
	Flag(ctx context.Context, sessionID string, row, col int) (*ActionResult, error)
	Unflag(ctx context.Context, sessionID string, row, col int) (*ActionResult, error)
	Reset(ctx context.Context, sessionID string) (*engine.GameState, error)

	// Game State
	GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error)
	SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error

	// Scores
	SubmitScore(ctx context.Context, sessionID, playerName string) (*leaderboard.Entry, error)
	Leaderboard(ctx context.Context, n int) ([]leaderboard.Entry, error)
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, config *engine.GameConfig) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
}

// ConfigManager handles game configuration loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.GameConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.GameConfig
	SaveConfig(name string, config *engine.GameConfig) error
}

// Session represents an active game session
type Session struct {
	ID             string
	Engine         *engine.GameEngine
	Config         *engine.GameConfig
	PlayerName     string
	Stopwatch      *score.Stopwatch
	Result         *score.Breakdown   // final score once the game is over
	Submitted      *leaderboard.Entry // leaderboard record of the current game
	CreatedAt      time.Time
	LastAccessedAt time.Time
}
