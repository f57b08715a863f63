package service

import (
	"time"

	"github.com/wricardo/mcp-training/minesweeper/game/engine"
	"github.com/wricardo/mcp-training/minesweeper/game/score"
)

// CreateSessionRequest selects what kind of grid a new session plays.
// ConfigName wins over Level; with neither the default config is used.
type CreateSessionRequest struct {
	ConfigName string `json:"config_name,omitempty"`
	Level      *int   `json:"level,omitempty"`
	Size       int    `json:"size,omitempty"` // only for level 0
	PlayerName string `json:"player_name,omitempty"`
}

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	PlayerName     string             `json:"player_name,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	ElapsedSeconds int                `json:"elapsed_seconds"`
	Result         *score.Breakdown   `json:"result,omitempty"`
	ScoreSubmitted bool               `json:"score_submitted"`
	GameState      *engine.GameState  `json:"game_state"`
	GameConfig     *engine.GameConfig `json:"game_config"`
}

// ActionResult contains the outcome of a reveal, flag or unflag
type ActionResult struct {
	Success   bool              `json:"success"`
	Action    engine.Action     `json:"action"`
	Position  engine.Position   `json:"position"`
	Revealed  []engine.Position `json:"revealed,omitempty"`
	GameState *engine.GameState `json:"game_state"`
	Message   string            `json:"message"`
	Events    []GameEvent       `json:"events,omitempty"`
	Result    *score.Breakdown  `json:"result,omitempty"` // set on the action that ends the game
}

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      string          `json:"type"` // "reveal", "flag", "unflag", "victory", "defeat", "reset"
	Message   string          `json:"message"`
	Timestamp time.Time       `json:"timestamp"`
	Position  engine.Position `json:"position,omitempty"`
}

// HistoryOptions configures move history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated move history
type HistoryResponse struct {
	Moves       []engine.MoveHistoryEntry `json:"moves"`
	TotalMoves  int                       `json:"total_moves"`
	Page        int                       `json:"page"`
	PageSize    int                       `json:"page_size"`
	TotalPages  int                       `json:"total_pages"`
	HasNext     bool                      `json:"has_next"`
	HasPrevious bool                      `json:"has_previous"`
}

// ConfigInfo provides information about a game configuration
type ConfigInfo struct {
	Filename    string `json:"filename,omitempty"`
	ConfigID    string `json:"config_id"` // The identifier to use for session creation
	Name        string `json:"name"`
	Description string `json:"description"`
	Level       int    `json:"level"`
	Size        int    `json:"size"`
	BuiltIn     bool   `json:"built_in"`
}
