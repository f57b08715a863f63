package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wricardo/mcp-training/minesweeper/game/engine"
	"github.com/wricardo/mcp-training/minesweeper/game/leaderboard"
	"github.com/wricardo/mcp-training/minesweeper/game/score"
)

// gameServiceImpl implements the GameService interface. The service lock
// serialises every engine mutation; engines themselves are not thread safe.
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	scores   leaderboard.Store
	now      func() time.Time
	mu       sync.RWMutex
}

// Option customises the game service
type Option func(*gameServiceImpl)

// WithLeaderboard enables score submission backed by the given store
func WithLeaderboard(store leaderboard.Store) Option {
	return func(s *gameServiceImpl) {
		s.scores = store
	}
}

// WithClock replaces the clock used for stopwatches and event timestamps
func WithClock(now func() time.Time) Option {
	return func(s *gameServiceImpl) {
		s.now = now
	}
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager, opts ...Option) GameService {
	s := &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// getConfigID returns the config_id for a given config name, used for consistent API responses
func (s *gameServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	if configName == "" {
		return "default"
	}
	return configName
}

func (s *gameServiceImpl) getSession(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	s.sessions.UpdateLastAccessed(sessionID)
	return sess, nil
}

// resolveConfig picks the configuration a new session plays
func (s *gameServiceImpl) resolveConfig(req CreateSessionRequest) (*engine.GameConfig, error) {
	switch {
	case req.ConfigName != "":
		config, err := s.configs.LoadConfig(req.ConfigName)
		if errors.Is(err, ErrConfigNotFound) {
			// Provide helpful error message with available options
			availableConfigs, listErr := s.configs.ListConfigs()
			if listErr == nil && len(availableConfigs) > 0 {
				var configIDs []string
				for _, cfg := range availableConfigs {
					configIDs = append(configIDs, cfg.ConfigID)
				}
				return nil, fmt.Errorf("%w: '%s'. Available configs: %v", ErrConfigNotFound, req.ConfigName, configIDs)
			}
			return nil, fmt.Errorf("%w: '%s'. Use /api/configs to list available configurations", ErrConfigNotFound, req.ConfigName)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load config %s: %w", req.ConfigName, err)
		}
		return config, nil

	case req.Level != nil && *req.Level == engine.CustomLevel:
		config := &engine.GameConfig{
			Name:        "custom",
			Description: fmt.Sprintf("Custom %dx%d grid", req.Size, req.Size),
			Level:       engine.CustomLevel,
			Size:        req.Size,
		}
		if err := engine.ValidateGameConfig(config); err != nil {
			return nil, err
		}
		return config, nil

	case req.Level != nil:
		preset, ok := engine.LookupPreset(*req.Level)
		if !ok {
			return nil, &engine.ConfigError{Level: *req.Level}
		}
		return s.configs.LoadConfig(preset.Name)

	default:
		return s.configs.GetDefault(), nil
	}
}

// CreateSession creates a new game session and starts its stopwatch
func (s *gameServiceImpl) CreateSession(ctx context.Context, req CreateSessionRequest) (*SessionInfo, error) {
	if req.PlayerName != "" {
		if err := leaderboard.ValidateName(req.PlayerName); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	config, err := s.resolveConfig(req)
	if err != nil {
		return nil, err
	}

	// Let session manager generate a proper 4-character ID
	sess, err := s.sessions.Create("", config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	sess.PlayerName = req.PlayerName
	sess.Stopwatch = score.NewStopwatch(s.now)
	sess.Stopwatch.Start()

	log.Info().
		Str("session", sess.ID).
		Str("config", config.Name).
		Str("player", sess.PlayerName).
		Msg("session created")

	info := s.sessionInfo(sess)
	// prefer the identifier the caller used
	if req.ConfigName != "" {
		info.ConfigName = req.ConfigName
	}
	return info, nil
}

func (s *gameServiceImpl) sessionInfo(sess *Session) *SessionInfo {
	info := &SessionInfo{
		ID:             sess.ID,
		ConfigName:     s.getConfigID(sess.Config.Name),
		PlayerName:     sess.PlayerName,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		Result:         sess.Result,
		ScoreSubmitted: sess.Submitted != nil,
		GameState:      sess.Engine.GetState(),
		GameConfig:     sess.Engine.GetConfig(),
	}
	if sess.Stopwatch != nil {
		info.ElapsedSeconds = int(sess.Stopwatch.Elapsed() / time.Second)
	}
	return info
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	return s.sessionInfo(sess), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	log.Info().Str("session", sessionID).Msg("session deleted")
	return nil
}

// Reveal uncovers a cell
func (s *gameServiceImpl) Reveal(ctx context.Context, sessionID string, row, col int) (*ActionResult, error) {
	return s.act(sessionID, engine.ActionReveal, row, col)
}

// Flag marks a cell
func (s *gameServiceImpl) Flag(ctx context.Context, sessionID string, row, col int) (*ActionResult, error) {
	return s.act(sessionID, engine.ActionFlag, row, col)
}

// Unflag clears a flag
func (s *gameServiceImpl) Unflag(ctx context.Context, sessionID string, row, col int) (*ActionResult, error) {
	return s.act(sessionID, engine.ActionUnflag, row, col)
}

func (s *gameServiceImpl) act(sessionID string, action engine.Action, row, col int) (*ActionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	pos := engine.Position{Row: row, Col: col}
	revealed, err := sess.Engine.Apply(action, row, col)
	if err != nil {
		return nil, fmt.Errorf("%s rejected: %w", action, err)
	}

	state := sess.Engine.GetState()
	now := s.now()
	result := &ActionResult{
		Success:   true,
		Action:    action,
		Position:  pos,
		Revealed:  revealed,
		GameState: state,
		Message:   state.Message,
		Events: []GameEvent{{
			Type:      string(action),
			Message:   actionEventMessage(action, pos, len(revealed)),
			Timestamp: now,
			Position:  pos,
		}},
	}

	if state.GameOver && sess.Result == nil {
		result.Result = s.finish(sess, state)
		eventType := "defeat"
		if state.Victory {
			eventType = "victory"
		}
		result.Events = append(result.Events, GameEvent{
			Type:      eventType,
			Message:   state.Message,
			Timestamp: now,
			Position:  pos,
		})
	}
	return result, nil
}

func actionEventMessage(action engine.Action, pos engine.Position, revealed int) string {
	switch action {
	case engine.ActionReveal:
		if revealed == 1 {
			return fmt.Sprintf("Revealed %s", pos)
		}
		return fmt.Sprintf("Revealed %d cells around %s", revealed, pos)
	case engine.ActionFlag:
		return fmt.Sprintf("Flagged %s", pos)
	default:
		return fmt.Sprintf("Unflagged %s", pos)
	}
}

// finish stops the clock and scores the game
func (s *gameServiceImpl) finish(sess *Session, state *engine.GameState) *score.Breakdown {
	var elapsed time.Duration
	if sess.Stopwatch != nil {
		elapsed = sess.Stopwatch.Stop()
	}
	b := score.Compute(state.Mines, state.Difficulty, elapsed, state.Victory)
	sess.Result = &b

	log.Info().
		Str("session", sess.ID).
		Bool("victory", b.Victory).
		Int("score", b.Total).
		Dur("elapsed", elapsed).
		Msg("game finished")
	return &b
}

// Reset starts a new game in the session with the same configuration
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	state, err := sess.Engine.Reset()
	if err != nil {
		return nil, fmt.Errorf("failed to reset session %s: %w", sessionID, err)
	}
	if sess.Stopwatch == nil {
		sess.Stopwatch = score.NewStopwatch(s.now)
	}
	sess.Stopwatch.Start()
	sess.Result = nil
	sess.Submitted = nil

	log.Debug().Str("session", sessionID).Msg("game reset")
	return state, nil
}

// GetGameState retrieves the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Engine.GetState(), nil
}

// GetMoveHistory returns paginated move history
func (s *gameServiceImpl) GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	history := sess.Engine.GetMoveHistory()
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order != "asc" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	moves := []engine.MoveHistoryEntry{}
	if start < total {
		if opts.Order == "desc" {
			// most recent first
			for i := total - 1 - start; i >= total-end; i-- {
				moves = append(moves, history[i])
			}
		} else {
			moves = append(moves, history[start:end]...)
		}
	}

	return &HistoryResponse{
		Moves:       moves,
		TotalMoves:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// ListConfigs returns available game configurations
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific game configuration
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a game configuration to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	return s.configs.SaveConfig(configName, config)
}

// SubmitScore records the score of a won game. The name falls back to the
// one given when the session was created.
func (s *gameServiceImpl) SubmitScore(ctx context.Context, sessionID, playerName string) (*leaderboard.Entry, error) {
	if s.scores == nil {
		return nil, ErrLeaderboardDisabled
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Result == nil || !sess.Result.Victory {
		return nil, ErrGameNotWon
	}
	if sess.Submitted != nil {
		return nil, ErrScoreSubmitted
	}

	if playerName == "" {
		playerName = sess.PlayerName
	}
	if err := leaderboard.ValidateName(playerName); err != nil {
		return nil, err
	}

	entry := leaderboard.NewEntry(playerName, sess.Result.Total, sess.Engine.GetState().Difficulty)
	if err := s.scores.Append(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to record score: %w", err)
	}
	sess.Submitted = &entry

	log.Info().
		Str("session", sessionID).
		Str("player", entry.Name).
		Int("score", entry.Score).
		Msg("score recorded")
	return &entry, nil
}

// Leaderboard returns the n best scores, TopN when n is not positive
func (s *gameServiceImpl) Leaderboard(ctx context.Context, n int) ([]leaderboard.Entry, error) {
	if s.scores == nil {
		return nil, ErrLeaderboardDisabled
	}
	if n <= 0 {
		n = leaderboard.TopN
	}
	return s.scores.Top(ctx, n)
}
