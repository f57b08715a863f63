package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wricardo/mcp-training/minesweeper/game/engine"
	"github.com/wricardo/mcp-training/minesweeper/game/leaderboard"
	"github.com/wricardo/mcp-training/minesweeper/game/service"
)

// APIError is a non-2xx answer from the game server
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.Status, e.Message)
}

// Client plays one session through the REST API
type Client struct {
	baseURL   string
	sessionID string
	client    *http.Client
}

// NewClient creates a client for the server at baseURL
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SessionID returns the session the client plays
func (c *Client) SessionID() string {
	return c.sessionID
}

func (c *Client) do(ctx context.Context, method, path string, body, result interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		message := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &errResp) == nil && errResp.Error != "" {
			message = errResp.Error
		}
		return &APIError{Status: resp.StatusCode, Message: message}
	}

	if result != nil {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}
	}
	return nil
}

// CreateSession starts a new session and remembers its ID
func (c *Client) CreateSession(ctx context.Context, req service.CreateSessionRequest) (*engine.GameState, error) {
	var session service.SessionInfo
	if err := c.do(ctx, http.MethodPost, "/api/sessions", req, &session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	c.sessionID = session.ID
	return session.GameState, nil
}

// GetState fetches the current game state
func (c *Client) GetState(ctx context.Context) (*engine.GameState, error) {
	var state engine.GameState
	if err := c.do(ctx, http.MethodGet, c.path("state"), nil, &state); err != nil {
		return nil, fmt.Errorf("get state: %w", err)
	}
	return &state, nil
}

// Act performs a reveal, flag or unflag
func (c *Client) Act(ctx context.Context, action engine.Action, pos engine.Position) (*service.ActionResult, error) {
	body := map[string]int{"row": pos.Row, "col": pos.Col}
	var result service.ActionResult
	if err := c.do(ctx, http.MethodPost, c.path(string(action)), body, &result); err != nil {
		return nil, fmt.Errorf("%s %s: %w", action, pos, err)
	}
	return &result, nil
}

// Reset generates a new grid for the session
func (c *Client) Reset(ctx context.Context) (*engine.GameState, error) {
	var resp struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}
	if err := c.do(ctx, http.MethodPost, c.path("reset"), nil, &resp); err != nil {
		return nil, fmt.Errorf("reset: %w", err)
	}
	return resp.State, nil
}

// SubmitScore records the won game under name, or the session's player
// name when empty
func (c *Client) SubmitScore(ctx context.Context, name string) (*leaderboard.Entry, error) {
	var entry leaderboard.Entry
	if err := c.do(ctx, http.MethodPost, c.path("score"), map[string]string{"name": name}, &entry); err != nil {
		return nil, fmt.Errorf("submit score: %w", err)
	}
	return &entry, nil
}

func (c *Client) path(action string) string {
	return fmt.Sprintf("/api/sessions/%s/%s", c.sessionID, action)
}
