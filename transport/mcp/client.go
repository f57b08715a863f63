package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/mcp-training/minesweeper/game/engine"
	"github.com/wricardo/mcp-training/minesweeper/game/leaderboard"
	"github.com/wricardo/mcp-training/minesweeper/game/score"
	"github.com/wricardo/mcp-training/minesweeper/game/service"
)

// ServerName and ServerVersion identify the MCP server to clients
const (
	ServerName    = "Minefield"
	ServerVersion = "1.0.0"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// APIError is a non-2xx answer from the REST API
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("API error: %d", e.Status)
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		ServerName,
		ServerVersion,
		server.WithToolCapabilities(true),
		server.WithInstructions(`Minefield - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Reveal every safe cell of a square grid without revealing a mine.

AVAILABLE TOOLS:
- create_session: Start a game (preset config, or custom level 0 with a size)
- list_sessions / get_session: Inspect games in progress
- game_state: Board, counters and status
- reveal / flag / unflag: Act on one cell (row, col are 0-based)
- reset_game: New grid with the same configuration
- move_history: Past actions
- list_configs: Presets and custom configurations
- submit_score / leaderboard: Record a won game and see the best scores
- game_instructions: Rules and board legend`),
	)

	c.registerTools()
}

func sessionArg() mcp.ToolOption {
	return mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID"))
}

func cellTool(name, description string) mcp.Tool {
	return mcp.NewTool(name,
		mcp.WithDescription(description),
		sessionArg(),
		mcp.WithNumber("row", mcp.Required(), mcp.Description("Row index, 0-based")),
		mcp.WithNumber("col", mcp.Required(), mcp.Description("Column index, 0-based")),
		mcp.WithString("intent", mcp.Description("Brief explanation of why this cell was chosen")),
	)
}

func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.NewTool("create_session",
		mcp.WithDescription("Create a new game session. Pick a config by name, or a level (1-5 presets, 0 custom with size)."),
		mcp.WithString("config_name", mcp.Description("Config to use, see list_configs (optional)")),
		mcp.WithNumber("level", mcp.Description("Difficulty 0-5; 0 needs size")),
		mcp.WithNumber("size", mcp.Description("Grid side for level 0, 5-99")),
		mcp.WithString("player_name", mcp.Description("Name used when recording the score")),
	), c.handleCreateSession)

	c.mcpServer.AddTool(mcp.NewTool("list_sessions",
		mcp.WithDescription("List all active game sessions"),
	), c.handleListSessions)

	c.mcpServer.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Get details of a specific session"),
		sessionArg(),
	), c.handleGetSession)

	// Game operations
	c.mcpServer.AddTool(mcp.NewTool("game_state",
		mcp.WithDescription("Get the current board and counters"),
		sessionArg(),
	), c.handleGameState)

	c.mcpServer.AddTool(cellTool("reveal", "Reveal a hidden cell. A mine ends the game; an empty cell also uncovers its neighbours."),
		c.actionHandler(engine.ActionReveal))
	c.mcpServer.AddTool(cellTool("flag", "Flag a hidden cell as a suspected mine"),
		c.actionHandler(engine.ActionFlag))
	c.mcpServer.AddTool(cellTool("unflag", "Remove a flag"),
		c.actionHandler(engine.ActionUnflag))

	c.mcpServer.AddTool(mcp.NewTool("reset_game",
		mcp.WithDescription("Start over on a fresh grid with the same configuration"),
		sessionArg(),
	), c.handleReset)

	c.mcpServer.AddTool(mcp.NewTool("move_history",
		mcp.WithDescription("Get the action history of a session"),
		sessionArg(),
		mcp.WithNumber("page", mcp.Description("Page number")),
		mcp.WithNumber("limit", mcp.Description("Items per page")),
		mcp.WithString("order", mcp.Description("asc or desc"), mcp.Enum("asc", "desc")),
	), c.handleMoveHistory)

	c.mcpServer.AddTool(mcp.NewTool("list_configs",
		mcp.WithDescription("List available game configurations"),
	), c.handleListConfigs)

	// Scores
	c.mcpServer.AddTool(mcp.NewTool("submit_score",
		mcp.WithDescription("Record the score of a won game on the leaderboard"),
		sessionArg(),
		mcp.WithString("name", mcp.Description("Player name; defaults to the session's player")),
	), c.handleSubmitScore)

	c.mcpServer.AddTool(mcp.NewTool("leaderboard",
		mcp.WithDescription("Show the best recorded scores"),
		mcp.WithNumber("n", mcp.Description("How many entries, default 10")),
	), c.handleLeaderboard)

	c.mcpServer.AddTool(mcp.NewTool("game_instructions",
		mcp.WithDescription("Get the rules and the board legend"),
	), c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// apiCall performs one REST call and decodes the JSON answer into result
func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		return &APIError{Status: resp.StatusCode, Message: errResp["error"]}
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

func sessionPath(sessionID string, parts ...string) string {
	p := "/api/sessions/" + url.PathEscape(sessionID)
	for _, part := range parts {
		p += "/" + part
	}
	return p
}

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	body := service.CreateSessionRequest{
		ConfigName: request.GetString("config_name", ""),
		Size:       request.GetInt("size", 0),
		PlayerName: request.GetString("player_name", ""),
	}
	if _, ok := args["level"]; ok {
		level := request.GetInt("level", 0)
		body.Level = &level
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nConfig: %s\n", session.ID, session.ConfigName)
	if session.GameState != nil {
		result += "\n" + formatGameState(session.GameState)
	}
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}
	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		status := "in progress"
		if s.GameState != nil && s.GameState.GameOver {
			status = "lost"
			if s.GameState.Victory {
				status = "won"
			}
		}
		fmt.Fprintf(&b, "- %s (Config: %s, %s, Created: %s)\n",
			s.ID, s.ConfigName, status, s.CreatedAt.Format("15:04:05"))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) actionHandler(action engine.Action) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sessionID, err := request.RequireString("session_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		row, err := request.RequireInt("row")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		col, err := request.RequireInt("col")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		body := map[string]int{"row": row, "col": col}
		var result service.ActionResult
		if err := c.apiCall(ctx, "POST", sessionPath(sessionID, string(action)), body, &result); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("✗ %s %s refused: %v", action, engine.Position{Row: row, Col: col}, err)), nil
		}
		return mcp.NewToolResultText(formatActionResult(&result)), nil
	}
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var response struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "reset"), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("%s\n\n%s", response.Message, formatGameState(response.State))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleMoveHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	params := url.Values{}
	if page := request.GetInt("page", 0); page > 0 {
		params.Set("page", strconv.Itoa(page))
	}
	if limit := request.GetInt("limit", 0); limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if order := request.GetString("order", ""); order != "" {
		params.Set("order", order)
	}

	path := sessionPath(sessionID, "history")
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Configurations:\n\n")
	for _, config := range configs {
		kind := "file " + config.Filename
		if config.BuiltIn {
			kind = "built-in"
		}
		fmt.Fprintf(&b, "• %s (%s)\n  %s\n  Level: %d, Grid: %dx%d\n\n",
			config.ConfigID, kind, config.Description, config.Level, config.Size, config.Size)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleSubmitScore(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	body := map[string]string{"name": request.GetString("name", "")}
	var entry leaderboard.Entry
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "score"), body, &entry); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Recorded %d points for %s (level %d)", entry.Score, entry.Name, entry.Difficulty)), nil
}

func (c *Client) handleLeaderboard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := "/api/leaderboard"
	if n := request.GetInt("n", 0); n > 0 {
		path += "?n=" + strconv.Itoa(n)
	}

	var response struct {
		Entries []leaderboard.Entry `json:"entries"`
	}
	if err := c.apiCall(ctx, "GET", path, nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatLeaderboard(response.Entries)), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(instructions), nil
}

const instructions = `Minefield - Complete Instructions

GAME OBJECTIVE:
Reveal every cell that does not hide a mine. Revealing a mine loses the game.

BOARD LEGEND:
• ? - hidden cell
• F - flagged cell (your guess that it is a mine)
• * - revealed cell with no neighbouring mine
• 1-8 - revealed cell and how many of its 8 neighbours are mines
• X - mine (only shown in the answer grid once the game is over)

Rows and columns are numbered from 00 in the board header; tools take them
as 0-based integers.

ACTIONS:
• reveal(row, col): uncover a hidden or flagged cell. If it is empty (*),
  its direct neighbours are uncovered too.
• flag(row, col): mark a hidden cell. Flagged cells cannot be revealed by
  mistake; unflag them first.
• unflag(row, col): clear a flag.
Revealed cells cannot be revealed or flagged again.

DIFFICULTY:
Levels 1-5 are presets of growing grid size and mine density; level 0 is a
custom grid of any side from 5 to 99.

SCORING:
A won game is worth 100 points per mine plus a time bonus that shrinks every
minute. Lost games score 0. Use submit_score after a victory to record it.

STRATEGY:
1. Start with a reveal far from the edges.
2. A number equal to the count of its hidden neighbours means they are all mines: flag them.
3. A number already matched by flags means its other hidden neighbours are safe.
4. Check game_state after each action; its answer grid appears when the game ends.`

func formatSessionInfo(session *service.SessionInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Session: %s\n", session.ID)
	fmt.Fprintf(&b, "Config: %s\n", session.ConfigName)
	if session.PlayerName != "" {
		fmt.Fprintf(&b, "Player: %s\n", session.PlayerName)
	}
	fmt.Fprintf(&b, "Created: %s\n", session.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Last Accessed: %s\n", session.LastAccessedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Elapsed: %s\n", score.FormatDuration(time.Duration(session.ElapsedSeconds)*time.Second))
	if session.Result != nil {
		b.WriteString(formatBreakdown(session.Result))
		if session.ScoreSubmitted {
			b.WriteString("Score recorded on the leaderboard\n")
		}
	}
	if session.GameState != nil {
		b.WriteString("\n" + formatGameState(session.GameState))
	}
	return b.String()
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Grid: %dx%d, Level: %d, Mines: %d (%.1f%%)\n",
		state.Size, state.Size, state.Difficulty, state.Mines, state.Density*100)
	fmt.Fprintf(&b, "Revealed: %d/%d, Flags: %d\n", state.RevealedCells, state.SafeCells, state.Flags)

	switch {
	case state.Victory:
		b.WriteString("Status: 🎉 VICTORY!\n")
	case state.GameOver:
		b.WriteString("Status: 💀 GAME OVER\n")
	default:
		b.WriteString("Status: in progress\n")
	}

	if state.Message != "" {
		fmt.Fprintf(&b, "Message: %s\n", state.Message)
	}

	if len(state.Board) > 0 {
		b.WriteString("\nBoard:\n")
		b.WriteString(engine.FormatGrid(state.Board))
	}
	if len(state.Answer) > 0 {
		b.WriteString("\nAnswer:\n")
		b.WriteString(engine.FormatGrid(state.Answer))
	}
	return b.String()
}

func formatActionResult(result *service.ActionResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✓ %s %s\n", result.Action, result.Position)
	if len(result.Revealed) > 0 {
		fmt.Fprintf(&b, "Uncovered %d cell(s)\n", len(result.Revealed))
	}
	for _, event := range result.Events {
		if event.Type == "victory" || event.Type == "defeat" {
			fmt.Fprintf(&b, "Event: %s - %s\n", event.Type, event.Message)
		}
	}
	if result.Result != nil {
		b.WriteString(formatBreakdown(result.Result))
	}
	b.WriteString("\n" + formatGameState(result.GameState))
	return b.String()
}

func formatBreakdown(r *score.Breakdown) string {
	return fmt.Sprintf("Time: %s\nScore: %d (mines %d + time %d)\n",
		score.FormatDuration(r.Elapsed), r.Total, r.MineScore, r.TimeScore)
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Move History (Page %d/%d, Total: %d moves)\n\n",
		history.Page, history.TotalPages, history.TotalMoves)

	for _, move := range history.Moves {
		status := "✓"
		if !move.Success {
			status = "✗"
		}
		line := fmt.Sprintf("%s %s %s", status, move.Action, move.Position)
		if len(move.Revealed) > 0 {
			line += fmt.Sprintf(" uncovered %d", len(move.Revealed))
		}
		if move.Error != "" {
			line += " - " + move.Error
		}
		b.WriteString(line + "\n")
	}

	if history.HasNext {
		b.WriteString("\n(more on the next page)\n")
	}
	return b.String()
}

func formatLeaderboard(entries []leaderboard.Entry) string {
	if len(entries) == 0 {
		return "No scores recorded yet"
	}

	var b strings.Builder
	b.WriteString("Leaderboard:\n\n")
	for i, e := range entries {
		fmt.Fprintf(&b, "%2d. %-20s %7d  level %d  %s\n",
			i+1, e.Name, e.Score, e.Difficulty, e.RecordedAt.Format("2006-01-02"))
	}
	return b.String()
}
