// Package mcp exposes the minefield game to AI agents over the Model Context
// Protocol.
//
// The Client is a thin adapter: every tool call becomes a request against
// the REST API (package api), and the JSON answer is rendered as text with
// the board drawn the same way the terminal game draws it.
//
// MCP Tools:
//   - create_session, list_sessions, get_session
//   - game_state, reveal, flag, unflag, reset_game, move_history
//   - list_configs
//   - submit_score, leaderboard
//   - game_instructions
//
// Rejected actions (a revealed cell, a flagged cell, a finished game) come
// back as tool errors rather than protocol errors so the agent can read the
// reason and pick another cell.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//
//	// Stdio mode
//	server.ServeStdio(client.GetMCPServer())
//
//	// HTTP mode: POST JSON-RPC bodies to HandleMessage
//	resp := client.GetMCPServer().HandleMessage(ctx, body)
package mcp
