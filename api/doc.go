// Package api provides the HTTP REST API for the minefield game.
//
// Endpoints:
//
// Session Management:
//   - POST /api/sessions - Create a session ({config_name} or {level, size}, optional player_name)
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N&config=ID)
//   - GET /api/sessions/{id} - Session details, elapsed time and final score
//   - DELETE /api/sessions/{id} - Delete a session
//
// Game Operations:
//   - GET /api/sessions/{id}/state - Current game state (answer grid once over)
//   - GET /api/sessions/{id}/board - Text rendering of the board
//   - POST /api/sessions/{id}/reveal - Reveal {row, col}
//   - POST /api/sessions/{id}/flag - Flag {row, col}
//   - POST /api/sessions/{id}/unflag - Unflag {row, col}
//   - POST /api/sessions/{id}/action - Any of the above as {action, row, col}
//   - POST /api/sessions/{id}/reset - New grid, same configuration
//   - GET /api/sessions/{id}/history - Paginated action history
//
// Scores:
//   - POST /api/sessions/{id}/score - Record a won game ({name} optional)
//   - GET /api/leaderboard - Best scores (?n=10)
//
// Configuration:
//   - GET /api/configs - Built-in presets and config files
//   - GET /api/configs/{name} - One configuration
//   - POST /api/configs - Save a configuration (JSON, or YAML with a .yaml filename)
//
// Other:
//   - GET /health
//   - GET /ws?session={id} - Live updates, see package websocket
//
// Error Handling:
//
// Errors are returned as {"error": "message"}. Unknown sessions and configs
// are 404, invalid grids, coordinates and names are 400, moves the game
// refuses (revealed, flagged, game over) and duplicate score submissions are
// 409, and score calls without a leaderboard are 503.
package api
