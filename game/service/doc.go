// Package service provides the business logic layer for the minefield game.
//
// The service package implements:
//   - Multi-session game management
//   - Configuration lookup by name, preset level or custom size
//   - Reveal, flag and unflag processing with game events
//   - Game timing, final scores and leaderboard submission
//   - Move history paging
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager manages game configuration loading and validation.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the game engine. Each session owns its own engine and stopwatch. Engines are
// not safe for concurrent use, so the service serialises every action behind
// a single lock.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr, _ := config.NewManager("configs")
//	store, _ := leaderboard.Open("file", "scores")
//	gameService := service.NewGameService(sessionMgr, configMgr, service.WithLeaderboard(store))
//
//	info, err := gameService.CreateSession(ctx, service.CreateSessionRequest{ConfigName: "easy"})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := gameService.Reveal(ctx, info.ID, 3, 4)
//
// Errors:
//
// Unknown sessions wrap ErrSessionNotFound. Rejected actions wrap the engine
// sentinels (engine.ErrAlreadyRevealed and friends) and invalid grids wrap
// engine.ErrInvalidConfig, so callers can map them with errors.Is.
package service
