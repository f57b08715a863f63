// Package engine provides the core game logic for the minefield game.
//
// The engine package implements the game mechanics including:
//   - Difficulty levels and mine density sampling
//   - Mine placement and neighbour counts
//   - Reveal, flag and unflag actions on the player overlay
//   - Victory and defeat detection
//   - Configuration loading and validation
//
// Core Types:
//
// Minefield holds the two layers of a grid: the ground truth (Ground) and
// what the player sees (Tile). The Engine interface, implemented by
// GameEngine, wraps a Minefield with a GameConfig, player messages and a
// move history, and produces serialisable GameState snapshots.
//
// Usage:
//
//	config, err := engine.LoadGameConfig("configs/tiny.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameEngine, err := engine.NewEngine(config)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	revealed, err := gameEngine.Reveal(2, 3)
//	state := gameEngine.GetState()
//
// Game Rules:
//
// A reveal on a mine ends the game in defeat. A reveal on a cell with no
// neighbouring mines also reveals its eight neighbours, but only one ring
// deep. The game is won once every safe cell is revealed; mines do not need
// to be flagged.
//
// A Minefield is not safe for concurrent use.
package engine
