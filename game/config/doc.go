// Package config provides configuration management for the minefield game.
//
// The config package handles:
//   - The five built-in difficulty presets
//   - Loading custom configurations from JSON or YAML files
//   - Configuration validation through the engine
//   - Default configuration management
//   - Configuration discovery and listing
//
// Configuration Format:
//
// A configuration names a difficulty level. Levels 1 to 5 use the built-in
// grid sizes and mine densities. Level 0 is a custom grid whose size is
// given explicitly, optionally with a fixed list of mine positions:
//
//	name: corners
//	description: Four mines, one per corner
//	level: 0
//	size: 9
//	mines:
//	  - {row: 0, col: 0}
//	  - {row: 0, col: 8}
//	  - {row: 8, col: 0}
//	  - {row: 8, col: 8}
//	messages:
//	  welcome: Mind the corners!
//
// Available Configurations:
//
//   - very_easy, easy: 15x15 and 20x20 grids with 12.5% to 15% mines
//   - normal: 25x25 with 15% to 20% mines (the default)
//   - hard: 30x30 with 20% to 25% mines
//   - very_hard: 35x35 with 25% to 35% mines
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//
//	// Load specific configuration
//	gameConfig, err := manager.LoadConfig("easy")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// List available configurations
//	configs, err := manager.ListConfigs()
package config
