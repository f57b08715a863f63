package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultMessages returns the text used for any message a config leaves empty
func DefaultMessages() Messages {
	return Messages{
		Welcome:         "Welcome to the minefield! Reveal every safe cell without hitting a mine.",
		Revealed:        "Cell revealed.",
		Flagged:         "Flag placed.",
		Unflagged:       "Flag removed.",
		AlreadyRevealed: "That cell is already revealed.",
		BlockedByFlag:   "That cell is flagged. Unflag it before revealing.",
		AlreadyFlagged:  "That cell is already flagged.",
		NotFlagged:      "That cell is not flagged.",
		Victory:         "Victory! Every safe cell has been revealed.",
		Defeat:          "Boom! You hit a mine. Game over.",
	}
}

// ValidateGameConfig checks that a configuration can generate a playable grid
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return &ConfigError{Reason: "config is nil"}
	}
	if config.Name == "" {
		return &ConfigError{Level: config.Level, Size: config.Size, Reason: "name is required"}
	}
	if config.Level < MinLevel || config.Level > MaxLevel {
		return fmt.Errorf("config validation: %w", &ConfigError{Level: config.Level, Size: config.Size})
	}

	if config.Level != CustomLevel {
		if len(config.Mines) > 0 {
			return fmt.Errorf("config validation: %w", &ConfigError{Level: config.Level,
				Reason: "a fixed mine layout needs the custom level 0"})
		}
		return nil
	}

	if config.Size < MinGridSize || config.Size > MaxGridSize {
		return fmt.Errorf("config validation: %w", &ConfigError{Level: config.Level, Size: config.Size})
	}
	if len(config.Mines) > 0 {
		// A throwaway grid runs the same bounds and duplicate checks as the real one.
		if err := NewMinefield(WithSeed(0)).ConfigureMines(config.Size, config.Mines); err != nil {
			return fmt.Errorf("config validation: %w", err)
		}
	}
	return nil
}

// withDefaults returns a copy of the config whose empty messages are filled in
func withDefaults(config *GameConfig) *GameConfig {
	c := *config
	c.Mines = append([]Position(nil), config.Mines...)

	d := DefaultMessages()
	fill := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}
	fill(&c.Messages.Welcome, d.Welcome)
	fill(&c.Messages.Revealed, d.Revealed)
	fill(&c.Messages.Flagged, d.Flagged)
	fill(&c.Messages.Unflagged, d.Unflagged)
	fill(&c.Messages.AlreadyRevealed, d.AlreadyRevealed)
	fill(&c.Messages.BlockedByFlag, d.BlockedByFlag)
	fill(&c.Messages.AlreadyFlagged, d.AlreadyFlagged)
	fill(&c.Messages.NotFlagged, d.NotFlagged)
	fill(&c.Messages.Victory, d.Victory)
	fill(&c.Messages.Defeat, d.Defeat)
	return &c
}

// PresetConfig builds the configuration of a built-in level
func PresetConfig(p Preset) *GameConfig {
	config := &GameConfig{
		Name:  p.Name,
		Level: p.Level,
		Description: fmt.Sprintf("%dx%d grid, %.2f%%-%.2f%% mines",
			p.Size, p.Size, p.Density.Min()*100, p.Density.Max()*100),
		Messages: DefaultMessages(),
	}
	return config
}

// ParseGameConfig decodes a configuration. Files ending in .yaml or .yml are
// read as YAML, anything else as JSON.
func ParseGameConfig(filename string, data []byte) (*GameConfig, error) {
	var config GameConfig
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config %s: %w", filename, err)
		}
	default:
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config %s: %w", filename, err)
		}
	}

	if err := ValidateGameConfig(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

// LoadGameConfig reads and validates a configuration file
func LoadGameConfig(filename string) (*GameConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return ParseGameConfig(filename, data)
}
