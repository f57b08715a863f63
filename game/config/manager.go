package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/wricardo/mcp-training/minesweeper/game/engine"
	"github.com/wricardo/mcp-training/minesweeper/game/service"
)

var (
	ErrConfigNotFound = service.ErrConfigNotFound
	ErrInvalidConfig  = engine.ErrInvalidConfig
	ErrBuiltIn        = errors.New("built-in configurations cannot be overwritten")
)

// DefaultConfigName is the preset used when no config is requested
const DefaultConfigName = "normal"

// extensions are tried in order when resolving a config name to a file
var extensions = []string{".json", ".yaml", ".yml"}

// Manager serves the built-in difficulty presets plus any JSON or YAML
// configurations found in a directory.
type Manager struct {
	configDir     string
	builtIn       map[string]*engine.GameConfig
	defaultConfig *engine.GameConfig
	configs       map[string]*engine.GameConfig
	mu            sync.RWMutex
}

// NewManager creates a new configuration manager. An empty configDir serves
// the built-in presets only.
func NewManager(configDir string) (*Manager, error) {
	if configDir != "" {
		if _, err := os.Stat(configDir); os.IsNotExist(err) {
			return nil, fmt.Errorf("config directory does not exist: %s", configDir)
		}
	}

	m := &Manager{
		configDir: configDir,
		builtIn:   make(map[string]*engine.GameConfig),
		configs:   make(map[string]*engine.GameConfig),
	}
	for _, p := range engine.Presets() {
		m.builtIn[p.Name] = engine.PresetConfig(p)
	}
	m.defaultConfig = m.builtIn[DefaultConfigName]

	return m, nil
}

// LoadConfig loads a configuration by name. Built-in presets take
// precedence over files; file names may be given with or without extension.
func (m *Manager) LoadConfig(name string) (*engine.GameConfig, error) {
	if config, ok := m.builtIn[name]; ok {
		return config, nil
	}

	m.mu.RLock()
	// Check cache first
	if config, exists := m.configs[name]; exists {
		m.mu.RUnlock()
		return config, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if config, exists := m.configs[name]; exists {
		return config, nil
	}

	path, err := m.resolve(name)
	if err != nil {
		return nil, err
	}

	config, err := engine.LoadGameConfig(path)
	if err != nil {
		if errors.Is(err, ErrInvalidConfig) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load config %s: %w", name, err)
	}

	m.configs[name] = config
	return config, nil
}

// resolve maps a config name to an existing file in the config directory
func (m *Manager) resolve(name string) (string, error) {
	if m.configDir == "" || name == "" || strings.ContainsAny(name, `/\`) {
		return "", ErrConfigNotFound
	}

	candidates := []string{name}
	if !hasConfigExt(name) {
		candidates = candidates[:0]
		for _, ext := range extensions {
			candidates = append(candidates, name+ext)
		}
	}

	for _, filename := range candidates {
		path := filepath.Join(m.configDir, filename)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", ErrConfigNotFound
}

func hasConfigExt(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// ListConfigs returns the built-in presets followed by the valid files of
// the config directory.
func (m *Manager) ListConfigs() ([]*service.ConfigInfo, error) {
	var configs []*service.ConfigInfo
	for _, p := range engine.Presets() {
		config := m.builtIn[p.Name]
		configs = append(configs, &service.ConfigInfo{
			ConfigID:    p.Name,
			Name:        config.Name,
			Description: config.Description,
			Level:       p.Level,
			Size:        p.Size,
			BuiltIn:     true,
		})
	}

	if m.configDir == "" {
		return configs, nil
	}

	entries, err := os.ReadDir(m.configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}

	var files []*service.ConfigInfo
	for _, entry := range entries {
		if entry.IsDir() || !hasConfigExt(entry.Name()) {
			continue
		}

		id := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		if _, shadowed := m.builtIn[id]; shadowed {
			log.Warn().Str("file", entry.Name()).Msg("config file shadowed by built-in preset")
			continue
		}

		config, err := m.LoadConfig(entry.Name())
		if err != nil {
			log.Warn().Err(err).Str("file", entry.Name()).Msg("skipping invalid config")
			continue
		}

		files = append(files, &service.ConfigInfo{
			Filename:    entry.Name(),
			ConfigID:    id,
			Name:        config.Name,
			Description: config.Description,
			Level:       config.Level,
			Size:        config.Size,
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].ConfigID < files[j].ConfigID })

	return append(configs, files...), nil
}

// GetDefault returns the default configuration
func (m *Manager) GetDefault() *engine.GameConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultConfig
}

// SetDefault sets the default configuration by name
func (m *Manager) SetDefault(name string) error {
	config, err := m.LoadConfig(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultConfig = config
	return nil
}

// RefreshCache drops cached file configurations so they are re-read from disk
func (m *Manager) RefreshCache() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configs = make(map[string]*engine.GameConfig)
}

// SaveConfig writes a configuration to the config directory. The name's
// extension selects the format; names without one are saved as JSON.
func (m *Manager) SaveConfig(name string, config *engine.GameConfig) error {
	if m.configDir == "" {
		return fmt.Errorf("no config directory configured")
	}
	if err := engine.ValidateGameConfig(config); err != nil {
		return err
	}

	id := strings.TrimSuffix(name, filepath.Ext(name))
	if !hasConfigExt(name) {
		id = name
		name += ".json"
	}
	if _, ok := m.builtIn[id]; ok {
		return fmt.Errorf("%w: %s", ErrBuiltIn, id)
	}
	if id == "" || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid config name %q", name)
	}

	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(config)
	default:
		data, err = json.MarshalIndent(config, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filepath.Join(m.configDir, name), data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	m.mu.Lock()
	m.configs[id] = config
	m.configs[name] = config
	m.mu.Unlock()

	log.Info().Str("config", name).Msg("config saved")
	return nil
}
