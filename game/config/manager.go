package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/wricardo/mcp-training/warehouse/game/engine"
	"github.com/wricardo/mcp-training/warehouse/game/puzzle"
	"github.com/wricardo/mcp-training/warehouse/game/service"
)

var (
	ErrConfigNotFound = service.ErrConfigNotFound
	ErrInvalidConfig  = errors.New("invalid configuration")
)

// levelExts lists the recognised level file extensions in lookup order.
var levelExts = []string{".json", ".yaml", ".yml", ".txt"}

// Manager handles level loading and caching
type Manager struct {
	configDir     string
	defaultConfig *engine.LevelConfig
	configs       map[string]*engine.LevelConfig
	mu            sync.RWMutex
}

// NewManager creates a new configuration manager
func NewManager(configDir string) (*Manager, error) {
	// Ensure config directory exists
	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("config directory does not exist: %s", configDir)
	}

	m := &Manager{
		configDir: configDir,
		configs:   make(map[string]*engine.LevelConfig),
	}

	// Load default config
	if err := m.loadDefaultConfig(); err != nil {
		return nil, fmt.Errorf("failed to load default config: %w", err)
	}

	return m, nil
}

// Dir returns the watched level directory.
func (m *Manager) Dir() string {
	return m.configDir
}

func isLevelFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range levelExts {
		if ext == e {
			return true
		}
	}
	return false
}

// configID strips a level extension from name.
func configID(name string) string {
	if isLevelFile(name) {
		return strings.TrimSuffix(name, filepath.Ext(name))
	}
	return name
}

// findFile returns the path of the level file for id, trying each extension.
func (m *Manager) findFile(name string) (string, error) {
	if isLevelFile(name) {
		path := filepath.Join(m.configDir, name)
		if _, err := os.Stat(path); err != nil {
			return "", err
		}
		return path, nil
	}
	for _, ext := range levelExts {
		path := filepath.Join(m.configDir, name+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", os.ErrNotExist
}

// LoadConfig loads a level by id, with or without its file extension
func (m *Manager) LoadConfig(name string) (*engine.LevelConfig, error) {
	id := configID(name)

	m.mu.RLock()
	// Check cache first
	if config, exists := m.configs[id]; exists {
		m.mu.RUnlock()
		return config, nil
	}
	m.mu.RUnlock()

	// Load from file
	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if config, exists := m.configs[id]; exists {
		return config, nil
	}

	path, err := m.findFile(name)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}

	config, err := readLevel(path, id)
	if err != nil {
		return nil, err
	}

	// Cache the config
	m.configs[id] = config
	return config, nil
}

// readLevel decodes and validates one level file.
func readLevel(path, id string) (*engine.LevelConfig, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".txt" {
		p, err := puzzle.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
		config, err := p.Level(id, false)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config, err := engine.DecodeLevelConfig(ext, data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := engine.ValidateLevelConfig(config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return config, nil
}

// ListConfigs returns information about all available levels
func (m *Manager) ListConfigs() ([]*service.ConfigInfo, error) {
	entries, err := os.ReadDir(m.configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}

	var configs []*service.ConfigInfo
	seen := make(map[string]bool)

	for _, entry := range entries {
		if entry.IsDir() || !isLevelFile(entry.Name()) {
			continue
		}

		id := configID(entry.Name())
		if seen[id] {
			continue
		}

		config, err := m.LoadConfig(entry.Name())
		if err != nil {
			zap.L().Warn("skipping level", zap.String("file", entry.Name()), zap.Error(err))
			continue
		}
		seen[id] = true

		info := &service.ConfigInfo{
			Filename:    entry.Name(),
			ConfigID:    id, // This is the identifier to use for session creation
			Name:        config.Name,
			Description: config.Description,
			Wide:        config.Wide,
			HasScript:   config.Moves != "",
		}
		if grid, err := engine.BuildGrid(config); err == nil {
			info.Rows = grid.Rows()
			info.Cols = grid.Cols()
			info.Crates = engine.CountCrates(grid)
			info.Checksum = engine.GPSChecksum(grid)
		}
		configs = append(configs, info)
	}

	return configs, nil
}

// GetDefault returns the default configuration
func (m *Manager) GetDefault() *engine.LevelConfig {
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

// ReloadConfig drops one level from the cache and reads it again.
func (m *Manager) ReloadConfig(name string) error {
	m.Evict(name)
	_, err := m.LoadConfig(name)
	return err
}

// Evict removes a level from the cache.
func (m *Manager) Evict(name string) {
	m.mu.Lock()
	delete(m.configs, configID(name))
	m.mu.Unlock()
}

// Count returns the number of cached levels.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.configs)
}

// RefreshCache reloads all cached configurations from disk
func (m *Manager) RefreshCache() error {
	m.mu.Lock()
	m.configs = make(map[string]*engine.LevelConfig)
	m.mu.Unlock()

	return m.loadDefaultConfig()
}

// loadDefaultConfig picks classic, then the first listed level, then the
// built-in level.
func (m *Manager) loadDefaultConfig() error {
	config, err := m.LoadConfig("classic")
	if err != nil {
		configs, listErr := m.ListConfigs()
		if listErr != nil || len(configs) == 0 {
			config = engine.DefaultLevelConfig()
		} else if config, err = m.LoadConfig(configs[0].Filename); err != nil {
			config = engine.DefaultLevelConfig()
		}
	}

	m.mu.Lock()
	m.defaultConfig = config
	m.mu.Unlock()
	return nil
}

// SaveConfig validates a level and writes it to disk. The format follows
// the extension of name; names without one are saved as JSON.
func (m *Manager) SaveConfig(name string, config *engine.LevelConfig) error {
	// Validate config before saving
	if err := engine.ValidateLevelConfig(config); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	filename := name
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".json", ".yaml", ".yml":
	case ".txt":
		return fmt.Errorf("%w: puzzle text files are read-only", ErrInvalidConfig)
	default:
		ext = ".json"
		filename = name + ext
	}

	var (
		data []byte
		err  error
	)
	if ext == ".json" {
		data, err = json.MarshalIndent(config, "", "  ")
	} else {
		data, err = yaml.Marshal(config)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	configPath := filepath.Join(m.configDir, filename)
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	// Update cache
	m.mu.Lock()
	m.configs[configID(filename)] = config
	m.mu.Unlock()

	return nil
}
