package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ValidateLevelConfig validates a level configuration for correctness and playability
func ValidateLevelConfig(config *LevelConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}

	// Validate required fields
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}
	if config.Description == "" {
		return fmt.Errorf("config validation: description is required")
	}

	if len(config.Layout) < MinGridSize || len(config.Layout) > MaxGridSize {
		return fmt.Errorf("config validation: layout must have between %d and %d rows, got %d",
			MinGridSize, MaxGridSize, len(config.Layout))
	}

	width := len(config.Layout[0])
	if width < MinGridSize || width > MaxGridSize {
		return fmt.Errorf("config validation: layout rows must have between %d and %d cells, got %d",
			MinGridSize, MaxGridSize, width)
	}

	robots := 0
	for i, row := range config.Layout {
		if len(row) != width {
			return fmt.Errorf("config validation: row %d must have %d characters to match row 1, got %d",
				i+1, width, len(row))
		}

		for j, char := range row {
			switch char {
			case '.', '#', 'O':
			case '@':
				robots++
			case '[', ']':
				if config.Wide {
					return fmt.Errorf("config validation: wide crate '%c' at row %d, col %d in a layout that is widened on load", char, i+1, j+1)
				}
			default:
				return fmt.Errorf("config validation: invalid character '%c' at row %d, col %d", char, i+1, j+1)
			}

			border := i == 0 || i == len(config.Layout)-1 || j == 0 || j == width-1
			if border && char != '#' {
				return fmt.Errorf("config validation: layout must be enclosed by walls, found '%c' at row %d, col %d", char, i+1, j+1)
			}
		}
	}

	if robots != 1 {
		return fmt.Errorf("config validation: layout must contain exactly one robot (@), got %d", robots)
	}

	grid, err := ParseGrid(config.Layout)
	if err != nil {
		return fmt.Errorf("config validation: %v", err)
	}
	if err := grid.CheckPairing(); err != nil {
		return fmt.Errorf("config validation: %v", err)
	}

	if _, err := ParseMoves(config.Moves); err != nil {
		return fmt.Errorf("config validation: moves: %v", err)
	}

	return nil
}

// LoadLevelConfig loads a level configuration from a JSON or YAML file.
// The format is picked from the file extension.
func LoadLevelConfig(filename string) (*LevelConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	config, err := DecodeLevelConfig(filepath.Ext(filename), data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file '%s': %w", filename, err)
	}

	// Validate the loaded configuration
	if err := ValidateLevelConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// DecodeLevelConfig decodes data according to ext (".json", ".yaml", ".yml").
func DecodeLevelConfig(ext string, data []byte) (*LevelConfig, error) {
	var config LevelConfig
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, err
		}
	case ".json", "":
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", ext)
	}
	return &config, nil
}

// DefaultLevelConfig returns the built-in level used when no level files exist.
func DefaultLevelConfig() *LevelConfig {
	config := &LevelConfig{
		Name:        "default",
		Description: "Small warehouse with a single row of crates",
		Layout: []string{
			"########",
			"#..O.O.#",
			"##@.O..#",
			"#...O..#",
			"#.#.O..#",
			"#...O..#",
			"#......#",
			"########",
		},
		Moves: "<^^>>>vv<v>>v<<",
	}
	config.Messages.Welcome = "Welcome to the warehouse! Push the crates around."
	config.Messages.Moved = "Robot moved %s"
	config.Messages.Pushed = "Pushed %d crate cells %s"
	config.Messages.Blocked = "Can't move %s: blocked"
	return config
}

// BuildGrid returns the starting grid for a level, widened when requested.
func BuildGrid(config *LevelConfig) (*Grid, error) {
	layout := config.Layout
	if config.Wide {
		layout = WidenLayout(layout)
	}
	grid, err := ParseGrid(layout)
	if err != nil {
		return nil, err
	}
	if err := grid.CheckPairing(); err != nil {
		return nil, err
	}
	return grid, nil
}

// InitGameStateFromConfig creates a new game state using the provided configuration
func InitGameStateFromConfig(config *LevelConfig) (*GameState, error) {
	if config == nil {
		config = DefaultLevelConfig()
	}

	grid, err := BuildGrid(config)
	if err != nil {
		return nil, err
	}
	robot, err := grid.FindRobot()
	if err != nil {
		return nil, err
	}

	return &GameState{
		Grid:              grid,
		RobotPos:          robot,
		Crates:            CountCrates(grid),
		Checksum:          GPSChecksum(grid),
		Message:           config.Messages.Welcome,
		ConfigName:        config.Name,
		MoveHistory:       []MoveHistoryEntry{},
		CurrentMoves:      []MoveHistoryEntry{},
		CurrentMovesCount: 0,
	}, nil
}
