// Command validate checks the level files in a directory (../configs by
// default). For every .json, .yaml, .yml and .txt level it checks:
//   - the file decodes and passes engine level validation
//   - every crate sits in the area the robot can reach
//   - the level's move script, if any, runs to a final GPS checksum
//
// Usage: go run ./validate [DIR]
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wricardo/mcp-training/warehouse/game/engine"
	"github.com/wricardo/mcp-training/warehouse/game/puzzle"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...any) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) info(format string, args ...any) {
	r.Errors = append(r.Errors, "✓ "+fmt.Sprintf(format, args...))
}

// loadLevel decodes a level file by extension. Plain-text puzzles load as
// narrow levels named after the file.
func loadLevel(filePath string) (*engine.LevelConfig, error) {
	ext := strings.ToLower(filepath.Ext(filePath))
	if ext == ".txt" {
		p, err := puzzle.Load(filePath)
		if err != nil {
			return nil, err
		}
		return p.Level(strings.TrimSuffix(filepath.Base(filePath), ext), false)
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return engine.DecodeLevelConfig(ext, data)
}

// validateConfig loads and validates a single level file.
func validateConfig(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	config, err := loadLevel(filePath)
	if err != nil {
		result.fail("Invalid level file: %v", err)
		return result
	}

	if err := engine.ValidateLevelConfig(config); err != nil {
		result.fail("%v", err)
		return result
	}

	grid, err := engine.BuildGrid(config)
	if err != nil {
		result.fail("%v", err)
		return result
	}

	reach := validateConnectivity(grid)
	if !reach.Valid {
		result.Valid = false
	}
	result.Errors = append(result.Errors, reach.Errors...)
	if !result.Valid {
		return result
	}

	result.info("Name: %s", config.Name)
	result.info("Grid: %dx%d (wide: %t)", grid.Rows(), grid.Cols(), config.Wide)
	result.info("Crates: %d", engine.CountCrates(grid))
	result.info("Starting checksum: %d", engine.GPSChecksum(grid))

	if strings.TrimSpace(config.Moves) == "" {
		result.info("Script: none")
		return result
	}

	moves, err := engine.ParseMoves(config.Moves)
	if err != nil {
		result.fail("Invalid move script: %v", err)
		return result
	}
	sim, err := engine.NewSimulator(grid)
	if err != nil {
		result.fail("%v", err)
		return result
	}
	stats := sim.Run(moves)
	result.info("Script: %d moves, %d blocked, %d pushes", stats.Moves, stats.Blocked, stats.Pushes)
	result.info("Final checksum: %d", engine.GPSChecksum(sim.Grid()))

	return result
}

// validateConnectivity flood-fills from the robot over every non-wall cell
// and reports crates outside the reachable area. Crates count as passable:
// they can be pushed, so only walls split the warehouse.
func validateConnectivity(grid *engine.Grid) ValidationResult {
	result := ValidationResult{
		Valid:  true,
		Errors: []string{},
	}

	robot, err := grid.FindRobot()
	if err != nil {
		result.fail("Cannot validate connectivity: %v", err)
		return result
	}

	visited := map[engine.Position]bool{robot: true}
	queue := []engine.Position{robot}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, dir := range engine.AllDirections {
			next := current.Step(dir)
			if visited[next] || !grid.InBounds(next) || grid.Get(next) == engine.Wall {
				continue
			}
			visited[next] = true
			queue = append(queue, next)
		}
	}

	var unreachable []engine.Position
	total := 0
	for row := 0; row < grid.Rows(); row++ {
		for col := 0; col < grid.Cols(); col++ {
			pos := engine.Position{Row: row, Col: col}
			cell := grid.Get(pos)
			if cell != engine.Box && cell != engine.BoxLeft {
				continue
			}
			total++
			if !visited[pos] {
				unreachable = append(unreachable, pos)
			}
		}
	}

	if len(unreachable) > 0 {
		result.fail("Connectivity failure: %d/%d crates sealed off from the robot", len(unreachable), total)
		for _, pos := range unreachable {
			result.fail("Unreachable: crate at %s", pos)
		}
		return result
	}

	result.info("Connectivity: all %d crates reachable from the robot (%d open cells)", total, len(visited))
	return result
}

// levelFiles lists the level files in dir, sorted by name.
func levelFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".json", ".yaml", ".yml", ".txt":
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// main validates each level file in the directory, printing a concise
// report and exiting with non-zero status if any are invalid.
func main() {
	configDir := "../configs"
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}

	files, err := levelFiles(configDir)
	if err != nil {
		fmt.Printf("Error finding level files: %v\n", err)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validateConfig(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All levels are valid!")
	} else {
		fmt.Println("❌ Some levels have errors")
		os.Exit(1)
	}
}
