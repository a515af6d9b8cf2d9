package engine

import "fmt"

// Engine provides the main interface for warehouse operations
type Engine interface {
	// State management
	GetState() *GameState
	SetState(state *GameState) error
	Reset() (*GameState, error)
	GetRobotPosition() Position
	Checksum() int

	// Movement operations
	Move(dir Direction) StepResult
	CanMove(dir Direction) bool
	GetPossibleMoves() []Direction
	BulkMove(moves []Direction) []StepResult
	RunScript() (RunStats, error)

	// Configuration
	GetConfig() *LevelConfig
	SetConfig(config *LevelConfig) error

	// History
	GetMoveHistory() []MoveHistoryEntry
	GetLastMove() *MoveHistoryEntry

	// Local view
	GetLocalView() []string
}

// WarehouseEngine implements the Engine interface on top of a Simulator
type WarehouseEngine struct {
	state  *GameState
	config *LevelConfig
	sim    *Simulator
}

var _ Engine = (*WarehouseEngine)(nil)

// NewEngine creates a new engine with the provided level configuration
func NewEngine(config *LevelConfig) (*WarehouseEngine, error) {
	if err := ValidateLevelConfig(config); err != nil {
		return nil, err
	}

	e := &WarehouseEngine{config: config}
	if err := e.init(); err != nil {
		return nil, err
	}
	return e, nil
}

// NewEngineWithDefaults creates a new engine with the built-in level
func NewEngineWithDefaults() *WarehouseEngine {
	e, err := NewEngine(DefaultLevelConfig())
	if err != nil {
		panic(fmt.Sprintf("engine: default level is invalid: %v", err))
	}
	return e
}

func (e *WarehouseEngine) init() error {
	state, err := InitGameStateFromConfig(e.config)
	if err != nil {
		return err
	}
	return e.SetState(state)
}

// GetState returns the current state
func (e *WarehouseEngine) GetState() *GameState {
	return e.state
}

// SetState replaces the state (used for persistence loading). The simulator
// takes ownership of state.Grid.
func (e *WarehouseEngine) SetState(state *GameState) error {
	if state == nil {
		return fmt.Errorf("state cannot be nil")
	}
	if state.Grid == nil {
		return fmt.Errorf("state has no grid")
	}
	if err := state.Grid.CheckPairing(); err != nil {
		return err
	}
	sim, err := NewSimulator(state.Grid)
	if err != nil {
		return err
	}

	state.RobotPos = sim.Robot()
	state.Crates = CountCrates(state.Grid)
	state.Checksum = GPSChecksum(state.Grid)
	if state.MoveHistory == nil {
		state.MoveHistory = []MoveHistoryEntry{}
	}
	if state.CurrentMoves == nil {
		state.CurrentMoves = []MoveHistoryEntry{}
	}

	e.state = state
	e.sim = sim
	return nil
}

// Reset rebuilds the level from its configuration
func (e *WarehouseEngine) Reset() (*GameState, error) {
	// Preserve cumulative history and totals across resets
	prevHistory := e.state.MoveHistory
	prevTotal := e.state.TotalMoves

	if err := e.init(); err != nil {
		return nil, err
	}

	e.state.MoveHistory = prevHistory
	e.state.TotalMoves = prevTotal
	e.state.CurrentMoves = []MoveHistoryEntry{}
	e.state.CurrentMovesCount = 0

	return e.state, nil
}

// GetRobotPosition returns the current robot position
func (e *WarehouseEngine) GetRobotPosition() Position {
	return e.sim.Robot()
}

// Checksum returns the GPS checksum of the current grid
func (e *WarehouseEngine) Checksum() int {
	return e.state.Checksum
}

// Move applies a single move and records it
func (e *WarehouseEngine) Move(dir Direction) StepResult {
	step := e.sim.Step(dir)
	e.state.recordStep(step, e.config)
	return step
}

// CanMove reports whether a move in dir would succeed, without applying it
func (e *WarehouseEngine) CanMove(dir Direction) bool {
	_, ok := e.sim.Plan(dir)
	return ok
}

// GetPossibleMoves returns all directions that are not blocked
func (e *WarehouseEngine) GetPossibleMoves() []Direction {
	var possible []Direction
	for _, dir := range AllDirections {
		if e.CanMove(dir) {
			possible = append(possible, dir)
		}
	}
	return possible
}

// BulkMove applies moves in order; blocked moves are recorded and skipped.
func (e *WarehouseEngine) BulkMove(moves []Direction) []StepResult {
	results := make([]StepResult, 0, len(moves))
	for _, dir := range moves {
		results = append(results, e.Move(dir))
	}
	return results
}

// RunScript plays the level's scripted move sequence from the current state.
// Script moves are not added to the move history.
func (e *WarehouseEngine) RunScript() (RunStats, error) {
	moves, err := ParseMoves(e.config.Moves)
	if err != nil {
		return RunStats{}, err
	}

	stats := e.sim.Run(moves)
	e.state.RobotPos = e.sim.Robot()
	e.state.Pushes += stats.Pushes
	e.state.Blocked += stats.Blocked
	e.state.Checksum = GPSChecksum(e.state.Grid)
	e.state.Message = fmt.Sprintf("Script finished: %d moves, %d blocked, checksum %d",
		stats.Moves, stats.Blocked, e.state.Checksum)
	return stats, nil
}

// GetConfig returns the current level configuration
func (e *WarehouseEngine) GetConfig() *LevelConfig {
	return e.config
}

// SetConfig sets a new level configuration and resets the state
func (e *WarehouseEngine) SetConfig(config *LevelConfig) error {
	if err := ValidateLevelConfig(config); err != nil {
		return err
	}

	prev := e.config
	e.config = config
	if err := e.init(); err != nil {
		e.config = prev
		return err
	}
	return nil
}

// GetMoveHistory returns the complete move history
func (e *WarehouseEngine) GetMoveHistory() []MoveHistoryEntry {
	return e.state.MoveHistory
}

// GetLastMove returns the last move made, or nil if no moves
func (e *WarehouseEngine) GetLastMove() *MoveHistoryEntry {
	if len(e.state.MoveHistory) == 0 {
		return nil
	}
	return &e.state.MoveHistory[len(e.state.MoveHistory)-1]
}

// GetLocalView returns the 3x3 window around the robot
func (e *WarehouseEngine) GetLocalView() []string {
	return LocalView(e.state.Grid, e.sim.Robot())
}
