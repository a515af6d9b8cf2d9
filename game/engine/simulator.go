package engine

import "fmt"

// Simulator owns a grid and the robot position and applies moves in order.
type Simulator struct {
	grid  *Grid
	robot Position
}

// NewSimulator takes ownership of grid and locates the robot.
func NewSimulator(grid *Grid) (*Simulator, error) {
	robot, err := grid.FindRobot()
	if err != nil {
		return nil, fmt.Errorf("new simulator: %w", err)
	}
	return &Simulator{grid: grid, robot: robot}, nil
}

// Grid returns the grid owned by the simulator.
func (s *Simulator) Grid() *Grid { return s.grid }

// Robot returns the current robot position.
func (s *Simulator) Robot() Position { return s.robot }

// Plan resolves a move without applying it.
func (s *Simulator) Plan(dir Direction) (PushPlan, bool) {
	return ResolveMove(s.grid, s.robot, dir)
}

// Step applies one move. A blocked move leaves the state untouched.
func (s *Simulator) Step(dir Direction) StepResult {
	result := StepResult{Direction: dir, From: s.robot, To: s.robot}

	plan, blockedAt := resolve(s.grid, s.robot, dir)
	if blockedAt != nil {
		result.BlockedAt = blockedAt
		return result
	}

	s.robot = ApplyPush(s.grid, s.robot, dir, plan)
	result.To = s.robot
	result.Moved = true
	result.Pushed = len(plan)
	return result
}

// Run applies every move in order.
func (s *Simulator) Run(moves []Direction) RunStats {
	var stats RunStats
	for _, dir := range moves {
		stats.add(s.Step(dir))
	}
	return stats
}

func (st *RunStats) add(r StepResult) {
	st.Moves++
	if !r.Moved {
		st.Blocked++
		return
	}
	st.Moved++
	if r.Pushed > 0 {
		st.Pushes++
	}
}
