package engine

import (
	"fmt"
	"strings"
	"time"
)

// recordStep updates counters, message and history after a move.
func (gs *GameState) recordStep(step StepResult, config *LevelConfig) {
	switch {
	case !step.Moved:
		gs.Blocked++
		gs.Message = fmt.Sprintf("Can't move %s: wall at %s", step.Direction, step.BlockedAt)
		if config.Messages.Blocked != "" {
			gs.Message = formatMessage(config.Messages.Blocked, step.Direction.String())
		}
	case step.Pushed > 0:
		gs.Pushes++
		gs.Message = fmt.Sprintf("Pushed %d crate cells %s", step.Pushed, step.Direction)
		if config.Messages.Pushed != "" {
			gs.Message = formatMessage(config.Messages.Pushed, step.Pushed, step.Direction.String())
		}
	default:
		gs.Message = fmt.Sprintf("Robot moved %s", step.Direction)
		if config.Messages.Moved != "" {
			gs.Message = formatMessage(config.Messages.Moved, step.Direction.String())
		}
	}

	gs.RobotPos = step.To
	if step.Pushed > 0 {
		gs.Checksum = GPSChecksum(gs.Grid)
	}
	gs.AddMoveToHistory(step)
}

// formatMessage fills a level message template. Templates without verbs are
// returned with %% unescaped.
func formatMessage(template string, args ...any) string {
	verbs := 0
	for i := 0; i < len(template)-1; i++ {
		if template[i] == '%' {
			if template[i+1] == '%' {
				i++
				continue
			}
			verbs++
		}
	}
	if verbs == 0 {
		return strings.ReplaceAll(template, "%%", "%")
	}
	if verbs < len(args) {
		args = args[len(args)-verbs:]
	}
	return fmt.Sprintf(template, args...)
}

// AddMoveToHistory adds a move to the session's move history
func (gs *GameState) AddMoveToHistory(step StepResult) {
	entry := MoveHistoryEntry{
		Action:       step.Direction.String(),
		FromPosition: step.From,
		ToPosition:   step.To,
		Pushed:       step.Pushed,
		Timestamp:    time.Now().Unix(),
		Success:      step.Moved,
		MoveNumber:   gs.TotalMoves + 1,
	}
	// Append to cumulative history (never cleared by reset) and increment total
	gs.MoveHistory = append(gs.MoveHistory, entry)
	gs.TotalMoves++

	// Append to current segment history and increment its counter
	gs.CurrentMoves = append(gs.CurrentMoves, entry)
	gs.CurrentMovesCount++
}
