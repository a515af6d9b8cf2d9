package service

import (
	"time"

	"github.com/wricardo/mcp-training/warehouse/game/engine"
)

// Event types reported in move results
const (
	EventMove    = "move"
	EventPush    = "push"
	EventBlocked = "blocked"
	EventReset   = "reset"
	EventScript  = "script"
)

// Stop reason codes for bulk moves
const (
	StopBlocked = "blocked"
)

// SessionInfo provides information about a warehouse session
type SessionInfo struct {
	ID             string              `json:"id"`
	ConfigName     string              `json:"config_name"`
	CreatedAt      time.Time           `json:"created_at"`
	LastAccessedAt time.Time           `json:"last_accessed_at"`
	GameState      *engine.GameState   `json:"game_state"`
	GameConfig     *engine.LevelConfig `json:"game_config"`
}

// MoveResult contains the result of a move operation
type MoveResult struct {
	Success     bool              `json:"success"`
	GameState   *engine.GameState `json:"game_state"`
	Message     string            `json:"message"`
	Events      []GameEvent       `json:"events,omitempty"`
	Step        *StepInfo         `json:"step,omitempty"`
	AttemptedTo *AttemptInfo      `json:"attempted_to,omitempty"`
}

// BulkMoveOptions controls a bulk move call
type BulkMoveOptions struct {
	Reset       bool `json:"reset"`
	StopOnBlock bool `json:"stop_on_block"`
}

// BulkMoveResult contains the result of multiple moves
type BulkMoveResult struct {
	// Summary
	MovesExecuted  int               `json:"moves_executed"`  // moves that changed the grid
	MovesProcessed int               `json:"moves_processed"` // moves attempted, blocked ones included
	RequestedMoves int               `json:"requested_moves"`
	Blocked        int               `json:"blocked"`
	Pushes         int               `json:"pushes"`
	Success        bool              `json:"success"` // true when no move was blocked
	GameState      *engine.GameState `json:"game_state"`
	Events         []GameEvent       `json:"events"`
	StoppedReason  string            `json:"stopped_reason,omitempty"`
	StopReasonCode string            `json:"stop_reason_code,omitempty"`
	StoppedOnMove  int               `json:"stopped_on_move,omitempty"` // 1-based
	Truncated      bool              `json:"truncated,omitempty"`
	Limit          int               `json:"limit,omitempty"`

	// Start/end snapshot
	StartPos      engine.Position `json:"start_pos"`
	EndPos        engine.Position `json:"end_pos"`
	StartChecksum int             `json:"start_checksum"`
	EndChecksum   int             `json:"end_checksum"`

	// Per-step compact trace (only for this call)
	Steps []StepInfo `json:"steps,omitempty"`

	// First blocked move
	AttemptedTo *AttemptInfo `json:"attempted_to,omitempty"`

	Message       string   `json:"message,omitempty"`
	PossibleMoves []string `json:"possible_moves,omitempty"`
	LocalView3x3  []string `json:"local_view_3x3,omitempty"`
}

// RunResult reports a played level script
type RunResult struct {
	Stats     engine.RunStats   `json:"stats"`
	Checksum  int               `json:"checksum"`
	Script    string            `json:"script"`
	GameState *engine.GameState `json:"game_state"`
	Events    []GameEvent       `json:"events"`
}

// StepInfo is a compact record for each move in a call
type StepInfo struct {
	Idx     int             `json:"idx"`
	Dir     string          `json:"dir"`
	From    engine.Position `json:"from"`
	To      engine.Position `json:"to"`
	Success bool            `json:"success"`
	Pushed  int             `json:"pushed,omitempty"`
}

// AttemptInfo details the cell the robot tried to enter on a blocked move
// and the wall that stopped the chain
type AttemptInfo struct {
	Row       int              `json:"row"`
	Col       int              `json:"col"`
	CellChar  string           `json:"cell_char"`
	CellType  string           `json:"cell_type"`
	BlockedAt *engine.Position `json:"blocked_at,omitempty"`
}

// GameEvent represents an event that occurred during play
type GameEvent struct {
	Type      string          `json:"type"` // "move", "push", "blocked", "reset", "script"
	Message   string          `json:"message"`
	Timestamp time.Time       `json:"timestamp"`
	Position  engine.Position `json:"position"`
}

// HistoryOptions configures move history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated move history
type HistoryResponse struct {
	Moves       []engine.MoveHistoryEntry `json:"moves"`
	TotalMoves  int                       `json:"total_moves"`
	Page        int                       `json:"page"`
	PageSize    int                       `json:"page_size"`
	TotalPages  int                       `json:"total_pages"`
	HasNext     bool                      `json:"has_next"`
	HasPrevious bool                      `json:"has_previous"`
}

// ConfigInfo provides information about a level
type ConfigInfo struct {
	Filename    string `json:"filename"`
	ConfigID    string `json:"config_id"` // The identifier to use for session creation
	Name        string `json:"name"`      // Display name
	Description string `json:"description"`
	Rows        int    `json:"rows"`
	Cols        int    `json:"cols"` // after widening
	Crates      int    `json:"crates"`
	Checksum    int    `json:"checksum"` // of the starting layout
	Wide        bool   `json:"wide"`
	HasScript   bool   `json:"has_script"`
}
