package engine

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Cell is the content of a single grid coordinate.
type Cell uint8

const (
	Empty Cell = iota
	Wall
	Robot
	Box
	BoxLeft
	BoxRight
)

const (
	// Validation constants
	MinGridSize  = 3
	MaxGridSize  = 200
	MaxBulkMoves = 1000
)

var (
	ErrInvalidCell      = errors.New("invalid cell character")
	ErrInvalidDirection = errors.New("invalid direction")
)

// ParseCell maps a layout character to its cell.
func ParseCell(ch rune) (Cell, error) {
	switch ch {
	case '.':
		return Empty, nil
	case '#':
		return Wall, nil
	case '@':
		return Robot, nil
	case 'O':
		return Box, nil
	case '[':
		return BoxLeft, nil
	case ']':
		return BoxRight, nil
	default:
		return Empty, fmt.Errorf("%w: %q", ErrInvalidCell, ch)
	}
}

// Rune returns the layout character for the cell.
func (c Cell) Rune() rune {
	switch c {
	case Empty:
		return '.'
	case Wall:
		return '#'
	case Robot:
		return '@'
	case Box:
		return 'O'
	case BoxLeft:
		return '['
	case BoxRight:
		return ']'
	default:
		panic(fmt.Sprintf("engine: unknown cell %d", uint8(c)))
	}
}

// String returns a lower-case name, used in API responses.
func (c Cell) String() string {
	switch c {
	case Empty:
		return "empty"
	case Wall:
		return "wall"
	case Robot:
		return "robot"
	case Box:
		return "box"
	case BoxLeft:
		return "box_left"
	case BoxRight:
		return "box_right"
	default:
		return fmt.Sprintf("cell(%d)", uint8(c))
	}
}

// IsCrate reports whether the cell is any part of a crate.
func (c Cell) IsCrate() bool {
	switch c {
	case Box, BoxLeft, BoxRight:
		return true
	case Empty, Wall, Robot:
		return false
	default:
		panic(fmt.Sprintf("engine: unknown cell %d", uint8(c)))
	}
}

// Direction is one of the four unit moves.
type Direction uint8

const (
	Up Direction = iota
	Down
	Left
	Right
)

// AllDirections lists directions in the order used for possible-move reports.
var AllDirections = []Direction{Up, Down, Left, Right}

// Delta returns the unit (row, col) offset of the direction.
func (d Direction) Delta() (dr, dc int) {
	switch d {
	case Up:
		return -1, 0
	case Down:
		return 1, 0
	case Left:
		return 0, -1
	case Right:
		return 0, 1
	default:
		panic(fmt.Sprintf("engine: unknown direction %d", uint8(d)))
	}
}

// Vertical reports whether the direction moves across rows.
func (d Direction) Vertical() bool {
	return d == Up || d == Down
}

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return fmt.Sprintf("direction(%d)", uint8(d))
	}
}

// MarshalText encodes the direction by name.
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText accepts any form understood by ParseDirection.
func (d *Direction) UnmarshalText(text []byte) error {
	parsed, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Symbol returns the arrow character used in move scripts.
func (d Direction) Symbol() rune {
	switch d {
	case Up:
		return '^'
	case Down:
		return 'v'
	case Left:
		return '<'
	case Right:
		return '>'
	default:
		panic(fmt.Sprintf("engine: unknown direction %d", uint8(d)))
	}
}

// ParseDirection accepts names ("up"), single letters ("U") and arrows ("^").
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up", "u", "^", "north":
		return Up, nil
	case "down", "d", "v", "south":
		return Down, nil
	case "left", "l", "<", "west":
		return Left, nil
	case "right", "r", ">", "east":
		return Right, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidDirection, s)
	}
}

// ParseMoves converts an arrow script such as "<^^>v" into directions.
// Whitespace and newlines are ignored.
func ParseMoves(script string) ([]Direction, error) {
	moves := make([]Direction, 0, len(script))
	for i, ch := range script {
		switch ch {
		case ' ', '\t', '\r', '\n':
			continue
		case '^':
			moves = append(moves, Up)
		case 'v':
			moves = append(moves, Down)
		case '<':
			moves = append(moves, Left)
		case '>':
			moves = append(moves, Right)
		default:
			return nil, fmt.Errorf("%w: %q at offset %d", ErrInvalidDirection, ch, i)
		}
	}
	return moves, nil
}

// FormatMoves is the inverse of ParseMoves.
func FormatMoves(moves []Direction) string {
	var b strings.Builder
	b.Grow(len(moves))
	for _, m := range moves {
		b.WriteRune(m.Symbol())
	}
	return b.String()
}

// Position is a grid coordinate.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Step returns the neighbouring position in the given direction.
func (p Position) Step(d Direction) Position {
	dr, dc := d.Delta()
	return Position{Row: p.Row + dr, Col: p.Col + dc}
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
}

// PushPlan is the ordered list of crate cells to shift for one accepted move,
// farthest from the pusher first.
type PushPlan []Position

// LevelMessages holds optional texts shown after moves.
type LevelMessages struct {
	Welcome string `json:"welcome,omitempty" yaml:"welcome,omitempty"`
	Moved   string `json:"moved,omitempty" yaml:"moved,omitempty"`
	Pushed  string `json:"pushed,omitempty" yaml:"pushed,omitempty"`
	Blocked string `json:"blocked,omitempty" yaml:"blocked,omitempty"`
}

// LevelConfig describes a warehouse level loaded from JSON or YAML.
type LevelConfig struct {
	Name        string        `json:"name" yaml:"name"`
	Description string        `json:"description" yaml:"description"`
	Layout      []string      `json:"layout" yaml:"layout"`
	Wide        bool          `json:"wide,omitempty" yaml:"wide,omitempty"`
	Moves       string        `json:"moves,omitempty" yaml:"moves,omitempty"`
	Messages    LevelMessages `json:"messages" yaml:"messages"`
}

// StepResult reports the outcome of a single move.
type StepResult struct {
	Direction Direction `json:"direction"`
	From      Position  `json:"from"`
	To        Position  `json:"to"`
	Moved     bool      `json:"moved"`
	Pushed    int       `json:"pushed"` // crate cells shifted
	BlockedAt *Position `json:"blocked_at,omitempty"`
}

// RunStats summarizes a sequence of moves.
type RunStats struct {
	Moves   int `json:"moves"`
	Moved   int `json:"moved"`
	Blocked int `json:"blocked"`
	Pushes  int `json:"pushes"`
}

// GameState is the serializable state of a warehouse session.
type GameState struct {
	Grid        *Grid              `json:"grid"`
	RobotPos    Position           `json:"robot_pos"`
	Crates      int                `json:"crates"`
	Checksum    int                `json:"checksum"`
	Pushes      int                `json:"pushes"`
	Blocked     int                `json:"blocked"`
	Message     string             `json:"message"`
	ConfigName  string             `json:"config_name"`
	MoveHistory []MoveHistoryEntry `json:"move_history"`
	TotalMoves  int                `json:"total_moves"`

	// CurrentMoves tracks only the moves since the last reset.
	CurrentMoves      []MoveHistoryEntry `json:"current_moves"`
	CurrentMovesCount int                `json:"current_moves_count"`

	LocalView3x3 []string `json:"local_view_3x3,omitempty"`
}

// Snapshot returns a copy of the state that shares no memory with the
// simulator, so it can be encoded after the caller releases its lock.
func (gs *GameState) Snapshot() *GameState {
	if gs == nil {
		return nil
	}
	snap := *gs
	if gs.Grid != nil {
		snap.Grid = gs.Grid.Clone()
	}
	snap.MoveHistory = slices.Clone(gs.MoveHistory)
	snap.CurrentMoves = slices.Clone(gs.CurrentMoves)
	snap.LocalView3x3 = slices.Clone(gs.LocalView3x3)
	return &snap
}

// MoveHistoryEntry represents a single move in the session history
type MoveHistoryEntry struct {
	Action       string   `json:"action"`
	FromPosition Position `json:"from_position"`
	ToPosition   Position `json:"to_position"`
	Pushed       int      `json:"pushed"`
	Timestamp    int64    `json:"timestamp"`
	Success      bool     `json:"success"`
	MoveNumber   int      `json:"move_number"`
}
