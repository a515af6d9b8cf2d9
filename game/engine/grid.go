package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrRobotNotFound  = errors.New("robot not found")
	ErrMultipleRobots = errors.New("more than one robot")
	ErrUnpairedCrate  = errors.New("unpaired wide crate half")
	ErrRaggedLayout   = errors.New("layout rows differ in width")
)

// Grid is a fixed-size rectangle of cells stored row-major in one slice.
type Grid struct {
	rows  int
	cols  int
	cells []Cell
}

// NewGrid returns a grid of the given size filled with Empty.
func NewGrid(rows, cols int) *Grid {
	if rows <= 0 || cols <= 0 {
		panic(fmt.Sprintf("engine: invalid grid size %dx%d", rows, cols))
	}
	return &Grid{rows: rows, cols: cols, cells: make([]Cell, rows*cols)}
}

// ParseGrid builds a grid from layout rows such as "#.O@#".
func ParseGrid(layout []string) (*Grid, error) {
	if len(layout) == 0 || len(layout[0]) == 0 {
		return nil, fmt.Errorf("empty layout")
	}
	cols := len(layout[0])
	g := NewGrid(len(layout), cols)
	for r, row := range layout {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrRaggedLayout, r, len(row), cols)
		}
		for c, ch := range row {
			cell, err := ParseCell(ch)
			if err != nil {
				return nil, fmt.Errorf("row %d col %d: %w", r, c, err)
			}
			g.cells[r*cols+c] = cell
		}
	}
	return g, nil
}

// Rows returns the grid height.
func (g *Grid) Rows() int { return g.rows }

// Cols returns the grid width.
func (g *Grid) Cols() int { return g.cols }

// InBounds reports whether p lies inside the grid.
func (g *Grid) InBounds(p Position) bool {
	return p.Row >= 0 && p.Row < g.rows && p.Col >= 0 && p.Col < g.cols
}

func (g *Grid) index(p Position) int {
	if !g.InBounds(p) {
		panic(fmt.Sprintf("engine: position %s outside %dx%d grid", p, g.rows, g.cols))
	}
	return p.Row*g.cols + p.Col
}

// Get returns the cell at p. Callers rely on the wall border; an
// out-of-bounds access is a bug and panics.
func (g *Grid) Get(p Position) Cell {
	return g.cells[g.index(p)]
}

// Set overwrites the cell at p without checking any invariant.
func (g *Grid) Set(p Position, cell Cell) {
	g.cells[g.index(p)] = cell
}

// FindRobot returns the coordinate of the unique robot cell.
func (g *Grid) FindRobot() (Position, error) {
	found := -1
	for i, cell := range g.cells {
		if cell != Robot {
			continue
		}
		if found >= 0 {
			return Position{}, ErrMultipleRobots
		}
		found = i
	}
	if found < 0 {
		return Position{}, ErrRobotNotFound
	}
	return Position{Row: found / g.cols, Col: found % g.cols}, nil
}

// Clone returns an independent copy.
func (g *Grid) Clone() *Grid {
	cells := make([]Cell, len(g.cells))
	copy(cells, g.cells)
	return &Grid{rows: g.rows, cols: g.cols, cells: cells}
}

// Equal reports whether both grids have the same size and contents.
func (g *Grid) Equal(other *Grid) bool {
	if g == nil || other == nil {
		return g == other
	}
	if g.rows != other.rows || g.cols != other.cols {
		return false
	}
	for i := range g.cells {
		if g.cells[i] != other.cells[i] {
			return false
		}
	}
	return true
}

// Count returns how many cells hold the given content.
func (g *Grid) Count(cell Cell) int {
	n := 0
	for _, c := range g.cells {
		if c == cell {
			n++
		}
	}
	return n
}

// CheckPairing verifies that every wide crate half has its partner.
func (g *Grid) CheckPairing() error {
	for r := 0; r < g.rows; r++ {
		for c := 0; c < g.cols; c++ {
			switch g.cells[r*g.cols+c] {
			case BoxLeft:
				if c+1 >= g.cols || g.cells[r*g.cols+c+1] != BoxRight {
					return fmt.Errorf("%w: '[' at (%d,%d)", ErrUnpairedCrate, r, c)
				}
			case BoxRight:
				if c == 0 || g.cells[r*g.cols+c-1] != BoxLeft {
					return fmt.Errorf("%w: ']' at (%d,%d)", ErrUnpairedCrate, r, c)
				}
			}
		}
	}
	return nil
}

// Layout renders the grid back into layout rows.
func (g *Grid) Layout() []string {
	layout := make([]string, g.rows)
	var b strings.Builder
	for r := 0; r < g.rows; r++ {
		b.Reset()
		for _, cell := range g.cells[r*g.cols : (r+1)*g.cols] {
			b.WriteRune(cell.Rune())
		}
		layout[r] = b.String()
	}
	return layout
}

func (g *Grid) String() string {
	return strings.Join(g.Layout(), "\n")
}

// MarshalJSON encodes the grid as its layout rows.
func (g *Grid) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.Layout())
}

// UnmarshalJSON decodes layout rows.
func (g *Grid) UnmarshalJSON(data []byte) error {
	var layout []string
	if err := json.Unmarshal(data, &layout); err != nil {
		return err
	}
	parsed, err := ParseGrid(layout)
	if err != nil {
		return err
	}
	*g = *parsed
	return nil
}
