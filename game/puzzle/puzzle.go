// Package puzzle reads the plain-text warehouse format: the grid rows, a
// blank line, then any number of lines of arrow moves.
//
//	########
//	#..O.O.#
//	##@.O..#
//	########
//
//	<^^>>>vv
//	<v>>v<<
package puzzle

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/wricardo/mcp-training/warehouse/game/engine"
)

// Each token is a whole line with its newline, so the grammar sees line
// structure: a row holding a space or a stray cell fails to lex.
var puzzleLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Row", Pattern: `[#.O@\[\]]+[ \t]*(?:\r?\n|$)`},
	{Name: "Moves", Pattern: `[<>^v]+[ \t]*(?:\r?\n|$)`},
	{Name: "Blank", Pattern: `(?:[ \t]*\r?\n|[ \t]+$)`},
})

// document is the grid, then at least one blank line before any moves.
type document struct {
	Rows  []string `parser:"Blank* @Row+"`
	Moves []string `parser:"(Blank+ (@Moves | Blank)*)?"`
}

var parser = participle.MustBuild[document](
	participle.Lexer(puzzleLexer),
)

// Puzzle is a parsed warehouse with its move list.
type Puzzle struct {
	Layout []string
	Moves  []engine.Direction
}

// Parse reads a puzzle from r. name is used in error positions.
func Parse(name string, r io.Reader) (*Puzzle, error) {
	doc, err := parser.Parse(name, r)
	if err != nil {
		return nil, fmt.Errorf("parse puzzle: %w", err)
	}
	return fromDocument(doc)
}

// ParseString is Parse for in-memory input.
func ParseString(name, s string) (*Puzzle, error) {
	doc, err := parser.ParseString(name, s)
	if err != nil {
		return nil, fmt.Errorf("parse puzzle: %w", err)
	}
	return fromDocument(doc)
}

// Load parses the puzzle file at path.
func Load(path string) (*Puzzle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(filepath.Base(path), f)
}

func fromDocument(doc *document) (*Puzzle, error) {
	rows := make([]string, len(doc.Rows))
	for i, row := range doc.Rows {
		rows[i] = trimLine(row)
	}
	width := len(rows[0])
	for i, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("parse puzzle: row %d has %d cells, want %d", i+1, len(row), width)
		}
	}

	var script strings.Builder
	for _, line := range doc.Moves {
		script.WriteString(trimLine(line))
	}
	moves, err := engine.ParseMoves(script.String())
	if err != nil {
		return nil, fmt.Errorf("parse puzzle: %w", err)
	}
	return &Puzzle{Layout: rows, Moves: moves}, nil
}

func trimLine(s string) string {
	return strings.TrimRight(s, " \t\r\n")
}

// Level turns the puzzle into a validated level. With wide set, the layout
// is widened when the engine loads it.
func (p *Puzzle) Level(name string, wide bool) (*engine.LevelConfig, error) {
	config := &engine.LevelConfig{
		Name:        name,
		Description: fmt.Sprintf("%dx%d puzzle with %d moves", len(p.Layout), len(p.Layout[0]), len(p.Moves)),
		Layout:      p.Layout,
		Wide:        wide,
		Moves:       engine.FormatMoves(p.Moves),
	}
	if err := engine.ValidateLevelConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

// Simulate runs the moves on a fresh grid and returns the final grid and
// its GPS checksum.
func (p *Puzzle) Simulate(wide bool) (*engine.Grid, int, error) {
	layout := p.Layout
	if wide {
		layout = engine.WidenLayout(layout)
	}
	grid, err := engine.ParseGrid(layout)
	if err != nil {
		return nil, 0, err
	}
	if err := grid.CheckPairing(); err != nil {
		return nil, 0, err
	}
	sim, err := engine.NewSimulator(grid)
	if err != nil {
		return nil, 0, err
	}
	sim.Run(p.Moves)
	return sim.Grid(), engine.GPSChecksum(sim.Grid()), nil
}
