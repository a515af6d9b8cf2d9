package puzzle

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/mcp-training/warehouse/game/engine"
)

const smallPuzzle = `########
#..O.O.#
##@.O..#
#...O..#
#.#.O..#
#...O..#
#......#
########

<^^>>>vv<v>>v<<
`

const widePuzzle = `#######
#...#.#
#.....#
#..OO@#
#..O..#
#.....#
#######

<vv<<^^<<^^
`

func TestParseString(t *testing.T) {
	p, err := ParseString("small.txt", smallPuzzle)
	require.NoError(t, err)
	assert.Len(t, p.Layout, 8)
	assert.Equal(t, "##@.O..#", p.Layout[2])
	assert.Len(t, p.Moves, 15)
	assert.Equal(t, engine.Left, p.Moves[0])
}

func TestParse_MultiLineMoves(t *testing.T) {
	p, err := Parse("multi", strings.NewReader("#####\n#@O.#\n#####\n\n>\n<\n\n>>\n"))
	require.NoError(t, err)
	assert.Equal(t, []engine.Direction{engine.Right, engine.Left, engine.Right, engine.Right}, p.Moves)
}

func TestParse_NoMoves(t *testing.T) {
	p, err := ParseString("still", "#####\n#@O.#\n#####\n")
	require.NoError(t, err)
	assert.Empty(t, p.Moves)
}

func TestParse_LineEndings(t *testing.T) {
	p, err := ParseString("crlf", "\n#####  \r\n#@O.#\r\n#####\r\n\r\n  \r\n<<> \r\n>")
	require.NoError(t, err)
	assert.Equal(t, []string{"#####", "#@O.#", "#####"}, p.Layout)
	assert.Equal(t, []engine.Direction{engine.Left, engine.Left, engine.Right, engine.Right}, p.Moves)

	p, err = ParseString("trailing blanks", "#####\n#@O.#\n#####\n\n\n")
	require.NoError(t, err)
	assert.Empty(t, p.Moves)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"stray character", "#####\n#@x.#\n#####\n"},
		{"ragged rows", "#####\n#@.#\n#####\n"},
		{"moves before grid", "<<\n#####\n#@..#\n#####\n"},
		{"bad move", "#####\n#@..#\n#####\n\n<<a\n"},
		{"row containing a space", "#########\n#..# #..#\n#@.O.O..#\n#########\n"},
		{"row split by a space into equal halves", "####\n#@.#\n#..# #..#\n####\n"},
		{"moves without blank line", "#####\n#@..#\n#####\n<<\n"},
		{"grid after moves", "#####\n#@..#\n#####\n\n<<\n#####\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseString(tt.name, tt.input)
			assert.Error(t, err)
		})
	}
}

func TestPuzzle_Simulate(t *testing.T) {
	p, err := ParseString("small.txt", smallPuzzle)
	require.NoError(t, err)

	_, sum, err := p.Simulate(false)
	require.NoError(t, err)
	assert.Equal(t, 2028, sum)

	wide, err := ParseString("wide.txt", widePuzzle)
	require.NoError(t, err)
	grid, sum, err := wide.Simulate(true)
	require.NoError(t, err)
	assert.Equal(t, 618, sum)
	assert.Equal(t, 14, grid.Cols())
}

func TestPuzzle_Level(t *testing.T) {
	p, err := ParseString("small.txt", smallPuzzle)
	require.NoError(t, err)

	level, err := p.Level("small", true)
	require.NoError(t, err)
	assert.True(t, level.Wide)
	assert.Equal(t, "<^^>>>vv<v>>v<<", level.Moves)
	assert.Contains(t, level.Description, "8x8")

	open, err := ParseString("open", "#####\n#@O..\n#####\n")
	require.NoError(t, err)
	_, err = open.Level("open", false)
	assert.ErrorContains(t, err, "enclosed by walls")
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.txt")
	require.NoError(t, os.WriteFile(path, []byte(smallPuzzle), 0o644))

	p, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, p.Layout, 8)

	_, err = Load(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
