package engine

import "strings"

// GPSChecksum sums 100*row + col over the reference cell of every crate:
// the Box cell for narrow crates, the BoxLeft cell for wide ones.
func GPSChecksum(g *Grid) int {
	sum := 0
	for r := 0; r < g.Rows(); r++ {
		for c := 0; c < g.Cols(); c++ {
			switch g.Get(Position{Row: r, Col: c}) {
			case Box, BoxLeft:
				sum += 100*r + c
			}
		}
	}
	return sum
}

// CountCrates counts crates, a wide crate counting once.
func CountCrates(g *Grid) int {
	return g.Count(Box) + g.Count(BoxLeft)
}

// WidenLayout doubles every column of a narrow layout: walls and floor
// double, a crate becomes "[]" and the robot keeps its left cell.
func WidenLayout(layout []string) []string {
	wide := make([]string, len(layout))
	var b strings.Builder
	for i, row := range layout {
		b.Reset()
		for _, ch := range row {
			switch ch {
			case '#':
				b.WriteString("##")
			case 'O':
				b.WriteString("[]")
			case '@':
				b.WriteString("@.")
			case '.':
				b.WriteString("..")
			default:
				// left for validation to reject
				b.WriteRune(ch)
				b.WriteRune(ch)
			}
		}
		wide[i] = b.String()
	}
	return wide
}

// LocalView returns the 3x3 window around p with the robot in the centre.
// Cells outside the grid read as walls.
func LocalView(g *Grid, p Position) []string {
	lines := make([]string, 0, 3)
	for dr := -1; dr <= 1; dr++ {
		var row strings.Builder
		for dc := -1; dc <= 1; dc++ {
			q := Position{Row: p.Row + dr, Col: p.Col + dc}
			if !g.InBounds(q) {
				row.WriteRune(Wall.Rune())
				continue
			}
			row.WriteRune(g.Get(q).Rune())
		}
		lines = append(lines, row.String())
	}
	return lines
}
