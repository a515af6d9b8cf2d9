package engine

import (
	"fmt"
	"slices"
)

// ResolveMove computes which crate cells must shift when the robot at pusher
// moves in dir. It returns ok=false when a wall blocks the chain. The grid is
// never modified. An empty plan means the target cell is free.
func ResolveMove(g *Grid, pusher Position, dir Direction) (plan PushPlan, ok bool) {
	plan, blockedAt := resolve(g, pusher, dir)
	return plan, blockedAt == nil
}

// resolve is ResolveMove that also reports the wall cell that stopped the move.
func resolve(g *Grid, pusher Position, dir Direction) (PushPlan, *Position) {
	if dir.Vertical() {
		return resolveVertical(g, pusher, dir)
	}
	return resolveLine(g, pusher, dir)
}

// resolveLine scans in a straight line from the pusher. Used for every
// horizontal move, wide crates included, since both halves lie on the line.
func resolveLine(g *Grid, pusher Position, dir Direction) (PushPlan, *Position) {
	var scanned []Position
	p := pusher.Step(dir)
	for {
		cell := g.Get(p)
		switch cell {
		case Box, BoxLeft, BoxRight:
			scanned = append(scanned, p)
			p = p.Step(dir)
			continue
		case Wall:
			return nil, &p
		case Empty:
			slices.Reverse(scanned)
			return PushPlan(scanned), nil
		case Robot:
			panic(fmt.Sprintf("engine: second robot at %s while resolving from %s", p, pusher))
		default:
			panic(fmt.Sprintf("engine: unknown cell %d at %s", uint8(cell), p))
		}
	}
}

// resolveVertical expands a frontier one row at a time. Each frontier holds
// the columns of the current row that must be clear for the row behind it to
// move. Every crate half found there pulls in its partner column, and the
// resulting span becomes the frontier of the next row.
func resolveVertical(g *Grid, pusher Position, dir Direction) (PushPlan, *Position) {
	dr, _ := dir.Delta()
	var levels []PushPlan

	row := pusher.Row + dr
	frontier := []int{pusher.Col}
	for len(frontier) > 0 {
		var span []int
		for _, col := range frontier {
			p := Position{Row: row, Col: col}
			cell := g.Get(p)
			switch cell {
			case Empty:
			case Wall:
				return nil, &p
			case Box:
				span = append(span, col)
			case BoxLeft:
				if g.Get(Position{Row: row, Col: col + 1}) != BoxRight {
					panic(fmt.Sprintf("engine: '[' at %s has no right half", p))
				}
				span = append(span, col, col+1)
			case BoxRight:
				if g.Get(Position{Row: row, Col: col - 1}) != BoxLeft {
					panic(fmt.Sprintf("engine: ']' at %s has no left half", p))
				}
				span = append(span, col-1, col)
			case Robot:
				panic(fmt.Sprintf("engine: second robot at %s while resolving from %s", p, pusher))
			default:
				panic(fmt.Sprintf("engine: unknown cell %d at %s", uint8(cell), p))
			}
		}

		slices.Sort(span)
		span = slices.Compact(span)
		if len(span) > 0 {
			level := make(PushPlan, len(span))
			for i, col := range span {
				level[i] = Position{Row: row, Col: col}
			}
			levels = append(levels, level)
		}

		frontier = span
		row += dr
	}

	var plan PushPlan
	for i := len(levels) - 1; i >= 0; i-- {
		plan = append(plan, levels[i]...)
	}
	return plan, nil
}
