package engine

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustGrid(t *testing.T, layout ...string) *Grid {
	t.Helper()
	g, err := ParseGrid(layout)
	require.NoError(t, err)
	return g
}

func mustSimulator(t *testing.T, layout ...string) *Simulator {
	t.Helper()
	sim, err := NewSimulator(mustGrid(t, layout...))
	require.NoError(t, err)
	return sim
}

func requireLayout(t *testing.T, want []string, g *Grid) {
	t.Helper()
	if diff := cmp.Diff(want, g.Layout()); diff != "" {
		t.Fatalf("layout mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveMove_FreeNeighbour(t *testing.T) {
	g := mustGrid(t,
		"#####",
		"#.@.#",
		"#####",
	)
	plan, ok := ResolveMove(g, Position{Row: 1, Col: 2}, Left)
	require.True(t, ok)
	assert.Empty(t, plan)
}

func TestResolveMove_WallNeighbour(t *testing.T) {
	g := mustGrid(t,
		"####",
		"#@.#",
		"####",
	)
	for _, dir := range []Direction{Up, Down, Left} {
		plan, ok := ResolveMove(g, Position{Row: 1, Col: 1}, dir)
		assert.False(t, ok, dir.String())
		assert.Nil(t, plan, dir.String())
	}
}

func TestResolveMove_NarrowChainFarthestFirst(t *testing.T) {
	g := mustGrid(t,
		"#######",
		"#@OO..#",
		"#######",
	)
	plan, ok := ResolveMove(g, Position{Row: 1, Col: 1}, Right)
	require.True(t, ok)
	assert.Equal(t, PushPlan{{Row: 1, Col: 3}, {Row: 1, Col: 2}}, plan)
}

func TestResolveMove_NarrowChainIntoWall(t *testing.T) {
	g := mustGrid(t,
		"#####",
		"#@OO#",
		"#####",
	)
	_, ok := ResolveMove(g, Position{Row: 1, Col: 1}, Right)
	assert.False(t, ok)
}

func TestResolveMove_NarrowVertical(t *testing.T) {
	g := mustGrid(t,
		"###",
		"#.#",
		"#O#",
		"#O#",
		"#@#",
		"###",
	)
	plan, ok := ResolveMove(g, Position{Row: 4, Col: 1}, Up)
	require.True(t, ok)
	assert.Equal(t, PushPlan{{Row: 2, Col: 1}, {Row: 3, Col: 1}}, plan)
}

func TestResolveMove_WideHorizontal(t *testing.T) {
	g := mustGrid(t,
		"########",
		"#@[][].#",
		"########",
	)
	plan, ok := ResolveMove(g, Position{Row: 1, Col: 1}, Right)
	require.True(t, ok)
	assert.Equal(t, PushPlan{
		{Row: 1, Col: 5}, {Row: 1, Col: 4}, {Row: 1, Col: 3}, {Row: 1, Col: 2},
	}, plan)
}

func TestResolveMove_WideVerticalRightHalf(t *testing.T) {
	// Robot under the ']' half must still move the '[' half.
	g := mustGrid(t,
		"######",
		"#....#",
		"#.[].#",
		"#..@.#",
		"######",
	)
	plan, ok := ResolveMove(g, Position{Row: 3, Col: 3}, Up)
	require.True(t, ok)
	assert.Equal(t, PushPlan{{Row: 2, Col: 2}, {Row: 2, Col: 3}}, plan)
}

func TestResolveMove_DoesNotMutate(t *testing.T) {
	g := mustGrid(t,
		"########",
		"#......#",
		"#...[].#",
		"#..[]..#",
		"#..@...#",
		"########",
	)
	before := g.Clone()
	_, ok := ResolveMove(g, Position{Row: 4, Col: 3}, Up)
	require.True(t, ok)
	assert.True(t, before.Equal(g))
}

// Scenario: a narrow crate pushed left until it meets the wall.
func TestSimulator_NarrowPushToWall(t *testing.T) {
	sim := mustSimulator(t,
		"######",
		"#.O.@#",
		"######",
	)

	step := sim.Step(Left)
	require.True(t, step.Moved)
	assert.Zero(t, step.Pushed)

	step = sim.Step(Left)
	require.True(t, step.Moved)
	assert.Equal(t, 1, step.Pushed)
	requireLayout(t, []string{"######", "#O@..#", "######"}, sim.Grid())

	snapshot := sim.Grid().Clone()
	step = sim.Step(Left)
	assert.False(t, step.Moved)
	assert.Equal(t, &Position{Row: 1, Col: 0}, step.BlockedAt)
	assert.True(t, snapshot.Equal(sim.Grid()))
	assert.Equal(t, Position{Row: 1, Col: 2}, sim.Robot())
}

// Scenario: a wide crate pushed horizontally, robot following.
func TestSimulator_WideHorizontal(t *testing.T) {
	sim := mustSimulator(t,
		"#######",
		"#..[]@#",
		"#######",
	)

	require.True(t, sim.Step(Left).Moved)
	requireLayout(t, []string{"#######", "#.[]@.#", "#######"}, sim.Grid())

	require.True(t, sim.Step(Left).Moved)
	requireLayout(t, []string{"#######", "#[]@..#", "#######"}, sim.Grid())

	assert.False(t, sim.Step(Left).Moved)
	requireLayout(t, []string{"#######", "#[]@..#", "#######"}, sim.Grid())
}

// Scenario: the lower crate shares column 4 with the upper crate, so both
// must move in one push.
func TestSimulator_WideVerticalStaggered(t *testing.T) {
	sim := mustSimulator(t,
		"########",
		"#......#",
		"#...[].#",
		"#..[]..#",
		"#..@...#",
		"########",
	)

	plan, ok := sim.Plan(Up)
	require.True(t, ok)
	assert.Equal(t, PushPlan{
		{Row: 2, Col: 4}, {Row: 2, Col: 5},
		{Row: 3, Col: 3}, {Row: 3, Col: 4},
	}, plan)

	step := sim.Step(Up)
	require.True(t, step.Moved)
	assert.Equal(t, 4, step.Pushed)
	requireLayout(t, []string{
		"########",
		"#...[].#",
		"#..[]..#",
		"#..@...#",
		"#......#",
		"########",
	}, sim.Grid())
}

// Scenario: same staggered pair with a wall above the upper crate.
func TestSimulator_WideVerticalStaggeredBlocked(t *testing.T) {
	layout := []string{
		"########",
		"#....#.#",
		"#...[].#",
		"#..[]..#",
		"#..@...#",
		"########",
	}
	sim := mustSimulator(t, layout...)

	_, ok := sim.Plan(Up)
	assert.False(t, ok)

	step := sim.Step(Up)
	assert.False(t, step.Moved)
	assert.Equal(t, &Position{Row: 1, Col: 5}, step.BlockedAt)
	requireLayout(t, layout, sim.Grid())
}

func TestSimulator_AtomicWhenBlockedDeepInFrontier(t *testing.T) {
	layout := []string{
		"##########",
		"#......#.#",
		"#.....[].#",
		"#.....[].#",
		"#...[][].#",
		"#....[]..#",
		"#....@...#",
		"##########",
	}
	sim := mustSimulator(t, layout...)
	snapshot := sim.Grid().Clone()

	step := sim.Step(Up)
	assert.False(t, step.Moved)
	assert.Equal(t, &Position{Row: 1, Col: 7}, step.BlockedAt)
	assert.True(t, snapshot.Equal(sim.Grid()), "grid changed:\n%s", sim.Grid())
	assert.Equal(t, Position{Row: 6, Col: 5}, sim.Robot())
}

func TestSimulator_DeepFrontierSucceeds(t *testing.T) {
	sim := mustSimulator(t,
		"##########",
		"#........#",
		"#.....[].#",
		"#.....[].#",
		"#...[][].#",
		"#....[]..#",
		"#....@...#",
		"##########",
	)

	step := sim.Step(Up)
	require.True(t, step.Moved)
	assert.Equal(t, 10, step.Pushed)
	requireLayout(t, []string{
		"##########",
		"#.....[].#",
		"#.....[].#",
		"#...[][].#",
		"#....[]..#",
		"#....@...#",
		"#........#",
		"##########",
	}, sim.Grid())
}

func TestSimulator_WideDownPush(t *testing.T) {
	sim := mustSimulator(t,
		"#######",
		"#..@..#",
		"#.[]..#",
		"#..[].#",
		"#.....#",
		"#######",
	)

	require.True(t, sim.Step(Down).Moved)
	requireLayout(t, []string{
		"#######",
		"#.....#",
		"#..@..#",
		"#.[]..#",
		"#..[].#",
		"#######",
	}, sim.Grid())

	// The lower crate now rests on the wall row.
	assert.False(t, sim.Step(Down).Moved)
}

func TestSimulator_WideExample(t *testing.T) {
	narrow := []string{
		"#######",
		"#...#.#",
		"#.....#",
		"#..OO@#",
		"#..O..#",
		"#.....#",
		"#######",
	}
	sim := mustSimulator(t, WidenLayout(narrow)...)
	moves, err := ParseMoves("<vv<<^^<<^^")
	require.NoError(t, err)

	stats := sim.Run(moves)
	assert.Equal(t, 11, stats.Moves)
	assert.Equal(t, 1, stats.Blocked)

	requireLayout(t, []string{
		"##############",
		"##...[].##..##",
		"##...@.[]...##",
		"##....[]....##",
		"##..........##",
		"##..........##",
		"##############",
	}, sim.Grid())
	assert.Equal(t, 618, GPSChecksum(sim.Grid()))
}

func TestSimulator_NarrowExample(t *testing.T) {
	sim := mustSimulator(t, DefaultLevelConfig().Layout...)
	moves, err := ParseMoves(DefaultLevelConfig().Moves)
	require.NoError(t, err)

	sim.Run(moves)
	requireLayout(t, []string{
		"########",
		"#....OO#",
		"##.....#",
		"#.....O#",
		"#.#O@..#",
		"#...O..#",
		"#...O..#",
		"########",
	}, sim.Grid())
	assert.Equal(t, 2028, GPSChecksum(sim.Grid()))
}
