package engine

// ApplyPush shifts every cell of plan one step in dir, then moves the robot
// from pusher into the freed neighbour. plan must come from ResolveMove for
// the same grid state: farthest cells move first, so each destination is
// either empty or already vacated when it is written.
func ApplyPush(g *Grid, pusher Position, dir Direction, plan PushPlan) Position {
	for _, p := range plan {
		g.Set(p.Step(dir), g.Get(p))
		g.Set(p, Empty)
	}
	next := pusher.Step(dir)
	g.Set(next, Robot)
	g.Set(pusher, Empty)
	return next
}
