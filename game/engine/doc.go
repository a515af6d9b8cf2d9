// Package engine provides the push simulation behind the warehouse server.
//
// A robot walks a wall-bordered grid of crates. Every move either shifts a
// contiguous chain of crates one cell or, when any crate in the chain would
// run into a wall, is rejected without changing anything.
//
// Core Types:
//
// Grid stores the cells in one row-major slice. ResolveMove computes the
// PushPlan for a move without touching the grid; ApplyPush executes a plan.
// Simulator owns a grid and the robot position and ties the two together.
// WarehouseEngine wraps a Simulator with a LevelConfig, counters and move
// history for use by the session layer.
//
// Wide Crates:
//
// Levels marked wide are expanded on load so that every crate spans two
// cells ('[' and ']'). Horizontal pushes still scan a single line, but a
// vertical push explores the rows ahead as a frontier: each crate half drags
// its partner column along, so crates that only partially overlap are pushed
// together, and a wall anywhere in the frontier rejects the whole move.
//
// Usage:
//
//	config, err := engine.LoadLevelConfig("configs/classic.json")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	eng, err := engine.NewEngine(config)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	step := eng.Move(engine.Up)
//	fmt.Println(step.Moved, eng.Checksum())
package engine
