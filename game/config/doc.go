// Package config provides level management for the warehouse server.
//
// The config package handles:
//   - Loading levels from JSON, YAML and plain-text puzzle files
//   - Level validation through the engine package
//   - Default level selection
//   - Level discovery and listing
//   - Watching the level directory for edits
//
// Level Format:
//
// Levels live in one directory. JSON and YAML files decode into
// engine.LevelConfig:
//
//	name: staggered
//	description: Two crates that move as one
//	wide: true
//	layout:
//	  - "#######"
//	  - "#..O..#"
//	  - "#..@..#"
//	  - "#######"
//	moves: "^^<"
//
// A .txt file holds the plain puzzle format read by package puzzle and is
// always loaded narrow.
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	level, err := manager.LoadConfig("classic")
//
//	// Keep the cache fresh while the server runs
//	go manager.Watch(ctx)
package config
