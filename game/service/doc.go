// Package service provides the business logic layer for the warehouse server.
//
// The service package implements:
//   - Multi-session warehouse management
//   - Move parsing and execution, single and bulk
//   - Level script playback
//   - Move history pagination
//
// Core Interfaces:
//
// GameService is the main service interface used by the HTTP, WebSocket and
// MCP transports. SessionManager stores sessions and ConfigManager loads
// levels; both are implemented in sibling packages.
//
// Every engine call happens under the service mutex, so a session's
// simulation is never stepped from two requests at once.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr, _ := config.NewManager("configs")
//	gameService := service.NewGameService(sessionMgr, configMgr)
//
//	info, err := gameService.CreateSession(ctx, "classic")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := gameService.Move(ctx, info.ID, "up", false)
package service
