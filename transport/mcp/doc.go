// Package mcp exposes the warehouse REST API as Model Context Protocol tools.
//
// Client is a thin proxy: each tool call becomes one or two HTTP requests
// against a running server, and the JSON reply is rendered as plain text for
// the agent. The package holds no warehouse state of its own.
//
// Tools:
//   - create_session, get_session, list_sessions
//   - warehouse_state, describe_cell
//   - move, bulk_move, run_script, reset_warehouse
//   - move_history, list_configs, warehouse_instructions
//
// Transport Modes:
//
// GetMCPServer returns the underlying server, which can be served over stdio
// with server.ServeStdio or mounted on an HTTP endpoint through HandleMessage.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	if err := server.ServeStdio(client.GetMCPServer()); err != nil {
//		log.Fatal(err)
//	}
package mcp
