// Package api serves the warehouse over HTTP.
//
// Endpoints:
//
// Sessions:
//   - POST   /api/sessions                 create ({"config_id": "classic"}, empty body = default level)
//   - GET    /api/sessions                 list (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET    /api/sessions/unified         several sessions at once (?sessionIds=a,b or ?configName=X)
//   - GET    /api/sessions/{id}            session info with state
//   - DELETE /api/sessions/{id}            delete
//
// Warehouse:
//   - GET  /api/sessions/{id}/state        current GameState
//   - POST /api/sessions/{id}/move         {"direction": "up|down|left|right|^|v|<|>", "reset": false}
//   - POST /api/sessions/{id}/bulk-move    {"moves": [...], "script": "<^^>", "reset": false, "stop_on_block": false}
//   - POST /api/sessions/{id}/run          play the level's move script, {"reset": true} to start fresh
//   - POST /api/sessions/{id}/reset        restore the level layout
//   - GET  /api/sessions/{id}/history      ?page=1&limit=20&order=desc
//
// Levels:
//   - GET  /api/configs                    ConfigInfo for every level file
//   - GET  /api/configs/{name}             one level
//   - POST /api/configs                    save a level (validated first)
//
// Other:
//   - GET /health                          liveness plus session and viewer counts
//   - GET /ws?session={id}                 websocket stream of state updates
//
// Errors are JSON objects {"error": "...", "code": N}. Unknown sessions and
// levels map to 404, bad directions and levels without a script to 400.
//
// A blocked move is not an error: the response has success=false and an
// attempted_to block naming the cell the robot tried to enter and, when a
// crate chain was stopped, the wall position in blocked_at.
package api
