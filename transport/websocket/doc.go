// Package websocket pushes warehouse updates to browser viewers.
//
// A Hub groups connections by session ID. Clients connect to /ws?session=<id>
// and receive one JSON Message per change: a state_update carrying the full
// GameState after a move, reset or script run, or a named event such as
// session_deleted. Incoming client messages are read only to keep the
// connection alive.
//
// The hub's client registry is owned by the goroutine running Run, so
// registration, removal and fan-out never race. Broadcasts are encoded when
// they are queued and dropped with a warning if the queue is full.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run(ctx)
//
//	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("session"))
//	})
//
//	hub.BroadcastToSession(sessionID, state)
package websocket
