// Package session keeps warehouse sessions in memory and, optionally, on disk.
//
// Each Session owns its own engine, so robots and crates in one session are
// never visible to another. Session IDs are trimmed and lowercased on the
// way in, so "MyRun" and "myrun" name the same session in memory and in the
// store. When the caller does not pick one, the manager generates a random
// 4-character hex ID that is unique across memory and the persistence store.
//
// Persistence:
//
// SessionPersistence has two implementations sharing one encoder.
// FilePersistence writes one JSON document per session into a directory.
// SQLitePersistence keeps the same documents in a single SQLite database.
// Both record the level by its config
// ID, so a restored session is rebuilt from the level file and then has its
// saved grid, counters and history applied.
//
// Usage:
//
//	store, err := session.NewSQLitePersistence("sessions.db", configs)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer store.Close()
//
//	manager := session.NewManagerWithPersistence(store)
//	if err := manager.LoadPersistedSessions(); err != nil {
//		log.Fatal(err)
//	}
//
//	sess, err := manager.Create("", configs.GetDefault())
//
// The manager is safe for concurrent use. Moves on a single session are not
// serialized here; callers that share a session across goroutines must
// coordinate access to its engine.
package session
