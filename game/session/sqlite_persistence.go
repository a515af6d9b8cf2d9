package session

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/wricardo/mcp-training/warehouse/game/service"
)

const sessionsSchema = `
CREATE TABLE IF NOT EXISTS sessions (
	id   TEXT PRIMARY KEY,
	data TEXT NOT NULL
)`

// SQLitePersistence stores sessions as rows in a single SQLite file. Each
// row holds the same JSON document FilePersistence writes.
type SQLitePersistence struct {
	store
	db *sql.DB
}

var _ SessionPersistence = (*SQLitePersistence)(nil)

// NewSQLitePersistence opens (or creates) the database at path.
func NewSQLitePersistence(path string, configManager service.ConfigManager) (*SQLitePersistence, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}
	// database/sql pools connections; a single writer avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sessionsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create sessions table: %w", err)
	}

	return &SQLitePersistence{
		store: store{records: sqliteRecords{db}, configs: configManager},
		db:    db,
	}, nil
}

// Close releases the database handle.
func (sp *SQLitePersistence) Close() error {
	return sp.db.Close()
}

type sqliteRecords struct {
	db *sql.DB
}

func (r sqliteRecords) put(id string, doc []byte) error {
	_, err := r.db.Exec(`
		INSERT INTO sessions (id, data) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data`,
		id, string(doc))
	return err
}

func (r sqliteRecords) get(id string) ([]byte, error) {
	var doc string
	err := r.db.QueryRow(`SELECT data FROM sessions WHERE id = ?`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session %s: %w", id, err)
	}
	return []byte(doc), nil
}

func (r sqliteRecords) remove(id string) error {
	res, err := r.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// ids lists stored sessions in id order
func (r sqliteRecords) ids() ([]string, error) {
	rows, err := r.db.Query(`SELECT id FROM sessions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan session id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r sqliteRecords) has(id string) bool {
	var one int
	err := r.db.QueryRow(`SELECT 1 FROM sessions WHERE id = ?`, id).Scan(&one)
	return err == nil
}
