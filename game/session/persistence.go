package session

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/wricardo/mcp-training/warehouse/game/engine"
	"github.com/wricardo/mcp-training/warehouse/game/service"
)

// SessionPersistence defines the interface for persisting sessions
type SessionPersistence interface {
	// Save persists a session to storage
	Save(session *service.Session) error

	// Load retrieves a session from storage by ID
	Load(id string) (*service.Session, error)

	// Delete removes a session from storage
	Delete(id string) error

	// ListAll returns all persisted session IDs
	ListAll() ([]string, error)

	// Exists checks if a session exists in storage
	Exists(id string) bool
}

// PersistedSessionData represents the stored form of a session
type PersistedSessionData struct {
	ID             string            `json:"id"`
	ConfigName     string            `json:"config_name"`
	CreatedAt      time.Time         `json:"created_at"`
	LastAccessedAt time.Time         `json:"last_accessed_at"`
	GameState      *engine.GameState `json:"game_state"`
}

// normalizeID is the single key form used in memory and in every store.
func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// recordStore holds encoded session documents by normalized id. get and
// remove return ErrSessionNotFound for unknown ids.
type recordStore interface {
	put(id string, doc []byte) error
	get(id string) ([]byte, error)
	remove(id string) error
	ids() ([]string, error)
	has(id string) bool
}

// store implements SessionPersistence over a recordStore. The file and
// SQLite backends differ only in where documents live.
type store struct {
	records recordStore
	configs service.ConfigManager
}

// Save encodes and writes a session
func (s store) Save(session *service.Session) error {
	data, err := snapshot(session, s.configs)
	if err != nil {
		return err
	}

	doc, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session data: %w", err)
	}

	if err := s.records.put(normalizeID(data.ID), doc); err != nil {
		return fmt.Errorf("failed to save session %s: %w", data.ID, err)
	}
	return nil
}

// Load reads and decodes a session
func (s store) Load(id string) (*service.Session, error) {
	doc, err := s.records.get(normalizeID(id))
	if err != nil {
		return nil, err
	}

	var data PersistedSessionData
	if err := json.Unmarshal(doc, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session data: %w", err)
	}

	return restore(&data, s.configs)
}

// Delete removes a stored session
func (s store) Delete(id string) error {
	return s.records.remove(normalizeID(id))
}

// ListAll returns all persisted session IDs
func (s store) ListAll() ([]string, error) {
	return s.records.ids()
}

// Exists checks if a session is stored
func (s store) Exists(id string) bool {
	return s.records.has(normalizeID(id))
}

// snapshot captures a session for storage, recording the level by its id.
func snapshot(session *service.Session, configs service.ConfigManager) (*PersistedSessionData, error) {
	if session == nil {
		return nil, fmt.Errorf("session cannot be nil")
	}

	configID, err := configIDFromName(configs, session.Config.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to get config ID: %w", err)
	}

	return &PersistedSessionData{
		ID:             normalizeID(session.ID),
		ConfigName:     configID, // Store config ID, not display name
		CreatedAt:      session.CreatedAt,
		LastAccessedAt: session.LastAccessedAt,
		GameState:      session.Engine.GetState(),
	}, nil
}

// restore rebuilds a live session from stored data.
func restore(data *PersistedSessionData, configs service.ConfigManager) (*service.Session, error) {
	if data.GameState == nil {
		return nil, fmt.Errorf("session %s has no game state", data.ID)
	}

	levelConfig, err := configs.LoadConfig(data.ConfigName)
	if err != nil {
		return nil, fmt.Errorf("failed to load config '%s': %w", data.ConfigName, err)
	}

	eng, err := engine.NewEngine(levelConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	if err := eng.SetState(data.GameState); err != nil {
		return nil, fmt.Errorf("failed to set game state: %w", err)
	}

	return &service.Session{
		ID:             normalizeID(data.ID),
		Engine:         eng,
		Config:         levelConfig,
		CreatedAt:      data.CreatedAt,
		LastAccessedAt: data.LastAccessedAt,
	}, nil
}

// configIDFromName returns the config ID (filename without extension) for a display name
func configIDFromName(configs service.ConfigManager, displayName string) (string, error) {
	list, err := configs.ListConfigs()
	if err != nil {
		return "", fmt.Errorf("failed to list configs: %w", err)
	}

	for _, config := range list {
		if config.Name == displayName {
			return config.ConfigID, nil
		}
	}

	// If not found, assume the displayName is already the config ID
	return displayName, nil
}
