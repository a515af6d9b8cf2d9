package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/mcp-training/warehouse/game/service"
)

// FilePersistence stores one JSON document per session in a directory
type FilePersistence struct {
	store
}

var _ SessionPersistence = (*FilePersistence)(nil)

// NewFilePersistence creates a new file-based session persistence layer
func NewFilePersistence(sessionsDir string, configManager service.ConfigManager) (*FilePersistence, error) {
	if err := os.MkdirAll(sessionsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create sessions directory: %w", err)
	}

	return &FilePersistence{
		store: store{records: fileRecords(sessionsDir), configs: configManager},
	}, nil
}

// fileRecords is a directory of <id>.json documents.
type fileRecords string

func (dir fileRecords) path(id string) string {
	return filepath.Join(string(dir), id+".json")
}

// put writes through a temp file so a crash never leaves a truncated session.
func (dir fileRecords) put(id string, doc []byte) error {
	path := dir.path(id)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, doc, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (dir fileRecords) get(id string) ([]byte, error) {
	doc, err := os.ReadFile(dir.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}
	return doc, nil
}

func (dir fileRecords) remove(id string) error {
	err := os.Remove(dir.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return ErrSessionNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

func (dir fileRecords) ids() ([]string, error) {
	entries, err := os.ReadDir(string(dir))
	if err != nil {
		return nil, fmt.Errorf("failed to read sessions directory: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if id, ok := strings.CutSuffix(entry.Name(), ".json"); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (dir fileRecords) has(id string) bool {
	_, err := os.Stat(dir.path(id))
	return err == nil
}
