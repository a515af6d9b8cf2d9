package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch keeps the level cache in sync with the level directory until ctx is
// cancelled. Changed files are reloaded, removed files are evicted, and the
// default level is re-picked after every change.
func (m *Manager) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create level watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(m.configDir); err != nil {
		return fmt.Errorf("watch %s: %w", m.configDir, err)
	}
	zap.L().Info("watching level directory", zap.String("dir", m.configDir))

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			m.handleEvent(event)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			zap.L().Warn("level watcher error", zap.Error(err))
		}
	}
}

func (m *Manager) handleEvent(event fsnotify.Event) {
	name := filepath.Base(event.Name)
	if !isLevelFile(name) {
		return
	}

	switch {
	case event.Op&(fsnotify.Create|fsnotify.Write) != 0:
		if err := m.ReloadConfig(name); err != nil {
			// Editors often write in several steps; the next event retries.
			zap.L().Debug("level not loadable yet", zap.String("file", name), zap.Error(err))
		} else {
			zap.L().Info("level reloaded", zap.String("file", name))
		}
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		m.Evict(name)
		zap.L().Info("level removed", zap.String("file", name))
	default:
		return
	}

	if err := m.loadDefaultConfig(); err != nil {
		zap.L().Warn("failed to refresh default level", zap.Error(err))
	}
}
