package file

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/custodia-labs/sercha-discover/internal/logger"
)

// watchDebounce collapses the burst of events editors produce on save.
const watchDebounce = 250 * time.Millisecond

// Watch reloads the store whenever its file changes on disk and then calls
// onChange, until ctx is done. The parent directory is watched so that
// editors which replace the file atomically are picked up.
func (s *ConfigStore) Watch(ctx context.Context, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating config watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(s.filePath)); err != nil {
		watcher.Close()
		return fmt.Errorf("watching %s: %w", filepath.Dir(s.filePath), err)
	}

	go s.watchLoop(ctx, watcher, onChange)
	return nil
}

func (s *ConfigStore) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, onChange func()) {
	defer watcher.Close()

	debounce := time.NewTimer(time.Hour)
	debounce.Stop()
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(s.filePath) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			debounce.Reset(watchDebounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.L().Warn("config watcher error", zap.Error(err))

		case <-debounce.C:
			if err := s.Load(); err != nil {
				logger.L().Warn("config reload failed", zap.String("path", s.filePath), zap.Error(err))
				continue
			}
			logger.L().Info("config reloaded", zap.String("path", s.filePath))
			if onChange != nil {
				onChange()
			}
		}
	}
}
