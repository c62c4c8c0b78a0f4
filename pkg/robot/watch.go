package robot

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// WatchConfig calls onChange with the reloaded configuration each time the
// file at path is written, until ctx is done. A file that fails to load or
// validate is logged and skipped. The directory is watched rather than the
// file so editors that save by rename are picked up.
func WatchConfig(ctx context.Context, path string, logger *zap.SugaredLogger, onChange func(*Config)) error {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			cfg, err := LoadConfigFrom(abs)
			if err != nil {
				logger.Warnw("ignoring config change", "path", path, "error", err)
				continue
			}
			logger.Infow("config reloaded", "path", path)
			onChange(cfg)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warnw("config watcher error", "error", err)
		}
	}
}
