package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// watchSettle is how long Watch waits after the last write before re-reading the file.
// Editors often write a file in several steps.
const watchSettle = 100 * time.Millisecond

// Watch re-loads path whenever it changes and delivers each valid config on the returned channel.
// The parent directory is watched so that editors replacing the file by rename are seen.
// Invalid files are logged and skipped. The channel is closed when ctx is done.
//
// Parameters:
//   - ctx: cancels the watcher
//   - path: the config file
//   - logger: receives reload and error messages
//
// Returns:
//   - <-chan Config: the re-loaded configs, buffered by one; a pending config is replaced by a newer one
//   - error: error if the watcher cannot be created
func Watch(ctx context.Context, path string, logger *zap.Logger) (<-chan Config, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("watch config: %w", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch config: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch config %s: %w", abs, err)
	}

	out := make(chan Config, 1)
	go func() {
		defer close(out)
		defer w.Close()

		var settle <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != abs {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					settle = time.After(watchSettle)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Warn("config watcher error", zap.Error(err))
			case <-settle:
				settle = nil
				cfg, err := Load(abs)
				if err != nil {
					logger.Warn("config reload rejected", zap.String("path", abs), zap.Error(err))
					continue
				}
				logger.Info("config reloaded", zap.String("path", abs))
				deliver(out, cfg)
			}
		}
	}()
	return out, nil
}

// deliver replaces any unread config with cfg.
func deliver(out chan Config, cfg Config) {
	select {
	case <-out:
	default:
	}
	out <- cfg
}
