package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce coalesces the bursts of events editors emit for one save.
const watchDebounce = 200 * time.Millisecond

// Watch reloads the config file at path whenever it changes and passes each
// successfully loaded config to onChange. Invalid edits are logged and
// skipped. The parent directory is watched so that editors which replace
// the file by rename are still seen. Watch blocks until ctx is cancelled.
func Watch(ctx context.Context, path string, logger *slog.Logger, onChange func(*Config)) error {
	if path == "" {
		return errors.New("config: watch needs a file path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("config: resolve %s: %w", path, err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("config: watch %s: %w", filepath.Dir(abs), err)
	}

	logger.Info("config watcher: started", slog.String("path", abs))

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("config watcher: stopped")
			return nil

		case <-fire:
			fire = nil
			cfg, err := Load(abs)
			if err != nil {
				logger.Warn("config watcher: reload failed", slog.String("error", err.Error()))
				continue
			}
			logger.Info("config watcher: reloaded", slog.String("path", abs))
			onChange(cfg)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
			} else {
				timer.Reset(watchDebounce)
			}
			fire = timer.C

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("config watcher: error", slog.String("error", err.Error()))
		}
	}
}
