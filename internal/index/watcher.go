package index

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/ecolog/internal/storage"
)

// EventCallback is called after a watcher-driven index rebuild.
type EventCallback func(path string)

const debounce = 200 * time.Millisecond

// Watch observes the data file and re-syncs the index when it changes on
// disk, until ctx is cancelled. cb (if non-nil) is called after each rebuild.
//
// The parent directory is watched rather than the file itself: atomic saves
// replace the file by rename, which would drop a watch on the old inode.
func Watch(ctx context.Context, db EntryIndex, store storage.DocumentStore, dataPath string, logger *slog.Logger, cb EventCallback) error {
	abs, err := filepath.Abs(dataPath)
	if err != nil {
		return err
	}
	dir, name := filepath.Dir(abs), filepath.Base(abs)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("path", abs))

	// Editors and atomic renames emit bursts; sync once per burst.
	var timer *time.Timer
	var fire <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			fire = timer.C
			return
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(debounce)
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-fire:
			changed, syncErr := Sync(ctx, db, store, logger)
			if syncErr != nil {
				logger.Warn("watcher: sync failed", slog.String("error", syncErr.Error()))
				continue
			}
			if changed && cb != nil {
				cb(abs)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != name {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			logger.Debug("watcher: data file event", slog.String("op", ev.Op.String()))
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
