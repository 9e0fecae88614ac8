package apps

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/asheshgoplani/quickcast/internal/validity"
)

// Watcher funnels filesystem changes in the application directories into
// the rebuild scheduler, so a burst of installs or removals still costs
// one index rebuild.
type Watcher struct {
	watcher *fsnotify.Watcher
	sched   *validity.Scheduler
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewWatcher builds a watcher over dirs. Directories that cannot be
// watched are logged and skipped.
func NewWatcher(dirs []string, sched *validity.Scheduler) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	for _, dir := range dirs {
		if err := fw.Add(dir); err != nil {
			log.Warn("watch_add_failed", slog.String("dir", dir), slog.String("error", err.Error()))
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{watcher: fw, sched: sched, ctx: ctx, cancel: cancel}, nil
}

// Start begins consuming events. Must be called in a goroutine.
func (w *Watcher) Start() {
	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !relevant(event) {
				continue
			}
			log.Debug("app_dir_changed",
				slog.String("path", event.Name), slog.String("op", event.Op.String()))
			w.sched.ScheduleRebuild()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Warn("watcher_error", slog.String("error", err.Error()))
		}
	}
}

// Stop shuts down the watcher.
func (w *Watcher) Stop() {
	w.cancel()
	_ = w.watcher.Close()
}

// relevant filters events down to application entries appearing or
// disappearing. Writes inside a bundle are noise.
func relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	base := filepath.Base(event.Name)
	return strings.HasSuffix(base, ".app") || strings.HasSuffix(base, ".desktop")
}
