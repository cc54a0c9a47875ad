package library

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 300 * time.Millisecond

// Watcher reloads the store when the record files change on disk, so edits
// made by another process or a file sync show up without a restart.
type Watcher struct {
	svc     *Service
	root    string
	logger  *slog.Logger
	lastGen uint64
}

// NewWatcher builds a watcher over the library root directory.
func NewWatcher(svc *Service, root string, logger *slog.Logger) *Watcher {
	return &Watcher{svc: svc, root: root, logger: logger, lastGen: svc.WriteGeneration()}
}

// externalChange reports whether the pending file events came from another
// process. Events explained by the store's own writes since the last check
// are swallowed, so a mutation does not schedule a useless reload of the
// data it just wrote.
func (w *Watcher) externalChange() bool {
	g := w.svc.WriteGeneration()
	if g != w.lastGen {
		w.lastGen = g
		return false
	}
	return true
}

// Run watches until the context is cancelled. File events are debounced:
// a save touches several files in quick succession and triggers a single
// reload.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := fw.Add(w.root); err != nil {
		return err
	}
	w.logger.Info("watching library directory", "path", w.root)

	var pending *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !relevant(ev) {
				continue
			}
			if pending == nil {
				pending = time.NewTimer(reloadDebounce)
				fire = pending.C
			} else {
				pending.Reset(reloadDebounce)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)
		case <-fire:
			pending = nil
			fire = nil
			if !w.externalChange() {
				continue
			}
			if err := w.svc.Reload(ctx); err != nil {
				w.logger.Warn("reload after file change failed", "error", err)
			}
			// The reload may itself persist; don't chase our own tail.
			w.lastGen = w.svc.WriteGeneration()
		}
	}
}

// relevant filters out the noise: temp files from atomic writes and
// anything that is not a record file write, rename or removal.
func relevant(ev fsnotify.Event) bool {
	name := filepath.Base(ev.Name)
	if strings.HasPrefix(name, ".") {
		return false
	}
	if !strings.HasSuffix(name, ".json") {
		return false
	}
	return ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create) ||
		ev.Op.Has(fsnotify.Rename) || ev.Op.Has(fsnotify.Remove)
}
