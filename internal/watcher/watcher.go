// Package watcher regenerates site output when a project file changes on
// disk. The parent directory is watched rather than the file itself because
// most editors save by writing a temp file and renaming it over the
// original, which would otherwise drop the watch.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/buildr-dev/buildr/internal/collab"
	"github.com/buildr-dev/buildr/internal/logging"
)

// ProjectWatcher watches one project file and invokes a handler after a
// debounced burst of changes.
type ProjectWatcher struct {
	watcher   *fsnotify.Watcher
	debouncer *collab.Debouncer
	path      string
	logger    logging.Logger
}

// New creates a watcher for the project file at path. onChange fires once
// per debounced burst of writes.
func New(path string, debounce time.Duration, onChange func(), logger logging.Logger) (*ProjectWatcher, error) {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	if debounce == 0 {
		debounce = 300 * time.Millisecond
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("resolving project path: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	return &ProjectWatcher{
		watcher:   fsw,
		debouncer: collab.NewDebouncer(debounce, onChange),
		path:      abs,
		logger:    logger.WithComponent("watcher"),
	}, nil
}

// Start processes filesystem events until the context is cancelled.
func (w *ProjectWatcher) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if !w.matches(event) {
					continue
				}
				w.logger.Debug(ctx, "project file changed", "op", event.Op.String())
				w.debouncer.Trigger()

			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.logger.Warn(ctx, err, "file watcher error")
			}
		}
	}()
}

func (w *ProjectWatcher) matches(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	return abs == w.path
}

// Stop cancels any pending handler call and releases the watch.
func (w *ProjectWatcher) Stop() error {
	w.debouncer.Stop()
	return w.watcher.Close()
}
