// Package watch feeds filesystem changes to the freshness pipeline.
package watch

import (
	"context"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/depfresh/depfresh/internal/manifest"
)

// Pipeline receives manifest events from the watcher.
type Pipeline interface {
	CheckFile(ctx context.Context, path string) error
	ForgetFile(path string)
}

// Watcher relays package.json changes under a set of directories to a
// pipeline. Writes and creates trigger a re-check; removes and renames
// drop the file's cache entries.
type Watcher struct {
	fs       *fsnotify.Watcher
	pipeline Pipeline
	logger   *log.Logger
}

// New creates a watcher over the given directories.
func New(pipeline Pipeline, logger *log.Logger, dirs ...string) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, dir := range dirs {
		if err := fs.Add(dir); err != nil {
			fs.Close()
			return nil, err
		}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Watcher{fs: fs, pipeline: pipeline, logger: logger}, nil
}

// Run dispatches events until ctx is cancelled or the underlying
// watcher closes.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fs.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, event)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "err", err)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, event fsnotify.Event) {
	if filepath.Base(event.Name) != manifest.Filename {
		return
	}

	switch {
	case event.Op.Has(fsnotify.Write), event.Op.Has(fsnotify.Create):
		w.logger.Debug("manifest changed", "path", event.Name)
		if err := w.pipeline.CheckFile(ctx, event.Name); err != nil {
			w.logger.Warn("check failed", "path", event.Name, "err", err)
		}
	case event.Op.Has(fsnotify.Remove), event.Op.Has(fsnotify.Rename):
		w.logger.Debug("manifest removed", "path", event.Name)
		w.pipeline.ForgetFile(event.Name)
	}
}
