// Package watcher reports when the loaded document changes on disk.
package watcher

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"ragchat/internal/logger"
)

// Watcher follows a single file. The parent directory is watched so that
// editors replacing the file through a rename are still seen.
type Watcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
}

// New creates a watcher. Bursts of events closer together than debounce are
// reported once.
func New(debounce time.Duration) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = 250 * time.Millisecond
	}
	return &Watcher{watcher: w, debounce: debounce}, nil
}

// Watch emits path each time the file is created or written. The channel is
// closed when ctx is done or the watcher is stopped.
func (w *Watcher) Watch(ctx context.Context, path string) (<-chan string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if err := w.watcher.Add(filepath.Dir(abs)); err != nil {
		return nil, err
	}

	changes := make(chan string, 1)
	go func() {
		defer close(changes)
		var (
			timer   *time.Timer
			pending <-chan time.Time
		)
		defer func() {
			if timer != nil {
				timer.Stop()
			}
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != abs {
					continue
				}
				if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
					continue
				}
				if timer == nil {
					timer = time.NewTimer(w.debounce)
				} else {
					timer.Reset(w.debounce)
				}
				pending = timer.C
			case <-pending:
				pending = nil
				select {
				case changes <- path:
				case <-ctx.Done():
					return
				}
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("watcher: %v", err)
			}
		}
	}()
	return changes, nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}
