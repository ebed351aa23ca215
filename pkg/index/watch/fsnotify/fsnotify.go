// Package fsnotify backs pkg/index/watch.Watcher with
// github.com/fsnotify/fsnotify, recursively watching every directory under
// the project root except node_modules and .git subtrees.
package fsnotify

import (
	"os"
	"path/filepath"
	"strings"

	fsn "github.com/fsnotify/fsnotify"

	"github.com/marmos91/codeindex/internal/logger"
	indexerrors "github.com/marmos91/codeindex/pkg/index/errors"
	"github.com/marmos91/codeindex/pkg/index/model"
	"github.com/marmos91/codeindex/pkg/index/watch"
)

// Watcher recursively watches root for file changes.
type Watcher struct {
	root    string
	watcher *fsn.Watcher
	done    chan struct{}
}

// New creates a Watcher rooted at root. Call Start to begin delivering
// events and Close to release the underlying fsnotify handle.
func New(root string) (*Watcher, error) {
	w, err := fsn.NewWatcher()
	if err != nil {
		return nil, indexerrors.Wrap(indexerrors.Index, "failed to create filesystem watcher", err)
	}
	return &Watcher{root: root, watcher: w}, nil
}

// Start adds every directory under root to the watch set and begins
// delivering events to handle on a background goroutine. It does not block.
func (w *Watcher) Start(handle func(model.FileChangeEvent)) error {
	err := filepath.WalkDir(w.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() == "node_modules" || d.Name() == ".git" {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
	if err != nil {
		return indexerrors.Wrap(indexerrors.Index, "failed to watch project root", err)
	}

	w.done = make(chan struct{})
	go w.loop(handle)
	return nil
}

func (w *Watcher) loop(handle func(model.FileChangeEvent)) {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if evt, ok := w.translate(event); ok {
				handle(evt)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("filesystem watcher error", logger.Err(err))
		}
	}
}

func (w *Watcher) translate(event fsn.Event) (model.FileChangeEvent, bool) {
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return model.FileChangeEvent{}, false
	}
	rel = filepath.ToSlash(rel)
	if strings.HasPrefix(rel, "../") {
		return model.FileChangeEvent{}, false
	}

	switch {
	case event.Op&fsn.Create == fsn.Create:
		if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
			_ = w.watcher.Add(event.Name)
		}
		return model.FileChangeEvent{Type: model.EventCreate, FilePath: rel}, true
	case event.Op&fsn.Write == fsn.Write:
		return model.FileChangeEvent{Type: model.EventChange, FilePath: rel}, true
	case event.Op&(fsn.Remove|fsn.Rename) != 0:
		return model.FileChangeEvent{Type: model.EventDelete, FilePath: rel}, true
	default:
		return model.FileChangeEvent{}, false
	}
}

// Close stops the event loop and releases the fsnotify handle.
func (w *Watcher) Close() error {
	if w.done != nil {
		close(w.done)
	}
	if err := w.watcher.Close(); err != nil {
		return indexerrors.Wrap(indexerrors.Close, "failed to close filesystem watcher", err)
	}
	return nil
}

var _ watch.Watcher = (*Watcher)(nil)
