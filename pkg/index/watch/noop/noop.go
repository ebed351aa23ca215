// Package noop backs pkg/index/watch.Watcher for watchMode=false sessions:
// one-shot scan mode skips ownership, heartbeat, the watcher, and signal
// handlers entirely, so this Watcher never delivers events.
package noop

import (
	"github.com/marmos91/codeindex/pkg/index/model"
	"github.com/marmos91/codeindex/pkg/index/watch"
)

// Watcher implements watch.Watcher by doing nothing.
type Watcher struct{}

func (Watcher) Start(func(model.FileChangeEvent)) error { return nil }
func (Watcher) Close() error                             { return nil }

var _ watch.Watcher = Watcher{}
