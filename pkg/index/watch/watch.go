// Package watch defines the filesystem-watcher seam the coordinator
// consumes. Concrete backends: pkg/index/watch/fsnotify (production) and
// pkg/index/watch/noop (watchMode=false, one-shot scan mode).
package watch

import "github.com/marmos91/codeindex/pkg/index/model"

// Watcher emits root-relative, forward-slash FileChangeEvents until Close.
type Watcher interface {
	// Start begins delivering events to handle. Start must not block the
	// caller; events arrive on a background goroutine.
	Start(handle func(model.FileChangeEvent)) error
	Close() error
}
