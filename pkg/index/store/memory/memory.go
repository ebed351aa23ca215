// Package memory is an in-process store.Store backend for tests: a
// mutex-guarded set of maps with no on-disk persistence. Transaction
// holds the write lock for fn's duration rather than offering true
// rollback.
package memory

import (
	"sync"

	"github.com/marmos91/codeindex/pkg/index/model"
	"github.com/marmos91/codeindex/pkg/index/store"
)

// Store is an in-memory store.Store, safe for concurrent use.
type Store struct {
	mu sync.RWMutex

	files     map[string]*model.FileRecord
	symbols   map[string]*model.Symbol
	relations []*model.Relation
	owner     *model.OwnerRow
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		files:   make(map[string]*model.FileRecord),
		symbols: make(map[string]*model.Symbol),
	}
}

func fileKey(project, relPath string) string {
	return project + "\x00" + relPath
}

func symbolKey(project, relPath, qualName, kind string) string {
	return project + "\x00" + relPath + "\x00" + qualName + "\x00" + kind
}

// Close is a no-op; there is nothing to release.
func (s *Store) Close() error {
	return nil
}

var _ store.Store = (*Store)(nil)
