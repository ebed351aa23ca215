package memory

import (
	"context"

	"github.com/marmos91/codeindex/pkg/index/store"
)

// transaction wraps Store for transactional operations. The memory store
// uses a single mutex, so a transaction simply holds the write lock for fn's
// entire duration; there is no separate rollback buffer.
type transaction struct {
	store *Store
}

// Transaction acquires the write lock and runs fn against it. If fn performs
// several writes and fails partway, earlier writes are not undone; this is
// acceptable for a test-only backend.
func (s *Store) Transaction(ctx context.Context, fn func(tx store.Transaction) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return fn(&transaction{store: s})
}

var _ store.Transaction = (*transaction)(nil)
