package memory

import (
	"context"

	"github.com/marmos91/codeindex/pkg/index/store"
)

// DeleteFileCascade removes a FileRecord along with every Symbol and
// Relation row attached to it.
func (s *Store) DeleteFileCascade(ctx context.Context, project, relPath string) error {
	return s.Transaction(ctx, func(tx store.Transaction) error {
		if err := tx.DeleteFileSymbols(ctx, project, relPath); err != nil {
			return err
		}
		if err := tx.DeleteFileRelations(ctx, project, relPath); err != nil {
			return err
		}
		return tx.DeleteFile(ctx, project, relPath)
	})
}
