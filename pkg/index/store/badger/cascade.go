package badger

import (
	"context"

	badger "github.com/dgraph-io/badger/v4"
)

// DeleteFileCascade removes a FileRecord along with every Symbol and
// Relation row attached to it, atomically.
func (s *Store) DeleteFileCascade(ctx context.Context, project, relPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txnDeleteFileSymbols(txn, project, relPath); err != nil {
			return err
		}
		if err := txnDeleteFileRelations(txn, project, relPath); err != nil {
			return err
		}
		return txnDeleteFile(txn, project, relPath)
	})
}
