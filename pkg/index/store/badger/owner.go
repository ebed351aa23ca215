package badger

import (
	"context"

	badger "github.com/dgraph-io/badger/v4"

	indexerrors "github.com/marmos91/codeindex/pkg/index/errors"
	"github.com/marmos91/codeindex/pkg/index/model"
)

func txnGetOwner(txn *badger.Txn, project string) (*model.OwnerRow, error) {
	item, err := txn.Get(keyOwner(project))
	if err == badger.ErrKeyNotFound {
		return nil, indexerrors.New(indexerrors.Store, "owner row not found")
	}
	if err != nil {
		return nil, indexerrors.Wrap(indexerrors.Store, "failed to get owner row", err)
	}
	var owner *model.OwnerRow
	err = item.Value(func(val []byte) error {
		decoded, decErr := decodeOwnerRow(val)
		if decErr != nil {
			return decErr
		}
		owner = decoded
		return nil
	})
	if err != nil {
		return nil, indexerrors.Wrap(indexerrors.Store, "failed to decode owner row", err)
	}
	return owner, nil
}

func txnPutOwner(txn *badger.Txn, project string, owner *model.OwnerRow) error {
	data, err := encodeOwnerRow(owner)
	if err != nil {
		return indexerrors.Wrap(indexerrors.Store, "failed to encode owner row", err)
	}
	if err := txn.Set(keyOwner(project), data); err != nil {
		return indexerrors.Wrap(indexerrors.Store, "failed to store owner row", err)
	}
	return nil
}

func txnDeleteOwner(txn *badger.Txn, project string) error {
	if err := txn.Delete(keyOwner(project)); err != nil && err != badger.ErrKeyNotFound {
		return indexerrors.Wrap(indexerrors.Store, "failed to delete owner row", err)
	}
	return nil
}

// Each Store opens one BadgerDB directory per project (at
// <projectRoot>/.codeindex/db), so the owner row has no project component
// of its own; it always lives at the reserved key "".

func (s *Store) GetOwner(ctx context.Context) (*model.OwnerRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var owner *model.OwnerRow
	err := s.db.View(func(txn *badger.Txn) error {
		got, err := txnGetOwner(txn, "")
		if err != nil {
			return err
		}
		owner = got
		return nil
	})
	if err != nil {
		return nil, err
	}
	return owner, nil
}

func (s *Store) PutOwner(ctx context.Context, owner *model.OwnerRow) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txnPutOwner(txn, "", owner)
	})
}

func (s *Store) DeleteOwner(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txnDeleteOwner(txn, "")
	})
}
