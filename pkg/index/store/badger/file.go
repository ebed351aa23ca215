package badger

import (
	"context"

	badger "github.com/dgraph-io/badger/v4"

	indexerrors "github.com/marmos91/codeindex/pkg/index/errors"
	"github.com/marmos91/codeindex/pkg/index/model"
)

func txnUpsertFile(txn *badger.Txn, record *model.FileRecord) error {
	data, err := encodeFileRecord(record)
	if err != nil {
		return indexerrors.Wrap(indexerrors.Store, "failed to encode file record", err)
	}
	if err := txn.Set(keyFile(record.Project, record.RelativePath), data); err != nil {
		return indexerrors.Wrap(indexerrors.Store, "failed to store file record", err)
	}
	return nil
}

func txnGetFile(txn *badger.Txn, project, relPath string) (*model.FileRecord, error) {
	item, err := txn.Get(keyFile(project, relPath))
	if err == badger.ErrKeyNotFound {
		return nil, indexerrors.New(indexerrors.Store, "file record not found")
	}
	if err != nil {
		return nil, indexerrors.Wrap(indexerrors.Store, "failed to get file record", err)
	}
	var rec *model.FileRecord
	err = item.Value(func(val []byte) error {
		decoded, decErr := decodeFileRecord(val)
		if decErr != nil {
			return decErr
		}
		rec = decoded
		return nil
	})
	if err != nil {
		return nil, indexerrors.Wrap(indexerrors.Store, "failed to decode file record", err)
	}
	return rec, nil
}

func txnGetAllFiles(txn *badger.Txn, project string) ([]*model.FileRecord, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = keyFilePrefix(project)
	it := txn.NewIterator(opts)
	defer it.Close()

	var out []*model.FileRecord
	for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
		item := it.Item()
		err := item.Value(func(val []byte) error {
			rec, err := decodeFileRecord(val)
			if err != nil {
				return err
			}
			out = append(out, rec)
			return nil
		})
		if err != nil {
			return nil, indexerrors.Wrap(indexerrors.Store, "failed to decode file record", err)
		}
	}
	return out, nil
}

func txnGetFilesMap(txn *badger.Txn, project string) (map[string]*model.FileRecord, error) {
	rows, err := txnGetAllFiles(txn, project)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*model.FileRecord, len(rows))
	for _, rec := range rows {
		out[rec.RelativePath] = rec
	}
	return out, nil
}

func txnDeleteFile(txn *badger.Txn, project, relPath string) error {
	if err := txn.Delete(keyFile(project, relPath)); err != nil && err != badger.ErrKeyNotFound {
		return indexerrors.Wrap(indexerrors.Store, "failed to delete file record", err)
	}
	return nil
}

func (s *Store) UpsertFile(ctx context.Context, record *model.FileRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txnUpsertFile(txn, record)
	})
}

func (s *Store) GetFile(ctx context.Context, project, relPath string) (*model.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var rec *model.FileRecord
	err := s.db.View(func(txn *badger.Txn) error {
		got, err := txnGetFile(txn, project, relPath)
		if err != nil {
			return err
		}
		rec = got
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Store) GetAllFiles(ctx context.Context, project string) ([]*model.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var rows []*model.FileRecord
	err := s.db.View(func(txn *badger.Txn) error {
		got, err := txnGetAllFiles(txn, project)
		if err != nil {
			return err
		}
		rows = got
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Store) GetFilesMap(ctx context.Context, project string) (map[string]*model.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out map[string]*model.FileRecord
	err := s.db.View(func(txn *badger.Txn) error {
		got, err := txnGetFilesMap(txn, project)
		if err != nil {
			return err
		}
		out = got
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) DeleteFile(ctx context.Context, project, relPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txnDeleteFile(txn, project, relPath)
	})
}
