package badger

import (
	"context"

	badger "github.com/dgraph-io/badger/v4"

	indexerrors "github.com/marmos91/codeindex/pkg/index/errors"
	"github.com/marmos91/codeindex/pkg/index/model"
)

func txnReplaceFileSymbols(txn *badger.Txn, project, relPath string, rows []*model.Symbol) error {
	existing, err := txnGetFileSymbols(txn, project, relPath)
	if err != nil {
		return err
	}
	for _, sym := range existing {
		if err := txn.Delete(keySymbol(project, relPath, sym.QualifiedName, string(sym.Kind))); err != nil {
			return indexerrors.Wrap(indexerrors.Store, "failed to delete prior symbol row", err)
		}
		if err := txn.Delete(keySymFP(project, sym.Fingerprint, relPath, sym.QualifiedName)); err != nil {
			return indexerrors.Wrap(indexerrors.Store, "failed to delete prior fingerprint index row", err)
		}
	}

	for _, sym := range rows {
		data, err := encodeSymbol(sym)
		if err != nil {
			return indexerrors.Wrap(indexerrors.Store, "failed to encode symbol", err)
		}
		if err := txn.Set(keySymbol(project, relPath, sym.QualifiedName, string(sym.Kind)), data); err != nil {
			return indexerrors.Wrap(indexerrors.Store, "failed to store symbol", err)
		}
		if err := txn.Set(keySymFP(project, sym.Fingerprint, relPath, sym.QualifiedName), []byte{}); err != nil {
			return indexerrors.Wrap(indexerrors.Store, "failed to store fingerprint index row", err)
		}
	}
	return nil
}

func txnGetFileSymbols(txn *badger.Txn, project, relPath string) ([]*model.Symbol, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = keySymbolFilePrefix(project, relPath)
	it := txn.NewIterator(opts)
	defer it.Close()

	var out []*model.Symbol
	for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
		item := it.Item()
		err := item.Value(func(val []byte) error {
			sym, err := decodeSymbol(val)
			if err != nil {
				return err
			}
			out = append(out, sym)
			return nil
		})
		if err != nil {
			return nil, indexerrors.Wrap(indexerrors.Store, "failed to decode symbol", err)
		}
	}
	return out, nil
}

func txnGetByFingerprint(txn *badger.Txn, project, fingerprint string) ([]*model.Symbol, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = keySymFPPrefix(project, fingerprint)
	it := txn.NewIterator(opts)
	defer it.Close()

	var refs []struct{ relPath, qualName string }
	for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
		key := string(it.Item().KeyCopy(nil))
		rest := key[len(opts.Prefix):]
		relPath, qualName, ok := splitLast(rest)
		if !ok {
			continue
		}
		refs = append(refs, struct{ relPath, qualName string }{relPath, qualName})
	}

	var out []*model.Symbol
	for _, ref := range refs {
		syms, err := txnGetFileSymbols(txn, project, ref.relPath)
		if err != nil {
			return nil, err
		}
		for _, sym := range syms {
			if sym.QualifiedName == ref.qualName {
				out = append(out, sym)
			}
		}
	}
	return out, nil
}

// splitLast splits "{relPath}:{qualName}" on the final colon, since relPath
// itself may contain "/" but qualified names never contain ":".
func splitLast(s string) (string, string, bool) {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == ':' {
			return s[:i], s[i+1:], true
		}
	}
	return "", "", false
}

func txnDeleteFileSymbols(txn *badger.Txn, project, relPath string) error {
	existing, err := txnGetFileSymbols(txn, project, relPath)
	if err != nil {
		return err
	}
	for _, sym := range existing {
		if err := txn.Delete(keySymbol(project, relPath, sym.QualifiedName, string(sym.Kind))); err != nil {
			return indexerrors.Wrap(indexerrors.Store, "failed to delete symbol", err)
		}
		if err := txn.Delete(keySymFP(project, sym.Fingerprint, relPath, sym.QualifiedName)); err != nil {
			return indexerrors.Wrap(indexerrors.Store, "failed to delete fingerprint index row", err)
		}
	}
	return nil
}

func txnGetStats(txn *badger.Txn, project string) (model.FileStats, error) {
	var stats model.FileStats

	fileOpts := badger.DefaultIteratorOptions
	fileOpts.Prefix = keyFilePrefix(project)
	fileOpts.PrefetchValues = false
	fileIt := txn.NewIterator(fileOpts)
	for fileIt.Seek(fileOpts.Prefix); fileIt.ValidForPrefix(fileOpts.Prefix); fileIt.Next() {
		stats.FileCount++
	}
	fileIt.Close()

	symOpts := badger.DefaultIteratorOptions
	symOpts.Prefix = keySymbolProjectPrefix(project)
	symOpts.PrefetchValues = false
	symIt := txn.NewIterator(symOpts)
	for symIt.Seek(symOpts.Prefix); symIt.ValidForPrefix(symOpts.Prefix); symIt.Next() {
		stats.SymbolCount++
	}
	symIt.Close()

	relOpts := badger.DefaultIteratorOptions
	relOpts.Prefix = []byte(prefixRel + project + ":")
	relOpts.PrefetchValues = false
	relIt := txn.NewIterator(relOpts)
	for relIt.Seek(relOpts.Prefix); relIt.ValidForPrefix(relOpts.Prefix); relIt.Next() {
		stats.RelationCount++
	}
	relIt.Close()

	return stats, nil
}

func (s *Store) ReplaceFileSymbols(ctx context.Context, project, relPath string, rows []*model.Symbol) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txnReplaceFileSymbols(txn, project, relPath, rows)
	})
}

func (s *Store) GetFileSymbols(ctx context.Context, project, relPath string) ([]*model.Symbol, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []*model.Symbol
	err := s.db.View(func(txn *badger.Txn) error {
		got, err := txnGetFileSymbols(txn, project, relPath)
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

func (s *Store) GetByFingerprint(ctx context.Context, project, fingerprint string) ([]*model.Symbol, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []*model.Symbol
	err := s.db.View(func(txn *badger.Txn) error {
		got, err := txnGetByFingerprint(txn, project, fingerprint)
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

func (s *Store) DeleteFileSymbols(ctx context.Context, project, relPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txnDeleteFileSymbols(txn, project, relPath)
	})
}

func (s *Store) GetStats(ctx context.Context, project string) (model.FileStats, error) {
	if err := ctx.Err(); err != nil {
		return model.FileStats{}, err
	}
	var stats model.FileStats
	err := s.db.View(func(txn *badger.Txn) error {
		got, err := txnGetStats(txn, project)
		if err != nil {
			return err
		}
		stats = got
		return nil
	})
	if err != nil {
		return model.FileStats{}, err
	}
	return stats, nil
}
