package badger

import (
	"context"

	"github.com/cespare/xxhash/v2"
	badger "github.com/dgraph-io/badger/v4"

	indexerrors "github.com/marmos91/codeindex/pkg/index/errors"
	"github.com/marmos91/codeindex/pkg/index/model"
)

// scanBySrc walks the relsrc index rooted at (project, srcFile), pairing
// each index row with the rel: row it points at.
func scanBySrc(txn *badger.Txn, project, srcFile string) ([]inboundRow, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = keyRelSrcIndexPrefix(project, srcFile)
	it := txn.NewIterator(opts)
	defer it.Close()

	var out []inboundRow
	for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
		item := it.Item()
		idxKey := item.KeyCopy(nil)

		var relKey []byte
		err := item.Value(func(val []byte) error {
			relKey = append([]byte(nil), val...)
			return nil
		})
		if err != nil {
			return nil, indexerrors.Wrap(indexerrors.Store, "failed to read relation source index row", err)
		}

		relItem, err := txn.Get(relKey)
		if err == badger.ErrKeyNotFound {
			continue
		}
		if err != nil {
			return nil, indexerrors.Wrap(indexerrors.Store, "failed to get indexed relation row", err)
		}
		err = relItem.Value(func(val []byte) error {
			rel, err := decodeRelation(val)
			if err != nil {
				return err
			}
			out = append(out, inboundRow{idxKey: idxKey, relKey: relKey, rel: rel})
			return nil
		})
		if err != nil {
			return nil, indexerrors.Wrap(indexerrors.Store, "failed to decode relation", err)
		}
	}
	return out, nil
}

// txnGetOutgoing looks up a file's relation rows through the relsrc index,
// so it never has to scan every relation type.
func txnGetOutgoing(txn *badger.Txn, project, relPath string) ([]*model.Relation, error) {
	rows, err := scanBySrc(txn, project, relPath)
	if err != nil {
		return nil, err
	}
	out := make([]*model.Relation, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.rel)
	}
	return out, nil
}

func txnReplaceFileRelations(txn *badger.Txn, project, relPath string, rows []*model.Relation) error {
	if err := txnDeleteFileRelations(txn, project, relPath); err != nil {
		return err
	}
	for seq, rel := range rows {
		if err := txnPutRelation(txn, project, relPath, rel, uint64(seq)); err != nil {
			return err
		}
	}
	return nil
}

func txnPutRelation(txn *badger.Txn, project, relPath string, rel *model.Relation, seq uint64) error {
	rel.Project = project
	rel.SrcFile = relPath

	data, err := encodeRelation(rel)
	if err != nil {
		return indexerrors.Wrap(indexerrors.Store, "failed to encode relation", err)
	}
	relKey := keyRel(project, rel.Type, relPath, rel.SrcSymbol, seq)
	if err := txn.Set(relKey, data); err != nil {
		return indexerrors.Wrap(indexerrors.Store, "failed to store relation", err)
	}
	if err := txn.Set(keyRelSrc(project, relPath, seq), relKey); err != nil {
		return indexerrors.Wrap(indexerrors.Store, "failed to store relation source index row", err)
	}
	// The inbound row's suffix is a hash of the rel: key: seq alone repeats
	// across source files that point at the same target.
	inKey := keyRelIn(rel.DstProject, rel.DstFile, rel.DstSymbol, xxhash.Sum64(relKey))
	if err := txn.Set(inKey, relKey); err != nil {
		return indexerrors.Wrap(indexerrors.Store, "failed to store relation inbound index row", err)
	}
	return nil
}

func txnDeleteFileRelations(txn *badger.Txn, project, relPath string) error {
	rows, err := scanBySrc(txn, project, relPath)
	if err != nil {
		return err
	}

	for _, row := range rows {
		if err := txn.Delete(row.idxKey); err != nil {
			return indexerrors.Wrap(indexerrors.Store, "failed to delete relation source index row", err)
		}
		if err := txn.Delete(row.relKey); err != nil {
			return indexerrors.Wrap(indexerrors.Store, "failed to delete relation row", err)
		}
		relInKey := keyRelInPrefix(row.rel.DstProject, row.rel.DstFile, row.rel.DstSymbol)
		if err := deleteByExactRelKey(txn, relInKey, row.relKey); err != nil {
			return err
		}
	}
	return nil
}

// deleteByExactRelKey scans the relin rows sharing relInPrefix and deletes
// the one whose value equals relKey, since the relin row's own seq suffix
// is not otherwise known to the caller.
func deleteByExactRelKey(txn *badger.Txn, relInPrefix, relKey []byte) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = relInPrefix
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Seek(relInPrefix); it.ValidForPrefix(relInPrefix); it.Next() {
		item := it.Item()
		var match bool
		err := item.Value(func(val []byte) error {
			match = string(val) == string(relKey)
			return nil
		})
		if err != nil {
			return indexerrors.Wrap(indexerrors.Store, "failed to read inbound index row", err)
		}
		if match {
			return txn.Delete(item.KeyCopy(nil))
		}
	}
	return nil
}

func txnGetByType(txn *badger.Txn, project string, relType model.RelationType) ([]*model.Relation, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = keyRelProjectTypePrefix(project, relType)
	it := txn.NewIterator(opts)
	defer it.Close()

	var out []*model.Relation
	for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
		item := it.Item()
		err := item.Value(func(val []byte) error {
			rel, err := decodeRelation(val)
			if err != nil {
				return err
			}
			out = append(out, rel)
			return nil
		})
		if err != nil {
			return nil, indexerrors.Wrap(indexerrors.Store, "failed to decode relation", err)
		}
	}
	return out, nil
}

func txnSearchRelations(txn *badger.Txn, project string, relType model.RelationType, srcFile string) ([]*model.Relation, error) {
	if srcFile != "" {
		rows, err := txnGetOutgoing(txn, project, srcFile)
		if err != nil {
			return nil, err
		}
		if relType == "" {
			return rows, nil
		}
		var filtered []*model.Relation
		for _, rel := range rows {
			if rel.Type == relType {
				filtered = append(filtered, rel)
			}
		}
		return filtered, nil
	}
	if relType != "" {
		return txnGetByType(txn, project, relType)
	}
	return nil, indexerrors.New(indexerrors.Validation, "SearchRelations requires a type or a srcFile")
}

type inboundRow struct {
	idxKey  []byte
	relKey []byte
	seq    uint64
	rel    *model.Relation
}

// scanInbound walks the relin index rooted at (project, dstFile), pairing
// each index row with the rel: row it points at. A dstSymbol-agnostic lookup
// prefixes on project+file only, since relin keys are
// relin:{dstProject}:{dstFile}:{dstSymbol}:{relKeyHash}.
func scanInbound(txn *badger.Txn, project, dstFile string) ([]inboundRow, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefixRelIn + project + ":" + dstFile + ":")
	it := txn.NewIterator(opts)
	defer it.Close()

	var out []inboundRow
	for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
		item := it.Item()
		idxKey := item.KeyCopy(nil)
		seq := seqFromInboundKey(idxKey)

		var relKey []byte
		err := item.Value(func(val []byte) error {
			relKey = append([]byte(nil), val...)
			return nil
		})
		if err != nil {
			return nil, indexerrors.Wrap(indexerrors.Store, "failed to read inbound index row", err)
		}

		relItem, err := txn.Get(relKey)
		if err == badger.ErrKeyNotFound {
			continue
		}
		if err != nil {
			return nil, indexerrors.Wrap(indexerrors.Store, "failed to get indexed relation row", err)
		}
		err = relItem.Value(func(val []byte) error {
			rel, err := decodeRelation(val)
			if err != nil {
				return err
			}
			out = append(out, inboundRow{idxKey: idxKey, relKey: relKey, seq: seq, rel: rel})
			return nil
		})
		if err != nil {
			return nil, indexerrors.Wrap(indexerrors.Store, "failed to decode relation", err)
		}
	}
	return out, nil
}

// seqFromInboundKey extracts the trailing numeric component of a relin key.
func seqFromInboundKey(key []byte) uint64 {
	s := string(key)
	idx := lastIndexByte(s, ':')
	if idx < 0 {
		return 0
	}
	var seq uint64
	for _, c := range s[idx+1:] {
		if c < '0' || c > '9' {
			return seq
		}
		seq = seq*10 + uint64(c-'0')
	}
	return seq
}

func lastIndexByte(s string, b byte) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == b {
			return i
		}
	}
	return -1
}

func txnGetIncoming(txn *badger.Txn, project, relPath string) ([]*model.Relation, error) {
	rows, err := scanInbound(txn, project, relPath)
	if err != nil {
		return nil, err
	}
	out := make([]*model.Relation, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.rel)
	}
	return out, nil
}

// txnRetargetRelations rewrites every inbound relation pointing at
// (oldFile, oldSymbol) to point at (newFile, newSymbol) instead. Used by the
// move tracker once it has matched a fingerprint across a scan.
func txnRetargetRelations(txn *badger.Txn, project, oldFile, oldSymbol, newFile, newSymbol string) error {
	rows, err := scanInbound(txn, project, oldFile)
	if err != nil {
		return err
	}

	for _, row := range rows {
		if oldSymbol != "" && row.rel.DstSymbol != oldSymbol {
			continue
		}
		row.rel.DstFile = newFile
		row.rel.DstSymbol = newSymbol

		data, err := encodeRelation(row.rel)
		if err != nil {
			return indexerrors.Wrap(indexerrors.Store, "failed to encode retargeted relation", err)
		}
		if err := txn.Set(row.relKey, data); err != nil {
			return indexerrors.Wrap(indexerrors.Store, "failed to store retargeted relation", err)
		}
		if err := txn.Delete(row.idxKey); err != nil {
			return indexerrors.Wrap(indexerrors.Store, "failed to delete stale inbound index row", err)
		}
		if err := txn.Set(keyRelIn(project, newFile, newSymbol, row.seq), row.relKey); err != nil {
			return indexerrors.Wrap(indexerrors.Store, "failed to store retargeted inbound index row", err)
		}
	}
	return nil
}

func (s *Store) ReplaceFileRelations(ctx context.Context, project, relPath string, rows []*model.Relation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txnReplaceFileRelations(txn, project, relPath, rows)
	})
}

func (s *Store) GetOutgoing(ctx context.Context, project, relPath string) ([]*model.Relation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []*model.Relation
	err := s.db.View(func(txn *badger.Txn) error {
		got, err := txnGetOutgoing(txn, project, relPath)
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

func (s *Store) GetIncoming(ctx context.Context, project, relPath string) ([]*model.Relation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []*model.Relation
	err := s.db.View(func(txn *badger.Txn) error {
		got, err := txnGetIncoming(txn, project, relPath)
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

func (s *Store) GetByType(ctx context.Context, project string, relType model.RelationType) ([]*model.Relation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []*model.Relation
	err := s.db.View(func(txn *badger.Txn) error {
		got, err := txnGetByType(txn, project, relType)
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

func (s *Store) DeleteFileRelations(ctx context.Context, project, relPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txnDeleteFileRelations(txn, project, relPath)
	})
}

func (s *Store) RetargetRelations(ctx context.Context, project, oldFile, oldSymbol, newFile, newSymbol string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txnRetargetRelations(txn, project, oldFile, oldSymbol, newFile, newSymbol)
	})
}

func (s *Store) SearchRelations(ctx context.Context, project string, relType model.RelationType, srcFile string) ([]*model.Relation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []*model.Relation
	err := s.db.View(func(txn *badger.Txn) error {
		got, err := txnSearchRelations(txn, project, relType, srcFile)
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
