// Package badger is the durable store.Store backend, a BadgerDB-backed
// repository layer with one prefixed key namespace per row kind,
// db.Update/db.View transactional wrapping, and ErrKeyNotFound mapped to a
// domain error.
package badger

import (
	"context"

	badger "github.com/dgraph-io/badger/v4"

	indexerrors "github.com/marmos91/codeindex/pkg/index/errors"
	"github.com/marmos91/codeindex/pkg/index/store"
)

// Store is a BadgerDB-backed store.Store.
type Store struct {
	db *badger.DB
}

// Options configures Open.
type Options struct {
	// Dir is the BadgerDB directory. Created if it does not exist.
	Dir string
	// InMemory runs BadgerDB with no on-disk files, for tests.
	InMemory bool
	// Logger, when nil, silences BadgerDB's own logging (it is noisy at
	// info level by default).
	Logger badger.Logger
}

// Open creates or opens a BadgerDB-backed store at opts.Dir.
func Open(opts Options) (*Store, error) {
	var badgerOpts badger.Options
	if opts.InMemory {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		badgerOpts = badger.DefaultOptions(opts.Dir)
	}
	badgerOpts = badgerOpts.WithLogger(opts.Logger)

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, indexerrors.Wrap(indexerrors.Store, "failed to open badger store", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying BadgerDB handle.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return indexerrors.Wrap(indexerrors.Close, "failed to close badger store", err)
	}
	return nil
}

// Transaction runs fn atomically inside a single BadgerDB update transaction.
func (s *Store) Transaction(ctx context.Context, fn func(tx store.Transaction) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return fn(&transaction{txn: txn})
	})
}

var _ store.Store = (*Store)(nil)
