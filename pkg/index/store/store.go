// Package store defines the repository contract the rest of the indexer is
// built against, plus the two concrete backends: badger (production) and
// memory (tests). The contract combines per-concern interfaces into one
// Transaction/Store pair.
package store

import (
	"context"

	"github.com/marmos91/codeindex/pkg/index/model"
)

// FileRepository stores and retrieves FileRecord rows.
type FileRepository interface {
	UpsertFile(ctx context.Context, record *model.FileRecord) error
	GetFile(ctx context.Context, project, relPath string) (*model.FileRecord, error)
	GetAllFiles(ctx context.Context, project string) ([]*model.FileRecord, error)
	// GetFilesMap returns every FileRecord for project keyed by relative path.
	// Insertion order is irrelevant; callers treat it as a set-keyed lookup.
	GetFilesMap(ctx context.Context, project string) (map[string]*model.FileRecord, error)
	DeleteFile(ctx context.Context, project, relPath string) error
}

// SymbolRepository stores and retrieves Symbol rows.
type SymbolRepository interface {
	// ReplaceFileSymbols atomically removes the previous row-set for
	// (project, relPath) and inserts rows.
	ReplaceFileSymbols(ctx context.Context, project, relPath string, rows []*model.Symbol) error
	GetFileSymbols(ctx context.Context, project, relPath string) ([]*model.Symbol, error)
	GetByFingerprint(ctx context.Context, project, fingerprint string) ([]*model.Symbol, error)
	DeleteFileSymbols(ctx context.Context, project, relPath string) error
	GetStats(ctx context.Context, project string) (model.FileStats, error)
}

// RelationRepository stores and retrieves Relation rows.
type RelationRepository interface {
	ReplaceFileRelations(ctx context.Context, project, relPath string, rows []*model.Relation) error
	GetOutgoing(ctx context.Context, project, relPath string) ([]*model.Relation, error)
	GetIncoming(ctx context.Context, project, relPath string) ([]*model.Relation, error)
	GetByType(ctx context.Context, project string, relType model.RelationType) ([]*model.Relation, error)
	DeleteFileRelations(ctx context.Context, project, relPath string) error
	// RetargetRelations rewrites inbound relations pointing at
	// (oldFile, oldSymbol) to (newFile, newSymbol). Used by the move tracker.
	RetargetRelations(ctx context.Context, project, oldFile, oldSymbol, newFile, newSymbol string) error
	SearchRelations(ctx context.Context, project string, relType model.RelationType, srcFile string) ([]*model.Relation, error)
}

// OwnerRepository stores the single ownership row (at most one per store).
type OwnerRepository interface {
	GetOwner(ctx context.Context) (*model.OwnerRow, error)
	PutOwner(ctx context.Context, owner *model.OwnerRow) error
	DeleteOwner(ctx context.Context) error
}

// Transaction bundles every repository interface, available to code running
// inside Store.Transaction's callback.
type Transaction interface {
	FileRepository
	SymbolRepository
	RelationRepository
	OwnerRepository
}

// Store is the full repository surface the session depends on: every
// repository for non-transactional calls, plus Transaction support.
type Store interface {
	FileRepository
	SymbolRepository
	RelationRepository
	OwnerRepository

	// Transaction runs fn atomically. If fn returns an error the transaction
	// is rolled back; otherwise it commits. The memory backend is the
	// exception: it serializes fn but does not undo writes made before the
	// error. Nested transactions are not supported.
	Transaction(ctx context.Context, fn func(tx Transaction) error) error

	// DeleteFileCascade removes the FileRecord for (project, relPath) and
	// cascades to its symbols and relations.
	DeleteFileCascade(ctx context.Context, project, relPath string) error

	// Close releases any resources held by the store.
	Close() error
}
