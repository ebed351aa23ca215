package badger

import (
	"context"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/marmos91/codeindex/pkg/index/model"
	"github.com/marmos91/codeindex/pkg/index/store"
)

// transaction adapts a single BadgerDB write transaction to store.Transaction
// for use inside Store.Transaction's callback. Every method delegates to the
// same txn* helpers the non-transactional Store methods use, so full and
// incremental reindex share one implementation either way.
type transaction struct {
	txn *badger.Txn
}

func (t *transaction) UpsertFile(ctx context.Context, record *model.FileRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return txnUpsertFile(t.txn, record)
}

func (t *transaction) GetFile(ctx context.Context, project, relPath string) (*model.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return txnGetFile(t.txn, project, relPath)
}

func (t *transaction) GetAllFiles(ctx context.Context, project string) ([]*model.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return txnGetAllFiles(t.txn, project)
}

func (t *transaction) GetFilesMap(ctx context.Context, project string) (map[string]*model.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return txnGetFilesMap(t.txn, project)
}

func (t *transaction) DeleteFile(ctx context.Context, project, relPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return txnDeleteFile(t.txn, project, relPath)
}

func (t *transaction) ReplaceFileSymbols(ctx context.Context, project, relPath string, rows []*model.Symbol) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return txnReplaceFileSymbols(t.txn, project, relPath, rows)
}

func (t *transaction) GetFileSymbols(ctx context.Context, project, relPath string) ([]*model.Symbol, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return txnGetFileSymbols(t.txn, project, relPath)
}

func (t *transaction) GetByFingerprint(ctx context.Context, project, fingerprint string) ([]*model.Symbol, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return txnGetByFingerprint(t.txn, project, fingerprint)
}

func (t *transaction) DeleteFileSymbols(ctx context.Context, project, relPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return txnDeleteFileSymbols(t.txn, project, relPath)
}

func (t *transaction) GetStats(ctx context.Context, project string) (model.FileStats, error) {
	if err := ctx.Err(); err != nil {
		return model.FileStats{}, err
	}
	return txnGetStats(t.txn, project)
}

func (t *transaction) ReplaceFileRelations(ctx context.Context, project, relPath string, rows []*model.Relation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return txnReplaceFileRelations(t.txn, project, relPath, rows)
}

func (t *transaction) GetOutgoing(ctx context.Context, project, relPath string) ([]*model.Relation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return txnGetOutgoing(t.txn, project, relPath)
}

func (t *transaction) GetIncoming(ctx context.Context, project, relPath string) ([]*model.Relation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return txnGetIncoming(t.txn, project, relPath)
}

func (t *transaction) GetByType(ctx context.Context, project string, relType model.RelationType) ([]*model.Relation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return txnGetByType(t.txn, project, relType)
}

func (t *transaction) DeleteFileRelations(ctx context.Context, project, relPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return txnDeleteFileRelations(t.txn, project, relPath)
}

func (t *transaction) RetargetRelations(ctx context.Context, project, oldFile, oldSymbol, newFile, newSymbol string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return txnRetargetRelations(t.txn, project, oldFile, oldSymbol, newFile, newSymbol)
}

func (t *transaction) SearchRelations(ctx context.Context, project string, relType model.RelationType, srcFile string) ([]*model.Relation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return txnSearchRelations(t.txn, project, relType, srcFile)
}

func (t *transaction) GetOwner(ctx context.Context) (*model.OwnerRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return txnGetOwner(t.txn, "")
}

func (t *transaction) PutOwner(ctx context.Context, owner *model.OwnerRow) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return txnPutOwner(t.txn, "", owner)
}

func (t *transaction) DeleteOwner(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return txnDeleteOwner(t.txn, "")
}

var _ store.Transaction = (*transaction)(nil)
