package memory

import (
	"context"

	indexerrors "github.com/marmos91/codeindex/pkg/index/errors"
	"github.com/marmos91/codeindex/pkg/index/model"
	"github.com/marmos91/codeindex/pkg/index/store"
)

func (t *transaction) UpsertFile(ctx context.Context, record *model.FileRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cp := *record
	t.store.files[fileKey(record.Project, record.RelativePath)] = &cp
	return nil
}

func (t *transaction) GetFile(ctx context.Context, project, relPath string) (*model.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rec, ok := t.store.files[fileKey(project, relPath)]
	if !ok {
		return nil, indexerrors.New(indexerrors.Store, "file record not found")
	}
	cp := *rec
	return &cp, nil
}

func (t *transaction) GetAllFiles(ctx context.Context, project string) ([]*model.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []*model.FileRecord
	for _, rec := range t.store.files {
		if rec.Project == project {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (t *transaction) GetFilesMap(ctx context.Context, project string) (map[string]*model.FileRecord, error) {
	rows, err := t.GetAllFiles(ctx, project)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*model.FileRecord, len(rows))
	for _, rec := range rows {
		out[rec.RelativePath] = rec
	}
	return out, nil
}

func (t *transaction) DeleteFile(ctx context.Context, project, relPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	delete(t.store.files, fileKey(project, relPath))
	return nil
}

func (s *Store) UpsertFile(ctx context.Context, record *model.FileRecord) error {
	return s.Transaction(ctx, func(tx store.Transaction) error {
		return tx.UpsertFile(ctx, record)
	})
}

func (s *Store) GetFile(ctx context.Context, project, relPath string) (*model.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return (&transaction{store: s}).GetFile(ctx, project, relPath)
}

func (s *Store) GetAllFiles(ctx context.Context, project string) ([]*model.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return (&transaction{store: s}).GetAllFiles(ctx, project)
}

func (s *Store) GetFilesMap(ctx context.Context, project string) (map[string]*model.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return (&transaction{store: s}).GetFilesMap(ctx, project)
}

func (s *Store) DeleteFile(ctx context.Context, project, relPath string) error {
	return s.Transaction(ctx, func(tx store.Transaction) error {
		return tx.DeleteFile(ctx, project, relPath)
	})
}
