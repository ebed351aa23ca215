package memory

import (
	"context"

	indexerrors "github.com/marmos91/codeindex/pkg/index/errors"
	"github.com/marmos91/codeindex/pkg/index/model"
	"github.com/marmos91/codeindex/pkg/index/store"
)

func (t *transaction) ReplaceFileRelations(ctx context.Context, project, relPath string, rows []*model.Relation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := t.DeleteFileRelations(ctx, project, relPath); err != nil {
		return err
	}
	for _, rel := range rows {
		cp := *rel
		cp.Project = project
		cp.SrcFile = relPath
		t.store.relations = append(t.store.relations, &cp)
	}
	return nil
}

func (t *transaction) GetOutgoing(ctx context.Context, project, relPath string) ([]*model.Relation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []*model.Relation
	for _, rel := range t.store.relations {
		if rel.Project == project && rel.SrcFile == relPath {
			cp := *rel
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (t *transaction) GetIncoming(ctx context.Context, project, relPath string) ([]*model.Relation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []*model.Relation
	for _, rel := range t.store.relations {
		if rel.DstProject == project && rel.DstFile == relPath {
			cp := *rel
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (t *transaction) GetByType(ctx context.Context, project string, relType model.RelationType) ([]*model.Relation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []*model.Relation
	for _, rel := range t.store.relations {
		if rel.Project == project && rel.Type == relType {
			cp := *rel
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (t *transaction) DeleteFileRelations(ctx context.Context, project, relPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	kept := t.store.relations[:0]
	for _, rel := range t.store.relations {
		if rel.Project == project && rel.SrcFile == relPath {
			continue
		}
		kept = append(kept, rel)
	}
	t.store.relations = kept
	return nil
}

func (t *transaction) RetargetRelations(ctx context.Context, project, oldFile, oldSymbol, newFile, newSymbol string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, rel := range t.store.relations {
		if rel.DstProject != project || rel.DstFile != oldFile {
			continue
		}
		if oldSymbol != "" && rel.DstSymbol != oldSymbol {
			continue
		}
		rel.DstFile = newFile
		rel.DstSymbol = newSymbol
	}
	return nil
}

func (t *transaction) SearchRelations(ctx context.Context, project string, relType model.RelationType, srcFile string) ([]*model.Relation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if srcFile == "" && relType == "" {
		return nil, indexerrors.New(indexerrors.Validation, "SearchRelations requires a type or a srcFile")
	}
	var out []*model.Relation
	for _, rel := range t.store.relations {
		if rel.Project != project {
			continue
		}
		if srcFile != "" && rel.SrcFile != srcFile {
			continue
		}
		if relType != "" && rel.Type != relType {
			continue
		}
		cp := *rel
		out = append(out, &cp)
	}
	return out, nil
}

func (s *Store) ReplaceFileRelations(ctx context.Context, project, relPath string, rows []*model.Relation) error {
	return s.Transaction(ctx, func(tx store.Transaction) error {
		return tx.ReplaceFileRelations(ctx, project, relPath, rows)
	})
}

func (s *Store) GetOutgoing(ctx context.Context, project, relPath string) ([]*model.Relation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return (&transaction{store: s}).GetOutgoing(ctx, project, relPath)
}

func (s *Store) GetIncoming(ctx context.Context, project, relPath string) ([]*model.Relation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return (&transaction{store: s}).GetIncoming(ctx, project, relPath)
}

func (s *Store) GetByType(ctx context.Context, project string, relType model.RelationType) ([]*model.Relation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return (&transaction{store: s}).GetByType(ctx, project, relType)
}

func (s *Store) DeleteFileRelations(ctx context.Context, project, relPath string) error {
	return s.Transaction(ctx, func(tx store.Transaction) error {
		return tx.DeleteFileRelations(ctx, project, relPath)
	})
}

func (s *Store) RetargetRelations(ctx context.Context, project, oldFile, oldSymbol, newFile, newSymbol string) error {
	return s.Transaction(ctx, func(tx store.Transaction) error {
		return tx.RetargetRelations(ctx, project, oldFile, oldSymbol, newFile, newSymbol)
	})
}

func (s *Store) SearchRelations(ctx context.Context, project string, relType model.RelationType, srcFile string) ([]*model.Relation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return (&transaction{store: s}).SearchRelations(ctx, project, relType, srcFile)
}
