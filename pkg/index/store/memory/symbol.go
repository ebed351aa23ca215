package memory

import (
	"context"

	"github.com/marmos91/codeindex/pkg/index/model"
	"github.com/marmos91/codeindex/pkg/index/store"
)

func (t *transaction) ReplaceFileSymbols(ctx context.Context, project, relPath string, rows []*model.Symbol) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for key, sym := range t.store.symbols {
		if sym.Project == project && sym.RelativePath == relPath {
			delete(t.store.symbols, key)
		}
	}
	for _, sym := range rows {
		cp := *sym
		t.store.symbols[symbolKey(project, relPath, sym.QualifiedName, string(sym.Kind))] = &cp
	}
	return nil
}

func (t *transaction) GetFileSymbols(ctx context.Context, project, relPath string) ([]*model.Symbol, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []*model.Symbol
	for _, sym := range t.store.symbols {
		if sym.Project == project && sym.RelativePath == relPath {
			cp := *sym
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (t *transaction) GetByFingerprint(ctx context.Context, project, fingerprint string) ([]*model.Symbol, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []*model.Symbol
	for _, sym := range t.store.symbols {
		if sym.Project == project && sym.Fingerprint == fingerprint {
			cp := *sym
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (t *transaction) DeleteFileSymbols(ctx context.Context, project, relPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for key, sym := range t.store.symbols {
		if sym.Project == project && sym.RelativePath == relPath {
			delete(t.store.symbols, key)
		}
	}
	return nil
}

func (t *transaction) GetStats(ctx context.Context, project string) (model.FileStats, error) {
	if err := ctx.Err(); err != nil {
		return model.FileStats{}, err
	}
	var stats model.FileStats
	for _, rec := range t.store.files {
		if rec.Project == project {
			stats.FileCount++
		}
	}
	for _, sym := range t.store.symbols {
		if sym.Project == project {
			stats.SymbolCount++
		}
	}
	for _, rel := range t.store.relations {
		if rel.Project == project {
			stats.RelationCount++
		}
	}
	return stats, nil
}

func (s *Store) ReplaceFileSymbols(ctx context.Context, project, relPath string, rows []*model.Symbol) error {
	return s.Transaction(ctx, func(tx store.Transaction) error {
		return tx.ReplaceFileSymbols(ctx, project, relPath, rows)
	})
}

func (s *Store) GetFileSymbols(ctx context.Context, project, relPath string) ([]*model.Symbol, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return (&transaction{store: s}).GetFileSymbols(ctx, project, relPath)
}

func (s *Store) GetByFingerprint(ctx context.Context, project, fingerprint string) ([]*model.Symbol, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return (&transaction{store: s}).GetByFingerprint(ctx, project, fingerprint)
}

func (s *Store) DeleteFileSymbols(ctx context.Context, project, relPath string) error {
	return s.Transaction(ctx, func(tx store.Transaction) error {
		return tx.DeleteFileSymbols(ctx, project, relPath)
	})
}

func (s *Store) GetStats(ctx context.Context, project string) (model.FileStats, error) {
	if err := ctx.Err(); err != nil {
		return model.FileStats{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return (&transaction{store: s}).GetStats(ctx, project)
}
