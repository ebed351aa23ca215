package memory

import (
	"context"

	indexerrors "github.com/marmos91/codeindex/pkg/index/errors"
	"github.com/marmos91/codeindex/pkg/index/model"
	"github.com/marmos91/codeindex/pkg/index/store"
)

func (t *transaction) GetOwner(ctx context.Context) (*model.OwnerRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if t.store.owner == nil {
		return nil, indexerrors.New(indexerrors.Store, "owner row not found")
	}
	cp := *t.store.owner
	return &cp, nil
}

func (t *transaction) PutOwner(ctx context.Context, owner *model.OwnerRow) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cp := *owner
	t.store.owner = &cp
	return nil
}

func (t *transaction) DeleteOwner(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.store.owner = nil
	return nil
}

func (s *Store) GetOwner(ctx context.Context) (*model.OwnerRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return (&transaction{store: s}).GetOwner(ctx)
}

func (s *Store) PutOwner(ctx context.Context, owner *model.OwnerRow) error {
	return s.Transaction(ctx, func(tx store.Transaction) error {
		return tx.PutOwner(ctx, owner)
	})
}

func (s *Store) DeleteOwner(ctx context.Context) error {
	return s.Transaction(ctx, func(tx store.Transaction) error {
		return tx.DeleteOwner(ctx)
	})
}
