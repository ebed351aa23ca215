package storetest

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/codeindex/pkg/index/model"
	"github.com/marmos91/codeindex/pkg/index/store"
)

func runTransactionTests(t *testing.T, factory StoreFactory) {
	t.Run("CommitsOnSuccess", func(t *testing.T) {
		s := factory(t)
		ctx := t.Context()

		err := s.Transaction(ctx, func(tx store.Transaction) error {
			return tx.UpsertFile(ctx, &model.FileRecord{Project: "web", RelativePath: "a.ts"})
		})
		require.NoError(t, err)

		got, err := s.GetFile(ctx, "web", "a.ts")
		require.NoError(t, err)
		assert.Equal(t, "a.ts", got.RelativePath)
	})

	t.Run("PropagatesCallbackError", func(t *testing.T) {
		s := factory(t)
		ctx := t.Context()
		boom := errors.New("boom")

		err := s.Transaction(ctx, func(tx store.Transaction) error {
			return boom
		})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("TransactionSeesWritesMadeWithinIt", func(t *testing.T) {
		s := factory(t)
		ctx := t.Context()

		err := s.Transaction(ctx, func(tx store.Transaction) error {
			if err := tx.UpsertFile(ctx, &model.FileRecord{Project: "web", RelativePath: "a.ts"}); err != nil {
				return err
			}
			_, err := tx.GetFile(ctx, "web", "a.ts")
			return err
		})
		require.NoError(t, err)
	})
}
