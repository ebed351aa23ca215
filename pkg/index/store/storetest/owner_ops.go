package storetest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/codeindex/pkg/index/model"
)

func runOwnerOpsTests(t *testing.T, factory StoreFactory) {
	t.Run("GetOwnerBeforePutIsError", func(t *testing.T) {
		s := factory(t)
		_, err := s.GetOwner(t.Context())
		assert.Error(t, err)
	})

	t.Run("PutThenGetRoundTrips", func(t *testing.T) {
		s := factory(t)
		ctx := t.Context()

		require.NoError(t, s.PutOwner(ctx, &model.OwnerRow{PID: 42}))

		owner, err := s.GetOwner(ctx)
		require.NoError(t, err)
		assert.Equal(t, 42, owner.PID)
	})

	t.Run("PutOverwritesPriorOwner", func(t *testing.T) {
		s := factory(t)
		ctx := t.Context()

		require.NoError(t, s.PutOwner(ctx, &model.OwnerRow{PID: 1}))
		require.NoError(t, s.PutOwner(ctx, &model.OwnerRow{PID: 2}))

		owner, err := s.GetOwner(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, owner.PID)
	})

	t.Run("DeleteRemovesOwner", func(t *testing.T) {
		s := factory(t)
		ctx := t.Context()

		require.NoError(t, s.PutOwner(ctx, &model.OwnerRow{PID: 1}))
		require.NoError(t, s.DeleteOwner(ctx))

		_, err := s.GetOwner(ctx)
		assert.Error(t, err)
	})
}
