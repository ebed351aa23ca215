package storetest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/codeindex/pkg/index/model"
)

func runFileOpsTests(t *testing.T, factory StoreFactory) {
	t.Run("UpsertThenGet", func(t *testing.T) {
		s := factory(t)
		ctx := t.Context()

		rec := &model.FileRecord{Project: "web", RelativePath: "src/a.ts", ContentHash: "abc", SizeBytes: 10}
		require.NoError(t, s.UpsertFile(ctx, rec))

		got, err := s.GetFile(ctx, "web", "src/a.ts")
		require.NoError(t, err)
		assert.Equal(t, rec.ContentHash, got.ContentHash)
		assert.Equal(t, rec.SizeBytes, got.SizeBytes)
	})

	t.Run("UpsertOverwritesExisting", func(t *testing.T) {
		s := factory(t)
		ctx := t.Context()

		require.NoError(t, s.UpsertFile(ctx, &model.FileRecord{Project: "web", RelativePath: "a.ts", ContentHash: "v1"}))
		require.NoError(t, s.UpsertFile(ctx, &model.FileRecord{Project: "web", RelativePath: "a.ts", ContentHash: "v2"}))

		got, err := s.GetFile(ctx, "web", "a.ts")
		require.NoError(t, err)
		assert.Equal(t, "v2", got.ContentHash)
	})

	t.Run("GetMissingReturnsError", func(t *testing.T) {
		s := factory(t)
		_, err := s.GetFile(t.Context(), "web", "missing.ts")
		assert.Error(t, err)
	})

	t.Run("GetAllFilesScopesToProject", func(t *testing.T) {
		s := factory(t)
		ctx := t.Context()

		require.NoError(t, s.UpsertFile(ctx, &model.FileRecord{Project: "web", RelativePath: "a.ts"}))
		require.NoError(t, s.UpsertFile(ctx, &model.FileRecord{Project: "web", RelativePath: "b.ts"}))
		require.NoError(t, s.UpsertFile(ctx, &model.FileRecord{Project: "api", RelativePath: "c.ts"}))

		rows, err := s.GetAllFiles(ctx, "web")
		require.NoError(t, err)
		assert.Len(t, rows, 2)
	})

	t.Run("GetFilesMapKeyedByRelativePath", func(t *testing.T) {
		s := factory(t)
		ctx := t.Context()

		require.NoError(t, s.UpsertFile(ctx, &model.FileRecord{Project: "web", RelativePath: "a.ts", ContentHash: "h1"}))

		m, err := s.GetFilesMap(ctx, "web")
		require.NoError(t, err)
		require.Contains(t, m, "a.ts")
		assert.Equal(t, "h1", m["a.ts"].ContentHash)
	})

	t.Run("DeleteRemovesFile", func(t *testing.T) {
		s := factory(t)
		ctx := t.Context()

		require.NoError(t, s.UpsertFile(ctx, &model.FileRecord{Project: "web", RelativePath: "a.ts"}))
		require.NoError(t, s.DeleteFile(ctx, "web", "a.ts"))

		_, err := s.GetFile(ctx, "web", "a.ts")
		assert.Error(t, err)
	})
}
