package storetest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/codeindex/pkg/index/model"
)

func runSymbolOpsTests(t *testing.T, factory StoreFactory) {
	t.Run("ReplaceFileSymbolsIsAtomicReplace", func(t *testing.T) {
		s := factory(t)
		ctx := t.Context()

		first := []*model.Symbol{
			{Project: "web", RelativePath: "a.ts", QualifiedName: "foo", Kind: model.KindFunction, Fingerprint: "f1"},
			{Project: "web", RelativePath: "a.ts", QualifiedName: "bar", Kind: model.KindFunction, Fingerprint: "f2"},
		}
		require.NoError(t, s.ReplaceFileSymbols(ctx, "web", "a.ts", first))

		syms, err := s.GetFileSymbols(ctx, "web", "a.ts")
		require.NoError(t, err)
		assert.Len(t, syms, 2)

		second := []*model.Symbol{
			{Project: "web", RelativePath: "a.ts", QualifiedName: "baz", Kind: model.KindFunction, Fingerprint: "f3"},
		}
		require.NoError(t, s.ReplaceFileSymbols(ctx, "web", "a.ts", second))

		syms, err = s.GetFileSymbols(ctx, "web", "a.ts")
		require.NoError(t, err)
		require.Len(t, syms, 1)
		assert.Equal(t, "baz", syms[0].QualifiedName)
	})

	t.Run("GetByFingerprintScopesToProject", func(t *testing.T) {
		s := factory(t)
		ctx := t.Context()

		rows := []*model.Symbol{
			{Project: "web", RelativePath: "a.ts", QualifiedName: "foo", Kind: model.KindFunction, Fingerprint: "shared"},
		}
		require.NoError(t, s.ReplaceFileSymbols(ctx, "web", "a.ts", rows))
		require.NoError(t, s.ReplaceFileSymbols(ctx, "api", "a.ts", rows))

		found, err := s.GetByFingerprint(ctx, "web", "shared")
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "web", found[0].Project)
	})

	t.Run("DeleteFileSymbolsAlsoClearsFingerprintIndex", func(t *testing.T) {
		s := factory(t)
		ctx := t.Context()

		rows := []*model.Symbol{
			{Project: "web", RelativePath: "a.ts", QualifiedName: "foo", Kind: model.KindFunction, Fingerprint: "f1"},
		}
		require.NoError(t, s.ReplaceFileSymbols(ctx, "web", "a.ts", rows))
		require.NoError(t, s.DeleteFileSymbols(ctx, "web", "a.ts"))

		found, err := s.GetByFingerprint(ctx, "web", "f1")
		require.NoError(t, err)
		assert.Empty(t, found)
	})

	t.Run("GetStatsCountsEveryKind", func(t *testing.T) {
		s := factory(t)
		ctx := t.Context()

		require.NoError(t, s.UpsertFile(ctx, &model.FileRecord{Project: "web", RelativePath: "a.ts"}))
		require.NoError(t, s.ReplaceFileSymbols(ctx, "web", "a.ts", []*model.Symbol{
			{Project: "web", RelativePath: "a.ts", QualifiedName: "foo", Kind: model.KindFunction, Fingerprint: "f1"},
		}))
		require.NoError(t, s.ReplaceFileRelations(ctx, "web", "a.ts", []*model.Relation{
			{Project: "web", Type: model.RelationImports, DstProject: "web", DstFile: "b.ts"},
		}))

		stats, err := s.GetStats(ctx, "web")
		require.NoError(t, err)
		assert.Equal(t, 1, stats.FileCount)
		assert.Equal(t, 1, stats.SymbolCount)
		assert.Equal(t, 1, stats.RelationCount)
	})
}
