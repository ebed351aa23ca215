package storetest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/codeindex/pkg/index/model"
)

func runCascadeTests(t *testing.T, factory StoreFactory) {
	t.Run("DeleteFileCascadeRemovesSymbolsAndRelations", func(t *testing.T) {
		s := factory(t)
		ctx := t.Context()

		require.NoError(t, s.UpsertFile(ctx, &model.FileRecord{Project: "web", RelativePath: "a.ts"}))
		require.NoError(t, s.ReplaceFileSymbols(ctx, "web", "a.ts", []*model.Symbol{
			{Project: "web", RelativePath: "a.ts", QualifiedName: "foo", Kind: model.KindFunction, Fingerprint: "f1"},
		}))
		require.NoError(t, s.ReplaceFileRelations(ctx, "web", "a.ts", []*model.Relation{
			{Project: "web", Type: model.RelationImports, DstProject: "web", DstFile: "b.ts"},
		}))

		require.NoError(t, s.DeleteFileCascade(ctx, "web", "a.ts"))

		_, err := s.GetFile(ctx, "web", "a.ts")
		assert.Error(t, err)

		syms, err := s.GetFileSymbols(ctx, "web", "a.ts")
		require.NoError(t, err)
		assert.Empty(t, syms)

		out, err := s.GetOutgoing(ctx, "web", "a.ts")
		require.NoError(t, err)
		assert.Empty(t, out)
	})
}
