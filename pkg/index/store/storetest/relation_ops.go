package storetest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/codeindex/pkg/index/model"
)

func runRelationOpsTests(t *testing.T, factory StoreFactory) {
	t.Run("ReplaceFileRelationsIsAtomicReplace", func(t *testing.T) {
		s := factory(t)
		ctx := t.Context()

		first := []*model.Relation{
			{Project: "web", Type: model.RelationImports, DstProject: "web", DstFile: "b.ts"},
		}
		require.NoError(t, s.ReplaceFileRelations(ctx, "web", "a.ts", first))

		second := []*model.Relation{
			{Project: "web", Type: model.RelationCalls, SrcSymbol: "run", DstProject: "web", DstFile: "c.ts", DstSymbol: "handler"},
		}
		require.NoError(t, s.ReplaceFileRelations(ctx, "web", "a.ts", second))

		out, err := s.GetOutgoing(ctx, "web", "a.ts")
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, model.RelationCalls, out[0].Type)
	})

	t.Run("GetIncomingFindsInboundEdges", func(t *testing.T) {
		s := factory(t)
		ctx := t.Context()

		require.NoError(t, s.ReplaceFileRelations(ctx, "web", "a.ts", []*model.Relation{
			{Project: "web", Type: model.RelationImports, DstProject: "web", DstFile: "b.ts"},
		}))

		in, err := s.GetIncoming(ctx, "web", "b.ts")
		require.NoError(t, err)
		require.Len(t, in, 1)
		assert.Equal(t, "a.ts", in[0].SrcFile)
	})

	t.Run("GetByTypeScopesToProjectAndType", func(t *testing.T) {
		s := factory(t)
		ctx := t.Context()

		require.NoError(t, s.ReplaceFileRelations(ctx, "web", "a.ts", []*model.Relation{
			{Project: "web", Type: model.RelationImports, DstProject: "web", DstFile: "b.ts"},
			{Project: "web", Type: model.RelationCalls, DstProject: "web", DstFile: "c.ts"},
		}))

		rows, err := s.GetByType(ctx, "web", model.RelationImports)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, model.RelationImports, rows[0].Type)
	})

	t.Run("DeleteFileRelationsClearsBothIndexes", func(t *testing.T) {
		s := factory(t)
		ctx := t.Context()

		require.NoError(t, s.ReplaceFileRelations(ctx, "web", "a.ts", []*model.Relation{
			{Project: "web", Type: model.RelationImports, DstProject: "web", DstFile: "b.ts"},
		}))
		require.NoError(t, s.DeleteFileRelations(ctx, "web", "a.ts"))

		out, err := s.GetOutgoing(ctx, "web", "a.ts")
		require.NoError(t, err)
		assert.Empty(t, out)

		in, err := s.GetIncoming(ctx, "web", "b.ts")
		require.NoError(t, err)
		assert.Empty(t, in)
	})

	t.Run("RetargetRelationsRewritesInboundEdges", func(t *testing.T) {
		s := factory(t)
		ctx := t.Context()

		require.NoError(t, s.ReplaceFileRelations(ctx, "web", "a.ts", []*model.Relation{
			{Project: "web", Type: model.RelationCalls, DstProject: "web", DstFile: "old.ts", DstSymbol: "run"},
		}))

		require.NoError(t, s.RetargetRelations(ctx, "web", "old.ts", "run", "new.ts", "run"))

		oldIn, err := s.GetIncoming(ctx, "web", "old.ts")
		require.NoError(t, err)
		assert.Empty(t, oldIn)

		newIn, err := s.GetIncoming(ctx, "web", "new.ts")
		require.NoError(t, err)
		require.Len(t, newIn, 1)
		assert.Equal(t, "new.ts", newIn[0].DstFile)
	})

	t.Run("SearchRelationsRequiresTypeOrSrcFile", func(t *testing.T) {
		s := factory(t)
		_, err := s.SearchRelations(t.Context(), "web", "", "")
		assert.Error(t, err)
	})

	t.Run("SearchRelationsFiltersByBoth", func(t *testing.T) {
		s := factory(t)
		ctx := t.Context()

		require.NoError(t, s.ReplaceFileRelations(ctx, "web", "a.ts", []*model.Relation{
			{Project: "web", Type: model.RelationImports, DstProject: "web", DstFile: "b.ts"},
			{Project: "web", Type: model.RelationCalls, DstProject: "web", DstFile: "c.ts"},
		}))

		rows, err := s.SearchRelations(ctx, "web", model.RelationImports, "a.ts")
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, model.RelationImports, rows[0].Type)
	})
}
