package movetracker_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/codeindex/pkg/index/model"
	"github.com/marmos91/codeindex/pkg/index/movetracker"
	"github.com/marmos91/codeindex/pkg/index/store/memory"
)

func TestTrackRetargetsOnUnambiguousMatch(t *testing.T) {
	st := memory.New()
	ctx := t.Context()

	require.NoError(t, st.ReplaceFileSymbols(ctx, "web", "new.ts", []*model.Symbol{
		{Project: "web", RelativePath: "new.ts", QualifiedName: "run", Kind: model.KindFunction, Fingerprint: "fp1"},
	}))
	require.NoError(t, st.ReplaceFileRelations(ctx, "web", "caller.ts", []*model.Relation{
		{Project: "web", Type: model.RelationCalls, DstProject: "web", DstFile: "old.ts", DstSymbol: "run"},
	}))

	tr := movetracker.New(st)
	snapshot := []*model.Symbol{
		{Project: "web", RelativePath: "old.ts", QualifiedName: "run", Kind: model.KindFunction, Fingerprint: "fp1"},
	}
	require.NoError(t, tr.Track(ctx, "web", snapshot))

	in, err := st.GetIncoming(ctx, "web", "new.ts")
	require.NoError(t, err)
	require.Len(t, in, 1)
	assert.Equal(t, "new.ts", in[0].DstFile)

	oldIn, err := st.GetIncoming(ctx, "web", "old.ts")
	require.NoError(t, err)
	assert.Empty(t, oldIn)
}

func TestTrackSkipsAmbiguousMatches(t *testing.T) {
	st := memory.New()
	ctx := t.Context()

	require.NoError(t, st.ReplaceFileSymbols(ctx, "web", "new1.ts", []*model.Symbol{
		{Project: "web", RelativePath: "new1.ts", QualifiedName: "run", Kind: model.KindFunction, Fingerprint: "fp1"},
	}))
	require.NoError(t, st.ReplaceFileSymbols(ctx, "web", "new2.ts", []*model.Symbol{
		{Project: "web", RelativePath: "new2.ts", QualifiedName: "run", Kind: model.KindFunction, Fingerprint: "fp1"},
	}))
	require.NoError(t, st.ReplaceFileRelations(ctx, "web", "caller.ts", []*model.Relation{
		{Project: "web", Type: model.RelationCalls, DstProject: "web", DstFile: "old.ts", DstSymbol: "run"},
	}))

	tr := movetracker.New(st)
	snapshot := []*model.Symbol{
		{Project: "web", RelativePath: "old.ts", QualifiedName: "run", Kind: model.KindFunction, Fingerprint: "fp1"},
	}
	require.NoError(t, tr.Track(ctx, "web", snapshot))

	oldIn, err := st.GetIncoming(ctx, "web", "old.ts")
	require.NoError(t, err)
	require.Len(t, oldIn, 1, "ambiguous match must not retarget")
}
