package session_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/codeindex/pkg/index/clock"
	indexerrors "github.com/marmos91/codeindex/pkg/index/errors"
	"github.com/marmos91/codeindex/pkg/index/model"
	"github.com/marmos91/codeindex/pkg/index/session"
	"github.com/marmos91/codeindex/pkg/index/store/memory"
)

func writeFile(t *testing.T, root, relPath, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(root, relPath), []byte(contents), 0o644))
}

func falsePtr() *bool {
	b := false
	return &b
}

func TestOpenRejectsRelativeRoot(t *testing.T) {
	_, err := session.Open(session.Config{ProjectRoot: "relative/path"})
	require.Error(t, err)
	assert.True(t, indexerrors.Is(err, indexerrors.Validation))
}

func TestOpenRejectsMissingRoot(t *testing.T) {
	_, err := session.Open(session.Config{ProjectRoot: filepath.Join(t.TempDir(), "does-not-exist")})
	require.Error(t, err)
	assert.True(t, indexerrors.Is(err, indexerrors.Validation))
}

func TestOneShotModeIndexesOnOpenAndSupportsQueries(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.ts", "export const x = 1;")
	writeFile(t, root, "b.ts", "import { x } from './a'; console.log(x);")

	s, err := session.Open(session.Config{
		ProjectRoot: root,
		WatchMode:   falsePtr(),
		Store:       memory.New(),
		Clock:       clock.NewFake(time.Unix(0, 0)),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	deps, err := s.GetDependencies(t.Context(), "", "b.ts")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.ts"}, deps)

	dependents, err := s.GetDependents(t.Context(), "", "a.ts")
	require.NoError(t, err)
	assert.Equal(t, []string{"b.ts"}, dependents)

	hasCycle, err := s.HasCycle(t.Context(), "")
	require.NoError(t, err)
	assert.False(t, hasCycle)
}

func TestOwnerModeStartsWatcherAndHeartbeat(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.ts", "export const x = 1;")

	clk := clock.NewFake(time.Unix(0, 0))
	s, err := session.Open(session.Config{
		ProjectRoot: root,
		Store:       memory.New(),
		Clock:       clk,
		PID:         101,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	projects := s.Projects()
	require.NotEmpty(t, projects)
}

func TestSecondSessionOnSameStoreBecomesReader(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.ts", "export const x = 1;")

	st := memory.New()
	clk := clock.NewFake(time.Unix(0, 0))

	owner, err := session.Open(session.Config{ProjectRoot: root, Store: st, Clock: clk, PID: 1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = owner.Close() })

	reader, err := session.Open(session.Config{ProjectRoot: root, Store: st, Clock: clk, PID: 2})
	require.NoError(t, err)
	t.Cleanup(func() { _ = reader.Close() })

	// The reader must not have an owner coordinator: reindex fails as
	// closed/not-owner rather than silently succeeding.
	_, err = reader.Reindex(t.Context())
	require.Error(t, err)
}

func TestCloseIsIdempotentAndGuardsQueries(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.ts", "export const x = 1;")

	s, err := session.Open(session.Config{
		ProjectRoot: root,
		WatchMode:   falsePtr(),
		Store:       memory.New(),
		Clock:       clock.NewFake(time.Unix(0, 0)),
	})
	require.NoError(t, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close(), "second close must be a no-op success")

	_, err = s.GetDependencies(t.Context(), "", "a.ts")
	require.Error(t, err)
	assert.True(t, indexerrors.Is(err, indexerrors.Closed))
}

func TestOnIndexedInvokesUserCallbackOnReindex(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.ts", "export const x = 1;")

	s, err := session.Open(session.Config{
		ProjectRoot: root,
		WatchMode:   falsePtr(),
		Store:       memory.New(),
		Clock:       clock.NewFake(time.Unix(0, 0)),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	calls := 0
	unsub := s.OnIndexed(func(*model.IndexResult) { calls++ })
	defer unsub()

	_, err = s.Reindex(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}
