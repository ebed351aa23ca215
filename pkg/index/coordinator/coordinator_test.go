package coordinator_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/codeindex/pkg/index/clock"
	"github.com/marmos91/codeindex/pkg/index/coordinator"
	"github.com/marmos91/codeindex/pkg/index/model"
	"github.com/marmos91/codeindex/pkg/index/movetracker"
	"github.com/marmos91/codeindex/pkg/index/parsecache"
	"github.com/marmos91/codeindex/pkg/index/process"
	"github.com/marmos91/codeindex/pkg/index/store/memory"
)

func newCoordinator(t *testing.T, root string) (*coordinator.Coordinator, *memory.Store, *clock.Fake) {
	t.Helper()
	st := memory.New()
	t.Cleanup(func() { _ = st.Close() })

	clk := clock.NewFake(time.Unix(0, 0))
	pc := parsecache.New(16)

	c := coordinator.New(coordinator.Config{
		Root:       root,
		Store:      st,
		Processor:  process.New(root, nil),
		Tracker:    movetracker.New(st),
		ParseCache: pc,
		Boundaries: []model.ProjectBoundary{{Project: "web", Directory: ""}},
		Extensions: []string{".ts"},
		Clock:      clk,
		DebounceMs: 100,
	})
	return c, st, clk
}

func writeFile(t *testing.T, root, relPath, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(root, relPath), []byte(contents), 0o644))
}

func TestFullIndexWritesFilesSymbolsAndRelations(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.ts", "export const x = 1;")
	writeFile(t, root, "b.ts", "import { x } from './a';\nexport function run() { return x; }")

	c, st, _ := newCoordinator(t, root)

	result, err := c.FullIndex(t.Context())
	require.NoError(t, err)

	assert.Equal(t, 2, result.IndexedFiles)
	assert.Equal(t, 0, result.RemovedFiles)
	assert.Len(t, result.ChangedSymbols.Added, 2)

	files, err := st.GetAllFiles(t.Context(), "web")
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestIncrementalIndexWithExplicitEventsReprocessesOnlyThoseFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.ts", "export const x = 1;")
	writeFile(t, root, "b.ts", "export const y = 2;")

	c, _, _ := newCoordinator(t, root)
	_, err := c.FullIndex(t.Context())
	require.NoError(t, err)

	writeFile(t, root, "a.ts", "export const x = 99;\nexport const z = 3;")

	result, err := c.IncrementalIndex(t.Context(), []model.FileChangeEvent{
		{Type: model.EventChange, FilePath: "a.ts"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.IndexedFiles)
	assert.Equal(t, []string{"a.ts"}, result.ChangedFiles)
	require.Len(t, result.ChangedSymbols.Added, 1)
	assert.Equal(t, "z", result.ChangedSymbols.Added[0].Name)
}

func TestIncrementalIndexCollapsesDuplicateEventsForSamePath(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.ts", "export const x = 1;")
	writeFile(t, root, "b.ts", "export const y = 2;")

	c, _, _ := newCoordinator(t, root)
	_, err := c.FullIndex(t.Context())
	require.NoError(t, err)

	writeFile(t, root, "a.ts", "export const x = 99;\nexport const z = 3;")

	result, err := c.IncrementalIndex(t.Context(), []model.FileChangeEvent{
		{Type: model.EventChange, FilePath: "a.ts"},
		{Type: model.EventChange, FilePath: "a.ts"},
		{Type: model.EventChange, FilePath: "a.ts"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.IndexedFiles)
	assert.Equal(t, []string{"a.ts"}, result.ChangedFiles)
	require.Len(t, result.ChangedSymbols.Added, 1)
	assert.Equal(t, "z", result.ChangedSymbols.Added[0].Name)
}

func TestIncrementalIndexLastEventWinsWhenPathChangesThenDeletes(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.ts", "export const x = 1;")

	c, st, _ := newCoordinator(t, root)
	_, err := c.FullIndex(t.Context())
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(root, "a.ts")))

	result, err := c.IncrementalIndex(t.Context(), []model.FileChangeEvent{
		{Type: model.EventChange, FilePath: "a.ts"},
		{Type: model.EventDelete, FilePath: "a.ts"},
	})
	require.NoError(t, err)

	assert.Equal(t, 0, result.IndexedFiles)
	assert.Equal(t, 1, result.RemovedFiles)
	assert.Equal(t, []string{"a.ts"}, result.DeletedFiles)

	_, err = st.GetFile(t.Context(), "web", "a.ts")
	assert.Error(t, err)
}

func TestIncrementalIndexHandlesDeletion(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.ts", "export const x = 1;")

	c, st, _ := newCoordinator(t, root)
	_, err := c.FullIndex(t.Context())
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(root, "a.ts")))

	result, err := c.IncrementalIndex(t.Context(), []model.FileChangeEvent{
		{Type: model.EventDelete, FilePath: "a.ts"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.RemovedFiles)
	assert.Len(t, result.ChangedSymbols.Removed, 1)

	_, err = st.GetFile(t.Context(), "web", "a.ts")
	assert.Error(t, err)
}

func TestFailedFileDoesNotFailTheRun(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.ts", "export const x = 1;")

	c, _, _ := newCoordinator(t, root)
	_, err := c.FullIndex(t.Context())
	require.NoError(t, err)

	result, err := c.IncrementalIndex(t.Context(), []model.FileChangeEvent{
		{Type: model.EventChange, FilePath: "missing.ts"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"missing.ts"}, result.FailedFiles)
	assert.Equal(t, 0, result.IndexedFiles)
}

func TestOnIndexedIsCalledAfterEachRun(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.ts", "export const x = 1;")

	c, _, _ := newCoordinator(t, root)
	var results []*model.IndexResult
	c.OnIndexed(func(r *model.IndexResult) { results = append(results, r) })

	_, err := c.FullIndex(t.Context())
	require.NoError(t, err)
	require.Len(t, results, 1)
}

func TestHandleWatcherEventDebouncesBeforeRunning(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.ts", "export const x = 1;")

	c, _, clk := newCoordinator(t, root)
	var results []*model.IndexResult
	c.OnIndexed(func(r *model.IndexResult) { results = append(results, r) })

	c.HandleWatcherEvent(model.FileChangeEvent{Type: model.EventChange, FilePath: "a.ts"})
	assert.Empty(t, results, "run must not start before the debounce window elapses")

	clk.Advance(100 * time.Millisecond)
	require.Eventually(t, func() bool { return len(results) == 1 }, time.Second, time.Millisecond)
}

func TestShutdownWaitsForInFlightRun(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.ts", "export const x = 1;")

	c, _, _ := newCoordinator(t, root)
	done := make(chan struct{})
	go func() {
		_, _ = c.FullIndex(t.Context())
		close(done)
	}()
	<-done

	require.NoError(t, c.Shutdown(t.Context()))
}
