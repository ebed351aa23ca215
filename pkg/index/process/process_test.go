package process_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/codeindex/pkg/index/model"
	"github.com/marmos91/codeindex/pkg/index/process"
)

func TestProcessResolvesRelativeImportAndSymbols(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.ts"), []byte("export const x = 1;"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.ts"), []byte("import { x } from './a';\nexport function run() { return x; }"), 0o644))

	p := process.New(root, nil)
	result, err := p.Process("b.ts", "", process.Options{
		Boundaries: []model.ProjectBoundary{{Project: "web", Directory: ""}},
	})
	require.NoError(t, err)

	assert.Equal(t, "web", result.Project)
	assert.Equal(t, "b.ts", result.File.RelativePath)
	require.Len(t, result.Symbols, 1)
	assert.Equal(t, "run", result.Symbols[0].QualifiedName)

	var found bool
	for _, rel := range result.Relations {
		if rel.Type == model.RelationImports && rel.DstFile == "a.ts" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestProcessDropsEscapingRelations(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "a.ts"), []byte("import { x } from '../../outside';"), 0o644))

	p := process.New(root, nil)
	result, err := p.Process("src/a.ts", "", process.Options{
		Boundaries: []model.ProjectBoundary{{Project: "web", Directory: ""}},
	})
	require.NoError(t, err)
	assert.Empty(t, result.Relations)
}

func TestProcessHonoursKnownFilesAllowList(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.ts"), []byte("export const x = 1;"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.ts"), []byte("import { x } from './a';"), 0o644))

	p := process.New(root, nil)
	result, err := p.Process("b.ts", "", process.Options{
		Boundaries: []model.ProjectBoundary{{Project: "web", Directory: ""}},
		KnownFiles: map[string]bool{}, // a.ts not present -> relation dropped
	})
	require.NoError(t, err)
	assert.Empty(t, result.Relations)
}
