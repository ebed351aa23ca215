// Package boundary discovers project boundaries: named sub-trees of the
// indexed root identified by a package manifest file (package.json).
package boundary

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/marmos91/codeindex/pkg/index/model"
)

// ManifestName is the package-manifest filename that marks a boundary.
const ManifestName = "package.json"

// Discover walks root and returns one ProjectBoundary per directory
// containing a package.json; when no package.json is found anywhere, it
// returns a single synthetic root boundary named after root. The result is
// sorted by directory length, longest first; directories of equal length
// are not ordered by any tie-break.
func Discover(root string, ignoreDirs []string) ([]model.ProjectBoundary, error) {
	var boundaries []model.ProjectBoundary

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if path != root && (strings.HasPrefix(name, ".") || isIgnored(name, ignoreDirs)) {
			return filepath.SkipDir
		}

		manifest := filepath.Join(path, ManifestName)
		if _, statErr := os.Stat(manifest); statErr == nil {
			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				return relErr
			}
			rel = filepath.ToSlash(rel)
			if rel == "." {
				rel = ""
			}
			boundaries = append(boundaries, model.ProjectBoundary{
				Project:   filepath.Base(path),
				Directory: rel,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(boundaries) == 0 {
		boundaries = append(boundaries, model.ProjectBoundary{
			Project:   filepath.Base(root),
			Directory: "",
		})
	}

	sort.Slice(boundaries, func(i, j int) bool {
		return len(boundaries[i].Directory) > len(boundaries[j].Directory)
	})
	return boundaries, nil
}

func isIgnored(name string, ignoreDirs []string) bool {
	for _, d := range ignoreDirs {
		if name == d {
			return true
		}
	}
	return false
}

// Resolve returns the project owning relPath by longest-directory-prefix
// match against boundaries (which must be sorted longest-directory-first,
// as Discover returns them). Ties are broken by declaration order.
func Resolve(boundaries []model.ProjectBoundary, relPath string) string {
	relPath = filepath.ToSlash(relPath)
	for _, b := range boundaries {
		if b.Directory == "" {
			return b.Project
		}
		if relPath == b.Directory || strings.HasPrefix(relPath, b.Directory+"/") {
			return b.Project
		}
	}
	if len(boundaries) > 0 {
		return boundaries[len(boundaries)-1].Project
	}
	return ""
}
