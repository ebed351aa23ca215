// Package scanner walks a project root, applies include/ignore rules, and
// classifies every candidate file as changed, unchanged, or deleted
// relative to a previously-indexed map, using a tiered mtime+size+content-
// hash classification over filepath.WalkDir.
package scanner

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/marmos91/codeindex/pkg/index/hash"
	"github.com/marmos91/codeindex/pkg/index/model"
)

// packageStoreDirs are directories never descended into regardless of
// ignoreGlobs, mirroring mutagen's "never sync package manager stores" rule.
var packageStoreDirs = map[string]bool{
	"node_modules": true,
	".git":         true,
}

// Result is the outcome of one Scan.
type Result struct {
	Changed   []string
	Unchanged []string
	Deleted   []string
}

// Scan walks root recursively, classifying every file whose extension is in
// includeExts and that doesn't match an ignore glob or lie under a
// package-store directory. existingMap keys are root-relative,
// forward-slash paths.
func Scan(root string, includeExts, ignoreGlobs []string, existingMap map[string]*model.FileRecord) (*Result, error) {
	result := &Result{}
	seen := make(map[string]bool, len(existingMap))

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && packageStoreDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		if !hasIncludedExt(rel, includeExts) {
			return nil
		}
		if matchesAny(rel, ignoreGlobs) {
			return nil
		}

		seen[rel] = true

		info, statErr := d.Info()
		if statErr != nil {
			return statErr
		}
		mtimeMs := info.ModTime().UnixMilli()
		size := info.Size()

		if existing, ok := existingMap[rel]; ok && existing.ModTimeMs == mtimeMs && existing.SizeBytes == size {
			result.Unchanged = append(result.Unchanged, rel)
			return nil
		}

		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return readErr
		}
		contentHash := hash.Content(data)

		if existing, ok := existingMap[rel]; ok && existing.ContentHash == contentHash {
			result.Unchanged = append(result.Unchanged, rel)
			return nil
		}

		result.Changed = append(result.Changed, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}

	for relPath := range existingMap {
		if !seen[relPath] {
			result.Deleted = append(result.Deleted, relPath)
		}
	}
	return result, nil
}

func hasIncludedExt(relPath string, includeExts []string) bool {
	ext := filepath.Ext(relPath)
	for _, inc := range includeExts {
		if ext == inc {
			return true
		}
	}
	return false
}

func matchesAny(relPath string, globs []string) bool {
	for _, g := range globs {
		if ok, _ := filepath.Match(g, relPath); ok {
			return true
		}
		if ok, _ := filepath.Match(g, filepath.Base(relPath)); ok {
			return true
		}
		if strings.Contains(relPath, strings.TrimSuffix(g, "/*")) && strings.HasSuffix(g, "/*") {
			return true
		}
	}
	return false
}
