// Package process reads one file, runs it through the injected parser, and
// normalizes the resulting symbols and relations into project-relative,
// boundary-resolved rows ready for the repository writer.
package process

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/marmos91/codeindex/internal/logger"
	"github.com/marmos91/codeindex/pkg/index/boundary"
	indexerrors "github.com/marmos91/codeindex/pkg/index/errors"
	"github.com/marmos91/codeindex/pkg/index/hash"
	"github.com/marmos91/codeindex/pkg/index/model"
	"github.com/marmos91/codeindex/pkg/index/parse"
	"github.com/marmos91/codeindex/pkg/index/parse/tsregex"
	"github.com/marmos91/codeindex/pkg/index/tsconfig"
)

// Result is one file's processed output, ready for RepositoryWriter.
type Result struct {
	Project   string
	File      *model.FileRecord
	Symbols   []*model.Symbol
	Relations []*model.Relation
}

// Options carries the per-run context FileProcessor needs to resolve
// project boundaries and path aliases.
type Options struct {
	Boundaries []model.ProjectBoundary
	Resolver   tsconfig.Resolver
	// KnownFiles, when non-nil, is the full-index allow-list keyed
	// "project::relPath"; a relation's dst is dropped unless present.
	KnownFiles map[string]bool
}

// Processor implements FileProcessor.
type Processor struct {
	root   string
	parser parse.Parser
}

// New constructs a Processor rooted at root, using parser for extraction.
// A nil parser defaults to tsregex.New().
func New(root string, parser parse.Parser) *Processor {
	if parser == nil {
		parser = tsregex.New()
	}
	return &Processor{root: root, parser: parser}
}

// Process reads and extracts relPath (root-relative, forward-slash).
// knownHash, if non-empty, is reused instead of recomputing the content
// hash (the caller already knows it from the scan pass).
func (p *Processor) Process(relPath, knownHash string, opts Options) (*Result, error) {
	abs := filepath.Join(p.root, filepath.FromSlash(relPath))
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, indexerrors.Wrap(indexerrors.Parse, "failed to read "+relPath, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, indexerrors.Wrap(indexerrors.Parse, "failed to stat "+relPath, err)
	}

	contentHash := knownHash
	if contentHash == "" {
		contentHash = hash.Content(data)
	}
	lineCount := tsregex.LineCount(data)

	project := boundary.Resolve(opts.Boundaries, relPath)

	parsed, err := p.parser.Parse(relPath, data)
	if err != nil {
		return nil, indexerrors.Wrap(indexerrors.Parse, "failed to parse "+relPath, err)
	}

	for _, sym := range parsed.Symbols {
		sym.Project = project
		sym.RelativePath = relPath
	}

	relations := make([]*model.Relation, 0, len(parsed.Relations))
	for _, raw := range parsed.Relations {
		rel := p.normalizeRelation(relPath, project, raw, opts)
		if rel == nil {
			continue
		}
		relations = append(relations, rel)
	}

	logger.Debug("processed file", logger.FilePath(relPath), logger.Project(project))

	return &Result{
		Project: project,
		File: &model.FileRecord{
			Project:      project,
			RelativePath: relPath,
			ContentHash:  contentHash,
			ModTimeMs:    info.ModTime().UnixMilli(),
			SizeBytes:    info.Size(),
			LineCount:    lineCount,
		},
		Symbols:   parsed.Symbols,
		Relations: relations,
	}, nil
}

// normalizeRelation resolves raw's dst module specifier to a root-relative
// file path, resolves dstProject via the boundary map, and drops the
// relation if the target escapes the root or fails the known-files
// allow-list (full-index path only).
func (p *Processor) normalizeRelation(srcRelPath, project string, raw *parse.RawRelation, opts Options) *model.Relation {
	// Relations with no module target (extends/implements/calls resolved
	// against a same-file symbol) stay within the source file's project.
	if raw.DstModule == "" {
		return &model.Relation{
			Project: project, Type: raw.Type,
			SrcFile: srcRelPath, SrcSymbol: raw.SrcSymbol,
			DstProject: project, DstFile: srcRelPath, DstSymbol: raw.DstSymbol,
			Metadata: raw.Metadata,
		}
	}

	dstRelPath, ok := p.resolveModule(srcRelPath, raw.DstModule, opts.Resolver)
	if !ok {
		return nil
	}
	dstRelPath = filepath.ToSlash(filepath.Clean(dstRelPath))
	if dstRelPath == ".." || strings.HasPrefix(dstRelPath, "../") {
		return nil
	}

	dstProject := project
	if len(opts.Boundaries) > 0 {
		dstProject = boundary.Resolve(opts.Boundaries, dstRelPath)
	}

	if opts.KnownFiles != nil {
		key := dstProject + "::" + dstRelPath
		if !opts.KnownFiles[key] {
			return nil
		}
	}

	return &model.Relation{
		Project: project, Type: raw.Type,
		SrcFile: srcRelPath, SrcSymbol: raw.SrcSymbol,
		DstProject: dstProject, DstFile: dstRelPath, DstSymbol: raw.DstSymbol,
		Metadata: raw.Metadata,
	}
}

// resolveModule resolves a bare import specifier to a root-relative path:
// relative specifiers ("./x") resolve against srcRelPath's directory;
// everything else goes through the tsconfig resolver. Unresolved bare
// module specifiers (e.g. "lodash") are reported as not-ok: the relation is
// dropped rather than errored.
func (p *Processor) resolveModule(srcRelPath, specifier string, resolver tsconfig.Resolver) (string, bool) {
	if strings.HasPrefix(specifier, ".") {
		joined := filepath.Join(filepath.Dir(srcRelPath), specifier)
		return withExtension(filepath.ToSlash(joined), filepath.Ext(srcRelPath)), true
	}
	if resolver != nil {
		if resolved, ok := resolver.Resolve(specifier); ok {
			return withExtension(resolved, filepath.Ext(srcRelPath)), true
		}
	}
	return "", false
}

func withExtension(relPath, fallbackExt string) string {
	if filepath.Ext(relPath) != "" {
		return relPath
	}
	if fallbackExt == "" {
		fallbackExt = ".ts"
	}
	return relPath + fallbackExt
}
