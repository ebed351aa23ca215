// Package parse defines the parser/extractor seam the file processor
// depends on: read source text, produce symbol declarations and inter-file
// relations. Concrete extractors (see pkg/index/parse/tsregex) are injected
// at construction; a full AST parser, JSDoc parser, or semantic layer could
// satisfy this same interface without the file processor changing.
package parse

import "github.com/marmos91/codeindex/pkg/index/model"

// RawRelation is a Relation before endpoint normalization: DstModule is the
// module specifier as written ("./foo", "lodash") rather than a root-relative
// path, and is empty for a same-file relation. FileProcessor resolves it.
type RawRelation struct {
	Type      model.RelationType
	SrcSymbol string
	DstModule string
	DstSymbol string
	Metadata  map[string]any
}

// Result is one file's extracted symbols and relations, prior to path
// normalization and project resolution.
type Result struct {
	Symbols   []*model.Symbol
	Relations []*RawRelation
}

// Parser extracts symbols and relations from one file's source text.
// relPath is root-relative, forward-slash, used only to populate
// Symbol.RelativePath.
type Parser interface {
	Parse(relPath string, source []byte) (*Result, error)
}
