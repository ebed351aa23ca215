// Package tsregex is a minimal regex-based extractor for TypeScript-family
// source (.ts, .mts, .cts, and their .tsx variants). It covers the common
// declaration and import/export surface without a full AST: function,
// class, interface, enum, type alias, and const/let/var declarations at the
// start of any line (nesting is not tracked); import/re-export statements;
// class heritage
// (extends/implements); and a best-effort call-site scan. It sits behind a
// narrow per-file extractor interface so a future AST-based implementation
// can replace it without touching callers.
package tsregex

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/marmos91/codeindex/pkg/index/hash"
	"github.com/marmos91/codeindex/pkg/index/model"
	"github.com/marmos91/codeindex/pkg/index/parse"
)

// Extractor implements parse.Parser.
type Extractor struct{}

// New returns a ready-to-use Extractor. It holds no state.
func New() *Extractor { return &Extractor{} }

var (
	reImportNamed   = regexp.MustCompile(`(?m)^\s*import\s+(?:type\s+)?\{([^}]*)\}\s+from\s+['"]([^'"]+)['"]`)
	reImportDefault = regexp.MustCompile(`(?m)^\s*import\s+(?:type\s+)?(\w+)\s+from\s+['"]([^'"]+)['"]`)
	reImportStar    = regexp.MustCompile(`(?m)^\s*import\s+(?:type\s+)?\*\s+as\s+(\w+)\s+from\s+['"]([^'"]+)['"]`)
	reImportBare    = regexp.MustCompile(`(?m)^\s*import\s+['"]([^'"]+)['"]`)
	reReExportNamed = regexp.MustCompile(`(?m)^\s*export\s+\{([^}]*)\}\s+from\s+['"]([^'"]+)['"]`)
	reReExportStar  = regexp.MustCompile(`(?m)^\s*export\s+\*\s+(?:as\s+(\w+)\s+)?from\s+['"]([^'"]+)['"]`)

	reFunction  = regexp.MustCompile(`(?m)^\s*(export\s+)?(default\s+)?(async\s+)?function\s*\*?\s+(\w+)\s*\(([^)]*)\)`)
	reClass     = regexp.MustCompile(`(?m)^\s*(export\s+)?(default\s+)?(abstract\s+)?class\s+(\w+)(\s+extends\s+(\w+))?(\s+implements\s+([\w,\s]+))?`)
	reInterface = regexp.MustCompile(`(?m)^\s*(export\s+)?interface\s+(\w+)(\s+extends\s+([\w,\s]+))?`)
	reEnum      = regexp.MustCompile(`(?m)^\s*(export\s+)?(const\s+)?enum\s+(\w+)`)
	reTypeAlias = regexp.MustCompile(`(?m)^\s*(export\s+)?type\s+(\w+)\s*(<[^>]*>)?\s*=`)
	reVarDecl   = regexp.MustCompile(`(?m)^\s*(export\s+)?(const|let|var)\s+(\w+)\s*(:[^=]+)?=`)
	reCallSite  = regexp.MustCompile(`\b([A-Za-z_]\w*)\s*\(`)
)

// Parse implements parse.Parser.
func (e *Extractor) Parse(relPath string, source []byte) (*parse.Result, error) {
	text := string(source)
	result := &parse.Result{}

	e.extractImports(text, result)
	e.extractDeclarations(relPath, text, result)
	e.extractCalls(text, result)

	return result, nil
}

func (e *Extractor) extractImports(text string, result *parse.Result) {
	for _, m := range reImportNamed.FindAllStringSubmatch(text, -1) {
		for _, name := range strings.Split(m[1], ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			name = lastField(name, " as ")
			result.Relations = append(result.Relations, &parse.RawRelation{
				Type: model.RelationImports, DstModule: m[2], DstSymbol: name,
			})
		}
	}
	for _, m := range reImportDefault.FindAllStringSubmatch(text, -1) {
		result.Relations = append(result.Relations, &parse.RawRelation{
			Type: model.RelationImports, DstModule: m[2], DstSymbol: "default",
		})
	}
	for _, m := range reImportStar.FindAllStringSubmatch(text, -1) {
		result.Relations = append(result.Relations, &parse.RawRelation{
			Type: model.RelationImports, DstModule: m[2],
		})
	}
	for _, m := range reImportBare.FindAllStringSubmatch(text, -1) {
		result.Relations = append(result.Relations, &parse.RawRelation{
			Type: model.RelationImports, DstModule: m[1],
		})
	}
	for _, m := range reReExportNamed.FindAllStringSubmatch(text, -1) {
		for _, name := range strings.Split(m[1], ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			name = lastField(name, " as ")
			result.Relations = append(result.Relations, &parse.RawRelation{
				Type: model.RelationReExport, DstModule: m[2], DstSymbol: name,
			})
		}
	}
	for _, m := range reReExportStar.FindAllStringSubmatch(text, -1) {
		result.Relations = append(result.Relations, &parse.RawRelation{
			Type: model.RelationReExport, DstModule: m[2], DstSymbol: m[1],
		})
	}
}

func lastField(spec, sep string) string {
	if idx := strings.Index(spec, sep); idx >= 0 {
		return strings.TrimSpace(spec[idx+len(sep):])
	}
	return spec
}

func (e *Extractor) extractDeclarations(relPath, text string, result *parse.Result) {
	for _, m := range reFunction.FindAllStringSubmatch(text, -1) {
		name := m[4]
		paramCount := countParams(m[5])
		async := m[3] != ""
		sig := hash.CallableSignatureSummary(paramCount, async)
		result.Symbols = append(result.Symbols, &model.Symbol{
			RelativePath: relPath, QualifiedName: name, Kind: model.KindFunction,
			Exported: m[1] != "", SignatureSummary: sig,
			Fingerprint: hash.Fingerprint(name, string(model.KindFunction), sig),
		})
	}

	for _, m := range reClass.FindAllStringSubmatch(text, -1) {
		name := m[4]
		result.Symbols = append(result.Symbols, &model.Symbol{
			RelativePath: relPath, QualifiedName: name, Kind: model.KindClass,
			Exported:    m[1] != "",
			Fingerprint: hash.Fingerprint(name, string(model.KindClass), ""),
		})
		if parent := strings.TrimSpace(m[6]); parent != "" {
			result.Relations = append(result.Relations, &parse.RawRelation{
				Type: model.RelationExtends, SrcSymbol: name, DstSymbol: parent,
			})
		}
		if ifaces := strings.TrimSpace(m[8]); ifaces != "" {
			for _, iface := range strings.Split(ifaces, ",") {
				iface = strings.TrimSpace(iface)
				if iface == "" {
					continue
				}
				result.Relations = append(result.Relations, &parse.RawRelation{
					Type: model.RelationImplement, SrcSymbol: name, DstSymbol: iface,
				})
			}
		}
	}

	for _, m := range reInterface.FindAllStringSubmatch(text, -1) {
		name := m[2]
		result.Symbols = append(result.Symbols, &model.Symbol{
			RelativePath: relPath, QualifiedName: name, Kind: model.KindInterface,
			Exported:    m[1] != "",
			Fingerprint: hash.Fingerprint(name, string(model.KindInterface), ""),
		})
		if parents := strings.TrimSpace(m[3]); parents != "" {
			for _, parent := range strings.Split(parents, ",") {
				parent = strings.TrimSpace(parent)
				if parent == "" {
					continue
				}
				result.Relations = append(result.Relations, &parse.RawRelation{
					Type: model.RelationExtends, SrcSymbol: name, DstSymbol: parent,
				})
			}
		}
	}

	for _, m := range reEnum.FindAllStringSubmatch(text, -1) {
		name := m[3]
		result.Symbols = append(result.Symbols, &model.Symbol{
			RelativePath: relPath, QualifiedName: name, Kind: model.KindEnum,
			Exported:    m[1] != "",
			Fingerprint: hash.Fingerprint(name, string(model.KindEnum), ""),
		})
	}

	for _, m := range reTypeAlias.FindAllStringSubmatch(text, -1) {
		name := m[2]
		result.Symbols = append(result.Symbols, &model.Symbol{
			RelativePath: relPath, QualifiedName: name, Kind: model.KindType,
			Exported:    m[1] != "",
			Fingerprint: hash.Fingerprint(name, string(model.KindType), ""),
		})
	}

	for _, m := range reVarDecl.FindAllStringSubmatch(text, -1) {
		name := m[3]
		result.Symbols = append(result.Symbols, &model.Symbol{
			RelativePath: relPath, QualifiedName: name, Kind: model.KindVariable,
			Exported:    m[1] != "",
			Fingerprint: hash.Fingerprint(name, string(model.KindVariable), ""),
		})
	}
}

// extractCalls records a best-effort `calls` relation for every declared
// function name that appears elsewhere in the file in call position. This
// is a same-file approximation only; cross-file call resolution is left to
// a richer parser.
func (e *Extractor) extractCalls(text string, result *parse.Result) {
	declared := make(map[string]bool)
	for _, sym := range result.Symbols {
		if sym.Kind == model.KindFunction {
			declared[sym.QualifiedName] = true
		}
	}
	if len(declared) == 0 {
		return
	}

	// The declaration itself matches reCallSite once ("name("), so a name
	// is recorded when it is seen a second time.
	occurrences := make(map[string]int)
	for _, m := range reCallSite.FindAllStringSubmatch(text, -1) {
		name := m[1]
		if !declared[name] {
			continue
		}
		occurrences[name]++
		if occurrences[name] != 2 {
			continue
		}
		result.Relations = append(result.Relations, &parse.RawRelation{
			Type: model.RelationCalls, DstSymbol: name,
		})
	}
}

func countParams(paramList string) int {
	paramList = strings.TrimSpace(paramList)
	if paramList == "" {
		return 0
	}
	depth := 0
	count := 1
	for _, r := range paramList {
		switch r {
		case '(', '<', '[', '{':
			depth++
		case ')', '>', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				count++
			}
		}
	}
	return count
}

var _ parse.Parser = (*Extractor)(nil)

// LineCount mirrors FileProcessor's lineCount rule (count(newline)+1) so
// callers that only have raw bytes can reuse the same definition.
func LineCount(data []byte) int {
	return bytes.Count(data, []byte{'\n'}) + 1
}
