package badger

import (
	"encoding/json"
	"fmt"

	"github.com/marmos91/codeindex/pkg/index/model"
)

// ============================================================================
// Database Key Namespace Design
// ============================================================================
//
// Keys are grouped by project and row kind so range scans stay cheap: every
// list operation is a prefix scan over one namespace.
//
// Data Type          Prefix    Key Format                                          Value
// ======================================================================================
// File Record        "file:"   file:{project}:{relPath}                            FileRecord (JSON)
// Symbol             "sym:"    sym:{project}:{relPath}:{qualName}:{kind}            Symbol (JSON)
// Fingerprint Index   "symfp:" symfp:{project}:{fingerprint}:{relPath}:{qualName}   "" (presence only)
// Relation            "rel:"    rel:{project}:{type}:{srcFile}:{srcSymbol}:{seq}     Relation (JSON)
// Inbound Index       "relin:" relin:{dstProject}:{dstFile}:{dstSymbol}:{relKeyHash} key-of(rel row)
// Source Index        "relsrc:" relsrc:{project}:{srcFile}:{seq}                    key-of(rel row)
// Owner               "owner:" owner:                                              OwnerRow (JSON)
//
// {relKeyHash} is the xxhash of the rel: key, so inbound rows of different
// source files never share a key. The owner row always uses an empty project
// component (see owner.go).

const (
	prefixFile   = "file:"
	prefixSymbol = "sym:"
	prefixSymFP  = "symfp:"
	prefixRel    = "rel:"
	prefixRelIn  = "relin:"
	prefixRelSrc = "relsrc:"
	prefixOwner  = "owner:"
)

func keyFile(project, relPath string) []byte {
	return []byte(prefixFile + project + ":" + relPath)
}

func keyFilePrefix(project string) []byte {
	return []byte(prefixFile + project + ":")
}

func keySymbol(project, relPath, qualName, kind string) []byte {
	return []byte(prefixSymbol + project + ":" + relPath + ":" + qualName + ":" + kind)
}

func keySymbolFilePrefix(project, relPath string) []byte {
	return []byte(prefixSymbol + project + ":" + relPath + ":")
}

func keySymbolProjectPrefix(project string) []byte {
	return []byte(prefixSymbol + project + ":")
}

func keySymFP(project, fingerprint, relPath, qualName string) []byte {
	return []byte(prefixSymFP + project + ":" + fingerprint + ":" + relPath + ":" + qualName)
}

func keySymFPPrefix(project, fingerprint string) []byte {
	return []byte(prefixSymFP + project + ":" + fingerprint + ":")
}

func keyRel(project string, relType model.RelationType, srcFile, srcSymbol string, seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%s:%s:%s:%s:%d", prefixRel, project, relType, srcFile, srcSymbol, seq))
}

func keyRelProjectTypePrefix(project string, relType model.RelationType) []byte {
	return []byte(fmt.Sprintf("%s%s:%s:", prefixRel, project, relType))
}

func keyRelIn(dstProject, dstFile, dstSymbol string, seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%s:%s:%s:%d", prefixRelIn, dstProject, dstFile, dstSymbol, seq))
}

func keyRelInPrefix(dstProject, dstFile, dstSymbol string) []byte {
	return []byte(fmt.Sprintf("%s%s:%s:%s:", prefixRelIn, dstProject, dstFile, dstSymbol))
}

// keyRelSrc and keyRelSrcPrefix index relation rows by (project, srcFile) so
// GetOutgoing/ReplaceFileRelations/DeleteFileRelations don't need to scan
// every relation type to find one file's rows. The value stored is the
// primary rel: key, not a copy of the row.
func keyRelSrc(project, srcFile string, seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%s:%s:%d", prefixRelSrc, project, srcFile, seq))
}

func keyRelSrcIndexPrefix(project, srcFile string) []byte {
	return []byte(fmt.Sprintf("%s%s:%s:", prefixRelSrc, project, srcFile))
}

func keyOwner(project string) []byte {
	return []byte(prefixOwner + project)
}

func encodeFileRecord(rec *model.FileRecord) ([]byte, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to encode file record: %w", err)
	}
	return data, nil
}

func decodeFileRecord(data []byte) (*model.FileRecord, error) {
	var rec model.FileRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode file record: %w", err)
	}
	return &rec, nil
}

func encodeSymbol(sym *model.Symbol) ([]byte, error) {
	data, err := json.Marshal(sym)
	if err != nil {
		return nil, fmt.Errorf("failed to encode symbol: %w", err)
	}
	return data, nil
}

func decodeSymbol(data []byte) (*model.Symbol, error) {
	var sym model.Symbol
	if err := json.Unmarshal(data, &sym); err != nil {
		return nil, fmt.Errorf("failed to decode symbol: %w", err)
	}
	return &sym, nil
}

func encodeRelation(rel *model.Relation) ([]byte, error) {
	data, err := json.Marshal(rel)
	if err != nil {
		return nil, fmt.Errorf("failed to encode relation: %w", err)
	}
	return data, nil
}

func decodeRelation(data []byte) (*model.Relation, error) {
	var rel model.Relation
	if err := json.Unmarshal(data, &rel); err != nil {
		return nil, fmt.Errorf("failed to decode relation: %w", err)
	}
	return &rel, nil
}

func encodeOwnerRow(owner *model.OwnerRow) ([]byte, error) {
	data, err := json.Marshal(owner)
	if err != nil {
		return nil, fmt.Errorf("failed to encode owner row: %w", err)
	}
	return data, nil
}

func decodeOwnerRow(data []byte) (*model.OwnerRow, error) {
	var owner model.OwnerRow
	if err := json.Unmarshal(data, &owner); err != nil {
		return nil, fmt.Errorf("failed to decode owner row: %w", err)
	}
	return &owner, nil
}
