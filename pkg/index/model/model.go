// Package model defines the entities persisted and exchanged by the
// indexer: project boundaries, file records, symbols, relations, and the
// single ownership row. Field shapes follow the on-disk JSON encoding used
// by pkg/index/store.
package model

import "time"

// SymbolKind enumerates the kinds of Symbol the parser can emit.
type SymbolKind string

const (
	KindFunction  SymbolKind = "function"
	KindClass     SymbolKind = "class"
	KindInterface SymbolKind = "interface"
	KindEnum      SymbolKind = "enum"
	KindType      SymbolKind = "type"
	KindVariable  SymbolKind = "variable"
	KindMethod    SymbolKind = "method"
	KindProperty  SymbolKind = "property"
)

// RelationType enumerates the kinds of edges between symbols/files.
type RelationType string

const (
	RelationImports   RelationType = "imports"
	RelationCalls     RelationType = "calls"
	RelationExtends   RelationType = "extends"
	RelationImplement RelationType = "implements"
	RelationReExport  RelationType = "re-exports"
	RelationReference RelationType = "references"
)

// ProjectBoundary names a sub-tree of the indexed root that is a separable
// project (identified by a package manifest, e.g. package.json).
type ProjectBoundary struct {
	Project   string `json:"project"`
	Directory string `json:"directory"` // relative to the session root
}

// FileRecord is the indexed state of one source file.
type FileRecord struct {
	Project      string    `json:"project"`
	RelativePath string    `json:"relativePath"`
	ContentHash  string    `json:"contentHash"` // 16 lowercase hex digits
	ModTimeMs    int64     `json:"modTimeMs"`
	SizeBytes    int64     `json:"sizeBytes"`
	LineCount    int       `json:"lineCount"`
	LastIndexed  time.Time `json:"lastIndexed"`
}

// Span is a 1-based line / 0-based column source range.
type Span struct {
	StartLine int `json:"startLine"`
	StartCol  int `json:"startCol"`
	EndLine   int `json:"endLine"`
	EndCol    int `json:"endCol"`
}

// Symbol is one declaration extracted from a source file. Class/interface/
// enum members are stored as separate Symbol rows with a QualifiedName of
// "Parent.child".
type Symbol struct {
	Project         string         `json:"project"`
	RelativePath    string         `json:"relativePath"`
	QualifiedName   string         `json:"qualifiedName"`
	Kind            SymbolKind     `json:"kind"`
	Span            Span           `json:"span"`
	Exported        bool           `json:"exported"`
	SignatureSummary string        `json:"signatureSummary,omitempty"`
	Fingerprint     string         `json:"fingerprint"`
	Detail          map[string]any `json:"detail,omitempty"`
}

// Relation is a directed edge between two symbols or files, optionally
// spanning project boundaries.
type Relation struct {
	Project      string         `json:"project"`
	Type         RelationType   `json:"type"`
	SrcFile      string         `json:"srcFile"`
	SrcSymbol    string         `json:"srcSymbol,omitempty"`
	DstProject   string         `json:"dstProject"`
	DstFile      string         `json:"dstFile"`
	DstSymbol    string         `json:"dstSymbol,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// OwnerRow is the single ownership record held by the store. InstanceID
// disambiguates two owners sharing a PID across a reboot or container
// restart, so a session never releases or overwrites a row it didn't
// acquire.
type OwnerRow struct {
	PID         int       `json:"pid"`
	InstanceID  string    `json:"instanceId"`
	HeartbeatAt time.Time `json:"heartbeatAt"`
}

// FileChangeEventType enumerates watcher/scan event kinds.
type FileChangeEventType int

const (
	EventCreate FileChangeEventType = iota
	EventChange
	EventDelete
)

// String renders the event type the way it is serialized on the wire.
func (t FileChangeEventType) String() string {
	switch t {
	case EventCreate:
		return "create"
	case EventChange:
		return "change"
	case EventDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// FileChangeEvent is one filesystem change, root-relative with forward-slash
// path separators regardless of OS.
type FileChangeEvent struct {
	Type     FileChangeEventType
	FilePath string
}

// SymbolRef identifies one entry in a changedSymbols diff bucket.
type SymbolRef struct {
	Name     string     `json:"name"`
	FilePath string     `json:"filePath"`
	Kind     SymbolKind `json:"kind"`
}

// ChangedSymbols buckets the symbol-level diff of one reindex run.
type ChangedSymbols struct {
	Added    []SymbolRef `json:"added"`
	Removed  []SymbolRef `json:"removed"`
	Modified []SymbolRef `json:"modified"`
}

// IndexResult summarizes one completed coordinator run.
type IndexResult struct {
	IndexedFiles   int             `json:"indexedFiles"`
	RemovedFiles   int             `json:"removedFiles"`
	TotalSymbols   int             `json:"totalSymbols"`
	TotalRelations int             `json:"totalRelations"`
	DurationMs     int64           `json:"durationMs"`
	ChangedFiles   []string        `json:"changedFiles"`
	DeletedFiles   []string        `json:"deletedFiles"`
	FailedFiles    []string        `json:"failedFiles"`
	ChangedSymbols ChangedSymbols  `json:"changedSymbols"`

	// Transactional records whether this run was a full (transactional)
	// reindex rather than an incremental one. Internal bookkeeping only,
	// not part of the wire shape consumers observe.
	Transactional bool `json:"-"`
}

// FileStats summarizes one project's indexed footprint (used by the status
// CLI command).
type FileStats struct {
	FileCount     int `json:"fileCount"`
	SymbolCount   int `json:"symbolCount"`
	RelationCount int `json:"relationCount"`
}
