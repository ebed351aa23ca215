package logger

import "log/slog"

// Standard field keys for structured logging. Centralized so every call site
// and both handlers (text/JSON) agree on spelling.
const (
	// Distributed tracing
	KeyTraceID = "trace_id"
	KeySpanID  = "span_id"

	// Indexing domain
	KeyProject      = "project"
	KeyOperation    = "operation"
	KeyFilePath     = "path"
	KeyOldPath      = "old_path"
	KeySymbol       = "symbol"
	KeySymbolKind   = "symbol_kind"
	KeyRelationType = "relation_type"
	KeyFingerprint  = "fingerprint"
	KeyRunID        = "run_id"
	KeyRunKind      = "run_kind"
	KeyFilesScanned = "files_scanned"
	KeyFilesChanged = "files_changed"
	KeyFilesRemoved = "files_removed"
	KeySymbolsMoved = "symbols_moved"
	KeyDurationMs   = "duration_ms"
	KeyOwnerPID     = "owner_pid"
	KeyOwnerRole    = "owner_role"
	KeyHeartbeatAge = "heartbeat_age_ms"
	KeyCacheKey     = "cache_key"
	KeyCacheHit     = "cache_hit"
	KeyCallbackID   = "callback_id"
	KeyQueueDepth   = "queue_depth"
	KeyStoreBackend = "store_backend"
	KeyError        = "error"
)

// TraceID builds a trace_id attribute.
func TraceID(v string) slog.Attr { return slog.String(KeyTraceID, v) }

// SpanID builds a span_id attribute.
func SpanID(v string) slog.Attr { return slog.String(KeySpanID, v) }

// Project identifies which indexed project an event belongs to.
func Project(v string) slog.Attr { return slog.String(KeyProject, v) }

// Operation names the high-level action being logged (e.g. "scan", "reindex").
func Operation(v string) slog.Attr { return slog.String(KeyOperation, v) }

// FilePath builds a path attribute, project-relative by convention.
func FilePath(v string) slog.Attr { return slog.String(KeyFilePath, v) }

// OldPath builds an old_path attribute for move/rename events.
func OldPath(v string) slog.Attr { return slog.String(KeyOldPath, v) }

// Symbol builds a symbol attribute for a symbol's qualified name.
func Symbol(v string) slog.Attr { return slog.String(KeySymbol, v) }

// SymbolKind builds a symbol_kind attribute (function, class, interface, ...).
func SymbolKind(v string) slog.Attr { return slog.String(KeySymbolKind, v) }

// RelationType builds a relation_type attribute (imports, extends, ...).
func RelationType(v string) slog.Attr { return slog.String(KeyRelationType, v) }

// Fingerprint builds a fingerprint attribute used by move tracking.
func Fingerprint(v string) slog.Attr { return slog.String(KeyFingerprint, v) }

// RunID identifies one coordinator run.
func RunID(v string) slog.Attr { return slog.String(KeyRunID, v) }

// RunKind distinguishes "full" from "incremental" runs.
func RunKind(v string) slog.Attr { return slog.String(KeyRunKind, v) }

// FilesScanned builds a files_scanned count attribute.
func FilesScanned(v int) slog.Attr { return slog.Int(KeyFilesScanned, v) }

// FilesChanged builds a files_changed count attribute.
func FilesChanged(v int) slog.Attr { return slog.Int(KeyFilesChanged, v) }

// FilesRemoved builds a files_removed count attribute.
func FilesRemoved(v int) slog.Attr { return slog.Int(KeyFilesRemoved, v) }

// SymbolsMoved builds a symbols_moved count attribute.
func SymbolsMoved(v int) slog.Attr { return slog.Int(KeySymbolsMoved, v) }

// Duration builds a duration_ms attribute in milliseconds.
func Duration(v float64) slog.Attr { return slog.Float64(KeyDurationMs, v) }

// OwnerPID builds an owner_pid attribute.
func OwnerPID(v int) slog.Attr { return slog.Int(KeyOwnerPID, v) }

// OwnerRole builds an owner_role attribute ("owner" or "reader").
func OwnerRole(v string) slog.Attr { return slog.String(KeyOwnerRole, v) }

// HeartbeatAge builds a heartbeat_age_ms attribute.
func HeartbeatAge(v float64) slog.Attr { return slog.Float64(KeyHeartbeatAge, v) }

// CacheKey builds a cache_key attribute.
func CacheKey(v string) slog.Attr { return slog.String(KeyCacheKey, v) }

// CacheHit builds a cache_hit attribute.
func CacheHit(v bool) slog.Attr { return slog.Bool(KeyCacheHit, v) }

// CallbackID builds a callback_id attribute for the callback bus.
func CallbackID(v string) slog.Attr { return slog.String(KeyCallbackID, v) }

// QueueDepth builds a queue_depth attribute for the watcher's debounce queue.
func QueueDepth(v int) slog.Attr { return slog.Int(KeyQueueDepth, v) }

// StoreBackend builds a store_backend attribute ("badger" or "memory").
func StoreBackend(v string) slog.Attr { return slog.String(KeyStoreBackend, v) }

// Err builds an error attribute. Returns a zero Attr (dropped by slog) when
// err is nil so callers can pass it unconditionally.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}
