package logger

import (
	"fmt"
	"log/slog"
)

// Standard field keys for structured logging.
// Use these keys consistently across all log statements so aggregation and
// querying by key works the same way regardless of which component logged.
const (
	// ========================================================================
	// Distributed Tracing / Request Correlation
	// ========================================================================
	KeyTraceID   = "trace_id"   // OpenTelemetry trace ID for request correlation
	KeySpanID    = "span_id"    // OpenTelemetry span ID for operation tracking
	KeyRequestID = "request_id" // HTTP request id (chi middleware.RequestID)

	// ========================================================================
	// Domain identifiers
	// ========================================================================
	KeyBucket   = "bucket"    // Bucket name or id
	KeyObjectID = "object_id" // Object UUID
	KeyPartID   = "part_id"   // Part UUID
	KeyHash     = "hash"      // SHA-256 hex digest
	KeyMimeType = "mime_type" // "type/subtype"
	KeyTask     = "task"      // Background task name: check, archive
	KeyAction   = "action"    // Object stream worker action: check, sync

	// ========================================================================
	// File System Operations
	// ========================================================================
	KeyPath    = "path"     // Full file/directory path
	KeyOldPath = "old_path" // Source path for rename/move operations
	KeyNewPath = "new_path" // Destination path for rename/move operations
	KeySize    = "size"     // File/object size in bytes
	KeyMode    = "mode"     // File mode/permissions (Unix-style)

	// ========================================================================
	// I/O Operations
	// ========================================================================
	KeyBytesRead    = "bytes_read"    // Actual bytes read
	KeyBytesWritten = "bytes_written" // Actual bytes written

	// ========================================================================
	// Client Identification
	// ========================================================================
	KeyClientIP   = "client_ip"   // Client IP address
	KeyMethod     = "method"      // HTTP method
	KeyStatus     = "status"      // HTTP status code or operation status
	KeyRemoteAddr = "remote_addr" // Raw remote address string

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyDuration   = "duration"    // Operation duration (string, e.g. time.Duration.String())
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyError      = "error"       // Error message
	KeyErrorKind  = "error_kind"  // fstoreerr.Kind string
	KeyComponent  = "component"   // Logical component name (objectstore, filesystem, stream, api, ...)

	// ========================================================================
	// Progress / Background Work
	// ========================================================================
	KeyTotal     = "total"     // Expected total item count
	KeyCompleted = "completed" // Items completed so far
	KeyErrors    = "errors"    // Error count accumulated so far
)

// Bucket returns a structured attribute for a bucket name or id.
func Bucket(name string) slog.Attr {
	return slog.String(KeyBucket, name)
}

// ObjectID returns a structured attribute for an object id.
func ObjectID(id fmt.Stringer) slog.Attr {
	return slog.String(KeyObjectID, id.String())
}

// Err returns a structured attribute for an error, or a no-op attribute if
// err is nil. Mirrors slog.Any(KeyError, err) but keeps the key centralized.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}
