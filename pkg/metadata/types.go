// Package metadata defines the relational metadata store abstraction (C7):
// buckets, content-addressed objects, bucket-object associations, and the
// object-error log, plus the operations the object store engine (C9) and
// the object stream worker (C10) need against it.
package metadata

import (
	"time"

	"github.com/google/uuid"
)

// Bucket is a named collection of object associations.
type Bucket struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Object is the metadata row for a content-addressed, deduplicated blob.
// The Hash is the canonical identity for content equality; the ID is the
// stable identity used for filesystem paths (C1) once the object is
// committed, and never changes across its lifetime.
type Object struct {
	ID        uuid.UUID `json:"id"`
	Hash      string    `json:"hash"` // 64 lowercase hex chars, SHA-256
	Size      int64     `json:"size"`
	Type      string    `json:"type"`    // MIME top-level type, e.g. "text"
	Subtype   string    `json:"subtype"` // MIME subtype, e.g. "plain"
	CreatedAt time.Time `json:"created_at"`
}

// MimeType renders the split MIME type back into "type/subtype" form.
func (o Object) MimeType() string {
	return o.Type + "/" + o.Subtype
}

// ObjectError is the latest integrity/sync message recorded against an
// object id by the background object stream worker. An empty Message means
// "no error" and is used to clear a previously recorded error.
type ObjectError struct {
	ObjectID uuid.UUID `json:"object_id"`
	Message  string    `json:"message"`
}

// StoreTotals are the aggregate counts exposed by GET /status.
type StoreTotals struct {
	Buckets   int64 `json:"buckets"`
	Objects   int64 `json:"objects"`
	SpaceUsed int64 `json:"space_used"`
}

// RemoveResult is returned by bulk object-association removal.
type RemoveResult struct {
	Count int64 `json:"count"`
	Bytes int64 `json:"bytes"`
}
