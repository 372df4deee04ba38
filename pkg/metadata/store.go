package metadata

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MetadataStore is the capability set C7 exposes over the relational store.
// Implementations must be safe for concurrent use from multiple goroutines.
type MetadataStore interface {
	// CreateBucket inserts a new bucket. Fails with fstoreerr.KindSQL wrapping
	// a unique-violation when name already exists.
	CreateBucket(ctx context.Context, name string) (Bucket, error)

	// FetchBucket returns a bucket by name, or fstoreerr.KindNotFound.
	FetchBucket(ctx context.Context, name string) (Bucket, error)

	// FetchBucketByID returns a bucket by id, or fstoreerr.KindNotFound.
	FetchBucketByID(ctx context.Context, id uuid.UUID) (Bucket, error)

	// FetchBucketsAll returns every bucket, ordered by creation time.
	FetchBucketsAll(ctx context.Context) ([]Bucket, error)

	// FetchStoreTotals returns the aggregate bucket/object counts and the
	// total space used by distinct-hash objects still referenced by at
	// least one bucket.
	FetchStoreTotals(ctx context.Context) (StoreTotals, error)

	// RenameBucket renames a bucket, failing with KindNotFound if id is
	// absent or KindSQL on a duplicate-name conflict.
	RenameBucket(ctx context.Context, id uuid.UUID, name string) (Bucket, error)

	// RemoveBucket removes a bucket and its associations. Objects remain.
	RemoveBucket(ctx context.Context, id uuid.UUID) error

	// AddObject is idempotent on (bucket, hash): if bucket already has an
	// association to an object with this hash, that existing Object row is
	// returned. Otherwise an Object row is inserted if the hash is new
	// globally, an association is created, and the (possibly pre-existing,
	// possibly new) Object row is returned.
	AddObject(ctx context.Context, bucket uuid.UUID, objectID uuid.UUID, hash string, size int64, typ, subtype string) (Object, error)

	// GetObject returns the object associated with bucket, or
	// (Object{}, false, nil) if no such association exists.
	GetObject(ctx context.Context, bucket uuid.UUID, objectID uuid.UUID) (Object, bool, error)

	// GetObjects returns the subset of ids associated with bucket.
	GetObjects(ctx context.Context, bucket uuid.UUID, objectIDs []uuid.UUID) ([]Object, error)

	// RemoveObject removes the bucket->object association and returns the
	// removed Object row, or (Object{}, false, nil) if none existed. The
	// underlying Object row and file are left intact.
	RemoveObject(ctx context.Context, bucket uuid.UUID, objectID uuid.UUID) (Object, bool, error)

	// RemoveObjects removes every listed association in bucket, returning
	// the number removed and the sum of their sizes.
	RemoveObjects(ctx context.Context, bucket uuid.UUID, objectIDs []uuid.UUID) (RemoveResult, error)

	// RemoveOrphanObjects removes every Object row with zero associations
	// inside a single transaction and returns the removed rows, atomic with
	// respect to concurrent AddObject calls.
	RemoveOrphanObjects(ctx context.Context) ([]Object, error)

	// GetObjectCount returns the count of objects created at or before
	// "before".
	GetObjectCount(ctx context.Context, before time.Time) (int64, error)

	// StreamObjects returns a lazy, finite, non-restartable, deterministically
	// ordered sequence of objects created at or before "before". The
	// returned channel is closed when the stream ends or ctx is cancelled;
	// the error channel carries at most one error and is closed alongside it.
	StreamObjects(ctx context.Context, before time.Time) (<-chan Object, <-chan error)

	// GetErrors returns every non-empty ObjectError row.
	GetErrors(ctx context.Context) ([]ObjectError, error)

	// UpdateObjectErrors upserts the given ObjectError rows by object id. An
	// empty Message clears a previously recorded error.
	UpdateObjectErrors(ctx context.Context, errs []ObjectError) error
}
