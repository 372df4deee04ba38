package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Span name constants for fstore's object-store operations.
const (
	SpanCommitPart    = "objectstore.commit_part"
	SpanGetObject     = "objectstore.get_object"
	SpanRemoveObjects = "objectstore.remove_objects"
	SpanPrune         = "objectstore.prune"
	SpanCheck         = "objectstore.check"
	SpanArchive       = "objectstore.archive"
)

// Attribute key constants, namespaced under "fstore." to avoid colliding
// with semantic-convention keys set elsewhere on the same span.
const (
	keyBucket   = "fstore.bucket"
	keyObjectID = "fstore.object_id"
	keyPartID   = "fstore.part_id"
	keyHash     = "fstore.object_hash"
	keySize     = "fstore.object_size"
	keyTask     = "fstore.task"
)

// BucketAttr returns the attribute identifying a bucket by name.
func BucketAttr(name string) attribute.KeyValue {
	return attribute.String(keyBucket, name)
}

// ObjectIDAttr returns the attribute identifying an object by id.
func ObjectIDAttr(id string) attribute.KeyValue {
	return attribute.String(keyObjectID, id)
}

// PartIDAttr returns the attribute identifying an in-flight upload part.
func PartIDAttr(id string) attribute.KeyValue {
	return attribute.String(keyPartID, id)
}

// HashAttr returns the attribute carrying an object's content hash.
func HashAttr(hash string) attribute.KeyValue {
	return attribute.String(keyHash, hash)
}

// SizeAttr returns the attribute carrying an object's size in bytes.
func SizeAttr(size int64) attribute.KeyValue {
	return attribute.Int64(keySize, size)
}

// TaskAttr returns the attribute naming a background task ("check" or
// "archive").
func TaskAttr(name string) attribute.KeyValue {
	return attribute.String(keyTask, name)
}

// StartCommitSpan starts a span around committing an uploaded part into the
// object tree, tagged with the bucket and part id.
func StartCommitSpan(ctx context.Context, bucket, partID string) (context.Context, trace.Span) {
	return StartSpan(ctx, SpanCommitPart, trace.WithAttributes(BucketAttr(bucket), PartIDAttr(partID)))
}

// StartObjectSpan starts a span around a read of a committed object.
func StartObjectSpan(ctx context.Context, bucket, objectID string) (context.Context, trace.Span) {
	return StartSpan(ctx, SpanGetObject, trace.WithAttributes(BucketAttr(bucket), ObjectIDAttr(objectID)))
}

// StartWorkerSpan starts a span around a background worker run (check or
// archive), tagged with the task name.
func StartWorkerSpan(ctx context.Context, name, taskName string) (context.Context, trace.Span) {
	return StartSpan(ctx, name, trace.WithAttributes(TaskAttr(taskName)))
}
