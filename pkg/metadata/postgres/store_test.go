package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestBucketLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	bucket, err := store.CreateBucket(ctx, "photos")
	if err != nil {
		t.Fatalf("CreateBucket: %v", err)
	}
	if bucket.Name != "photos" {
		t.Fatalf("expected bucket name %q, got %q", "photos", bucket.Name)
	}

	fetched, err := store.FetchBucket(ctx, "photos")
	if err != nil {
		t.Fatalf("FetchBucket: %v", err)
	}
	if fetched.ID != bucket.ID {
		t.Fatalf("expected id %v, got %v", bucket.ID, fetched.ID)
	}

	renamed, err := store.RenameBucket(ctx, bucket.ID, "photos-renamed")
	if err != nil {
		t.Fatalf("RenameBucket: %v", err)
	}
	if renamed.Name != "photos-renamed" {
		t.Fatalf("expected renamed bucket name %q, got %q", "photos-renamed", renamed.Name)
	}

	if err := store.RemoveBucket(ctx, bucket.ID); err != nil {
		t.Fatalf("RemoveBucket: %v", err)
	}
	if _, err := store.FetchBucket(ctx, "photos-renamed"); err == nil {
		t.Fatalf("expected FetchBucket to fail after RemoveBucket")
	}
}

func TestAddObjectDeduplicatesByHash(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	bucket, err := store.CreateBucket(ctx, "docs")
	if err != nil {
		t.Fatalf("CreateBucket: %v", err)
	}

	id := uuid.New()
	first, err := store.AddObject(ctx, bucket.ID, id, "deadbeef", 128, "text", "plain")
	if err != nil {
		t.Fatalf("AddObject (first): %v", err)
	}

	second, err := store.AddObject(ctx, bucket.ID, uuid.New(), "deadbeef", 128, "text", "plain")
	if err != nil {
		t.Fatalf("AddObject (duplicate hash): %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected duplicate-hash insert to resolve to the original object %v, got %v", first.ID, second.ID)
	}
}

func TestRemoveOrphanObjects(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	bucket, err := store.CreateBucket(ctx, "tmp")
	if err != nil {
		t.Fatalf("CreateBucket: %v", err)
	}

	id := uuid.New()
	obj, err := store.AddObject(ctx, bucket.ID, id, "cafebabe", 64, "application", "octet-stream")
	if err != nil {
		t.Fatalf("AddObject: %v", err)
	}

	if _, _, err := store.RemoveObject(ctx, bucket.ID, obj.ID); err != nil {
		t.Fatalf("RemoveObject: %v", err)
	}

	removed, err := store.RemoveOrphanObjects(ctx)
	if err != nil {
		t.Fatalf("RemoveOrphanObjects: %v", err)
	}
	found := false
	for _, o := range removed {
		if o.ID == obj.ID {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected orphaned object %v to be removed", obj.ID)
	}

	if _, err := store.GetObjectCount(ctx, time.Now().UTC()); err != nil {
		t.Fatalf("GetObjectCount: %v", err)
	}
}
