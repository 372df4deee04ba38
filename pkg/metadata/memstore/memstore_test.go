package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/fstore/pkg/fstoreerr"
)

func TestCreateBucketDuplicateName(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.CreateBucket(ctx, "photos")
	require.NoError(t, err)

	_, err = s.CreateBucket(ctx, "photos")
	require.Error(t, err)
	assert.Equal(t, fstoreerr.KindSQL, fstoreerr.KindOf(err))
}

func TestAddObjectDeduplicatesAcrossBuckets(t *testing.T) {
	s := New()
	ctx := context.Background()

	b1, err := s.CreateBucket(ctx, "photos")
	require.NoError(t, err)
	b2, err := s.CreateBucket(ctx, "backup")
	require.NoError(t, err)

	id1 := uuid.New()
	obj1, err := s.AddObject(ctx, b1.ID, id1, "deadbeef", 2, "text", "plain")
	require.NoError(t, err)

	id2 := uuid.New()
	obj2, err := s.AddObject(ctx, b2.ID, id2, "deadbeef", 2, "text", "plain")
	require.NoError(t, err)

	assert.Equal(t, obj1.ID, obj2.ID, "same hash across buckets must share the object id")

	totals, err := s.FetchStoreTotals(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, totals.Buckets)
	assert.EqualValues(t, 1, totals.Objects)
	assert.EqualValues(t, 2, totals.SpaceUsed)
}

func TestAddObjectIdempotentWithinBucket(t *testing.T) {
	s := New()
	ctx := context.Background()

	b, err := s.CreateBucket(ctx, "photos")
	require.NoError(t, err)

	id := uuid.New()
	obj1, err := s.AddObject(ctx, b.ID, id, "hash1", 10, "image", "png")
	require.NoError(t, err)

	obj2, err := s.AddObject(ctx, b.ID, uuid.New(), "hash1", 10, "image", "png")
	require.NoError(t, err)

	assert.Equal(t, obj1.ID, obj2.ID)
}

func TestRemoveObjectDoesNotCascade(t *testing.T) {
	s := New()
	ctx := context.Background()

	b1, _ := s.CreateBucket(ctx, "a")
	b2, _ := s.CreateBucket(ctx, "b")

	id := uuid.New()
	obj, err := s.AddObject(ctx, b1.ID, id, "hash", 5, "text", "plain")
	require.NoError(t, err)
	_, err = s.AddObject(ctx, b2.ID, uuid.New(), "hash", 5, "text", "plain")
	require.NoError(t, err)

	_, removed, err := s.RemoveObject(ctx, b1.ID, obj.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	got, ok, err := s.GetObject(ctx, b2.ID, obj.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, obj.Hash, got.Hash)
}

func TestRemoveOrphanObjects(t *testing.T) {
	s := New()
	ctx := context.Background()

	b, _ := s.CreateBucket(ctx, "a")
	obj, err := s.AddObject(ctx, b.ID, uuid.New(), "hash", 5, "text", "plain")
	require.NoError(t, err)

	removed, err := s.RemoveOrphanObjects(ctx)
	require.NoError(t, err)
	assert.Empty(t, removed, "object still has an association, must not be pruned")

	_, _, err = s.RemoveObject(ctx, b.ID, obj.ID)
	require.NoError(t, err)

	removed, err = s.RemoveOrphanObjects(ctx)
	require.NoError(t, err)
	require.Len(t, removed, 1)
	assert.Equal(t, obj.ID, removed[0].ID)

	_, ok, err := s.GetObject(ctx, b.ID, obj.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStreamObjects(t *testing.T) {
	s := New()
	ctx := context.Background()

	b, _ := s.CreateBucket(ctx, "a")
	for i := 0; i < 3; i++ {
		_, err := s.AddObject(ctx, b.ID, uuid.New(), uuid.NewString(), 1, "text", "plain")
		require.NoError(t, err)
	}

	objc, errc := s.StreamObjects(ctx, time.Now().UTC())
	var count int
	for range objc {
		count++
	}
	require.NoError(t, <-errc)
	assert.Equal(t, 3, count)
}
