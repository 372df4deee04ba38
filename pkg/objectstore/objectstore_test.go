package objectstore

import (
	"bytes"
	"context"
	"io"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/fstore/pkg/fstoreerr"
	"github.com/marmos91/fstore/pkg/metadata/memstore"
)

func tamperObjectFile(t *testing.T, s *ObjectStore, id uuid.UUID) {
	t.Helper()
	require.NoError(t, os.WriteFile(s.fs.ObjectPath(id), []byte("tampered"), 0o640))
}

func newTestStore(t *testing.T) *ObjectStore {
	t.Helper()
	s, err := New(context.Background(), t.TempDir(), memstore.New(), Config{})
	require.NoError(t, err)
	return s
}

func TestCommitPartThenReadBack(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	bucket, err := s.AddBucket(ctx, "photos")
	require.NoError(t, err)

	part, err := s.GetPart(uuid.Nil)
	require.NoError(t, err)
	_, err = part.StreamToFile(bytes.NewReader([]byte("HI")))
	require.NoError(t, err)
	require.NoError(t, part.Close())

	obj, err := s.CommitPart(ctx, bucket.ID, part.ID())
	require.NoError(t, err)
	assert.Equal(t, int64(2), obj.Size)

	f, err := s.GetObject(obj.ID)
	require.NoError(t, err)
	defer f.Close()
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "HI", string(data))
}

func TestDeduplicationAcrossBuckets(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	b1, _ := s.AddBucket(ctx, "photos")
	b2, _ := s.AddBucket(ctx, "backup")

	p1, err := s.GetPart(uuid.Nil)
	require.NoError(t, err)
	_, _ = p1.StreamToFile(bytes.NewReader([]byte("HI")))
	require.NoError(t, p1.Close())
	o1, err := s.CommitPart(ctx, b1.ID, p1.ID())
	require.NoError(t, err)

	p2, err := s.GetPart(uuid.Nil)
	require.NoError(t, err)
	_, _ = p2.StreamToFile(bytes.NewReader([]byte("HI")))
	require.NoError(t, p2.Close())
	o2, err := s.CommitPart(ctx, b2.ID, p2.ID())
	require.NoError(t, err)

	assert.Equal(t, o1.ID, o2.ID)

	totals, err := s.GetTotals(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, totals.Buckets)
	assert.EqualValues(t, 1, totals.Objects)
}

func TestPruneRemovesOrphanFileAndRow(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	b, _ := s.AddBucket(ctx, "photos")
	p, err := s.GetPart(uuid.Nil)
	require.NoError(t, err)
	_, _ = p.StreamToFile(bytes.NewReader([]byte("x")))
	require.NoError(t, p.Close())
	obj, err := s.CommitPart(ctx, b.ID, p.ID())
	require.NoError(t, err)

	_, removed, err := s.RemoveObject(ctx, b.ID, obj.ID)
	require.NoError(t, err)
	require.True(t, removed)

	pruned, err := s.Prune(ctx)
	require.NoError(t, err)
	require.Len(t, pruned, 1)
	assert.Equal(t, obj.ID, pruned[0].ID)

	_, err = s.GetObject(obj.ID)
	require.Error(t, err)
	assert.Equal(t, fstoreerr.KindNotFound, fstoreerr.KindOf(err))
}

func TestCheckFindsTamperedObject(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	b, _ := s.AddBucket(ctx, "photos")
	p, err := s.GetPart(uuid.Nil)
	require.NoError(t, err)
	_, _ = p.StreamToFile(bytes.NewReader([]byte("original")))
	require.NoError(t, p.Close())
	obj, err := s.CommitPart(ctx, b.ID, p.ID())
	require.NoError(t, err)

	progress, err := s.Check(ctx)
	require.NoError(t, err)
	progress.Finished()
	assert.EqualValues(t, 1, progress.Completed())
	assert.EqualValues(t, 0, progress.Errors())

	f, err := s.GetObject(obj.ID)
	require.NoError(t, err)
	f.Close()

	// Tamper and check again.
	tamperObjectFile(t, s, obj.ID)

	progress2, err := s.Check(ctx)
	require.NoError(t, err)
	progress2.Finished()
	assert.EqualValues(t, 1, progress2.Completed())
	assert.EqualValues(t, 1, progress2.Errors())

	errs, err := s.GetObjectErrors(ctx)
	require.NoError(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, obj.ID, errs[0].ObjectID)
}

func TestCheckRejectsConcurrentRun(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	p1, err := s.Check(ctx)
	require.NoError(t, err)

	_, err = s.Check(ctx)
	require.Error(t, err)
	assert.Equal(t, fstoreerr.KindInProgress, fstoreerr.KindOf(err))

	p1.Finished()
}

func TestArchiveWithoutDestinationFails(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.Archive(ctx)
	require.Error(t, err)
	assert.Equal(t, fstoreerr.KindInternal, fstoreerr.KindOf(err))
}
