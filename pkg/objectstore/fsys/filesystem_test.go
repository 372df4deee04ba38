package fsys

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/fstore/pkg/fstoreerr"
)

func newTestFilesystem(t *testing.T) *Filesystem {
	t.Helper()
	fs, err := NewFilesystem(t.TempDir())
	require.NoError(t, err)
	return fs
}

func writePart(t *testing.T, fs *Filesystem, id uuid.UUID, data []byte) {
	t.Helper()
	p, err := fs.Part(id)
	require.NoError(t, err)
	_, err = p.StreamToFile(bytes.NewReader(data))
	require.NoError(t, err)
	require.NoError(t, p.Close())
}

func TestCommitProducesHashAndSize(t *testing.T) {
	fs := newTestFilesystem(t)
	id := uuid.New()
	writePart(t, fs, id, []byte("HI"))

	meta, err := fs.Commit(id)
	require.NoError(t, err)
	assert.Equal(t, int64(2), meta.Size)
	assert.NotEmpty(t, meta.Type)
	assert.NotEmpty(t, meta.Hash)

	_, err = os.Stat(fs.PartPath(id))
	assert.True(t, os.IsNotExist(err), "part file must no longer exist after commit")

	f, err := fs.Object(id)
	require.NoError(t, err)
	defer f.Close()
}

func TestObjectNotFound(t *testing.T) {
	fs := newTestFilesystem(t)
	_, err := fs.Object(uuid.New())
	require.Error(t, err)
	assert.Equal(t, fstoreerr.KindNotFound, fstoreerr.KindOf(err))
}

func TestPartDoubleOpenFailsWriteLock(t *testing.T) {
	fs := newTestFilesystem(t)
	id := uuid.New()

	p1, err := fs.Part(id)
	require.NoError(t, err)
	defer p1.Close()

	_, err = fs.Part(id)
	require.Error(t, err)
	assert.Equal(t, fstoreerr.KindWriteLock, fstoreerr.KindOf(err))
}

func TestPartResumeAfterClose(t *testing.T) {
	fs := newTestFilesystem(t)
	id := uuid.New()

	writePart(t, fs, id, []byte("abc"))
	writePart(t, fs, id, []byte("def"))

	meta, err := fs.Commit(id)
	require.NoError(t, err)
	assert.Equal(t, int64(6), meta.Size)
}

func TestRemoveObjectsPrunesEmptyParents(t *testing.T) {
	fs := newTestFilesystem(t)
	id := uuid.New()
	writePart(t, fs, id, []byte("x"))
	_, err := fs.Commit(id)
	require.NoError(t, err)

	objPath := fs.ObjectPath(id)
	fs.RemoveObjects([]uuid.UUID{id})

	_, err = os.Stat(objPath)
	assert.True(t, os.IsNotExist(err))

	prefixDir := filepath.Dir(filepath.Dir(objPath))
	_, err = os.Stat(prefixDir)
	assert.True(t, os.IsNotExist(err), "empty prefix directories should be pruned")
}

func TestCopyIsIdempotent(t *testing.T) {
	fs := newTestFilesystem(t)
	id := uuid.New()
	writePart(t, fs, id, []byte("payload"))
	meta, err := fs.Commit(id)
	require.NoError(t, err)

	archiveRoot := t.TempDir()
	require.NoError(t, fs.Copy(id, archiveRoot, meta.Hash))
	require.NoError(t, fs.Copy(id, archiveRoot, meta.Hash))

	dstPath := pathFor(filepath.Join(archiveRoot, "objects"), id)
	data, err := os.ReadFile(dstPath)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}

func TestRemoveExtraneousDeletesUnknownFiles(t *testing.T) {
	fs := newTestFilesystem(t)
	id := uuid.New()
	writePart(t, fs, id, []byte("keep"))
	meta, err := fs.Commit(id)
	require.NoError(t, err)

	archiveRoot := t.TempDir()
	require.NoError(t, fs.Copy(id, archiveRoot, meta.Hash))

	// A file with no corresponding Object row in the primary tree.
	orphanID := uuid.New()
	orphanPath := pathFor(filepath.Join(archiveRoot, "objects"), orphanID)
	require.NoError(t, os.MkdirAll(filepath.Dir(orphanPath), 0o750))
	require.NoError(t, os.WriteFile(orphanPath, []byte("stale"), 0o640))

	require.NoError(t, fs.RemoveExtraneous(archiveRoot))

	_, err = os.Stat(orphanPath)
	assert.True(t, os.IsNotExist(err))

	keptPath := pathFor(filepath.Join(archiveRoot, "objects"), id)
	_, err = os.Stat(keptPath)
	assert.NoError(t, err)
}

func TestCheckDetectsMismatch(t *testing.T) {
	fs := newTestFilesystem(t)
	id := uuid.New()
	writePart(t, fs, id, []byte("original"))
	meta, err := fs.Commit(id)
	require.NoError(t, err)

	assert.Empty(t, fs.Check(id, meta.Hash))

	require.NoError(t, os.WriteFile(fs.ObjectPath(id), []byte("tampered"), 0o640))
	assert.NotEmpty(t, fs.Check(id, meta.Hash))
}

func TestCheckMissingFile(t *testing.T) {
	fs := newTestFilesystem(t)
	assert.NotEmpty(t, fs.Check(uuid.New(), "deadbeef"))
}
