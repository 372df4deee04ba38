package archive

import (
	"context"

	"github.com/google/uuid"

	"github.com/marmos91/fstore/pkg/objectstore/fsys"
)

// LocalBackend archives into a second directory tree, delegating to the
// same Filesystem primitives the primary objects/ tree uses.
type LocalBackend struct {
	Dir string
}

// NewLocalBackend returns a Backend rooted at dir.
func NewLocalBackend(dir string) *LocalBackend {
	return &LocalBackend{Dir: dir}
}

func (b *LocalBackend) Copy(_ context.Context, fs *fsys.Filesystem, objectID uuid.UUID, expectedHash string) error {
	return fs.Copy(objectID, b.Dir, expectedHash)
}

func (b *LocalBackend) RemoveExtraneous(_ context.Context, fs *fsys.Filesystem) error {
	return fs.RemoveExtraneous(b.Dir)
}
