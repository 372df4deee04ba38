// Package archive provides the pluggable destinations archive() (spec.md
// §4.9, C9's syncAction) copies committed objects into: a second local
// filesystem tree, grounded on fsys.Filesystem.Copy/RemoveExtraneous, or an
// S3-compatible bucket, grounded on the teacher's pkg/store/content/s3
// client-construction and key-per-id conventions.
package archive

import (
	"context"

	"github.com/google/uuid"

	"github.com/marmos91/fstore/pkg/objectstore/fsys"
)

// Backend is the destination archive() copies objects into and prunes
// extraneous files from. LocalBackend and S3Backend are the two variants;
// like action (pkg/objectstore/action.go) this is a small closed interface
// rather than open-ended polymorphism.
type Backend interface {
	// Copy copies the object identified by objectID (whose bytes live under
	// fs) into the backend, skipping the copy if the backend already holds
	// a copy matching expectedHash.
	Copy(ctx context.Context, fs *fsys.Filesystem, objectID uuid.UUID, expectedHash string) error

	// RemoveExtraneous removes every archived object whose id is not a
	// current object under fs.
	RemoveExtraneous(ctx context.Context, fs *fsys.Filesystem) error
}
