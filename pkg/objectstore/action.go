package objectstore

import (
	"context"
	"fmt"

	"github.com/marmos91/fstore/pkg/metadata"
	"github.com/marmos91/fstore/pkg/objectstore/archive"
	"github.com/marmos91/fstore/pkg/objectstore/fsys"
)

// action is the small capability interface the stream worker (C10) applies
// per object. spec.md §9 calls the Rust/Python source's dynamic dispatch a
// closed set of two variants; a two-case interface is the idiomatic Go
// rendition of that same "tagged variant, not unbounded polymorphism"
// guidance.
type action interface {
	run(ctx context.Context, obj metadata.Object) string
}

// checkAction re-verifies an object's hash in place.
type checkAction struct {
	fs *fsys.Filesystem
}

func (a checkAction) run(_ context.Context, obj metadata.Object) string {
	return a.fs.Check(obj.ID, obj.Hash)
}

// syncAction copies an object into the archive backend, idempotently.
type syncAction struct {
	fs      *fsys.Filesystem
	backend archive.Backend
}

func (a syncAction) run(ctx context.Context, obj metadata.Object) string {
	if err := a.backend.Copy(ctx, a.fs, obj.ID, obj.Hash); err != nil {
		return fmt.Sprintf("archive copy failed: %v", err)
	}
	return ""
}
