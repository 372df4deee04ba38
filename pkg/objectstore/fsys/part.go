package fsys

import (
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/marmos91/fstore/pkg/fstoreerr"
)

// Part is a resumable append-only staging file with both an in-process and
// an OS-level lock held for its lifetime (C5). Multiple sequential writers
// append in call order; nothing truncates the file, which is what makes
// resuming an interrupted upload possible.
type Part struct {
	id       uuid.UUID
	path     string
	file     *os.File
	partLock *partLockToken
	fileLock *fileLock
}

// openPart acquires the in-process lock, ensures the parent directory
// exists, opens the file in append mode (creating it if absent), and takes
// the OS exclusive lock, in that order — unwinding the in-process lock if
// any later step fails, per spec.md §4.5.
func openPart(id uuid.UUID, path string, locks *partLockSet) (*Part, error) {
	token, err := locks.lock(id)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		token.drop()
		return nil, fstoreerr.Internal("failed to create part directory", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		token.drop()
		return nil, fstoreerr.Internal("failed to open part file", err)
	}

	fl, err := lockFile(f)
	if err != nil {
		_ = f.Close()
		token.drop()
		return nil, err
	}

	return &Part{id: id, path: path, file: f, partLock: token, fileLock: fl}, nil
}

// ID returns the part's UUID.
func (p *Part) ID() uuid.UUID { return p.id }

// Path returns the part's on-disk path.
func (p *Part) Path() string { return p.path }

// StreamToFile copies r in full into the part's file, retrying partial
// writes until r is exhausted, and returns the number of bytes written.
func (p *Part) StreamToFile(r io.Reader) (int64, error) {
	n, err := io.Copy(p.file, r)
	if err != nil {
		return n, fstoreerr.Internal("failed to write part data", err)
	}
	return n, nil
}

// Size returns the part's current size on disk.
func (p *Part) Size() (int64, error) {
	info, err := p.file.Stat()
	if err != nil {
		return 0, fstoreerr.Internal("failed to stat part file", err)
	}
	return info.Size(), nil
}

// Close releases both locks unconditionally. The part file itself is left
// in place; only commit (Filesystem.Commit) or a future manual cleanup
// removes it.
func (p *Part) Close() error {
	p.fileLock.unlock()
	err := p.file.Close()
	p.partLock.drop()
	if err != nil {
		return fstoreerr.Internal("failed to close part file", err)
	}
	return nil
}
