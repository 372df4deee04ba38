package fsys

import (
	"os"

	"golang.org/x/sys/unix"

	"github.com/marmos91/fstore/internal/logger"
	"github.com/marmos91/fstore/pkg/fstoreerr"
)

// fileLock wraps a non-blocking advisory exclusive flock on an open file
// descriptor (C4), grounded on the teacher's e2e lock_helpers.go Flock
// idiom but using golang.org/x/sys/unix (already the project's syscall
// dependency) in place of the standard-library syscall package so the lock
// constants and errno checks stay consistent with the rest of the tree.
type fileLock struct {
	f *os.File
}

// lockFile takes a non-blocking exclusive lock on f. If the lock is already
// held by any process, it fails with fstoreerr.WriteLock.
func lockFile(f *os.File) (*fileLock, error) {
	err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
	if err == nil {
		return &fileLock{f: f}, nil
	}
	if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
		return nil, fstoreerr.WriteLock(f.Name())
	}
	return nil, fstoreerr.Internal("failed to acquire file lock", err)
}

// unlock releases the OS lock. Errors are logged, never propagated, per
// spec.md §4.4 — the lock is advisory and the file is about to be closed
// regardless.
func (l *fileLock) unlock() {
	if l == nil || l.f == nil {
		return
	}
	if err := unix.Flock(int(l.f.Fd()), unix.LOCK_UN); err != nil {
		logger.Warn("failed to release file lock", "path", l.f.Name(), "error", err)
	}
}
