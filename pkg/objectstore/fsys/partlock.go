package fsys

import (
	"sync"

	"github.com/google/uuid"

	"github.com/marmos91/fstore/pkg/fstoreerr"
)

// partLockSet is a mutex-guarded set of UUIDs currently being written (C3).
// It rejects a second same-process writer before either side touches the
// filesystem, letting a duplicate upload attempt fail fast with WriteLock
// rather than racing on the OS flock in C4.
type partLockSet struct {
	mu  sync.Mutex
	ids map[uuid.UUID]struct{}
}

func newPartLockSet() *partLockSet {
	return &partLockSet{ids: make(map[uuid.UUID]struct{})}
}

// partLockToken releases its id from the set exactly once when dropped.
type partLockToken struct {
	set     *partLockSet
	id      uuid.UUID
	dropped bool
}

// lock grants a token for id, or fails with fstoreerr.WriteLock if id is
// already locked by another in-flight writer.
func (s *partLockSet) lock(id uuid.UUID) (*partLockToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, held := s.ids[id]; held {
		return nil, fstoreerr.WriteLock(id.String())
	}
	s.ids[id] = struct{}{}
	return &partLockToken{set: s, id: id}, nil
}

// drop releases the token, idempotently.
func (t *partLockToken) drop() {
	if t == nil || t.dropped {
		return
	}
	t.dropped = true
	t.set.mu.Lock()
	delete(t.set.ids, t.id)
	t.set.mu.Unlock()
}
