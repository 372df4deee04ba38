// Package memstore is an in-memory MetadataStore test double, grounded on
// the shape of the teacher's now-superseded store/memory package: plain
// mutex-guarded maps with no persistence, used so pkg/objectstore and
// pkg/api unit tests don't require a live Postgres instance.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/marmos91/fstore/pkg/fstoreerr"
	"github.com/marmos91/fstore/pkg/metadata"
)

type association struct {
	bucket   uuid.UUID
	objectID uuid.UUID
}

// Store is an in-memory metadata.MetadataStore.
type Store struct {
	mu sync.Mutex

	buckets      map[uuid.UUID]metadata.Bucket
	bucketByName map[string]uuid.UUID

	objects   map[uuid.UUID]metadata.Object
	byHash    map[string]uuid.UUID
	assocs    map[association]struct{}
	refCounts map[uuid.UUID]int

	errors map[uuid.UUID]string
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{
		buckets:      make(map[uuid.UUID]metadata.Bucket),
		bucketByName: make(map[string]uuid.UUID),
		objects:      make(map[uuid.UUID]metadata.Object),
		byHash:       make(map[string]uuid.UUID),
		assocs:       make(map[association]struct{}),
		refCounts:    make(map[uuid.UUID]int),
		errors:       make(map[uuid.UUID]string),
	}
}

var _ metadata.MetadataStore = (*Store)(nil)

func (s *Store) CreateBucket(ctx context.Context, name string) (metadata.Bucket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if name == "" {
		return metadata.Bucket{}, fstoreerr.Internal("bucket name must not be empty", nil)
	}
	if _, exists := s.bucketByName[name]; exists {
		return metadata.Bucket{}, fstoreerr.SQL(errDuplicateBucketName)
	}

	b := metadata.Bucket{ID: uuid.New(), Name: name, CreatedAt: time.Now().UTC()}
	s.buckets[b.ID] = b
	s.bucketByName[name] = b.ID
	return b, nil
}

func (s *Store) FetchBucket(ctx context.Context, name string) (metadata.Bucket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.bucketByName[name]
	if !ok {
		return metadata.Bucket{}, fstoreerr.NotFound("bucket")
	}
	return s.buckets[id], nil
}

func (s *Store) FetchBucketByID(ctx context.Context, id uuid.UUID) (metadata.Bucket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[id]
	if !ok {
		return metadata.Bucket{}, fstoreerr.NotFound("bucket")
	}
	return b, nil
}

func (s *Store) FetchBucketsAll(ctx context.Context) ([]metadata.Bucket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]metadata.Bucket, 0, len(s.buckets))
	for _, b := range s.buckets {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) FetchStoreTotals(ctx context.Context) (metadata.StoreTotals, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var totals metadata.StoreTotals
	totals.Buckets = int64(len(s.buckets))
	for id, rc := range s.refCounts {
		if rc > 0 {
			totals.Objects++
			totals.SpaceUsed += s.objects[id].Size
		}
	}
	return totals, nil
}

func (s *Store) RenameBucket(ctx context.Context, id uuid.UUID, name string) (metadata.Bucket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[id]
	if !ok {
		return metadata.Bucket{}, fstoreerr.NotFound("bucket")
	}
	if existing, exists := s.bucketByName[name]; exists && existing != id {
		return metadata.Bucket{}, fstoreerr.SQL(errDuplicateBucketName)
	}

	delete(s.bucketByName, b.Name)
	b.Name = name
	s.buckets[id] = b
	s.bucketByName[name] = id
	return b, nil
}

func (s *Store) RemoveBucket(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[id]
	if !ok {
		return fstoreerr.NotFound("bucket")
	}
	for a := range s.assocs {
		if a.bucket == id {
			s.refCounts[a.objectID]--
			delete(s.assocs, a)
		}
	}
	delete(s.buckets, id)
	delete(s.bucketByName, b.Name)
	return nil
}

func (s *Store) AddObject(ctx context.Context, bucket uuid.UUID, objectID uuid.UUID, hash string, size int64, typ, subtype string) (metadata.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.buckets[bucket]; !ok {
		return metadata.Object{}, fstoreerr.NotFound("bucket")
	}

	existingID, hashKnown := s.byHash[hash]
	if hashKnown {
		if _, already := s.assocs[association{bucket, existingID}]; already {
			return s.objects[existingID], nil
		}
		s.assocs[association{bucket, existingID}] = struct{}{}
		s.refCounts[existingID]++
		return s.objects[existingID], nil
	}

	obj := metadata.Object{ID: objectID, Hash: hash, Size: size, Type: typ, Subtype: subtype, CreatedAt: time.Now().UTC()}
	s.objects[objectID] = obj
	s.byHash[hash] = objectID
	s.assocs[association{bucket, objectID}] = struct{}{}
	s.refCounts[objectID] = 1
	return obj, nil
}

func (s *Store) GetObject(ctx context.Context, bucket uuid.UUID, objectID uuid.UUID) (metadata.Object, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.assocs[association{bucket, objectID}]; !ok {
		return metadata.Object{}, false, nil
	}
	return s.objects[objectID], true, nil
}

func (s *Store) GetObjects(ctx context.Context, bucket uuid.UUID, objectIDs []uuid.UUID) ([]metadata.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]metadata.Object, 0, len(objectIDs))
	for _, id := range objectIDs {
		if _, ok := s.assocs[association{bucket, id}]; ok {
			out = append(out, s.objects[id])
		}
	}
	return out, nil
}

func (s *Store) RemoveObject(ctx context.Context, bucket uuid.UUID, objectID uuid.UUID) (metadata.Object, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := association{bucket, objectID}
	if _, ok := s.assocs[key]; !ok {
		return metadata.Object{}, false, nil
	}
	delete(s.assocs, key)
	s.refCounts[objectID]--
	return s.objects[objectID], true, nil
}

func (s *Store) RemoveObjects(ctx context.Context, bucket uuid.UUID, objectIDs []uuid.UUID) (metadata.RemoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res metadata.RemoveResult
	for _, id := range objectIDs {
		key := association{bucket, id}
		if _, ok := s.assocs[key]; !ok {
			continue
		}
		delete(s.assocs, key)
		s.refCounts[id]--
		res.Count++
		res.Bytes += s.objects[id].Size
	}
	return res, nil
}

func (s *Store) RemoveOrphanObjects(ctx context.Context) ([]metadata.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []metadata.Object
	for id, rc := range s.refCounts {
		if rc > 0 {
			continue
		}
		obj, ok := s.objects[id]
		if !ok {
			continue
		}
		removed = append(removed, obj)
		delete(s.objects, id)
		delete(s.byHash, obj.Hash)
		delete(s.refCounts, id)
		delete(s.errors, id)
	}
	sort.Slice(removed, func(i, j int) bool { return removed[i].ID.String() < removed[j].ID.String() })
	return removed, nil
}

func (s *Store) GetObjectCount(ctx context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for _, obj := range s.objects {
		if !obj.CreatedAt.After(before) {
			count++
		}
	}
	return count, nil
}

func (s *Store) StreamObjects(ctx context.Context, before time.Time) (<-chan metadata.Object, <-chan error) {
	out := make(chan metadata.Object)
	errc := make(chan error, 1)

	s.mu.Lock()
	snapshot := make([]metadata.Object, 0, len(s.objects))
	for _, obj := range s.objects {
		if !obj.CreatedAt.After(before) {
			snapshot = append(snapshot, obj)
		}
	}
	s.mu.Unlock()

	sort.Slice(snapshot, func(i, j int) bool { return snapshot[i].ID.String() < snapshot[j].ID.String() })

	go func() {
		defer close(out)
		defer close(errc)
		for _, obj := range snapshot {
			select {
			case <-ctx.Done():
				errc <- ctx.Err()
				return
			case out <- obj:
			}
		}
	}()

	return out, errc
}

func (s *Store) GetErrors(ctx context.Context) ([]metadata.ObjectError, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]metadata.ObjectError, 0, len(s.errors))
	for id, msg := range s.errors {
		if msg != "" {
			out = append(out, metadata.ObjectError{ObjectID: id, Message: msg})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ObjectID.String() < out[j].ObjectID.String() })
	return out, nil
}

func (s *Store) UpdateObjectErrors(ctx context.Context, errs []metadata.ObjectError) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range errs {
		if e.Message == "" {
			delete(s.errors, e.ObjectID)
			continue
		}
		s.errors[e.ObjectID] = e.Message
	}
	return nil
}
