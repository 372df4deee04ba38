// Package objectstore implements C9: the façade composing the Filesystem
// (C6) and MetadataStore (C7) behind the invariants spec.md §3 and §4.9
// describe — dedup, prune, archive, check. Grounded on the teacher's
// lifecycle.Service pattern for guarded single-flight operations and its
// pkg/api server wiring for how a composed façade is constructed from its
// parts and handed to the HTTP boundary.
package objectstore

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/marmos91/fstore/internal/logger"
	"github.com/marmos91/fstore/internal/telemetry"
	"github.com/marmos91/fstore/pkg/fstoreerr"
	"github.com/marmos91/fstore/pkg/metadata"
	"github.com/marmos91/fstore/pkg/metrics"
	"github.com/marmos91/fstore/pkg/objectstore/archive"
	"github.com/marmos91/fstore/pkg/objectstore/fsys"
	"github.com/marmos91/fstore/pkg/progress"
)

// ObjectStore is immutable after construction; its inner Filesystem and
// MetadataStore are themselves safe for concurrent use, so the store is
// freely shared by pointer across request goroutines and the background
// worker (spec.md §5's "shared ownership" note).
type ObjectStore struct {
	fs   *fsys.Filesystem
	meta metadata.MetadataStore
	home string

	archiveDir     string
	archiveBackend archive.Backend
	dumpTool       string
	dumpDatabase   DumpDatabaseConfig

	checkTask   *progress.Task
	archiveTask *progress.Task
}

// Config carries the construction-time settings the façade needs beyond its
// two collaborators.
type Config struct {
	// ArchiveDir is the destination root for archive(); empty disables it
	// unless ArchiveS3 is set. Also used as the local staging directory for
	// the database dump file regardless of which backend serves the copy
	// step.
	ArchiveDir string
	// ArchiveS3, if non-nil, routes archive()'s copy step to an S3-compatible
	// bucket instead of ArchiveDir.
	ArchiveS3 *archive.S3Config
	// DumpTool is the path to the external pg_dump-equivalent binary,
	// invoked as an opaque subprocess per spec.md §1's "treated as opaque
	// calls" scoping. Empty skips the dump step with a warning.
	DumpTool string
	// DumpDatabase carries the connection parameters handed to DumpTool.
	DumpDatabase DumpDatabaseConfig
}

// DumpDatabaseConfig is the subset of pkg/metadata/postgres.Config the dump
// subprocess needs on its command line / environment.
type DumpDatabaseConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
}

// New constructs an ObjectStore over home (the Filesystem root) and meta.
func New(ctx context.Context, home string, meta metadata.MetadataStore, cfg Config) (*ObjectStore, error) {
	fs, err := fsys.NewFilesystem(home)
	if err != nil {
		return nil, err
	}

	var backend archive.Backend
	switch {
	case cfg.ArchiveS3 != nil:
		backend, err = archive.NewS3Backend(ctx, *cfg.ArchiveS3)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 archive backend: %w", err)
		}
	case cfg.ArchiveDir != "":
		backend = archive.NewLocalBackend(cfg.ArchiveDir)
	}

	return &ObjectStore{
		fs:             fs,
		meta:           meta,
		home:           home,
		archiveDir:     cfg.ArchiveDir,
		archiveBackend: backend,
		dumpTool:       cfg.DumpTool,
		dumpDatabase:   cfg.DumpDatabase,
		checkTask:      progress.NewTask(),
		archiveTask:    progress.NewTask(),
	}, nil
}

func (s *ObjectStore) AddBucket(ctx context.Context, name string) (metadata.Bucket, error) {
	return s.meta.CreateBucket(ctx, name)
}

func (s *ObjectStore) GetBucket(ctx context.Context, name string) (metadata.Bucket, error) {
	return s.meta.FetchBucket(ctx, name)
}

func (s *ObjectStore) GetBuckets(ctx context.Context) ([]metadata.Bucket, error) {
	return s.meta.FetchBucketsAll(ctx)
}

func (s *ObjectStore) RenameBucket(ctx context.Context, id uuid.UUID, name string) (metadata.Bucket, error) {
	return s.meta.RenameBucket(ctx, id, name)
}

func (s *ObjectStore) RemoveBucket(ctx context.Context, id uuid.UUID) error {
	return s.meta.RemoveBucket(ctx, id)
}

func (s *ObjectStore) GetTotals(ctx context.Context) (metadata.StoreTotals, error) {
	return s.meta.FetchStoreTotals(ctx)
}

// GetPart returns a Part for id, generating a fresh v4 UUID if id is the
// zero value.
func (s *ObjectStore) GetPart(id uuid.UUID) (*fsys.Part, error) {
	if id == uuid.Nil {
		id = uuid.New()
	}
	part, err := s.fs.Part(id)
	if fstoreerr.Is(err, fstoreerr.KindWriteLock) {
		metrics.ObserveWriteLockRejection()
	}
	return part, err
}

// CommitPart commits the part to objects/ and registers it against bucket.
// If the metadata insert fails after a successful rename, the file stays
// under objects/ with no Object row. Prune only removes files of Object
// rows with zero associations, so it never removes such a file (see
// DESIGN.md's Open Question decisions).
func (s *ObjectStore) CommitPart(ctx context.Context, bucket, partID uuid.UUID) (metadata.Object, error) {
	ctx, span := telemetry.StartCommitSpan(ctx, bucket.String(), partID.String())
	defer span.End()

	meta, err := s.fs.Commit(partID)
	if err != nil {
		telemetry.RecordError(ctx, err)
		return metadata.Object{}, err
	}
	telemetry.SetAttributes(ctx, telemetry.HashAttr(meta.Hash), telemetry.SizeAttr(meta.Size))

	obj, err := s.meta.AddObject(ctx, bucket, meta.ID, meta.Hash, meta.Size, meta.Type, meta.Subtype)
	if err == nil {
		metrics.ObserveCommit(meta.Size)
	} else {
		telemetry.RecordError(ctx, err)
	}
	return obj, err
}

func (s *ObjectStore) GetObjectMetadata(ctx context.Context, bucket, id uuid.UUID) (metadata.Object, bool, error) {
	return s.meta.GetObject(ctx, bucket, id)
}

// GetObject returns a read handle to the object's bytes.
func (s *ObjectStore) GetObject(id uuid.UUID) (*os.File, error) {
	return s.fs.Object(id)
}

func (s *ObjectStore) RemoveObject(ctx context.Context, bucket, id uuid.UUID) (metadata.Object, bool, error) {
	return s.meta.RemoveObject(ctx, bucket, id)
}

func (s *ObjectStore) RemoveObjects(ctx context.Context, bucket uuid.UUID, ids []uuid.UUID) (metadata.RemoveResult, error) {
	return s.meta.RemoveObjects(ctx, bucket, ids)
}

func (s *ObjectStore) GetObjectErrors(ctx context.Context) ([]metadata.ObjectError, error) {
	return s.meta.GetErrors(ctx)
}

// Prune removes every orphaned Object row in one metadata transaction, then
// best-effort removes the corresponding files — filesystem failures here
// are logged, not fatal, per spec.md §7: the metadata rows are already
// gone, and any leftover file becomes "extraneous" for a later archive
// pass to clean up.
func (s *ObjectStore) Prune(ctx context.Context) ([]metadata.Object, error) {
	removed, err := s.meta.RemoveOrphanObjects(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(removed))
	for i, obj := range removed {
		ids[i] = obj.ID
	}
	s.fs.RemoveObjects(ids)

	return removed, nil
}

// Check starts the background integrity-check task: every object is read
// back and its hash re-verified; mismatches are recorded as ObjectErrors,
// never propagated as request failures.
func (s *ObjectStore) Check(ctx context.Context) (*progress.Progress, error) {
	spanCtx, span := telemetry.StartWorkerSpan(ctx, telemetry.SpanCheck, "check")

	now := time.Now().UTC()
	total, err := s.meta.GetObjectCount(spanCtx, now)
	if err != nil {
		telemetry.RecordError(spanCtx, err)
		span.End()
		return nil, err
	}

	guard, p, err := progress.StartGuarded(s.checkTask, "check", total)
	if err != nil {
		telemetry.RecordError(spanCtx, err)
		span.End()
		return nil, err
	}

	action := checkAction{fs: s.fs}
	go func() {
		defer span.End()
		runWorker(spanCtx, s.meta, guard, p, now, action, "check")
	}()
	return p, nil
}

// Archive starts the background archive-sync task: dumps the metadata
// database, removes extraneous archive files, then copies every current
// object into the archive tree.
func (s *ObjectStore) Archive(ctx context.Context) (*progress.Progress, error) {
	if s.archiveBackend == nil {
		return nil, fstoreerr.Internal("no archive destination configured", nil)
	}

	spanCtx, span := telemetry.StartWorkerSpan(ctx, telemetry.SpanArchive, "archive")

	now := time.Now().UTC()
	total, err := s.meta.GetObjectCount(spanCtx, now)
	if err != nil {
		telemetry.RecordError(spanCtx, err)
		span.End()
		return nil, err
	}

	guard, p, err := progress.StartGuarded(s.archiveTask, "archive", total)
	if err != nil {
		telemetry.RecordError(spanCtx, err)
		span.End()
		return nil, err
	}

	if err := s.dumpDatabase(spanCtx); err != nil {
		telemetry.RecordError(spanCtx, err)
		span.End()
		guard.Release()
		return nil, err
	}
	if err := s.archiveBackend.RemoveExtraneous(spanCtx, s.fs); err != nil {
		telemetry.RecordError(spanCtx, err)
		span.End()
		guard.Release()
		return nil, err
	}

	action := syncAction{fs: s.fs, backend: s.archiveBackend}
	go func() {
		defer span.End()
		runWorker(spanCtx, s.meta, guard, p, now, action, "archive")
	}()
	return p, nil
}

func (s *ObjectStore) dumpDatabase(ctx context.Context) error {
	if s.dumpTool == "" {
		logger.Warn("no dump tool configured, skipping database dump")
		return nil
	}
	dir := s.archiveDir
	if dir == "" {
		dir = os.TempDir()
	}
	out := fmt.Sprintf("%s/fstore.dump", dir)
	return runDump(ctx, s.dumpTool, s.dumpDatabase, out)
}
