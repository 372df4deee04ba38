package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/marmos91/fstore/internal/logger"
	"github.com/marmos91/fstore/pkg/fstoreerr"
	"github.com/marmos91/fstore/pkg/metadata"
)

func (s *Store) timeQuery(ctx context.Context, op string, fn func() error) error {
	start := time.Now()
	err := fn()
	if d := time.Since(start); d > s.config.SlowQueryThreshold {
		logger.WarnCtx(ctx, "slow metadata statement", "op", op, "duration", d.String())
	}
	return err
}

func (s *Store) CreateBucket(ctx context.Context, name string) (metadata.Bucket, error) {
	var b metadata.Bucket
	b.Name = name

	err := s.timeQuery(ctx, "CreateBucket", func() error {
		const q = `INSERT INTO buckets (id, name, created_at) VALUES (gen_random_uuid(), $1, now())
		           RETURNING id, created_at`
		return s.pool.QueryRow(ctx, q, name).Scan(&b.ID, &b.CreatedAt)
	})
	if err != nil {
		if isUniqueViolation(err) {
			return metadata.Bucket{}, duplicateNameError(name)
		}
		return metadata.Bucket{}, mapPgError(err, "bucket")
	}
	return b, nil
}

func (s *Store) FetchBucket(ctx context.Context, name string) (metadata.Bucket, error) {
	var b metadata.Bucket
	err := s.timeQuery(ctx, "FetchBucket", func() error {
		const q = `SELECT id, name, created_at FROM buckets WHERE name = $1`
		return s.pool.QueryRow(ctx, q, name).Scan(&b.ID, &b.Name, &b.CreatedAt)
	})
	if err != nil {
		return metadata.Bucket{}, mapPgError(err, "bucket")
	}
	return b, nil
}

func (s *Store) FetchBucketByID(ctx context.Context, id uuid.UUID) (metadata.Bucket, error) {
	var b metadata.Bucket
	err := s.timeQuery(ctx, "FetchBucketByID", func() error {
		const q = `SELECT id, name, created_at FROM buckets WHERE id = $1`
		return s.pool.QueryRow(ctx, q, id).Scan(&b.ID, &b.Name, &b.CreatedAt)
	})
	if err != nil {
		return metadata.Bucket{}, mapPgError(err, "bucket")
	}
	return b, nil
}

func (s *Store) FetchBucketsAll(ctx context.Context) ([]metadata.Bucket, error) {
	const q = `SELECT id, name, created_at FROM buckets ORDER BY created_at ASC`
	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, mapPgError(err, "bucket")
	}
	defer rows.Close()

	var out []metadata.Bucket
	for rows.Next() {
		var b metadata.Bucket
		if err := rows.Scan(&b.ID, &b.Name, &b.CreatedAt); err != nil {
			return nil, wrapf("scan bucket", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) FetchStoreTotals(ctx context.Context) (metadata.StoreTotals, error) {
	var totals metadata.StoreTotals
	const q = `
		SELECT
			(SELECT count(*) FROM buckets),
			(SELECT count(*) FROM objects o WHERE EXISTS (
				SELECT 1 FROM bucket_objects bo WHERE bo.object_id = o.id)),
			(SELECT coalesce(sum(o.size), 0) FROM objects o WHERE EXISTS (
				SELECT 1 FROM bucket_objects bo WHERE bo.object_id = o.id))`
	err := s.pool.QueryRow(ctx, q).Scan(&totals.Buckets, &totals.Objects, &totals.SpaceUsed)
	if err != nil {
		return metadata.StoreTotals{}, mapPgError(err, "store totals")
	}
	return totals, nil
}

func (s *Store) RenameBucket(ctx context.Context, id uuid.UUID, name string) (metadata.Bucket, error) {
	var b metadata.Bucket
	err := s.timeQuery(ctx, "RenameBucket", func() error {
		const q = `UPDATE buckets SET name = $1 WHERE id = $2 RETURNING id, name, created_at`
		return s.pool.QueryRow(ctx, q, name, id).Scan(&b.ID, &b.Name, &b.CreatedAt)
	})
	if err != nil {
		if isUniqueViolation(err) {
			return metadata.Bucket{}, duplicateNameError(name)
		}
		return metadata.Bucket{}, mapPgError(err, "bucket")
	}
	return b, nil
}

func (s *Store) RemoveBucket(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM buckets WHERE id = $1`, id)
	if err != nil {
		return mapPgError(err, "bucket")
	}
	if tag.RowsAffected() == 0 {
		return fstoreerr.NotFound("bucket")
	}
	return nil
}
