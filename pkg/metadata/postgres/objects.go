package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/marmos91/fstore/pkg/metadata"
)

// AddObject inserts (bucket_id, object_id) dedup'd by hash: if an object
// with the same hash already exists the existing row is associated with
// bucket instead of inserting a duplicate blob, mirroring the dedup
// semantics of memstore.Store.AddObject.
func (s *Store) AddObject(ctx context.Context, bucket, objectID uuid.UUID, hash string, size int64, typ, subtype string) (metadata.Object, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return metadata.Object{}, mapPgError(err, "object")
	}
	defer tx.Rollback(ctx)

	var obj metadata.Object
	const selectByHash = `SELECT id, hash, size, type, subtype, created_at FROM objects WHERE hash = $1`
	err = tx.QueryRow(ctx, selectByHash, hash).Scan(&obj.ID, &obj.Hash, &obj.Size, &obj.Type, &obj.Subtype, &obj.CreatedAt)
	switch {
	case err == nil:
		// Existing object: associate with this bucket if not already.
	case errors.Is(err, pgx.ErrNoRows):
		const insert = `INSERT INTO objects (id, hash, size, type, subtype, created_at)
		                 VALUES ($1, $2, $3, $4, $5, now())
		                 RETURNING id, hash, size, type, subtype, created_at`
		if err := tx.QueryRow(ctx, insert, objectID, hash, size, typ, subtype).
			Scan(&obj.ID, &obj.Hash, &obj.Size, &obj.Type, &obj.Subtype, &obj.CreatedAt); err != nil {
			return metadata.Object{}, mapPgError(err, "object")
		}
	default:
		return metadata.Object{}, mapPgError(err, "object")
	}

	const assoc = `INSERT INTO bucket_objects (bucket_id, object_id) VALUES ($1, $2)
	               ON CONFLICT DO NOTHING`
	if _, err := tx.Exec(ctx, assoc, bucket, obj.ID); err != nil {
		return metadata.Object{}, mapPgError(err, "object")
	}

	if err := tx.Commit(ctx); err != nil {
		return metadata.Object{}, mapPgError(err, "object")
	}
	return obj, nil
}

func (s *Store) GetObject(ctx context.Context, bucket, objectID uuid.UUID) (metadata.Object, bool, error) {
	var obj metadata.Object
	const q = `SELECT o.id, o.hash, o.size, o.type, o.subtype, o.created_at
	           FROM objects o JOIN bucket_objects bo ON bo.object_id = o.id
	           WHERE bo.bucket_id = $1 AND o.id = $2`
	err := s.pool.QueryRow(ctx, q, bucket, objectID).
		Scan(&obj.ID, &obj.Hash, &obj.Size, &obj.Type, &obj.Subtype, &obj.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return metadata.Object{}, false, nil
	}
	if err != nil {
		return metadata.Object{}, false, mapPgError(err, "object")
	}
	return obj, true, nil
}

func (s *Store) GetObjects(ctx context.Context, bucket uuid.UUID, objectIDs []uuid.UUID) ([]metadata.Object, error) {
	if len(objectIDs) == 0 {
		return nil, nil
	}
	const q = `SELECT o.id, o.hash, o.size, o.type, o.subtype, o.created_at
	           FROM objects o JOIN bucket_objects bo ON bo.object_id = o.id
	           WHERE bo.bucket_id = $1 AND o.id = ANY($2)`
	rows, err := s.pool.Query(ctx, q, bucket, objectIDs)
	if err != nil {
		return nil, mapPgError(err, "object")
	}
	defer rows.Close()

	var out []metadata.Object
	for rows.Next() {
		var obj metadata.Object
		if err := rows.Scan(&obj.ID, &obj.Hash, &obj.Size, &obj.Type, &obj.Subtype, &obj.CreatedAt); err != nil {
			return nil, wrapf("scan object", err)
		}
		out = append(out, obj)
	}
	return out, rows.Err()
}

func (s *Store) RemoveObject(ctx context.Context, bucket, objectID uuid.UUID) (metadata.Object, bool, error) {
	obj, found, err := s.GetObject(ctx, bucket, objectID)
	if err != nil || !found {
		return metadata.Object{}, found, err
	}
	const q = `DELETE FROM bucket_objects WHERE bucket_id = $1 AND object_id = $2`
	if _, err := s.pool.Exec(ctx, q, bucket, objectID); err != nil {
		return metadata.Object{}, false, mapPgError(err, "object")
	}
	return obj, true, nil
}

func (s *Store) RemoveObjects(ctx context.Context, bucket uuid.UUID, objectIDs []uuid.UUID) (metadata.RemoveResult, error) {
	var res metadata.RemoveResult
	if len(objectIDs) == 0 {
		return res, nil
	}

	objs, err := s.GetObjects(ctx, bucket, objectIDs)
	if err != nil {
		return res, err
	}

	const q = `DELETE FROM bucket_objects WHERE bucket_id = $1 AND object_id = ANY($2)`
	tag, err := s.pool.Exec(ctx, q, bucket, objectIDs)
	if err != nil {
		return res, mapPgError(err, "object")
	}

	res.Count = tag.RowsAffected()
	for _, obj := range objs {
		res.Bytes += obj.Size
	}
	return res, nil
}

func (s *Store) GetObjectCount(ctx context.Context, before time.Time) (int64, error) {
	var count int64
	const q = `SELECT count(*) FROM objects WHERE created_at <= $1`
	if err := s.pool.QueryRow(ctx, q, before).Scan(&count); err != nil {
		return 0, mapPgError(err, "object")
	}
	return count, nil
}
