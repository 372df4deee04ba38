package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/marmos91/fstore/pkg/metadata"
)

// RemoveOrphanObjects deletes every object row with zero bucket associations
// inside a single transaction, so a concurrent AddObject racing to attach a
// new bucket to an about-to-be-pruned object either commits before the
// delete (and survives) or after it (and is treated as a fresh insert) —
// never both, following the teacher's pattern of wrapping multi-statement
// invariants in one pgx transaction rather than relying on app-level locks.
func (s *Store) RemoveOrphanObjects(ctx context.Context) ([]metadata.Object, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, mapPgError(err, "object")
	}
	defer tx.Rollback(ctx)

	const selectOrphans = `
		SELECT o.id, o.hash, o.size, o.type, o.subtype, o.created_at
		FROM objects o
		WHERE NOT EXISTS (SELECT 1 FROM bucket_objects bo WHERE bo.object_id = o.id)
		FOR UPDATE OF o SKIP LOCKED`
	rows, err := tx.Query(ctx, selectOrphans)
	if err != nil {
		return nil, mapPgError(err, "object")
	}

	var orphans []metadata.Object
	for rows.Next() {
		var obj metadata.Object
		if err := rows.Scan(&obj.ID, &obj.Hash, &obj.Size, &obj.Type, &obj.Subtype, &obj.CreatedAt); err != nil {
			rows.Close()
			return nil, wrapf("scan object", err)
		}
		orphans = append(orphans, obj)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, mapPgError(err, "object")
	}
	rows.Close()

	if len(orphans) > 0 {
		ids := make([]uuid.UUID, len(orphans))
		for i, o := range orphans {
			ids[i] = o.ID
		}

		const deleteErrors = `DELETE FROM object_errors WHERE object_id = ANY($1)`
		if _, err := tx.Exec(ctx, deleteErrors, ids); err != nil {
			return nil, mapPgError(err, "object")
		}

		const deleteObjects = `DELETE FROM objects WHERE id = ANY($1)`
		if _, err := tx.Exec(ctx, deleteObjects, ids); err != nil {
			return nil, mapPgError(err, "object")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, mapPgError(err, "object")
	}
	return orphans, nil
}
