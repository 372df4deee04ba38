package postgres

import (
	"context"
	"time"

	"github.com/marmos91/fstore/pkg/metadata"
)

// StreamObjects streams every object created at or before "before", ordered
// by id, via pgx's native row cursor: rows are read off the wire as the
// consumer drains the channel rather than materialized up front, so C10's
// check/archive worker can walk a multi-million row objects table without
// loading it into memory.
func (s *Store) StreamObjects(ctx context.Context, before time.Time) (<-chan metadata.Object, <-chan error) {
	out := make(chan metadata.Object)
	errc := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errc)

		const q = `SELECT id, hash, size, type, subtype, created_at FROM objects
		           WHERE created_at <= $1 ORDER BY id ASC`
		rows, err := s.pool.Query(ctx, q, before)
		if err != nil {
			errc <- mapPgError(err, "object")
			return
		}
		defer rows.Close()

		for rows.Next() {
			var obj metadata.Object
			if err := rows.Scan(&obj.ID, &obj.Hash, &obj.Size, &obj.Type, &obj.Subtype, &obj.CreatedAt); err != nil {
				errc <- wrapf("scan object", err)
				return
			}
			select {
			case <-ctx.Done():
				errc <- ctx.Err()
				return
			case out <- obj:
			}
		}
		if err := rows.Err(); err != nil {
			errc <- mapPgError(err, "object")
		}
	}()

	return out, errc
}
