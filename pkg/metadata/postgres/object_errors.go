package postgres

import (
	"context"

	"github.com/marmos91/fstore/pkg/metadata"
)

func (s *Store) GetErrors(ctx context.Context) ([]metadata.ObjectError, error) {
	const q = `SELECT object_id, message FROM object_errors WHERE message != '' ORDER BY object_id ASC`
	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, mapPgError(err, "object error")
	}
	defer rows.Close()

	var out []metadata.ObjectError
	for rows.Next() {
		var e metadata.ObjectError
		if err := rows.Scan(&e.ObjectID, &e.Message); err != nil {
			return nil, wrapf("scan object error", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// UpdateObjectErrors upserts each row by object id; a cleared (empty)
// message removes the row entirely so GetErrors never needs to filter on
// read, matching memstore.Store.UpdateObjectErrors.
func (s *Store) UpdateObjectErrors(ctx context.Context, errs []metadata.ObjectError) error {
	if len(errs) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return mapPgError(err, "object error")
	}
	defer tx.Rollback(ctx)

	const upsert = `INSERT INTO object_errors (object_id, message) VALUES ($1, $2)
	                ON CONFLICT (object_id) DO UPDATE SET message = excluded.message`
	const clear = `DELETE FROM object_errors WHERE object_id = $1`

	for _, e := range errs {
		var execErr error
		if e.Message == "" {
			_, execErr = tx.Exec(ctx, clear, e.ObjectID)
		} else {
			_, execErr = tx.Exec(ctx, upsert, e.ObjectID, e.Message)
		}
		if execErr != nil {
			return mapPgError(execErr, "object error")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return mapPgError(err, "object error")
	}
	return nil
}
