// Package postgres implements the C7 MetadataStore against PostgreSQL via
// pgx/v5 + pgxpool, grounded on the teacher's
// pkg/metadata/store/postgres package: raw SQL with $N placeholders, a
// pgxpool.Pool field, pgx.ErrNoRows -> NotFound remapping, and log/slog
// logging of slow statements.
//
// Schema (DDL/migrations are out of scope per spec.md §1, applied via the
// opaque `fstore migrate` command — see cmd/fstore/commands/migrate.go):
//
//	buckets(id uuid pk, name text unique not null, created_at timestamptz)
//	objects(id uuid pk, hash text unique not null, size bigint, type text,
//	        subtype text, created_at timestamptz)
//	bucket_objects(bucket_id uuid references buckets(id),
//	               object_id uuid references objects(id),
//	               primary key (bucket_id, object_id))
//	object_errors(object_id uuid pk references objects(id), message text)
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marmos91/fstore/pkg/metadata"
)

// Store is a PostgreSQL-backed metadata.MetadataStore.
type Store struct {
	pool   *pgxpool.Pool
	config Config
}

var _ metadata.MetadataStore = (*Store)(nil)

// New creates a Store, opening (and pinging) a connection pool.
func New(ctx context.Context, cfg Config) (*Store, error) {
	pool, err := createConnectionPool(ctx, &cfg)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool, config: cfg}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func wrapf(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}
