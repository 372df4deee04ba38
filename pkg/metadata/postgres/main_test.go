package postgres

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

// sharedContainer holds the Postgres container every test in this package
// runs its queries against, plus the Config pointed at it.
var sharedContainer struct {
	container *postgres.PostgresContainer
	cfg       Config
}

// TestMain starts one shared postgres:16-alpine container and runs
// migrations against it, following the teacher's pkg/store/metadata/postgres
// shared-container pattern but built on the testcontainers-go/modules/postgres
// convenience wrapper instead of a hand-assembled GenericContainerRequest.
func TestMain(m *testing.M) {
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("fstore_test"),
		postgres.WithUsername("fstore_test"),
		postgres.WithPassword("fstore_test"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start postgres container: %v\n", err)
		os.Exit(1)
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		fmt.Fprintf(os.Stderr, "failed to get container host: %v\n", err)
		os.Exit(1)
	}

	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		_ = container.Terminate(ctx)
		fmt.Fprintf(os.Stderr, "failed to get container port: %v\n", err)
		os.Exit(1)
	}

	portNum, _ := strconv.Atoi(port.Port())
	cfg := Config{
		Host:     host,
		Port:     portNum,
		Database: "fstore_test",
		User:     "fstore_test",
		Password: "fstore_test",
		SSLMode:  "disable",
	}
	cfg.ApplyDefaults()

	if err := RunMigrations(ctx, cfg); err != nil {
		_ = container.Terminate(ctx)
		fmt.Fprintf(os.Stderr, "failed to run migrations: %v\n", err)
		os.Exit(1)
	}

	sharedContainer.container = container
	sharedContainer.cfg = cfg

	exitCode := m.Run()

	if err := container.Terminate(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "failed to terminate container: %v\n", err)
	}
	os.Exit(exitCode)
}

// newTestStore opens a fresh Store against the shared container and
// truncates every table so tests don't see each other's rows.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := New(ctx, sharedContainer.cfg)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(store.Close)

	if _, err := store.pool.Exec(ctx, "TRUNCATE buckets, objects, bucket_objects, object_errors CASCADE"); err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}

	return store
}
